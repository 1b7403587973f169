package cache

import (
	"database/sql"
	"testing"

	"github.com/lepinkainen/steamfetch/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestGetRequiresExactLastPlayed(t *testing.T) {
	c := New()
	c.Set(620, 1700000000, 10, 51, "Still Alive", ptr(4.2))

	entry, ok := c.Get(620, 1700000000)
	require.True(t, ok)
	assert.Equal(t, 10, entry.Achieved)
	assert.Equal(t, 51, entry.Total)
	assert.Equal(t, "Still Alive", entry.RarestName)
	require.NotNil(t, entry.RarestPercent)
	assert.Equal(t, 4.2, *entry.RarestPercent)

	_, ok = c.Get(620, 1700000001)
	assert.False(t, ok, "stale last_played must miss")

	_, ok = c.Get(400, 0)
	assert.False(t, ok)
}

func TestSetReplacesEntry(t *testing.T) {
	c := New()
	c.Set(10, 1, 0, 0, "", nil)
	c.Set(10, 2, 3, 4, "Win", ptr(50))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(10, 1)
	assert.False(t, ok)
	entry, ok := c.Get(10, 2)
	require.True(t, ok)
	assert.Equal(t, 3, entry.Achieved)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("nested", "dir", "achievements.db")

	c := Load(path)
	assert.Equal(t, 0, c.Len())
	env.RequireFileNotExists("nested/dir/achievements.db")

	c.Set(620, 1700000000, 10, 51, "Still Alive", ptr(4.2))
	c.Set(10, 0, 0, 0, "", nil)
	c.Set(20, 1600000000, 5, 5, "", nil)
	require.NoError(t, c.Save())
	env.RequireFileExists("nested/dir/achievements.db")

	loaded := Load(path)
	assert.Equal(t, 3, loaded.Len())

	entry, ok := loaded.Get(620, 1700000000)
	require.True(t, ok)
	assert.Equal(t, Entry{LastPlayed: 1700000000, Achieved: 10, Total: 51, RarestName: "Still Alive", RarestPercent: ptr(4.2)}, entry)

	entry, ok = loaded.Get(10, 0)
	require.True(t, ok)
	assert.Nil(t, entry.RarestPercent)
	assert.Equal(t, 0, entry.Total)

	// A second save overwrites rather than duplicating rows.
	loaded.Set(620, 1700000500, 11, 51, "Still Alive", ptr(4.2))
	require.NoError(t, loaded.Save())
	reloaded := Load(path)
	assert.Equal(t, 3, reloaded.Len())
	_, ok = reloaded.Get(620, 1700000500)
	assert.True(t, ok)
}

func TestLoadGarbageFileIsEmpty(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("achievements.db")
	env.WriteFileString("achievements.db", "this is not a database at all, just some text padding it out")

	c := Load(path)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, path, c.Path())
}

func TestSaveReplacesGarbageFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("achievements.db")
	env.WriteFileString("achievements.db", "this is not a database at all, just some text padding it out")

	c := Load(path)
	c.Set(1, 100, 2, 5, "", nil)
	require.NoError(t, c.Save())

	reloaded := Load(path)
	assert.Equal(t, 1, reloaded.Len())
	entry, ok := reloaded.Get(1, 100)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Achieved)
	assert.Equal(t, 5, entry.Total)
}

func TestSaveReplacesOldSchema(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("achievements.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE achievement_cache (app_id INTEGER PRIMARY KEY, last_played INTEGER, unlocked INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO achievement_cache (app_id, last_played, unlocked) VALUES (7, 1, 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c := Load(path)
	assert.Equal(t, 0, c.Len())
	c.Set(1, 100, 2, 5, "First", ptr(12.5))
	require.NoError(t, c.Save())

	reloaded := Load(path)
	assert.Equal(t, 1, reloaded.Len())
	_, ok := reloaded.Get(1, 100)
	assert.True(t, ok)
}

func TestNewCacheSaveIsNoop(t *testing.T) {
	c := New()
	c.Set(1, 1, 1, 1, "", nil)
	assert.NoError(t, c.Save())
	assert.Empty(t, c.Path())
}

func TestClear(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("achievements.db")

	deleted, err := Clear(path)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	c := Load(path)
	c.Set(1, 1, 1, 1, "", nil)
	c.Set(2, 2, 2, 2, "", nil)
	require.NoError(t, c.Save())

	deleted, err = Clear(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 0, Load(path).Len())
}

func TestClearCmd(t *testing.T) {
	testutil.ResetConfig(t)
	env := testutil.NewTestEnv(t)
	path := env.Path("achievements.db")

	c := Load(path)
	c.Set(1, 1, 1, 1, "", nil)
	require.NoError(t, c.Save())

	viper.Set("cache.dbfile", path)
	require.NoError(t, (&ClearCmd{}).Run())
	assert.Equal(t, 0, Load(path).Len())

	viper.Set("cache.dbfile", "")
	assert.Error(t, (&ClearCmd{}).Run())
}
