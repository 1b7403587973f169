package testutil

import (
	"path/filepath"
	"testing"

	"github.com/lepinkainen/steamfetch/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("a", "b.txt")
	assert.Equal(t, filepath.Join(env.RootDir(), "a", "b.txt"), path)
	assert.True(t, env.isWithinSandbox(path))
	assert.False(t, env.isWithinSandbox(filepath.Dir(env.RootDir())))
}

func TestTestEnv_Files(t *testing.T) {
	env := NewTestEnv(t)

	env.RequireFileNotExists("dir/file.txt")
	env.WriteFileString("dir/file.txt", "hello world")
	env.RequireFileExists("dir/file.txt")
	assert.Equal(t, "hello world", env.ReadFileString("dir/file.txt"))
	env.AssertFileContains("dir/file.txt", "world")

	env.MkdirAll("empty/nested")
	assert.True(t, env.FileExists("empty/nested"))
}

func TestGoldenHelper(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("golden/plain.golden", "expected\n")
	env.WriteFileString("golden/data.json", `{"a": 1, "b": [1, 2]}`)

	golden := NewGoldenHelper(t, env.Path("golden"))
	if golden.IsUpdateMode() {
		t.Skip("golden files are being updated")
	}

	assert.Equal(t, env.Path("golden", "plain.golden"), golden.GoldenPath("plain.golden"))
	golden.AssertGolden("plain.golden", []byte("expected\n"))
	golden.AssertGoldenJSON("data.json", []byte("{\n  \"b\": [1, 2],\n  \"a\": 1\n}"))
}

func TestResetConfig(t *testing.T) {
	origKey := config.SteamAPIKey

	t.Run("modify", func(t *testing.T) {
		ResetConfig(t)
		config.SteamAPIKey = "changed"
		viper.Set("steam.apikey", "changed")
		assert.Equal(t, "changed", config.SteamAPIKey)
	})

	assert.Equal(t, origKey, config.SteamAPIKey)
	assert.False(t, viper.IsSet("steam.apikey"))
}

func TestSetTestConfig(t *testing.T) {
	env := NewTestEnv(t)
	origID := config.SteamID

	t.Run("configured", func(t *testing.T) {
		SetTestConfig(t, env)
		assert.Equal(t, "test-api-key", config.SteamAPIKey)
		assert.Equal(t, "76561197960287930", viper.GetString("steam.steamid"))
		assert.Equal(t, env.Path("cache", "achievements.db"), config.CacheDBFile)
		assert.Equal(t, config.CacheDBFile, viper.GetString("cache.dbfile"))
		require.NoError(t, config.Validate())
	})

	assert.Equal(t, origID, config.SteamID)
}

func TestSetViperValue(t *testing.T) {
	viper.Set("test.key", "original")
	t.Cleanup(viper.Reset)

	t.Run("override", func(t *testing.T) {
		SetViperValue(t, "test.key", "override")
		assert.Equal(t, "override", viper.GetString("test.key"))
	})

	assert.Equal(t, "original", viper.GetString("test.key"))
}

func TestSetupDatasetteDB(t *testing.T) {
	env := NewTestEnv(t)
	t.Cleanup(viper.Reset)

	path := SetupDatasetteDB(t, env)
	assert.Equal(t, env.Path("steamfetch.db"), path)
	assert.True(t, viper.GetBool("datasette.enabled"))
	assert.Equal(t, "local", viper.GetString("datasette.mode"))
}
