package datastore

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/steamfetch/internal/achievements"
	"github.com/lepinkainen/steamfetch/internal/stats"
)

func sampleReport() *stats.Report {
	level := 42
	created := time.Unix(1234567890, 0).UTC()
	return &stats.Report{
		Username:             "gabe",
		SteamID:              "76561197960287930",
		Country:              "US",
		GameCount:            3,
		UnplayedCount:        1,
		TotalPlaytimeMinutes: 300,
		TopGames: []stats.GameStat{
			{AppID: 1, Name: "One", PlaytimeMinutes: 200},
			{AppID: 2, Name: "Two", PlaytimeMinutes: 100},
		},
		Achievements: &achievements.Aggregate{
			TotalAchieved: 3,
			TotalPossible: 9,
			PerfectGames:  1,
			Rarest:        &achievements.Rarest{Name: "Hard", Game: "One", Percent: 0.4},
		},
		AccountCreated: &created,
		SteamLevel:     &level,
		RecentlyPlayed: []stats.GameStat{{AppID: 2, Name: "Two", PlaytimeMinutes: 30}},
	}
}

func TestNewSnapshot(t *testing.T) {
	takenAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snapshot := NewSnapshot(sampleReport(), takenAt)

	_, err := uuid.Parse(snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, snapshot.Row["snapshot_id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", snapshot.Row["taken_at"])
	assert.Equal(t, 42, snapshot.Row["steam_level"])
	assert.Equal(t, "Hard", snapshot.Row["rarest_name"])
	assert.Equal(t, "2009-02-13T23:31:30Z", snapshot.Row["account_created"])

	require.Len(t, snapshot.Games, 3)
	assert.Equal(t, "top", snapshot.Games[0]["list"])
	assert.Equal(t, 1, snapshot.Games[0]["rank"])
	assert.Equal(t, "recent", snapshot.Games[2]["list"])
	assert.Equal(t, 1, snapshot.Games[2]["rank"])
}

func TestNewSnapshotOptionalFields(t *testing.T) {
	snapshot := NewSnapshot(&stats.Report{Username: "u"}, time.Now())

	assert.Nil(t, snapshot.Row["steam_level"])
	assert.Nil(t, snapshot.Row["total_achieved"])
	assert.Nil(t, snapshot.Row["rarest_percent"])
	assert.Empty(t, snapshot.Games)

	other := NewSnapshot(&stats.Report{Username: "u"}, time.Now())
	assert.NotEqual(t, snapshot.ID, other.ID)
}

func TestExportLocal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "out", "steam.db")
	store, err := Open("local", dbPath, "", "")
	require.NoError(t, err)

	id, err := Export(store, sampleReport(), time.Now())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var username string
	var rarest float64
	require.NoError(t, db.QueryRow("SELECT username, rarest_percent FROM steam_snapshots WHERE snapshot_id = ?", id).Scan(&username, &rarest))
	assert.Equal(t, "gabe", username)
	assert.Equal(t, 0.4, rarest)

	var games int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM steam_snapshot_games WHERE snapshot_id = ?", id).Scan(&games))
	assert.Equal(t, 3, games)

	// A second export adds a new snapshot instead of replacing the first.
	store, err = Open("local", dbPath, "", "")
	require.NoError(t, err)
	_, err = Export(store, sampleReport(), time.Now())
	require.NoError(t, err)

	var snapshots int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM steam_snapshots").Scan(&snapshots))
	assert.Equal(t, 2, snapshots)
}

func TestExportRemote(t *testing.T) {
	var mu sync.Mutex
	rowsByPath := map[string]int{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Rows []map[string]any `json:"rows"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		rowsByPath[r.URL.Path] += len(payload.Rows)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store, err := Open("remote", "", ts.URL, "")
	require.NoError(t, err)
	_, err = Export(store, sampleReport(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"/-/insert/steamfetch/steam_snapshots":      1,
		"/-/insert/steamfetch/steam_snapshot_games": 3,
	}, rowsByPath)
}

func TestOpenInvalidMode(t *testing.T) {
	_, err := Open("cloud", "", "", "")
	assert.Error(t, err)

	_, err = Open("local", "", "", "")
	assert.Error(t, err)
}
