package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/steamfetch/internal/stats"
)

// DatabaseName is the Datasette database snapshots are written to.
const DatabaseName = "steamfetch"

const (
	snapshotsTable     = "steam_snapshots"
	snapshotGamesTable = "steam_snapshot_games"
)

const snapshotsSchema = `CREATE TABLE IF NOT EXISTS steam_snapshots (
	snapshot_id TEXT PRIMARY KEY,
	taken_at TEXT,
	username TEXT,
	steam_id TEXT,
	country TEXT,
	game_count INTEGER,
	unplayed_count INTEGER,
	total_playtime_minutes INTEGER,
	steam_level INTEGER,
	account_created TEXT,
	total_achieved INTEGER,
	total_possible INTEGER,
	perfect_games INTEGER,
	rarest_name TEXT,
	rarest_game TEXT,
	rarest_percent REAL
)`

const snapshotGamesSchema = `CREATE TABLE IF NOT EXISTS steam_snapshot_games (
	snapshot_id TEXT,
	list TEXT,
	rank INTEGER,
	appid INTEGER,
	name TEXT,
	playtime_minutes INTEGER,
	PRIMARY KEY (snapshot_id, list, rank)
)`

// Snapshot is one report flattened into table rows
type Snapshot struct {
	ID    string
	Row   map[string]any
	Games []map[string]any
}

// NewSnapshot flattens report into rows under a fresh snapshot ID.
func NewSnapshot(report *stats.Report, takenAt time.Time) Snapshot {
	id := uuid.NewString()

	row := map[string]any{
		"snapshot_id":            id,
		"taken_at":               takenAt.UTC().Format(time.RFC3339),
		"username":               report.Username,
		"steam_id":               report.SteamID,
		"country":                report.Country,
		"game_count":             report.GameCount,
		"unplayed_count":         report.UnplayedCount,
		"total_playtime_minutes": report.TotalPlaytimeMinutes,
		"steam_level":            nil,
		"account_created":        nil,
		"total_achieved":         nil,
		"total_possible":         nil,
		"perfect_games":          nil,
		"rarest_name":            nil,
		"rarest_game":            nil,
		"rarest_percent":         nil,
	}
	if report.SteamLevel != nil {
		row["steam_level"] = *report.SteamLevel
	}
	if report.AccountCreated != nil {
		row["account_created"] = report.AccountCreated.UTC().Format(time.RFC3339)
	}
	if agg := report.Achievements; agg != nil {
		row["total_achieved"] = agg.TotalAchieved
		row["total_possible"] = agg.TotalPossible
		row["perfect_games"] = agg.PerfectGames
		if agg.Rarest != nil {
			row["rarest_name"] = agg.Rarest.Name
			row["rarest_game"] = agg.Rarest.Game
			row["rarest_percent"] = agg.Rarest.Percent
		}
	}

	games := make([]map[string]any, 0, len(report.TopGames)+len(report.RecentlyPlayed))
	games = appendGameRows(games, id, "top", report.TopGames)
	games = appendGameRows(games, id, "recent", report.RecentlyPlayed)

	return Snapshot{ID: id, Row: row, Games: games}
}

func appendGameRows(rows []map[string]any, id, list string, games []stats.GameStat) []map[string]any {
	for i, g := range games {
		rows = append(rows, map[string]any{
			"snapshot_id":      id,
			"list":             list,
			"rank":             i + 1,
			"appid":            g.AppID,
			"name":             g.Name,
			"playtime_minutes": g.PlaytimeMinutes,
		})
	}
	return rows
}

// Export writes the snapshot of report to store and returns its ID.
func Export(store Store, report *stats.Report, takenAt time.Time) (string, error) {
	if err := store.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	for _, schema := range []string{snapshotsSchema, snapshotGamesSchema} {
		if err := store.CreateTable(schema); err != nil {
			return "", err
		}
	}

	snapshot := NewSnapshot(report, takenAt)
	if err := store.BatchInsert(DatabaseName, snapshotsTable, []map[string]any{snapshot.Row}); err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if err := store.BatchInsert(DatabaseName, snapshotGamesTable, snapshot.Games); err != nil {
		return "", fmt.Errorf("failed to insert snapshot games: %w", err)
	}

	slog.Info("Exported report snapshot", "snapshot_id", snapshot.ID, "games", len(snapshot.Games))
	return snapshot.ID, nil
}

// Open returns the Store for a datasette mode: "local" writes to dbFile,
// "remote" posts to remoteURL.
func Open(mode, dbFile, remoteURL, apiToken string) (Store, error) {
	switch mode {
	case "local":
		if dbFile == "" {
			return nil, fmt.Errorf("datasette.dbfile is not set")
		}
		return NewSQLiteStore(dbFile), nil
	case "remote":
		return NewDatasetteClient(remoteURL, apiToken), nil
	default:
		return nil, fmt.Errorf("invalid Datasette mode: %s", mode)
	}
}
