package cache

// tableName is the only table the achievement cache uses.
const tableName = "achievement_cache"

// AchievementCacheSchema defines the per-game achievement summary cache.
// last_played is the validity key: a row is only used while the game's
// last-played timestamp is unchanged.
const AchievementCacheSchema = `
CREATE TABLE IF NOT EXISTS achievement_cache (
	app_id INTEGER PRIMARY KEY NOT NULL,
	last_played INTEGER NOT NULL,
	achieved INTEGER NOT NULL,
	total INTEGER NOT NULL,
	rarest_name TEXT NOT NULL DEFAULT '',
	rarest_percent REAL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const selectEntriesSQL = `SELECT app_id, last_played, achieved, total, rarest_name, rarest_percent FROM achievement_cache`

const upsertEntrySQL = `
INSERT OR REPLACE INTO achievement_cache (app_id, last_played, achieved, total, rarest_name, rarest_percent, cached_at)
VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
`
