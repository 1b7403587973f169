package testutil

import (
	"testing"
	"time"

	"github.com/lepinkainen/steamfetch/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles    bool
	SteamAPIKey       string
	SteamID           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheDBFile       string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles:    config.OverwriteFiles,
		SteamAPIKey:       config.SteamAPIKey,
		SteamID:           config.SteamID,
		Timeout:           config.Timeout,
		RequestsPerSecond: config.RequestsPerSecond,
		CacheDBFile:       config.CacheDBFile,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
	config.SteamAPIKey = state.SteamAPIKey
	config.SteamID = state.SteamID
	config.Timeout = state.Timeout
	config.RequestsPerSecond = state.RequestsPerSecond
	config.CacheDBFile = state.CacheDBFile
}

// ResetConfig resets viper and restores the config variables when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig resets configuration and fills in test credentials and a
// sandboxed cache file. Steam API pacing is disabled.
func SetTestConfig(t *testing.T, env *TestEnv) {
	t.Helper()

	ResetConfig(t)

	config.SteamAPIKey = "test-api-key"
	config.SteamID = "76561197960287930"
	config.Timeout = 5 * time.Second
	config.RequestsPerSecond = 0
	config.CacheDBFile = SetupTestCache(t, env)

	viper.Set("steam.apikey", config.SteamAPIKey)
	viper.Set("steam.steamid", config.SteamID)
}

// SetViperValue sets a viper value and puts back the previous one when the test completes.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		// viper cannot unset a key, so a previously unset key stays set
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache points cache.dbfile at a file in the sandbox and returns its path.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("cache")
	path := env.Path("cache", "achievements.db")
	SetViperValue(t, "cache.dbfile", path)
	return path
}

// SetupDatasetteDB enables local datasette export into the sandbox and returns the database path.
func SetupDatasetteDB(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("steamfetch.db")
	SetViperValue(t, "datasette.enabled", true)
	SetViperValue(t, "datasette.mode", "local")
	SetViperValue(t, "datasette.dbfile", dbPath)
	return dbPath
}
