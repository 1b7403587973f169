// Package config holds the viper-backed settings of a steamfetch run.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppName names the config and cache directories.
const AppName = "steamfetch"

const (
	defaultTimeoutSeconds    = 30
	defaultRequestsPerSecond = 10
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing report files are replaced
	OverwriteFiles bool
	// SteamAPIKey is the Steam Web API key
	SteamAPIKey string
	// SteamID is the 64-bit Steam ID of the player
	SteamID string
	// Timeout bounds each Steam API request
	Timeout time.Duration
	// RequestsPerSecond paces Steam API requests; zero or less disables pacing
	RequestsPerSecond float64
	// CacheDBFile is the achievement cache database
	CacheDBFile string
)

// ErrMissingAPIKey is returned by Validate when no API key is configured.
var ErrMissingAPIKey = errors.New(APIKeyHelp)

// ErrMissingSteamID is returned by Validate when no Steam ID is configured.
var ErrMissingSteamID = errors.New(SteamIDHelp)

// APIKeyHelp explains how to obtain and configure an API key.
const APIKeyHelp = `Steam API key not set.

To get your API key:
  1. Visit https://steamcommunity.com/dev/apikey
  2. Log in with your Steam account
  3. Enter a domain name (anything works, e.g. "localhost")
  4. Copy the key and set it:

     export STEAM_API_KEY="your-api-key-here"

Or add it to the config file (see "steamfetch config-path"):

     [steam]
     apikey = "your-api-key-here"`

// SteamIDHelp explains how to find and configure a Steam ID.
const SteamIDHelp = `Steam ID not set.

To find your Steam ID:
  1. Visit https://steamid.io
  2. Enter your Steam profile URL or username
  3. Copy the "steamID64" value and set it:

     export STEAM_ID="your-steam-id-here"

Or add it to the config file (see "steamfetch config-path"):

     [steam]
     steamid = "your-steam-id-here"`

// DefaultConfigTemplate is written when no config file exists yet.
const DefaultConfigTemplate = `# steamfetch configuration file

[steam]
# Get your API key at: https://steamcommunity.com/dev/apikey
# apikey = "YOUR_API_KEY"

# Find your Steam ID at: https://steamid.io
# steamid = "YOUR_STEAM_ID"

# Per-request timeout in seconds
# timeout = 30

# Request pacing, 0 disables it
# requests_per_second = 10

[cache]
# dbfile = "/path/to/achievements.db"

[datasette]
# enabled = false
# mode = "local"
# dbfile = "steamfetch.db"
# remote_url = "https://datasette.example.com"
# api_token = ""
`

// SetDefaults registers default values and environment bindings.
func SetDefaults() {
	viper.SetDefault("steam.timeout", defaultTimeoutSeconds)
	viper.SetDefault("steam.requests_per_second", defaultRequestsPerSecond)
	viper.SetDefault("cache.dbfile", DefaultCacheDBFile())
	viper.SetDefault("datasette.enabled", false)
	viper.SetDefault("datasette.mode", "local")
	viper.SetDefault("datasette.dbfile", "./steamfetch.db")
	viper.SetDefault("OverwriteFiles", false)

	bindings := map[string]string{
		"steam.apikey":  "STEAM_API_KEY",
		"steam.steamid": "STEAM_ID",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			slog.Error("Failed to bind environment variable", "key", key, "env", env, "error", err)
		}
	}
}

// LoadDotEnv loads variables from .env files into the environment.
// Variables already set in the environment win. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load .env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded .env file", "path", path)
	}
}

// DefaultConfigPath returns <user config dir>/steamfetch/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// DefaultCacheDBFile returns <user cache dir>/steamfetch/achievements.db, or a
// file in the working directory when no cache directory is available.
func DefaultCacheDBFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "achievements.db"
	}
	return filepath.Join(dir, AppName, "achievements.db")
}

// ReadConfigFile reads the TOML config at path. A missing file is created
// from DefaultConfigTemplate and the run continues with defaults.
func ReadConfigFile(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path); err != nil {
			slog.Warn("Could not write default config file", "path", path, "error", err)
			return nil
		}
		slog.Info("Created config file", "path", path)
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// WriteDefaultConfig writes DefaultConfigTemplate to path.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// InitConfig copies viper values into the package variables
func InitConfig() {
	OverwriteFiles = viper.GetBool("OverwriteFiles")
	SteamAPIKey = viper.GetString("steam.apikey")
	SteamID = viper.GetString("steam.steamid")
	Timeout = time.Duration(viper.GetInt("steam.timeout")) * time.Second
	RequestsPerSecond = viper.GetFloat64("steam.requests_per_second")
	CacheDBFile = viper.GetString("cache.dbfile")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// Validate reports a missing API key or Steam ID with instructions.
func Validate() error {
	if SteamAPIKey == "" {
		return ErrMissingAPIKey
	}
	if SteamID == "" {
		return ErrMissingSteamID
	}
	return nil
}
