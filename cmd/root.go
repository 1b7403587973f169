package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/steamfetch/cmd/stats"
	"github.com/lepinkainen/steamfetch/internal/cache"
	"github.com/lepinkainen/steamfetch/internal/config"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the steamfetch application
type CLI struct {
	// Global flags
	Verbose     bool   `short:"v" help:"Show debug output"`
	Config      string `type:"path" help:"Path to config file (defaults to the user config directory)"`
	Timeout     int    `help:"Per-request timeout in seconds (overrides steam.timeout)"`
	CacheDBFile string `help:"Path to achievement cache SQLite database file (overrides cache.dbfile)"`

	Stats      stats.Cmd     `cmd:"" default:"withargs" help:"Fetch Steam library and achievement stats"`
	Cache      CacheCmd      `cmd:"" help:"Manage the achievement cache"`
	ConfigPath ConfigPathCmd `cmd:"" help:"Print the config file path"`
}

// CacheCmd represents the cache command and its subcommands
type CacheCmd struct {
	Clear cache.ClearCmd `cmd:"" help:"Delete all cached achievement results"`
}

// ConfigPathCmd prints the config file in use
type ConfigPathCmd struct{}

var stdout io.Writer = os.Stdout

func (c *ConfigPathCmd) Run() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(stdout, path)
	return err
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name(config.AppName),
		kong.Description("Fetch Steam library and achievement stats."),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)

	if err := initConfig(&cli); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// initConfig layers configuration: defaults, .env, config file, environment, then flags.
func initConfig(cli *CLI) error {
	config.SetDefaults()
	config.LoadDotEnv()

	path := cli.Config
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			slog.Warn("No config file location available", "error", err)
		}
	}
	if path != "" {
		if err := config.ReadConfigFile(path); err != nil {
			return err
		}
	}

	updateGlobalConfig(cli)
	config.InitConfig()
	return nil
}

func updateGlobalConfig(cli *CLI) {
	if cli.Timeout > 0 {
		viper.Set("steam.timeout", cli.Timeout)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// stdout carries the report
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
