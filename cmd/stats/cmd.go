// Package stats implements the stats command: one fetch of the report and its outputs.
package stats

import (
	"context"
	"os"
	"os/signal"

	"github.com/lepinkainen/steamfetch/internal/config"
	"github.com/spf13/viper"
)

// Cmd represents the stats command
type Cmd struct {
	SteamID         string `help:"64-bit Steam ID to fetch stats for (overrides steam.steamid)"`
	APIKey          string `help:"Steam Web API key (overrides steam.apikey)"`
	Demo            bool   `help:"Print a sample report without contacting Steam"`
	JSONOutput      string `help:"Write the report as JSON to this file"`
	YAMLOutput      string `help:"Write the report as YAML to this file"`
	Overwrite       bool   `help:"Overwrite existing report files"`
	MetricsFile     string `help:"Write request and cache metrics in Prometheus text format to this file"`
	Datasette       bool   `help:"Export a snapshot of the report to Datasette (overrides datasette.enabled)"`
	Username        string `help:"Username to report when the library comes from --owned-appids-file"`
	OwnedAppIDsFile string `name:"owned-appids-file" help:"File of owned app IDs; skips the owned-games listing" type:"existingfile"`
}

// Options control a single stats run
type Options struct {
	Demo            bool
	JSONOutput      string
	YAMLOutput      string
	MetricsFile     string
	Datasette       bool
	Username        string
	OwnedAppIDsFile string
}

func (c *Cmd) Run() error {
	if c.SteamID != "" {
		config.SteamID = c.SteamID
	}
	if c.APIKey != "" {
		config.SteamAPIKey = c.APIKey
	}
	if c.Overwrite {
		config.SetOverwriteFiles(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runStats(ctx, c.options(), os.Stdout)
}

func (c *Cmd) options() Options {
	return Options{
		Demo:            c.Demo,
		JSONOutput:      c.JSONOutput,
		YAMLOutput:      c.YAMLOutput,
		MetricsFile:     c.MetricsFile,
		Datasette:       c.Datasette || viper.GetBool("datasette.enabled"),
		Username:        c.Username,
		OwnedAppIDsFile: c.OwnedAppIDsFile,
	}
}

var runStats = Run
