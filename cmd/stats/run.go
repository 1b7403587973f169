package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lepinkainen/steamfetch/internal/achievements"
	"github.com/lepinkainen/steamfetch/internal/cache"
	"github.com/lepinkainen/steamfetch/internal/config"
	"github.com/lepinkainen/steamfetch/internal/datastore"
	"github.com/lepinkainen/steamfetch/internal/fileutil"
	"github.com/lepinkainen/steamfetch/internal/metrics"
	"github.com/lepinkainen/steamfetch/internal/ratelimit"
	"github.com/lepinkainen/steamfetch/internal/steamapi"
	steamstats "github.com/lepinkainen/steamfetch/internal/stats"
	"github.com/spf13/viper"
)

// steamBaseURL overrides the Steam Web API location when set.
var steamBaseURL string

var now = time.Now

// Run fetches (or, in demo mode, fabricates) a report and writes it to the
// requested outputs. Without a file output the report goes to out as JSON.
func Run(ctx context.Context, opts Options, out io.Writer) error {
	recorder := metrics.New()

	var report *steamstats.Report
	if opts.Demo {
		slog.Debug("Using demo report")
		report = DemoReport()
	} else {
		var err error
		report, err = fetchReport(ctx, opts, recorder)
		if err != nil {
			return err
		}
	}

	if err := writeOutputs(report, opts, out); err != nil {
		return err
	}

	if opts.MetricsFile != "" {
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		slog.Info("Wrote metrics", "file", opts.MetricsFile)
	}

	if opts.Datasette && !opts.Demo {
		if err := exportSnapshot(report); err != nil {
			return err
		}
	}

	return nil
}

func newClient(steamID string, recorder *metrics.Recorder) *steamapi.Client {
	return steamapi.NewClient(config.SteamAPIKey, steamID,
		steamapi.WithTimeout(config.Timeout),
		steamapi.WithBaseURL(steamBaseURL),
		steamapi.WithRateLimiter(ratelimit.New("steam", config.RequestsPerSecond)),
		steamapi.WithMetrics(recorder),
	)
}

func fetchReport(ctx context.Context, opts Options, recorder *metrics.Recorder) (*steamstats.Report, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var identity *steamstats.Identity
	if opts.OwnedAppIDsFile != "" {
		appIDs, err := ReadAppIDs(opts.OwnedAppIDsFile)
		if err != nil {
			return nil, err
		}
		slog.Info("Using external library", "username", opts.Username, "games", len(appIDs))
		identity = &steamstats.Identity{
			Username:    opts.Username,
			SteamID:     config.SteamID,
			OwnedAppIDs: appIDs,
		}
	}

	steamID := config.SteamID
	if identity != nil {
		steamID = identity.SteamID
	}
	client := newClient(steamID, recorder)
	store := cache.Load(config.CacheDBFile)
	slog.Debug("Loaded achievement cache", "path", store.Path(), "entries", store.Len())

	aggregator := achievements.New(client, achievements.WithMetrics(recorder))
	assembler := steamstats.NewAssembler(client, aggregator)

	if identity == nil {
		return assembler.Assemble(ctx, store)
	}
	return assembler.AssembleFor(ctx, *identity, store)
}

func writeOutputs(report *steamstats.Report, opts Options, out io.Writer) error {
	if opts.JSONOutput != "" {
		if _, err := fileutil.WriteJSONFile(report, opts.JSONOutput, config.OverwriteFiles); err != nil {
			return err
		}
	}
	if opts.YAMLOutput != "" {
		if _, err := fileutil.WriteYAMLFile(report, opts.YAMLOutput, config.OverwriteFiles); err != nil {
			return err
		}
	}
	if opts.JSONOutput != "" || opts.YAMLOutput != "" {
		return nil
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func exportSnapshot(report *steamstats.Report) error {
	store, err := datastore.Open(
		viper.GetString("datasette.mode"),
		viper.GetString("datasette.dbfile"),
		viper.GetString("datasette.remote_url"),
		viper.GetString("datasette.api_token"),
	)
	if err != nil {
		return err
	}

	if _, err := datastore.Export(store, report, now()); err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	return nil
}
