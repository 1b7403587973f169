// Package achievements aggregates per-game achievement progress across a Steam library.
package achievements

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/steamfetch/internal/cache"
	"github.com/lepinkainen/steamfetch/internal/metrics"
	"github.com/lepinkainen/steamfetch/internal/steamapi"
)

// Fetcher is the subset of the Steam client the aggregator needs.
type Fetcher interface {
	PlayerAchievements(ctx context.Context, appID int) ([]steamapi.Achievement, error)
	GlobalPercentages(ctx context.Context, appID int) (steamapi.GlobalPercentages, error)
}

// Cache stores per-game summaries keyed by app ID and last-played time.
type Cache interface {
	Get(appID int, lastPlayed int64) (cache.Entry, bool)
	Set(appID int, lastPlayed int64, achieved, total int, rarestName string, rarestPercent *float64)
	Save() error
}

// Aggregator walks a library one game at a time, using the cache where it can.
type Aggregator struct {
	fetcher Fetcher
	metrics *metrics.Recorder
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics sets the recorder for cache lookups and skipped games.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(a *Aggregator) {
		a.metrics = recorder
	}
}

// New creates an Aggregator fetching live data through fetcher.
func New(fetcher Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{fetcher: fetcher}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate computes the achievement summary for games. Games are processed
// strictly in order; only the two requests for a single game run concurrently.
// store is saved once at the end. A nil store disables caching.
func (a *Aggregator) Aggregate(ctx context.Context, games []steamapi.Game, store Cache) *Aggregate {
	if store == nil {
		store = cache.New()
	}

	results := make([]GameResult, 0, len(games))
	var hits, skipped int

	for i, game := range games {
		if err := ctx.Err(); err != nil {
			slog.Warn("Achievement scan interrupted", "processed", i, "total", len(games), "error", err)
			break
		}

		if entry, ok := store.Get(game.AppID, game.LastPlayed); ok {
			a.metrics.ObserveCacheLookup(true)
			hits++
			results = append(results, resultFromEntry(game, entry))
			continue
		}
		a.metrics.ObserveCacheLookup(false)

		result, ok := a.fetchGame(ctx, game)
		if !ok {
			a.metrics.ObserveGameSkipped()
			skipped++
			continue
		}

		var rarestName string
		var rarestPercent *float64
		if result.Rarest != nil {
			rarestName = result.Rarest.Name
			p := result.Rarest.Percent
			rarestPercent = &p
		}
		store.Set(game.AppID, game.LastPlayed, result.Achieved, result.Total, rarestName, rarestPercent)
		results = append(results, result)

		if (i+1)%50 == 0 {
			slog.Info("Scanning achievements", "processed", i+1, "total", len(games))
		}
	}

	if err := store.Save(); err != nil {
		slog.Warn("Failed to save achievement cache", "error", err)
	}

	slog.Debug("Achievement scan finished", "games", len(games), "cache_hits", hits, "skipped", skipped)
	return Reduce(results)
}

// fetchGame runs the player and global requests for one game as a joined pair.
// A failed player request skips the game; failed percentages only drop the rarest.
func (a *Aggregator) fetchGame(ctx context.Context, game steamapi.Game) (GameResult, bool) {
	var (
		list        []steamapi.Achievement
		percentages steamapi.GlobalPercentages
		percentErr  error
		g           errgroup.Group
	)

	g.Go(func() error {
		var err error
		list, err = a.fetcher.PlayerAchievements(ctx, game.AppID)
		return err
	})
	g.Go(func() error {
		percentages, percentErr = a.fetcher.GlobalPercentages(ctx, game.AppID)
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Debug("Skipping game without achievement data", "appid", game.AppID, "name", game.DisplayName(), "error", err)
		return GameResult{}, false
	}
	if percentErr != nil {
		slog.Debug("Global achievement percentages unavailable", "appid", game.AppID, "error", percentErr)
		percentages = nil
	}

	return Summarize(game, list, percentages), true
}

// Summarize computes one game's result from its achievement list and global
// percentages. The per-game rarest is the first unlocked achievement with the
// lowest known percentage.
func Summarize(game steamapi.Game, list []steamapi.Achievement, percentages steamapi.GlobalPercentages) GameResult {
	result := GameResult{Game: game.DisplayName(), Total: len(list)}

	for _, ach := range list {
		if !ach.Unlocked() {
			continue
		}
		result.Achieved++

		percent, ok := percentages.Lookup(ach.APIName)
		if !ok {
			continue
		}
		if result.Rarest == nil || percent < result.Rarest.Percent {
			result.Rarest = &Rarest{Name: ach.DisplayName(), Game: result.Game, Percent: percent}
		}
	}
	return result
}

func resultFromEntry(game steamapi.Game, entry cache.Entry) GameResult {
	result := GameResult{
		Game:     game.DisplayName(),
		Achieved: entry.Achieved,
		Total:    entry.Total,
	}
	if entry.RarestName != "" && entry.RarestPercent != nil {
		result.Rarest = &Rarest{Name: entry.RarestName, Game: result.Game, Percent: *entry.RarestPercent}
	}
	return result
}
