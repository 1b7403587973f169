package stats

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lepinkainen/steamfetch/internal/achievements"
	"github.com/lepinkainen/steamfetch/internal/steamapi"
)

// Source is the set of Steam Web API calls a report is built from.
type Source interface {
	SteamID() string
	PlayerSummary(ctx context.Context) (steamapi.Player, error)
	OwnedGames(ctx context.Context) (steamapi.OwnedGames, error)
	OwnedGamesForAppIDs(ctx context.Context, appIDs []int) (steamapi.OwnedGames, error)
	SteamLevel(ctx context.Context) (*int, error)
	RecentlyPlayed(ctx context.Context, count int) ([]steamapi.Game, error)
}

// Assembler builds a Report. Requests are issued one after another.
type Assembler struct {
	source     Source
	aggregator *achievements.Aggregator
}

// NewAssembler creates an Assembler.
func NewAssembler(source Source, aggregator *achievements.Aggregator) *Assembler {
	return &Assembler{source: source, aggregator: aggregator}
}

// Assemble builds the report for the client's own Steam ID. Player summary and
// owned games failures are fatal; level and recent activity are optional.
func (a *Assembler) Assemble(ctx context.Context, store achievements.Cache) (*Report, error) {
	player, err := a.source.PlayerSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player summary: %w", err)
	}

	owned, err := a.source.OwnedGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owned games: %w", err)
	}
	slog.Info("Fetched library", "player", player.PersonaName, "games", owned.GameCount)

	report := &Report{
		Username:  player.PersonaName,
		SteamID:   a.source.SteamID(),
		Country:   player.CountryCode,
		GameCount: owned.GameCount,
	}
	applyPlayer(report, player)
	applyLibrary(report, owned.Games)
	a.fetchOptional(ctx, report)

	report.Achievements = a.aggregator.Aggregate(ctx, owned.Games, store)
	return report, nil
}

// AssembleFor builds the report for an externally supplied identity. The
// username and game count come from the identity; the player summary is
// only used for account details and its failure is not fatal. The identity's
// Steam ID, when set, must be the one the source queries.
func (a *Assembler) AssembleFor(ctx context.Context, identity Identity, store achievements.Cache) (*Report, error) {
	steamID := a.source.SteamID()
	if identity.SteamID != "" && identity.SteamID != steamID {
		return nil, fmt.Errorf("identity Steam ID %s does not match queried Steam ID %s", identity.SteamID, steamID)
	}

	report := &Report{
		Username:  identity.Username,
		SteamID:   steamID,
		GameCount: len(identity.OwnedAppIDs),
	}

	player, err := a.source.PlayerSummary(ctx)
	if err != nil {
		slog.Warn("Player summary unavailable", "error", err)
	} else {
		report.Country = player.CountryCode
		applyPlayer(report, player)
	}

	owned, err := a.source.OwnedGamesForAppIDs(ctx, identity.OwnedAppIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch owned games: %w", err)
	}
	slog.Info("Fetched library", "player", identity.Username, "games", report.GameCount, "with_details", len(owned.Games))

	applyLibrary(report, owned.Games)
	a.fetchOptional(ctx, report)

	report.Achievements = a.aggregator.Aggregate(ctx, gamesForAppIDs(identity.OwnedAppIDs, owned.Games), store)
	return report, nil
}

func (a *Assembler) fetchOptional(ctx context.Context, report *Report) {
	level, err := a.source.SteamLevel(ctx)
	if err != nil {
		slog.Warn("Steam level unavailable", "error", err)
	} else {
		report.SteamLevel = level
	}

	recent, err := a.source.RecentlyPlayed(ctx, RecentlyPlayedCount)
	if err != nil {
		slog.Warn("Recently played games unavailable", "error", err)
		recent = nil
	}
	report.RecentlyPlayed = make([]GameStat, 0, len(recent))
	for _, g := range recent {
		report.RecentlyPlayed = append(report.RecentlyPlayed, GameStat{
			AppID:           g.AppID,
			Name:            g.DisplayName(),
			PlaytimeMinutes: g.Playtime2Weeks,
		})
	}
}

func applyPlayer(report *Report, player steamapi.Player) {
	if player.TimeCreated > 0 {
		created := time.Unix(player.TimeCreated, 0).UTC()
		report.AccountCreated = &created
	}
}

func applyLibrary(report *Report, games []steamapi.Game) {
	report.UnplayedCount = UnplayedCount(games)
	report.TotalPlaytimeMinutes = TotalPlaytime(games)
	report.TopGames = TopGames(games, TopGamesCount)
}

// UnplayedCount counts games with no recorded playtime.
func UnplayedCount(games []steamapi.Game) int {
	var count int
	for _, g := range games {
		if g.PlaytimeForever == 0 {
			count++
		}
	}
	return count
}

// TotalPlaytime sums lifetime playtime in minutes.
func TotalPlaytime(games []steamapi.Game) int {
	var total int
	for _, g := range games {
		total += g.PlaytimeForever
	}
	return total
}

// TopGames returns the n games with the most playtime. Equal playtimes keep library order.
func TopGames(games []steamapi.Game, n int) []GameStat {
	sorted := slices.Clone(games)
	slices.SortStableFunc(sorted, func(a, b steamapi.Game) int {
		return b.PlaytimeForever - a.PlaytimeForever
	})

	top := make([]GameStat, 0, min(n, len(sorted)))
	for _, g := range sorted[:min(n, len(sorted))] {
		top = append(top, GameStat{AppID: g.AppID, Name: g.DisplayName(), PlaytimeMinutes: g.PlaytimeForever})
	}
	return top
}

// gamesForAppIDs lists every owned app ID in order, filling in details from
// the API where it returned them.
func gamesForAppIDs(appIDs []int, details []steamapi.Game) []steamapi.Game {
	byID := make(map[int]steamapi.Game, len(details))
	for _, g := range details {
		byID[g.AppID] = g
	}

	games := make([]steamapi.Game, 0, len(appIDs))
	for _, id := range appIDs {
		g, ok := byID[id]
		if !ok {
			g = steamapi.Game{AppID: id}
		}
		games = append(games, g)
	}
	return games
}
