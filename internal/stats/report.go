// Package stats assembles a Steam library report from the Web API and achievement aggregation.
package stats

import (
	"time"

	"github.com/lepinkainen/steamfetch/internal/achievements"
)

// TopGamesCount is how many games the report lists by playtime.
const TopGamesCount = 5

// RecentlyPlayedCount is how many recently played games are requested.
const RecentlyPlayedCount = 5

// GameStat is a game name with a playtime in minutes
type GameStat struct {
	AppID           int    `json:"appid" yaml:"appid"`
	Name            string `json:"name" yaml:"name"`
	PlaytimeMinutes int    `json:"playtime_minutes" yaml:"playtime_minutes"`
}

// PlaytimeHours returns the playtime in whole hours.
func (g GameStat) PlaytimeHours() int {
	return g.PlaytimeMinutes / 60
}

// Report is the assembled output of one run
type Report struct {
	Username             string                  `json:"username" yaml:"username"`
	SteamID              string                  `json:"steam_id,omitempty" yaml:"steam_id,omitempty"`
	Country              string                  `json:"country,omitempty" yaml:"country,omitempty"`
	GameCount            int                     `json:"game_count" yaml:"game_count"`
	UnplayedCount        int                     `json:"unplayed_count" yaml:"unplayed_count"`
	TotalPlaytimeMinutes int                     `json:"total_playtime_minutes" yaml:"total_playtime_minutes"`
	TopGames             []GameStat              `json:"top_games" yaml:"top_games"`
	Achievements         *achievements.Aggregate `json:"achievements,omitempty" yaml:"achievements,omitempty"`
	AccountCreated       *time.Time              `json:"account_created,omitempty" yaml:"account_created,omitempty"`
	SteamLevel           *int                    `json:"steam_level,omitempty" yaml:"steam_level,omitempty"`
	RecentlyPlayed       []GameStat              `json:"recently_played" yaml:"recently_played"`
}

// PlaytimeHours returns total playtime in whole hours.
func (r *Report) PlaytimeHours() int {
	return r.TotalPlaytimeMinutes / 60
}

// PlaytimeDays returns total playtime in days, with fractions.
func (r *Report) PlaytimeDays() float64 {
	return float64(r.TotalPlaytimeMinutes) / 60 / 24
}

// PlayedCount returns the number of games with any playtime.
func (r *Report) PlayedCount() int {
	return r.GameCount - r.UnplayedCount
}

// Identity is an externally supplied user and library, used instead of the
// player summary name and the full owned-games listing.
type Identity struct {
	Username    string
	SteamID     string
	OwnedAppIDs []int
}
