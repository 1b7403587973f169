package stats

import (
	"time"

	"github.com/lepinkainen/steamfetch/internal/achievements"
	steamstats "github.com/lepinkainen/steamfetch/internal/stats"
)

// DemoReport returns a fixed sample report.
func DemoReport() *steamstats.Report {
	created := time.Unix(1234567890, 0).UTC()
	level := 42

	return &steamstats.Report{
		Username:             "demo_player",
		GameCount:            486,
		UnplayedCount:        123,
		TotalPlaytimeMinutes: 170820,
		TopGames: []steamstats.GameStat{
			{AppID: 397540, Name: "Borderlands 3", PlaytimeMinutes: 28680},
			{AppID: 1289310, Name: "Coin Push RPG", PlaytimeMinutes: 22620},
			{AppID: 2321470, Name: "DRG Survivor", PlaytimeMinutes: 15120},
		},
		Achievements: &achievements.Aggregate{
			TotalAchieved: 3241,
			TotalPossible: 5892,
			PerfectGames:  24,
			Rarest: &achievements.Rarest{
				Name:    "Impossible Task",
				Game:    "Dark Souls III",
				Percent: 0.1,
			},
		},
		AccountCreated: &created,
		SteamLevel:     &level,
		RecentlyPlayed: []steamstats.GameStat{
			{AppID: 1245620, Name: "Elden Ring", PlaytimeMinutes: 1200},
			{AppID: 1145350, Name: "Hades II", PlaytimeMinutes: 480},
		},
	}
}
