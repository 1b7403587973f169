package steamapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Game represents one entry of a Steam library
type Game struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`  // Total playtime in minutes
	Playtime2Weeks  int    `json:"playtime_2weeks"`   // Playtime in the last two weeks, minutes
	LastPlayed      int64  `json:"rtime_last_played"` // Epoch seconds, 0 if never played or unknown
}

// DisplayName returns the game name, or "App {id}" when Steam did not send one.
func (g Game) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("App %d", g.AppID)
}

// OwnedGames is the decoded owned-games response
type OwnedGames struct {
	GameCount int    `json:"game_count"`
	Games     []Game `json:"games"`
}

// ownedGamesResponse keeps Games as a pointer so a missing "games" key can be told apart from an empty list
type ownedGamesResponse struct {
	Response struct {
		GameCount int     `json:"game_count"`
		Games     *[]Game `json:"games"`
	} `json:"response"`
}

// Player holds the fields of a player summary this tool uses
type Player struct {
	PersonaName string `json:"personaname"`
	TimeCreated int64  `json:"timecreated"`    // Epoch seconds, 0 if hidden
	CountryCode string `json:"loccountrycode"` // Empty if hidden
}

type playerSummaryResponse struct {
	Response struct {
		Players []Player `json:"players"`
	} `json:"response"`
}

type steamLevelResponse struct {
	Response struct {
		PlayerLevel *int `json:"player_level"`
	} `json:"response"`
}

type recentlyPlayedResponse struct {
	Response struct {
		TotalCount int    `json:"total_count"`
		Games      []Game `json:"games"`
	} `json:"response"`
}

// Achievement is one entry of a player's achievement list for a game
type Achievement struct {
	APIName  string `json:"apiname"`
	Achieved int    `json:"achieved"`
	Name     string `json:"name"`
}

// Unlocked reports whether the player has the achievement.
func (a Achievement) Unlocked() bool {
	return a.Achieved == 1
}

// DisplayName returns the localized name, falling back to the API name.
func (a Achievement) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.APIName
}

type playerAchievementsResponse struct {
	PlayerStats struct {
		Success      bool          `json:"success"`
		Error        string        `json:"error"`
		Achievements []Achievement `json:"achievements"`
	} `json:"playerstats"`
}

// Percent is a global unlock percentage. Steam sends it either as a JSON
// number or as a numeric string depending on the endpoint version.
type Percent float64

// UnmarshalJSON accepts 12.5 and "12.5".
func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", s, err)
		}
		*p = Percent(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid percent %s: %w", string(data), err)
	}
	*p = Percent(v)
	return nil
}

type globalAchievement struct {
	Name    string  `json:"name"`
	Percent Percent `json:"percent"`
}

type globalPercentagesResponse struct {
	AchievementPercentages struct {
		Achievements []globalAchievement `json:"achievements"`
	} `json:"achievementpercentages"`
}

// GlobalPercentages maps achievement API names to their global unlock percentage (0-100)
type GlobalPercentages map[string]float64

// Lookup finds the percentage for key, trying the key as given and then upper-cased,
// since the two achievement endpoints do not agree on casing.
func (g GlobalPercentages) Lookup(key string) (float64, bool) {
	if v, ok := g[key]; ok {
		return v, true
	}
	v, ok := g[strings.ToUpper(key)]
	return v, ok
}
