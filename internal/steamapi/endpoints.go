package steamapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

// appIDFilterChunkSize is the number of appids_filter entries sent per owned-games request.
const appIDFilterChunkSize = 100

// Request labels, used in logs and as the metrics endpoint label.
const (
	labelPlayerSummary      = "player summary"
	labelOwnedGames         = "owned games"
	labelSteamLevel         = "steam level"
	labelRecentlyPlayed     = "recently played"
	labelPlayerAchievements = "player achievements"
	labelGlobalPercentages  = "global achievement percentages"
)

func (c *Client) endpointURL(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}

func (c *Client) keyParams() url.Values {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", c.steamID)
	return params
}

// PlayerSummary fetches the persona name, account creation time and country of the player.
func (c *Client) PlayerSummary(ctx context.Context) (Player, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamids", c.steamID)

	slog.Debug("Fetching player summary", "steamid", c.steamID)
	body, err := c.get(ctx, labelPlayerSummary, c.endpointURL("/ISteamUser/GetPlayerSummaries/v2/", params))
	if err != nil {
		return Player{}, err
	}
	return classifyPlayerSummary(body)
}

// OwnedGames fetches the full library, including free games that have been played.
func (c *Client) OwnedGames(ctx context.Context) (OwnedGames, error) {
	slog.Debug("Fetching owned games", "steamid", c.steamID)
	body, err := c.get(ctx, labelOwnedGames, c.endpointURL("/IPlayerService/GetOwnedGames/v1/", c.ownedGamesParams(nil)))
	if err != nil {
		return OwnedGames{}, err
	}
	return classifyOwnedGames(body)
}

// OwnedGamesForAppIDs fetches library entries restricted to appIDs, 100 ids per request.
// GameCount is the number of games returned across all chunks.
func (c *Client) OwnedGamesForAppIDs(ctx context.Context, appIDs []int) (OwnedGames, error) {
	var all []Game
	for start := 0; start < len(appIDs); start += appIDFilterChunkSize {
		end := min(start+appIDFilterChunkSize, len(appIDs))
		chunk := appIDs[start:end]

		slog.Debug("Fetching owned games chunk", "from", start, "count", len(chunk))
		body, err := c.get(ctx, labelOwnedGames, c.endpointURL("/IPlayerService/GetOwnedGames/v1/", c.ownedGamesParams(chunk)))
		if err != nil {
			return OwnedGames{}, err
		}

		owned, err := decodeOwnedGamesLenient(body)
		if err != nil {
			return OwnedGames{}, err
		}
		all = append(all, owned.Games...)
	}

	return OwnedGames{GameCount: len(all), Games: all}, nil
}

func (c *Client) ownedGamesParams(filter []int) url.Values {
	params := c.keyParams()
	params.Set("include_appinfo", "1")
	params.Set("include_played_free_games", "1")
	for i, appID := range filter {
		params.Set(fmt.Sprintf("appids_filter[%d]", i), strconv.Itoa(appID))
	}
	return params
}

// SteamLevel fetches the player's Steam level. nil means Steam did not report one.
func (c *Client) SteamLevel(ctx context.Context) (*int, error) {
	body, err := c.get(ctx, labelSteamLevel, c.endpointURL("/IPlayerService/GetSteamLevel/v1/", c.keyParams()))
	if err != nil {
		return nil, err
	}
	if err := checkForbidden(body); err != nil {
		return nil, err
	}

	var parsed steamLevelResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse steam level: %w", err)
	}
	return parsed.Response.PlayerLevel, nil
}

// RecentlyPlayed fetches up to count games played in the last two weeks.
func (c *Client) RecentlyPlayed(ctx context.Context, count int) ([]Game, error) {
	params := c.keyParams()
	params.Set("count", strconv.Itoa(count))

	body, err := c.get(ctx, labelRecentlyPlayed, c.endpointURL("/IPlayerService/GetRecentlyPlayedGames/v1/", params))
	if err != nil {
		return nil, err
	}
	if err := checkForbidden(body); err != nil {
		return nil, err
	}

	var parsed recentlyPlayedResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse recently played games: %w", err)
	}
	return parsed.Response.Games, nil
}

// PlayerAchievements fetches the player's achievement list for one game.
func (c *Client) PlayerAchievements(ctx context.Context, appID int) ([]Achievement, error) {
	params := c.keyParams()
	params.Set("appid", strconv.Itoa(appID))
	params.Set("l", c.language)

	body, err := c.get(ctx, labelPlayerAchievements, c.endpointURL("/ISteamUserStats/GetPlayerAchievements/v1/", params))
	if err != nil {
		return nil, err
	}

	var parsed playerAchievementsResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse achievements for app %d: %w", appID, err)
	}
	if parsed.PlayerStats.Error != "" {
		return nil, fmt.Errorf("achievements unavailable for app %d: %s", appID, parsed.PlayerStats.Error)
	}
	return parsed.PlayerStats.Achievements, nil
}

// GlobalPercentages fetches the platform-wide unlock percentages for one game.
func (c *Client) GlobalPercentages(ctx context.Context, appID int) (GlobalPercentages, error) {
	params := url.Values{}
	params.Set("gameid", strconv.Itoa(appID))

	body, err := c.get(ctx, labelGlobalPercentages, c.endpointURL("/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/", params))
	if err != nil {
		return nil, err
	}

	var parsed globalPercentagesResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse global achievement percentages for app %d: %w", appID, err)
	}

	percentages := make(GlobalPercentages, len(parsed.AchievementPercentages.Achievements))
	for _, a := range parsed.AchievementPercentages.Achievements {
		percentages[a.Name] = float64(a.Percent)
	}
	return percentages, nil
}
