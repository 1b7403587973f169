package steamapi

import (
	"encoding/json"
	"fmt"
	"strings"

	steamerrors "github.com/lepinkainen/steamfetch/internal/errors"
)

// Steam sometimes answers a bad key with an HTML error page and a 200 status.
var forbiddenMarkers = []string{"Forbidden", "Access is denied"}

// checkForbidden classifies bodies carrying a forbidden marker, whatever the HTTP status was.
func checkForbidden(body string) error {
	for _, marker := range forbiddenMarkers {
		if strings.Contains(body, marker) {
			return steamerrors.NewInvalidAPIKeyError()
		}
	}
	return nil
}

// classifyPlayerSummary decodes a player summary body, mapping an empty player list to PlayerNotFound.
func classifyPlayerSummary(body string) (Player, error) {
	if err := checkForbidden(body); err != nil {
		return Player{}, err
	}

	var parsed playerSummaryResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return Player{}, fmt.Errorf("failed to parse player summary: %w", err)
	}

	if len(parsed.Response.Players) == 0 {
		return Player{}, steamerrors.NewPlayerNotFoundError()
	}
	return parsed.Response.Players[0], nil
}

// classifyOwnedGames decodes an owned-games body. Steam does not report private
// profiles explicitly; it returns a response with no "games" key at all. A
// genuinely empty library that also omits the key is indistinguishable and is
// reported as private too.
func classifyOwnedGames(body string) (OwnedGames, error) {
	if err := checkForbidden(body); err != nil {
		return OwnedGames{}, err
	}

	var parsed ownedGamesResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		if !strings.Contains(body, `"games"`) || strings.Contains(body, `"game_count":0`) {
			return OwnedGames{}, steamerrors.NewPrivateProfileError()
		}
		return OwnedGames{}, fmt.Errorf("failed to parse owned games: %w", err)
	}

	if parsed.Response.GameCount == 0 && parsed.Response.Games == nil {
		return OwnedGames{}, steamerrors.NewPrivateProfileError()
	}

	return parsed.toOwnedGames(), nil
}

// decodeOwnedGamesLenient decodes an owned-games body without the private-profile heuristic.
func decodeOwnedGamesLenient(body string) (OwnedGames, error) {
	if err := checkForbidden(body); err != nil {
		return OwnedGames{}, err
	}

	var parsed ownedGamesResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return OwnedGames{}, fmt.Errorf("failed to parse owned games: %w", err)
	}
	return parsed.toOwnedGames(), nil
}

func (r ownedGamesResponse) toOwnedGames() OwnedGames {
	owned := OwnedGames{GameCount: r.Response.GameCount}
	if r.Response.Games != nil {
		owned.Games = *r.Response.Games
	}
	return owned
}
