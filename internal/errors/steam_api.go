package errors

import (
	stdErrors "errors"
	"fmt"
)

// Kind identifies one member of the closed Steam API error taxonomy.
type Kind int

const (
	KindPrivateProfile Kind = iota + 1
	KindRateLimited
	KindTimeout
	KindNetwork
	KindInvalidAPIKey
	KindPlayerNotFound
	KindAPI
)

// String returns a stable snake_case name, also used as a metrics label.
func (k Kind) String() string {
	switch k {
	case KindPrivateProfile:
		return "private_profile"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network_error"
	case KindInvalidAPIKey:
		return "invalid_api_key"
	case KindPlayerNotFound:
		return "player_not_found"
	case KindAPI:
		return "api_error"
	default:
		return "unknown"
	}
}

const privateProfileMessage = `This Steam profile is private.
To use steamfetch, set your profile to public:

1. Open Steam -> Profile -> Edit Profile
2. Set 'My profile' to 'Public'
3. Set 'Game details' to 'Public'`

// SteamAPIError is a classified failure from the Steam Web API.
type SteamAPIError struct {
	Kind       Kind
	StatusCode int    // HTTP status for KindAPI, 0 otherwise
	Detail     string // transport message or response body, when available
}

// Error returns a message that tells the user how to fix the problem.
func (e *SteamAPIError) Error() string {
	switch e.Kind {
	case KindPrivateProfile:
		return privateProfileMessage
	case KindRateLimited:
		return "Steam API rate limit reached. Please wait a moment and try again."
	case KindTimeout:
		return "Request timed out. Check your connection or increase timeout with --timeout."
	case KindNetwork:
		return fmt.Sprintf("Network error: %s", e.Detail)
	case KindInvalidAPIKey:
		return "Invalid Steam API key. Please check your API key configuration."
	case KindPlayerNotFound:
		return "Player not found. Please check your Steam ID."
	case KindAPI:
		return fmt.Sprintf("Steam API error (HTTP %d): %s", e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("Steam API error: %s", e.Detail)
	}
}

// IsRetryable reports whether repeating the same request may succeed.
func (e *SteamAPIError) IsRetryable() bool {
	switch e.Kind {
	case KindRateLimited, KindTimeout, KindNetwork:
		return true
	case KindAPI:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// NewPrivateProfileError creates an error for a profile whose game details are hidden.
func NewPrivateProfileError() *SteamAPIError {
	return &SteamAPIError{Kind: KindPrivateProfile}
}

// NewRateLimitedError creates an error for HTTP 429 responses.
func NewRateLimitedError() *SteamAPIError {
	return &SteamAPIError{Kind: KindRateLimited}
}

// NewTimeoutError creates an error for requests that exceeded the client timeout.
func NewTimeoutError() *SteamAPIError {
	return &SteamAPIError{Kind: KindTimeout}
}

// NewNetworkError creates an error for any other transport failure.
func NewNetworkError(detail string) *SteamAPIError {
	return &SteamAPIError{Kind: KindNetwork, Detail: detail}
}

// NewInvalidAPIKeyError creates an error for forbidden responses.
func NewInvalidAPIKeyError() *SteamAPIError {
	return &SteamAPIError{Kind: KindInvalidAPIKey}
}

// NewPlayerNotFoundError creates an error for an empty player summary.
func NewPlayerNotFoundError() *SteamAPIError {
	return &SteamAPIError{Kind: KindPlayerNotFound}
}

// NewAPIError creates an error carrying the HTTP status and response body.
func NewAPIError(statusCode int, detail string) *SteamAPIError {
	return &SteamAPIError{Kind: KindAPI, StatusCode: statusCode, Detail: detail}
}

// AsSteamAPIError returns the first SteamAPIError in err's chain.
func AsSteamAPIError(err error) (*SteamAPIError, bool) {
	var apiErr *SteamAPIError
	if stdErrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind checks if err is a SteamAPIError of the given kind (even when wrapped).
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsSteamAPIError(err)
	return ok && apiErr.Kind == kind
}

// IsRetryable checks if err is a retryable SteamAPIError. Unclassified errors are never retried.
func IsRetryable(err error) bool {
	apiErr, ok := AsSteamAPIError(err)
	return ok && apiErr.IsRetryable()
}
