package oauth

import "errors"

var (
	// ErrStateNotFound is returned when a state token was never issued,
	// has already been swept, or is older than StateTTL.
	ErrStateNotFound = errors.New("invalid state token")

	// ErrStateConsumed is returned when a state token was already used.
	ErrStateConsumed = errors.New("state token already used")

	// ErrNotConfigured is returned when the provider lacks client credentials
	// or a redirect URI.
	ErrNotConfigured = errors.New("OAuth configuration is incomplete")

	// ErrIncompleteProfile is returned when the userinfo response lacks
	// email, name or picture.
	ErrIncompleteProfile = errors.New("incomplete user profile")
)
