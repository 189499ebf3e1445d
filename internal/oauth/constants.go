package oauth

import "time"

const (
	// StateTTL is how long an issued state token stays valid (10 minutes)
	StateTTL = 10 * time.Minute

	// StateTokenLength is the number of random bytes in a state token
	StateTokenLength = 32

	// DefaultExchangeTimeout bounds the token exchange and userinfo calls
	DefaultExchangeTimeout = 10 * time.Second
)

// DefaultScopes are requested when no scopes are configured.
var DefaultScopes = []string{"email", "profile"}
