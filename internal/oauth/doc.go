// Package oauth implements the login handshake used by the panel.
//
// It contains two parts:
//
//   - StateStore issues and validates single-use anti-replay state tokens.
//     Tokens expire after StateTTL; expired entries are swept opportunistically
//     whenever a new token is issued.
//   - Provider wraps golang.org/x/oauth2 to build the authorization URL,
//     exchange the returned code for a token and fetch the user's profile.
//
// # Flow
//
//	state, _ := store.Issue()
//	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
//
//	// on callback
//	if err := store.Validate(r.URL.Query().Get("state")); err != nil {
//	    // ErrStateNotFound or ErrStateConsumed
//	}
//	token, _ := provider.Exchange(ctx, code)
//	user, _ := provider.UserInfo(ctx, token)
//
// # Security Considerations
//
//   - State tokens are 32 bytes from crypto/rand, base64url encoded
//   - A token validates exactly once; replays fail with ErrStateConsumed
//   - Tokens are never logged in full, only their length
package oauth
