package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "craftpanel_session"

	// DefaultTTL is how long a session stays valid (7 days).
	DefaultTTL = 7 * 24 * time.Hour

	issuer = "craftpanel"
)

// ErrInvalidSession is returned for tokens that fail signature or expiry checks.
var ErrInvalidSession = errors.New("invalid session")

type sessionClaims struct {
	Name      string `json:"name"`
	Picture   string `json:"picture"`
	LoginTime int64  `json:"login_time"`
	jwt.RegisteredClaims
}

// Codec signs sessions into cookies and reads them back.
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewCodec creates a codec. An empty secret is replaced by a random one,
// which invalidates all sessions when the process restarts.
func NewCodec(secret string, ttl time.Duration, secure bool) (*Codec, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: key, ttl: ttl, secure: secure, now: time.Now}, nil
}

// WithClock replaces the time source. Intended for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// TTL returns the session lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode signs s as an HS256 JWT.
func (c *Codec) Encode(s Session) (string, error) {
	now := c.now()
	if s.LoginTime.IsZero() {
		s.LoginTime = now
	}
	claims := sessionClaims{
		Name:      s.Name,
		Picture:   s.Picture,
		LoginTime: s.LoginTime.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.Email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns the session it carries.
func (c *Codec) Decode(raw string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return &Session{
		Email:     claims.Subject,
		Name:      claims.Name,
		Picture:   claims.Picture,
		LoginTime: time.Unix(claims.LoginTime, 0).UTC(),
	}, nil
}

// FromRequest returns the session carried by r, or nil when the cookie is
// missing or invalid.
func (c *Codec) FromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	s, err := c.Decode(cookie.Value)
	if err != nil {
		return nil
	}
	return s
}

// SetCookie writes s as the session cookie.
func (c *Codec) SetCookie(w http.ResponseWriter, s Session) error {
	raw, err := c.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
