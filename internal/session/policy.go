package session

import (
	"strings"
	"time"
)

// Session is an authenticated caller.
type Session struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	LoginTime time.Time `json:"login_time"`
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Anonymous means no session was presented.
	Anonymous Decision = iota
	// Unauthorized means the session identity is not allow-listed.
	Unauthorized
	// Authorized means the caller may operate the server.
	Authorized
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Anonymous:
		return "anonymous"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Policy is an immutable, case-insensitive allow-list of email identities.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from emails. Blank entries are ignored.
func NewPolicy(emails []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			p.allowed[e] = struct{}{}
		}
	}
	return p
}

// Open reports whether the allow-list is empty.
func (p *Policy) Open() bool {
	return len(p.allowed) == 0
}

// Size returns the number of allow-listed identities.
func (p *Policy) Size() int {
	return len(p.allowed)
}

// Authorize classifies s against the allow-list.
func (p *Policy) Authorize(s *Session) Decision {
	if s == nil || s.Email == "" {
		return Anonymous
	}
	if p.Open() {
		return Authorized
	}
	if _, ok := p.allowed[strings.ToLower(strings.TrimSpace(s.Email))]; ok {
		return Authorized
	}
	return Unauthorized
}
