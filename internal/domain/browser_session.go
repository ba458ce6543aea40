package domain

import (
	"time"
)

// LastLoginLayout is the on-disk format of BrowserSession.LastLogin.
const LastLoginLayout = "2006-01-02 15:04:05"

// BrowserSession binds a browser fingerprint to the code it redeemed.
type BrowserSession struct {
	Fingerprint string    `json:"fingerprint"`
	Code        string    `json:"code"`
	LastLogin   time.Time `json:"last_login"`
	UserAgent   string    `json:"user_agent"`
}

// IsExpired reports whether the session is older than maxAge.
// A non-positive maxAge means sessions never expire.
func (s *BrowserSession) IsExpired(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.LastLogin) > maxAge
}

// AuthState is the per-request outcome of the access gate.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// AuthMethod records which signal authenticated a request.
type AuthMethod string

const (
	AuthMethodNone    AuthMethod = ""
	AuthMethodMarker  AuthMethod = "marker"
	AuthMethodSession AuthMethod = "session"
	AuthMethodCode    AuthMethod = "code"
)
