// auth/models.go
package auth

import (
	"sync"
	"time"
)

// Credential represents token data issued by Bling.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the credential is past its expiry at the given
// instant. Expiry is strict: a credential expiring exactly now is expired.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// State identifies where a session is in the authorization lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingCode
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// SessionState holds the per-session authorization state. The credential is
// non-nil only when the session has completed an exchange; Expired is never
// stored, it is derived from the credential's expiry on read, so the illegal
// combination "expired but no credential" cannot be represented.
//
// The mutex serializes exchange and refresh calls: at most one token request
// is in flight per session. Sessions never share state.
type SessionState struct {
	mu    sync.Mutex
	state State
	cred  *Credential
	epoch int64
}

// NewSessionState returns a state in the Unauthenticated phase.
func NewSessionState() *SessionState {
	return &SessionState{state: StateUnauthenticated}
}

// State returns the lifecycle phase as observed at the given instant.
// An authenticated session whose credential has lapsed reads as Expired.
func (s *SessionState) State(now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(now)
}

func (s *SessionState) stateLocked(now time.Time) State {
	if s.state == StateAuthenticated && s.cred.Expired(now) {
		return StateExpired
	}
	return s.state
}

// Epoch returns the credential issuance counter. Every successful exchange
// or refresh bumps it, so cached data fetched under a superseded credential
// can be told apart from data fetched under the live one.
func (s *SessionState) Epoch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// BeginAuthorization moves the session to AwaitingCode. Any credential held
// up to this point is discarded.
func (s *SessionState) BeginAuthorization() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAwaitingCode
	s.cred = nil
}

// Reset drops the credential and returns the session to Unauthenticated.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *SessionState) resetLocked() {
	s.state = StateUnauthenticated
	s.cred = nil
}

func (s *SessionState) setCredentialLocked(cred *Credential) {
	s.state = StateAuthenticated
	s.cred = cred
	s.epoch++
}
