// auth/session.go
package auth

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "bling-session"

// SessionRegistry maps browser cookie sessions to their server-side
// SessionState. States live only in memory for the lifetime of the process;
// a restart sends every session back through the authorization flow.
type SessionRegistry struct {
	store *sessions.CookieStore

	mu     sync.Mutex
	states map[string]*SessionState
}

// NewSessionRegistry creates a registry backed by a cookie session store.
func NewSessionRegistry(secret []byte) *SessionRegistry {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionRegistry{
		store:  store,
		states: make(map[string]*SessionState),
	}
}

// Session returns the cookie session and the SessionState bound to it,
// creating both on first contact. The caller must save the session exactly
// once per request so the session ID cookie reaches the browser.
func (r *SessionRegistry) Session(req *http.Request) (*sessions.Session, *SessionState) {
	session, _ := r.store.Get(req, sessionName)

	sid, ok := session.Values["sid"].(string)
	if !ok || sid == "" {
		sid = uuid.NewString()
		session.Values["sid"] = sid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sid]
	if !ok {
		state = NewSessionState()
		r.states[sid] = state
	}
	return session, state
}
