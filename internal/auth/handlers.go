// auth/handlers.go
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const stateLifetime = 10 * time.Minute

// Handler provides HTTP handlers for the Bling authorization flow.
type Handler struct {
	manager  *Manager
	registry *SessionRegistry
	logger   *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(manager *Manager, registry *SessionRegistry, logger *zap.Logger) *Handler {
	return &Handler{
		manager:  manager,
		registry: registry,
		logger:   logger,
	}
}

// generateState creates a secure random anti-forgery state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConnectHandler starts the authorization flow: it stores a fresh state
// token in the cookie session and redirects the browser to Bling.
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	session, state := h.registry.Session(r)

	stateToken, err := generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	session.Values["oauth_state"] = stateToken
	session.Values["oauth_state_expiry"] = time.Now().Add(stateLifetime).Unix()
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	state.BeginAuthorization()
	http.Redirect(w, r, h.manager.AuthorizationURL(stateToken), http.StatusFound)
}

// CallbackHandler handles the OAuth redirect back from Bling: it verifies
// and consumes the anti-forgery state, then exchanges the code.
func (h *Handler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	session, state := h.registry.Session(r)

	query := r.URL.Query()
	code := query.Get("code")
	stateToken := query.Get("state")
	if code == "" || stateToken == "" {
		http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
		return
	}

	savedState, ok := session.Values["oauth_state"].(string)
	if !ok || savedState != stateToken {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	expiry, ok := session.Values["oauth_state_expiry"].(int64)
	if !ok || time.Now().Unix() > expiry {
		http.Error(w, "State parameter expired", http.StatusBadRequest)
		return
	}

	delete(session.Values, "oauth_state")
	delete(session.Values, "oauth_state_expiry")
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	cred, err := h.manager.ExchangeCode(r.Context(), state, code)
	if err != nil {
		h.logger.Warn("callback exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange code for token: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"expires_at": cred.ExpiresAt,
	})
}

// DisconnectHandler drops the session's credential.
func (h *Handler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	session, state := h.registry.Session(r)
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	state.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
	})
}

// StatusHandler reports the session's authorization state so the
// presentation layer can decide between the auth prompt and the data table.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	session, state := h.registry.Session(r)
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"state": state.State(time.Now()).String(),
	}
	if cred, err := h.manager.CurrentCredential(state); err == nil {
		resp["expires_at"] = cred.ExpiresAt
	} else {
		resp["authorization_url"] = "/auth/connect"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
