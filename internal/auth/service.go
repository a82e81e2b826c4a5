// auth/service.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// expiryMargin is subtracted from the credential lifetime when deciding
// whether a token is still usable, so a request started just before expiry
// does not arrive at Bling with a stale token.
const expiryMargin = 30 * time.Second

const tokenRequestTimeout = 10 * time.Second

// OAuthConfig holds OAuth 2.0 configuration for Bling.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
}

// Manager drives the OAuth 2.0 token lifecycle against Bling. It keeps no
// session state of its own: every operation receives the SessionState it
// acts on, and the state machine transitions live there.
type Manager struct {
	config     OAuthConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewManager creates a token lifecycle manager.
func NewManager(config OAuthConfig, logger *zap.Logger) *Manager {
	return &Manager{
		config:     config,
		httpClient: &http.Client{Timeout: tokenRequestTimeout},
		logger:     logger,
	}
}

// AuthorizationURL builds the Bling authorization URL for the given
// anti-forgery state token. Pure: no side effects, no network call.
func (m *Manager) AuthorizationURL(state string) string {
	u, _ := url.Parse(m.config.AuthURL)
	q := u.Query()

	q.Set("response_type", "code")
	q.Set("client_id", m.config.ClientID)
	q.Set("state", state)
	q.Set("redirect_uri", m.config.RedirectURI)

	u.RawQuery = q.Encode()
	return u.String()
}

// ExchangeCode trades an authorization code for a credential. On success the
// session becomes Authenticated and its epoch is bumped; on any failure the
// session is reset to Unauthenticated and an *ExchangeError is returned.
func (m *Manager) ExchangeCode(ctx context.Context, st *SessionState, code string) (*Credential, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", m.config.ClientID)
	data.Set("client_secret", m.config.ClientSecret)
	data.Set("redirect_uri", m.config.RedirectURI)

	cred, status, body, err := m.requestToken(ctx, data)
	if err != nil {
		st.resetLocked()
		m.logger.Warn("authorization code exchange failed",
			zap.Int("status", status), zap.Error(err))
		return nil, &ExchangeError{StatusCode: status, Body: body, Err: errOrNil(status, err)}
	}

	st.setCredentialLocked(cred)
	m.logger.Info("authenticated with Bling", zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// Refresh obtains a new credential using the session's refresh token. A
// failed refresh means the grant is gone: the credential is discarded, the
// session resets to Unauthenticated, and the refresh is not retried.
func (m *Manager) Refresh(ctx context.Context, st *SessionState) (*Credential, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cred == nil {
		return nil, ErrNotAuthenticated
	}
	current := st.cred

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", current.RefreshToken)
	data.Set("client_id", m.config.ClientID)
	data.Set("client_secret", m.config.ClientSecret)

	cred, status, body, err := m.requestToken(ctx, data)
	if err != nil {
		st.resetLocked()
		m.logger.Warn("token refresh failed",
			zap.Int("status", status), zap.Error(err))
		return nil, &RefreshError{StatusCode: status, Body: body, Err: errOrNil(status, err)}
	}

	// Bling may omit the refresh token when it has not rotated.
	if cred.RefreshToken == "" {
		cred.RefreshToken = current.RefreshToken
	}

	st.setCredentialLocked(cred)
	m.logger.Info("refreshed Bling credential", zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// CurrentCredential returns the live credential. It never performs network
// I/O: an expired credential yields ErrCredentialExpired and the caller must
// invoke Refresh explicitly.
func (m *Manager) CurrentCredential(st *SessionState) (*Credential, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cred == nil {
		return nil, ErrNotAuthenticated
	}
	if st.cred.Expired(time.Now().Add(expiryMargin)) {
		return nil, ErrCredentialExpired
	}
	return st.cred, nil
}

// ValidCredential returns a usable credential, refreshing an expired one in
// place. ErrNotAuthenticated or a *RefreshError means the user has to go
// through the authorization flow again.
func (m *Manager) ValidCredential(ctx context.Context, st *SessionState) (*Credential, error) {
	cred, err := m.CurrentCredential(st)
	if err == ErrCredentialExpired {
		return m.Refresh(ctx, st)
	}
	return cred, err
}

// requestToken performs the POST against the Bling token endpoint shared by
// exchange and refresh. On a non-2xx response it returns the status and raw
// body; on a transport failure status is zero and err carries the cause.
func (m *Manager) requestToken(ctx context.Context, data url.Values) (*Credential, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode, string(body), fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var cred Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, 0, "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, 0, "", fmt.Errorf("token response missing access_token")
	}

	cred.ExpiresAt = time.Now().Add(time.Duration(cred.ExpiresIn) * time.Second)
	return &cred, 0, "", nil
}

// errOrNil keeps transport causes on the typed error but drops the generic
// "returned status N" error when the status and body already say it all.
func errOrNil(status int, err error) error {
	if status != 0 {
		return nil
	}
	return err
}
