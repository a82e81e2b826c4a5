// auth/service_test.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func newTestManager(tokenURL string) *Manager {
	return NewManager(OAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
		AuthURL:      "https://www.bling.com.br/b/Api/v3/oauth/authorize",
		TokenURL:     tokenURL,
	}, zap.NewNop())
}

func TestAuthorizationURL(t *testing.T) {
	m := newTestManager("http://unused")

	raw := m.AuthorizationURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "test-client-id", q.Get("client_id"))
	require.Equal(t, "state-123", q.Get("state"))
	require.Equal(t, "http://localhost:8080/auth/callback", q.Get("redirect_uri"))
}

func TestExchangeCode_Success(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			TokenType:    "bearer",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.BeginAuthorization()

	before := time.Now()
	cred, err := m.ExchangeCode(context.Background(), st, "auth-code")
	after := time.Now()
	require.NoError(t, err)

	require.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	require.Equal(t, "auth-code", gotForm.Get("code"))
	require.Equal(t, "test-client-id", gotForm.Get("client_id"))
	require.Equal(t, "test-client-secret", gotForm.Get("client_secret"))

	require.Equal(t, "access-123", cred.AccessToken)
	require.Equal(t, "refresh-456", cred.RefreshToken)
	// expires_at = call time + expires_in, within scheduling tolerance.
	require.False(t, cred.ExpiresAt.Before(before.Add(3600*time.Second)))
	require.False(t, cred.ExpiresAt.After(after.Add(3600*time.Second)))

	require.Equal(t, StateAuthenticated, st.State(time.Now()))
	require.Equal(t, int64(1), st.Epoch())
}

func TestExchangeCode_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.BeginAuthorization()

	_, err := m.ExchangeCode(context.Background(), st, "bad-code")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	require.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	require.Contains(t, exchangeErr.Body, "invalid_grant")

	require.Equal(t, StateUnauthenticated, st.State(time.Now()))
	require.Equal(t, int64(0), st.Epoch())
}

func TestRefresh_Success(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "access-new",
			TokenType:   "bearer",
			ExpiresIn:   3600,
		})
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.setCredentialLocked(&Credential{
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	cred, err := m.Refresh(context.Background(), st)
	require.NoError(t, err)

	require.Equal(t, "refresh_token", gotForm.Get("grant_type"))
	require.Equal(t, "refresh-old", gotForm.Get("refresh_token"))

	require.Equal(t, "access-new", cred.AccessToken)
	// Bling omitted the refresh token, so the previous one is kept.
	require.Equal(t, "refresh-old", cred.RefreshToken)

	require.Equal(t, StateAuthenticated, st.State(time.Now()))
	require.Equal(t, int64(2), st.Epoch())
}

func TestRefresh_RevokedGrantResetsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.setCredentialLocked(&Credential{
		AccessToken:  "access-old",
		RefreshToken: "refresh-revoked",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	_, err := m.Refresh(context.Background(), st)
	require.Error(t, err)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	require.Equal(t, http.StatusUnauthorized, refreshErr.StatusCode)

	// Credential discarded: the user must authorize from scratch.
	require.Equal(t, StateUnauthenticated, st.State(time.Now()))
	_, err = m.CurrentCredential(st)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRefresh_WithoutCredential(t *testing.T) {
	m := newTestManager("http://unused")
	st := NewSessionState()

	_, err := m.Refresh(context.Background(), st)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCurrentCredential_Unauthenticated(t *testing.T) {
	m := newTestManager("http://unused")
	st := NewSessionState()

	_, err := m.CurrentCredential(st)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCurrentCredential_Expired(t *testing.T) {
	m := newTestManager("http://unused")
	st := NewSessionState()
	st.setCredentialLocked(&Credential{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Second),
	})

	// A stale token is never handed out; the caller has to refresh.
	_, err := m.CurrentCredential(st)
	require.ErrorIs(t, err, ErrCredentialExpired)

	require.Equal(t, StateExpired, st.State(time.Now()))
}

func TestCurrentCredential_Valid(t *testing.T) {
	m := newTestManager("http://unused")
	st := NewSessionState()
	st.setCredentialLocked(&Credential{
		AccessToken: "live",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	cred, err := m.CurrentCredential(st)
	require.NoError(t, err)
	require.Equal(t, "live", cred.AccessToken)
}

func TestValidCredential_RefreshesExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			TokenType:    "bearer",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.setCredentialLocked(&Credential{
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	cred, err := m.ValidCredential(context.Background(), st)
	require.NoError(t, err)
	require.Equal(t, "access-new", cred.AccessToken)
	require.Equal(t, StateAuthenticated, st.State(time.Now()))
}

func TestExchangeCode_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	m := newTestManager(server.URL)
	st := NewSessionState()
	st.BeginAuthorization()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := m.ExchangeCode(ctx, st, "code")
	require.Error(t, err)

	// Timeouts surface as the same typed error, with no status.
	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	require.Zero(t, exchangeErr.StatusCode)
	require.Equal(t, StateUnauthenticated, st.State(time.Now()))
}
