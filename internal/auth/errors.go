// auth/errors.go
package auth

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when a credential is requested and the
// session holds none. The presentation layer reacts by showing the
// authorization link.
var ErrNotAuthenticated = errors.New("not authenticated with Bling")

// ErrCredentialExpired is returned when the session's credential is past its
// expiry. The caller must invoke Refresh before retrying.
var ErrCredentialExpired = errors.New("bling credential expired")

// ExchangeError reports a failed authorization-code exchange. StatusCode and
// Body carry the raw provider response for diagnostics; both are zero when
// the request itself failed (timeout, connection error).
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("code exchange failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// RefreshError reports a failed token refresh. A failed refresh means the
// grant was revoked or is otherwise invalid, so the session is reset and the
// user must authorize again.
type RefreshError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *RefreshError) Unwrap() error { return e.Err }
