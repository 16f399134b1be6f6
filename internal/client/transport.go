package client

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/http/respond"
)

// SessionStore is the part of *session.Store the interceptor needs.
type SessionStore interface {
	Token() string
	ClearSession()
}

// AuthTransport is the request interceptor: it attaches the bearer token and
// reacts to 401 and 403 responses. It never retries.
type AuthTransport struct {
	Base      http.RoundTripper
	Sessions  SessionStore
	Navigator guard.Navigator
	Logger    zerolog.Logger
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		if token := t.Sessions.Token(); token != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		evt := t.Logger.Warn().Str("method", req.Method).Str("url", req.URL.Redacted())
		if resp.Header.Get(respond.TokenExpiredHeader) == "true" {
			evt = evt.Bool("token_expired", true)
		}
		evt.Msg("unauthorized response, clearing session")
		t.Sessions.ClearSession()
		if t.Navigator != nil {
			t.Navigator.Navigate(guard.LoginRoute)
		}
	case http.StatusForbidden:
		t.Logger.Warn().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("access forbidden")
	}
	return resp, nil
}
