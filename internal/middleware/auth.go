package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/revoke"
)

type claimsKey struct{}

// Authenticator validates bearer tokens and enforces role policies.
type Authenticator struct {
	tokens  *auth.TokenManager
	revoked revoke.Store
}

func NewAuthenticator(tokens *auth.TokenManager, revoked revoke.Store) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked}
}

// Require wraps next so it only runs for a valid token whose role satisfies policy.
func (a *Authenticator) Require(policy models.Policy, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "Authentification requise")
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				w.Header().Set(respond.TokenExpiredHeader, "true")
				respond.Error(w, http.StatusUnauthorized, "Session expirée, veuillez vous reconnecter")
				return
			}
			respond.Error(w, http.StatusUnauthorized, "Jeton invalide")
			return
		}

		if a.revoked != nil {
			revoked, err := a.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("revocation lookup failed")
				respond.Error(w, http.StatusInternalServerError, "Impossible de vérifier le jeton")
				return
			}
			if revoked {
				respond.Error(w, http.StatusUnauthorized, "Session terminée, veuillez vous reconnecter")
				return
			}
		}

		if !policy.Allows(claims.Role) {
			log.Warn().
				Str("request_id", GetRequestID(r.Context())).
				Str("policy", string(policy)).
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Msg("access denied")
			respond.Error(w, http.StatusForbidden, "Permissions insuffisantes")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// ClaimsFromContext returns the claims stored by Require.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// WithClaims stores claims in ctx, for handlers invoked outside Require.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// Optional returns the claims of a valid, unrevoked bearer token on r, or nil.
func (a *Authenticator) Optional(r *http.Request) *auth.Claims {
	token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
	if err != nil {
		return nil
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if a.revoked != nil {
		if revoked, err := a.revoked.IsRevoked(r.Context(), claims.ID); err != nil || revoked {
			return nil
		}
	}
	return claims
}
