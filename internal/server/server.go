package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/config"
	"github.com/hongminglow/erp-portal/internal/http/handlers"
	"github.com/hongminglow/erp-portal/internal/metrics"
	"github.com/hongminglow/erp-portal/internal/middleware"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/revoke"
	"github.com/hongminglow/erp-portal/internal/storage"
)

// Version is reported by /health.
var Version = "dev"

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, revoked revoke.Store, m *metrics.Metrics) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store, revoked, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Handler builds the full middleware chain around the API routes.
func Handler(cfg config.Config, store storage.Store, revoked revoke.Store, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authn := middleware.NewAuthenticator(tokenManager, revoked)

	handlers.NewHealthHandler(time.Now(), Version).Register(mux)
	handlers.NewAuthHandler(store, tokenManager, authn, revoked, middleware.NewRateLimiter(cfg.LoginRatePerMinute), m).Register(mux)
	handlers.NewClientHandler(store, authn).Register(mux)
	mux.Handle("GET /metrics", m.Handler())

	return middleware.CORS(cfg.CORSOrigins, middleware.RequestID(middleware.Logging(m.Middleware(mux))))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}

// SeedAdmin creates the "admin" account when password is set and no such account exists.
func SeedAdmin(ctx context.Context, users storage.UserStore, password string) error {
	if password == "" {
		return nil
	}
	exists, err := users.UsernameExists(ctx, "admin")
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = users.CreateUser(ctx, models.User{Username: "admin", Role: models.RoleAdmin, PasswordHash: hash})
	if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("create admin account: %w", err)
	}
	log.Info().Msg("seeded admin account")
	return nil
}
