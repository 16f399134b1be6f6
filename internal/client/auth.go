package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/validate"
)

// SessionWriter is the part of *session.Store the auth service updates.
type SessionWriter interface {
	SessionStore
	SetSession(token string, expiresAt time.Time, user models.UserProfile) error
	UpdateUser(user models.UserProfile) bool
}

// AuthService calls the /auth endpoints and keeps the session store in step.
type AuthService struct {
	c        *Client
	sessions SessionWriter
}

func NewAuthService(c *Client, sessions SessionWriter) *AuthService {
	return &AuthService{c: c, sessions: sessions}
}

// Login validates the form, authenticates and stores the resulting session.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if errs := validate.LoginRules.Validate(map[string]string{
		"nomUtilisateur": req.Username,
		"motDePasse":     req.Password,
	}); errs != nil {
		return dto.AuthResponse{}, errs
	}

	var out dto.AuthResponse
	if err := s.c.call(ctx, http.MethodPost, "/auth/login", req, "token", &out); err != nil {
		return dto.AuthResponse{}, err
	}
	if out.UserInfo == nil || out.Expiration == nil {
		return dto.AuthResponse{}, fmt.Errorf("%w: login response without userInfo or expiration", ErrMissingData)
	}
	if err := s.sessions.SetSession(out.Token, *out.Expiration, *out.UserInfo); err != nil {
		s.c.logger.Warn().Err(err).Msg("login succeeded but session could not be stored")
	}
	return out, nil
}

// Register creates an account. It does not log the new user in.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if errs := validate.RegisterRules(req).Validate(validate.RegisterValues(req)); errs != nil {
		return dto.AuthResponse{}, errs
	}
	var out dto.AuthResponse
	if err := s.c.call(ctx, http.MethodPost, "/auth/register", req, "", &out); err != nil {
		return dto.AuthResponse{}, err
	}
	return out, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (dto.AuthResponse, error) {
	if errs := validate.ChangePasswordRules(req).Validate(validate.ChangePasswordValues(req)); errs != nil {
		return dto.AuthResponse{}, errs
	}
	var out dto.AuthResponse
	if err := s.c.call(ctx, http.MethodPost, "/auth/change-password", req, "", &out); err != nil {
		return dto.AuthResponse{}, err
	}
	return out, nil
}

// Logout tells the API to revoke the token, then clears the local session even if the call failed.
func (s *AuthService) Logout(ctx context.Context) error {
	defer s.sessions.ClearSession()
	if s.sessions.Token() == "" {
		return nil
	}
	return s.c.call(ctx, http.MethodPost, "/auth/logout", nil, "", nil)
}

// Profile re-fetches the user and refreshes the stored snapshot.
func (s *AuthService) Profile(ctx context.Context) (models.UserProfile, error) {
	var out dto.AuthResponse
	if err := s.c.call(ctx, http.MethodGet, "/auth/profile", nil, "userInfo", &out); err != nil {
		return models.UserProfile{}, err
	}
	s.sessions.UpdateUser(*out.UserInfo)
	return *out.UserInfo, nil
}

// CheckUsername reports whether username is still free.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, validate.Errors{"nomUtilisateur": "Le nom d'utilisateur est requis"}
	}
	avail, err := getData[dto.UsernameAvailability](ctx, s.c, http.MethodGet, "/auth/check-username/"+url.PathEscape(username), nil)
	if err != nil {
		return false, err
	}
	return avail.Available, nil
}

// AvailableEmployees lists employees not yet linked to an account.
func (s *AuthService) AvailableEmployees(ctx context.Context) ([]models.Employee, error) {
	return getData[[]models.Employee](ctx, s.c, http.MethodGet, "/auth/available-employees", nil)
}
