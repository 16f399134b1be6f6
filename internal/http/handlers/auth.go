package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hongminglow/erp-portal/internal/auth"
	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/metrics"
	"github.com/hongminglow/erp-portal/internal/middleware"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/revoke"
	"github.com/hongminglow/erp-portal/internal/storage"
	"github.com/hongminglow/erp-portal/internal/validate"
)

// AuthStore is the persistence the auth endpoints need.
type AuthStore interface {
	storage.UserStore
	storage.EmployeeStore
}

// AuthHandler owns the /auth endpoints.
type AuthHandler struct {
	store   AuthStore
	tokens  *auth.TokenManager
	authn   *middleware.Authenticator
	revoked revoke.Store
	limiter *middleware.RateLimiter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAuthHandler constructs the handler. limiter and m may be nil.
func NewAuthHandler(store AuthStore, tokens *auth.TokenManager, authn *middleware.Authenticator, revoked revoke.Store, limiter *middleware.RateLimiter, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		store:   store,
		tokens:  tokens,
		authn:   authn,
		revoked: revoked,
		limiter: limiter,
		metrics: m,
		now:     time.Now,
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	login := h.handleLogin
	if h.limiter != nil {
		login = h.limiter.Limit(login)
	}
	mux.HandleFunc("POST /api/auth/login", login)
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("GET /api/auth/check-username/{username}", h.handleCheckUsername)
	mux.HandleFunc("GET /api/auth/available-employees", h.handleAvailableEmployees)
	mux.Handle("POST /api/auth/change-password", h.authn.Require(models.AuthenticatedUser, h.handleChangePassword))
	mux.Handle("POST /api/auth/logout", h.authn.Require(models.AuthenticatedUser, h.handleLogout))
	mux.Handle("GET /api/auth/profile", h.authn.Require(models.AuthenticatedUser, h.handleProfile))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.authError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if errs := validate.LoginRules.Validate(map[string]string{
		"nomUtilisateur": req.Username,
		"motDePasse":     req.Password,
	}); errs != nil {
		h.authError(w, http.StatusBadRequest, errs.First(validate.LoginRules))
		return
	}

	user, err := h.store.FindByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.countAuth("login", "failure")
			h.authError(w, http.StatusUnauthorized, "Nom d'utilisateur ou mot de passe incorrect")
			return
		}
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("login: fetch user")
		h.authError(w, http.StatusInternalServerError, "Erreur lors de la connexion")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.countAuth("login", "failure")
		h.authError(w, http.StatusUnauthorized, "Nom d'utilisateur ou mot de passe incorrect")
		return
	}
	if !user.IsActive {
		h.countAuth("login", "inactive")
		h.authError(w, http.StatusForbidden, "Ce compte est désactivé")
		return
	}

	token, expiresAt, err := h.tokens.Generate(user)
	if err != nil {
		log.Error().Err(err).Msg("login: generate token")
		h.authError(w, http.StatusInternalServerError, "Erreur lors de la génération du jeton")
		return
	}
	profile := h.profile(r, user)
	h.countAuth("login", "success")
	log.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	respond.Raw(w, http.StatusOK, dto.AuthResponse{
		Success:    true,
		Message:    "Connexion réussie",
		Token:      token,
		Expiration: &expiresAt,
		UserInfo:   &profile,
		Timestamp:  h.now().UTC(),
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.authError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	rules := validate.RegisterRules(req)
	if errs := rules.Validate(validate.RegisterValues(req)); errs != nil {
		h.authError(w, http.StatusBadRequest, errs.First(rules))
		return
	}
	role := models.CanonicalRole(req.Role)
	if role == models.RoleAdmin {
		caller := h.authn.Optional(r)
		if caller == nil || !models.AdminOnly.Allows(caller.Role) {
			h.authError(w, http.StatusForbidden, "Seul un administrateur peut créer un compte administrateur")
			return
		}
	}

	var employee *models.Employee
	if req.EmployeeID != nil {
		emp, err := h.store.FindEmployee(r.Context(), *req.EmployeeID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				h.authError(w, http.StatusBadRequest, "Employé introuvable")
				return
			}
			log.Error().Err(err).Msg("register: fetch employee")
			h.authError(w, http.StatusInternalServerError, "Erreur lors de la création du compte")
			return
		}
		employee = &emp
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.authError(w, http.StatusInternalServerError, "Erreur lors de la création du compte")
		return
	}
	created, err := h.store.CreateUser(r.Context(), models.User{
		Username:     strings.TrimSpace(req.Username),
		Role:         role,
		EmployeeID:   req.EmployeeID,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			h.authError(w, http.StatusConflict, "Ce nom d'utilisateur ou cet employé est déjà associé à un compte")
		default:
			log.Error().Err(err).Msg("register: create user")
			h.authError(w, http.StatusInternalServerError, "Erreur lors de la création du compte")
		}
		return
	}

	profile := created.Profile(employee)
	h.countAuth("register", "success")
	respond.Raw(w, http.StatusCreated, dto.AuthResponse{
		Success:   true,
		Message:   "Compte créé avec succès",
		UserInfo:  &profile,
		Timestamp: h.now().UTC(),
	})
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.authError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	rules := validate.ChangePasswordRules(req)
	if errs := rules.Validate(validate.ChangePasswordValues(req)); errs != nil {
		h.authError(w, http.StatusBadRequest, errs.First(rules))
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		h.authError(w, http.StatusBadRequest, "Le mot de passe actuel est incorrect")
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.authError(w, http.StatusInternalServerError, "Erreur lors du changement de mot de passe")
		return
	}
	if err := h.store.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("change password")
		h.authError(w, http.StatusInternalServerError, "Erreur lors du changement de mot de passe")
		return
	}
	h.countAuth("change_password", "success")
	respond.Raw(w, http.StatusOK, dto.AuthResponse{
		Success:   true,
		Message:   "Mot de passe modifié avec succès",
		Timestamp: h.now().UTC(),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if h.revoked != nil && claims != nil && claims.ExpiresAt != nil {
		if err := h.revoked.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			log.Error().Err(err).Msg("logout: revoke token")
			h.authError(w, http.StatusInternalServerError, "Erreur lors de la déconnexion")
			return
		}
	}
	h.countAuth("logout", "success")
	respond.Raw(w, http.StatusOK, dto.AuthResponse{
		Success:   true,
		Message:   "Déconnexion réussie",
		Timestamp: h.now().UTC(),
	})
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	profile := h.profile(r, user)
	respond.Raw(w, http.StatusOK, dto.AuthResponse{
		Success:   true,
		Message:   "Profil récupéré",
		UserInfo:  &profile,
		Timestamp: h.now().UTC(),
	})
}

func (h *AuthHandler) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respond.Error(w, http.StatusBadRequest, "Le nom d'utilisateur est requis")
		return
	}
	exists, err := h.store.UsernameExists(r.Context(), username)
	if err != nil {
		log.Error().Err(err).Msg("check username")
		respond.Error(w, http.StatusInternalServerError, "Erreur lors de la vérification")
		return
	}
	msg := "Nom d'utilisateur disponible"
	if exists {
		msg = "Nom d'utilisateur déjà utilisé"
	}
	respond.JSON(w, http.StatusOK, msg, dto.UsernameAvailability{Username: username, Available: !exists})
}

func (h *AuthHandler) handleAvailableEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.AvailableEmployees(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list available employees")
		respond.Error(w, http.StatusInternalServerError, "Erreur lors du chargement des employés")
		return
	}
	if employees == nil {
		employees = []models.Employee{}
	}
	respond.JSON(w, http.StatusOK, "Employés disponibles", employees)
}

// currentUser loads the account behind the request's claims, answering the request itself on failure.
func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.authError(w, http.StatusUnauthorized, "Authentification requise")
		return models.User{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		h.authError(w, http.StatusUnauthorized, "Jeton invalide")
		return models.User{}, false
	}
	user, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.authError(w, http.StatusUnauthorized, "Compte introuvable")
			return models.User{}, false
		}
		log.Error().Err(err).Int64("user_id", id).Msg("load current user")
		h.authError(w, http.StatusInternalServerError, "Erreur lors du chargement du compte")
		return models.User{}, false
	}
	return user, true
}

func (h *AuthHandler) profile(r *http.Request, user models.User) models.UserProfile {
	if user.EmployeeID == nil {
		return user.Profile(nil)
	}
	emp, err := h.store.FindEmployee(r.Context(), *user.EmployeeID)
	if err != nil {
		log.Warn().Err(err).Int64("employee_id", *user.EmployeeID).Msg("linked employee not loaded")
		return user.Profile(nil)
	}
	return user.Profile(&emp)
}

func (h *AuthHandler) authError(w http.ResponseWriter, status int, message string) {
	respond.Raw(w, status, dto.AuthResponse{Success: false, Message: message, Timestamp: h.now().UTC()})
}

func (h *AuthHandler) countAuth(event, result string) {
	if h.metrics != nil {
		h.metrics.AuthEvent(event, result)
	}
}
