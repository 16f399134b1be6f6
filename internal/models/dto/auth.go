package dto

import (
	"time"

	"github.com/hongminglow/erp-portal/internal/models"
)

type LoginRequest struct {
	Username string `json:"nomUtilisateur"`
	Password string `json:"motDePasse"`
}

type RegisterRequest struct {
	Username        string `json:"nomUtilisateur"`
	Password        string `json:"motDePasse"`
	ConfirmPassword string `json:"confirmationMotDePasse"`
	Role            string `json:"role"`
	EmployeeID      *int64 `json:"employeId,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"ancienMotDePasse"`
	NewPassword     string `json:"nouveauMotDePasse"`
	ConfirmPassword string `json:"confirmationMotDePasse"`
}

// AuthResponse is returned by every /auth endpoint.
type AuthResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Token      string              `json:"token,omitempty"`
	Expiration *time.Time          `json:"expiration,omitempty"`
	UserInfo   *models.UserProfile `json:"userInfo,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

type UsernameAvailability struct {
	Username  string `json:"nomUtilisateur"`
	Available bool   `json:"disponible"`
}
