package validate

import (
	"regexp"

	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// LoginRules validates the login form.
var LoginRules = Rules{
	{Name: "nomUtilisateur", Rules: []Rule{Required("Le nom d'utilisateur est requis")}},
	{Name: "motDePasse", Rules: []Rule{Required("Le mot de passe est requis")}},
}

func usernameRules() []Rule {
	return []Rule{
		Required("Le nom d'utilisateur est requis"),
		MinLength(MinUsernameLength, "Le nom d'utilisateur doit contenir au moins 3 caractères"),
		MaxLength(MaxUsernameLength, "Le nom d'utilisateur ne peut pas dépasser 50 caractères"),
		Pattern(usernamePattern, "Le nom d'utilisateur contient des caractères invalides"),
	}
}

func passwordRules() []Rule {
	return []Rule{
		Required("Le mot de passe est requis"),
		MinLength(MinPasswordLength, "Le mot de passe doit contenir au moins 6 caractères"),
		StrongPassword("Le mot de passe doit contenir au moins une lettre et un chiffre"),
	}
}

// RegisterRules builds the registration table; confirmation is checked against req.Password.
func RegisterRules(req dto.RegisterRequest) Rules {
	return Rules{
		{Name: "nomUtilisateur", Rules: usernameRules()},
		{Name: "motDePasse", Rules: passwordRules()},
		{Name: "confirmationMotDePasse", Rules: []Rule{
			Required("La confirmation du mot de passe est requise"),
			Equals(req.Password, "Les mots de passe ne correspondent pas"),
		}},
		{Name: "role", Rules: []Rule{
			Required("Le rôle est requis"),
			OneOf(models.Roles(), "Rôle inconnu"),
		}},
	}
}

// RegisterValues flattens req for RegisterRules.
func RegisterValues(req dto.RegisterRequest) map[string]string {
	return map[string]string{
		"nomUtilisateur":         req.Username,
		"motDePasse":             req.Password,
		"confirmationMotDePasse": req.ConfirmPassword,
		"role":                   req.Role,
	}
}

// ChangePasswordRules builds the change-password table.
func ChangePasswordRules(req dto.ChangePasswordRequest) Rules {
	return Rules{
		{Name: "ancienMotDePasse", Rules: []Rule{Required("Le mot de passe actuel est requis")}},
		{Name: "nouveauMotDePasse", Rules: append(passwordRules(), Rule{
			Message: "Le nouveau mot de passe doit être différent de l'ancien",
			Check:   func(v string) bool { return v != req.CurrentPassword },
		})},
		{Name: "confirmationMotDePasse", Rules: []Rule{
			Required("La confirmation du mot de passe est requise"),
			Equals(req.NewPassword, "Les mots de passe ne correspondent pas"),
		}},
	}
}

func ChangePasswordValues(req dto.ChangePasswordRequest) map[string]string {
	return map[string]string{
		"ancienMotDePasse":       req.CurrentPassword,
		"nouveauMotDePasse":      req.NewPassword,
		"confirmationMotDePasse": req.ConfirmPassword,
	}
}

// ClientRules validates the client creation form.
var ClientRules = Rules{
	{Name: "code", Rules: []Rule{Required("Le code client est requis"), MaxLength(20, "Le code client ne peut pas dépasser 20 caractères")}},
	{Name: "name", Rules: []Rule{Required("Le nom du client est requis"), MaxLength(200, "Le nom du client ne peut pas dépasser 200 caractères")}},
	{Name: "email", Rules: []Rule{Email("Adresse e-mail invalide")}},
}

func ClientValues(req dto.CreateClientRequest) map[string]string {
	return map[string]string{"code": req.Code, "name": req.Name, "email": req.Email}
}
