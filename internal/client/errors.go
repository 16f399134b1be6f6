package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hongminglow/erp-portal/internal/validate"
)

var (
	// ErrMalformedEnvelope means the body was not a valid response envelope.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	// ErrMissingData means success was true but the expected data was absent.
	ErrMissingData = errors.New("response envelope has no data")
)

// APIError is a failed call: a non-2xx status, or an envelope with success == false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Les données envoyées sont invalides.",
	http.StatusUnauthorized:        "Votre session a expiré. Veuillez vous reconnecter.",
	http.StatusForbidden:           "Vous n'avez pas les droits nécessaires pour cette action.",
	http.StatusNotFound:            "La ressource demandée est introuvable.",
	http.StatusConflict:            "Cet élément existe déjà ou a été modifié entre-temps.",
	http.StatusUnprocessableEntity: "Les données envoyées sont invalides.",
	http.StatusTooManyRequests:     "Trop de tentatives. Veuillez patienter avant de réessayer.",
}

// UserMessage maps any error returned by this package to one user-facing sentence.
// A server-provided envelope message wins over the generic status text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verrs validate.Errors
	if errors.As(err, &verrs) {
		for _, msg := range verrs {
			return msg
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if msg, ok := statusMessages[apiErr.Status]; ok {
			return msg
		}
		if apiErr.Status >= 500 {
			return "Erreur du serveur. Veuillez réessayer plus tard."
		}
		return fmt.Sprintf("Erreur inattendue (code %d).", apiErr.Status)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Requête annulée."
	case errors.Is(err, context.DeadlineExceeded):
		return "Le serveur met trop de temps à répondre."
	case errors.Is(err, ErrMalformedEnvelope), errors.Is(err, ErrMissingData):
		return "Réponse du serveur invalide."
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "Impossible de contacter le serveur. Vérifiez votre connexion."
	}
	return "Une erreur inattendue est survenue."
}
