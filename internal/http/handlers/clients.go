package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/middleware"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
	"github.com/hongminglow/erp-portal/internal/storage"
	"github.com/hongminglow/erp-portal/internal/validate"
)

// ClientHandler serves the client list and its create/delete actions.
type ClientHandler struct {
	store storage.ClientStore
	authn *middleware.Authenticator
}

func NewClientHandler(store storage.ClientStore, authn *middleware.Authenticator) *ClientHandler {
	return &ClientHandler{store: store, authn: authn}
}

func (h *ClientHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/clients/search", h.authn.Require(models.AuthenticatedUser, h.handleSearch))
	mux.Handle("POST /api/clients", h.authn.Require(models.VendorOrAdmin, h.handleCreate))
	mux.Handle("DELETE /api/clients/{id}", h.authn.Require(models.AdminOnly, h.handleDelete))
}

func (h *ClientHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req dto.ClientSearchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Requête invalide")
			return
		}
	}
	req.Normalize(dto.ClientSortColumns...)

	items, total, err := h.store.SearchClients(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(r.Context())).Msg("search clients")
		respond.Error(w, http.StatusInternalServerError, "Erreur lors du chargement des clients")
		return
	}
	respond.JSON(w, http.StatusOK, "Clients récupérés", respond.NewPage(items, req.Page, req.PageSize, total))
}

func (h *ClientHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if errs := validate.ClientRules.Validate(validate.ClientValues(req)); errs != nil {
		respond.Error(w, http.StatusBadRequest, errs.First(validate.ClientRules))
		return
	}
	created, err := h.store.CreateClient(r.Context(), models.Client{
		Code:  strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
		City:  strings.TrimSpace(req.City),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "Un client avec ce code existe déjà")
			return
		}
		log.Error().Err(err).Msg("create client")
		respond.Error(w, http.StatusInternalServerError, "Erreur lors de la création du client")
		return
	}
	respond.JSON(w, http.StatusCreated, "Client créé avec succès", created)
}

func (h *ClientHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}
	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Client introuvable")
			return
		}
		log.Error().Err(err).Int64("client_id", id).Msg("delete client")
		respond.Error(w, http.StatusInternalServerError, "Erreur lors de la suppression du client")
		return
	}
	respond.OK(w, http.StatusOK, "Client supprimé avec succès")
}
