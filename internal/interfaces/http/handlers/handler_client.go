package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// ClientHandler serves OAuth client administration. All routes require the
// admin role.
type ClientHandler struct {
	oauthRepo domain.OAuth2Repository
	logger    *zap.Logger
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(oauthRepo domain.OAuth2Repository, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		oauthRepo: oauthRepo,
		logger:    logger,
	}
}

func validateClientRequest(req *ClientRequest) httperrors.ValidationErrors {
	var validation httperrors.ValidationErrors
	if strings.TrimSpace(req.ID) == "" {
		validation.Add("id", "Client ID is required")
	}
	if strings.TrimSpace(req.Secret) == "" {
		validation.Add("secret", "Client secret is required")
	}
	if len(req.RedirectURIs) == 0 {
		validation.Add("redirect_uris", "At least one redirect URI is required")
	}
	for _, raw := range req.RedirectURIs {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Fragment != "" {
			validation.Add("redirect_uris", "Redirect URI must be absolute and fragment-free: "+raw)
		}
	}
	return validation
}

// CreateClient godoc
// @Summary Register an OAuth client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ClientRequest true "Client data"
// @Success 201 {object} domain.OAuthClient
// @Failure 400 {object} httperrors.ErrorResponse
// @Failure 409 {object} httperrors.ErrorResponse
// @Router /api/oauth/clients [post]
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	if validation := validateClientRequest(&req); validation.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid client data", validation, http.StatusBadRequest)
		return
	}

	now := time.Now()
	client := &domain.OAuthClient{
		ID:           req.ID,
		Secret:       req.Secret,
		Name:         req.Name,
		RedirectURIs: req.RedirectURIs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.oauthRepo.CreateClient(r.Context(), client); err != nil {
		if errors.Is(err, domain.ErrClientAlreadyExists) {
			httperrors.RespondWithError(w, httperrors.ErrCodeConflict, "Client ID already registered", nil, http.StatusConflict)
			return
		}
		h.logger.Error("Failed to create client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to create client", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(client)
}

// GetClient godoc
// @Summary Get an OAuth client
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} domain.OAuthClient
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/oauth/clients/{id} [get]
func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	client, err := h.oauthRepo.FindClientByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load client", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(client)
}

// ListClients godoc
// @Summary List OAuth clients
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.OAuthClient
// @Router /api/oauth/clients [get]
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.oauthRepo.ListClients(r.Context())
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to list clients", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(clients)
}

// UpdateClient godoc
// @Summary Update an OAuth client
// @Tags clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param request body ClientRequest true "Client data"
// @Success 200 {object} domain.OAuthClient
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/oauth/clients/{id} [put]
func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}
	req.ID = id

	if validation := validateClientRequest(&req); validation.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid client data", validation, http.StatusBadRequest)
		return
	}

	existing, err := h.oauthRepo.FindClientByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load client", nil, http.StatusInternalServerError)
		return
	}

	existing.Secret = req.Secret
	existing.Name = req.Name
	existing.RedirectURIs = req.RedirectURIs
	existing.UpdatedAt = time.Now()

	if err := h.oauthRepo.UpdateClient(r.Context(), existing); err != nil {
		h.logger.Error("Failed to update client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to update client", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(existing)
}

// DeleteClient godoc
// @Summary Delete an OAuth client
// @Tags clients
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 204
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/oauth/clients/{id} [delete]
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.oauthRepo.DeleteClient(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "Client not found", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to delete client", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to delete client", nil, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
