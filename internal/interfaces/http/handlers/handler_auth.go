package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// AuthHandler serves first-party registration and login
type AuthHandler struct {
	authService domain.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService domain.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary Register a new collector account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} domain.User
// @Failure 400 {object} httperrors.ErrorResponse
// @Failure 409 {object} httperrors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	var validation httperrors.ValidationErrors
	if strings.TrimSpace(req.Name) == "" {
		validation.Add("name", "Name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		validation.Add("email", "Email is required")
	}
	if len(req.Password) < 8 {
		validation.Add("password", "Password must be at least 8 characters")
	}
	if validation.HasErrors() {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid registration data", validation, http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			httperrors.RespondWithError(w, httperrors.ErrCodeConflict, "Email already registered", nil, http.StatusConflict)
			return
		}
		h.logger.Error("Failed to register user", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to register user", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// Login godoc
// @Summary Log in with email and password
// @Description Verifies credentials and returns a first-party token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} domain.TokenResponse
// @Failure 401 {object} httperrors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeValidation, "Invalid request body", nil, http.StatusBadRequest)
		return
	}

	_, tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			httperrors.RespondWithError(w, httperrors.ErrCodeAuthentication, "Invalid email or password", nil, http.StatusUnauthorized)
			return
		}
		h.logger.Error("Failed to log in user", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to log in", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(tokens)
}
