package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// UserHandler serves user read endpoints
type UserHandler struct {
	userService domain.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService domain.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetUser godoc
// @Summary Get a user
// @Description Users can read their own record, admins can read any
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} domain.User
// @Failure 404 {object} httperrors.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "User not found", nil, http.StatusNotFound)
		return
	}

	// Non-admins can only read themselves
	sub, _ := domain.GetSubject(r.Context())
	if sub != id.String() {
		roles, _ := domain.GetRoles(r.Context())
		admin := false
		for _, role := range roles {
			if role == "admin" {
				admin = true
			}
		}
		if !admin {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "User not found", nil, http.StatusNotFound)
			return
		}
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httperrors.RespondWithError(w, httperrors.ErrCodeNotFound, "User not found", nil, http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to load user", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to load user", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.User
// @Router /api/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.userService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to list users", nil, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}
