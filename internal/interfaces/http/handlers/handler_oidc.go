package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// OIDCHandler serves the OpenID Connect metadata and userinfo endpoints
type OIDCHandler struct {
	oidcService domain.OIDCService
	logger      *zap.Logger
}

// NewOIDCHandler creates a new OIDCHandler
func NewOIDCHandler(oidcService domain.OIDCService, logger *zap.Logger) *OIDCHandler {
	return &OIDCHandler{
		oidcService: oidcService,
		logger:      logger,
	}
}

// OpenIDConfiguration godoc
// @Summary OIDC discovery document
// @Tags oidc
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /.well-known/openid-configuration [get]
func (h *OIDCHandler) OpenIDConfiguration(w http.ResponseWriter, r *http.Request) {
	config := h.oidcService.GetOpenIDConfiguration(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		h.logger.Error("Failed to encode discovery document", zap.Error(err))
	}
}

// JWKS godoc
// @Summary Public signing keys
// @Tags oidc
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /.well-known/jwks.json [get]
func (h *OIDCHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	jwks, err := h.oidcService.GetJWKS(r.Context())
	if err != nil {
		h.logger.Error("Failed to build JWKS", zap.Error(err))
		httperrors.RespondWithError(w, httperrors.ErrCodeInternal, "Failed to build JWKS", nil, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(jwks); err != nil {
		h.logger.Error("Failed to encode JWKS", zap.Error(err))
	}
}

// UserInfo godoc
// @Summary OIDC userinfo endpoint
// @Tags oidc
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} httperrors.OAuthErrorResponse
// @Router /oauth/userinfo [get]
func (h *OIDCHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		httperrors.RespondUnauthorized(w)
		return
	}

	claims, err := h.oidcService.GetUserInfo(r.Context(), userID)
	if err != nil {
		// The token verified but its subject no longer resolves
		h.logger.Warn("Userinfo subject not found", zap.String("user_id", userID), zap.Error(err))
		httperrors.RespondUnauthorized(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(claims); err != nil {
		h.logger.Error("Failed to encode userinfo", zap.Error(err))
	}
}
