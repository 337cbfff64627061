package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/domain/oautherr"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/token"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"go.uber.org/zap"
)

// OAuth2Handler serves the authorization and token endpoints
type OAuth2Handler struct {
	oauth2Service domain.OAuth2Service
	tokenService  domain.TokenService
	logger        *zap.Logger
}

// NewOAuth2Handler creates a new OAuth2Handler
func NewOAuth2Handler(oauth2Service domain.OAuth2Service, tokenService domain.TokenService, logger *zap.Logger) *OAuth2Handler {
	return &OAuth2Handler{
		oauth2Service: oauth2Service,
		tokenService:  tokenService,
		logger:        logger,
	}
}

// Authorize godoc
// @Summary OAuth2 authorization endpoint
// @Description Validates the authorization request and redirects back to the
// @Description client with a one-time authorization code. Unauthenticated
// @Description requests are redirected to the login page.
// @Tags oauth2
// @Param response_type query string true "Must be 'code'"
// @Param client_id query string true "Client identifier"
// @Param redirect_uri query string true "Registered redirect URI"
// @Param scope query string true "Requested scope"
// @Param state query string false "Opaque client state"
// @Param code_challenge query string false "PKCE code challenge"
// @Param code_challenge_method query string false "PKCE method, only S256"
// @Success 302
// @Failure 400 {object} httperrors.OAuthErrorResponse
// @Router /oauth/authorize [get]
func (h *OAuth2Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &domain.AuthorizeRequest{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}

	if oerr := validateAuthorizeRequest(req); oerr != nil {
		httperrors.RespondWithOAuthError(w, oerr)
		return
	}

	// Client and redirect URI must check out before anything is sent to the
	// redirect URI, including error redirects.
	if _, err := h.oauth2Service.ValidateClient(r.Context(), req.ClientID, req.RedirectURI); err != nil {
		switch err {
		case domain.ErrClientNotFound:
			httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.InvalidRequest, "Unknown client"))
		case domain.ErrInvalidRedirectURI:
			httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.InvalidRequest, "Redirect URI is not registered for this client"))
		default:
			h.logger.Error("Failed to validate client", zap.Error(err))
			httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.ServerError, "Failed to validate client"))
		}
		return
	}

	userID, ok := domain.GetSubject(r.Context())
	if !ok || userID == "" {
		loginURL := "/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	code, err := h.oauth2Service.Authorize(r.Context(), req, userID)
	if err != nil {
		h.logger.Error("Failed to issue authorization code", zap.Error(err))
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.ServerError, "Failed to issue authorization code"))
		return
	}

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.InvalidRequest, "Malformed redirect URI"))
		return
	}
	params := redirect.Query()
	params.Set("code", code)
	if req.State != "" {
		params.Set("state", req.State)
	}
	redirect.RawQuery = params.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

// validateAuthorizeRequest checks the request parameters that can be
// rejected before touching storage
func validateAuthorizeRequest(req *domain.AuthorizeRequest) *oautherr.Error {
	if req.ClientID == "" {
		return oautherr.New(oautherr.InvalidRequest, "Missing client_id")
	}
	if req.RedirectURI == "" {
		return oautherr.New(oautherr.InvalidRequest, "Missing redirect_uri")
	}
	if req.ResponseType != "code" {
		return oautherr.New(oautherr.InvalidRequest, "Unsupported response_type, only 'code' is supported")
	}
	if req.Scope == "" {
		return oautherr.New(oautherr.InvalidRequest, "Missing scope")
	}
	if req.CodeChallenge != "" {
		if req.CodeChallengeMethod == "" {
			req.CodeChallengeMethod = token.CodeChallengeMethodS256
		}
		if req.CodeChallengeMethod != token.CodeChallengeMethodS256 {
			return oautherr.New(oautherr.InvalidRequest, "Unsupported code_challenge_method, only S256 is supported")
		}
	}
	return nil
}

// Token godoc
// @Summary OAuth2 token endpoint
// @Description Redeems an authorization code or rotates a refresh token.
// @Description Client credentials are taken from HTTP Basic auth or the form body.
// @Tags oauth2
// @Accept x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "authorization_code or refresh_token"
// @Success 200 {object} domain.TokenResponse
// @Failure 400 {object} httperrors.OAuthErrorResponse
// @Failure 401 {object} httperrors.OAuthErrorResponse
// @Router /oauth/token [post]
func (h *OAuth2Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.InvalidRequest, "Malformed form body"))
		return
	}

	req := parseTokenRequest(r)
	creds := domain.ClientCredentials{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	}

	var (
		resp *domain.TokenResponse
		err  error
	)
	switch req.GrantType {
	case "authorization_code":
		resp, err = h.tokenService.ExchangeCode(r.Context(), creds, req.Code, req.RedirectURI, req.CodeVerifier)
	case "refresh_token":
		resp, err = h.tokenService.Refresh(r.Context(), creds, req.RefreshToken)
	case "":
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.InvalidRequest, "Missing grant_type"))
		return
	default:
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.UnsupportedGrantType, "Unsupported grant type: "+req.GrantType))
		return
	}

	if err != nil {
		if oerr, ok := oautherr.As(err); ok {
			httperrors.RespondWithOAuthError(w, oerr)
			return
		}
		h.logger.Error("Token request failed", zap.Error(err))
		httperrors.RespondWithOAuthError(w, oautherr.New(oautherr.ServerError, "Failed to process token request"))
		return
	}

	// RFC 6749 section 5.1: token responses must not be cached
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode token response", zap.Error(err))
	}
}

// parseTokenRequest builds a TokenRequest from the form body. HTTP Basic
// credentials take precedence over form fields when both are present.
func parseTokenRequest(r *http.Request) *TokenRequest {
	req := &TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
	}
	if id, secret, ok := r.BasicAuth(); ok {
		req.ClientID = id
		req.ClientSecret = secret
	}
	return req
}
