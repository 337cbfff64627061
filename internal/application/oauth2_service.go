package application

import (
	"context"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OAuth2Service implements the authorization endpoint logic
type OAuth2Service struct {
	oauthRepo domain.OAuth2Repository
	issuer    domain.TokenIssuer
	cfg       *config.Config
	logger    *zap.Logger
}

// NewOAuth2Service creates a new OAuth2Service
func NewOAuth2Service(oauthRepo domain.OAuth2Repository, issuer domain.TokenIssuer, cfg *config.Config, logger *zap.Logger) *OAuth2Service {
	return &OAuth2Service{
		oauthRepo: oauthRepo,
		issuer:    issuer,
		cfg:       cfg,
		logger:    logger,
	}
}

// ValidateClient validates that the client exists and the redirect URI is
// in its registered set
func (s *OAuth2Service) ValidateClient(ctx context.Context, clientID, redirectURI string) (*domain.OAuthClient, error) {
	s.logger.Debug("Validating client",
		zap.String("client_id", clientID),
		zap.String("redirect_uri", redirectURI))

	client, err := s.oauthRepo.FindClientByID(ctx, clientID)
	if err != nil {
		s.logger.Error("Failed to find client",
			zap.String("client_id", clientID),
			zap.Error(err))
		return nil, domain.ErrClientNotFound
	}

	if !client.AllowsRedirectURI(redirectURI) {
		s.logger.Error("Redirect URI not registered for client",
			zap.String("client_id", clientID),
			zap.String("redirect_uri", redirectURI))
		return nil, domain.ErrInvalidRedirectURI
	}

	return client, nil
}

// Authorize validates the request and issues a one-time authorization code
// bound to the client, user, redirect URI, scope and PKCE challenge
func (s *OAuth2Service) Authorize(ctx context.Context, req *domain.AuthorizeRequest, userID string) (string, error) {
	if _, err := s.ValidateClient(ctx, req.ClientID, req.RedirectURI); err != nil {
		return "", err
	}

	code, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return "", domain.ErrInternal
	}

	now := time.Now()
	authCode := &domain.AuthorizationCode{
		Code:                code,
		ClientID:            req.ClientID,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		ExpiresAt:           now.Add(s.cfg.CodeDuration),
		CreatedAt:           now,
	}

	if err := s.oauthRepo.CreateAuthorizationCode(ctx, authCode); err != nil {
		s.logger.Error("Failed to store authorization code", zap.Error(err))
		return "", domain.ErrInternal
	}

	s.logger.Debug("Issued authorization code",
		zap.String("client_id", req.ClientID),
		zap.String("user_id", userID),
		zap.String("scope", req.Scope))

	return code, nil
}
