package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/domain/oautherr"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/token"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// TokenService implements the token endpoint grant handlers. Validation
// failures surface as *oautherr.Error values carrying the RFC 6749 code.
type TokenService struct {
	oauthRepo domain.OAuth2Repository
	userRepo  domain.UserRepository
	issuer    domain.TokenIssuer
	cfg       *config.Config
	logger    *zap.Logger
}

// NewTokenService creates a new TokenService
func NewTokenService(
	oauthRepo domain.OAuth2Repository,
	userRepo domain.UserRepository,
	issuer domain.TokenIssuer,
	cfg *config.Config,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		oauthRepo: oauthRepo,
		userRepo:  userRepo,
		issuer:    issuer,
		cfg:       cfg,
		logger:    logger,
	}
}

// authenticateClient resolves and authenticates the presenting client
func (s *TokenService) authenticateClient(ctx context.Context, creds domain.ClientCredentials) (*domain.OAuthClient, error) {
	if creds.ClientID == "" {
		return nil, oautherr.New(oautherr.InvalidRequest, "Missing client credentials")
	}

	client, err := s.oauthRepo.FindClientByID(ctx, creds.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, oautherr.New(oautherr.InvalidClient, "Unknown client")
		}
		s.logger.Error("Failed to load client", zap.String("client_id", creds.ClientID), zap.Error(err))
		return nil, oautherr.New(oautherr.ServerError, "Failed to load client")
	}

	if subtle.ConstantTimeCompare([]byte(client.Secret), []byte(creds.ClientSecret)) != 1 {
		s.logger.Warn("Client secret mismatch", zap.String("client_id", creds.ClientID))
		return nil, oautherr.New(oautherr.InvalidClient, "Invalid client credentials")
	}

	return client, nil
}

// ExchangeCode redeems an authorization code for an access/ID/refresh
// token triple. The code is marked used atomically with persisting the new
// refresh token, so a replayed exchange cannot yield a second token set.
func (s *TokenService) ExchangeCode(ctx context.Context, creds domain.ClientCredentials, code, redirectURI, codeVerifier string) (*domain.TokenResponse, error) {
	client, err := s.authenticateClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	if code == "" {
		return nil, oautherr.New(oautherr.InvalidRequest, "Missing authorization code")
	}
	if redirectURI == "" {
		return nil, oautherr.New(oautherr.InvalidRequest, "Missing redirect URI")
	}

	authCode, err := s.oauthRepo.GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, oautherr.New(oautherr.InvalidGrant, "Invalid authorization code")
		}
		s.logger.Error("Failed to load authorization code", zap.Error(err))
		return nil, oautherr.New(oautherr.ServerError, "Failed to load authorization code")
	}

	switch {
	case authCode.Used:
		s.logger.Warn("Authorization code replay detected",
			zap.String("client_id", client.ID))
		return nil, oautherr.New(oautherr.InvalidGrant, "Authorization code already used")
	case time.Now().After(authCode.ExpiresAt):
		return nil, oautherr.New(oautherr.InvalidGrant, "Authorization code expired")
	case authCode.ClientID != client.ID:
		return nil, oautherr.New(oautherr.InvalidGrant, "Authorization code was issued to another client")
	case authCode.RedirectURI != redirectURI:
		return nil, oautherr.New(oautherr.InvalidGrant, "Redirect URI mismatch")
	}

	if authCode.CodeChallenge != "" {
		if codeVerifier == "" {
			return nil, oautherr.New(oautherr.InvalidGrant, "Code verifier required")
		}
		if !token.VerifyCodeChallenge(codeVerifier, authCode.CodeChallenge, authCode.CodeChallengeMethod) {
			return nil, oautherr.New(oautherr.InvalidGrant, "Code verifier mismatch")
		}
	}

	refreshValue, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return nil, oautherr.New(oautherr.ServerError, "Failed to generate refresh token")
	}

	now := time.Now()
	refresh := &domain.RefreshToken{
		Token:     refreshValue,
		ClientID:  client.ID,
		UserID:    authCode.UserID,
		Scope:     authCode.Scope,
		ExpiresAt: now.Add(s.cfg.RefreshDuration),
		CreatedAt: now,
	}

	// Check-and-mark plus refresh persistence in one transaction; of two
	// concurrent redemptions exactly one passes.
	if _, err := s.oauthRepo.ConsumeAuthorizationCode(ctx, code, refresh); err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeAlreadyUsed):
			return nil, oautherr.New(oautherr.InvalidGrant, "Authorization code already used")
		case errors.Is(err, domain.ErrCodeNotFound):
			return nil, oautherr.New(oautherr.InvalidGrant, "Invalid authorization code")
		default:
			s.logger.Error("Failed to consume authorization code", zap.Error(err))
			return nil, oautherr.New(oautherr.ServerError, "Failed to redeem authorization code")
		}
	}

	accessToken, err := s.issuer.CreateAccessToken(authCode.UserID, client.ID, authCode.Scope, s.cfg.AccessDuration)
	if err != nil {
		return nil, oautherr.New(oautherr.ServerError, "Failed to issue access token")
	}

	idToken := ""
	if userID, parseErr := ulid.Parse(authCode.UserID); parseErr == nil {
		user, userErr := s.userRepo.FindByID(ctx, userID)
		if userErr != nil {
			s.logger.Error("Failed to load user for ID token",
				zap.String("user_id", authCode.UserID),
				zap.Error(userErr))
			return nil, oautherr.New(oautherr.ServerError, "Failed to issue ID token")
		}
		idToken, err = s.issuer.CreateIDToken(user, client.ID)
		if err != nil {
			return nil, oautherr.New(oautherr.ServerError, "Failed to issue ID token")
		}
	}

	return &domain.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessDuration.Seconds()),
		RefreshToken: refreshValue,
		IDToken:      idToken,
		Scope:        authCode.Scope,
	}, nil
}

// Refresh rotates a refresh token and issues a new access token. The old
// token is deleted and the replacement inserted in the same transaction.
// Client authentication is required on this grant: a stolen refresh token
// is useless without the client secret.
func (s *TokenService) Refresh(ctx context.Context, creds domain.ClientCredentials, refreshToken string) (*domain.TokenResponse, error) {
	client, err := s.authenticateClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	if refreshToken == "" {
		return nil, oautherr.New(oautherr.InvalidRequest, "Missing refresh token")
	}

	stored, err := s.oauthRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return nil, oautherr.New(oautherr.InvalidGrant, "Invalid refresh token")
		}
		s.logger.Error("Failed to load refresh token", zap.Error(err))
		return nil, oautherr.New(oautherr.ServerError, "Failed to load refresh token")
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, oautherr.New(oautherr.InvalidGrant, "Refresh token expired")
	}
	if stored.ClientID != client.ID {
		return nil, oautherr.New(oautherr.InvalidGrant, "Refresh token was issued to another client")
	}

	replacementValue, err := s.issuer.NewOpaqueToken()
	if err != nil {
		return nil, oautherr.New(oautherr.ServerError, "Failed to generate refresh token")
	}

	now := time.Now()
	replacement := &domain.RefreshToken{
		Token:     replacementValue,
		ClientID:  stored.ClientID,
		UserID:    stored.UserID,
		Scope:     stored.Scope,
		ExpiresAt: now.Add(s.cfg.RefreshDuration),
		CreatedAt: now,
	}

	if err := s.oauthRepo.RotateRefreshToken(ctx, refreshToken, replacement); err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			// Lost a concurrent rotation race
			return nil, oautherr.New(oautherr.InvalidGrant, "Invalid refresh token")
		}
		s.logger.Error("Failed to rotate refresh token", zap.Error(err))
		return nil, oautherr.New(oautherr.ServerError, "Failed to rotate refresh token")
	}

	accessToken, err := s.issuer.CreateAccessToken(stored.UserID, stored.ClientID, stored.Scope, s.cfg.AccessDuration)
	if err != nil {
		return nil, oautherr.New(oautherr.ServerError, "Failed to issue access token")
	}

	// No ID token on refresh
	return &domain.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessDuration.Seconds()),
		RefreshToken: replacementValue,
		Scope:        stored.Scope,
	}, nil
}
