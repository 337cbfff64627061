package application

import (
	"context"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// OIDCService implements OpenID Connect metadata operations
type OIDCService struct {
	userRepo domain.UserRepository
	keys     domain.KeyProvider
	cfg      *config.Config
	logger   *zap.Logger
}

// NewOIDCService creates a new OIDCService
func NewOIDCService(userRepo domain.UserRepository, keys domain.KeyProvider, cfg *config.Config, logger *zap.Logger) domain.OIDCService {
	return &OIDCService{
		userRepo: userRepo,
		keys:     keys,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetUserInfo retrieves the standard claims for the given user ID
func (s *OIDCService) GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error) {
	id, err := ulid.Parse(userID)
	if err != nil {
		s.logger.Error("Failed to parse user ID",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domain.ErrUserNotFound
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find user",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	return map[string]interface{}{
		"sub":   user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
	}, nil
}

// GetJWKS returns the public signing keys as a JWKS document
func (s *OIDCService) GetJWKS(ctx context.Context) (map[string]interface{}, error) {
	jwks, err := s.keys.GetJWKS()
	if err != nil {
		s.logger.Error("Failed to export JWKS", zap.Error(err))
		return nil, domain.ErrInvalidKeyConfig
	}
	return jwks, nil
}

// GetOpenIDConfiguration returns the OIDC discovery document
func (s *OIDCService) GetOpenIDConfiguration(ctx context.Context) map[string]interface{} {
	issuer := s.cfg.Issuer

	return map[string]interface{}{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "/oauth/authorize",
		"token_endpoint":                        issuer + "/oauth/token",
		"userinfo_endpoint":                     issuer + "/oauth/userinfo",
		"jwks_uri":                              issuer + "/.well-known/jwks.json",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email", "offline_access", "accounts:read"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post"},
		"code_challenge_methods_supported":      []string{"S256"},
		"claims_supported":                      []string{"sub", "iss", "aud", "email", "name", "scope", "client_id"},
	}
}
