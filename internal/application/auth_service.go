package application

import (
	"context"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/password"
	"go.uber.org/zap"
)

// firstPartyClientID marks tokens issued through the resident login flow
// rather than a registered third-party client
const firstPartyClientID = "web"

// firstPartyScope is the grant given to resident sessions
const firstPartyScope = "openid profile email accounts:read"

// AuthService authenticates resident users for first-party flows
type AuthService struct {
	userRepo domain.UserRepository
	issuer   domain.TokenIssuer
	cfg      *config.Config
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, issuer domain.TokenIssuer, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, name, email, plaintext string) (*domain.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	hashed, err := password.HashPassword(plaintext)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}

	user := domain.NewUser(name, email, hashed)
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies credentials and returns the user with a first-party
// access token; the authorize endpoint resolves the resident user from it
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*domain.User, *domain.TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		// Same failure for unknown email and bad password
		return nil, nil, domain.ErrInvalidCredentials
	}

	if err := password.CheckPassword(plaintext, user.Password); err != nil {
		s.logger.Warn("Login failed", zap.String("email", email))
		return nil, nil, domain.ErrInvalidCredentials
	}

	accessToken, err := s.issuer.CreateAccessToken(user.ID.String(), firstPartyClientID, firstPartyScope, s.cfg.AccessDuration)
	if err != nil {
		return nil, nil, domain.ErrInternal
	}

	return user, &domain.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.AccessDuration.Seconds()),
		Scope:       firstPartyScope,
	}, nil
}
