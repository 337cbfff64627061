package application

import (
	"context"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// UserServiceImpl implements domain.UserService
type UserServiceImpl struct {
	userRepo domain.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo domain.UserRepository, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUser retrieves a user by ID
func (s *UserServiceImpl) GetUser(ctx context.Context, id ulid.ULID) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers lists users with pagination
func (s *UserServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, limit, offset)
}
