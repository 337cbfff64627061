package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// User represents a collector account
type User struct {
	ID        ulid.ULID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"` // bcrypt hash, never serialized
	Roles     []string   `json:"roles"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// NewUser creates a new user with the default role
func NewUser(name, email, hashedPassword string) *User {
	now := time.Now()
	return &User{
		ID:        ulid.Make(),
		Name:      name,
		Email:     email,
		Password:  hashedPassword,
		Roles:     []string{"user"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasRole checks if the user has a specific role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthService authenticates resident users for first-party flows
type AuthService interface {
	// Register creates a new user account
	Register(ctx context.Context, name, email, password string) (*User, error)

	// Login verifies credentials and returns the user with a first-party token pair
	Login(ctx context.Context, email, password string) (*User, *TokenResponse, error)
}

// UserService defines user read operations consumed by resource endpoints
type UserService interface {
	GetUser(ctx context.Context, id ulid.ULID) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id ulid.ULID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if a user exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List lists users with pagination
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
