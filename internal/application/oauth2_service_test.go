package application

import (
	"context"
	"testing"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockOAuth2Repository is a mock implementation of domain.OAuth2Repository
type MockOAuth2Repository struct {
	mock.Mock
}

func (m *MockOAuth2Repository) CreateClient(ctx context.Context, client *domain.OAuthClient) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockOAuth2Repository) FindClientByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthClient), args.Error(1)
}

func (m *MockOAuth2Repository) UpdateClient(ctx context.Context, client *domain.OAuthClient) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockOAuth2Repository) DeleteClient(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOAuth2Repository) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.OAuthClient), args.Error(1)
}

func (m *MockOAuth2Repository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockOAuth2Repository) ConsumeAuthorizationCode(ctx context.Context, code string, refresh *domain.RefreshToken) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockOAuth2Repository) GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockOAuth2Repository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockOAuth2Repository) RotateRefreshToken(ctx context.Context, old string, replacement *domain.RefreshToken) error {
	args := m.Called(ctx, old, replacement)
	return args.Error(0)
}

func (m *MockOAuth2Repository) DeleteExpired(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestOAuth2Service_ValidateClient(t *testing.T) {
	tests := []struct {
		name        string
		clientID    string
		redirectURI string
		setupMock   func(*MockOAuth2Repository)
		wantErr     error
	}{
		{
			name:        "success",
			clientID:    "test-client",
			redirectURI: "http://localhost:3000/callback",
			setupMock: func(m *MockOAuth2Repository) {
				m.On("FindClientByID", mock.Anything, "test-client").Return(&domain.OAuthClient{
					ID:           "test-client",
					RedirectURIs: []string{"http://localhost:3000/callback"},
				}, nil)
			},
			wantErr: nil,
		},
		{
			name:        "client not found",
			clientID:    "non-existent",
			redirectURI: "http://localhost:3000/callback",
			setupMock: func(m *MockOAuth2Repository) {
				m.On("FindClientByID", mock.Anything, "non-existent").Return(nil, domain.ErrClientNotFound)
			},
			wantErr: domain.ErrClientNotFound,
		},
		{
			name:        "redirect URI not registered",
			clientID:    "test-client",
			redirectURI: "http://evil.example/callback",
			setupMock: func(m *MockOAuth2Repository) {
				m.On("FindClientByID", mock.Anything, "test-client").Return(&domain.OAuthClient{
					ID:           "test-client",
					RedirectURIs: []string{"http://localhost:3000/callback"},
				}, nil)
			},
			wantErr: domain.ErrInvalidRedirectURI,
		},
		{
			name:        "prefix of registered URI is rejected",
			clientID:    "test-client",
			redirectURI: "http://localhost:3000/callback/extra",
			setupMock: func(m *MockOAuth2Repository) {
				m.On("FindClientByID", mock.Anything, "test-client").Return(&domain.OAuthClient{
					ID:           "test-client",
					RedirectURIs: []string{"http://localhost:3000/callback"},
				}, nil)
			},
			wantErr: domain.ErrInvalidRedirectURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOAuth2Repository)
			tt.setupMock(repo)

			service := NewOAuth2Service(repo, &staticIssuer{}, config.NewConfig(), zap.NewNop())
			client, err := service.ValidateClient(context.Background(), tt.clientID, tt.redirectURI)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.clientID, client.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

// staticIssuer satisfies domain.TokenIssuer with fixed values
type staticIssuer struct {
	opaque string
}

func (s *staticIssuer) CreateAccessToken(userID, clientID, scope string, lifetime time.Duration) (string, error) {
	return "access-" + userID, nil
}

func (s *staticIssuer) CreateIDToken(user *domain.User, clientID string) (string, error) {
	return "id-" + clientID, nil
}

func (s *staticIssuer) NewOpaqueToken() (string, error) {
	if s.opaque != "" {
		return s.opaque, nil
	}
	return "opaque-token-value", nil
}

func TestOAuth2Service_Authorize(t *testing.T) {
	repo := new(MockOAuth2Repository)
	repo.On("FindClientByID", mock.Anything, "test-client").Return(&domain.OAuthClient{
		ID:           "test-client",
		RedirectURIs: []string{"http://localhost:3000/callback"},
	}, nil)

	var stored *domain.AuthorizationCode
	repo.On("CreateAuthorizationCode", mock.Anything, mock.AnythingOfType("*domain.AuthorizationCode")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*domain.AuthorizationCode)
		}).Return(nil)

	cfg := config.NewConfig()
	service := NewOAuth2Service(repo, &staticIssuer{opaque: "the-code"}, cfg, zap.NewNop())

	req := &domain.AuthorizeRequest{
		ResponseType:        "code",
		ClientID:            "test-client",
		RedirectURI:         "http://localhost:3000/callback",
		Scope:               "openid profile",
		State:               "xyz",
		CodeChallenge:       "challenge-value",
		CodeChallengeMethod: "S256",
	}

	code, err := service.Authorize(context.Background(), req, "01HGW2N7EHJVJ4CJ999RRS2E97")
	assert.NoError(t, err)
	assert.Equal(t, "the-code", code)

	assert.NotNil(t, stored)
	assert.Equal(t, "test-client", stored.ClientID)
	assert.Equal(t, "01HGW2N7EHJVJ4CJ999RRS2E97", stored.UserID)
	assert.Equal(t, "http://localhost:3000/callback", stored.RedirectURI)
	assert.Equal(t, "challenge-value", stored.CodeChallenge)
	assert.False(t, stored.Used)
	assert.WithinDuration(t, time.Now().Add(cfg.CodeDuration), stored.ExpiresAt, 2*time.Second)

	repo.AssertExpectations(t)
}

func TestOAuth2Service_AuthorizeUnknownClient(t *testing.T) {
	repo := new(MockOAuth2Repository)
	repo.On("FindClientByID", mock.Anything, "ghost").Return(nil, domain.ErrClientNotFound)

	service := NewOAuth2Service(repo, &staticIssuer{}, config.NewConfig(), zap.NewNop())

	_, err := service.Authorize(context.Background(), &domain.AuthorizeRequest{
		ClientID:    "ghost",
		RedirectURI: "http://localhost:3000/callback",
	}, "01HGW2N7EHJVJ4CJ999RRS2E97")

	assert.ErrorIs(t, err, domain.ErrClientNotFound)
	repo.AssertNotCalled(t, "CreateAuthorizationCode", mock.Anything, mock.Anything)
}
