package application

import (
	"context"
	"testing"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/domain/oautherr"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const (
	testUserID   = "01HGW2N7EHJVJ4CJ999RRS2E97"
	testVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

func testClient() *domain.OAuthClient {
	return &domain.OAuthClient{
		ID:           "test-client",
		Secret:       "test-secret",
		RedirectURIs: []string{"http://localhost:3000/callback"},
	}
}

func testCreds() domain.ClientCredentials {
	return domain.ClientCredentials{ClientID: "test-client", ClientSecret: "test-secret"}
}

func testAuthCode() *domain.AuthorizationCode {
	return &domain.AuthorizationCode{
		Code:                "valid-code",
		ClientID:            "test-client",
		UserID:              testUserID,
		RedirectURI:         "http://localhost:3000/callback",
		Scope:               "openid profile accounts:read",
		CodeChallenge:       token.ComputeCodeChallenge(testVerifier),
		CodeChallengeMethod: "S256",
		ExpiresAt:           time.Now().Add(5 * time.Minute),
		CreatedAt:           time.Now(),
	}
}

func assertOAuthError(t *testing.T, err error, code oautherr.Code) {
	t.Helper()
	oerr, ok := oautherr.As(err)
	if assert.True(t, ok, "expected an OAuth protocol error, got %v", err) {
		assert.Equal(t, code, oerr.Code)
	}
}

func newTokenService(repo *MockOAuth2Repository, userRepo *MockUserRepository) *TokenService {
	return NewTokenService(repo, userRepo, &staticIssuer{opaque: "new-refresh-token"}, config.NewConfig(), zap.NewNop())
}

func TestTokenService_ExchangeCode(t *testing.T) {
	testUser := &domain.User{Name: "Ana", Email: "ana@example.com"}

	t.Run("success with PKCE", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		userRepo := new(MockUserRepository)

		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)
		repo.On("ConsumeAuthorizationCode", mock.Anything, "valid-code", mock.AnythingOfType("*domain.RefreshToken")).
			Return(testAuthCode(), nil)
		userRepo.On("FindByID", mock.Anything, mock.Anything).Return(testUser, nil)

		service := newTokenService(repo, userRepo)
		resp, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)

		assert.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, 3600, resp.ExpiresIn)
		assert.Equal(t, "access-"+testUserID, resp.AccessToken)
		assert.Equal(t, "new-refresh-token", resp.RefreshToken)
		assert.Equal(t, "id-test-client", resp.IDToken)
		assert.Equal(t, "openid profile accounts:read", resp.Scope)
		repo.AssertExpectations(t)
	})

	t.Run("refresh token persisted with the redemption", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		userRepo := new(MockUserRepository)

		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)

		var persisted *domain.RefreshToken
		repo.On("ConsumeAuthorizationCode", mock.Anything, "valid-code", mock.AnythingOfType("*domain.RefreshToken")).
			Run(func(args mock.Arguments) {
				persisted = args.Get(2).(*domain.RefreshToken)
			}).Return(testAuthCode(), nil)
		userRepo.On("FindByID", mock.Anything, mock.Anything).Return(testUser, nil)

		service := newTokenService(repo, userRepo)
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)

		assert.NoError(t, err)
		assert.Equal(t, "new-refresh-token", persisted.Token)
		assert.Equal(t, "test-client", persisted.ClientID)
		assert.Equal(t, testUserID, persisted.UserID)
		assert.WithinDuration(t, time.Now().Add(domain.DefaultRefreshTokenDuration), persisted.ExpiresAt, 2*time.Second)
	})

	t.Run("missing client credentials", func(t *testing.T) {
		service := newTokenService(new(MockOAuth2Repository), new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), domain.ClientCredentials{}, "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidRequest)
	})

	t.Run("unknown client", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(nil, domain.ErrClientNotFound)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidClient)
	})

	t.Run("wrong client secret", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)

		service := newTokenService(repo, new(MockUserRepository))
		creds := domain.ClientCredentials{ClientID: "test-client", ClientSecret: "wrong"}
		_, err := service.ExchangeCode(context.Background(), creds, "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidClient)
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "ghost-code").Return(nil, domain.ErrCodeNotFound)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "ghost-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("already used code", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		used := testAuthCode()
		used.Used = true
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(used, nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
		repo.AssertNotCalled(t, "ConsumeAuthorizationCode", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired code", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		expired := testAuthCode()
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(expired, nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("code issued to another client", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		foreign := testAuthCode()
		foreign.ClientID = "other-client"
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(foreign, nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("redirect URI mismatch", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/other", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("missing code verifier when challenge stored", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", "")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("wrong code verifier", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", "not-the-right-verifier-at-all-0000000000000")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("no PKCE required when no challenge stored", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		userRepo := new(MockUserRepository)
		plain := testAuthCode()
		plain.CodeChallenge = ""
		plain.CodeChallengeMethod = ""
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(plain, nil)
		repo.On("ConsumeAuthorizationCode", mock.Anything, "valid-code", mock.AnythingOfType("*domain.RefreshToken")).
			Return(plain, nil)
		userRepo.On("FindByID", mock.Anything, mock.Anything).Return(testUser, nil)

		service := newTokenService(repo, userRepo)
		resp, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", "")
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("lost redemption race", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetAuthorizationCode", mock.Anything, "valid-code").Return(testAuthCode(), nil)
		repo.On("ConsumeAuthorizationCode", mock.Anything, "valid-code", mock.AnythingOfType("*domain.RefreshToken")).
			Return(nil, domain.ErrCodeAlreadyUsed)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.ExchangeCode(context.Background(), testCreds(), "valid-code", "http://localhost:3000/callback", testVerifier)
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})
}

func TestTokenService_Refresh(t *testing.T) {
	storedToken := func() *domain.RefreshToken {
		return &domain.RefreshToken{
			Token:     "old-refresh-token",
			ClientID:  "test-client",
			UserID:    testUserID,
			Scope:     "openid profile",
			ExpiresAt: time.Now().Add(24 * time.Hour),
		}
	}

	t.Run("success rotates the token", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetRefreshToken", mock.Anything, "old-refresh-token").Return(storedToken(), nil)

		var replacement *domain.RefreshToken
		repo.On("RotateRefreshToken", mock.Anything, "old-refresh-token", mock.AnythingOfType("*domain.RefreshToken")).
			Run(func(args mock.Arguments) {
				replacement = args.Get(2).(*domain.RefreshToken)
			}).Return(nil)

		service := newTokenService(repo, new(MockUserRepository))
		resp, err := service.Refresh(context.Background(), testCreds(), "old-refresh-token")

		assert.NoError(t, err)
		assert.Equal(t, "new-refresh-token", resp.RefreshToken)
		assert.NotEqual(t, "old-refresh-token", resp.RefreshToken)
		assert.Empty(t, resp.IDToken)
		assert.Equal(t, "openid profile", resp.Scope)
		assert.Equal(t, "new-refresh-token", replacement.Token)
		assert.Equal(t, testUserID, replacement.UserID)
		repo.AssertExpectations(t)
	})

	t.Run("client authentication required", func(t *testing.T) {
		service := newTokenService(new(MockOAuth2Repository), new(MockUserRepository))
		_, err := service.Refresh(context.Background(), domain.ClientCredentials{}, "old-refresh-token")
		assertOAuthError(t, err, oautherr.InvalidRequest)
	})

	t.Run("unknown refresh token", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetRefreshToken", mock.Anything, "ghost").Return(nil, domain.ErrRefreshTokenNotFound)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.Refresh(context.Background(), testCreds(), "ghost")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		expired := storedToken()
		expired.ExpiresAt = time.Now().Add(-time.Hour)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetRefreshToken", mock.Anything, "old-refresh-token").Return(expired, nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.Refresh(context.Background(), testCreds(), "old-refresh-token")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("token issued to another client", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		foreign := storedToken()
		foreign.ClientID = "other-client"
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetRefreshToken", mock.Anything, "old-refresh-token").Return(foreign, nil)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.Refresh(context.Background(), testCreds(), "old-refresh-token")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})

	t.Run("lost rotation race", func(t *testing.T) {
		repo := new(MockOAuth2Repository)
		repo.On("FindClientByID", mock.Anything, "test-client").Return(testClient(), nil)
		repo.On("GetRefreshToken", mock.Anything, "old-refresh-token").Return(storedToken(), nil)
		repo.On("RotateRefreshToken", mock.Anything, "old-refresh-token", mock.AnythingOfType("*domain.RefreshToken")).
			Return(domain.ErrRefreshTokenNotFound)

		service := newTokenService(repo, new(MockUserRepository))
		_, err := service.Refresh(context.Background(), testCreds(), "old-refresh-token")
		assertOAuthError(t, err, oautherr.InvalidGrant)
	})
}
