package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockVerifier is a mock implementation of domain.TokenVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyAccessToken(token string) (*domain.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessClaims), args.Error(1)
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*domain.User), args.Error(1)
}

func validClaims(scope string) *domain.AccessClaims {
	claims := &domain.AccessClaims{Scope: scope, ClientID: "test-client"}
	claims.Subject = "01HGW2N7EHJVJ4CJ999RRS2E97"
	return claims
}

func assertOpaque401(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_token", body["error"])
	assert.Empty(t, body["error_description"], "the 401 must not reveal which check failed")
}

func TestAuthenticator(t *testing.T) {
	next := func(captured *context.Context) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if captured != nil {
				*captured = r.Context()
			}
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid token populates context", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("VerifyAccessToken", "good-token").Return(validClaims("openid accounts:read"), nil)

		var ctx context.Context
		m := NewMiddleware(verifier, new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		m.Authenticator(next(&ctx)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		sub, ok := domain.GetSubject(ctx)
		assert.True(t, ok)
		assert.Equal(t, "01HGW2N7EHJVJ4CJ999RRS2E97", sub)
		scope, _ := domain.GetScope(ctx)
		assert.Equal(t, "openid accounts:read", scope)
		clientID, _ := domain.GetClientID(ctx)
		assert.Equal(t, "test-client", clientID)
	})

	t.Run("missing header", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
		rec := httptest.NewRecorder()
		m.Authenticator(next(nil)).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		m.Authenticator(next(nil)).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})

	t.Run("expired token yields the same opaque 401", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("VerifyAccessToken", "expired").Return(nil, domain.ErrTokenExpired)

		m := NewMiddleware(verifier, new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/api/holdings", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		m.Authenticator(next(nil)).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})
}

func TestRequireScope(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("granted scope passes", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/fdx/v6/accounts", nil)
		req = req.WithContext(domain.WithScope(req.Context(), "openid profile accounts:read"))
		rec := httptest.NewRecorder()
		m.RequireScope("accounts:read")(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing scope is rejected", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/fdx/v6/accounts", nil)
		req = req.WithContext(domain.WithScope(req.Context(), "openid profile"))
		rec := httptest.NewRecorder()
		m.RequireScope("accounts:read")(ok).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})

	t.Run("scope is not matched by prefix", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/fdx/v6/accounts", nil)
		req = req.WithContext(domain.WithScope(req.Context(), "accounts:readwrite"))
		rec := httptest.NewRecorder()
		m.RequireScope("accounts:read")(ok).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	userID := ulid.MustParse("01HGW2N7EHJVJ4CJ999RRS2E97")

	request := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		return req.WithContext(domain.WithSubject(req.Context(), userID.String()))
	}

	t.Run("admin passes", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("FindByID", mock.Anything, userID).Return(&domain.User{ID: userID, Roles: []string{"user", "admin"}}, nil)

		m := NewMiddleware(new(MockVerifier), userRepo, zap.NewNop())
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(ok).ServeHTTP(rec, request())
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("FindByID", mock.Anything, userID).Return(&domain.User{ID: userID, Roles: []string{"user"}}, nil)

		m := NewMiddleware(new(MockVerifier), userRepo, zap.NewNop())
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(ok).ServeHTTP(rec, request())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing subject", func(t *testing.T) {
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
		rec := httptest.NewRecorder()
		m.RequireRole("admin")(ok).ServeHTTP(rec, req)
		assertOpaque401(t, rec)
	})
}

func TestOptionalAuthenticator(t *testing.T) {
	t.Run("anonymous request passes through without subject", func(t *testing.T) {
		var ctx context.Context
		m := NewMiddleware(new(MockVerifier), new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
		rec := httptest.NewRecorder()
		m.OptionalAuthenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx = r.Context()
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		_, ok := domain.GetSubject(ctx)
		assert.False(t, ok)
	})

	t.Run("valid token populates subject", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("VerifyAccessToken", "good-token").Return(validClaims("openid"), nil)

		var ctx context.Context
		m := NewMiddleware(verifier, new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		m.OptionalAuthenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx = r.Context()
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		sub, ok := domain.GetSubject(ctx)
		assert.True(t, ok)
		assert.Equal(t, "01HGW2N7EHJVJ4CJ999RRS2E97", sub)
	})

	t.Run("bad token passes through anonymously", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("VerifyAccessToken", "bad-token").Return(nil, domain.ErrInvalidToken)

		var ctx context.Context
		m := NewMiddleware(verifier, new(MockUserRepository), zap.NewNop())
		req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		m.OptionalAuthenticator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx = r.Context()
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		_, ok := domain.GetSubject(ctx)
		assert.False(t, ok)
	})
}
