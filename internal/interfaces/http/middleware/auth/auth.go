package auth

import (
	"net/http"
	"strings"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	httperrors "github.com/ipede/metals-portfolio-service/internal/interfaces/http/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Middleware authenticates bearer access tokens on resource endpoints.
// Every verification failure yields the same opaque 401 so callers cannot
// probe which check failed.
type Middleware struct {
	verifier domain.TokenVerifier
	userRepo domain.UserRepository
	logger   *zap.Logger
}

// NewMiddleware creates an auth middleware backed by the token verifier
func NewMiddleware(verifier domain.TokenVerifier, userRepo domain.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{verifier: verifier, userRepo: userRepo, logger: logger}
}

// Authenticator verifies the bearer token and stores subject, scope and
// client id in the request context
func (m *Middleware) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r)
		if tokenString == "" {
			httperrors.RespondUnauthorized(w)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(tokenString)
		if err != nil {
			m.logger.Debug("Bearer token rejected", zap.Error(err))
			httperrors.RespondUnauthorized(w)
			return
		}

		ctx := domain.WithSubject(r.Context(), claims.Subject)
		ctx = domain.WithScope(ctx, claims.Scope)
		ctx = domain.WithClientID(ctx, claims.ClientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticator populates the context from a bearer token when one
// is present and valid, and passes the request through either way. The
// authorization endpoint uses this to decide between issuing a code and
// redirecting to login.
func (m *Middleware) OptionalAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r)
		if tokenString != "" {
			if claims, err := m.verifier.VerifyAccessToken(tokenString); err == nil {
				ctx := domain.WithSubject(r.Context(), claims.Subject)
				ctx = domain.WithScope(ctx, claims.Scope)
				ctx = domain.WithClientID(ctx, claims.ClientID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireScope rejects requests whose granted scope does not include the
// required one
func (m *Middleware) RequireScope(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := domain.GetScope(r.Context())
			if !ok || !hasScope(scope, required) {
				httperrors.RespondUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose subject does not carry the required
// role. Roles live on the user record, not in the token, so a revoked role
// takes effect without waiting for token expiry.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := domain.GetSubject(r.Context())
			if !ok {
				httperrors.RespondUnauthorized(w)
				return
			}

			userID, err := ulid.Parse(sub)
			if err != nil {
				httperrors.RespondUnauthorized(w)
				return
			}

			user, err := m.userRepo.FindByID(r.Context(), userID)
			if err != nil {
				m.logger.Debug("Role check failed to load user", zap.String("user_id", sub), zap.Error(err))
				httperrors.RespondUnauthorized(w)
				return
			}

			if !user.HasRole(role) {
				httperrors.RespondWithError(w, httperrors.ErrCodeAuthentication, "Insufficient permissions", nil, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithRoles(r.Context(), user.Roles)))
		})
	}
}

// extractBearer returns the token from an "Authorization: Bearer x" header
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// hasScope checks a space-delimited scope string for one scope value
func hasScope(granted, required string) bool {
	for _, s := range strings.Fields(granted) {
		if s == required {
			return true
		}
	}
	return false
}
