package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/keys"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// opaqueTokenBytes is the entropy of refresh tokens and authorization codes
const opaqueTokenBytes = 32

// Issuer mints the signed and opaque token artifacts of the OAuth flow
type Issuer struct {
	keys   *keys.Provider
	cfg    *config.Config
	logger *zap.Logger
}

// NewIssuer creates a token issuer backed by the process key provider
func NewIssuer(keys *keys.Provider, cfg *config.Config, logger *zap.Logger) *Issuer {
	return &Issuer{
		keys:   keys,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAccessToken mints a signed access token for the user/client/scope
// triple. A non-positive lifetime falls back to the configured default.
func (i *Issuer) CreateAccessToken(userID, clientID, scope string, lifetime time.Duration) (string, error) {
	if lifetime <= 0 {
		lifetime = i.cfg.AccessDuration
	}

	now := time.Now()
	claims := domain.AccessClaims{
		Scope:    scope,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	return i.sign(claims)
}

// CreateIDToken mints a signed OIDC ID token with audience set to the
// requesting client
func (i *Issuer) CreateIDToken(user *domain.User, clientID string) (string, error) {
	now := time.Now()
	claims := domain.IDClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.IDDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	return i.sign(claims)
}

// NewOpaqueToken returns a cryptographically random 256-bit base64url
// value. Refresh tokens and authorization codes share this construction;
// all associated state is server side.
func (i *Issuer) NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		i.logger.Error("Failed to read random bytes", zap.Error(err))
		return "", domain.ErrInternal
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = i.keys.GetKeyID()

	signed, err := t.SignedString(i.keys.GetPrivateKey())
	if err != nil {
		i.logger.Error("Failed to sign token", zap.Error(err))
		return "", domain.ErrInternal
	}
	return signed, nil
}
