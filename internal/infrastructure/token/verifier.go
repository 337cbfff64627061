package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/keys"
	"go.uber.org/zap"
)

// Verifier validates access tokens against the process public key, the
// configured issuer and the configured audience
type Verifier struct {
	keys   *keys.Provider
	cfg    *config.Config
	logger *zap.Logger
}

// NewVerifier creates a token verifier
func NewVerifier(keys *keys.Provider, cfg *config.Config, logger *zap.Logger) *Verifier {
	return &Verifier{
		keys:   keys,
		cfg:    cfg,
		logger: logger,
	}
}

// VerifyAccessToken checks signature, issuer, audience and expiry and
// returns the decoded claims. Callers must treat every failure as
// unauthenticated without distinguishing which check failed.
func (v *Verifier) VerifyAccessToken(tokenString string) (*domain.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &domain.AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, domain.ErrInvalidSigningMethod
		}
		return v.keys.GetPublicKey(), nil
	},
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			v.logger.Debug("Token expired", zap.Error(err))
			return nil, domain.ErrTokenExpired
		default:
			v.logger.Debug("Token verification failed", zap.Error(err))
			return nil, domain.ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*domain.AccessClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
