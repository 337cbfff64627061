package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes, overridable via configuration
const (
	DefaultAccessTokenDuration  = time.Hour
	DefaultIDTokenDuration      = 15 * time.Minute
	DefaultRefreshTokenDuration = 395 * 24 * time.Hour // ~13 months
	DefaultAuthorizationCodeTTL = 10 * time.Minute
)

// JWKSCacheDuration bounds how long a computed JWKS document is reused
const JWKSCacheDuration = time.Hour

// AccessClaims are the claims carried by a signed access token
type AccessClaims struct {
	Scope    string `json:"scope"`
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// IDClaims are the claims carried by a signed OIDC ID token
type IDClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenResponse is the token endpoint success body
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenIssuer mints the token artifacts used by the OAuth/OIDC flow
type TokenIssuer interface {
	// CreateAccessToken mints a signed access token for the user/client/scope triple
	CreateAccessToken(userID, clientID, scope string, lifetime time.Duration) (string, error)

	// CreateIDToken mints a signed OIDC ID token with audience set to the client
	CreateIDToken(user *User, clientID string) (string, error)

	// NewOpaqueToken returns a cryptographically random 256-bit base64url value,
	// used for both refresh tokens and authorization codes
	NewOpaqueToken() (string, error)
}

// TokenVerifier validates a presented access token
type TokenVerifier interface {
	// VerifyAccessToken checks signature, issuer, audience and expiry and
	// returns the decoded claims. Any failure maps to ErrInvalidToken or
	// ErrTokenExpired.
	VerifyAccessToken(token string) (*AccessClaims, error)
}

// KeyProvider supplies the signing key material and its JWKS export
type KeyProvider interface {
	// GetJWKS returns the public key set as a JWKS document
	GetJWKS() (map[string]interface{}, error)

	// GetKeyID returns the stable key identifier included in token headers
	GetKeyID() string
}
