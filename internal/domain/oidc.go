package domain

import "context"

// OIDCService defines the interface for OpenID Connect metadata operations
type OIDCService interface {
	// GetUserInfo retrieves the standard claims for the given user ID
	GetUserInfo(ctx context.Context, userID string) (map[string]interface{}, error)

	// GetOpenIDConfiguration returns the OIDC discovery document
	GetOpenIDConfiguration(ctx context.Context) map[string]interface{}

	// GetJWKS returns the public signing keys as a JWKS document
	GetJWKS(ctx context.Context) (map[string]interface{}, error)
}
