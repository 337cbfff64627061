package domain

import (
	"context"
	"time"
)

// OAuthClient represents a registered OAuth2 client
type OAuthClient struct {
	ID           string    `json:"id"`
	Secret       string    `json:"-"`
	Name         string    `json:"name"`
	RedirectURIs []string  `json:"redirect_uris"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AllowsRedirectURI reports whether uri is in the client's registered set.
// Exact string match only, prefix matching would open a redirect hole.
func (c *OAuthClient) AllowsRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AuthorizationCode represents a one-time OAuth2 authorization code
type AuthorizationCode struct {
	Code                string    `json:"code"`
	ClientID            string    `json:"client_id"`
	UserID              string    `json:"user_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scope               string    `json:"scope"`
	CodeChallenge       string    `json:"code_challenge"`
	CodeChallengeMethod string    `json:"code_challenge_method"`
	ExpiresAt           time.Time `json:"expires_at"`
	Used                bool      `json:"used"`
	CreatedAt           time.Time `json:"created_at"`
}

// RefreshToken represents a stored opaque refresh token. All state lives
// server side, the token value itself carries no claims.
type RefreshToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorizeRequest is the parsed and validated authorization request
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// OAuth2Service defines the interface for the authorization endpoint
type OAuth2Service interface {
	// ValidateClient validates that a client exists and the redirect URI is registered
	ValidateClient(ctx context.Context, clientID, redirectURI string) (*OAuthClient, error)

	// Authorize validates the request and issues a one-time authorization code
	// bound to the authenticated user
	Authorize(ctx context.Context, req *AuthorizeRequest, userID string) (string, error)
}

// TokenService defines the interface for the token endpoint
type TokenService interface {
	// ExchangeCode redeems an authorization code for an access/ID/refresh token triple
	ExchangeCode(ctx context.Context, creds ClientCredentials, code, redirectURI, codeVerifier string) (*TokenResponse, error)

	// Refresh rotates a refresh token and issues a new access token
	Refresh(ctx context.Context, creds ClientCredentials, refreshToken string) (*TokenResponse, error)
}

// ClientCredentials carries client authentication extracted from either
// an HTTP Basic Authorization header or form fields
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

// OAuth2Repository defines the interface for OAuth2 data access. Code
// consumption and refresh rotation are single atomic operations so two
// concurrent redemptions of the same artifact cannot both succeed.
type OAuth2Repository interface {
	// CreateClient creates a new OAuth client
	CreateClient(ctx context.Context, client *OAuthClient) error

	// FindClientByID finds an OAuth client by ID
	FindClientByID(ctx context.Context, id string) (*OAuthClient, error)

	// UpdateClient updates an OAuth client
	UpdateClient(ctx context.Context, client *OAuthClient) error

	// DeleteClient deletes an OAuth client
	DeleteClient(ctx context.Context, id string) error

	// ListClients lists all OAuth clients
	ListClients(ctx context.Context) ([]*OAuthClient, error)

	// CreateAuthorizationCode persists a new authorization code
	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// ConsumeAuthorizationCode marks the code used and persists the given
	// refresh token in the same transaction. Returns ErrCodeAlreadyUsed when
	// the code was already redeemed and ErrCodeNotFound when it does not exist.
	ConsumeAuthorizationCode(ctx context.Context, code string, refresh *RefreshToken) (*AuthorizationCode, error)

	// GetAuthorizationCode gets an authorization code by its value
	GetAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// GetRefreshToken gets a refresh token by its value
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)

	// RotateRefreshToken deletes the old token and inserts the new one in a
	// single transaction. Returns ErrRefreshTokenNotFound when the old token
	// was already rotated or never existed.
	RotateRefreshToken(ctx context.Context, old string, replacement *RefreshToken) error

	// DeleteExpired removes expired authorization codes and refresh tokens
	DeleteExpired(ctx context.Context) error
}
