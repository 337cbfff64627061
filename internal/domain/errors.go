package domain

import "errors"

var (
	// ErrInvalidCredentials is returned when user credentials are invalid
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when registering with a taken email
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrClientNotFound is returned when an OAuth client does not exist
	ErrClientNotFound = errors.New("client not found")

	// ErrClientAlreadyExists is returned when creating a client with a taken id
	ErrClientAlreadyExists = errors.New("client already exists")

	// ErrInvalidRedirectURI is returned when a redirect URI is not registered for the client
	ErrInvalidRedirectURI = errors.New("invalid redirect uri")

	// ErrCodeNotFound is returned when an authorization code does not exist
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrCodeAlreadyUsed is returned when an authorization code is redeemed twice
	ErrCodeAlreadyUsed = errors.New("authorization code already used")

	// ErrRefreshTokenNotFound is returned when a refresh token does not exist
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrTokenExpired is returned when a token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken is returned when a token fails signature or claim validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidSigningMethod is returned when a token uses an unexpected algorithm
	ErrInvalidSigningMethod = errors.New("invalid signing method")

	// ErrInvalidKeyConfig is returned when signing key material cannot be loaded
	ErrInvalidKeyConfig = errors.New("invalid key configuration")

	// ErrHoldingNotFound is returned when a holding does not exist or belongs to another user
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrNoPriceData is returned when no spot price samples exist for a metal
	ErrNoPriceData = errors.New("no price data")

	// ErrUnknownMetal is returned for a metal outside the supported set
	ErrUnknownMetal = errors.New("unknown metal")

	// ErrPriceFeedUnavailable is returned when the spot price provider cannot be reached
	ErrPriceFeedUnavailable = errors.New("price feed unavailable")

	// ErrInternal is returned when there is an internal server error
	ErrInternal = errors.New("internal server error")
)
