package handlers

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest is the parsed form body of POST /oauth/token. Fields are
// populated from the form and, for client credentials, optionally from the
// HTTP Basic Authorization header.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// ClientRequest is the body for creating/updating an OAuth client
type ClientRequest struct {
	ID           string   `json:"id"`
	Secret       string   `json:"secret"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
}

// HoldingRequest is the body for creating/updating a holding
type HoldingRequest struct {
	Kind         string  `json:"kind"`
	Metal        string  `json:"metal"`
	Name         string  `json:"name"`
	Denomination string  `json:"denomination"`
	Year         int     `json:"year"`
	Quantity     int     `json:"quantity"`
	WeightOz     float64 `json:"weight_oz"`
	PurchaseUSD  float64 `json:"purchase_usd"`
	GuideUSD     float64 `json:"guide_usd"`
}

// FDXAccount is one account entry of the FDX read surface
type FDXAccount struct {
	AccountID    string  `json:"accountId"`
	AccountType  string  `json:"accountType"`
	Nickname     string  `json:"nickname"`
	Currency     string  `json:"currency"`
	CurrentValue float64 `json:"currentValue"`
}

// FDXAccountsResponse is the body of GET /fdx/v6/accounts
type FDXAccountsResponse struct {
	Accounts []FDXAccount `json:"accounts"`
}
