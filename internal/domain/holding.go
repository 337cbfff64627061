package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// HoldingKind distinguishes raw bullion from numismatic coins
type HoldingKind string

const (
	HoldingBullion HoldingKind = "bullion"
	HoldingCoin    HoldingKind = "coin"
)

// Holding represents a bullion bar/round or a coin position in a collection
type Holding struct {
	ID           ulid.ULID   `json:"id"`
	UserID       ulid.ULID   `json:"user_id"`
	Kind         HoldingKind `json:"kind"`
	Metal        Metal       `json:"metal"`
	Name         string      `json:"name"`
	Denomination string      `json:"denomination,omitempty"`
	Year         int         `json:"year,omitempty"`
	Quantity     int         `json:"quantity"`
	WeightOz     float64     `json:"weight_oz"` // fine troy ounces per unit, bullion only
	PurchaseUSD  float64     `json:"purchase_usd"`
	GuideUSD     float64     `json:"guide_usd"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// FineOz returns the fine troy ounces of metal in one unit of the holding.
// Coins resolve through the composition rule table, bullion carries its
// weight directly.
func (h *Holding) FineOz() (Metal, float64, bool) {
	if h.Kind == HoldingCoin {
		if comp, ok := CoinComposition(h.Denomination, h.Year); ok {
			return comp.Metal, comp.FineOz, true
		}
		return h.Metal, 0, false
	}
	return h.Metal, h.WeightOz, h.WeightOz > 0
}

// HoldingValuation is the per-holding line of a portfolio valuation
type HoldingValuation struct {
	Holding  *Holding `json:"holding"`
	MeltUSD  float64  `json:"melt_usd"`
	BookUSD  float64  `json:"book_usd"`
	GuideUSD float64  `json:"guide_usd"`
}

// MetalTotal aggregates fine weight and melt value per metal
type MetalTotal struct {
	FineOz  float64 `json:"fine_oz"`
	MeltUSD float64 `json:"melt_usd"`
}

// Valuation is a full portfolio valuation snapshot
type Valuation struct {
	Holdings []HoldingValuation   `json:"holdings"`
	Totals   map[Metal]MetalTotal `json:"totals"`
	MeltUSD  float64              `json:"melt_usd"`
	BookUSD  float64              `json:"book_usd"`
	GuideUSD float64              `json:"guide_usd"`
	AsOf     time.Time            `json:"as_of"`
}

// PortfolioService exposes holding management and valuation
type PortfolioService interface {
	CreateHolding(ctx context.Context, holding *Holding) error
	GetHolding(ctx context.Context, userID, id ulid.ULID) (*Holding, error)
	UpdateHolding(ctx context.Context, holding *Holding) error
	DeleteHolding(ctx context.Context, userID, id ulid.ULID) error
	ListHoldings(ctx context.Context, userID ulid.ULID) ([]*Holding, error)

	// Valuate computes melt, book and numismatic guide value for the user's
	// portfolio using current spot prices
	Valuate(ctx context.Context, userID ulid.ULID) (*Valuation, error)
}

// HoldingRepository defines the interface for holding data access
type HoldingRepository interface {
	Create(ctx context.Context, holding *Holding) error
	FindByID(ctx context.Context, id ulid.ULID) (*Holding, error)
	Update(ctx context.Context, holding *Holding) error
	Delete(ctx context.Context, id ulid.ULID) error
	ListByUser(ctx context.Context, userID ulid.ULID) ([]*Holding, error)
}
