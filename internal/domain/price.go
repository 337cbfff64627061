package domain

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Metal is a supported precious (or base) metal
type Metal string

const (
	MetalGold     Metal = "gold"
	MetalSilver   Metal = "silver"
	MetalPlatinum Metal = "platinum"
	MetalCopper   Metal = "copper"
)

// SpotMetals are the metals the price feed quotes
var SpotMetals = []Metal{MetalGold, MetalSilver, MetalPlatinum}

// ParseMetal validates a metal name
func ParseMetal(s string) (Metal, error) {
	switch Metal(s) {
	case MetalGold, MetalSilver, MetalPlatinum, MetalCopper:
		return Metal(s), nil
	}
	return "", ErrUnknownMetal
}

// SpotPrice is a recorded spot price sample in USD per troy ounce
type SpotPrice struct {
	ID         ulid.ULID `json:"id"`
	Metal      Metal     `json:"metal"`
	PriceUSD   float64   `json:"price_usd"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SpotQuote is a single fetch from the upstream price provider
type SpotQuote struct {
	Gold     float64 `json:"gold"`
	Silver   float64 `json:"silver"`
	Platinum float64 `json:"platinum"`
}

// PriceFeed fetches live spot prices from the configured provider
type PriceFeed interface {
	FetchSpot(ctx context.Context) (*SpotQuote, error)
}

// PriceService records spot samples and answers valuation queries
type PriceService interface {
	// RecordSpot fetches the current quote and stores one sample per metal
	RecordSpot(ctx context.Context) error

	// Latest returns the most recent sample for a metal
	Latest(ctx context.Context, metal Metal) (*SpotPrice, error)

	// EstimateAt estimates the price at an arbitrary instant, linearly
	// interpolating between the nearest recorded samples
	EstimateAt(ctx context.Context, metal Metal, at time.Time) (float64, error)

	// History returns samples in the [from, to] window, oldest first
	History(ctx context.Context, metal Metal, from, to time.Time) ([]*SpotPrice, error)
}

// PriceRepository defines the interface for spot price data access
type PriceRepository interface {
	Insert(ctx context.Context, price *SpotPrice) error

	// Latest returns the most recent sample for a metal, ErrNoPriceData if none
	Latest(ctx context.Context, metal Metal) (*SpotPrice, error)

	// Neighbors returns the latest sample at or before t and the earliest
	// sample at or after t. Either may be nil when t is outside the recorded
	// range.
	Neighbors(ctx context.Context, metal Metal, t time.Time) (before, after *SpotPrice, err error)

	// Range returns samples in the [from, to] window ordered by time
	Range(ctx context.Context, metal Metal, from, to time.Time) ([]*SpotPrice, error)
}
