package application

import (
	"context"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// PriceServiceImpl records spot price samples and answers price queries
type PriceServiceImpl struct {
	priceRepo domain.PriceRepository
	feed      domain.PriceFeed
	logger    *zap.Logger
}

// NewPriceService creates a new price service
func NewPriceService(priceRepo domain.PriceRepository, feed domain.PriceFeed, logger *zap.Logger) *PriceServiceImpl {
	return &PriceServiceImpl{
		priceRepo: priceRepo,
		feed:      feed,
		logger:    logger,
	}
}

// RecordSpot fetches the current quote and stores one sample per metal
func (s *PriceServiceImpl) RecordSpot(ctx context.Context) error {
	quote, err := s.feed.FetchSpot(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	samples := map[domain.Metal]float64{
		domain.MetalGold:     quote.Gold,
		domain.MetalSilver:   quote.Silver,
		domain.MetalPlatinum: quote.Platinum,
	}

	for _, metal := range domain.SpotMetals {
		price := &domain.SpotPrice{
			ID:         ulid.Make(),
			Metal:      metal,
			PriceUSD:   samples[metal],
			RecordedAt: now,
		}
		if err := s.priceRepo.Insert(ctx, price); err != nil {
			s.logger.Error("Failed to store spot price",
				zap.String("metal", string(metal)),
				zap.Error(err))
			return err
		}
	}

	s.logger.Debug("Recorded spot prices",
		zap.Float64("gold", quote.Gold),
		zap.Float64("silver", quote.Silver),
		zap.Float64("platinum", quote.Platinum))
	return nil
}

// Latest returns the most recent sample for a metal
func (s *PriceServiceImpl) Latest(ctx context.Context, metal domain.Metal) (*domain.SpotPrice, error) {
	return s.priceRepo.Latest(ctx, metal)
}

// EstimateAt estimates the spot price at an arbitrary instant. An exact or
// bracketed match linearly interpolates between the nearest samples;
// outside the recorded range the nearest sample is used as-is.
func (s *PriceServiceImpl) EstimateAt(ctx context.Context, metal domain.Metal, at time.Time) (float64, error) {
	before, after, err := s.priceRepo.Neighbors(ctx, metal, at)
	if err != nil {
		return 0, err
	}

	switch {
	case before == nil && after == nil:
		return 0, domain.ErrNoPriceData
	case before == nil:
		return after.PriceUSD, nil
	case after == nil:
		return before.PriceUSD, nil
	case before.RecordedAt.Equal(after.RecordedAt):
		return before.PriceUSD, nil
	}

	// Linear interpolation between the bracketing samples
	span := after.RecordedAt.Sub(before.RecordedAt).Seconds()
	elapsed := at.Sub(before.RecordedAt).Seconds()
	fraction := elapsed / span

	return before.PriceUSD + (after.PriceUSD-before.PriceUSD)*fraction, nil
}

// History returns samples in the [from, to] window, oldest first
func (s *PriceServiceImpl) History(ctx context.Context, metal domain.Metal, from, to time.Time) ([]*domain.SpotPrice, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-30 * 24 * time.Hour)
	}
	return s.priceRepo.Range(ctx, metal, from, to)
}
