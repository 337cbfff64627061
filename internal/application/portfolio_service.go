package application

import (
	"context"
	"errors"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// PortfolioServiceImpl manages holdings and computes valuations
type PortfolioServiceImpl struct {
	holdingRepo domain.HoldingRepository
	prices      domain.PriceService
	logger      *zap.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(holdingRepo domain.HoldingRepository, prices domain.PriceService, logger *zap.Logger) *PortfolioServiceImpl {
	return &PortfolioServiceImpl{
		holdingRepo: holdingRepo,
		prices:      prices,
		logger:      logger,
	}
}

// CreateHolding stores a new holding
func (s *PortfolioServiceImpl) CreateHolding(ctx context.Context, holding *domain.Holding) error {
	now := time.Now()
	if holding.ID.Compare(ulid.ULID{}) == 0 {
		holding.ID = ulid.Make()
	}
	if holding.Quantity <= 0 {
		holding.Quantity = 1
	}
	holding.CreatedAt = now
	holding.UpdatedAt = now

	if err := s.holdingRepo.Create(ctx, holding); err != nil {
		s.logger.Error("Failed to create holding", zap.Error(err))
		return domain.ErrInternal
	}
	return nil
}

// GetHolding retrieves a holding, enforcing ownership
func (s *PortfolioServiceImpl) GetHolding(ctx context.Context, userID, id ulid.ULID) (*domain.Holding, error) {
	holding, err := s.holdingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if holding.UserID != userID {
		// Do not reveal the holding exists
		return nil, domain.ErrHoldingNotFound
	}
	return holding, nil
}

// UpdateHolding updates a holding, enforcing ownership
func (s *PortfolioServiceImpl) UpdateHolding(ctx context.Context, holding *domain.Holding) error {
	existing, err := s.GetHolding(ctx, holding.UserID, holding.ID)
	if err != nil {
		return err
	}
	holding.CreatedAt = existing.CreatedAt
	holding.UpdatedAt = time.Now()
	return s.holdingRepo.Update(ctx, holding)
}

// DeleteHolding removes a holding, enforcing ownership
func (s *PortfolioServiceImpl) DeleteHolding(ctx context.Context, userID, id ulid.ULID) error {
	if _, err := s.GetHolding(ctx, userID, id); err != nil {
		return err
	}
	return s.holdingRepo.Delete(ctx, id)
}

// ListHoldings returns all of a user's holdings
func (s *PortfolioServiceImpl) ListHoldings(ctx context.Context, userID ulid.ULID) ([]*domain.Holding, error) {
	return s.holdingRepo.ListByUser(ctx, userID)
}

// Valuate computes melt, book and numismatic guide value for the user's
// portfolio using current spot prices. Coins resolve their metal content
// through the composition rule table; the guide value falls back to melt
// when no guide price is recorded.
func (s *PortfolioServiceImpl) Valuate(ctx context.Context, userID ulid.ULID) (*domain.Valuation, error) {
	holdings, err := s.holdingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	valuation := &domain.Valuation{
		Totals: make(map[domain.Metal]domain.MetalTotal),
		AsOf:   time.Now(),
	}

	spots := make(map[domain.Metal]float64)
	for _, holding := range holdings {
		metal, fineOz, ok := holding.FineOz()
		melt := 0.0

		if ok {
			spot, known := spots[metal]
			if !known {
				latest, priceErr := s.prices.Latest(ctx, metal)
				switch {
				case priceErr == nil:
					spot = latest.PriceUSD
				case errors.Is(priceErr, domain.ErrNoPriceData):
					spot = 0
				default:
					return nil, priceErr
				}
				spots[metal] = spot
			}

			quantity := float64(holding.Quantity)
			melt = fineOz * quantity * spot

			total := valuation.Totals[metal]
			total.FineOz += fineOz * quantity
			total.MeltUSD += melt
			valuation.Totals[metal] = total
		}

		guide := holding.GuideUSD
		if guide == 0 {
			guide = melt
		}

		valuation.Holdings = append(valuation.Holdings, domain.HoldingValuation{
			Holding:  holding,
			MeltUSD:  melt,
			BookUSD:  holding.PurchaseUSD,
			GuideUSD: guide,
		})

		valuation.MeltUSD += melt
		valuation.BookUSD += holding.PurchaseUSD
		valuation.GuideUSD += guide
	}

	return valuation, nil
}
