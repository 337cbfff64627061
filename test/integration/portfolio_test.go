package integration

import (
	"context"
	"testing"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/application"
	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/repository"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticFeed struct {
	quote domain.SpotQuote
}

func (f *staticFeed) FetchSpot(ctx context.Context) (*domain.SpotQuote, error) {
	q := f.quote
	return &q, nil
}

func TestPortfolioValuation_Integration(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	container, cfg := setupTestContainerWithMigrations(t)
	defer container.Terminate(ctx)

	db, err := database.NewPostgres(ctx, cfg, logger)
	require.NoError(t, err)
	defer db.Close()

	userRepo := repository.NewUserRepository(db, logger)
	holdingRepo := repository.NewHoldingRepository(db, logger)
	priceRepo := repository.NewPriceRepository(db, logger)

	feed := &staticFeed{quote: domain.SpotQuote{Gold: 2400, Silver: 30, Platinum: 950}}
	priceService := application.NewPriceService(priceRepo, feed, logger)
	portfolioService := application.NewPortfolioService(holdingRepo, priceService, logger)

	user := domain.NewUser("Collector", "vault@example.com", "irrelevant-hash")
	require.NoError(t, userRepo.Create(ctx, user))

	require.NoError(t, priceService.RecordSpot(ctx))

	t.Run("Valuation combines bullion and coin melt values", func(t *testing.T) {
		bar := &domain.Holding{
			UserID:      user.ID,
			Kind:        domain.HoldingBullion,
			Metal:       domain.MetalGold,
			Name:        "1oz gold bar",
			Quantity:    2,
			WeightOz:    1,
			PurchaseUSD: 4600,
		}
		require.NoError(t, portfolioService.CreateHolding(ctx, bar))

		quarters := &domain.Holding{
			UserID:       user.ID,
			Kind:         domain.HoldingCoin,
			Name:         "Washington quarter roll",
			Denomination: "quarter",
			Year:         1962,
			Quantity:     40,
			PurchaseUSD:  180,
		}
		require.NoError(t, portfolioService.CreateHolding(ctx, quarters))

		valuation, err := portfolioService.Valuate(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, valuation.Holdings, 2)

		// 2 oz gold at 2400 plus 40 x 0.18084 oz silver at 30
		assert.InDelta(t, 2*2400, valuation.Totals[domain.MetalGold].MeltUSD, 0.01)
		assert.InDelta(t, 40*0.18084*30, valuation.Totals[domain.MetalSilver].MeltUSD, 0.01)
		assert.InDelta(t, 4780, valuation.BookUSD, 0.01)
	})

	t.Run("Holdings are scoped to their owner", func(t *testing.T) {
		stranger := domain.NewUser("Stranger", "stranger@example.com", "irrelevant-hash")
		require.NoError(t, userRepo.Create(ctx, stranger))

		holdings, err := portfolioService.ListHoldings(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, holdings)

		mine, err := portfolioService.ListHoldings(ctx, user.ID)
		require.NoError(t, err)
		require.NotEmpty(t, mine)

		_, err = portfolioService.GetHolding(ctx, stranger.ID, mine[0].ID)
		assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
	})

	t.Run("History returns samples inside the window", func(t *testing.T) {
		old := &domain.SpotPrice{
			ID:         ulid.Make(),
			Metal:      domain.MetalGold,
			PriceUSD:   2300,
			RecordedAt: time.Now().Add(-48 * time.Hour),
		}
		require.NoError(t, priceRepo.Insert(ctx, old))

		history, err := priceService.History(ctx, domain.MetalGold,
			time.Now().Add(-24*time.Hour), time.Now())
		require.NoError(t, err)
		require.NotEmpty(t, history)
		for _, sample := range history {
			assert.True(t, sample.RecordedAt.After(time.Now().Add(-24*time.Hour)))
		}
	})
}
