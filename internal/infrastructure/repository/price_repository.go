package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PriceRepository implements domain.PriceRepository using PostgreSQL
type PriceRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewPriceRepository creates a new PriceRepository
func NewPriceRepository(db *database.Postgres, logger *zap.Logger) *PriceRepository {
	return &PriceRepository{db: db, logger: logger}
}

func (r *PriceRepository) Insert(ctx context.Context, price *domain.SpotPrice) error {
	return r.db.Exec(ctx, `
		INSERT INTO spot_prices (id, metal, price_usd, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, price.ID.String(), price.Metal, price.PriceUSD, price.RecordedAt)
}

func (r *PriceRepository) Latest(ctx context.Context, metal domain.Metal) (*domain.SpotPrice, error) {
	price := &domain.SpotPrice{}
	err := r.db.QueryRow(ctx, `
		SELECT id, metal, price_usd, recorded_at
		FROM spot_prices
		WHERE metal = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, metal).Scan(&price.ID, &price.Metal, &price.PriceUSD, &price.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoPriceData
		}
		r.logger.Error("Failed to load latest price", zap.Error(err))
		return nil, err
	}
	return price, nil
}

// Neighbors returns the samples bracketing t: the latest at or before t
// and the earliest at or after t. A nil sample means t lies outside the
// recorded range on that side.
func (r *PriceRepository) Neighbors(ctx context.Context, metal domain.Metal, t time.Time) (*domain.SpotPrice, *domain.SpotPrice, error) {
	before, err := r.scanOne(ctx, `
		SELECT id, metal, price_usd, recorded_at
		FROM spot_prices
		WHERE metal = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`, metal, t)
	if err != nil {
		return nil, nil, err
	}

	after, err := r.scanOne(ctx, `
		SELECT id, metal, price_usd, recorded_at
		FROM spot_prices
		WHERE metal = $1 AND recorded_at >= $2
		ORDER BY recorded_at ASC
		LIMIT 1
	`, metal, t)
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

func (r *PriceRepository) Range(ctx context.Context, metal domain.Metal, from, to time.Time) ([]*domain.SpotPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, metal, price_usd, recorded_at
		FROM spot_prices
		WHERE metal = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at ASC
	`, metal, from, to)
	if err != nil {
		r.logger.Error("Failed to load price history", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var prices []*domain.SpotPrice
	for rows.Next() {
		price := &domain.SpotPrice{}
		if err := rows.Scan(&price.ID, &price.Metal, &price.PriceUSD, &price.RecordedAt); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

func (r *PriceRepository) scanOne(ctx context.Context, sql string, args ...interface{}) (*domain.SpotPrice, error) {
	price := &domain.SpotPrice{}
	err := r.db.QueryRow(ctx, sql, args...).Scan(&price.ID, &price.Metal, &price.PriceUSD, &price.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return price, nil
}
