package repository

import (
	"context"
	"errors"

	"github.com/ipede/metals-portfolio-service/internal/domain"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// HoldingRepository implements domain.HoldingRepository using PostgreSQL
type HoldingRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewHoldingRepository creates a new HoldingRepository
func NewHoldingRepository(db *database.Postgres, logger *zap.Logger) *HoldingRepository {
	return &HoldingRepository{db: db, logger: logger}
}

func (r *HoldingRepository) Create(ctx context.Context, holding *domain.Holding) error {
	return r.db.Exec(ctx, `
		INSERT INTO holdings
			(id, user_id, kind, metal, name, denomination, year, quantity, weight_oz, purchase_usd, guide_usd, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, holding.ID.String(), holding.UserID.String(), holding.Kind, holding.Metal, holding.Name,
		holding.Denomination, holding.Year, holding.Quantity, holding.WeightOz,
		holding.PurchaseUSD, holding.GuideUSD, holding.CreatedAt, holding.UpdatedAt)
}

func (r *HoldingRepository) FindByID(ctx context.Context, id ulid.ULID) (*domain.Holding, error) {
	holding := &domain.Holding{}
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, kind, metal, name, denomination, year, quantity, weight_oz, purchase_usd, guide_usd, created_at, updated_at
		FROM holdings WHERE id = $1
	`, id.String()).Scan(&holding.ID, &holding.UserID, &holding.Kind, &holding.Metal, &holding.Name,
		&holding.Denomination, &holding.Year, &holding.Quantity, &holding.WeightOz,
		&holding.PurchaseUSD, &holding.GuideUSD, &holding.CreatedAt, &holding.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldingNotFound
		}
		r.logger.Error("Failed to find holding", zap.Error(err))
		return nil, err
	}
	return holding, nil
}

func (r *HoldingRepository) Update(ctx context.Context, holding *domain.Holding) error {
	return r.db.Exec(ctx, `
		UPDATE holdings
		SET kind = $1, metal = $2, name = $3, denomination = $4, year = $5, quantity = $6,
			weight_oz = $7, purchase_usd = $8, guide_usd = $9, updated_at = $10
		WHERE id = $11
	`, holding.Kind, holding.Metal, holding.Name, holding.Denomination, holding.Year,
		holding.Quantity, holding.WeightOz, holding.PurchaseUSD, holding.GuideUSD,
		holding.UpdatedAt, holding.ID.String())
}

func (r *HoldingRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return r.db.Exec(ctx, "DELETE FROM holdings WHERE id = $1", id.String())
}

func (r *HoldingRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*domain.Holding, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, kind, metal, name, denomination, year, quantity, weight_oz, purchase_usd, guide_usd, created_at, updated_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		r.logger.Error("Failed to list holdings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var holdings []*domain.Holding
	for rows.Next() {
		holding := &domain.Holding{}
		if err := rows.Scan(&holding.ID, &holding.UserID, &holding.Kind, &holding.Metal, &holding.Name,
			&holding.Denomination, &holding.Year, &holding.Quantity, &holding.WeightOz,
			&holding.PurchaseUSD, &holding.GuideUSD, &holding.CreatedAt, &holding.UpdatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, holding)
	}
	return holdings, rows.Err()
}
