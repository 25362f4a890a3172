package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines data access for persisted dashboard aggregates
type Repository interface {
	GetAggregate(ctx context.Context, key string) (*CompanyAggregate, error)
	UpsertAggregate(ctx context.Context, aggregate *CompanyAggregate) error
	GetStaleAggregates(ctx context.Context, limit int) ([]*CompanyAggregate, error)
	MarkCompanyStale(ctx context.Context, companyID string) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetAggregate(ctx context.Context, key string) (*CompanyAggregate, error) {
	query := `
		SELECT id, aggregate_key, aggregate_type, company_id, year, data,
			   computed_at, is_stale, created_at, updated_at
		FROM dashboard_aggregates
		WHERE aggregate_key = $1
	`

	var aggregate CompanyAggregate
	err := r.db.GetContext(ctx, &aggregate, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found is not an error for aggregates
		}
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}

	return &aggregate, nil
}

func (r *PostgresRepository) UpsertAggregate(ctx context.Context, aggregate *CompanyAggregate) error {
	if aggregate.ID == uuid.Nil {
		aggregate.ID = uuid.New()
	}
	now := time.Now()
	if aggregate.CreatedAt.IsZero() {
		aggregate.CreatedAt = now
	}
	aggregate.UpdatedAt = now

	query := `
		INSERT INTO dashboard_aggregates (
			id, aggregate_key, aggregate_type, company_id, year, data,
			computed_at, is_stale, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (aggregate_key) DO UPDATE SET
			data = EXCLUDED.data,
			computed_at = EXCLUDED.computed_at,
			is_stale = EXCLUDED.is_stale,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		aggregate.ID, aggregate.AggregateKey, aggregate.AggregateType,
		aggregate.CompanyID, aggregate.Year, aggregate.Data,
		aggregate.ComputedAt, aggregate.IsStale, aggregate.CreatedAt, aggregate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert aggregate: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetStaleAggregates(ctx context.Context, limit int) ([]*CompanyAggregate, error) {
	query := `
		SELECT id, aggregate_key, aggregate_type, company_id, year, data,
			   computed_at, is_stale, created_at, updated_at
		FROM dashboard_aggregates
		WHERE is_stale = true
		ORDER BY computed_at ASC
		LIMIT $1
	`

	var aggregates []*CompanyAggregate
	err := r.db.SelectContext(ctx, &aggregates, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale aggregates: %w", err)
	}

	return aggregates, nil
}

func (r *PostgresRepository) MarkCompanyStale(ctx context.Context, companyID string) error {
	query := `
		UPDATE dashboard_aggregates SET
			is_stale = true,
			updated_at = NOW()
		WHERE company_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, companyID)
	if err != nil {
		return fmt.Errorf("failed to mark aggregates stale: %w", err)
	}

	return nil
}
