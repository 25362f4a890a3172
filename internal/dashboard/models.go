package dashboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AggregateType identifies what a persisted aggregate holds
type AggregateType string

const (
	AggregateTypeMetrics       AggregateType = "company_metrics"
	AggregateTypeMonthlySeries AggregateType = "monthly_series"
)

// CompanyAggregate is a precomputed dashboard payload persisted in postgres.
// The payload itself is opaque JSON; the surrounding columns exist so the
// refresh worker can find stale rows without decoding anything.
type CompanyAggregate struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	AggregateKey  string        `db:"aggregate_key" json:"aggregate_key"`
	AggregateType AggregateType `db:"aggregate_type" json:"aggregate_type"`
	CompanyID     string        `db:"company_id" json:"company_id"`
	Year          int           `db:"year" json:"year"`
	Data          []byte        `db:"data" json:"data"`
	ComputedAt    time.Time     `db:"computed_at" json:"computed_at"`
	IsStale       bool          `db:"is_stale" json:"is_stale"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// AggregateKey builds the unique key for one company/type/year combination
func AggregateKey(aggregateType AggregateType, companyID string, year int) string {
	return fmt.Sprintf("%s:%s:%d", aggregateType, companyID, year)
}

// CacheKey builds the in-memory cache key. Keys are prefixed with the
// company ID so InvalidateCompany can drop everything for one company.
func CacheKey(aggregateType AggregateType, companyID string, year int) string {
	return fmt.Sprintf("%s:%s:%d", companyID, aggregateType, year)
}
