package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// MetricsSource produces the dashboard payloads this service caches.
// It is satisfied by the emissions service.
type MetricsSource interface {
	ComputeMetrics(ctx context.Context, companyID string, year int) (*emissions.Metrics, error)
	ComputeMonthlySeries(ctx context.Context, companyID string, year int) (*emissions.MonthlySeries, error)
}

// Service serves dashboard summaries from a two-level cache: an in-memory
// TTL cache in front of postgres-persisted aggregates, with the emission
// computations as the fallback. Persisted rows marked stale are served
// anyway (the numbers are merely old, not wrong) and refreshed by the
// recalc worker.
type Service struct {
	source MetricsSource
	repo   Repository
	cache  *SummaryCache
	logger *zap.Logger
}

// NewService creates a new dashboard service
func NewService(source MetricsSource, repo Repository, cache *SummaryCache, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetMetrics returns the company metrics for a year, cached
func (s *Service) GetMetrics(ctx context.Context, companyID string, year int) (*emissions.Metrics, error) {
	cacheKey := CacheKey(AggregateTypeMetrics, companyID, year)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if metrics, ok := cached.(*emissions.Metrics); ok {
			return metrics, nil
		}
	}

	var metrics emissions.Metrics
	hit, err := s.loadPersisted(ctx, AggregateTypeMetrics, companyID, year, &metrics)
	if err != nil {
		return nil, err
	}
	if hit {
		s.cache.Set(cacheKey, &metrics)
		return &metrics, nil
	}

	fresh, err := s.source.ComputeMetrics(ctx, companyID, year)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, fresh)
	s.persist(ctx, AggregateTypeMetrics, companyID, year, fresh)
	return fresh, nil
}

// GetMonthlySeries returns the monthly emission series for a year, cached
func (s *Service) GetMonthlySeries(ctx context.Context, companyID string, year int) (*emissions.MonthlySeries, error) {
	cacheKey := CacheKey(AggregateTypeMonthlySeries, companyID, year)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if series, ok := cached.(*emissions.MonthlySeries); ok {
			return series, nil
		}
	}

	var series emissions.MonthlySeries
	hit, err := s.loadPersisted(ctx, AggregateTypeMonthlySeries, companyID, year, &series)
	if err != nil {
		return nil, err
	}
	if hit {
		s.cache.Set(cacheKey, &series)
		return &series, nil
	}

	fresh, err := s.source.ComputeMonthlySeries(ctx, companyID, year)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, fresh)
	s.persist(ctx, AggregateTypeMonthlySeries, companyID, year, fresh)
	return fresh, nil
}

// Invalidate drops every cached summary for a company and marks its
// persisted aggregates stale. Called after record changes and after
// badge evaluation runs.
func (s *Service) Invalidate(ctx context.Context, companyID string) error {
	s.cache.InvalidateCompany(companyID)

	if err := s.repo.MarkCompanyStale(ctx, companyID); err != nil {
		return fmt.Errorf("failed to invalidate company aggregates: %w", err)
	}
	return nil
}

// RefreshStale recomputes up to limit stale persisted aggregates.
// Returns the number of aggregates refreshed.
func (s *Service) RefreshStale(ctx context.Context, limit int) (int, error) {
	stale, err := s.repo.GetStaleAggregates(ctx, limit)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, aggregate := range stale {
		var payload interface{}
		switch aggregate.AggregateType {
		case AggregateTypeMetrics:
			payload, err = s.source.ComputeMetrics(ctx, aggregate.CompanyID, aggregate.Year)
		case AggregateTypeMonthlySeries:
			payload, err = s.source.ComputeMonthlySeries(ctx, aggregate.CompanyID, aggregate.Year)
		default:
			s.logger.Warn("skipping aggregate with unknown type",
				zap.String("aggregate_key", aggregate.AggregateKey),
				zap.String("aggregate_type", string(aggregate.AggregateType)))
			continue
		}
		if err != nil {
			s.logger.Error("failed to recompute aggregate",
				zap.String("aggregate_key", aggregate.AggregateKey),
				zap.Error(err))
			continue
		}

		s.persist(ctx, aggregate.AggregateType, aggregate.CompanyID, aggregate.Year, payload)
		s.cache.InvalidateCompany(aggregate.CompanyID)
		refreshed++
	}

	return refreshed, nil
}

// loadPersisted fills dst from a fresh persisted aggregate. Returns false
// on miss, on a stale row, or when the stored payload fails to decode.
func (s *Service) loadPersisted(ctx context.Context, aggregateType AggregateType, companyID string, year int, dst interface{}) (bool, error) {
	aggregate, err := s.repo.GetAggregate(ctx, AggregateKey(aggregateType, companyID, year))
	if err != nil {
		return false, err
	}
	if aggregate == nil || aggregate.IsStale {
		return false, nil
	}

	if err := json.Unmarshal(aggregate.Data, dst); err != nil {
		s.logger.Warn("discarding undecodable aggregate",
			zap.String("aggregate_key", aggregate.AggregateKey),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

// persist writes a freshly computed payload back to postgres. Persistence
// is best-effort: the caller already holds the computed value, so a write
// failure only costs the next reader a recompute.
func (s *Service) persist(ctx context.Context, aggregateType AggregateType, companyID string, year int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal aggregate payload",
			zap.String("company_id", companyID),
			zap.Error(err))
		return
	}

	aggregate := &CompanyAggregate{
		AggregateKey:  AggregateKey(aggregateType, companyID, year),
		AggregateType: aggregateType,
		CompanyID:     companyID,
		Year:          year,
		Data:          data,
		ComputedAt:    time.Now(),
		IsStale:       false,
	}

	if err := s.repo.UpsertAggregate(ctx, aggregate); err != nil {
		s.logger.Error("failed to persist aggregate",
			zap.String("aggregate_key", aggregate.AggregateKey),
			zap.Error(err))
	}
}
