package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

type fakeRepository struct {
	mu         sync.Mutex
	aggregates map[string]*CompanyAggregate
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{aggregates: make(map[string]*CompanyAggregate)}
}

func (f *fakeRepository) GetAggregate(_ context.Context, key string) (*CompanyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	aggregate, ok := f.aggregates[key]
	if !ok {
		return nil, nil
	}
	copied := *aggregate
	return &copied, nil
}

func (f *fakeRepository) UpsertAggregate(_ context.Context, aggregate *CompanyAggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *aggregate
	f.aggregates[aggregate.AggregateKey] = &copied
	return nil
}

func (f *fakeRepository) GetStaleAggregates(_ context.Context, limit int) ([]*CompanyAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stale []*CompanyAggregate
	for _, aggregate := range f.aggregates {
		if aggregate.IsStale && len(stale) < limit {
			copied := *aggregate
			stale = append(stale, &copied)
		}
	}
	return stale, nil
}

func (f *fakeRepository) MarkCompanyStale(_ context.Context, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, aggregate := range f.aggregates {
		if aggregate.CompanyID == companyID {
			aggregate.IsStale = true
		}
	}
	return nil
}

type fakeSource struct {
	mu            sync.Mutex
	metricsCalls  int
	seriesCalls   int
	totalEmission float64
}

func (f *fakeSource) ComputeMetrics(_ context.Context, companyID string, year int) (*emissions.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metricsCalls++
	return &emissions.Metrics{
		CompanyID:        companyID,
		Year:             year,
		TotalEmissionsKg: f.totalEmission,
	}, nil
}

func (f *fakeSource) ComputeMonthlySeries(_ context.Context, companyID string, year int) (*emissions.MonthlySeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seriesCalls++
	return &emissions.MonthlySeries{
		CompanyID:        companyID,
		Year:             year,
		MonthlyEmissions: make([]float64, emissions.MonthsPerYear),
	}, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepository, *fakeSource) {
	t.Helper()
	repo := newFakeRepository()
	source := &fakeSource{totalEmission: 1234.5}
	cache := NewSummaryCache(time.Minute)
	t.Cleanup(cache.Stop)
	return NewService(source, repo, cache, zap.NewNop()), repo, source
}

func TestGetMetrics_ComputesOnceThenServesFromCache(t *testing.T) {
	svc, repo, source := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, first.TotalEmissionsKg)

	second, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, first.TotalEmissionsKg, second.TotalEmissionsKg)
	assert.Equal(t, 1, source.metricsCalls)

	// The computed payload was persisted alongside the cache entry.
	persisted, err := repo.GetAggregate(ctx, AggregateKey(AggregateTypeMetrics, "company-1", 2025))
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.False(t, persisted.IsStale)

	var decoded emissions.Metrics
	require.NoError(t, json.Unmarshal(persisted.Data, &decoded))
	assert.Equal(t, 1234.5, decoded.TotalEmissionsKg)
}

func TestGetMetrics_ServesPersistedAggregateAfterCacheRestart(t *testing.T) {
	svc, repo, source := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)

	// A new in-memory cache simulates a process restart.
	restarted := NewService(source, repo, NewSummaryCache(time.Minute), zap.NewNop())
	metrics, err := restarted.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, metrics.TotalEmissionsKg)
	assert.Equal(t, 1, source.metricsCalls, "persisted aggregate should satisfy the read")
}

func TestInvalidate_ForcesRecompute(t *testing.T) {
	svc, _, source := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx, "company-1"))

	source.totalEmission = 999.0
	metrics, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 999.0, metrics.TotalEmissionsKg)
	assert.Equal(t, 2, source.metricsCalls)
}

func TestInvalidate_OnlyTouchesTargetCompany(t *testing.T) {
	svc, _, source := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	_, err = svc.GetMetrics(ctx, "company-2", 2025)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx, "company-1"))

	_, err = svc.GetMetrics(ctx, "company-2", 2025)
	require.NoError(t, err)
	assert.Equal(t, 2, source.metricsCalls, "company-2 should still be cached")
}

func TestRefreshStale_RecomputesMarkedAggregates(t *testing.T) {
	svc, repo, source := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetMetrics(ctx, "company-1", 2025)
	require.NoError(t, err)
	_, err = svc.GetMonthlySeries(ctx, "company-1", 2025)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(ctx, "company-1"))

	source.totalEmission = 42.0
	refreshed, err := svc.RefreshStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)

	persisted, err := repo.GetAggregate(ctx, AggregateKey(AggregateTypeMetrics, "company-1", 2025))
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.False(t, persisted.IsStale)

	var decoded emissions.Metrics
	require.NoError(t, json.Unmarshal(persisted.Data, &decoded))
	assert.Equal(t, 42.0, decoded.TotalEmissionsKg)
}

func TestSummaryCache_ExpiresEntries(t *testing.T) {
	cache := NewSummaryCache(10 * time.Millisecond)
	defer cache.Stop()

	cache.Set("company-1:metrics:2025", "payload")
	_, ok := cache.Get("company-1:metrics:2025")
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = cache.Get("company-1:metrics:2025")
	assert.False(t, ok)
}

func TestSummaryCache_InvalidateCompanyIsPrefixScoped(t *testing.T) {
	cache := NewSummaryCache(time.Minute)
	defer cache.Stop()

	cache.Set(CacheKey(AggregateTypeMetrics, "company-1", 2025), "a")
	cache.Set(CacheKey(AggregateTypeMetrics, "company-10", 2025), "b")

	cache.InvalidateCompany("company-1")

	_, ok := cache.Get(CacheKey(AggregateTypeMetrics, "company-1", 2025))
	assert.False(t, ok)
	_, ok = cache.Get(CacheKey(AggregateTypeMetrics, "company-10", 2025))
	assert.True(t, ok, "company-10 keys must survive invalidating company-1")
}
