package emissions

import (
	"errors"
	"time"
)

// ErrConfigurationMissing is returned when no emission factor table exists.
// Fatal for the calling request; callers surface a "data not ready" state
// instead of defaulting factors silently.
var ErrConfigurationMissing = errors.New("no current emission factor table configured")

// MonthsPerYear is the fixed length of a full-year series. Downstream charts
// and the net-zero projector assume positional alignment with calendar months.
const MonthsPerYear = 12

// Aggregation is the bucketed view of a set of calculated emissions
type Aggregation struct {
	CompanyID         string               `json:"company_id"`
	Start             time.Time            `json:"start"`
	End               time.Time            `json:"end"`
	PerCategoryTotals map[Category]float64 `json:"per_category_totals"`
	MonthlySeries     []float64            `json:"monthly_series"`
	GrandTotal        float64              `json:"grand_total"`
}

// Aggregate buckets calculated emissions by category and calendar month over
// [start, end). A full-year range always yields a 12-element series,
// zero-filled for months with no activity. When monthFilter is set, only
// emissions in that UTC month contribute (drill-down views); the series shape
// is unchanged.
func Aggregate(companyID string, all []CategoryEmission, start, end time.Time, monthFilter *time.Month) *Aggregation {
	start = start.UTC()
	end = end.UTC()

	agg := &Aggregation{
		CompanyID:         companyID,
		Start:             start,
		End:               end,
		PerCategoryTotals: make(map[Category]float64, len(AllCategories)),
		MonthlySeries:     make([]float64, monthSpan(start, end)),
	}
	for _, cat := range AllCategories {
		agg.PerCategoryTotals[cat] = 0
	}

	for _, em := range all {
		d := em.Date.UTC()
		if d.Before(start) || !d.Before(end) {
			continue
		}
		if monthFilter != nil && d.Month() != *monthFilter {
			continue
		}
		idx := monthIndex(start, d)
		if idx < 0 || idx >= len(agg.MonthlySeries) {
			continue
		}
		agg.MonthlySeries[idx] += em.AmountKgCO2e
		agg.PerCategoryTotals[em.Category] += em.AmountKgCO2e
		agg.GrandTotal += em.AmountKgCO2e
	}
	return agg
}

// YearRange returns the UTC instant range covering a calendar year
func YearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// monthSpan counts the calendar months covered by [start, end)
func monthSpan(start, end time.Time) int {
	if !start.Before(end) {
		return 0
	}
	// end is exclusive, so back off one nanosecond before bucketing
	last := end.Add(-time.Nanosecond)
	return monthIndex(start, last) + 1
}

// monthIndex returns the zero-based calendar-month offset of d from start
func monthIndex(start, d time.Time) int {
	return (d.Year()-start.Year())*MonthsPerYear + int(d.Month()) - int(start.Month())
}
