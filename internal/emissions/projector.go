package emissions

import "math"

// NeutralThresholdFraction defines "carbon neutral" operationally: emissions
// at or below 10% of the baseline year's total, i.e. a 90% reduction, not
// absolute zero.
const NeutralThresholdFraction = 0.10

// Projection is the net-zero outlook for one company
type Projection struct {
	BaselineKgCO2e         float64 `json:"baseline_kg_co2e"`
	CurrentKgCO2e          float64 `json:"current_kg_co2e"`
	ThresholdKgCO2e        float64 `json:"threshold_kg_co2e"`
	TargetReductionPct     float64 `json:"target_reduction_pct"`
	YearsToNeutral         int     `json:"years_to_neutral"`
	NeutralYear            int     `json:"neutral_year"`
	MinAnnualReductionPct  float64 `json:"min_annual_reduction_pct"`
	HorizonYear            int     `json:"horizon_year"`
	Reachable              bool    `json:"reachable"`
}

// ProjectNetZero projects when cumulative reductions reach the neutral
// threshold, given the baseline (first available year's total), the latest
// complete year's total, the declared per-year reduction target as a
// fraction, and the horizon year for the minimum-rate calculation.
//
// If current emissions are already at or below the threshold the projection
// is immediate. A non-positive target makes the projection mathematically
// unreachable; the sentinel result carries Reachable=false rather than a NaN.
func ProjectNetZero(baseline, current, targetFraction float64, currentYear, horizonYear int) Projection {
	threshold := baseline * NeutralThresholdFraction

	p := Projection{
		BaselineKgCO2e:     baseline,
		CurrentKgCO2e:      current,
		ThresholdKgCO2e:    threshold,
		TargetReductionPct: targetFraction * 100,
		HorizonYear:        horizonYear,
	}

	if baseline <= 0 || current <= 0 || current <= threshold {
		p.YearsToNeutral = 0
		p.NeutralYear = currentYear
		p.Reachable = true
		return p
	}

	if targetFraction <= 0 || targetFraction >= 1 {
		p.YearsToNeutral = -1
		p.NeutralYear = 0
		p.Reachable = false
		p.MinAnnualReductionPct = minAnnualReduction(threshold, current, currentYear, horizonYear) * 100
		return p
	}

	years := math.Ceil(math.Log(threshold/current) / math.Log(1-targetFraction))
	p.YearsToNeutral = int(years)
	p.NeutralYear = currentYear + p.YearsToNeutral
	p.MinAnnualReductionPct = minAnnualReduction(threshold, current, currentYear, horizonYear) * 100
	p.Reachable = true
	return p
}

// minAnnualReduction is the constant annual reduction fraction that reaches
// the threshold exactly at the horizon year
func minAnnualReduction(threshold, current float64, currentYear, horizonYear int) float64 {
	span := horizonYear - currentYear
	if span <= 0 {
		return 1
	}
	return 1 - math.Exp(math.Log(threshold/current)/float64(span))
}
