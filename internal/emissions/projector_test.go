package emissions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectNetZeroTypicalPath(t *testing.T) {
	// threshold = 100; years = ceil(ln(100/800)/ln(0.9)) = 20
	p := ProjectNetZero(1000, 800, 0.10, 2025, 2050)

	assert.True(t, p.Reachable)
	assert.InDelta(t, 100.0, p.ThresholdKgCO2e, 1e-9)
	assert.Equal(t, 20, p.YearsToNeutral)
	assert.Equal(t, 2045, p.NeutralYear)

	expectedMin := (1 - math.Exp(math.Log(100.0/800.0)/25)) * 100
	assert.InDelta(t, expectedMin, p.MinAnnualReductionPct, 1e-9)
}

func TestProjectNetZeroAlreadyNeutral(t *testing.T) {
	p := ProjectNetZero(1000, 90, 0.10, 2025, 2050)

	assert.True(t, p.Reachable)
	assert.Equal(t, 0, p.YearsToNeutral)
	assert.Equal(t, 2025, p.NeutralYear)
}

func TestProjectNetZeroExactlyAtThreshold(t *testing.T) {
	p := ProjectNetZero(1000, 100, 0.10, 2025, 2050)

	assert.Equal(t, 0, p.YearsToNeutral)
}

func TestProjectNetZeroZeroTargetIsUnreachable(t *testing.T) {
	p := ProjectNetZero(1000, 800, 0, 2025, 2050)

	assert.False(t, p.Reachable)
	assert.Equal(t, -1, p.YearsToNeutral)
	assert.False(t, math.IsNaN(p.MinAnnualReductionPct))
	assert.Greater(t, p.MinAnnualReductionPct, 0.0)
}

func TestProjectNetZeroNegativeTargetIsUnreachable(t *testing.T) {
	p := ProjectNetZero(1000, 800, -0.2, 2025, 2050)

	assert.False(t, p.Reachable)
}

func TestProjectNetZeroNoBaseline(t *testing.T) {
	p := ProjectNetZero(0, 0, 0.10, 2025, 2050)

	assert.True(t, p.Reachable)
	assert.Equal(t, 0, p.YearsToNeutral)
}

func TestMinAnnualReductionAtHorizon(t *testing.T) {
	// applying the minimum rate for the full span must land on the threshold
	p := ProjectNetZero(1000, 800, 0.10, 2025, 2050)

	rate := p.MinAnnualReductionPct / 100
	level := 800.0
	for year := 2025; year < 2050; year++ {
		level *= 1 - rate
	}
	assert.InDelta(t, 100.0, level, 1e-6)
}
