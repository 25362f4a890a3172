package achievements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"carbon-scribe/company-portal/company-portal-backend/internal/campaigns"
	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

func ruleInput(metrics emissions.BadgeMetrics, participant *campaigns.CampaignParticipant) *RuleInput {
	return &RuleInput{Metrics: &metrics, Campaign: participant}
}

func findDef(t *testing.T, id string) BadgeDefinition {
	t.Helper()
	for _, def := range Catalog() {
		if def.ID == id {
			return def
		}
	}
	t.Fatalf("badge %q not in catalog", id)
	return BadgeDefinition{}
}

func TestCropDiversityRule(t *testing.T) {
	def := findDef(t, "crop_diversity")

	progress, unlocked := def.Rule(ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 2}, nil))
	assert.InDelta(t, 2.0/3.0*100, progress, 1e-9)
	assert.False(t, unlocked)

	progress, unlocked = def.Rule(ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 3}, nil))
	assert.InDelta(t, 100.0, progress, 1e-9)
	assert.True(t, unlocked)

	progress, _ = def.Rule(ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 7}, nil))
	assert.InDelta(t, 100.0, progress, 1e-9)
}

func TestLowerBetterUnlockUsesRawCondition(t *testing.T) {
	def := findDef(t, "efficient_equipment")

	// exactly at the cap: the clamped percentage is 0 but the raw
	// condition still holds
	progress, unlocked := def.Rule(ruleInput(emissions.BadgeMetrics{
		EquipmentEnergyInput: 100,
		EquipmentIntensity:   1.5,
	}, nil))
	assert.Zero(t, progress)
	assert.True(t, unlocked)

	_, unlocked = def.Rule(ruleInput(emissions.BadgeMetrics{
		EquipmentEnergyInput: 100,
		EquipmentIntensity:   1.6,
	}, nil))
	assert.False(t, unlocked)

	// no equipment activity never unlocks
	_, unlocked = def.Rule(ruleInput(emissions.BadgeMetrics{}, nil))
	assert.False(t, unlocked)
}

func TestWasteReductionRule(t *testing.T) {
	def := findDef(t, "waste_reduction")

	progress, unlocked := def.Rule(ruleInput(emissions.BadgeMetrics{
		PrevYearWasteEmissionsKg: 1000,
		WasteEmissionsKg:         750,
	}, nil))
	assert.True(t, unlocked) // 25% reduction
	assert.InDelta(t, 100.0, progress, 1e-9)

	progress, unlocked = def.Rule(ruleInput(emissions.BadgeMetrics{
		PrevYearWasteEmissionsKg: 1000,
		WasteEmissionsKg:         900,
	}, nil))
	assert.False(t, unlocked) // only 10%
	assert.InDelta(t, 50.0, progress, 1e-9)

	// a regression reports zero progress, not negative
	progress, unlocked = def.Rule(ruleInput(emissions.BadgeMetrics{
		PrevYearWasteEmissionsKg: 1000,
		WasteEmissionsKg:         1200,
	}, nil))
	assert.False(t, unlocked)
	assert.Zero(t, progress)
}

func TestCampaignTierRules(t *testing.T) {
	participant := &campaigns.CampaignParticipant{
		CompanyID:       "acme",
		TargetReduction: 1000,
		CurrentProgress: 600,
	}

	_, bronze := findDef(t, "campaign_bronze").Rule(ruleInput(emissions.BadgeMetrics{}, participant))
	_, silver := findDef(t, "campaign_silver").Rule(ruleInput(emissions.BadgeMetrics{}, participant))
	goldProgress, gold := findDef(t, "campaign_gold").Rule(ruleInput(emissions.BadgeMetrics{}, participant))

	assert.True(t, bronze)
	assert.True(t, silver)
	assert.False(t, gold)
	assert.InDelta(t, 80.0, goldProgress, 1e-9) // 60 of 75

	// no enrollment contributes nothing
	progress, unlocked := findDef(t, "campaign_bronze").Rule(ruleInput(emissions.BadgeMetrics{}, nil))
	assert.Zero(t, progress)
	assert.False(t, unlocked)
}

func TestEvaluateCatalogSetsLifecycle(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	states := EvaluateCatalog(Catalog(), "acme",
		ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 4}, nil), now)

	byBadge := map[string]*UserBadgeState{}
	for _, state := range states {
		byBadge[state.BadgeID] = state
	}

	diversity := byBadge["crop_diversity"]
	assert.True(t, diversity.IsUnlocked)
	assert.Equal(t, StatusCompleted, diversity.Status)
	assert.NotNil(t, diversity.DateUnlocked)
	assert.False(t, diversity.CreditsAwarded)

	waste := byBadge["low_waste"]
	assert.False(t, waste.IsUnlocked)
	assert.Equal(t, StatusIncomplete, waste.Status)
	assert.Nil(t, waste.DateUnlocked)
}

func TestReconcileAwardsExactlyOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	values := CreditValues(Catalog())
	input := ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 3}, nil)

	fresh := EvaluateCatalog(Catalog(), "acme", input, now)
	states, credits := Reconcile(fresh, map[string]UserBadgeState{}, values)
	assert.Equal(t, int64(100), credits)

	persisted := map[string]UserBadgeState{}
	for _, state := range states {
		persisted[state.BadgeID] = *state
	}

	// identical second run awards nothing
	again := EvaluateCatalog(Catalog(), "acme", input, now)
	states, credits = Reconcile(again, persisted, values)
	assert.Zero(t, credits)
	for _, state := range states {
		if state.BadgeID == "crop_diversity" {
			assert.True(t, state.CreditsAwarded)
		}
	}
}

func TestReconcileUnlockIsMonotonic(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	unlockedAt := now.AddDate(0, -3, 0)
	values := CreditValues(Catalog())

	persisted := map[string]UserBadgeState{
		"crop_diversity": {
			CompanyID:      "acme",
			BadgeID:        "crop_diversity",
			ProgressPct:    100,
			IsUnlocked:     true,
			Status:         StatusCompleted,
			CreditsAwarded: true,
			DateUnlocked:   &unlockedAt,
		},
	}

	// metrics regressed below the threshold
	fresh := EvaluateCatalog(Catalog(), "acme",
		ruleInput(emissions.BadgeMetrics{DistinctCropTypes: 1}, nil), now)
	states, credits := Reconcile(fresh, persisted, values)

	assert.Zero(t, credits)
	for _, state := range states {
		if state.BadgeID != "crop_diversity" {
			continue
		}
		assert.True(t, state.IsUnlocked)
		assert.Equal(t, StatusCompleted, state.Status)
		assert.InDelta(t, 100.0, state.ProgressPct, 1e-9)
		assert.True(t, state.CreditsAwarded)
		assert.Equal(t, &unlockedAt, state.DateUnlocked)
	}
}
