package achievements

// Rule thresholds. These are product fixtures, tuned against the factor
// table in production.
const (
	cropDiversityNeeded       = 3
	equipmentIntensityCap     = 1.5  // kgCO2e per combined kWh/liter of input
	wasteEmissionsCapKg       = 5000 // per year
	wasteReductionNeeded      = 0.20 // year over year
	fertilizerPerHectareCapKg = 300
)

// Campaign milestone tiers, percent of the participant's committed share
var campaignTiers = []struct {
	id     string
	name   string
	pct    float64
	credit int64
}{
	{"campaign_bronze", "Campaign Bronze", 25, 50},
	{"campaign_silver", "Campaign Silver", 50, 100},
	{"campaign_gold", "Campaign Gold", 75, 150},
	{"campaign_champion", "Campaign Champion", 100, 300},
}

// Catalog returns the fixed badge catalog. Definitions are static and not
// company-owned; the returned slice is freshly allocated so callers may
// not mutate shared state.
func Catalog() []BadgeDefinition {
	defs := []BadgeDefinition{
		{
			ID:          "crop_diversity",
			Name:        "Crop Diversity",
			Description: "Cultivate at least three distinct crop types in a year",
			CreditValue: 100,
			Rule: func(in *RuleInput) (float64, bool) {
				distinct := float64(in.Metrics.DistinctCropTypes)
				return clampPct(distinct / cropDiversityNeeded * 100), in.Metrics.DistinctCropTypes >= cropDiversityNeeded
			},
		},
		{
			ID:          "efficient_equipment",
			Name:        "Efficient Equipment",
			Description: "Keep equipment emission intensity below the efficiency cap",
			CreditValue: 150,
			Rule: func(in *RuleInput) (float64, bool) {
				m := in.Metrics
				if m.EquipmentEnergyInput <= 0 {
					return 0, false
				}
				return lowerBetterProgress(m.EquipmentIntensity, equipmentIntensityCap),
					m.EquipmentIntensity <= equipmentIntensityCap
			},
		},
		{
			ID:          "low_waste",
			Name:        "Low Waste",
			Description: "Keep yearly waste emissions below the cap",
			CreditValue: 100,
			Rule: func(in *RuleInput) (float64, bool) {
				m := in.Metrics
				if m.WasteQuantityKg <= 0 {
					return 0, false
				}
				return lowerBetterProgress(m.WasteEmissionsKg, wasteEmissionsCapKg),
					m.WasteEmissionsKg < wasteEmissionsCapKg
			},
		},
		{
			ID:          "waste_reduction",
			Name:        "Waste Reduction",
			Description: "Cut waste emissions by at least 20% year over year",
			CreditValue: 200,
			Rule: func(in *RuleInput) (float64, bool) {
				m := in.Metrics
				if m.PrevYearWasteEmissionsKg <= 0 {
					return 0, false
				}
				reduction := (m.PrevYearWasteEmissionsKg - m.WasteEmissionsKg) / m.PrevYearWasteEmissionsKg
				if reduction < 0 {
					reduction = 0
				}
				return clampPct(reduction / wasteReductionNeeded * 100), reduction >= wasteReductionNeeded
			},
		},
		{
			ID:          "lean_fertilizer",
			Name:        "Lean Fertilizer",
			Description: "Keep fertilizer emissions per hectare below the cap",
			CreditValue: 150,
			Rule: func(in *RuleInput) (float64, bool) {
				m := in.Metrics
				if m.CropAreaHectares <= 0 {
					return 0, false
				}
				return lowerBetterProgress(m.FertilizerEmissionsPerHectare, fertilizerPerHectareCapKg),
					m.FertilizerEmissionsPerHectare < fertilizerPerHectareCapKg
			},
		},
	}

	for _, tier := range campaignTiers {
		tier := tier
		defs = append(defs, BadgeDefinition{
			ID:          tier.id,
			Name:        tier.name,
			Description: "Reach the campaign contribution milestone",
			CreditValue: tier.credit,
			Rule: func(in *RuleInput) (float64, bool) {
				pct := in.Campaign.ProgressPct()
				return clampPct(pct / tier.pct * 100), pct >= tier.pct
			},
		})
	}
	return defs
}

// CreditValues indexes the catalog's credit values by badge id
func CreditValues(defs []BadgeDefinition) map[string]int64 {
	values := make(map[string]int64, len(defs))
	for _, def := range defs {
		values[def.ID] = def.CreditValue
	}
	return values
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// lowerBetterProgress maps "actual below cap" rules onto [0,100]: at or
// above the cap is 0, a zero actual is 100
func lowerBetterProgress(actual, cap float64) float64 {
	if cap <= 0 {
		return 0
	}
	return clampPct((cap - actual) / (cap / 100))
}
