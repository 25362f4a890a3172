package emissions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInsufficientHistory is returned when a projection is requested for a
// company with no recorded activity in the requested window. Dashboards
// render this as an "insufficient data" state, not an error page.
var ErrInsufficientHistory = errors.New("not enough emission history for a projection")

// DefaultHorizonYear is the fixed horizon used for the minimum required
// annual reduction rate
const DefaultHorizonYear = 2050

// DefaultReductionTarget applies when a company has never declared a target
const DefaultReductionTarget = 0.10

// Service provides the emission computation operations consumed by the
// dashboard, projection and achievement surfaces
type Service struct {
	repo        Repository
	logger      *zap.Logger
	horizonYear int
	now         func() time.Time
}

// NewService creates a new emissions service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		horizonYear: DefaultHorizonYear,
		now:         time.Now,
	}
}

// CategoryBreakdown groups emissions into the three reporting sectors.
// Equipment fuel burn reports as transportation, equipment electricity and
// waste as industry, livestock and crops as agriculture.
type CategoryBreakdown struct {
	Transportation float64 `json:"transportation"`
	Agriculture    float64 `json:"agriculture"`
	Industry       float64 `json:"industry"`
}

// Metrics is the company-year dashboard summary
type Metrics struct {
	CompanyID            string            `json:"company_id"`
	Year                 int               `json:"year"`
	EnergyKwh            float64           `json:"energy_kwh"`
	TotalEmissionsKg     float64           `json:"total_emissions_kg"`
	ByCategory           CategoryBreakdown `json:"by_category"`
	WasteKg              float64           `json:"waste_kg"`
	CropsAreaHectares    float64           `json:"crops_area_hectares"`
	CropsFertilizerKg    float64           `json:"crops_fertilizer_kg"`
	LivestockCount       float64           `json:"livestock_count"`
	LivestockEmissionsKg float64           `json:"livestock_emissions_kg"`
	LookupMisses         []LookupMiss      `json:"lookup_misses,omitempty"`
}

// MonthlySeries is the fixed-shape chart series for one calendar year
type MonthlySeries struct {
	CompanyID                  string    `json:"company_id"`
	Year                       int       `json:"year"`
	MonthlyEmissions           []float64 `json:"monthly_emissions"`
	AverageMonthlyAbsorptionKg float64   `json:"average_monthly_absorption_kg"`
}

// CategoryDetail is one category's slice of a drill-down view
type CategoryDetail struct {
	Category     Category           `json:"category"`
	AmountKgCO2e float64            `json:"amount_kg_co2e"`
	Quantities   map[string]float64 `json:"quantities"`
}

// Drilldown is the per-category breakdown for a year or a single month
type Drilldown struct {
	CompanyID  string           `json:"company_id"`
	Year       int              `json:"year"`
	Month      *time.Month      `json:"month,omitempty"`
	Categories []CategoryDetail `json:"categories"`
	GrandTotal float64          `json:"grand_total"`
}

// NetZeroOutlook is the projection result for one company
type NetZeroOutlook struct {
	CompanyID    string          `json:"company_id"`
	Projection   Projection      `json:"projection"`
	AnnualTotals map[int]float64 `json:"annual_totals"`
}

// BadgeMetrics is the aggregated input the achievement evaluator reads
type BadgeMetrics struct {
	CompanyID                     string  `json:"company_id"`
	Year                          int     `json:"year"`
	DistinctCropTypes             int     `json:"distinct_crop_types"`
	EquipmentEmissionsKg          float64 `json:"equipment_emissions_kg"`
	EquipmentEnergyInput          float64 `json:"equipment_energy_input"`
	EquipmentIntensity            float64 `json:"equipment_intensity"`
	WasteEmissionsKg              float64 `json:"waste_emissions_kg"`
	WasteQuantityKg               float64 `json:"waste_quantity_kg"`
	PrevYearWasteEmissionsKg      float64 `json:"prev_year_waste_emissions_kg"`
	FertilizerEmissionsKg         float64 `json:"fertilizer_emissions_kg"`
	CropAreaHectares              float64 `json:"crop_area_hectares"`
	FertilizerEmissionsPerHectare float64 `json:"fertilizer_emissions_per_hectare"`
}

// computation bundles everything calculated for one company and range
type computation struct {
	factors   *EmissionFactorTable
	emissions []CategoryEmission
	misses    []LookupMiss
	crops     []CropRecord
}

// compute fetches records and the factor table and runs all four category
// calculators for [start, end). The four record reads run concurrently; any
// read failure fails the whole computation.
func (s *Service) compute(ctx context.Context, companyID string, start, end time.Time) (*computation, error) {
	factors, err := s.repo.GetCurrentFactorTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("load factor table: %w", err)
	}
	if factors == nil {
		return nil, ErrConfigurationMissing
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error

		equipment []EquipmentRecord
		livestock []LivestockRecord
		crops     []CropRecord
		waste     []WasteRecord
	)

	fetch := func(name string, fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s records: %w", name, err))
			mu.Unlock()
		}
	}

	wg.Add(4)
	go fetch("equipment", func() (err error) {
		equipment, err = s.repo.GetEquipmentRecords(ctx, companyID, start, end)
		return
	})
	go fetch("livestock", func() (err error) {
		livestock, err = s.repo.GetLivestockRecords(ctx, companyID, start, end)
		return
	})
	go fetch("crop", func() (err error) {
		crops, err = s.repo.GetCropRecords(ctx, companyID, start, end)
		return
	})
	go fetch("waste", func() (err error) {
		waste, err = s.repo.GetWasteRecords(ctx, companyID, start, end)
		return
	})
	wg.Wait()

	if len(errs) > 0 {
		return nil, errs[0]
	}

	c := &computation{factors: factors, crops: crops}
	appendResult := func(em []CategoryEmission, ms []LookupMiss) {
		c.emissions = append(c.emissions, em...)
		c.misses = append(c.misses, ms...)
	}
	appendResult(CalculateEquipment(equipment, factors))
	appendResult(CalculateLivestock(livestock, factors))
	appendResult(CalculateCrops(crops, factors))
	appendResult(CalculateWaste(waste, factors))

	if len(c.misses) > 0 {
		s.logger.Warn("Factor lookups failed closed to zero",
			zap.String("company_id", companyID),
			zap.Int("count", len(c.misses)))
	}
	return c, nil
}

// Aggregate implements the bucketed aggregation contract: per-category
// totals, a positional monthly series and a grand total over [start, end),
// optionally narrowed to a single calendar month.
func (s *Service) Aggregate(ctx context.Context, companyID string, start, end time.Time, month *time.Month) (*Aggregation, error) {
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}
	return Aggregate(companyID, c.emissions, start, end, month), nil
}

// ComputeMetrics computes the dashboard summary for one company-year
func (s *Service) ComputeMetrics(ctx context.Context, companyID string, year int) (*Metrics, error) {
	start, end := YearRange(year)
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		CompanyID:    companyID,
		Year:         year,
		LookupMisses: c.misses,
	}
	for _, em := range c.emissions {
		m.TotalEmissionsKg += em.AmountKgCO2e
		switch em.Category {
		case CategoryEquipment:
			m.EnergyKwh += em.Quantities["electricity_kwh"]
			m.ByCategory.Transportation += em.Quantities["fuel_kg_co2e"]
			m.ByCategory.Industry += em.Quantities["electricity_kg_co2e"]
		case CategoryLivestock:
			m.LivestockCount += em.Quantities["head_count"]
			m.LivestockEmissionsKg += em.AmountKgCO2e
			m.ByCategory.Agriculture += em.AmountKgCO2e
		case CategoryCrops:
			m.CropsAreaHectares += em.Quantities["area_hectares"]
			m.CropsFertilizerKg += em.Quantities["fertilizer_kg"]
			m.ByCategory.Agriculture += em.AmountKgCO2e
		case CategoryWaste:
			m.WasteKg += em.Quantities["quantity_kg"]
			m.ByCategory.Industry += em.AmountKgCO2e
		}
	}
	return m, nil
}

// ComputeMonthlySeries computes the 12-slot emission series for one year
// plus the estimated average monthly absorption from cultivated area.
// The series always has exactly 12 entries, zero-filled where no activity
// was recorded.
func (s *Service) ComputeMonthlySeries(ctx context.Context, companyID string, year int) (*MonthlySeries, error) {
	start, end := YearRange(year)
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	agg := Aggregate(companyID, c.emissions, start, end, nil)

	var area float64
	for _, rec := range c.crops {
		area += quantity(rec.AreaHectares)
	}

	return &MonthlySeries{
		CompanyID:                  companyID,
		Year:                       year,
		MonthlyEmissions:           agg.MonthlySeries,
		AverageMonthlyAbsorptionKg: area * c.factors.AbsorptionRatePerHectareYear / MonthsPerYear,
	}, nil
}

// ComputeCategoryDrilldown breaks a year (or one month of it) down into
// per-category emission and raw-quantity detail. All four categories are
// always present so drill-down views keep a stable shape.
func (s *Service) ComputeCategoryDrilldown(ctx context.Context, companyID string, year int, month *time.Month) (*Drilldown, error) {
	start, end := YearRange(year)
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	details := make(map[Category]*CategoryDetail, len(AllCategories))
	for _, cat := range AllCategories {
		details[cat] = &CategoryDetail{Category: cat, Quantities: map[string]float64{}}
	}

	d := &Drilldown{CompanyID: companyID, Year: year, Month: month}
	for _, em := range c.emissions {
		if month != nil && em.Date.UTC().Month() != *month {
			continue
		}
		det := details[em.Category]
		det.AmountKgCO2e += em.AmountKgCO2e
		for k, v := range em.Quantities {
			det.Quantities[k] += v
		}
		d.GrandTotal += em.AmountKgCO2e
	}

	for _, cat := range AllCategories {
		d.Categories = append(d.Categories, *details[cat])
	}
	return d, nil
}

// ProjectNetZero builds the multi-year series for a company and projects
// when it reaches the neutral threshold. The baseline is the earliest year
// in the window with recorded activity; the current level is the most
// recent such year. The declared reduction target for the current year
// applies, falling back to the most recently declared one, then to the
// default.
func (s *Service) ProjectNetZero(ctx context.Context, companyID string, yearsOfHistory int) (*NetZeroOutlook, error) {
	if yearsOfHistory < 1 {
		yearsOfHistory = 5
	}
	currentYear := s.now().UTC().Year()
	firstYear := currentYear - yearsOfHistory + 1

	start, _ := YearRange(firstYear)
	_, end := YearRange(currentYear)
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	annual := make(map[int]float64, yearsOfHistory)
	for _, em := range c.emissions {
		annual[em.Date.UTC().Year()] += em.AmountKgCO2e
	}

	baselineYear, latestYear := 0, 0
	for year := firstYear; year <= currentYear; year++ {
		if annual[year] <= 0 {
			continue
		}
		if baselineYear == 0 {
			baselineYear = year
		}
		latestYear = year
	}
	if baselineYear == 0 {
		return nil, ErrInsufficientHistory
	}

	target, err := s.reductionTarget(ctx, companyID, latestYear)
	if err != nil {
		return nil, err
	}

	return &NetZeroOutlook{
		CompanyID:    companyID,
		Projection:   ProjectNetZero(annual[baselineYear], annual[latestYear], target, latestYear, s.horizonYear),
		AnnualTotals: annual,
	}, nil
}

// reductionTarget resolves the declared target fraction for a year,
// defaulting to the most recently declared year's target
func (s *Service) reductionTarget(ctx context.Context, companyID string, year int) (float64, error) {
	targets, err := s.repo.GetReductionTargets(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("load reduction targets: %w", err)
	}
	if len(targets) == 0 {
		return DefaultReductionTarget, nil
	}
	for _, t := range targets {
		if t.Year == year {
			return t.TargetFraction, nil
		}
	}
	// targets are sorted most recent first
	return targets[0].TargetFraction, nil
}

// ComputeBadgeMetrics aggregates the current and previous calendar year
// into the metric set badge rules evaluate against
func (s *Service) ComputeBadgeMetrics(ctx context.Context, companyID string) (*BadgeMetrics, error) {
	year := s.now().UTC().Year()
	start, _ := YearRange(year - 1)
	_, end := YearRange(year)
	c, err := s.compute(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	m := &BadgeMetrics{CompanyID: companyID, Year: year}

	cropTypes := map[string]struct{}{}
	for _, rec := range c.crops {
		if rec.Date.UTC().Year() != year {
			continue
		}
		if key := NormalizeKey(rec.CropType); key != "" {
			cropTypes[key] = struct{}{}
		}
	}
	m.DistinctCropTypes = len(cropTypes)

	for _, em := range c.emissions {
		emYear := em.Date.UTC().Year()
		switch em.Category {
		case CategoryEquipment:
			if emYear == year {
				m.EquipmentEmissionsKg += em.AmountKgCO2e
				m.EquipmentEnergyInput += em.Quantities["electricity_kwh"] + em.Quantities["fuel_liters"]
			}
		case CategoryCrops:
			if emYear == year {
				m.FertilizerEmissionsKg += em.Quantities["fertilizer_kg_co2e"]
				m.CropAreaHectares += em.Quantities["area_hectares"]
			}
		case CategoryWaste:
			if emYear == year {
				m.WasteEmissionsKg += em.AmountKgCO2e
				m.WasteQuantityKg += em.Quantities["quantity_kg"]
			} else {
				m.PrevYearWasteEmissionsKg += em.AmountKgCO2e
			}
		}
	}

	if m.EquipmentEnergyInput > 0 {
		m.EquipmentIntensity = m.EquipmentEmissionsKg / m.EquipmentEnergyInput
	}
	if m.CropAreaHectares > 0 {
		m.FertilizerEmissionsPerHectare = m.FertilizerEmissionsKg / m.CropAreaHectares
	}
	return m, nil
}
