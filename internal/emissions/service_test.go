package emissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetEquipmentRecords(ctx context.Context, companyID string, start, end time.Time) ([]EquipmentRecord, error) {
	args := m.Called(ctx, companyID, start, end)
	return args.Get(0).([]EquipmentRecord), args.Error(1)
}

func (m *MockRepository) GetLivestockRecords(ctx context.Context, companyID string, start, end time.Time) ([]LivestockRecord, error) {
	args := m.Called(ctx, companyID, start, end)
	return args.Get(0).([]LivestockRecord), args.Error(1)
}

func (m *MockRepository) GetCropRecords(ctx context.Context, companyID string, start, end time.Time) ([]CropRecord, error) {
	args := m.Called(ctx, companyID, start, end)
	return args.Get(0).([]CropRecord), args.Error(1)
}

func (m *MockRepository) GetWasteRecords(ctx context.Context, companyID string, start, end time.Time) ([]WasteRecord, error) {
	args := m.Called(ctx, companyID, start, end)
	return args.Get(0).([]WasteRecord), args.Error(1)
}

func (m *MockRepository) GetCurrentFactorTable(ctx context.Context) (*EmissionFactorTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EmissionFactorTable), args.Error(1)
}

func (m *MockRepository) GetReductionTargets(ctx context.Context, companyID string) ([]ReductionTarget, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]ReductionTarget), args.Error(1)
}

func newMockRepo(factors *EmissionFactorTable, eq []EquipmentRecord, ls []LivestockRecord, cr []CropRecord, ws []WasteRecord) *MockRepository {
	repo := new(MockRepository)
	if factors == nil {
		repo.On("GetCurrentFactorTable", mock.Anything).Return(nil, nil)
		return repo
	}
	repo.On("GetCurrentFactorTable", mock.Anything).Return(factors, nil)
	repo.On("GetEquipmentRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(eq, nil)
	repo.On("GetLivestockRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ls, nil)
	repo.On("GetCropRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(cr, nil)
	repo.On("GetWasteRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ws, nil)
	repo.On("GetReductionTargets", mock.Anything, mock.Anything).Return([]ReductionTarget{}, nil)
	return repo
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestComputeMetrics(t *testing.T) {
	repo := newMockRepo(testFactors(),
		[]EquipmentRecord{{CompanyID: "acme", Date: testDate(time.March), FuelType: "diesel", FuelConsumedLiters: 10, ElectricityUsedKwh: 100}},
		[]LivestockRecord{{CompanyID: "acme", Date: testDate(time.April), Species: "cattle", Count: 3}},
		[]CropRecord{{CompanyID: "acme", Date: testDate(time.May), CropType: "maize", FertilizerKg: 50, AreaHectares: 2, Status: "Growing"}},
		[]WasteRecord{{CompanyID: "acme", Date: testDate(time.June), WasteType: "Yard Waste", QuantityKg: 10}},
	)
	svc := newTestService(repo)

	m, err := svc.ComputeMetrics(context.Background(), "acme", 2025)

	assert.NoError(t, err)
	assert.InDelta(t, 100.0, m.EnergyKwh, 1e-9)
	assert.InDelta(t, 26.8, m.ByCategory.Transportation, 1e-9) // diesel term
	assert.InDelta(t, 50.0+4.5, m.ByCategory.Industry, 1e-9)   // electricity + waste
	cropsTotal := 50*4.42 + 2*150.0
	assert.InDelta(t, 4500.0+cropsTotal, m.ByCategory.Agriculture, 1e-9)
	assert.InDelta(t, 26.8+50+4500+cropsTotal+4.5, m.TotalEmissionsKg, 1e-9)
	assert.InDelta(t, 10.0, m.WasteKg, 1e-9)
	assert.InDelta(t, 2.0, m.CropsAreaHectares, 1e-9)
	assert.InDelta(t, 50.0, m.CropsFertilizerKg, 1e-9)
	assert.InDelta(t, 3.0, m.LivestockCount, 1e-9)
	assert.InDelta(t, 4500.0, m.LivestockEmissionsKg, 1e-9)
	assert.Empty(t, m.LookupMisses)
}

func TestComputeMetricsMissingFactorTable(t *testing.T) {
	repo := newMockRepo(nil, nil, nil, nil, nil)
	svc := newTestService(repo)

	_, err := svc.ComputeMetrics(context.Background(), "acme", 2025)

	assert.ErrorIs(t, err, ErrConfigurationMissing)
}

func TestComputeMetricsTracksLookupMisses(t *testing.T) {
	repo := newMockRepo(testFactors(),
		[]EquipmentRecord{{CompanyID: "acme", Date: testDate(time.March), FuelType: "unobtainium", FuelConsumedLiters: 5, ElectricityUsedKwh: 100}},
		nil, nil, nil,
	)
	svc := newTestService(repo)

	m, err := svc.ComputeMetrics(context.Background(), "acme", 2025)

	assert.NoError(t, err)
	assert.Len(t, m.LookupMisses, 1)
	assert.InDelta(t, 50.0, m.TotalEmissionsKg, 1e-9)
}

func TestComputeMonthlySeries(t *testing.T) {
	repo := newMockRepo(testFactors(),
		[]EquipmentRecord{{CompanyID: "acme", Date: testDate(time.March), ElectricityUsedKwh: 100}},
		nil,
		[]CropRecord{{CompanyID: "acme", Date: testDate(time.May), CropType: "maize", AreaHectares: 2, Status: "Growing"}},
		nil,
	)
	svc := newTestService(repo)

	series, err := svc.ComputeMonthlySeries(context.Background(), "acme", 2025)

	assert.NoError(t, err)
	assert.Len(t, series.MonthlyEmissions, 12)
	assert.InDelta(t, 50.0, series.MonthlyEmissions[2], 1e-9)
	// 2 ha * 2400 kg/ha/year / 12 months
	assert.InDelta(t, 400.0, series.AverageMonthlyAbsorptionKg, 1e-9)
}

func TestComputeCategoryDrilldownWithMonthFilter(t *testing.T) {
	repo := newMockRepo(testFactors(),
		[]EquipmentRecord{
			{CompanyID: "acme", Date: testDate(time.March), ElectricityUsedKwh: 100},
			{CompanyID: "acme", Date: testDate(time.April), ElectricityUsedKwh: 40},
		},
		nil, nil,
		[]WasteRecord{{CompanyID: "acme", Date: testDate(time.March), WasteType: "plastic", QuantityKg: 10}},
	)
	svc := newTestService(repo)

	month := time.March
	d, err := svc.ComputeCategoryDrilldown(context.Background(), "acme", 2025, &month)

	assert.NoError(t, err)
	assert.Len(t, d.Categories, 4)
	byCat := map[Category]CategoryDetail{}
	for _, det := range d.Categories {
		byCat[det.Category] = det
	}
	assert.InDelta(t, 50.0, byCat[CategoryEquipment].AmountKgCO2e, 1e-9)
	assert.InDelta(t, 100.0, byCat[CategoryEquipment].Quantities["electricity_kwh"], 1e-9)
	assert.InDelta(t, 60.0, byCat[CategoryWaste].AmountKgCO2e, 1e-9)
	assert.Zero(t, byCat[CategoryLivestock].AmountKgCO2e)
	assert.InDelta(t, 110.0, d.GrandTotal, 1e-9)
}

func TestProjectNetZeroService(t *testing.T) {
	repo := newMockRepo(testFactors(), nil, nil, nil,
		[]WasteRecord{
			{CompanyID: "acme", Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), WasteType: "plastic", QuantityKg: 1000},
			{CompanyID: "acme", Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), WasteType: "plastic", QuantityKg: 500},
		},
	)
	svc := newTestService(repo)

	outlook, err := svc.ProjectNetZero(context.Background(), "acme", 2)

	assert.NoError(t, err)
	assert.InDelta(t, 6000.0, outlook.Projection.BaselineKgCO2e, 1e-9)
	assert.InDelta(t, 3000.0, outlook.Projection.CurrentKgCO2e, 1e-9)
	assert.True(t, outlook.Projection.Reachable)
	// threshold 600, target 10% -> ceil(ln(0.2)/ln(0.9)) = 16
	assert.Equal(t, 16, outlook.Projection.YearsToNeutral)
	assert.Equal(t, 2041, outlook.Projection.NeutralYear)
}

func TestProjectNetZeroUsesDeclaredTarget(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetCurrentFactorTable", mock.Anything).Return(testFactors(), nil)
	repo.On("GetEquipmentRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]EquipmentRecord{}, nil)
	repo.On("GetLivestockRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]LivestockRecord{}, nil)
	repo.On("GetCropRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]CropRecord{}, nil)
	repo.On("GetWasteRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]WasteRecord{
		{CompanyID: "acme", Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), WasteType: "plastic", QuantityKg: 1000},
		{CompanyID: "acme", Date: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), WasteType: "plastic", QuantityKg: 500},
	}, nil)
	repo.On("GetReductionTargets", mock.Anything, "acme").Return([]ReductionTarget{
		{CompanyID: "acme", Year: 2025, TargetFraction: 0.25},
		{CompanyID: "acme", Year: 2024, TargetFraction: 0.05},
	}, nil)
	svc := newTestService(repo)

	outlook, err := svc.ProjectNetZero(context.Background(), "acme", 2)

	assert.NoError(t, err)
	assert.InDelta(t, 25.0, outlook.Projection.TargetReductionPct, 1e-9)
}

func TestProjectNetZeroInsufficientHistory(t *testing.T) {
	repo := newMockRepo(testFactors(), nil, nil, nil, nil)
	svc := newTestService(repo)

	_, err := svc.ProjectNetZero(context.Background(), "acme", 3)

	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestComputeBadgeMetrics(t *testing.T) {
	repo := newMockRepo(testFactors(),
		[]EquipmentRecord{{CompanyID: "acme", Date: testDate(time.March), FuelType: "diesel", FuelConsumedLiters: 10, ElectricityUsedKwh: 90}},
		nil,
		[]CropRecord{
			{CompanyID: "acme", Date: testDate(time.May), CropType: "Maize", FertilizerKg: 50, AreaHectares: 2, Status: "Growing"},
			{CompanyID: "acme", Date: testDate(time.May), CropType: "rice", AreaHectares: 1, Status: "Growing"},
			{CompanyID: "acme", Date: testDate(time.June), CropType: "maize", AreaHectares: 1, Status: "Growing"},
			{CompanyID: "acme", Date: testDate(time.June), CropType: "Cassava", AreaHectares: 1, Status: "Growing"},
		},
		[]WasteRecord{
			{CompanyID: "acme", Date: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), WasteType: "plastic", QuantityKg: 100},
			{CompanyID: "acme", Date: testDate(time.July), WasteType: "plastic", QuantityKg: 60},
		},
	)
	svc := newTestService(repo)

	m, err := svc.ComputeBadgeMetrics(context.Background(), "acme")

	assert.NoError(t, err)
	assert.Equal(t, 3, m.DistinctCropTypes) // maize counted once despite casing
	assert.InDelta(t, 10*2.68+90*0.5, m.EquipmentEmissionsKg, 1e-9)
	assert.InDelta(t, 100.0, m.EquipmentEnergyInput, 1e-9)
	assert.InDelta(t, (10*2.68+90*0.5)/100, m.EquipmentIntensity, 1e-9)
	assert.InDelta(t, 360.0, m.WasteEmissionsKg, 1e-9)
	assert.InDelta(t, 60.0, m.WasteQuantityKg, 1e-9)
	assert.InDelta(t, 600.0, m.PrevYearWasteEmissionsKg, 1e-9)
	assert.InDelta(t, 50*4.42, m.FertilizerEmissionsKg, 1e-9)
	assert.InDelta(t, 5.0, m.CropAreaHectares, 1e-9)
	assert.InDelta(t, 50*4.42/5, m.FertilizerEmissionsPerHectare, 1e-9)
}
