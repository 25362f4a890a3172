package emissions

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category identifies one of the four activity categories the engine understands
type Category string

const (
	CategoryEquipment Category = "equipment"
	CategoryLivestock Category = "livestock"
	CategoryCrops     Category = "crops"
	CategoryWaste     Category = "waste"
)

// AllCategories lists the categories in dashboard display order
var AllCategories = []Category{CategoryEquipment, CategoryLivestock, CategoryCrops, CategoryWaste}

// FuelType is the closed set of fuels the factor table carries rates for
type FuelType string

const (
	FuelDiesel     FuelType = "diesel"
	FuelGasoline   FuelType = "gasoline"
	FuelNaturalGas FuelType = "naturalgas"
	FuelLPG        FuelType = "lpg"
	FuelKerosene   FuelType = "kerosene"
	FuelCoal       FuelType = "coal"
	FuelUnknown    FuelType = "unknown"
)

// Species is the closed set of livestock species with emission rates
type Species string

const (
	SpeciesCattle  Species = "cattle"
	SpeciesBuffalo Species = "buffalo"
	SpeciesSheep   Species = "sheep"
	SpeciesGoat    Species = "goat"
	SpeciesSwine   Species = "swine"
	SpeciesPoultry Species = "poultry"
	SpeciesHorse   Species = "horse"
	SpeciesUnknown Species = "unknown"
)

// WasteType is the closed set of waste streams with emission rates
type WasteType string

const (
	WasteOrganic    WasteType = "organic"
	WasteFood       WasteType = "foodwaste"
	WasteYard       WasteType = "yardwaste"
	WastePaper      WasteType = "paper"
	WastePlastic    WasteType = "plastic"
	WasteMetal      WasteType = "metal"
	WasteGlass      WasteType = "glass"
	WasteElectronic WasteType = "electronic"
	WasteUnknown    WasteType = "unknown"
)

// CropStatusLandPreparation marks a crop record as land clearing in progress.
// Records in this status carry the slash-and-burn emission term.
const CropStatusLandPreparation = "Land Preparation"

// EquipmentRecord is a single equipment usage entry (fuel and/or electricity).
// Records are written by the data-entry surfaces and never mutated here.
type EquipmentRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID          string             `bson:"company_id" json:"company_id"`
	Date               time.Time          `bson:"date" json:"date"`
	EquipmentName      string             `bson:"equipment_name" json:"equipment_name"`
	FuelType           string             `bson:"fuel_type" json:"fuel_type"`
	FuelConsumedLiters float64            `bson:"fuel_consumed_liters" json:"fuel_consumed_liters"`
	ElectricityUsedKwh float64            `bson:"electricity_used_kwh" json:"electricity_used_kwh"`
}

// LivestockRecord is a headcount entry for one species
type LivestockRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID string             `bson:"company_id" json:"company_id"`
	Date      time.Time          `bson:"date" json:"date"`
	Species   string             `bson:"species" json:"species"`
	Count     float64            `bson:"count" json:"count"`
}

// CropRecord is a cultivation entry; Status drives the slash-burn term
type CropRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID    string             `bson:"company_id" json:"company_id"`
	Date         time.Time          `bson:"date" json:"date"`
	CropType     string             `bson:"crop_type" json:"crop_type"`
	FertilizerKg float64            `bson:"fertilizer_kg" json:"fertilizer_kg"`
	AreaHectares float64            `bson:"area_hectares" json:"area_hectares"`
	Status       string             `bson:"status" json:"status"`
}

// WasteRecord is a disposal entry for one waste stream
type WasteRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID  string             `bson:"company_id" json:"company_id"`
	Date       time.Time          `bson:"date" json:"date"`
	WasteType  string             `bson:"waste_type" json:"waste_type"`
	QuantityKg float64            `bson:"quantity_kg" json:"quantity_kg"`
}

// CropFactors holds the per-unit crop emission rates
type CropFactors struct {
	NitrogenFertilizer float64 `bson:"nitrogen_fertilizer" json:"nitrogen_fertilizer"`
	SoilEmissions      float64 `bson:"soil_emissions" json:"soil_emissions"`
}

// EmissionFactorTable is the single current conversion-rate snapshot. All rate
// maps are keyed by canonical keys (see NormalizeKey); lookups fail closed.
type EmissionFactorTable struct {
	ID                           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ElectricityEmissionFactor    float64            `bson:"electricity_emission_factor" json:"electricity_emission_factor"`
	FuelEmissionFactors          map[string]float64 `bson:"fuel_emission_factors" json:"fuel_emission_factors"`
	AnimalEmissionFactors        map[string]float64 `bson:"animal_emission_factors" json:"animal_emission_factors"`
	CropEmissionFactors          CropFactors        `bson:"crop_emission_factors" json:"crop_emission_factors"`
	WasteEmissionFactors         map[string]float64 `bson:"waste_emission_factors" json:"waste_emission_factors"`
	AbsorptionRatePerHectareYear float64            `bson:"absorption_rate_per_hectare_year" json:"absorption_rate_per_hectare_year"`
	UpdatedAt                    time.Time          `bson:"updated_at" json:"updated_at"`
}

// CategoryEmission is one calculated emission contribution. Quantities carries
// the raw activity amounts behind the figure for drill-down views.
type CategoryEmission struct {
	Date         time.Time          `json:"date"`
	Category     Category           `json:"category"`
	AmountKgCO2e float64            `json:"amount_kg_co2e"`
	Quantities   map[string]float64 `json:"quantities,omitempty"`
}

// LookupMiss records a factor lookup that failed closed to zero, so totals
// never silently under-report without a trace
type LookupMiss struct {
	CompanyID string    `json:"company_id"`
	Category  Category  `json:"category"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	Date      time.Time `json:"date"`
}

// ReductionTarget is a company's declared annual reduction goal for one
// year, as a fraction (0.1 = 10% per year)
type ReductionTarget struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID      string             `bson:"company_id" json:"company_id"`
	Year           int                `bson:"year" json:"year"`
	TargetFraction float64            `bson:"target_fraction" json:"target_fraction"`
}

// AggregatedEmission is one derived bucket. Recomputed on demand; dashboards
// may cache it but it is never a source of truth.
type AggregatedEmission struct {
	CompanyID    string   `json:"company_id"`
	Year         int      `json:"year"`
	Month        int      `json:"month,omitempty"` // 0 when the bucket is a full year
	Category     Category `json:"category"`
	AmountKgCO2e float64  `json:"amount_kg_co2e"`
}
