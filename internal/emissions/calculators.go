package emissions

import (
	"math"
	"time"
)

// SlashBurnFactorKgPerHectare is the fixed emission constant applied per
// hectare when a crop record's status indicates land clearing by burning.
const SlashBurnFactorKgPerHectare = 19800.0

// quantity guards against records with missing or corrupt numeric fields.
// Such records contribute zero rather than poisoning a whole aggregation.
func quantity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// utcMonth returns the calendar bucket of a record as observed in UTC.
// Bucketing in local time shifts end-of-month records across buckets
// depending on the server's timezone, so it is always done here.
func utcMonth(t time.Time) (int, time.Month) {
	u := t.UTC()
	return u.Year(), u.Month()
}

// CalculateEquipment converts equipment records into emission contributions:
// electricity use times the grid factor plus fuel use times the per-fuel
// factor. Unrecognized fuel types contribute a zero fuel term and are
// reported as lookup misses.
func CalculateEquipment(records []EquipmentRecord, factors *EmissionFactorTable) ([]CategoryEmission, []LookupMiss) {
	emissions := make([]CategoryEmission, 0, len(records))
	var misses []LookupMiss

	for _, rec := range records {
		kwh := quantity(rec.ElectricityUsedKwh)
		liters := quantity(rec.FuelConsumedLiters)

		electricityTerm := kwh * factors.ElectricityEmissionFactor
		fuelTerm := 0.0
		if liters > 0 {
			rate, ok := factors.FuelFactor(rec.FuelType)
			if !ok {
				misses = append(misses, LookupMiss{
					CompanyID: rec.CompanyID,
					Category:  CategoryEquipment,
					Field:     "fuel_type",
					Value:     rec.FuelType,
					Date:      rec.Date,
				})
			}
			fuelTerm = liters * rate
		}

		emissions = append(emissions, CategoryEmission{
			Date:         rec.Date,
			Category:     CategoryEquipment,
			AmountKgCO2e: electricityTerm + fuelTerm,
			Quantities: map[string]float64{
				"electricity_kwh":     kwh,
				"fuel_liters":         liters,
				"electricity_kg_co2e": electricityTerm,
				"fuel_kg_co2e":        fuelTerm,
			},
		})
	}
	return emissions, misses
}

// CalculateLivestock converts headcount records into emission contributions
func CalculateLivestock(records []LivestockRecord, factors *EmissionFactorTable) ([]CategoryEmission, []LookupMiss) {
	emissions := make([]CategoryEmission, 0, len(records))
	var misses []LookupMiss

	for _, rec := range records {
		count := quantity(rec.Count)
		rate, ok := factors.AnimalFactor(rec.Species)
		if !ok && count > 0 {
			misses = append(misses, LookupMiss{
				CompanyID: rec.CompanyID,
				Category:  CategoryLivestock,
				Field:     "species",
				Value:     rec.Species,
				Date:      rec.Date,
			})
		}

		emissions = append(emissions, CategoryEmission{
			Date:         rec.Date,
			Category:     CategoryLivestock,
			AmountKgCO2e: count * rate,
			Quantities: map[string]float64{
				"head_count": count,
			},
		})
	}
	return emissions, misses
}

// CalculateCrops converts cultivation records into emission contributions:
// nitrogen fertilizer use, baseline soil emissions per hectare, and the
// slash-burn term for records still in land preparation.
func CalculateCrops(records []CropRecord, factors *EmissionFactorTable) ([]CategoryEmission, []LookupMiss) {
	emissions := make([]CategoryEmission, 0, len(records))

	for _, rec := range records {
		fertilizer := quantity(rec.FertilizerKg)
		area := quantity(rec.AreaHectares)

		fertilizerTerm := fertilizer * factors.CropEmissionFactors.NitrogenFertilizer
		soilTerm := area * factors.CropEmissionFactors.SoilEmissions

		slashBurn := 0.0
		if rec.Status == CropStatusLandPreparation {
			slashBurn = area * SlashBurnFactorKgPerHectare
		}

		emissions = append(emissions, CategoryEmission{
			Date:         rec.Date,
			Category:     CategoryCrops,
			AmountKgCO2e: fertilizerTerm + soilTerm + slashBurn,
			Quantities: map[string]float64{
				"fertilizer_kg":      fertilizer,
				"area_hectares":      area,
				"fertilizer_kg_co2e": fertilizerTerm,
				"soil_kg_co2e":       soilTerm,
				"slash_burn_kg_co2e": slashBurn,
			},
		})
	}
	return emissions, nil
}

// CalculateWaste converts disposal records into emission contributions
func CalculateWaste(records []WasteRecord, factors *EmissionFactorTable) ([]CategoryEmission, []LookupMiss) {
	emissions := make([]CategoryEmission, 0, len(records))
	var misses []LookupMiss

	for _, rec := range records {
		qty := quantity(rec.QuantityKg)
		rate, ok := factors.WasteFactor(rec.WasteType)
		if !ok && qty > 0 {
			misses = append(misses, LookupMiss{
				CompanyID: rec.CompanyID,
				Category:  CategoryWaste,
				Field:     "waste_type",
				Value:     rec.WasteType,
				Date:      rec.Date,
			})
		}

		emissions = append(emissions, CategoryEmission{
			Date:         rec.Date,
			Category:     CategoryWaste,
			AmountKgCO2e: qty * rate,
			Quantities: map[string]float64{
				"quantity_kg": qty,
			},
		})
	}
	return emissions, misses
}
