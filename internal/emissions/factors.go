package emissions

import "strings"

// NormalizeKey is the single canonical normalization applied to every
// free-form lookup label before it touches a rate map: lower-case, with
// spaces, underscores and hyphens stripped. "Yard Waste", "yard_waste" and
// "YardWaste" all resolve to "yardwaste". Every call site must go through
// this function; per-site lower-casing is what caused silent zero results
// in the past.
func NormalizeKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '_', '-':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fuelAliases maps canonical keys to their enum value, including the common
// data-entry synonyms seen in historical records
var fuelAliases = map[string]FuelType{
	"diesel":     FuelDiesel,
	"gasoline":   FuelGasoline,
	"petrol":     FuelGasoline,
	"naturalgas": FuelNaturalGas,
	"lpg":        FuelLPG,
	"propane":    FuelLPG,
	"kerosene":   FuelKerosene,
	"coal":       FuelCoal,
}

var speciesAliases = map[string]Species{
	"cattle":  SpeciesCattle,
	"cow":     SpeciesCattle,
	"cows":    SpeciesCattle,
	"buffalo": SpeciesBuffalo,
	"sheep":   SpeciesSheep,
	"goat":    SpeciesGoat,
	"goats":   SpeciesGoat,
	"swine":   SpeciesSwine,
	"pig":     SpeciesSwine,
	"pigs":    SpeciesSwine,
	"poultry": SpeciesPoultry,
	"chicken": SpeciesPoultry,
	"horse":   SpeciesHorse,
	"horses":  SpeciesHorse,
}

var wasteAliases = map[string]WasteType{
	"organic":    WasteOrganic,
	"foodwaste":  WasteFood,
	"food":       WasteFood,
	"yardwaste":  WasteYard,
	"paper":      WastePaper,
	"cardboard":  WastePaper,
	"plastic":    WastePlastic,
	"metal":      WasteMetal,
	"glass":      WasteGlass,
	"electronic": WasteElectronic,
	"ewaste":     WasteElectronic,
}

// ParseFuelType maps a free-form fuel label to its canonical type. Unknown
// labels return (FuelUnknown, false); the raw label stays on the record.
func ParseFuelType(raw string) (FuelType, bool) {
	if ft, ok := fuelAliases[NormalizeKey(raw)]; ok {
		return ft, true
	}
	return FuelUnknown, false
}

// ParseSpecies maps a free-form species label to its canonical type
func ParseSpecies(raw string) (Species, bool) {
	if sp, ok := speciesAliases[NormalizeKey(raw)]; ok {
		return sp, true
	}
	return SpeciesUnknown, false
}

// ParseWasteType maps a free-form waste label to its canonical type
func ParseWasteType(raw string) (WasteType, bool) {
	if wt, ok := wasteAliases[NormalizeKey(raw)]; ok {
		return wt, true
	}
	return WasteUnknown, false
}

// FuelFactor returns the kgCO2e-per-liter rate for a fuel label. Unknown
// fuels fail closed to a zero rate with ok=false so callers can trace the
// miss instead of erroring out.
func (t *EmissionFactorTable) FuelFactor(raw string) (float64, bool) {
	ft, ok := ParseFuelType(raw)
	if !ok {
		return 0, false
	}
	rate, ok := t.FuelEmissionFactors[string(ft)]
	return rate, ok
}

// AnimalFactor returns the kgCO2e-per-head rate for a species label
func (t *EmissionFactorTable) AnimalFactor(raw string) (float64, bool) {
	sp, ok := ParseSpecies(raw)
	if !ok {
		return 0, false
	}
	rate, ok := t.AnimalEmissionFactors[string(sp)]
	return rate, ok
}

// WasteFactor returns the kgCO2e-per-kg rate for a waste stream label
func (t *EmissionFactorTable) WasteFactor(raw string) (float64, bool) {
	wt, ok := ParseWasteType(raw)
	if !ok {
		return 0, false
	}
	rate, ok := t.WasteEmissionFactors[string(wt)]
	return rate, ok
}
