package enums

import "fmt"

// StockStatus is the derived supply tier for a material.
type StockStatus string

const (
	StockStatusCritical StockStatus = "critical"
	StockStatusLow      StockStatus = "low"
	StockStatusNormal   StockStatus = "normal"
	StockStatusOptimal  StockStatus = "optimal"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// MaterialUnit is the unit of measure a material is stocked in.
type MaterialUnit string

const (
	MaterialUnitMeters MaterialUnit = "meters"
	MaterialUnitPieces MaterialUnit = "pieces"
	MaterialUnitBoards MaterialUnit = "boards"
	MaterialUnitRolls  MaterialUnit = "rolls"
	MaterialUnitUnits  MaterialUnit = "units"
	MaterialUnitKg     MaterialUnit = "kg"
	MaterialUnitInches MaterialUnit = "inches"
	MaterialUnitLiters MaterialUnit = "liters"
)

var validMaterialUnits = []MaterialUnit{
	MaterialUnitMeters,
	MaterialUnitPieces,
	MaterialUnitBoards,
	MaterialUnitRolls,
	MaterialUnitUnits,
	MaterialUnitKg,
	MaterialUnitInches,
	MaterialUnitLiters,
}

// String implements fmt.Stringer.
func (u MaterialUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known MaterialUnit.
func (u MaterialUnit) IsValid() bool {
	for _, candidate := range validMaterialUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseMaterialUnit converts raw input into a MaterialUnit.
func ParseMaterialUnit(value string) (MaterialUnit, error) {
	for _, candidate := range validMaterialUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material unit %q", value)
}
