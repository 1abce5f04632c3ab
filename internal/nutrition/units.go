// Package nutrition holds the pure calculations behind food logging: unit
// normalization, nutrient scaling and the daily calorie goal.
package nutrition

import (
	"strings"

	"github.com/nutrilog/nutrilog/internal/food"
)

// PieceSize is the number of base units one piece is taken to weigh.
const PieceSize = 100

var fixedFactors = map[string]float64{
	"g":     1,
	"kg":    1000,
	"ml":    1,
	"l":     1000,
	"piece": PieceSize,
	"pc":    PieceSize,
}

func isPieceLabel(unit string) bool {
	return unit == "piece" || unit == "pc"
}

func canonicalUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// IsKnownUnit reports whether unit has a conversion factor. Unknown units
// are still accepted by Normalize and treated as the food's base unit.
func IsKnownUnit(unit string) bool {
	u := canonicalUnit(unit)
	if _, ok := fixedFactors[u]; ok {
		return true
	}
	return u == "tbsp" || u == "cup"
}

// Factor returns the number of base units in one unit of the given label for f.
func Factor(unit string, f *food.Food) float64 {
	u := canonicalUnit(unit)
	liquid := f.UnitType == food.UnitTypeLiquid

	switch u {
	case "tbsp":
		if liquid {
			return 15
		}
		return 10
	case "cup":
		if liquid {
			return 240
		}
		return 120
	}
	if factor, ok := fixedFactors[u]; ok {
		return factor
	}
	return 1
}

// Normalize converts quantity in unit into f's base unit.
func Normalize(quantity float64, unit string, f *food.Food) float64 {
	if f.UnitType == food.UnitTypePiece && isPieceLabel(canonicalUnit(unit)) {
		return quantity * PieceSize
	}
	return quantity * Factor(unit, f)
}
