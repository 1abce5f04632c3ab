// Package food provides the ingredient catalog: food definitions, their
// per-100 nutrient profiles, dietary tags and catalog search.
package food

import (
	"strings"
	"time"
)

// Category is the closed set of catalog categories.
type Category string

const (
	CategoryMillets    Category = "millets"
	CategoryGrains     Category = "grains"
	CategoryLegumes    Category = "legumes"
	CategoryDairy      Category = "dairy"
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryNutsSeeds  Category = "nuts_seeds"
	CategoryOilsFats   Category = "oils_fats"
	CategoryMeat       Category = "meat"
	CategoryEggs       Category = "eggs"
	CategoryProcessed  Category = "processed"
	CategoryOther      Category = "other"
)

var categories = []Category{
	CategoryMillets, CategoryGrains, CategoryLegumes, CategoryDairy,
	CategoryVegetables, CategoryFruits, CategoryNutsSeeds, CategoryOilsFats,
	CategoryMeat, CategoryEggs, CategoryProcessed, CategoryOther,
}

// Categories returns every valid category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// UnitType governs how logged quantities are converted to the base unit.
type UnitType string

const (
	UnitTypeGram   UnitType = "gram"
	UnitTypeTbsp   UnitType = "tbsp"
	UnitTypePiece  UnitType = "piece"
	UnitTypeSolid  UnitType = "solid"
	UnitTypeLiquid UnitType = "liquid"
)

// Valid reports whether u is a known unit type.
func (u UnitType) Valid() bool {
	switch u {
	case UnitTypeGram, UnitTypeTbsp, UnitTypePiece, UnitTypeSolid, UnitTypeLiquid:
		return true
	}
	return false
}

// BaseUnit returns the canonical unit a food of this type is measured in.
func (u UnitType) BaseUnit() BaseUnit {
	if u == UnitTypeLiquid {
		return BaseUnitMilliliter
	}
	return BaseUnitGram
}

// BaseUnit is the unit nutrient profiles are expressed per 100 of.
type BaseUnit string

const (
	BaseUnitGram       BaseUnit = "g"
	BaseUnitMilliliter BaseUnit = "ml"
)

// DietType is a user's dietary pattern.
type DietType string

const (
	DietVeg        DietType = "veg"
	DietEggetarian DietType = "eggetarian"
	DietNonVeg     DietType = "non_veg"
	DietVegan      DietType = "vegan"
	DietJain       DietType = "jain"
)

// Valid reports whether d is a known diet type.
func (d DietType) Valid() bool {
	switch d {
	case DietVeg, DietEggetarian, DietNonVeg, DietVegan, DietJain:
		return true
	}
	return false
}

// Allergen is a member of the closed allergen set.
type Allergen string

const (
	AllergenNuts    Allergen = "nuts"
	AllergenLactose Allergen = "lactose"
)

// Valid reports whether a is a known allergen.
func (a Allergen) Valid() bool {
	return a == AllergenNuts || a == AllergenLactose
}

// Nutrients holds macro values per 100 base units.
type Nutrients struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// Tags are the dietary suitability markers of a food.
type Tags struct {
	IsVeg   bool
	IsVegan bool
	IsJain  bool
	IsEgg   bool
}

// DefaultTags returns the tags assumed when none are supplied.
func DefaultTags() Tags {
	return Tags{IsVeg: true, IsJain: true}
}

// Food is a catalog item.
type Food struct {
	// ID is the unique food identifier (format: food_XXXX).
	ID string

	// Name is trimmed and lowercased.
	Name string

	Category Category

	// Per100 is the nutrient profile per 100 units of BaseUnit.
	Per100 Nutrients

	UnitType UnitType
	BaseUnit BaseUnit

	Tags      Tags
	Allergens []Allergen

	// OwnerID is empty for global catalog items.
	OwnerID string

	// External marks candidates from the external lookup that were never stored.
	External bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGlobal reports whether the food belongs to the shared catalog.
func (f *Food) IsGlobal() bool {
	return f.OwnerID == ""
}

// VisibleTo reports whether userID may read or edit the food.
func (f *Food) VisibleTo(userID string) bool {
	return f.IsGlobal() || f.OwnerID == userID
}

// SuitsDiet reports whether the food's tags allow it under diet d.
func (f *Food) SuitsDiet(d DietType) bool {
	switch d {
	case DietVeg:
		return f.Tags.IsVeg
	case DietVegan:
		return f.Tags.IsVegan
	case DietJain:
		return f.Tags.IsJain
	case DietEggetarian:
		return f.Tags.IsVeg || f.Tags.IsEgg
	default:
		return true
	}
}

// ContainsAny reports whether the food carries any of the given allergens.
func (f *Food) ContainsAny(allergens []Allergen) bool {
	for _, have := range f.Allergens {
		for _, avoid := range allergens {
			if have == avoid {
				return true
			}
		}
	}
	return false
}

// NormalizeName trims and lowercases a food name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func copyFood(f *Food) *Food {
	if f == nil {
		return nil
	}
	c := *f
	if f.Allergens != nil {
		c.Allergens = make([]Allergen, len(f.Allergens))
		copy(c.Allergens, f.Allergens)
	}
	return &c
}
