package food

// DefaultCatalog returns the built-in global foods.
func DefaultCatalog() []*Food {
	return []*Food{
		{
			Name: "rice", Category: CategoryGrains, UnitType: UnitTypeGram,
			Per100: Nutrients{Calories: 130, Protein: 2.7, Carbs: 28, Fats: 0.3},
			Tags:   Tags{IsVeg: true, IsVegan: true, IsJain: true},
		},
		{
			Name: "wheat roti", Category: CategoryGrains, UnitType: UnitTypeGram,
			Per100: Nutrients{Calories: 297, Protein: 9, Carbs: 55, Fats: 4},
			Tags:   Tags{IsVeg: true, IsVegan: true, IsJain: true},
		},
		{
			Name: "dal", Category: CategoryLegumes, UnitType: UnitTypeGram,
			Per100: Nutrients{Calories: 116, Protein: 9, Carbs: 20, Fats: 0.4},
			Tags:   Tags{IsVeg: true, IsVegan: true, IsJain: true},
		},
		{
			Name: "paneer", Category: CategoryDairy, UnitType: UnitTypeGram,
			Per100:    Nutrients{Calories: 265, Protein: 18, Carbs: 1.2, Fats: 20},
			Tags:      Tags{IsVeg: true, IsJain: true},
			Allergens: []Allergen{AllergenLactose},
		},
		{
			Name: "curd", Category: CategoryDairy, UnitType: UnitTypeGram,
			Per100:    Nutrients{Calories: 98, Protein: 11, Carbs: 3.4, Fats: 4.3},
			Tags:      Tags{IsVeg: true, IsJain: true},
			Allergens: []Allergen{AllergenLactose},
		},
		{
			Name: "egg", Category: CategoryEggs, UnitType: UnitTypePiece,
			Per100: Nutrients{Calories: 155, Protein: 13, Carbs: 1.1, Fats: 11},
			Tags:   Tags{IsEgg: true},
		},
		{
			Name: "chicken breast", Category: CategoryMeat, UnitType: UnitTypeGram,
			Per100: Nutrients{Calories: 165, Protein: 31, Carbs: 0, Fats: 3.6},
		},
		{
			Name: "oil", Category: CategoryOilsFats, UnitType: UnitTypeTbsp,
			Per100: Nutrients{Calories: 884, Protein: 0, Carbs: 0, Fats: 100},
			Tags:   Tags{IsVeg: true, IsVegan: true, IsJain: true},
		},
		{
			Name: "ghee", Category: CategoryOilsFats, UnitType: UnitTypeTbsp,
			Per100:    Nutrients{Calories: 900, Protein: 0, Carbs: 0, Fats: 100},
			Tags:      Tags{IsVeg: true, IsJain: true},
			Allergens: []Allergen{AllergenLactose},
		},
	}
}
