package models

// Food is a catalog item visible to the caller.
type Food struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Per100    Macros   `json:"per100"`
	UnitType  string   `json:"unitType"`
	BaseUnit  string   `json:"baseUnit"`
	Tags      FoodTags `json:"tags"`
	Allergens []string `json:"allergens"`
	Global    bool     `json:"global"`
	External  bool     `json:"external,omitempty"`
}

// FoodTags are dietary suitability markers.
type FoodTags struct {
	IsVeg   bool `json:"isVeg"`
	IsVegan bool `json:"isVegan"`
	IsJain  bool `json:"isJain"`
	IsEgg   bool `json:"isEgg"`
}

// FoodList wraps a list of foods.
type FoodList struct {
	Items []Food `json:"items"`
}

// FoodCreateRequest is the request body for POST /v1/me/foods.
type FoodCreateRequest struct {
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Per100    Macros    `json:"per100"`
	UnitType  string    `json:"unitType,omitempty"`
	Tags      *FoodTags `json:"tags,omitempty"`
	Allergens []string  `json:"allergens,omitempty"`
}

// FoodCategoryRequest is the request body for PATCH /v1/me/foods/{foodId}.
type FoodCategoryRequest struct {
	Category string `json:"category"`
}
