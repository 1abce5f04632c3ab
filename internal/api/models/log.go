package models

// Macros are calorie and macronutrient amounts, rounded to two decimals.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// LogEntry is one logged food quantity.
type LogEntry struct {
	ID       string    `json:"id"`
	FoodID   string    `json:"foodId"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit"`
	Values   Macros    `json:"values"`
	LoggedAt Timestamp `json:"loggedAt"`
}

// DailyLog is a user's log for one calendar day.
type DailyLog struct {
	ID              string     `json:"id"`
	Date            string     `json:"date"`
	Entries         []LogEntry `json:"entries"`
	WaterConsumedMl int        `json:"waterConsumedMl"`
	Totals          Macros     `json:"totals"`
	Suggestions     []string   `json:"suggestions"`
	UpdatedAt       Timestamp  `json:"updatedAt"`
}

// AddEntryRequest is the request body for POST /v1/me/logs/today/entries.
type AddEntryRequest struct {
	FoodID   string     `json:"foodId"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
	LoggedAt *Timestamp `json:"loggedAt,omitempty"`
}

// UpdateEntryRequest is the request body for PUT /v1/me/logs/today/entries/{entryId}.
type UpdateEntryRequest struct {
	Quantity float64    `json:"quantity"`
	LoggedAt *Timestamp `json:"loggedAt,omitempty"`
}

// WaterRequest is the request body for POST /v1/me/logs/today/water.
// DeltaMl may be negative.
type WaterRequest struct {
	DeltaMl *int `json:"deltaMl"`
}

// CategoryTotals maps a food category to the macros logged under it today.
type CategoryTotals struct {
	Date       string            `json:"date"`
	Categories map[string]Macros `json:"categories"`
}

// DaySummary is one day of the history window.
type DaySummary struct {
	Date            string `json:"date"`
	Totals          Macros `json:"totals"`
	WaterConsumedMl int    `json:"waterConsumedMl"`
}

// History is the response for GET /v1/me/history.
type History struct {
	Days  int          `json:"days"`
	Items []DaySummary `json:"items"`
}
