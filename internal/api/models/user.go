package models

// Me represents the authenticated user's profile and derived targets.
type Me struct {
	UserID            string    `json:"userId"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Profile           Profile   `json:"profile"`
	DailyCalorieLimit int       `json:"dailyCalorieLimit"`
	WaterGoalMl       int       `json:"waterGoalMl"`
	Streak            Streak    `json:"streak"`
	CreatedAt         Timestamp `json:"createdAt"`
	UpdatedAt         Timestamp `json:"updatedAt"`
}

// Profile holds body metrics and dietary preferences.
type Profile struct {
	Age           int      `json:"age"`
	Gender        string   `json:"gender"`
	HeightCm      float64  `json:"heightCm"`
	WeightKg      float64  `json:"weightKg"`
	ActivityLevel string   `json:"activityLevel"`
	Goal          string   `json:"goal"`
	DietType      string   `json:"dietType"`
	Allergies     []string `json:"allergies"`
}

// Streak is the consecutive-day activity counter.
type Streak struct {
	Current        int    `json:"current"`
	Longest        int    `json:"longest"`
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}

// ProfileInput is the request body for PUT /v1/me.
type ProfileInput struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Age           int      `json:"age"`
	Gender        string   `json:"gender"`
	HeightCm      float64  `json:"heightCm"`
	WeightKg      float64  `json:"weightKg"`
	ActivityLevel string   `json:"activityLevel"`
	Goal          string   `json:"goal"`
	DietType      string   `json:"dietType"`
	Allergies     []string `json:"allergies,omitempty"`
	WaterGoalMl   *int     `json:"waterGoalMl,omitempty"`
}
