package models

// FeatureFlag is a runtime switch.
type FeatureFlag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt *Timestamp  `json:"updatedAt,omitempty"`
}

// FeatureFlagList is the response for GET /v1/admin/feature-flags.
type FeatureFlagList struct {
	Flags []FeatureFlag `json:"flags"`
}

// FeatureFlagsUpsertRequest is the request body for PUT /v1/admin/feature-flags.
type FeatureFlagsUpsertRequest struct {
	Flags []FeatureFlag `json:"flags"`
}
