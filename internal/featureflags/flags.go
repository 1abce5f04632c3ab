// Package featureflags provides runtime switches for degrading optional
// features without a deploy.
package featureflags

import (
	"strconv"
	"time"
)

const (
	// FlagDisableExternalFoodLookup skips the USDA lookup in food search.
	FlagDisableExternalFoodLookup = "disable_external_food_lookup"

	// FlagDisableSuggestions stops regenerating suggestions on log mutations.
	FlagDisableSuggestions = "disable_suggestions"
)

// DegradationFlags lists the boolean kill switches, in reporting order.
var DegradationFlags = []string{FlagDisableExternalFoodLookup, FlagDisableSuggestions}

// Flag is a runtime switch. Value holds whatever JSON decoded into it, so
// numbers are float64.
type Flag struct {
	Key       string
	Value     any
	UpdatedAt time.Time
}

// BoolValue interprets the value as a switch. Non-zero numbers and strings
// accepted by strconv.ParseBool count; anything else yields fallback.
func (f *Flag) BoolValue(fallback bool) bool {
	if f == nil {
		return fallback
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// IntValue interprets the value as a whole number, truncating floats.
func (f *Flag) IntValue(fallback int) int {
	if f == nil {
		return fallback
	}
	switch v := f.Value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// DefaultFlags seeds every degradation switch as off.
func DefaultFlags() map[string]*Flag {
	defaults := make(map[string]*Flag, len(DegradationFlags))
	for _, key := range DegradationFlags {
		defaults[key] = &Flag{Key: key, Value: false}
	}
	return defaults
}

func (f *Flag) clone() *Flag {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}
