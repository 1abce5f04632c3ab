package dailylog

import (
	"time"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/nutrition"
)

func invalidQuantity() *ValidationError {
	return &ValidationError{Errors: []models.FieldError{
		{Field: "quantity", Message: "must be greater than zero", Code: "out_of_range"},
	}}
}

// AddEntry logs quantity of f in unit at loggedAt. The quantity is stored
// normalized to the food's base unit.
func (l *DailyLog) AddEntry(f *food.Food, quantity float64, unit string, loggedAt time.Time) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, invalidQuantity()
	}

	normalized := nutrition.Normalize(quantity, unit, f)
	e := Entry{
		ID:       NewEntryID(),
		FoodID:   f.ID,
		Quantity: normalized,
		Unit:     string(f.BaseUnit),
		Values:   nutrition.ComputeValues(f, normalized),
		LoggedAt: loggedAt,
		Seq:      l.NextSeq,
	}
	l.NextSeq++

	l.Entries = append(l.Entries, e)
	l.sortEntries()
	l.Recalculate()
	return e, nil
}

// UpdateEntry sets the base-unit quantity of an entry and recomputes its
// values from f. A non-nil loggedAt moves the entry in the timeline.
func (l *DailyLog) UpdateEntry(entryID string, quantity float64, f *food.Food, loggedAt *time.Time) (Entry, error) {
	if quantity <= 0 {
		return Entry{}, invalidQuantity()
	}

	idx := l.indexOf(entryID)
	if idx < 0 {
		return Entry{}, ErrEntryNotFound
	}

	e := &l.Entries[idx]
	e.Quantity = quantity
	e.Values = nutrition.ComputeValues(f, quantity)
	if loggedAt != nil {
		e.LoggedAt = *loggedAt
	}
	updated := *e

	if loggedAt != nil {
		l.sortEntries()
	}
	l.Recalculate()
	return updated, nil
}

// RemoveEntry drops an entry. It reports whether anything was removed;
// removing an unknown id leaves the log unchanged.
func (l *DailyLog) RemoveEntry(entryID string) bool {
	idx := l.indexOf(entryID)
	if idx < 0 {
		return false
	}
	l.Entries = append(l.Entries[:idx], l.Entries[idx+1:]...)
	l.Recalculate()
	return true
}

// AdjustWater adds deltaMl to the water consumed, clamping at zero.
func (l *DailyLog) AdjustWater(deltaMl int) {
	l.WaterConsumedMl += deltaMl
	if l.WaterConsumedMl < 0 {
		l.WaterConsumedMl = 0
	}
}

// Recalculate sets Totals to the sum over the current entries.
func (l *DailyLog) Recalculate() {
	var totals nutrition.Values
	for _, e := range l.Entries {
		totals = totals.Add(e.Values)
	}
	l.Totals = totals
}

// Entry returns the entry with id.
func (l *DailyLog) Entry(entryID string) (Entry, bool) {
	idx := l.indexOf(entryID)
	if idx < 0 {
		return Entry{}, false
	}
	return l.Entries[idx], true
}

func (l *DailyLog) indexOf(entryID string) int {
	for i := range l.Entries {
		if l.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}
