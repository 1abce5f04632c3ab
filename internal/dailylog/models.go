// Package dailylog owns the per-user, per-day food and water log.
//
// A log's totals are derived: every mutation recomputes them as a fresh sum
// over the current entries. Entries are kept in LoggedAt order, with the
// insertion sequence breaking ties.
package dailylog

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nutrilog/nutrilog/internal/nutrition"
)

// DailyLog is one user's log for one calendar day.
type DailyLog struct {
	// ID is the unique log identifier (format: log_XXXX).
	ID     string
	UserID string
	// Date is the YYYY-MM-DD calendar day. (UserID, Date) is unique.
	Date string

	Entries         []Entry
	WaterConsumedMl int

	// Totals always equals the sum of Entries' values.
	Totals nutrition.Values

	// Suggestions caches the most recently generated advisories.
	Suggestions []string

	// NextSeq is the sequence number given to the next entry.
	NextSeq int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is one logged food quantity.
type Entry struct {
	// ID is the entry identifier (format: ent_XXXX), unique within the log.
	ID     string
	FoodID string
	// Quantity is expressed in the food's base unit.
	Quantity float64
	// Unit is the base unit label of Quantity.
	Unit     string
	Values   nutrition.Values
	LoggedAt time.Time
	// Seq orders entries sharing a LoggedAt.
	Seq int
}

// New returns an empty log for userID on date.
func New(userID, date string, now time.Time) *DailyLog {
	return &DailyLog{
		ID:        NewID(),
		UserID:    userID,
		Date:      date,
		Entries:   []Entry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewID generates a new log identifier.
func NewID() string {
	return "log_" + uuid.New().String()[:22]
}

// NewEntryID generates a new entry identifier.
func NewEntryID() string {
	return "ent_" + uuid.New().String()[:22]
}

// FoodIDs returns the distinct food ids referenced by the log, in entry order.
func (l *DailyLog) FoodIDs() []string {
	ids := make([]string, 0, len(l.Entries))
	seen := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		if seen[e.FoodID] {
			continue
		}
		seen[e.FoodID] = true
		ids = append(ids, e.FoodID)
	}
	return ids
}

func (l *DailyLog) sortEntries() {
	sort.SliceStable(l.Entries, func(i, j int) bool {
		a, b := l.Entries[i], l.Entries[j]
		if !a.LoggedAt.Equal(b.LoggedAt) {
			return a.LoggedAt.Before(b.LoggedAt)
		}
		return a.Seq < b.Seq
	})
}

func copyLog(l *DailyLog) *DailyLog {
	if l == nil {
		return nil
	}
	c := *l
	c.Entries = append([]Entry{}, l.Entries...)
	if l.Suggestions != nil {
		c.Suggestions = append([]string{}, l.Suggestions...)
	}
	return &c
}
