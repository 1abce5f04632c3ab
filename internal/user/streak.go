package user

import "github.com/nutrilog/nutrilog/internal/clock"

// Touch records activity on today. It reports whether the streak changed.
//
// Repeated calls for the same day are no-ops. Activity on the day after
// LastActiveDate extends the streak, any longer gap restarts it at one.
func (s *Streak) Touch(today string) bool {
	if s.LastActiveDate == today {
		return false
	}

	if s.LastActiveDate != "" && clock.AddDays(s.LastActiveDate, 1) == today {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActiveDate = today
	return true
}
