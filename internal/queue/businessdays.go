package queue

import "time"

// AddBusinessDays advances the date by n weekdays, skipping Saturdays and
// Sundays. Completion estimates are quoted in business days; the predictor
// deliberately uses calendar days for depletion dates.
func AddBusinessDays(start time.Time, n int) time.Time {
	current := start
	for added := 0; added < n; {
		current = current.AddDate(0, 0, 1)
		switch current.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			added++
		}
	}
	return current
}
