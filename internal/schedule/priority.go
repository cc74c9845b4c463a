package schedule

import "time"

// CalculatePriority returns how urgent a task spanning startDate..endDate is
// at the instant current: 0 at the start of the first day, 1 at the end of
// the last day and above 1 once the task is overdue. current keeps its time
// of day, so the score moves within a day as well.
//
// Instants before the task starts score 0. A range that collapses to zero
// or negative length scores 0 until its end and 1 afterwards.
func CalculatePriority(startDate, endDate, current time.Time) float64 {
	start := StartOfDay(startDate)
	end := EndOfDay(endDate)

	rangeHours := end.Sub(start).Hours()
	if rangeHours <= 0 {
		if current.After(end) {
			return 1
		}
		return 0
	}

	elapsedHours := current.Sub(start).Hours()
	if elapsedHours < 0 {
		return 0
	}
	return Lerp(0, 1, elapsedHours/rangeHours)
}
