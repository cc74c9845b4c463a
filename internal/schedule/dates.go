package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned when a date range cannot be derived.
var ErrInvalidArgument = errors.New("invalid argument")

// DateRange is the scheduling triple of a task. Exactly two of the fields are
// the source of truth at any edit; CalculateDates derives the third.
type DateRange struct {
	Start     *time.Time
	End       *time.Time
	RangeDays *int
}

// CalculateRangeDays returns the inclusive number of calendar days between
// start and end: 1 when both fall on the same day.
func CalculateRangeDays(start, end time.Time) int {
	return DaysBetween(start, end) + 1
}

// CalculateEndDate returns the last day of a range of rangeDays days that
// begins on start.
func CalculateEndDate(start time.Time, rangeDays int) time.Time {
	return AddDays(StartOfDay(start), rangeDays-1)
}

// CalculateStartDate returns the first day of a range of rangeDays days that
// ends on end.
func CalculateStartDate(end time.Time, rangeDays int) time.Time {
	return AddDays(StartOfDay(end), -(rangeDays - 1))
}

// CalculateDates fills in the missing field of r. The returned dates are
// normalized to the start of their day.
func CalculateDates(r DateRange) (DateRange, error) {
	set := 0
	for _, ok := range []bool{r.Start != nil, r.End != nil, r.RangeDays != nil} {
		if ok {
			set++
		}
	}
	if set != 2 {
		return DateRange{}, fmt.Errorf("%w: exactly two of start, end and range days are required, got %d", ErrInvalidArgument, set)
	}

	var start, end time.Time
	var rangeDays int
	switch {
	case r.RangeDays == nil:
		start, end = StartOfDay(*r.Start), StartOfDay(*r.End)
		rangeDays = CalculateRangeDays(start, end)
	case r.End == nil:
		start, rangeDays = StartOfDay(*r.Start), *r.RangeDays
		end = CalculateEndDate(start, rangeDays)
	default:
		end, rangeDays = StartOfDay(*r.End), *r.RangeDays
		start = CalculateStartDate(end, rangeDays)
	}

	if rangeDays < 1 {
		return DateRange{}, fmt.Errorf("%w: range must span at least one day, got %d", ErrInvalidArgument, rangeDays)
	}
	return DateRange{Start: &start, End: &end, RangeDays: &rangeDays}, nil
}
