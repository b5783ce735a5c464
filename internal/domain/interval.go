package domain

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval returns ErrInvalidInterval unless start is strictly before end.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// DayInterval spans the calendar day named by date's year, month and day,
// taken as midnight to midnight in loc.
func DayInterval(date time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// Overlaps reports whether i (the candidate) and existing share any instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(existing Interval) bool {
	startsInside := !i.Start.Before(existing.Start) && i.Start.Before(existing.End)
	endsInside := i.End.After(existing.Start) && !i.End.After(existing.End)
	contains := !i.Start.After(existing.Start) && !i.End.Before(existing.End)
	return startsInside || endsInside || contains
}

func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}
