package dialog

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

var (
	ErrInvalidDate   = errors.New("date is not in YYYY-MM-DD form")
	ErrDateInPast    = errors.New("date is before today")
	ErrRangeReversed = errors.New("end date is before start date")
)

// NewDateRange validates an extracted range against today (a civil date in
// the caller's time zone). An empty end means a single-day range.
func NewDateRange(start, end string, today time.Time) (DateRange, error) {
	if end == "" {
		end = start
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if s.Before(day) || e.Before(day) {
		return DateRange{}, ErrDateInPast
	}
	if e.Before(s) {
		return DateRange{}, ErrRangeReversed
	}
	return DateRange{Start: s.Format(dateLayout), End: e.Format(dateLayout)}, nil
}
