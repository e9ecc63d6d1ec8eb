package daterange

import (
	"math"
	"strings"
	"time"

	"homio/internal/domain/shared/fault"
)

var (
	ErrInvalidRange = fault.New(fault.ErrValidation, "daterange: end date must be after start date")
	ErrInvalidDate  = fault.New(fault.ErrValidation, "daterange: invalid date")
)

const day = 24 * time.Hour

// DateRange represents a closed interval [Start, End] of calendar days. Both
// bounds are normalized to noon UTC so that offsets never move a day across
// a boundary.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Normalize(start), End: Normalize(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Normalize keeps the calendar date of t and pins the time of day to 12:00 UTC.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// Parse accepts YYYY-MM-DD or RFC3339 input and returns the normalized day.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return Normalize(t), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return Normalize(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the number of whole days between the bounds, rounded up.
func (dr DateRange) Nights() int {
	diff := dr.End.Sub(dr.Start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// Overlaps uses the inclusive test start <= other.End && end >= other.Start,
// so two ranges sharing a single boundary day do overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Normalize(t)
	return !t.Before(dr.Start) && !t.After(dr.End)
}
