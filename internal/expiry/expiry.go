// Package expiry turns a whitelist duration choice into an absolute
// expiration timestamp.
package expiry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Duration is one of the selectable whitelist durations
type Duration string

const (
	Permanent   Duration = "permanent"
	OneWeek     Duration = "1week"
	OneMonth    Duration = "1month"
	ThreeMonths Duration = "3months"
	SixMonths   Duration = "6months"
	OneYear     Duration = "1year"
	Custom      Duration = "custom"
)

// CustomDateLayout is the literal format accepted for custom dates
const CustomDateLayout = "2006-01-02"

var (
	ErrUnknownDuration    = errors.New("unknown duration")
	ErrCustomDateRequired = errors.New("a custom date is required")
	ErrInvalidCustomDate  = errors.New("custom date must be formatted YYYY-MM-DD")
	ErrDateNotInFuture    = errors.New("custom date must be in the future")
)

// Option describes a duration for pickers
type Option struct {
	Value Duration `json:"value"`
	Label string   `json:"label"`
}

// Options lists the durations in the order they are offered
func Options() []Option {
	return []Option{
		{Permanent, "Permanent"},
		{OneWeek, "1 week"},
		{OneMonth, "1 month"},
		{ThreeMonths, "3 months"},
		{SixMonths, "6 months"},
		{OneYear, "1 year"},
		{Custom, "Custom date"},
	}
}

// ParseDuration validates a duration value; empty means permanent
func ParseDuration(s string) (Duration, error) {
	if s == "" {
		return Permanent, nil
	}
	for _, o := range Options() {
		if string(o.Value) == s {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDuration, s)
}

// Selection is the transient value a duration picker produces
type Selection struct {
	Duration   Duration `json:"duration"`
	CustomDate string   `json:"custom_date"`
}

// Resolver converts selections relative to a clock
type Resolver struct {
	// Now defaults to time.Now
	Now func() time.Time
	// Location is used to interpret custom dates; defaults to time.Local
	Location *time.Location
}

// Resolve returns nil for a permanent selection, or an expiration strictly
// after the resolution time.
func (r Resolver) Resolve(sel Selection) (*time.Time, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	var expires time.Time
	switch sel.Duration {
	case Permanent, "":
		return nil, nil
	case OneWeek:
		expires = now.AddDate(0, 0, 7)
	case OneMonth:
		expires = AddMonths(now, 1)
	case ThreeMonths:
		expires = AddMonths(now, 3)
	case SixMonths:
		expires = AddMonths(now, 6)
	case OneYear:
		expires = AddMonths(now, 12)
	case Custom:
		date, err := r.ParseCustomDate(sel.CustomDate)
		if err != nil {
			return nil, err
		}
		if !date.After(now) {
			return nil, fmt.Errorf("%w: %s", ErrDateNotInFuture, sel.CustomDate)
		}
		expires = date
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDuration, sel.Duration)
	}

	return &expires, nil
}

// ParseCustomDate parses a YYYY-MM-DD literal as midnight in the resolver's location
func (r Resolver) ParseCustomDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrCustomDateRequired
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	date, err := time.ParseInLocation(CustomDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCustomDate, s)
	}
	return date, nil
}

// Resolve converts a selection using the wall clock and local time zone
func Resolve(sel Selection) (*time.Time, error) {
	return Resolver{}.Resolve(sel)
}

// AddMonths advances t by n calendar months. When the target month is
// shorter, the day clamps to its last day, so Jan 31 + 1 month is Feb 28
// (or 29) rather than rolling into March.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// FormatISO renders an expiration for the wire; nil means permanent
func FormatISO(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// Describe renders an expiration for humans
func Describe(t *time.Time) string {
	if t == nil {
		return "permanent"
	}
	return "until " + t.Format(CustomDateLayout)
}
