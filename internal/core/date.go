package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day stored as UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a yyyy-MM-dd string. 0001-01-01 is the zero Date, which
// means "unset" everywhere else, so it is rejected; the earliest accepted day
// is 0001-01-02.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil || t.IsZero() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as yyyy-MM-dd.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether both dates are the same calendar day.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange builds a range and rejects start > end.
func NewDateRange(start, end Date) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return NewValidationError("startDate", err)
	}
	if err := r.End.Validate(); err != nil {
		return NewValidationError("endDate", err)
	}
	if r.Start.After(r.End) {
		return NewValidationError("endDate", ErrInvalidDateRange)
	}
	return nil
}

// Contains reports whether d falls inside the range, both ends inclusive.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether [start, end] shares at least one day with r.
// A span starting or ending inside r, or fully covering r, overlaps.
func (r DateRange) Overlaps(start, end Date) bool {
	if r.Contains(start) || r.Contains(end) {
		return true
	}
	return !start.After(r.Start) && !end.Before(r.End)
}

// MaxReportDays caps a report window at five years, leap days included.
const MaxReportDays = 5*365 + 2

// NumDays counts the days in the range, both ends inclusive.
func (r DateRange) NumDays() int64 {
	if r.Start.After(r.End) {
		return 0
	}
	return (r.End.Unix()-r.Start.Unix())/(24*60*60) + 1
}

// ValidateReport is Validate plus the MaxReportDays limit. Reports that
// expand a range day by day call it before doing any work.
func (r DateRange) ValidateReport() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.NumDays() > MaxReportDays {
		return NewValidationError("endDate", ErrRangeTooLong)
	}
	return nil
}

// Days returns every calendar day in the range in ascending order.
func (r DateRange) Days() []Date {
	if r.Start.After(r.End) {
		return nil
	}
	var days []Date
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
