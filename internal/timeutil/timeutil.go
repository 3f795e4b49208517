// Package timeutil holds the calendar-date and clock-time model shared by
// the scheduling engine. Dates are UTC day identifiers, times are
// minute-resolution; both convert to an absolute-minute scalar so
// intervals can be compared without timezone arithmetic.
package timeutil

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidFormat = errors.New("invalid date/time format")

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	minutesPerDay = 1440
)

// CalendarDate identifies one UTC day.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ClockTime is a wall-clock time of day, minute resolution.
type ClockTime struct {
	Hour   int
	Minute int
}

func ParseDate(s string) (CalendarDate, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func ParseTime(s string) (ClockTime, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// DateOf truncates an instant to its UTC day.
func DateOf(t time.Time) CalendarDate {
	u := t.UTC()
	return CalendarDate{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// TimeOf truncates an instant to its UTC minute of day.
func TimeOf(t time.Time) ClockTime {
	u := t.UTC()
	return ClockTime{Hour: u.Hour(), Minute: u.Minute()}
}

func (d CalendarDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CalendarDate) String() string {
	return d.Time().Format(dateLayout)
}

// DaysSinceEpoch counts whole UTC days since 1970-01-01.
func (d CalendarDate) DaysSinceEpoch() int64 {
	return d.Time().Unix() / 86400
}

func (d CalendarDate) Before(o CalendarDate) bool {
	return d.DaysSinceEpoch() < o.DaysSinceEpoch()
}

// AddDays returns the date n days after d (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (t ClockTime) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// AbsoluteMinutes maps a (date, time) pair onto a single scalar:
// day-count since epoch times 1440 plus the minute of day. Interval
// comparisons in the overlap validator happen on this scale.
func AbsoluteMinutes(d CalendarDate, t ClockTime) int64 {
	return d.DaysSinceEpoch()*minutesPerDay + int64(t.MinuteOfDay())
}

// DaysInSpan lists the calendar days an interval touches, for calendar
// highlighting. An end time of 00:00 means the interval ends at the
// midnight boundary, so the end day itself is not included.
func DaysInSpan(start, end CalendarDate, startTime, endTime ClockTime) []CalendarDate {
	if AbsoluteMinutes(end, endTime) <= AbsoluteMinutes(start, startTime) {
		return nil
	}

	last := end
	if endTime.MinuteOfDay() == 0 {
		last = end.AddDays(-1)
	}

	var days []CalendarDate
	for d := start; !last.Before(d); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
