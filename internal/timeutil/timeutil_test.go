package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-05-10")
	require.NoError(t, err)
	require.Equal(t, CalendarDate{Year: 2026, Month: time.May, Day: 10}, d)
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "2026-5-10", "10.05.2026", "2026-13-01", "yesterday"} {
		_, err := ParseDate(s)
		require.ErrorIs(t, err, ErrInvalidFormat, "input %q", s)
	}
}

func TestParseTime(t *testing.T) {
	ct, err := ParseTime("09:30")
	require.NoError(t, err)
	require.Equal(t, ClockTime{Hour: 9, Minute: 30}, ct)
	require.Equal(t, 570, ct.MinuteOfDay())
}

func TestParseTimeInvalid(t *testing.T) {
	for _, s := range []string{"", "9:3", "24:00", "10:60", "noon"} {
		_, err := ParseTime(s)
		require.ErrorIs(t, err, ErrInvalidFormat, "input %q", s)
	}
}

func TestAbsoluteMinutes(t *testing.T) {
	epoch := CalendarDate{Year: 1970, Month: time.January, Day: 1}
	require.Equal(t, int64(0), AbsoluteMinutes(epoch, ClockTime{}))
	require.Equal(t, int64(1470), AbsoluteMinutes(epoch.AddDays(1), ClockTime{Hour: 0, Minute: 30}))
}

func TestAbsoluteMinutesOrdersAcrossDays(t *testing.T) {
	d1, _ := ParseDate("2026-05-10")
	d2, _ := ParseDate("2026-05-11")
	lateNight := ClockTime{Hour: 23, Minute: 59}
	earlyMorning := ClockTime{Hour: 0, Minute: 1}
	require.Less(t, AbsoluteMinutes(d1, lateNight), AbsoluteMinutes(d2, earlyMorning))
}

func TestDaysInSpanExclusiveMidnightEnd(t *testing.T) {
	start, _ := ParseDate("2026-05-10")
	end, _ := ParseDate("2026-05-12")

	days := DaysInSpan(start, end, ClockTime{Hour: 10}, ClockTime{})
	require.Len(t, days, 2)
	require.Equal(t, 10, days[0].Day)
	require.Equal(t, 11, days[1].Day)
}

func TestDaysInSpanIncludesEndDayPastMidnight(t *testing.T) {
	start, _ := ParseDate("2026-05-10")
	end, _ := ParseDate("2026-05-12")

	days := DaysInSpan(start, end, ClockTime{Hour: 10}, ClockTime{Minute: 30})
	require.Len(t, days, 3)
	require.Equal(t, 12, days[2].Day)
}

func TestDaysInSpanSingleDay(t *testing.T) {
	d, _ := ParseDate("2026-05-10")
	days := DaysInSpan(d, d, ClockTime{Hour: 10}, ClockTime{Hour: 11})
	require.Len(t, days, 1)
	require.Equal(t, 10, days[0].Day)
}

func TestDaysInSpanEmptyInterval(t *testing.T) {
	d, _ := ParseDate("2026-05-10")
	require.Nil(t, DaysInSpan(d, d, ClockTime{Hour: 10}, ClockTime{Hour: 10}))
	require.Nil(t, DaysInSpan(d, d, ClockTime{Hour: 11}, ClockTime{Hour: 10}))
}

func TestDaysInSpanCrossesMonth(t *testing.T) {
	start, _ := ParseDate("2026-05-31")
	end, _ := ParseDate("2026-06-01")

	days := DaysInSpan(start, end, ClockTime{Hour: 22}, ClockTime{Hour: 2})
	require.Len(t, days, 2)
	require.Equal(t, time.May, days[0].Month)
	require.Equal(t, time.June, days[1].Month)
}
