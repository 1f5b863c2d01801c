package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a local calendar date with no time-of-day and no timezone attached.
// Planner records carry date-only values; comparing them as instants silently
// shifts boundary dates in timezones ahead of UTC, so all calendar bucketing
// goes through this type instead of time.Time.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.Local))
}

// DateOf returns the calendar date of t in local time.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses the canonical "YYYY-MM-DD" form.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %v", s, err)
	}
	return DateOf(t), nil
}

// String returns the canonical "YYYY-MM-DD" form, used as the join key
// between calendar days and event records.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns the date at local midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool { return o.Before(d) }

func (d Date) IsZero() bool { return d == Date{} }

// WeekStart returns the Monday of the week containing d.
// A Sunday belongs to the week that started 6 days earlier.
func WeekStart(d Date) Date {
	if wd := d.Weekday(); wd == time.Sunday {
		return d.AddDays(-6)
	} else {
		return d.AddDays(-(int(wd) - 1))
	}
}

// WeekDays returns the 7 consecutive days of d's week, Monday first.
func WeekDays(d Date) [7]Date {
	var week [7]Date
	monday := WeekStart(d)
	for i := range week {
		week[i] = monday.AddDays(i)
	}
	return week
}

// TimeToMinutes converts a 24-hour "HH:MM" time of day to minutes since
// midnight. Empty or malformed input yields 0.
func TimeToMinutes(hhmm string) int {
	if hhmm == "" {
		return 0
	}
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return hours*60 + minutes
}
