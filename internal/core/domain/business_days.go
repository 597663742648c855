package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// HolidayCalendar lists non-business dates on top of Saturdays and Sundays.
type HolidayCalendar struct {
	days map[string]struct{}
}

// NewHolidayCalendar builds a calendar from the given dates (time of day is ignored).
func NewHolidayCalendar(dates ...time.Time) HolidayCalendar {
	days := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		days[d.Format(dateLayout)] = struct{}{}
	}
	return HolidayCalendar{days: days}
}

// ParseHolidayCalendar parses a comma-separated list of YYYY-MM-DD dates.
func ParseHolidayCalendar(list string) (HolidayCalendar, error) {
	var dates []time.Time
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return HolidayCalendar{}, fmt.Errorf("invalid holiday %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return NewHolidayCalendar(dates...), nil
}

// IsBusinessDay reports whether t falls on a weekday that is not a holiday.
func (h HolidayCalendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := h.days[t.Format(dateLayout)]
	return !holiday
}

// AddBusinessDays returns the date n business days after from. Counting starts the day after from.
func (h HolidayCalendar) AddBusinessDays(from time.Time, n int) time.Time {
	d := from
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if h.IsBusinessDay(d) {
			added++
		}
	}
	return d
}
