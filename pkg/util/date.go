package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// DateStr returns the ISO date daysAgo days before now, in UTC.
func DateStr(now time.Time, daysAgo int) string {
	return now.UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
}

// LastSaleDates returns the most recent count UTC dates falling on weekday,
// starting from the day before now (same-day reports aren't published yet)
// and scanning back at most 90 days. Descending, no duplicates. Weekly sales
// always satisfy count within the window; a short result means the caller
// asked for more history than exists.
func LastSaleDates(now time.Time, weekday time.Weekday, count int) []time.Time {
	results := make([]time.Time, 0, count)
	u := now.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for tries := 0; tries < 90 && len(results) < count; tries++ {
		if d.Weekday() == weekday {
			results = append(results, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return results
}

// ParseDateWords converts a textual English month name plus numeric day and
// year into an ISO date: ("11", "March", "2024") -> "2024-03-11". Returns
// false for an unrecognised month.
func ParseDateWords(day, month, year string) (string, bool) {
	m, ok := months[strings.ToLower(month)]
	if !ok {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d), true
}
