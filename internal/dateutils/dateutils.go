// Package dateutils provides the date parsing and arithmetic shared by the
// import parsers and the matching engine.
package dateutils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutUS       = "01/02/2006"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// CommonFormats is the list of layouts tried when parsing dates from CSV
// input, ordered from most to least common in bank and card exports.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	time.RFC3339,
	DateLayoutISO + "T15:04:05Z",
	DateLayoutFull,
	DateLayoutEuropean,
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using the common layouts.
// Returns the parsed time and the layout that matched.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date string")
	}

	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, layout, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// CleanDateString trims and collapses whitespace in a date string.
func CleanDateString(dateStr string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ToDateOnly drops the time-of-day component, keeping the calendar date in
// UTC. Import timestamps carry a time component the transaction model does
// not.
func ToDateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time as YYYY-MM-DD.
func ToISODate(t time.Time) string {
	return t.Format(DateLayoutISO)
}

// DaysBetween returns the absolute gap between two calendar dates in whole
// days, ignoring time of day.
func DaysBetween(a, b time.Time) float64 {
	diff := ToDateOnly(a).Sub(ToDateOnly(b)).Hours() / 24
	return math.Abs(diff)
}
