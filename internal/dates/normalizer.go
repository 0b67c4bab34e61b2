// Package dates normalizes the free-form date strings that arrive on
// bookings into comparable calendar days. Booking dates come from a chat
// flow and from manual entry, so anything from "2025-03-10" to "Feb 6" to
// plain garbage has to be tolerated: parse failures make a booking
// invisible to calendar matching, they never fail a read.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is a calendar day. Two values are the same day iff the structs are
// equal; time-of-day never participates in equality.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// DayOf truncates t to its calendar day.
func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Dom: t.Day()}
}

var (
	isoDate  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	monthDay = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
)

var monthsByAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Layouts tried by the generic attempt, roughly in the order an admin is
// likely to type them.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"01/02/2006",
	"2006/01/02",
	"01-02-2006",
}

// nowFunc is swapped in tests that pin the current year.
var nowFunc = time.Now

// Normalize matches s to a calendar day. Attempts, first success wins:
//
//  1. Strict YYYY-MM-DD: the day is built from the numeric components
//     directly. Generic parsers interpret a bare ISO date in some timezone
//     and can shift it by a day, so this form never reaches them.
//  2. Generic layout parse.
//  3. Three-letter month abbreviation followed by a day number ("Feb 6"),
//     assuming the current year.
//
// Anything else is no match (ok=false). Normalize never panics.
func Normalize(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, false
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		dom, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || dom < 1 || dom > 31 {
			return Day{}, false
		}
		return Day{Year: year, Month: time.Month(month), Dom: dom}, true
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), true
		}
	}

	if m := monthDay.FindStringSubmatch(s); m != nil {
		month := monthsByAbbrev[strings.ToLower(m[1])]
		dom, _ := strconv.Atoi(m[2])
		if dom >= 1 && dom <= 31 {
			return Day{Year: nowFunc().Year(), Month: month, Dom: dom}, true
		}
	}

	return Day{}, false
}

// SameDay reports whether the free-form date string s falls on day d.
// Unparsable strings match nothing.
func SameDay(s string, d Day) bool {
	got, ok := Normalize(s)
	return ok && got == d
}
