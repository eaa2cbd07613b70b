package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tbxark/apptagent/types"
)

// ReasonDate is the failure reason for unparseable date input.
const ReasonDate = "unrecognized date format"

const dateLayout = "2006-01-02"

var (
	isoDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDateRe = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	dashDateRe  = regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`)
	monthDayRe  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
)

// weekdays in a fixed scan order so that resolution never depends on map
// iteration.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Date resolves natural-language and absolute date expressions to a
// YYYY-MM-DD value, relative to ref. Date tokens may be embedded in
// surrounding text ("maybe 2026-03-14 works"). Conventions:
//
//   - "next <weekday>" and a bare weekday name both resolve to the next
//     strictly-future occurrence; on that weekday itself, seven days ahead.
//   - "next week" is ref + 7 days.
//   - "next month" is the first day of the following calendar month.
//   - Month-name forms without a year use the reference year.
//
// Extraction of an already-normalized date yields the same date.
func Date(raw string, ref time.Time) types.FieldValue {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return types.Invalid(raw, ReasonDate)
	}

	if strings.Contains(text, "today") {
		return dateValue(raw, ref)
	}
	if strings.Contains(text, "tomorrow") {
		return dateValue(raw, ref.AddDate(0, 0, 1))
	}
	if strings.Contains(text, "yesterday") {
		return dateValue(raw, ref.AddDate(0, 0, -1))
	}
	if strings.Contains(text, "next week") {
		return dateValue(raw, ref.AddDate(0, 0, 7))
	}
	if strings.Contains(text, "next month") {
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return dateValue(raw, first.AddDate(0, 1, 0))
	}

	for _, wd := range weekdayNames {
		if !strings.Contains(text, wd.name) {
			continue
		}
		ahead := (int(wd.day) - int(ref.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return dateValue(raw, ref.AddDate(0, 0, ahead))
	}

	if m := isoDateRe.FindString(text); m != "" {
		return parseAbsolute(raw, dateLayout, m)
	}
	if m := slashDateRe.FindString(text); m != "" {
		return parseAbsolute(raw, "1/2/2006", m)
	}
	if m := dashDateRe.FindString(text); m != "" {
		return parseAbsolute(raw, "1-2-2006", m)
	}
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		return parseMonthDay(raw, m, ref)
	}

	return types.Invalid(raw, ReasonDate)
}

func dateValue(raw string, t time.Time) types.FieldValue {
	return types.ValidValue(raw, t.Format(dateLayout))
}

func parseAbsolute(raw, layout, match string) types.FieldValue {
	t, err := time.Parse(layout, match)
	if err != nil {
		// matched the shape but not the calendar, e.g. 2026-02-30
		return types.Invalid(raw, ReasonDate)
	}
	return dateValue(raw, t)
}

func parseMonthDay(raw string, m []string, ref time.Time) types.FieldValue {
	month, ok := monthsByName[m[1]]
	if !ok {
		return types.Invalid(raw, ReasonDate)
	}
	day, err := strconv.Atoi(m[2])
	if err != nil {
		return types.Invalid(raw, ReasonDate)
	}
	year := ref.Year()
	if m[3] != "" {
		year, err = strconv.Atoi(m[3])
		if err != nil {
			return types.Invalid(raw, ReasonDate)
		}
	}
	candidate := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	return parseAbsolute(raw, dateLayout, candidate)
}
