// internal/normalize/date.go

// Package normalize converts the Czech-formatted values found on grant
// portals (dates, monetary amounts, free text) into canonical forms.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// czechMonths maps genitive and nominative month names to month
// numbers. Portals use both ("1. ledna 2026", "leden 2026").
var czechMonths = map[string]time.Month{
	"ledna": time.January, "leden": time.January,
	"února": time.February, "únor": time.February,
	"března": time.March, "březen": time.March,
	"dubna": time.April, "duben": time.April,
	"května": time.May, "květen": time.May,
	"června": time.June, "červen": time.June,
	"července": time.July, "červenec": time.July,
	"srpna": time.August, "srpen": time.August,
	"září":  time.September,
	"října": time.October, "říjen": time.October,
	"listopadu": time.November, "listopad": time.November,
	"prosince": time.December, "prosinec": time.December,
}

var (
	numericDateRe = regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})`)
	slashDateRe   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	wordDateRe    = regexp.MustCompile(`(\d{1,2})\.\s*([a-záéěíóúůýčďňřšťž]+)\s+(\d{4})`)
	isoDateRe     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// ParseDate extracts a date from a Czech-formatted string. It accepts
// "30.4.2026", "9. 1. 2026", "11/10/2022" (day-first), "1. ledna 2026"
// and ISO "2026-04-30".
// Returns nil when no parseable date is present, so callers can mark
// the record partial instead of guessing.
func ParseDate(s string) *time.Time {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(m[3], monthFromNumber(m[2]), m[1])
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], monthFromNumber(m[2]), m[3])
	}

	// Slash dates are day-first, like the dotted Czech form.
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], monthFromNumber(m[2]), m[3])
	}

	if m := wordDateRe.FindStringSubmatch(s); m != nil {
		if month, ok := czechMonths[m[2]]; ok {
			return makeDate(m[1], month, m[3])
		}
	}

	return nil
}

// deadlineRes anchor deadline phrases used on Czech grant portals.
// The date itself is parsed from the text following the anchor.
var deadlineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)uzávěrka[^0-9]{0,30}([0-9][0-9.\s\-]*\d{4}|\d{1,2}\.\s*[a-záéěíóúůýčďňřšťž]+\s+\d{4})`),
	regexp.MustCompile(`(?i)termín[^0-9]{0,40}([0-9][0-9.\s\-]*\d{4}|\d{1,2}\.\s*[a-záéěíóúůýčďňřšťž]+\s+\d{4})`),
	regexp.MustCompile(`(?i)nejpozději\s+do[^0-9]{0,20}([0-9][0-9.\s\-]*\d{4}|\d{1,2}\.\s*[a-záéěíóúůýčďňřšťž]+\s+\d{4})`),
	regexp.MustCompile(`(?i)žádost[^.]{0,60}?do[^0-9]{0,15}([0-9][0-9.\s\-]*\d{4}|\d{1,2}\.\s*[a-záéěíóúůýčďňřšťž]+\s+\d{4})`),
	regexp.MustCompile(`(?i)\bdo\s+([0-9]{1,2}\.\s*[0-9]{1,2}\.\s*\d{4}|\d{1,2}\.\s*[a-záéěíóúůýčďňřšťž]+\s+\d{4})`),
}

// ExtractDeadline scans free text for a submission deadline phrase and
// parses the date attached to it. Anchored phrases are tried in order
// of specificity before the bare "do <date>" form.
func ExtractDeadline(text string) *time.Time {
	for _, re := range deadlineRes {
		if m := re.FindStringSubmatch(text); m != nil {
			if d := ParseDate(m[1]); d != nil {
				return d
			}
		}
	}
	return nil
}

// FormatDate renders a date in the canonical ISO form used in output.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func monthFromNumber(s string) time.Month {
	n, err := strconv.Atoi(strings.TrimLeft(s, "0"))
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}

func makeDate(dayStr string, month time.Month, yearStr string) *time.Time {
	if month == 0 {
		return nil
	}
	day, err := strconv.Atoi(strings.TrimLeft(dayStr, "0"))
	if err != nil || day < 1 || day > 31 {
		return nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject dates like 31.2. that time.Date silently rolls over.
	if t.Day() != day || t.Month() != month {
		return nil
	}
	return &t
}
