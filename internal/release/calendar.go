// Package release resolves the free-text option labels of the release
// field into canonical time windows and matches due dates against them.
package release

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/unicaf/gh-release-sync/internal/github"
)

// Window is one release cycle derived from a single-select option label.
// Start and End are inclusive calendar dates with Start <= End.
type Window struct {
	OptionID string
	Label    string
	Start    time.Time
	End      time.Time
}

// Contains reports whether the date falls inside the window
func (w Window) Contains(date time.Time) bool {
	d := truncate(date)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Calendar is the set of release windows of a board, in the order the
// options were declared by the server. Declaration order is significant:
// overlapping windows are resolved by first match, never by best fit.
type Calendar struct {
	windows  []Window
	byOption map[string]Window
}

// Windows returns the windows in declared order
func (c *Calendar) Windows() []Window {
	return c.windows
}

// Len returns the number of resolved windows
func (c *Calendar) Len() int {
	return len(c.windows)
}

// Lookup returns the window for an option ID
func (c *Calendar) Lookup(optionID string) (Window, bool) {
	w, ok := c.byOption[optionID]
	return w, ok
}

// Match returns the first window containing the date, in declared order
func (c *Calendar) Match(date time.Time) (Window, bool) {
	for _, w := range c.windows {
		if w.Contains(date) {
			return w, true
		}
	}
	return Window{}, false
}

// labelPattern matches "<Mon> <DD> - <Mon> <DD>" with an optional
// ", <YYYY>" and an optional trailing suffix (version tag, code name)
// which is ignored.
var labelPattern = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2})\s*-\s*([A-Za-z]{3,9})\.?\s+(\d{1,2})(?:\s*,\s*(\d{4}))?(?:\s|$)`)

// ParseLabel derives the [start, end] window from an option label. When
// the label carries no year, the start bound's year is inferred from the
// anchor: a start month after the anchor's month belongs to the previous
// year, a month before it to the next year, the same month to the
// anchor's year. The end bound follows the start and rolls into the next
// year when its month precedes the start's, so windows may span a year
// boundary ("Dec 09 - Jan 06").
func ParseLabel(label string, anchor time.Time) (start, end time.Time, ok bool) {
	m := labelPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return time.Time{}, time.Time{}, false
	}

	startMonth, ok1 := parseMonth(m[1])
	endMonth, ok2 := parseMonth(m[3])
	if !ok1 || !ok2 {
		return time.Time{}, time.Time{}, false
	}
	startDay, _ := strconv.Atoi(m[2])
	endDay, _ := strconv.Atoi(m[4])

	var startYear, endYear int
	if m[5] != "" {
		// An explicit year binds the end bound; the start rolls back
		// across the year boundary when its month comes later.
		endYear, _ = strconv.Atoi(m[5])
		startYear = endYear
		if startMonth > endMonth {
			startYear--
		}
	} else {
		startYear = inferYear(startMonth, anchor)
		endYear = startYear
		if endMonth < startMonth {
			endYear++
		}
	}

	start, ok = makeDate(startYear, startMonth, startDay)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok = makeDate(endYear, endMonth, endDay)
	if !ok || start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// inferYear applies the anchor month rule to a year-less bound
func inferYear(month time.Month, anchor time.Time) int {
	switch {
	case month > anchor.Month():
		return anchor.Year() - 1
	case month < anchor.Month():
		return anchor.Year() + 1
	default:
		return anchor.Year()
	}
}

func parseMonth(s string) (time.Month, bool) {
	if len(s) < 3 {
		return 0, false
	}
	name := strings.ToUpper(s[:1]) + strings.ToLower(s[1:3])
	t, err := time.Parse("Jan", name)
	if err != nil {
		return 0, false
	}
	return t.Month(), true
}

// makeDate builds a UTC date and rejects normalized overflow (Feb 30)
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveCalendar derives the release calendar from the release field's
// options. Options whose label matches one of the exclude substrings are
// omitted even when parseable; options whose label cannot be parsed are
// omitted with a warning. A malformed label never fails the resolution.
func ResolveCalendar(field *github.SingleSelectField, anchor time.Time, exclude []string) *Calendar {
	cal := &Calendar{byOption: make(map[string]Window)}
	for _, opt := range field.Options {
		if excluded(opt.Name, exclude) {
			slog.Debug("release option excluded", "label", opt.Name)
			continue
		}
		start, end, ok := ParseLabel(opt.Name, anchor)
		if !ok {
			slog.Warn("release option label not parseable, skipping", "label", opt.Name)
			continue
		}
		w := Window{OptionID: opt.ID, Label: opt.Name, Start: start, End: end}
		cal.windows = append(cal.windows, w)
		cal.byOption[opt.ID] = w
	}
	return cal
}

func excluded(label string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(strings.ToLower(label), strings.ToLower(p)) {
			return true
		}
	}
	return false
}
