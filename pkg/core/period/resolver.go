// Package period turns free-text period references into concrete time
// windows. All windows share a single business timezone and an inclusive end
// bound at 23:59:59.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// BusinessTimezone is the fixed zone every window is anchored to.
const BusinessTimezone = "America/Costa_Rica"

// WarnAutoDefault marks windows produced by the fallback rule rather than by
// anything found in the question.
const WarnAutoDefault = "period_auto_default"

// Window is a resolved [Start, End] range. End is inclusive.
type Window struct {
	Label       string    `json:"label"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Granularity string    `json:"granularity"` // day|week|month|quarter|range|rolling_30d|custom
	Source      string    `json:"source"`      // param|nlp|default
	Timezone    string    `json:"tz"`
	Warning     string    `json:"warning,omitempty"`
}

// RefDate returns the point date carried in a "date:YYYY-MM-DD" label, or the
// zero time when the window was not resolved from a single date.
func (w Window) RefDate() time.Time {
	if !strings.HasPrefix(w.Label, "date:") {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", strings.TrimPrefix(w.Label, "date:"))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Override is a caller-supplied explicit range. It wins over anything in the
// question text.
type Override struct {
	Start       time.Time
	End         time.Time
	Label       string
	Granularity string
}

// Resolver resolves free text into Windows. The clock is injectable so that
// relative phrases are testable.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver builds a resolver on the business timezone and the real clock.
func NewResolver() *Resolver {
	loc, err := time.LoadLocation(BusinessTimezone)
	if err != nil {
		// Costa Rica has no DST, a fixed offset is equivalent.
		loc = time.FixedZone(BusinessTimezone, -6*3600)
	}
	return &Resolver{loc: loc, now: func() time.Time { return time.Now() }}
}

// NewResolverAt pins the resolver clock. Resolving the same text twice against
// the same clock yields identical windows.
func NewResolverAt(now time.Time) *Resolver {
	r := NewResolver()
	fixed := now.In(r.loc)
	r.now = func() time.Time { return fixed }
	return r
}

// Location exposes the resolver's timezone for callers that build their own
// timestamps.
func (r *Resolver) Location() *time.Location { return r.loc }

var months = map[string]time.Month{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6,
	"julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

var quarters = map[string][2]time.Month{
	"q1": {1, 3}, "q2": {4, 6}, "q3": {7, 9}, "q4": {10, 12},
}

var (
	reDayRange  = regexp.MustCompile(`(?:del|desde el|from)\s*(\d{1,2})\s*(?:al|hasta el|to)\s*(\d{1,2})\s*(?:de\s*|of\s*)?([a-záéíóúñ]+)(?:\s*(?:de|of|,)?\s*(\d{4}))?`)
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	reYearMonth = regexp.MustCompile(`\b(\d{4})-(\d{1,2})\b`)
	reDMY       = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2,4})\b`)
	reDayOfMon  = regexp.MustCompile(`\b(\d{1,2})\s+(?:de|of)\s+([a-záéíóúñ]+)(?:\s+(?:de|of)\s+(\d{4}))?\b`)
	reQuarter   = regexp.MustCompile(`\b(q[1-4])\s*(\d{4})\b`)
	reMonthYear = regexp.MustCompile(`\b([a-záéíóúñ]+)\s+(\d{4})\b`)
	reToday     = regexp.MustCompile(`\b(?:today|hoy)\b`)
	reLast30    = regexp.MustCompile(`last\s*30\s*days|últimos\s*30\s*días|ultimos\s*30\s*dias`)
)

var reBareMonth = regexp.MustCompile(`\b(` + strings.Join(bareMonthNames(), "|") + `)\b`)

// "may" is too common an English word to treat as a month on its own; it still
// resolves in "may 2025" and "5 of may" forms.
func bareMonthNames() []string {
	names := make([]string, 0, len(months))
	for n := range months {
		if n == "may" {
			continue
		}
		names = append(names, n)
	}
	return names
}

// Resolve applies the extraction ladder: override, explicit day range, single
// date in any supported notation, quarter, month-year, bare month, relative
// phrase, then the current-month default with a warning.
func (r *Resolver) Resolve(freeText string, override *Override) Window {
	if override != nil && !override.Start.IsZero() && !override.End.IsZero() {
		label := override.Label
		if label == "" {
			label = "param"
		}
		gran := override.Granularity
		if gran == "" {
			gran = "custom"
		}
		return Window{
			Label:       label,
			Start:       override.Start.In(r.loc),
			End:         override.End.In(r.loc),
			Granularity: gran,
			Source:      "param",
			Timezone:    BusinessTimezone,
		}
	}

	text := strings.ToLower(strings.TrimSpace(freeText))
	now := r.now().In(r.loc)

	if m := reDayRange.FindStringSubmatch(text); m != nil {
		if mo, ok := months[m[3]]; ok {
			d1, _ := strconv.Atoi(m[1])
			d2, _ := strconv.Atoi(m[2])
			year := now.Year()
			if m[4] != "" {
				year, _ = strconv.Atoi(m[4])
			}
			return Window{
				Label:       m[0],
				Start:       time.Date(year, mo, d1, 0, 0, 0, 0, r.loc),
				End:         time.Date(year, mo, d2, 23, 59, 59, 0, r.loc),
				Granularity: "range",
				Source:      "nlp",
				Timezone:    BusinessTimezone,
			}
		}
	}

	if m := reISODate.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 {
			return r.dateWindow(y, time.Month(mo), d)
		}
	}

	if m := reYearMonth.FindStringSubmatch(text); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			w := r.monthWindow(y, time.Month(mo))
			w.Label = fmt.Sprintf("%04d-%02d", y, mo)
			return w
		}
	}

	if m := reDMY.FindStringSubmatch(text); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if y < 100 {
			y += 2000
		}
		if mo >= 1 && mo <= 12 {
			return r.dateWindow(y, time.Month(mo), d)
		}
	}

	if m := reDayOfMon.FindStringSubmatch(text); m != nil {
		if mo, ok := months[m[2]]; ok {
			d, _ := strconv.Atoi(m[1])
			y := now.Year()
			if m[3] != "" {
				y, _ = strconv.Atoi(m[3])
			}
			return r.dateWindow(y, mo, d)
		}
	}

	if m := reQuarter.FindStringSubmatch(text); m != nil {
		span := quarters[m[1]]
		y, _ := strconv.Atoi(m[2])
		start, _ := MonthBounds(y, span[0], r.loc)
		_, end := MonthBounds(y, span[1], r.loc)
		return Window{Label: m[0], Start: start, End: end, Granularity: "quarter", Source: "nlp", Timezone: BusinessTimezone}
	}

	if m := reMonthYear.FindStringSubmatch(text); m != nil {
		if mo, ok := months[m[1]]; ok {
			y, _ := strconv.Atoi(m[2])
			w := r.monthWindow(y, mo)
			w.Label = m[0]
			return w
		}
	}

	if m := reBareMonth.FindStringSubmatch(text); m != nil {
		mo := months[m[1]]
		y := now.Year()
		// A month far ahead of today refers to last year's month.
		if int(mo) > int(now.Month())+1 {
			y--
		}
		w := r.monthWindow(y, mo)
		w.Label = m[1]
		return w
	}

	if w, ok := r.relative(text, now); ok {
		return w
	}

	w := r.monthWindow(now.Year(), now.Month())
	w.Label = "auto: current month"
	w.Source = "default"
	w.Warning = WarnAutoDefault
	return w
}

func (r *Resolver) relative(text string, now time.Time) (Window, bool) {
	switch {
	case strings.Contains(text, "this week") || strings.Contains(text, "esta semana"):
		// ISO week, Monday through Sunday.
		weekday := (int(now.Weekday()) + 6) % 7
		start := dayStart(now.AddDate(0, 0, -weekday))
		end := dayEnd(start.AddDate(0, 0, 6))
		return Window{Label: "this week", Start: start, End: end, Granularity: "week", Source: "nlp", Timezone: BusinessTimezone}, true
	case strings.Contains(text, "this month") || strings.Contains(text, "este mes"):
		w := r.monthWindow(now.Year(), now.Month())
		w.Label = "this month"
		return w, true
	case strings.Contains(text, "last month") || strings.Contains(text, "mes pasado"):
		prev := now.AddDate(0, 0, -now.Day())
		w := r.monthWindow(prev.Year(), prev.Month())
		w.Label = "last month"
		return w, true
	case reLast30.MatchString(text):
		return Window{
			Label:       "last 30 days",
			Start:       dayStart(now.AddDate(0, 0, -29)),
			End:         dayEnd(now),
			Granularity: "rolling_30d",
			Source:      "nlp",
			Timezone:    BusinessTimezone,
		}, true
	case reToday.MatchString(text):
		return Window{
			Label:       "today",
			Start:       dayStart(now),
			End:         dayEnd(now),
			Granularity: "day",
			Source:      "nlp",
			Timezone:    BusinessTimezone,
		}, true
	}
	return Window{}, false
}

// dateWindow widens a single date to its containing month but keeps the exact
// date in the label so point lookups can recover it.
func (r *Resolver) dateWindow(y int, mo time.Month, d int) Window {
	w := r.monthWindow(y, mo)
	w.Label = fmt.Sprintf("date:%04d-%02d-%02d", y, int(mo), d)
	return w
}

func (r *Resolver) monthWindow(y int, mo time.Month) Window {
	start, end := MonthBounds(y, mo, r.loc)
	return Window{Start: start, End: end, Granularity: "month", Source: "nlp", Timezone: BusinessTimezone}
}

// MonthBounds returns the first instant and the inclusive last instant of a
// calendar month.
func MonthBounds(y int, mo time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// DaysInMonth is the calendar length of a month.
func DaysInMonth(y int, mo time.Month) int {
	return time.Date(y, mo, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
