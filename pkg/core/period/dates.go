package period

import (
	"sort"
	"strconv"
	"time"
)

// CountDates counts explicit dates in the text, in either D/M/Y or ISO
// notation. The classifier and the resolver share this so date-count
// detection cannot drift between them.
func CountDates(text string) int {
	return len(reDMY.FindAllString(text, -1)) + len(reISODate.FindAllString(text, -1))
}

// HasDate reports whether the text carries at least one explicit date.
func HasDate(text string) bool {
	return CountDates(text) >= 1
}

// HasTwoDates reports whether the text carries two or more explicit dates.
func HasTwoDates(text string) bool {
	return CountDates(text) >= 2
}

// ExtractDates returns every explicit date in the text, in order of
// appearance, built at midnight in loc so day windows line up with ledger
// timestamps in the same zone. A nil loc falls back to UTC. Invalid month or
// day numbers are skipped.
func ExtractDates(text string, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	type hit struct {
		pos int
		t   time.Time
	}
	var hits []hit

	for _, m := range reDMY.FindAllStringSubmatchIndex(text, -1) {
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if y < 100 {
			y += 2000
		}
		if t, ok := buildDate(y, mo, d, loc); ok {
			hits = append(hits, hit{pos: m[0], t: t})
		}
	}
	for _, m := range reISODate.FindAllStringSubmatchIndex(text, -1) {
		y, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		d, _ := strconv.Atoi(text[m[6]:m[7]])
		if t, ok := buildDate(y, mo, d, loc); ok {
			hits = append(hits, hit{pos: m[0], t: t})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]time.Time, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.t)
	}
	return out
}

func buildDate(y, mo, d int, loc *time.Location) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
