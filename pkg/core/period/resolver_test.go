package period

import (
	"testing"
	"time"
)

// Fixed clock for every test: Friday 2025-03-14, mid-month.
func testResolver() *Resolver {
	loc, _ := time.LoadLocation(BusinessTimezone)
	if loc == nil {
		loc = time.FixedZone("CST", -6*3600)
	}
	return NewResolverAt(time.Date(2025, time.March, 14, 10, 30, 0, 0, loc))
}

func TestResolveDefaultIsCurrentMonth(t *testing.T) {
	r := testResolver()
	w := r.Resolve("how are my collections going?", nil)

	if w.Label != "auto: current month" {
		t.Errorf("label = %q, want auto: current month", w.Label)
	}
	if w.Start.Month() != time.March || w.Start.Year() != 2025 {
		t.Errorf("start = %v, want March 2025", w.Start)
	}
	if w.Source != "default" {
		t.Errorf("source = %q, want default", w.Source)
	}
	if w.Warning != WarnAutoDefault {
		t.Errorf("warning = %q, want %q", w.Warning, WarnAutoDefault)
	}
	if w.Start.Day() != 1 || w.End.Day() != 31 {
		t.Errorf("window = %v..%v, want full March", w.Start, w.End)
	}
}

func TestResolveOverrideWinsOverText(t *testing.T) {
	r := testResolver()
	loc := r.Location()
	start, end := MonthBounds(2024, time.November, loc)
	w := r.Resolve("report for last month", &Override{
		Start: start, End: end, Label: "2024-11", Granularity: "month",
	})

	if w.Label != "2024-11" {
		t.Errorf("label = %q, want 2024-11", w.Label)
	}
	if w.Source != "param" {
		t.Errorf("source = %q, want param", w.Source)
	}
	if w.Warning != "" {
		t.Errorf("unexpected warning %q", w.Warning)
	}
}

func TestResolveDayRange(t *testing.T) {
	r := testResolver()
	for _, q := range []string{
		"invoices from 1 to 15 of march",
		"facturas del 1 al 15 de marzo",
	} {
		w := r.Resolve(q, nil)
		if w.Granularity != "range" {
			t.Errorf("%q: granularity = %q, want range", q, w.Granularity)
			continue
		}
		if w.Start.Day() != 1 || w.Start.Month() != time.March {
			t.Errorf("%q: start = %v", q, w.Start)
		}
		if w.End.Day() != 15 || w.End.Hour() != 23 {
			t.Errorf("%q: end = %v, want inclusive day end", q, w.End)
		}
	}
}

func TestResolveSingleDateWidensToMonth(t *testing.T) {
	r := testResolver()
	w := r.Resolve("balance as of 2025-03-10", nil)

	if w.Label != "date:2025-03-10" {
		t.Errorf("label = %q, want date:2025-03-10", w.Label)
	}
	if w.Start.Day() != 1 || w.Start.Month() != time.March {
		t.Errorf("start = %v, want first of March", w.Start)
	}
	if w.End.Day() != 31 {
		t.Errorf("end = %v, want last of March", w.End)
	}
	ref := w.RefDate()
	if ref.IsZero() || ref.Day() != 10 {
		t.Errorf("RefDate = %v, want March 10", ref)
	}
}

func TestResolveDMYDate(t *testing.T) {
	r := testResolver()
	w := r.Resolve("what is due on 05/03/2025?", nil)
	if w.RefDate().Day() != 5 || w.RefDate().Month() != time.March {
		t.Errorf("RefDate = %v, want March 5", w.RefDate())
	}
}

func TestResolveYearMonth(t *testing.T) {
	r := testResolver()
	w := r.Resolve("aging for 2024-12", nil)
	if w.Label != "2024-12" || w.Granularity != "month" {
		t.Errorf("got %q/%q, want 2024-12/month", w.Label, w.Granularity)
	}
}

func TestResolveQuarter(t *testing.T) {
	r := testResolver()
	w := r.Resolve("how did Q2 2024 go?", nil)
	if w.Start.Month() != time.April || w.End.Month() != time.June {
		t.Errorf("window = %v..%v, want Apr..Jun", w.Start, w.End)
	}
	if w.Granularity != "quarter" {
		t.Errorf("granularity = %q, want quarter", w.Granularity)
	}
}

func TestResolveMonthYear(t *testing.T) {
	r := testResolver()
	w := r.Resolve("sales of january 2025", nil)
	if w.Label != "january 2025" {
		t.Errorf("label = %q, want january 2025", w.Label)
	}
	if w.Start.Month() != time.January || w.Start.Year() != 2025 {
		t.Errorf("start = %v, want January 2025", w.Start)
	}
}

func TestResolveBareMonthUsesPriorYearWhenFuture(t *testing.T) {
	r := testResolver() // clock is March 2025

	// A month more than one ahead of the clock refers to the prior year.
	w := r.Resolve("how was august?", nil)
	if w.Start.Month() != time.August || w.Start.Year() != 2024 {
		t.Errorf("august: window starts %v, want August 2024", w.Start)
	}

	// The immediately following month stays in the current year.
	w = r.Resolve("what about april?", nil)
	if w.Start.Month() != time.April || w.Start.Year() != 2025 {
		t.Errorf("april: window starts %v, want April 2025", w.Start)
	}
}

func TestResolveBareMayIsNotAMonth(t *testing.T) {
	r := testResolver()

	// "may" alone is a modal verb, not a month reference.
	w := r.Resolve("how may I improve my collections?", nil)
	if w.Source != "default" {
		t.Errorf("bare may: source = %q, want default", w.Source)
	}

	// With a year it is unambiguous again.
	w = r.Resolve("report for may 2024", nil)
	if w.Start.Month() != time.May || w.Start.Year() != 2024 {
		t.Errorf("may 2024: window starts %v, want May 2024", w.Start)
	}
}

func TestResolveRelatives(t *testing.T) {
	r := testResolver() // Friday 2025-03-14

	cases := []struct {
		question   string
		wantStart  time.Time
		wantEndDay int
	}{
		{"collections this week", time.Date(2025, 3, 10, 0, 0, 0, 0, r.Location()), 16},
		{"report for this month", time.Date(2025, 3, 1, 0, 0, 0, 0, r.Location()), 31},
		{"report for last month", time.Date(2025, 2, 1, 0, 0, 0, 0, r.Location()), 28},
		{"sales in the last 30 days", time.Date(2025, 2, 13, 0, 0, 0, 0, r.Location()), 14},
	}
	for _, tc := range cases {
		w := r.Resolve(tc.question, nil)
		if !w.Start.Equal(tc.wantStart) {
			t.Errorf("%q: start = %v, want %v", tc.question, w.Start, tc.wantStart)
		}
		if w.End.Day() != tc.wantEndDay {
			t.Errorf("%q: end day = %d, want %d", tc.question, w.End.Day(), tc.wantEndDay)
		}
	}
}

func TestResolveTodayIsSingleDay(t *testing.T) {
	r := testResolver()
	w := r.Resolve("what is due today?", nil)
	if w.Granularity != "day" {
		t.Errorf("granularity = %q, want day", w.Granularity)
	}
	if w.Start.Day() != 14 || w.End.Day() != 14 {
		t.Errorf("window = %v..%v, want March 14 only", w.Start, w.End)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := testResolver()
	q := "report for last month"
	first := r.Resolve(q, nil)
	second := r.Resolve(q, nil)
	if first.Label != second.Label || !first.Start.Equal(second.Start) || !first.End.Equal(second.End) {
		t.Errorf("resolve not stable: %+v vs %+v", first, second)
	}
}

func TestWindowEndIsInclusive(t *testing.T) {
	r := testResolver()
	w := r.Resolve("report for 2025-02", nil)
	if w.End.Hour() != 23 || w.End.Minute() != 59 || w.End.Second() != 59 {
		t.Errorf("end = %v, want 23:59:59", w.End)
	}
}

func TestDaysInMonth(t *testing.T) {
	if d := DaysInMonth(2024, time.February); d != 29 {
		t.Errorf("feb 2024 = %d, want 29", d)
	}
	if d := DaysInMonth(2025, time.February); d != 28 {
		t.Errorf("feb 2025 = %d, want 28", d)
	}
	if d := DaysInMonth(2025, time.December); d != 31 {
		t.Errorf("dec 2025 = %d, want 31", d)
	}
}
