package period

import (
	"testing"
	"time"
)

func TestExtractDatesMixedNotations(t *testing.T) {
	dates := ExtractDates("invoices due between 01/03/2025 and 2025-03-15", time.UTC)
	if len(dates) != 2 {
		t.Fatalf("got %d dates, want 2", len(dates))
	}
	if dates[0].Day() != 1 || dates[0].Month() != time.March {
		t.Errorf("first = %v, want March 1", dates[0])
	}
	if dates[1].Day() != 15 {
		t.Errorf("second = %v, want March 15", dates[1])
	}
}

func TestExtractDatesTwoDigitYear(t *testing.T) {
	dates := ExtractDates("due on 5/3/25", time.UTC)
	if len(dates) != 1 {
		t.Fatalf("got %d dates, want 1", len(dates))
	}
	if dates[0].Year() != 2025 {
		t.Errorf("year = %d, want 2025", dates[0].Year())
	}
}

func TestExtractDatesRejectsImpossible(t *testing.T) {
	if dates := ExtractDates("deadline 31/02/2025", time.UTC); len(dates) != 0 {
		t.Errorf("got %v, want no dates for February 31", dates)
	}
}

func TestExtractDatesKeepsTextOrder(t *testing.T) {
	dates := ExtractDates("compare 2025-03-15 against 01/01/2025", time.UTC)
	if len(dates) != 2 {
		t.Fatalf("got %d dates, want 2", len(dates))
	}
	if !dates[0].After(dates[1]) {
		t.Errorf("order = %v then %v, want text order preserved", dates[0], dates[1])
	}
}

func TestExtractDatesHonorsLocation(t *testing.T) {
	loc := NewResolver().Location()
	dates := ExtractDates("due on 2025-04-05", loc)
	if len(dates) != 1 {
		t.Fatalf("got %d dates, want 1", len(dates))
	}
	d := dates[0]
	if d.Location() != loc {
		t.Errorf("location = %v, want %v", d.Location(), loc)
	}
	if d.Hour() != 0 || d.Day() != 5 {
		t.Errorf("date = %v, want local midnight on the 5th", d)
	}
	if dates := ExtractDates("due on 2025-04-05", nil); dates[0].Location() != time.UTC {
		t.Errorf("nil location = %v, want UTC", dates[0].Location())
	}
}

func TestCountDates(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"no dates here", 0},
		{"due on 2025-03-10", 1},
		{"from 01/03/2025 to 15/03/2025", 2},
	}
	for _, tc := range cases {
		if got := CountDates(tc.text); got != tc.want {
			t.Errorf("CountDates(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
	if !HasDate("due 2025-03-10") || HasDate("nothing") {
		t.Error("HasDate misbehaves")
	}
	if !HasTwoDates("from 01/03/2025 to 15/03/2025") || HasTwoDates("due 2025-03-10") {
		t.Error("HasTwoDates misbehaves")
	}
}
