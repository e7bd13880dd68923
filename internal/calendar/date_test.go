package calendar

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse_RoundTripsISO(t *testing.T) {
	d, err := Parse("2026-02-10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Year != 2026 || d.Month != time.February || d.Day != 10 {
		t.Fatalf("expected 2026-02-10, got %+v", d)
	}
	if d.String() != "2026-02-10" {
		t.Fatalf("expected 2026-02-10, got %s", d)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "2026-13-01", "10/02/2026", "2026-02-30"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestStartOfDay_IgnoresTimeAndZone(t *testing.T) {
	// 23:30 in UTC-8 is already the next day in UTC; the calendar date
	// must stay the one the clock shows locally.
	loc := time.FixedZone("PST", -8*60*60)
	ts := time.Date(2026, 2, 10, 23, 30, 0, 0, loc)
	if got := StartOfDay(ts); got != New(2026, time.February, 10) {
		t.Fatalf("expected 2026-02-10, got %s", got)
	}
}

func TestDaysBetween_SameDayIsZero(t *testing.T) {
	d := MustParse("2026-03-08")
	if n := DaysBetween(d, d); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestDaysBetween_AddDaysInverse(t *testing.T) {
	// Includes US and EU DST transitions; arithmetic must not drift.
	starts := []string{"2026-01-01", "2026-03-07", "2026-10-24", "2024-02-28"}
	for _, s := range starts {
		a := MustParse(s)
		for n := 0; n <= 400; n += 7 {
			if got := DaysBetween(a, a.AddDays(n)); got != n {
				t.Fatalf("DaysBetween(%s, +%d) = %d", a, n, got)
			}
		}
	}
}

func TestDaysBetween_NegativeFloorsAtZero(t *testing.T) {
	a := MustParse("2026-02-12")
	b := MustParse("2026-02-10")
	if n := DaysBetween(a, b); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestAddMonths_RollsOverShortMonths(t *testing.T) {
	got := MustParse("2026-01-31").AddMonths(1)
	if got != MustParse("2026-03-03") {
		t.Fatalf("expected 2026-03-03, got %s", got)
	}
	if got := MustParse("2026-05-15").AddMonths(-6); got != MustParse("2025-11-15") {
		t.Fatalf("expected 2025-11-15, got %s", got)
	}
}

func TestIsWeekend(t *testing.T) {
	cases := map[string]bool{
		"2026-02-07": true,  // Saturday
		"2026-02-08": true,  // Sunday
		"2026-02-09": false, // Monday
		"2026-02-13": false, // Friday
	}
	for s, want := range cases {
		if got := MustParse(s).IsWeekend(); got != want {
			t.Errorf("%s: expected %v, got %v", s, want, got)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if n := DaysInMonth(2024, time.February); n != 29 {
		t.Fatalf("expected 29, got %d", n)
	}
	if n := DaysInMonth(2026, time.February); n != 28 {
		t.Fatalf("expected 28, got %d", n)
	}
	if n := DaysInMonth(2026, time.December); n != 31 {
		t.Fatalf("expected 31, got %d", n)
	}
}

func TestJSON_UsesISOString(t *testing.T) {
	type payload struct {
		Start Date `json:"startDate"`
	}
	b, err := json.Marshal(payload{Start: MustParse("2026-02-10")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"startDate":"2026-02-10"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var p payload
	if err := json.Unmarshal([]byte(`{"startDate":"2026-12-31"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Start != MustParse("2026-12-31") {
		t.Fatalf("expected 2026-12-31, got %s", p.Start)
	}
}

func TestScan(t *testing.T) {
	var d Date
	if err := d.Scan("2026-07-04"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if d != MustParse("2026-07-04") {
		t.Fatalf("expected 2026-07-04, got %s", d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
}
