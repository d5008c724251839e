package nav

import (
	"math"
	"testing"
	"time"
)

func TestCalendarTimeValid(t *testing.T) {
	ts, ok := CalendarTime(2024, 6, 1, 12, 0, 0)
	if !ok {
		t.Fatal("expected valid conversion")
	}
	want := float64(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Unix())
	if ts != want {
		t.Errorf("timestamp = %v, want %v", ts, want)
	}
}

func TestCalendarTimeLeapDay(t *testing.T) {
	ts, ok := CalendarTime(2024, 2, 29, 0, 0, 0)
	if !ok {
		t.Fatal("2024-02-29 is a valid leap day")
	}
	if math.IsNaN(ts) {
		t.Fatal("leap day produced NaN")
	}

	if _, ok := CalendarTime(2023, 2, 29, 0, 0, 0); ok {
		t.Error("2023-02-29 should be invalid")
	}
}

func TestCalendarTimeInvalid(t *testing.T) {
	cases := []struct {
		name                    string
		month, day, hour, minute uint8
	}{
		{"month 13", 13, 1, 0, 0},
		{"month 0", 0, 1, 0, 0},
		{"day 32", 1, 32, 0, 0},
		{"day 0", 1, 0, 0, 0},
		{"hour 24", 1, 1, 24, 0},
		{"minute 60", 1, 1, 0, 60},
	}
	for _, c := range cases {
		ts, ok := CalendarTime(2024, c.month, c.day, c.hour, c.minute, 0)
		if ok {
			t.Errorf("%s: expected invalid", c.name)
		}
		if !math.IsNaN(ts) {
			t.Errorf("%s: timestamp = %v, want NaN sentinel", c.name, ts)
		}
	}
}

func TestCalendarTimeMicroseconds(t *testing.T) {
	base, _ := CalendarTime(2024, 6, 1, 12, 0, 0)
	ts, ok := CalendarTime(2024, 6, 1, 12, 0, 2_500_000)
	if !ok {
		t.Fatal("expected valid conversion")
	}
	if got := ts - base; math.Abs(got-2.5) > 1e-9 {
		t.Errorf("microsecond offset = %v, want 2.5", got)
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	orig, _ := CalendarTime(2024, 6, 1, 12, 34, 56_789_012)
	year, month, day, hour, minute, micro := CalendarFromTime(orig)
	back, ok := CalendarTime(year, month, day, hour, minute, micro)
	if !ok {
		t.Fatal("round trip produced invalid calendar")
	}
	if math.Abs(back-orig) > 1e-6 {
		t.Errorf("round trip = %v, want %v", back, orig)
	}
}

func TestNavModeKnown(t *testing.T) {
	for _, m := range []NavMode{ModePureInertial, ModeLooseCombined, ModeAligning, ModeStandby} {
		if !m.Known() {
			t.Errorf("mode %d should be known", m)
		}
	}
	if NavMode(1).Known() {
		t.Error("mode 1 is not defined")
	}
	if NavMode(7).String() != "unknown" {
		t.Errorf("String for undefined mode = %q", NavMode(7).String())
	}
}
