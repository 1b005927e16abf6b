package service

import (
	"testing"
	"time"
)

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestResolvePresetToday(t *testing.T) {
	loc := losAngeles(t)
	// 01:30 UTC is still the previous day in Los Angeles.
	now := time.Date(2026, 3, 12, 1, 30, 0, 0, time.UTC)

	r, err := ResolvePreset(PresetToday, now, loc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.From != "2026-03-11" || r.To != "2026-03-11" {
		t.Errorf("today = %+v, want 2026-03-11", r)
	}
}

func TestResolvePresetYesterday(t *testing.T) {
	loc := losAngeles(t)
	now := time.Date(2026, 3, 12, 20, 0, 0, 0, loc)

	r, err := ResolvePreset(PresetYesterday, now, loc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.From != "2026-03-11" || r.To != "2026-03-11" {
		t.Errorf("yesterday = %+v, want 2026-03-11", r)
	}
}

func TestResolvePresetThisWeek(t *testing.T) {
	loc := losAngeles(t)

	cases := []struct {
		name string
		now  time.Time
		from string
		to   string
	}{
		// Wednesday 2026-03-11: Monday through today.
		{"midweek", time.Date(2026, 3, 11, 12, 0, 0, 0, loc), "2026-03-09", "2026-03-11"},
		// Monday: single day.
		{"monday", time.Date(2026, 3, 9, 12, 0, 0, 0, loc), "2026-03-09", "2026-03-09"},
		// Saturday: capped at Friday.
		{"saturday", time.Date(2026, 3, 14, 12, 0, 0, 0, loc), "2026-03-09", "2026-03-13"},
		// Sunday: still last Monday through Friday.
		{"sunday", time.Date(2026, 3, 15, 12, 0, 0, 0, loc), "2026-03-09", "2026-03-13"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := ResolvePreset(PresetThisWeek, tc.now, loc)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if r.From != tc.from || r.To != tc.to {
				t.Errorf("this-week = %+v, want %s..%s", r, tc.from, tc.to)
			}
		})
	}
}

func TestResolvePresetThisMonth(t *testing.T) {
	loc := losAngeles(t)
	now := time.Date(2026, 3, 12, 12, 0, 0, 0, loc)

	r, err := ResolvePreset(PresetThisMonth, now, loc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.From != "2026-03-01" || r.To != "2026-03-12" {
		t.Errorf("this-month = %+v", r)
	}
}

func TestResolvePresetTotalIsUnbounded(t *testing.T) {
	loc := losAngeles(t)
	r, err := ResolvePreset(PresetTotal, time.Now(), loc)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r.From != "" || r.To != "" {
		t.Errorf("total = %+v, want unbounded", r)
	}
}

func TestResolvePresetUnknown(t *testing.T) {
	loc := losAngeles(t)
	if _, err := ResolvePreset("fortnight", time.Now(), loc); err == nil {
		t.Fatal("expected validation error for unknown preset")
	}
}
