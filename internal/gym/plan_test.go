package gym_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gympal/internal/gym"
)

func TestNormalizePlan(t *testing.T) {
	plan := gym.Plan{
		gym.Monday: {
			ID:       "",
			Title:    "",
			Subtitle: "Legs",
			Sections: []gym.Section{{Title: "Main", Entries: nil, AdHoc: false}},
		},
		gym.Weekday("someday"): {ID: "someday", Title: "Extra", Subtitle: "", Sections: nil},
	}

	got := gym.NormalizePlan(plan)

	if len(got) != len(gym.Weekdays) {
		t.Fatalf("Expected %d days, got %d", len(gym.Weekdays), len(got))
	}
	if _, ok := got[gym.Weekday("someday")]; ok {
		t.Error("Expected the unknown key to be dropped")
	}
	monday := got[gym.Monday]
	if monday.ID != gym.Monday || monday.Title != "Monday" || monday.Subtitle != "Legs" {
		t.Errorf("Unexpected monday %+v", monday)
	}
	if monday.Sections[0].Entries == nil {
		t.Error("Expected entries to be an empty list")
	}
	friday := got[gym.Friday]
	if friday.Title != "Friday: Rest / Ad-Hoc" || friday.Subtitle != "Add exercises here if needed." {
		t.Errorf("Unexpected placeholder %+v", friday)
	}
	if len(friday.Sections) != 0 {
		t.Errorf("Expected no sections on the placeholder, got %d", len(friday.Sections))
	}

	t.Run("idempotent", func(t *testing.T) {
		if diff := cmp.Diff(got, gym.NormalizePlan(got)); diff != "" {
			t.Errorf("NormalizePlan is not idempotent (-first +second):\n%s", diff)
		}
	})

	t.Run("does not alias the input", func(t *testing.T) {
		again := gym.NormalizePlan(got)
		again[gym.Monday].Sections[0].Title = "Changed"
		if got[gym.Monday].Sections[0].Title != "Main" {
			t.Error("NormalizePlan shares sections with its input")
		}
	})
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]gym.Weekday{"monday": gym.Monday, " Sunday ": gym.Sunday, "FRIDAY": gym.Friday} {
		if got, ok := gym.ParseWeekday(in); !ok || got != want {
			t.Errorf("ParseWeekday(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := gym.ParseWeekday("funday"); ok {
		t.Error("Expected funday to be rejected")
	}
}

func TestUpcomingMonday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "monday", now: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), want: "2026-03-02"},
		{name: "wednesday", now: time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC), want: "2026-03-02"},
		{name: "saturday", now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), want: "2026-03-02"},
		{name: "sunday looks ahead", now: time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC), want: "2026-03-09"},
		{name: "across a year", now: time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC), want: "2025-12-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gym.UpcomingMonday(tt.now)
			if got.Format(gym.DateLayout) != tt.want {
				t.Errorf("UpcomingMonday(%s) = %s, want %s", tt.now, got.Format(gym.DateLayout), tt.want)
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Weekday() != time.Monday {
				t.Errorf("Expected midnight on a Monday, got %s", got)
			}
		})
	}
}

func TestNewPrescription(t *testing.T) {
	tests := []struct {
		value int
		unit  gym.Unit
		want  gym.Prescription
	}{
		{value: 30, unit: gym.UnitSeconds, want: gym.Timed{Value: 30, Unit: gym.UnitSeconds}},
		{value: 5, unit: gym.UnitMinutes, want: gym.Timed{Value: 5, Unit: gym.UnitMinutes}},
		{value: 25, unit: gym.UnitPounds, want: gym.Loaded{Value: 25, Unit: gym.UnitPounds}},
		{value: 0, unit: gym.UnitPounds, want: gym.Unloaded{}},
		{value: 10, unit: "", want: gym.Unloaded{}},
		{value: 10, unit: "stones", want: gym.Unloaded{}},
	}
	for _, tt := range tests {
		if got := gym.NewPrescription(tt.value, tt.unit); got != tt.want {
			t.Errorf("NewPrescription(%d, %q) = %#v, want %#v", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestExerciseEntry_UnmarshalJSON(t *testing.T) {
	var e gym.ExerciseEntry
	if err := e.UnmarshalJSON([]byte(`{"id":"x","name":"Row","sets":"3","reps":"10 reps","load":0,"unit":"lbs"}`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if e.Kind != gym.KindStrength {
		t.Errorf("Expected a missing kind to default to strength, got %q", e.Kind)
	}
	if _, ok := e.Prescription.(gym.Unloaded); !ok {
		t.Errorf("Expected a zero weight to be unloaded, got %#v", e.Prescription)
	}
	if e.LoadLabel() != "" {
		t.Errorf("Expected no load label, got %q", e.LoadLabel())
	}
}
