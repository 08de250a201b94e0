package gym_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/gympal/internal/gym"
)

func singleEntryPlan(e gym.ExerciseEntry) gym.Plan {
	return gym.NormalizePlan(gym.Plan{
		gym.Monday: {
			ID:       gym.Monday,
			Title:    "Monday",
			Subtitle: "",
			Sections: []gym.Section{{Title: "Main", Entries: []gym.ExerciseEntry{e}, AdHoc: false}},
		},
	})
}

func newEntry(name string, kind gym.Kind, reps string, p gym.Prescription) gym.ExerciseEntry {
	return gym.ExerciseEntry{
		ID:           "e1",
		Name:         name,
		Sets:         "3",
		Reps:         reps,
		Kind:         kind,
		Prescription: p,
		Note:         "",
		Description:  "",
	}
}

func TestEngine_AdvanceWeek(t *testing.T) {
	type result struct {
		Reps      string
		Load      string
		Changelog []string
	}
	tests := []struct {
		name     string
		strategy gym.Strategy
		entry    gym.ExerciseEntry
		effort   int
		want     result
	}{
		{
			name:     "unloaded reps grow by two",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Glute Bridges", gym.KindBodyweight, "12-15 reps", gym.Unloaded{}),
			effort:   5,
			want:     result{Reps: "14 reps", Load: "", Changelog: []string{"Glute Bridges: Reps 12 -> 14"}},
		},
		{
			name:     "unloaded work graduates to a load",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Dead Bugs", gym.KindCore, "20 reps", gym.Unloaded{}),
			effort:   3,
			want: result{Reps: "10 reps", Load: "5 lbs",
				Changelog: []string{"Dead Bugs: Graduated to 5 lbs (reps reset to 10)"}},
		},
		{
			name:     "hard unloaded work is kept",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Glute Bridges", gym.KindBodyweight, "12 reps", gym.Unloaded{}),
			effort:   7,
			want:     result{Reps: "12 reps", Load: "", Changelog: []string{}},
		},
		{
			name:     "loaded reps grow below the ceiling",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Goblet Squat", gym.KindStrength, "8 reps", gym.Loaded{Value: 25, Unit: gym.UnitPounds}),
			effort:   7,
			want:     result{Reps: "10 reps", Load: "25 lbs", Changelog: []string{"Goblet Squat: Reps 8 -> 10"}},
		},
		{
			name:     "loaded work at the ceiling adds load",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Goblet Squat", gym.KindStrength, "12 reps", gym.Loaded{Value: 25, Unit: gym.UnitKilos}),
			effort:   5,
			want: result{Reps: "8 reps", Load: "30 kg",
				Changelog: []string{"Goblet Squat: +5 kg (reps reset to 8)"}},
		},
		{
			name:     "maximal loaded effort is kept",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Goblet Squat", gym.KindStrength, "8 reps", gym.Loaded{Value: 25, Unit: gym.UnitPounds}),
			effort:   10,
			want:     result{Reps: "8 reps", Load: "25 lbs", Changelog: []string{}},
		},
		{
			name:     "timed work grows by ten percent",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Plank", gym.KindCore, "60 sec", gym.Timed{Value: 60, Unit: gym.UnitSeconds}),
			effort:   5,
			want:     result{Reps: "66 sec", Load: "66 sec", Changelog: []string{"Plank: 60 sec -> 66 sec"}},
		},
		{
			name:     "hard timed work is kept",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Plank", gym.KindCore, "60 sec", gym.Timed{Value: 60, Unit: gym.UnitSeconds}),
			effort:   7,
			want:     result{Reps: "60 sec", Load: "60 sec", Changelog: []string{}},
		},
		{
			name:     "unloaded cardio is never progressed",
			strategy: gym.ClassicProgression{},
			entry:    newEntry("Walk", gym.KindCardio, "10 reps", gym.Unloaded{}),
			effort:   1,
			want:     result{Reps: "10 reps", Load: "", Changelog: []string{}},
		},
		{
			name:     "variant adds a single rep",
			strategy: gym.VariantProgression{},
			entry:    newEntry("Goblet Squat", gym.KindStrength, "8 reps", gym.Loaded{Value: 25, Unit: gym.UnitPounds}),
			effort:   7,
			want:     result{Reps: "9 reps", Load: "25 lbs", Changelog: []string{"Goblet Squat: Reps 8 -> 9"}},
		},
		{
			name:     "variant progresses unloaded work at seven",
			strategy: gym.VariantProgression{},
			entry:    newEntry("Glute Bridges", gym.KindBodyweight, "12 reps", gym.Unloaded{}),
			effort:   7,
			want:     result{Reps: "14 reps", Load: "", Changelog: []string{"Glute Bridges: Reps 12 -> 14"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// An empty resolver rules out rotation.
			engine := gym.NewEngine(tt.strategy, gym.NewResolver(nil), rand.New(rand.NewPCG(1, 2)))
			plan := singleEntryPlan(tt.entry)
			next, changelog := engine.AdvanceWeek(plan, map[string]int{"e1": tt.effort})

			ref, ok := next.Find("e1")
			if !ok {
				t.Fatal("Entry missing from the advanced plan")
			}
			got := result{Reps: ref.Entry.Reps, Load: ref.Entry.LoadLabel(), Changelog: changelog}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("AdvanceWeek() mismatch (-want +got):\n%s", diff)
			}
			if orig, _ := plan.Find("e1"); orig.Entry.Reps != tt.entry.Reps {
				t.Errorf("Input plan was modified: reps %q", orig.Entry.Reps)
			}
		})
	}
}

func TestEngine_AdvanceWeek_variantTimeScale(t *testing.T) {
	engine := gym.NewEngine(gym.VariantProgression{}, gym.NewResolver(nil), rand.New(rand.NewPCG(7, 7)))
	plan := singleEntryPlan(newEntry("Plank", gym.KindCore, "100 sec", gym.Timed{Value: 100, Unit: gym.UnitSeconds}))
	for range 20 {
		next, _ := engine.AdvanceWeek(plan, map[string]int{"e1": 7})
		ref, _ := next.Find("e1")
		if v := ref.Entry.Prescription.LoadValue(); v < 110 || v > 115 {
			t.Errorf("Expected 110-115 sec, got %d", v)
		}
	}
}

func TestEngine_AdvanceWeek_withoutIntensity(t *testing.T) {
	engine := gym.NewEngine(gym.ClassicProgression{}, gym.NewResolver(nil), rand.New(rand.NewPCG(1, 2)))
	plan := singleEntryPlan(newEntry("Glute Bridges", gym.KindBodyweight, "12 reps", gym.Unloaded{}))
	next, changelog := engine.AdvanceWeek(plan, map[string]int{})
	if len(changelog) != 0 {
		t.Errorf("Expected no changes, got %v", changelog)
	}
	if diff := cmp.Diff(plan, next); diff != "" {
		t.Errorf("Plan changed without an intensity (-want +got):\n%s", diff)
	}
}

func TestEngine_AdvanceWeek_normalizesDays(t *testing.T) {
	engine := gym.NewEngine(gym.ClassicProgression{}, gym.NewResolver(nil), rand.New(rand.NewPCG(1, 2)))
	entry := newEntry("Glute Bridges", gym.KindBodyweight, "12 reps", gym.Unloaded{})
	plan := gym.Plan{
		gym.Monday: {
			ID: gym.Monday, Title: "Monday", Subtitle: "",
			Sections: []gym.Section{{Title: "Main", Entries: []gym.ExerciseEntry{entry}, AdHoc: false}},
		},
		"funday": {ID: "funday", Title: "Funday", Subtitle: "", Sections: []gym.Section{}},
	}

	next, _ := engine.AdvanceWeek(plan, map[string]int{"e1": 5})

	if len(next) != len(gym.Weekdays) {
		t.Errorf("Expected %d days, got %d", len(gym.Weekdays), len(next))
	}
	for _, day := range gym.Weekdays {
		if _, ok := next[day]; !ok {
			t.Errorf("Missing %s", day)
		}
	}
	if _, ok := next["funday"]; ok {
		t.Error("Unknown day survived the advance")
	}
	if ref, _ := next.Find("e1"); ref.Entry.Reps != "14 reps" {
		t.Errorf("Expected Monday entry to progress to 14 reps, got %q", ref.Entry.Reps)
	}
	if len(plan) != 2 {
		t.Errorf("Input plan was modified: %d days", len(plan))
	}
}

func TestEngine_AdvanceWeek_deterministic(t *testing.T) {
	alternatives := []gym.AlternativeSet{
		{Exercise: "Box Squats", Variants: []gym.Variant{
			{Name: "Sit-to-Stands", Note: "", Description: ""},
			{Name: "Step-Ups", Note: "", Description: ""},
		}},
	}
	entries := make([]gym.ExerciseEntry, 50)
	intensities := make(map[string]int, len(entries))
	for i := range entries {
		e := newEntry("Box Squats", gym.KindStrength, "8 reps", gym.Loaded{Value: 20, Unit: gym.UnitPounds})
		e.ID = fmt.Sprintf("e%d", i)
		entries[i] = e
		intensities[e.ID] = i % 8
	}
	plan := gym.NormalizePlan(gym.Plan{gym.Monday: {
		ID: gym.Monday, Title: "Monday", Subtitle: "",
		Sections: []gym.Section{{Title: "Main", Entries: entries, AdHoc: false}},
	}})

	for _, strategy := range []gym.Strategy{gym.ClassicProgression{}, gym.VariantProgression{}} {
		t.Run(strategy.Name(), func(t *testing.T) {
			first := gym.NewEngine(strategy, gym.NewResolver(alternatives), rand.New(rand.NewPCG(9, 9)))
			second := gym.NewEngine(strategy, gym.NewResolver(alternatives), rand.New(rand.NewPCG(9, 9)))

			wantPlan, wantLog := first.AdvanceWeek(plan, intensities)
			gotPlan, gotLog := second.AdvanceWeek(plan, intensities)

			if diff := cmp.Diff(wantPlan, gotPlan); diff != "" {
				t.Errorf("Plans differ for the same seed (-first +second):\n%s", diff)
			}
			if diff := cmp.Diff(wantLog, gotLog); diff != "" {
				t.Errorf("Changelogs differ for the same seed (-first +second):\n%s", diff)
			}
		})
	}
}

func TestEngine_AdvanceWeek_doubleProgression(t *testing.T) {
	tests := []struct {
		name     string
		strategy gym.Strategy
		want     []string
	}{
		{
			name:     "classic",
			strategy: gym.ClassicProgression{},
			want:     []string{"10 reps @ 50 lbs", "12 reps @ 50 lbs", "8 reps @ 55 lbs"},
		},
		{
			name:     "variant",
			strategy: gym.VariantProgression{},
			want: []string{"9 reps @ 50 lbs", "10 reps @ 50 lbs", "11 reps @ 50 lbs", "12 reps @ 50 lbs",
				"8 reps @ 55 lbs"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gym.NewEngine(tt.strategy, gym.NewResolver(nil), rand.New(rand.NewPCG(1, 2)))
			plan := singleEntryPlan(newEntry("Goblet Squat", gym.KindStrength, "8 reps",
				gym.Loaded{Value: 50, Unit: gym.UnitPounds}))

			var got []string
			for range len(tt.want) {
				plan, _ = engine.AdvanceWeek(plan, map[string]int{"e1": 5})
				ref, _ := plan.Find("e1")
				got = append(got, ref.Entry.Reps+" @ "+ref.Entry.LoadLabel())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Cycles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_AdvanceWeek_graduation(t *testing.T) {
	engine := gym.NewEngine(gym.ClassicProgression{}, gym.NewResolver(nil), rand.New(rand.NewPCG(1, 2)))
	plan := singleEntryPlan(newEntry("Glute Bridges", gym.KindBodyweight, "18 reps", gym.Unloaded{}))

	want := []string{"20 reps @ ", "10 reps @ 5 lbs", "12 reps @ 5 lbs"}
	var got []string
	for range len(want) {
		plan, _ = engine.AdvanceWeek(plan, map[string]int{"e1": 5})
		ref, _ := plan.Find("e1")
		got = append(got, ref.Entry.Reps+" @ "+ref.Entry.LoadLabel())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_AdvanceWeek_rotation(t *testing.T) {
	resolver := gym.NewResolver([]gym.AlternativeSet{
		{Exercise: "Box Squats", Variants: []gym.Variant{
			{Name: "Sit-to-Stands", Note: "Back Saver.", Description: "Sit then stand."},
			{Name: "Step-Ups", Note: "Unilateral.", Description: "Drive through heel."},
		}},
	})
	engine := gym.NewEngine(gym.ClassicProgression{}, resolver, rand.New(rand.NewPCG(42, 42)))

	const n = 400
	entries := make([]gym.ExerciseEntry, n)
	intensities := make(map[string]int, n)
	for i := range entries {
		e := newEntry("Box Squats", gym.KindStrength, "8 reps", gym.Loaded{Value: 20, Unit: gym.UnitPounds})
		e.ID = fmt.Sprintf("e%d", i)
		entries[i] = e
		intensities[e.ID] = 5
	}
	plan := gym.NormalizePlan(gym.Plan{gym.Monday: {
		ID: gym.Monday, Title: "Monday", Subtitle: "",
		Sections: []gym.Section{{Title: "Main", Entries: entries, AdHoc: false}},
	}})

	next, changelog := engine.AdvanceWeek(plan, intensities)
	if len(changelog) != n {
		t.Fatalf("Expected every entry to change, got %d changes", len(changelog))
	}
	rotated := 0
	for _, ref := range next.Entries() {
		switch ref.Entry.Name {
		case "Box Squats":
			if ref.Entry.Reps != "10 reps" || ref.Entry.LoadLabel() != "20 lbs" {
				t.Errorf("Unrotated entry not progressed: %s @ %s", ref.Entry.Reps, ref.Entry.LoadLabel())
			}
		case "Sit-to-Stands", "Step-Ups":
			rotated++
			if ref.Entry.Reps != "10 reps" || ref.Entry.LoadLabel() != "" {
				t.Errorf("Rotated entry should be unloaded at 10 reps: %s @ %s", ref.Entry.Reps, ref.Entry.LoadLabel())
			}
			if ref.Entry.Sets != "3" {
				t.Errorf("Rotation changed the sets to %q", ref.Entry.Sets)
			}
		default:
			t.Errorf("Unexpected exercise %q", ref.Entry.Name)
		}
	}
	// The classic rotation chance is 20%.
	if rotated < n/10 || rotated > n*3/10 {
		t.Errorf("Expected roughly %d rotations, got %d", n/5, rotated)
	}
}

func TestEngine_AdvanceWeek_timedRotation(t *testing.T) {
	resolver := gym.NewResolver([]gym.AlternativeSet{
		{Exercise: "Wall Sit", Variants: []gym.Variant{{Name: "Chair Pose", Note: "", Description: ""}}},
	})
	engine := gym.NewEngine(gym.ClassicProgression{}, resolver, rand.New(rand.NewPCG(3, 3)))
	plan := singleEntryPlan(newEntry("Wall Sit", gym.KindStrength, "45 sec", gym.Timed{Value: 45, Unit: gym.UnitSeconds}))
	for range 100 {
		next, _ := engine.AdvanceWeek(plan, map[string]int{"e1": 1})
		ref, _ := next.Find("e1")
		if ref.Entry.Name != "Chair Pose" {
			continue
		}
		if ref.Entry.Reps != "30s" || ref.Entry.LoadLabel() != "30 sec" {
			t.Errorf("Expected a 30 second hold, got %s @ %s", ref.Entry.Reps, ref.Entry.LoadLabel())
		}
		return
	}
	t.Error("Expected at least one rotation in 100 draws")
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "classic", wantErr: false},
		{in: "Classic", want: "classic", wantErr: false},
		{in: "variant", want: "variant", wantErr: false},
		{in: "aggressive", want: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := gym.StrategyByName(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StrategyByName(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.Name() != tt.want {
				t.Errorf("StrategyByName(%q) = %s, want %s", tt.in, got.Name(), tt.want)
			}
		})
	}
}

func TestParseLeadingInt(t *testing.T) {
	tests := map[string]int{
		"10-15 reps": 10,
		"  12 reps":  12,
		"8-12/side":  8,
		"30s":        30,
		"-3":         -3,
		"reps":       0,
		"":           0,
		"+":          0,
	}
	for in, want := range tests {
		if got := gym.ParseLeadingInt(in); got != want {
			t.Errorf("ParseLeadingInt(%q) = %d, want %d", in, got, want)
		}
	}
}
