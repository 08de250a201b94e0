package gym

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

const (
	unloadedRepCeiling = 20
	loadedRepCeiling   = 12
	unloadedRepStep    = 2
	graduationLoad     = 5
	graduationReps     = 10
	loadIncrement      = 5
	loadedBaseReps     = 8
	rotationMaxEffort  = 6
	maxProgressEffort  = 7
	rotatedTimedValue  = 30
)

// Strategy holds the tunable parameters of the weekly progression.
type Strategy interface {
	Name() string
	// RotationChance is the probability that an easy strength entry is swapped for a substitute.
	RotationChance() float64
	// IntensityCap is the highest reported intensity at which the entry is still progressed.
	IntensityCap(p Prescription, kind Kind) int
	// RepStep is the repetition increase for loaded work below the rep ceiling.
	RepStep() int
	// TimeScale is the multiplier applied to timed work.
	TimeScale(rng *rand.Rand) float64
}

const (
	classicRotationChance = 0.20
	classicRepStep        = 2
	classicTimeScale      = 1.10
	variantRotationChance = 0.15
	variantRepStep        = 1
	variantTimeScaleMin   = 1.10
	variantTimeScaleSpan  = 0.05
)

// ClassicProgression adds two reps per cycle to loaded work and grows timed work by 10%. Unloaded and
// timed work only progress at intensity 6 or below.
type ClassicProgression struct{}

func (ClassicProgression) Name() string { return "classic" }

func (ClassicProgression) RotationChance() float64 { return classicRotationChance }

func (ClassicProgression) RepStep() int { return classicRepStep }

func (ClassicProgression) IntensityCap(p Prescription, _ Kind) int {
	if _, ok := p.(Loaded); ok {
		return maxProgressEffort
	}
	return rotationMaxEffort
}

func (ClassicProgression) TimeScale(_ *rand.Rand) float64 { return classicTimeScale }

// VariantProgression adds one rep per cycle to loaded work, grows timed work by 10-15% and rotates less
// often.
type VariantProgression struct{}

func (VariantProgression) Name() string { return "variant" }

func (VariantProgression) RotationChance() float64 { return variantRotationChance }

func (VariantProgression) RepStep() int { return variantRepStep }

func (VariantProgression) IntensityCap(_ Prescription, _ Kind) int { return maxProgressEffort }

func (VariantProgression) TimeScale(rng *rand.Rand) float64 {
	return variantTimeScaleMin + rng.Float64()*variantTimeScaleSpan
}

// StrategyByName returns the strategy called name.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "classic":
		return ClassicProgression{}, nil
	case "variant":
		return VariantProgression{}, nil
	default:
		return nil, fmt.Errorf("unknown progression strategy %q", name)
	}
}

// ChangeKind categorises an entry in the changelog.
type ChangeKind string

const (
	ChangeRotated   ChangeKind = "rotated"
	ChangeReps      ChangeKind = "reps"
	ChangeLoad      ChangeKind = "load"
	ChangeGraduated ChangeKind = "graduated"
	ChangeDuration  ChangeKind = "duration"
)

// Change is one line of the weekly changelog.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	EntryID string     `json:"entryId"`
	Text    string     `json:"text"`
}

// Engine advances a plan by one week.
type Engine struct {
	strategy Strategy
	resolver *Resolver
	mu       sync.Mutex
	rng      *rand.Rand
}

// NewEngine creates an engine. Pass a seeded rng to make rotations reproducible.
func NewEngine(strategy Strategy, resolver *Resolver, rng *rand.Rand) *Engine {
	return &Engine{strategy: strategy, resolver: resolver, mu: sync.Mutex{}, rng: rng}
}

// Strategy returns the engine's strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// AdvanceWeek returns the progressed copy of plan together with a human-readable changelog. The copy holds
// exactly the seven weekdays. The input plan is not modified.
func (e *Engine) AdvanceWeek(plan Plan, intensities map[string]int) (Plan, []string) {
	next, changes := e.Advance(plan, intensities)
	return next, Changelog(changes)
}

// Advance is AdvanceWeek with structured changes.
func (e *Engine) Advance(plan Plan, intensities map[string]int) (Plan, []Change) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := NormalizePlan(plan)
	var changes []Change
	for _, ref := range next.Entries() {
		effort, ok := intensities[ref.Entry.ID]
		if !ok {
			continue
		}
		entry, change, changed := e.advanceEntry(ref.Entry, effort)
		if !changed {
			continue
		}
		next.Replace(ref, entry)
		changes = append(changes, change)
	}
	return next, changes
}

func (e *Engine) advanceEntry(entry ExerciseEntry, effort int) (ExerciseEntry, Change, bool) {
	if entry.Kind == KindStrength && effort <= rotationMaxEffort {
		if rotated, change, ok := e.rotate(entry); ok {
			return rotated, change, true
		}
	}
	if effort > e.strategy.IntensityCap(entry.prescription(), entry.Kind) {
		return entry, Change{}, false
	}
	return e.progress(entry)
}

// rotate draws once and swaps the entry for a random substitute when the draw hits.
func (e *Engine) rotate(entry ExerciseEntry) (ExerciseEntry, Change, bool) {
	if e.rng.Float64() >= e.strategy.RotationChance() {
		return entry, Change{}, false
	}
	variants := e.resolver.Resolve(entry.Name)
	if len(variants) == 0 {
		return entry, Change{}, false
	}
	v := variants[e.rng.IntN(len(variants))]
	rotated := entry
	rotated.Name = v.Name
	rotated.Note = v.Note
	rotated.Description = v.Description
	if entry.prescription().LoadUnit() == UnitSeconds {
		rotated.Prescription = Timed{Value: rotatedTimedValue, Unit: UnitSeconds}
		rotated.Reps = "30s"
	} else {
		rotated.Prescription = Unloaded{}
		rotated.Reps = repsLabel(graduationReps)
	}
	return rotated, Change{
		Kind:    ChangeRotated,
		EntryID: entry.ID,
		Text:    fmt.Sprintf("Rotated: %s -> %s", entry.Name, v.Name),
	}, true
}

func (e *Engine) progress(entry ExerciseEntry) (ExerciseEntry, Change, bool) {
	switch p := entry.prescription().(type) {
	case Timed:
		value := int(math.Round(float64(p.Value) * e.strategy.TimeScale(e.rng)))
		entry.Prescription = Timed{Value: value, Unit: p.Unit}
		entry.Reps = fmt.Sprintf("%d %s", value, p.Unit)
		return entry, Change{
			Kind:    ChangeDuration,
			EntryID: entry.ID,
			Text:    fmt.Sprintf("%s: %d %s -> %d %s", entry.Name, p.Value, p.Unit, value, p.Unit),
		}, true
	case Loaded:
		reps := ParseLeadingInt(entry.Reps)
		if reps < loadedRepCeiling {
			return entry.withReps(reps, reps+e.strategy.RepStep())
		}
		entry.Prescription = Loaded{Value: p.Value + loadIncrement, Unit: p.Unit}
		entry.Reps = repsLabel(loadedBaseReps)
		return entry, Change{
			Kind:    ChangeLoad,
			EntryID: entry.ID,
			Text:    fmt.Sprintf("%s: +%d %s (reps reset to %d)", entry.Name, loadIncrement, p.Unit, loadedBaseReps),
		}, true
	default:
		if entry.Kind == KindCardio || entry.Kind == KindMobility {
			return entry, Change{}, false
		}
		reps := ParseLeadingInt(entry.Reps)
		if reps < unloadedRepCeiling {
			return entry.withReps(reps, reps+unloadedRepStep)
		}
		entry.Prescription = Loaded{Value: graduationLoad, Unit: UnitPounds}
		entry.Reps = repsLabel(graduationReps)
		return entry, Change{
			Kind:    ChangeGraduated,
			EntryID: entry.ID,
			Text: fmt.Sprintf("%s: Graduated to %d %s (reps reset to %d)",
				entry.Name, graduationLoad, UnitPounds, graduationReps),
		}, true
	}
}

func (e ExerciseEntry) withReps(from, to int) (ExerciseEntry, Change, bool) {
	e.Reps = repsLabel(to)
	return e, Change{
		Kind:    ChangeReps,
		EntryID: e.ID,
		Text:    fmt.Sprintf("%s: Reps %d -> %d", e.Name, from, to),
	}, true
}

func repsLabel(n int) string {
	return strconv.Itoa(n) + " reps"
}

// Changelog extracts the human-readable lines from changes.
func Changelog(changes []Change) []string {
	lines := make([]string, len(changes))
	for i, c := range changes {
		lines[i] = c.Text
	}
	return lines
}

// ParseLeadingInt parses the integer at the start of s, ignoring leading whitespace. "10-15 reps" yields
// 10. Anything without a leading number yields 0.
func ParseLeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
