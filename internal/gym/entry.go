package gym

import (
	"encoding/json"
	"fmt"
)

// Kind classifies an exercise for progression purposes.
type Kind string

const (
	KindStrength   Kind = "strength"
	KindBodyweight Kind = "bodyweight"
	KindCore       Kind = "core"
	KindCardio     Kind = "cardio"
	KindMobility   Kind = "mobility"
)

// Unit is the unit of an entry's load or duration.
type Unit string

const (
	UnitSeconds Unit = "sec"
	UnitMinutes Unit = "min"
	UnitPounds  Unit = "lbs"
	UnitKilos   Unit = "kg"
)

// Prescription describes what is being progressed for an entry. It is one of Unloaded, Timed or Loaded.
type Prescription interface {
	prescription()
	// LoadValue is the numeric magnitude stored in the document, 0 for Unloaded.
	LoadValue() int
	// LoadUnit is the unit stored in the document, empty for Unloaded.
	LoadUnit() Unit
}

// Unloaded is repetition work without external load.
type Unloaded struct{}

// Timed is work measured in seconds or minutes.
type Timed struct {
	Value int
	Unit  Unit
}

// Loaded is work with an external load in pounds or kilograms.
type Loaded struct {
	Value int
	Unit  Unit
}

func (Unloaded) prescription() {}
func (Timed) prescription()    {}
func (Loaded) prescription()   {}

func (Unloaded) LoadValue() int { return 0 }
func (t Timed) LoadValue() int  { return t.Value }
func (l Loaded) LoadValue() int { return l.Value }

func (Unloaded) LoadUnit() Unit { return "" }
func (t Timed) LoadUnit() Unit  { return t.Unit }
func (l Loaded) LoadUnit() Unit { return l.Unit }

// NewPrescription builds the prescription matching a raw load and unit pair. Combinations that do not
// make sense, such as a load without a unit or a zero weight, become Unloaded.
func NewPrescription(value int, unit Unit) Prescription {
	switch unit {
	case UnitSeconds, UnitMinutes:
		return Timed{Value: value, Unit: unit}
	case UnitPounds, UnitKilos:
		if value > 0 {
			return Loaded{Value: value, Unit: unit}
		}
	}
	return Unloaded{}
}

// ExerciseEntry is one scheduled movement in a plan.
type ExerciseEntry struct {
	ID           string
	Name         string
	Sets         string
	Reps         string
	Kind         Kind
	Prescription Prescription
	Note         string
	Description  string
}

type entryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sets        string `json:"sets"`
	Reps        string `json:"reps"`
	Kind        Kind   `json:"kind"`
	Load        int    `json:"load"`
	Unit        Unit   `json:"unit"`
	Note        string `json:"note"`
	Description string `json:"description"`
}

func (e ExerciseEntry) MarshalJSON() ([]byte, error) {
	p := e.prescription()
	b, err := json.Marshal(entryJSON{
		ID:          e.ID,
		Name:        e.Name,
		Sets:        e.Sets,
		Reps:        e.Reps,
		Kind:        e.Kind,
		Load:        p.LoadValue(),
		Unit:        p.LoadUnit(),
		Note:        e.Note,
		Description: e.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal entry %s: %w", e.ID, err)
	}
	return b, nil
}

func (e *ExerciseEntry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal entry: %w", err)
	}
	*e = raw.entry()
	return nil
}

func (raw entryJSON) entry() ExerciseEntry {
	kind := raw.Kind
	if kind == "" {
		kind = KindStrength
	}
	return ExerciseEntry{
		ID:           raw.ID,
		Name:         raw.Name,
		Sets:         raw.Sets,
		Reps:         raw.Reps,
		Kind:         kind,
		Prescription: NewPrescription(raw.Load, raw.Unit),
		Note:         raw.Note,
		Description:  raw.Description,
	}
}

// prescription never returns nil so that zero-value entries behave as Unloaded.
func (e ExerciseEntry) prescription() Prescription {
	if e.Prescription == nil {
		return Unloaded{}
	}
	return e.Prescription
}

// LoadLabel renders the prescription for display, e.g. "25 lbs" or "60 sec". Unloaded work yields "".
func (e ExerciseEntry) LoadLabel() string {
	p := e.prescription()
	if _, ok := p.(Unloaded); ok {
		return ""
	}
	return fmt.Sprintf("%d %s", p.LoadValue(), p.LoadUnit())
}
