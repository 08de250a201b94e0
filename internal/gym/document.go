package gym

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// DateLayout is the format of every calendar date stored in a document.
const DateLayout = time.DateOnly

// NutritionLog is what the user ate on one day of the current week. Values are kept as typed.
type NutritionLog struct {
	Protein  string `json:"protein,omitempty"`
	Calories string `json:"calories,omitempty"`
	Fat      string `json:"fat,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// HasMacros reports whether any macro was logged.
func (n NutritionLog) HasMacros() bool {
	return n.Protein != "" || n.Calories != "" || n.Fat != "" || n.Carbs != ""
}

// NutritionRecord is a day of nutrition in the long-term history.
type NutritionRecord struct {
	Date     string `json:"date"`
	Protein  int    `json:"protein"`
	Calories int    `json:"calories"`
	Fat      int    `json:"fat"`
	Carbs    int    `json:"carbs"`
}

func (n NutritionLog) record(date string) NutritionRecord {
	return NutritionRecord{
		Date:     date,
		Protein:  ParseLeadingInt(n.Protein),
		Calories: ParseLeadingInt(n.Calories),
		Fat:      ParseLeadingInt(n.Fat),
		Carbs:    ParseLeadingInt(n.Carbs),
	}
}

// BodyRecord is one body-metrics check-in.
type BodyRecord struct {
	Date   string `json:"date"`
	Weight string `json:"weight"`
	Waist  string `json:"waist"`
}

// BodyStats holds the latest measurements and the most recent check-ins, newest first.
type BodyStats struct {
	Weight  string       `json:"weight"`
	Waist   string       `json:"waist"`
	History []BodyRecord `json:"history"`
}

// HistoryEntry records what was actually performed for an exercise on a date.
type HistoryEntry struct {
	Date  string `json:"date"`
	Value string `json:"value"`
	Note  string `json:"note,omitempty"`
}

// PendingAdvance is a previewed week advance waiting for the user's confirmation.
type PendingAdvance struct {
	Plan      Plan     `json:"plan"`
	Changelog []string `json:"changelog"`
	Changes   []Change `json:"changes"`
}

// Document is the single per-user aggregate that is persisted as a whole.
type Document struct {
	Plan               Plan                      `json:"plan"`
	WeekCount          int                       `json:"weekCount"`
	WeekStart          string                    `json:"weekStart"`
	Completed          []string                  `json:"completed"`
	Intensities        map[string]int            `json:"intensities"`
	Actuals            map[string]string         `json:"actuals"`
	LastWeekActuals    map[string]string         `json:"lastWeekActuals"`
	BodyStats          BodyStats                 `json:"bodyStats"`
	Nutrition          map[Weekday]NutritionLog  `json:"nutrition"`
	NutritionHistory   []NutritionRecord         `json:"nutritionHistory"`
	ExerciseHistory    map[string][]HistoryEntry `json:"exerciseHistory"`
	MasterExerciseList []string                  `json:"masterExerciseList"`
	SkillLevels        map[string]int            `json:"skillLevels"`
	PendingAdvance     *PendingAdvance           `json:"pendingAdvance"`
}

// NewDocument creates the document of a new user.
func NewDocument(catalog *Catalog, now time.Time) Document {
	levels := make(map[string]int, len(catalog.SkillTrees))
	for _, t := range catalog.SkillTrees {
		levels[t.ID] = 1
	}
	doc := Document{
		Plan:               catalog.InitialPlan(),
		WeekCount:          1,
		WeekStart:          UpcomingMonday(now).Format(DateLayout),
		Completed:          nil,
		Intensities:        nil,
		Actuals:            nil,
		LastWeekActuals:    nil,
		BodyStats:          BodyStats{Weight: "", Waist: "", History: nil},
		Nutrition:          nil,
		NutritionHistory:   nil,
		ExerciseHistory:    nil,
		MasterExerciseList: catalog.SeedNames(),
		SkillLevels:        levels,
		PendingAdvance:     nil,
	}
	return doc.normalized()
}

// normalized fills nil collections and fixes up the plan so that callers never need nil checks.
func (d Document) normalized() Document {
	d.Plan = NormalizePlan(d.Plan)
	if d.WeekCount < 1 {
		d.WeekCount = 1
	}
	if d.Completed == nil {
		d.Completed = []string{}
	}
	if d.Intensities == nil {
		d.Intensities = map[string]int{}
	}
	if d.Actuals == nil {
		d.Actuals = map[string]string{}
	}
	if d.LastWeekActuals == nil {
		d.LastWeekActuals = map[string]string{}
	}
	if d.BodyStats.History == nil {
		d.BodyStats.History = []BodyRecord{}
	}
	if d.Nutrition == nil {
		d.Nutrition = map[Weekday]NutritionLog{}
	}
	if d.NutritionHistory == nil {
		d.NutritionHistory = []NutritionRecord{}
	}
	if d.ExerciseHistory == nil {
		d.ExerciseHistory = map[string][]HistoryEntry{}
	}
	d.MasterExerciseList = mergeMasterNames(d.MasterExerciseList)
	if d.SkillLevels == nil {
		d.SkillLevels = map[string]int{}
	}
	return d
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	out.Plan = d.Plan.Clone()
	out.Completed = slices.Clone(d.Completed)
	out.Intensities = maps.Clone(d.Intensities)
	out.Actuals = maps.Clone(d.Actuals)
	out.LastWeekActuals = maps.Clone(d.LastWeekActuals)
	out.BodyStats.History = slices.Clone(d.BodyStats.History)
	out.Nutrition = maps.Clone(d.Nutrition)
	out.NutritionHistory = slices.Clone(d.NutritionHistory)
	if d.ExerciseHistory != nil {
		out.ExerciseHistory = make(map[string][]HistoryEntry, len(d.ExerciseHistory))
		for name, entries := range d.ExerciseHistory {
			out.ExerciseHistory[name] = slices.Clone(entries)
		}
	}
	out.MasterExerciseList = slices.Clone(d.MasterExerciseList)
	out.SkillLevels = maps.Clone(d.SkillLevels)
	if d.PendingAdvance != nil {
		pending := PendingAdvance{
			Plan:      d.PendingAdvance.Plan.Clone(),
			Changelog: slices.Clone(d.PendingAdvance.Changelog),
			Changes:   slices.Clone(d.PendingAdvance.Changes),
		}
		out.PendingAdvance = &pending
	}
	return out
}

// WeekStartDate parses WeekStart. An unparsable value falls back to the smart Monday of now.
func (d Document) WeekStartDate(now time.Time) time.Time {
	t, err := time.ParseInLocation(DateLayout, d.WeekStart, now.Location())
	if err != nil {
		return UpcomingMonday(now)
	}
	return t
}

// DayDate is the calendar date of day in the current week.
func (d Document) DayDate(day Weekday, now time.Time) time.Time {
	return d.WeekStartDate(now).AddDate(0, 0, max(day.Index(), 0))
}

// IsCompleted reports whether the entry is marked complete this week.
func (d Document) IsCompleted(entryID string) bool {
	return slices.Contains(d.Completed, entryID)
}

// fields returns the top-level JSON members of d.
func (d Document) fields() (map[string]json.RawMessage, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("split document: %w", err)
	}
	return fields, nil
}

// DecodeDocument parses a stored document and normalizes it.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return d.normalized(), nil
}
