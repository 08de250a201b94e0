package gym

import (
	"slices"
	"strings"
)

// Weekday is the key of a day in a Plan.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the plan keys in calendar order starting from Monday.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} //nolint:gochecknoglobals // constant table.

// ParseWeekday returns the weekday for a case-insensitive key.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Weekdays, d) {
		return d, true
	}
	return "", false
}

// Index is the zero-based offset of d from Monday, or -1 for an unknown day.
func (d Weekday) Index() int {
	return slices.Index(Weekdays, d)
}

// Title returns the capitalised day name, e.g. "Monday".
func (d Weekday) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Section is a named, ordered group of entries within a day.
type Section struct {
	Title   string          `json:"title"`
	Entries []ExerciseEntry `json:"items"`
	// AdHoc marks the section holding exercises the user added by hand.
	AdHoc bool `json:"adHoc,omitempty"`
}

// DayPlan is one weekday's schedule. Rest days have no sections.
type DayPlan struct {
	ID       Weekday   `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Sections []Section `json:"sections"`
}

// Plan maps every weekday to its schedule.
type Plan map[Weekday]DayPlan

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	out := make(Plan, len(p))
	for day, dp := range p {
		out[day] = dp.clone()
	}
	return out
}

func (dp DayPlan) clone() DayPlan {
	sections := make([]Section, len(dp.Sections))
	for i, s := range dp.Sections {
		sections[i] = Section{Title: s.Title, Entries: slices.Clone(s.Entries), AdHoc: s.AdHoc}
		if sections[i].Entries == nil {
			sections[i].Entries = []ExerciseEntry{}
		}
	}
	dp.Sections = sections
	return dp
}

// EntryRef locates an entry within a plan.
type EntryRef struct {
	Day     Weekday
	Section int
	Index   int
	Entry   ExerciseEntry
}

// Entries returns every entry in day, section, item order.
func (p Plan) Entries() []EntryRef {
	var refs []EntryRef
	for _, day := range Weekdays {
		dp, ok := p[day]
		if !ok {
			continue
		}
		for si, s := range dp.Sections {
			for ei, e := range s.Entries {
				refs = append(refs, EntryRef{Day: day, Section: si, Index: ei, Entry: e})
			}
		}
	}
	return refs
}

// Find looks up an entry by id.
func (p Plan) Find(id string) (EntryRef, bool) {
	for _, ref := range p.Entries() {
		if ref.Entry.ID == id {
			return ref, true
		}
	}
	return EntryRef{}, false
}

// Replace stores e at ref's position. The caller must own p.
func (p Plan) Replace(ref EntryRef, e ExerciseEntry) {
	p[ref.Day].Sections[ref.Section].Entries[ref.Index] = e
}

// Names returns the exercise names of the plan in order of appearance, without duplicates.
func (p Plan) Names() []string {
	var names []string
	for _, ref := range p.Entries() {
		if !slices.Contains(names, ref.Entry.Name) {
			names = append(names, ref.Entry.Name)
		}
	}
	return names
}
