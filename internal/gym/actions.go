package gym

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/gympal/internal/contexthelpers"
)

const (
	adHocSectionTitle  = "Added Exercises"
	statusSectionTitle = "Status"
	restDayName        = "Rest Day / Active Recovery"
	bodyHistoryLimit   = 20
	hoursPerDay        = 24
)

// AllowedIntensities are the effort scores a user can report.
var AllowedIntensities = []int{1, 3, 5, 7, 10} //nolint:gochecknoglobals // constant table.

// ToggleComplete flips the completion of an entry and reports whether it is now complete. Un-completing
// an entry forgets its intensity.
func (s *Service) ToggleComplete(ctx context.Context, entryID string) (bool, error) {
	var completed bool
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		if _, ok := doc.Plan.Find(entryID); !ok {
			return doc, ErrUnknownEntry
		}
		if i := slices.Index(doc.Completed, entryID); i >= 0 {
			doc.Completed = slices.Delete(doc.Completed, i, i+1)
			delete(doc.Intensities, entryID)
			completed = false
			return doc, nil
		}
		doc.Completed = append(doc.Completed, entryID)
		completed = true
		return doc, nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle %s: %w", entryID, err)
	}
	return completed, nil
}

// SetIntensity records the reported effort for an entry and marks it complete.
func (s *Service) SetIntensity(ctx context.Context, entryID string, value int) error {
	if !slices.Contains(AllowedIntensities, value) {
		return ErrInvalidIntensity
	}
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		if _, ok := doc.Plan.Find(entryID); !ok {
			return doc, ErrUnknownEntry
		}
		doc.Intensities[entryID] = value
		if !slices.Contains(doc.Completed, entryID) {
			doc.Completed = append(doc.Completed, entryID)
		}
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("set intensity of %s: %w", entryID, err)
	}
	return nil
}

// SetActual records what was actually performed, e.g. "3x12". Blank text clears the record.
func (s *Service) SetActual(ctx context.Context, entryID string, text string) error {
	text = strings.TrimSpace(text)
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		if _, ok := doc.Plan.Find(entryID); !ok {
			return doc, ErrUnknownEntry
		}
		if text == "" {
			delete(doc.Actuals, entryID)
		} else {
			doc.Actuals[entryID] = text
		}
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("set actual of %s: %w", entryID, err)
	}
	return nil
}

// Alternatives lists the substitutes offered for an entry. ErrNoAlternatives is returned when there are none.
func (s *Service) Alternatives(ctx context.Context, entryID string) (ExerciseEntry, []Variant, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return ExerciseEntry{}, nil, err
	}
	ref, ok := doc.Plan.Find(entryID)
	if !ok {
		return ExerciseEntry{}, nil, fmt.Errorf("alternatives of %s: %w", entryID, ErrUnknownEntry)
	}
	variants := s.resolver.Resolve(ref.Entry.Name)
	if len(variants) == 0 {
		return ref.Entry, nil, ErrNoAlternatives
	}
	return ref.Entry, variants, nil
}

// Swap replaces an entry with the substitute called name, or with the first substitute when name is blank.
// The load is reset; the sets, reps and id are kept.
func (s *Service) Swap(ctx context.Context, entryID string, name string) (ExerciseEntry, error) {
	var swapped ExerciseEntry
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		ref, ok := doc.Plan.Find(entryID)
		if !ok {
			return doc, ErrUnknownEntry
		}
		variants := s.resolver.Resolve(ref.Entry.Name)
		if len(variants) == 0 {
			return doc, ErrNoAlternatives
		}
		variant := variants[0]
		if name != "" {
			i := slices.IndexFunc(variants, func(v Variant) bool { return v.Name == name })
			if i < 0 {
				return doc, fmt.Errorf("%q is not offered for %q: %w", name, ref.Entry.Name, ErrInvalidInput)
			}
			variant = variants[i]
		}
		swapped = ref.Entry
		swapped.Name = variant.Name
		swapped.Note = variant.Note
		swapped.Description = variant.Description
		if _, loaded := swapped.prescription().(Loaded); loaded {
			swapped.Prescription = Unloaded{}
		}
		doc.Plan.Replace(ref, swapped)
		doc.MasterExerciseList, _ = AddMasterName(doc.MasterExerciseList, variant.Name)
		return doc, nil
	})
	if err != nil {
		return ExerciseEntry{}, fmt.Errorf("swap %s: %w", entryID, err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "swapped exercise",
		slog.String("entry_id", entryID), slog.String("exercise", swapped.Name))
	return swapped, nil
}

// PrepareAdvance runs the progression over the current plan and stores the result for confirmation. A
// stored preview is returned as is until an edit discards it, so repeated visits show what confirming applies.
func (s *Service) PrepareAdvance(ctx context.Context) (PendingAdvance, error) {
	current, err := s.Document(ctx)
	if err != nil {
		return PendingAdvance{}, fmt.Errorf("prepare advance: %w", err)
	}
	if current.PendingAdvance != nil {
		return *current.PendingAdvance, nil
	}
	var pending PendingAdvance
	_, err = s.update(ctx, func(doc Document) (Document, error) {
		if doc.PendingAdvance != nil {
			pending = *doc.PendingAdvance
			return doc, nil
		}
		plan, changes := s.engine.Advance(doc.Plan, doc.Intensities)
		pending = PendingAdvance{Plan: plan, Changelog: Changelog(changes), Changes: changes}
		doc.PendingAdvance = &pending
		return doc, nil
	})
	if err != nil {
		return PendingAdvance{}, fmt.Errorf("prepare advance: %w", err)
	}
	return pending, nil
}

// ConfirmAdvance rolls the week over using the plan previewed by PrepareAdvance.
func (s *Service) ConfirmAdvance(ctx context.Context) (Document, error) {
	var changes []Change
	doc, err := s.update(ctx, func(doc Document) (Document, error) {
		if doc.PendingAdvance == nil {
			return doc, ErrNoPendingAdvance
		}
		changes = doc.PendingAdvance.Changes
		return Rollover(doc, doc.PendingAdvance.Plan, s.now()), nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("confirm advance: %w", err)
	}
	s.recorder.WeekAdvanced(s.engine.Strategy().Name(), changes)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "advanced week",
		slog.Int("week_count", doc.WeekCount), slog.Int("changes", len(changes)),
		slog.String("strategy", s.engine.Strategy().Name()))
	return doc, nil
}

// AdHocEntry is an exercise the user adds to a day by hand.
type AdHocEntry struct {
	Name   string
	Sets   string
	Reps   string
	Weight int
}

// AddAdHoc appends an exercise to the day's "Added Exercises" section, creating the section if needed.
func (s *Service) AddAdHoc(ctx context.Context, day Weekday, in AdHocEntry) (ExerciseEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ExerciseEntry{}, fmt.Errorf("add exercise without a name: %w", ErrInvalidInput)
	}
	if day.Index() < 0 {
		return ExerciseEntry{}, ErrUnknownDay
	}
	entry := ExerciseEntry{
		ID:           "adhoc_" + uuid.NewString(),
		Name:         in.Name,
		Sets:         in.Sets,
		Reps:         in.Reps,
		Kind:         KindStrength,
		Prescription: NewPrescription(in.Weight, UnitPounds),
		Note:         "Custom addition",
		Description:  "User added exercise.",
	}
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		dp := doc.Plan[day]
		i := slices.IndexFunc(dp.Sections, func(sec Section) bool { return sec.AdHoc })
		if i < 0 {
			dp.Sections = append(dp.Sections, Section{Title: adHocSectionTitle, Entries: []ExerciseEntry{}, AdHoc: true})
			i = len(dp.Sections) - 1
		}
		dp.Sections[i].Entries = append(dp.Sections[i].Entries, entry)
		doc.Plan[day] = dp
		return doc, nil
	})
	if err != nil {
		return ExerciseEntry{}, fmt.Errorf("add exercise to %s: %w", day, err)
	}
	return entry, nil
}

// CompleteRestDay marks the day as done with a single rest entry in its "Status" section.
func (s *Service) CompleteRestDay(ctx context.Context, day Weekday) error {
	if day.Index() < 0 {
		return ErrUnknownDay
	}
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		dp := doc.Plan[day]
		si := slices.IndexFunc(dp.Sections, func(sec Section) bool { return sec.Title == statusSectionTitle })
		if si < 0 {
			dp.Sections = append(dp.Sections, Section{Title: statusSectionTitle, Entries: []ExerciseEntry{}, AdHoc: false})
			si = len(dp.Sections) - 1
		}
		entries := dp.Sections[si].Entries
		ei := slices.IndexFunc(entries, func(e ExerciseEntry) bool { return e.Name == restDayName })
		var id string
		if ei >= 0 {
			id = entries[ei].ID
		} else {
			id = "rest_" + uuid.NewString()
			dp.Sections[si].Entries = append(entries, ExerciseEntry{
				ID:           id,
				Name:         restDayName,
				Sets:         "1",
				Reps:         "1",
				Kind:         KindBodyweight,
				Prescription: Unloaded{},
				Note:         "Completed",
				Description:  "Day marked as complete.",
			})
			doc.Plan[day] = dp
		}
		if !slices.Contains(doc.Completed, id) {
			doc.Completed = append(doc.Completed, id)
		}
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("complete rest day %s: %w", day, err)
	}
	return nil
}

// AddMasterExercise adds a name to the master exercise list.
func (s *Service) AddMasterExercise(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("add blank exercise name: %w", ErrInvalidInput)
	}
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		doc.MasterExerciseList, _ = AddMasterName(doc.MasterExerciseList, name)
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("add master exercise: %w", err)
	}
	return nil
}

// DeleteMasterExercise removes a name from the master exercise list.
func (s *Service) DeleteMasterExercise(ctx context.Context, name string) error {
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		doc.MasterExerciseList, _ = DeleteMasterName(doc.MasterExerciseList, name)
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("delete master exercise: %w", err)
	}
	return nil
}

// UnlockSkill raises a skill tree by one level.
func (s *Service) UnlockSkill(ctx context.Context, treeID string) (int, error) {
	var level int
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		levels, err := UnlockSkill(s.catalog, doc.SkillLevels, treeID)
		if err != nil {
			return doc, err
		}
		doc.SkillLevels = levels
		level = levels[treeID]
		return doc, nil
	})
	if err != nil {
		return 0, fmt.Errorf("unlock skill: %w", err)
	}
	return level, nil
}

// LogNutrition stores the nutrition of date. Dates within the current week also update that weekday's log.
func (s *Service) LogNutrition(ctx context.Context, date string, in NutritionLog) error {
	day, err := time.ParseInLocation(DateLayout, date, s.now().Location())
	if err != nil {
		return fmt.Errorf("parse nutrition date %q: %w", date, ErrInvalidInput)
	}
	_, err = s.mutate(ctx, func(doc Document) (Document, error) {
		offset := int(math.Round(day.Sub(doc.WeekStartDate(s.now())).Hours() / hoursPerDay))
		if offset >= 0 && offset < len(Weekdays) {
			doc.Nutrition[Weekdays[offset]] = in
		}
		record := in.record(date)
		if i := slices.IndexFunc(doc.NutritionHistory, func(r NutritionRecord) bool { return r.Date == date }); i >= 0 {
			doc.NutritionHistory[i] = record
		} else {
			doc.NutritionHistory = append(doc.NutritionHistory, record)
		}
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("log nutrition: %w", err)
	}
	return nil
}

// SaveBodyStats records a body-metrics check-in for date.
func (s *Service) SaveBodyStats(ctx context.Context, date string, weight string, waist string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("parse check-in date %q: %w", date, ErrInvalidInput)
	}
	record := BodyRecord{Date: date, Weight: strings.TrimSpace(weight), Waist: strings.TrimSpace(waist)}
	_, err := s.mutate(ctx, func(doc Document) (Document, error) {
		doc.BodyStats.Weight = record.Weight
		doc.BodyStats.Waist = record.Waist
		history := doc.BodyStats.History
		if i := slices.IndexFunc(history, func(r BodyRecord) bool { return r.Date == date }); i >= 0 {
			history[i] = record
		} else {
			history = append([]BodyRecord{record}, history...)
			history = history[:min(len(history), bodyHistoryLimit)]
		}
		doc.BodyStats.History = history
		return doc, nil
	})
	if err != nil {
		return fmt.Errorf("save body stats: %w", err)
	}
	return nil
}

// Import merges the top-level keys of an exported document into the user's document.
func (s *Service) Import(ctx context.Context, data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("parse import: %w", ErrInvalidInput)
	}
	known, err := Document{}.fields()
	if err != nil {
		return err
	}
	patch := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		if _, ok := known[key]; ok {
			patch[key] = value
		}
	}
	if _, err = DecodeDocument(data); err != nil {
		return fmt.Errorf("validate import: %w", ErrInvalidInput)
	}
	if _, err = s.Document(ctx); err != nil {
		return err
	}
	patch["pendingAdvance"] = json.RawMessage("null")
	if err = s.store.Merge(ctx, contexthelpers.AuthenticatedUserID(ctx), patch); err != nil {
		return fmt.Errorf("import document: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "imported document", slog.Int("keys", len(patch)))
	return nil
}
