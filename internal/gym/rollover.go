package gym

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Rollover closes the current week of doc and starts the next one with plan.
//
// Logged actuals are recorded in the exercise history under the calendar date of their weekday, the
// week's nutrition logs are copied into the nutrition history unless that date is already there, and all
// weekly state is reset. The actuals are kept as last week's actuals. doc is not modified.
func Rollover(doc Document, plan Plan, now time.Time) Document {
	doc = doc.normalized()
	next := doc.Clone()
	weekStart := doc.WeekStartDate(now)

	for _, ref := range doc.Plan.Entries() {
		actual, ok := doc.Actuals[ref.Entry.ID]
		if !ok || actual == "" {
			continue
		}
		record := HistoryEntry{
			Date:  weekStart.AddDate(0, 0, ref.Day.Index()).Format(DateLayout),
			Value: actual,
			Note:  effortNote(doc.Intensities, ref.Entry.ID),
		}
		name := ref.Entry.Name
		if slices.Contains(next.ExerciseHistory[name], record) {
			continue
		}
		next.ExerciseHistory[name] = append([]HistoryEntry{record}, next.ExerciseHistory[name]...)
	}

	for i, day := range Weekdays {
		logged, ok := doc.Nutrition[day]
		if !ok || !logged.HasMacros() {
			continue
		}
		date := weekStart.AddDate(0, 0, i).Format(DateLayout)
		if slices.ContainsFunc(next.NutritionHistory, func(r NutritionRecord) bool { return r.Date == date }) {
			continue
		}
		next.NutritionHistory = append(next.NutritionHistory, logged.record(date))
	}

	next.Plan = NormalizePlan(plan)
	next.MasterExerciseList = mergeMasterNames(next.MasterExerciseList, next.Plan.Names()...)
	next.WeekCount = doc.WeekCount + 1
	next.WeekStart = UpcomingMonday(now).Format(DateLayout)
	next.LastWeekActuals = maps.Clone(doc.Actuals)
	next.Completed = []string{}
	next.Intensities = map[string]int{}
	next.Actuals = map[string]string{}
	next.Nutrition = map[Weekday]NutritionLog{}
	next.PendingAdvance = nil
	return next
}

func effortNote(intensities map[string]int, id string) string {
	if v, ok := intensities[id]; ok && v > 0 {
		return "RPE " + strconv.Itoa(v)
	}
	return "RPE -"
}

// ConfirmationText is the prompt shown before advancing from week weekCount.
func ConfirmationText(weekCount int, changelog []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ready for Week %d?\n\n", weekCount+1)
	if len(changelog) == 0 {
		b.WriteString("Maintained plan structure.")
		return b.String()
	}
	b.WriteString("Adjustments:")
	for _, line := range changelog {
		b.WriteString("\n• ")
		b.WriteString(line)
	}
	return b.String()
}
