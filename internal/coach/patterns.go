package coach

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// PatternKind groups related keywords found in user messages.
type PatternKind string

const (
	PatternPain        PatternKind = "pain"
	PatternExercise    PatternKind = "exercise"
	PatternNutrition   PatternKind = "nutrition"
	PatternSleep       PatternKind = "sleep"
	PatternPerformance PatternKind = "performance"
)

// minPatternWeeks is both the number of weeks needed before patterns are reported and the window analyzed.
const minPatternWeeks = 4

// promptKeywords caps the keywords listed per pattern in the system prompt.
const promptKeywords = 3

var patternKeywords = []struct {
	kind     PatternKind
	keywords []string
}{
	{PatternPain, []string{
		"back tightness", "lower back", "l4", "l5", "sore", "pain", "tight", "ache",
		"discomfort", "tender", "sharp", "dull", "shooting", "stiff", "strain",
	}},
	{PatternExercise, []string{
		"pullup", "pushup", "dead hang", "planche", "flag", "muscle up", "handstand",
		"dip", "squat", "deadlift", "row", "press", "pull", "carry", "lunge",
	}},
	{PatternNutrition, []string{
		"protein", "carb", "fat", "meal", "eat", "ate", "breakfast", "lunch", "dinner",
		"snack", "supplement", "hydration", "calories", "macro", "fasting",
	}},
	{PatternSleep, []string{
		"sleep", "slept", "tired", "fatigue", "rested", "recovered", "insomnia",
		"rest", "wake", "exhausted", "energy",
	}},
	{PatternPerformance, []string{
		"strong", "weak", "faster", "slower", "harder", "easier", "improvement",
		"plateau", "progress", "failed", "completed", "reps", "set", "form",
	}},
}

// Week is the transcript of one training week.
type Week struct {
	Number   int
	Messages []Message
	Summary  string
}

// Pattern is a recurring topic in the user's messages.
type Pattern struct {
	Kind PatternKind
	// Days are the weekdays the topic came up on, most frequent first.
	Days      []time.Weekday
	Frequency int
	Keywords  []string
}

// Context describes the pattern in one line.
func (p Pattern) Context() string {
	switch p.Kind {
	case PatternPain:
		return fmt.Sprintf("Pain/tightness mentioned %d times, most often on %s", p.Frequency, p.Days[0])
	case PatternExercise:
		return "Exercise discussions on " + joinDays(p.Days)
	case PatternNutrition:
		return fmt.Sprintf("Nutrition topics discussed %d times", p.Frequency)
	case PatternSleep:
		return fmt.Sprintf("Sleep/recovery mentioned %d times", p.Frequency)
	case PatternPerformance:
		return fmt.Sprintf("Performance insights mentioned %d times", p.Frequency)
	}
	return string(p.Kind)
}

// Analysis is the result of AnalyzePatterns.
type Analysis struct {
	// Ready is false until enough weeks of conversation exist.
	Ready    bool
	Patterns []Pattern
}

// AnalyzePatterns scans the user messages of the most recent weeks for recurring topics. weeks must be
// sorted by week number.
func AnalyzePatterns(weeks []Week) Analysis {
	if len(weeks) < minPatternWeeks {
		return Analysis{Ready: false, Patterns: nil}
	}
	var messages []Message
	for _, w := range weeks[len(weeks)-minPatternWeeks:] {
		for _, m := range w.Messages {
			if m.Role == RoleUser {
				messages = append(messages, m)
			}
		}
	}

	var patterns []Pattern
	for _, group := range patternKeywords {
		if p, ok := findPattern(group.kind, group.keywords, messages); ok {
			patterns = append(patterns, p)
		}
	}
	return Analysis{Ready: true, Patterns: patterns}
}

func findPattern(kind PatternKind, keywords []string, messages []Message) (Pattern, bool) {
	var (
		days    []time.Weekday
		counts  = make(map[time.Weekday]int)
		found   []string
		matches int
	)
	for _, m := range messages {
		text := strings.ToLower(m.Text)
		hit := false
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			hit = true
			if !slices.Contains(found, kw) {
				found = append(found, kw)
			}
		}
		if !hit {
			continue
		}
		matches++
		day := m.CreatedAt.Local().Weekday()
		if counts[day] == 0 {
			days = append(days, day)
		}
		counts[day]++
	}
	if matches == 0 {
		return Pattern{}, false
	}
	slices.SortStableFunc(days, func(a, b time.Weekday) int { return counts[b] - counts[a] })
	return Pattern{Kind: kind, Days: days, Frequency: matches, Keywords: found}, true
}

// Summary is a human-readable overview of the analysis.
func (a Analysis) Summary() string {
	if !a.Ready {
		return "Need at least 4 weeks of chat history to detect patterns."
	}
	var b strings.Builder
	b.WriteString("Pattern Analysis (4+ weeks):")
	if len(a.Patterns) == 0 {
		b.WriteString(" No strong patterns detected yet.")
	}
	for _, p := range a.Patterns {
		fmt.Fprintf(&b, "\n- %s: %s", p.Kind, p.Context())
	}
	return b.String()
}

// PromptSection formats the patterns for the coach's system prompt. It is empty without patterns.
func (a Analysis) PromptSection() string {
	if len(a.Patterns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nRECENT PATTERN ANALYSIS (Last 4+ weeks):")
	for _, p := range a.Patterns {
		fmt.Fprintf(&b, "\n- %s: Mentioned on %s (%dx)", strings.ToUpper(string(p.Kind)), joinDays(p.Days), p.Frequency)
		if len(p.Keywords) > 0 {
			fmt.Fprintf(&b, "\n  Keywords: %s", strings.Join(p.Keywords[:min(len(p.Keywords), promptKeywords)], ", "))
		}
	}
	b.WriteString("\n\nUSE THIS TO:")
	b.WriteString("\n1. Reference specific patterns: \"I noticed you mention back tightness on Fridays...\"")
	b.WriteString("\n2. Suggest preventative measures based on correlations")
	b.WriteString("\n3. Tailor advice to their actual patterns, not generic recommendations")
	b.WriteString("\n4. Ask clarifying questions about day-of-week correlations with workouts")
	return b.String()
}

func joinDays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
