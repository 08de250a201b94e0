package coach

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are 'GymPal Coach', a specialized fitness expert for a specific user.
USER PROFILE:
- Male, 40 years old, 5'9", 170 lbs.
- GOALS: Calisthenics mastery (Human Flag, Muscle Up), splits flexibility, abs, strength (maintain 160 lbs+).
- CONSTRAINTS: History of L4/L5 lower back issues (CRITICAL: protect the spine), weak legs, extremely inflexible.
- CURRENT STATS: 20 push-ups, 0 sit-ups, 0 pull-ups.
- EQUIPMENT: Gym Monster (cable machine), NordicTrack elliptical, rower.

YOUR ROLE:
1. PHASE 1 FOCUS: Connective tissue and tendon strength. Do NOT suggest heavy weights yet. Prioritize volume and time under tension.
2. Provide safe, back-friendly alternatives immediately if asked (e.g. Dead Bugs instead of sit-ups).
3. Explain how to use his specific equipment.
4. Keep responses concise, motivating and actionable.
5. If he mentions pain, suggest stopping and doing a specific mobility drill (like Cat-Cow).`

// SystemPrompt returns the coach profile followed by the pattern analysis, if any patterns were found.
func SystemPrompt(analysis Analysis) string {
	return systemPrompt + analysis.PromptSection()
}

func summaryPrompt(week int, transcript []Message) string {
	lines := make([]string, 0, len(transcript))
	for _, m := range transcript {
		author := "User"
		if m.Role == RoleModel {
			author = "Coach"
		}
		lines = append(lines, author+": "+m.Text)
	}
	return fmt.Sprintf(`You are analyzing a week of conversation between a fitness coach and a 40-year-old athlete with L4/L5 back issues pursuing calisthenics goals.

Here's the conversation from Week %d:

%s

Please provide a concise summary (3-4 sentences) covering:
1. Key concerns or pain points mentioned
2. Progress indicators or wins discussed
3. Main advice given or strategies discussed
4. Recommended focus for next week

Keep it actionable and motivating.`, week, strings.Join(lines, "\n\n"))
}
