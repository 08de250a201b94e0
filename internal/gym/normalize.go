package gym

// NormalizePlan returns a copy of plan holding exactly the seven weekdays. Missing days become rest
// placeholders, unknown keys are dropped and empty titles are filled in with the day name.
func NormalizePlan(plan Plan) Plan {
	out := make(Plan, len(Weekdays))
	for _, day := range Weekdays {
		dp, ok := plan[day]
		if !ok {
			out[day] = restPlaceholder(day)
			continue
		}
		dp = dp.clone()
		dp.ID = day
		if dp.Title == "" {
			dp.Title = day.Title()
		}
		out[day] = dp
	}
	return out
}

func restPlaceholder(day Weekday) DayPlan {
	return DayPlan{
		ID:       day,
		Title:    day.Title() + ": Rest / Ad-Hoc",
		Subtitle: "Add exercises here if needed.",
		Sections: []Section{},
	}
}
