package main

import (
	"cmp"
	"net/http"
	"slices"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type exerciseHistoryView struct {
	Name    string
	Entries []gym.HistoryEntry
}

type historyTemplateData struct {
	BaseTemplateData
	Exercises []exerciseHistoryView
	Nutrition []gym.NutritionRecord
	Body      []gym.BodyRecord
}

func (app *application) historyGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}

	exercises := make([]exerciseHistoryView, 0, len(doc.ExerciseHistory))
	for name, entries := range doc.ExerciseHistory {
		if len(entries) == 0 {
			continue
		}
		sorted := slices.Clone(entries)
		slices.SortStableFunc(sorted, func(a, b gym.HistoryEntry) int { return cmp.Compare(b.Date, a.Date) })
		exercises = append(exercises, exerciseHistoryView{Name: name, Entries: sorted})
	}
	slices.SortFunc(exercises, func(a, b exerciseHistoryView) int { return cmp.Compare(a.Name, b.Name) })

	nutrition := slices.Clone(doc.NutritionHistory)
	slices.SortFunc(nutrition, func(a, b gym.NutritionRecord) int { return cmp.Compare(b.Date, a.Date) })

	data := historyTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Exercises:        exercises,
		Nutrition:        nutrition,
		Body:             doc.BodyStats.History,
	}
	app.render(w, r, http.StatusOK, "history", data)
}
