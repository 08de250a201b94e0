package main

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

// historyPreview is the number of past performances shown under an entry.
const historyPreview = 3

type entryView struct {
	gym.ExerciseEntry
	Load      string
	Completed bool
	Intensity int
	Actual    string
	LastWeek  string
	History   []gym.HistoryEntry
}

type sectionView struct {
	Title   string
	Entries []entryView
}

type dayTemplateData struct {
	BaseTemplateData
	Day         dayCard
	Sections    []sectionView
	IsRest      bool
	Intensities []int
}

func toSectionViews(doc gym.Document, dp gym.DayPlan) []sectionView {
	sections := make([]sectionView, 0, len(dp.Sections))
	for _, s := range dp.Sections {
		view := sectionView{Title: s.Title, Entries: make([]entryView, 0, len(s.Entries))}
		for _, e := range s.Entries {
			history := doc.ExerciseHistory[e.Name]
			view.Entries = append(view.Entries, entryView{
				ExerciseEntry: e,
				Load:          e.LoadLabel(),
				Completed:     doc.IsCompleted(e.ID),
				Intensity:     doc.Intensities[e.ID],
				Actual:        doc.Actuals[e.ID],
				LastWeek:      doc.LastWeekActuals[e.ID],
				History:       history[:min(len(history), historyPreview)],
			})
		}
		sections = append(sections, view)
	}
	return sections
}

func (app *application) dayGET(w http.ResponseWriter, r *http.Request) {
	day, ok := app.parseDayParam(w, r)
	if !ok {
		return
	}
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	cards := toDayCards(doc, app.gym.Now())
	dp := doc.Plan[day]
	data := dayTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Day:              cards[day.Index()],
		Sections:         toSectionViews(doc, dp),
		IsRest:           len(dp.Sections) == 0 || strings.Contains(strings.ToLower(dp.Title), "rest"),
		Intensities:      gym.AllowedIntensities,
	}
	app.render(w, r, http.StatusOK, "day", data)
}

func (app *application) dayRestPOST(w http.ResponseWriter, r *http.Request) {
	day, ok := app.parseDayParam(w, r)
	if !ok {
		return
	}
	if err := app.gym.CompleteRestDay(r.Context(), day); err != nil {
		app.actionError(w, r, errors.Wrap(err, "complete rest day"))
		return
	}
	redirect(w, r, dayPath(day))
}

type addExerciseTemplateData struct {
	BaseTemplateData
	Day   dayCard
	Names []string
}

func (app *application) addExerciseGET(w http.ResponseWriter, r *http.Request) {
	day, ok := app.parseDayParam(w, r)
	if !ok {
		return
	}
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	names := slices.Clone(doc.MasterExerciseList)
	slices.Sort(names)
	data := addExerciseTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Day:              toDayCards(doc, app.gym.Now())[day.Index()],
		Names:            names,
	}
	app.render(w, r, http.StatusOK, "add-exercise", data)
}

func (app *application) addExercisePOST(w http.ResponseWriter, r *http.Request) {
	day, ok := app.parseDayParam(w, r)
	if !ok {
		return
	}
	if !app.parseForm(w, r) {
		return
	}
	in := gym.AdHocEntry{
		Name:   r.PostForm.Get("name"),
		Sets:   strings.TrimSpace(r.PostForm.Get("sets")),
		Reps:   strings.TrimSpace(r.PostForm.Get("reps")),
		Weight: 0,
	}
	if weight := strings.TrimSpace(r.PostForm.Get("weight")); weight != "" {
		var err error
		if in.Weight, err = strconv.Atoi(weight); err != nil || in.Weight < 0 {
			app.actionError(w, r, errors.Wrap(gym.ErrInvalidInput, "parse weight", slog.String("weight", weight)))
			return
		}
	}
	if _, err := app.gym.AddAdHoc(r.Context(), day, in); err != nil {
		app.actionError(w, r, errors.Wrap(err, "add exercise"))
		return
	}
	redirect(w, r, dayPath(day))
}

func dayPath(day gym.Weekday) string {
	return "/days/" + string(day)
}
