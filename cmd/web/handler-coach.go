package main

import (
	"net/http"
	"slices"

	"github.com/myrjola/gympal/internal/coach"
	"github.com/myrjola/gympal/internal/errors"
)

type coachTemplateData struct {
	BaseTemplateData
	Week     int
	Messages []coach.Message
	// PastWeeks are the earlier conversations, newest first.
	PastWeeks []coach.Week
	Analysis  string
}

func (app *application) coachGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	weeks, err := app.coach.Weeks(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load coach weeks"))
		return
	}

	var (
		current []coach.Message
		past    []coach.Week
	)
	for _, week := range weeks {
		if week.Number == doc.WeekCount {
			current = week.Messages
			continue
		}
		past = append(past, week)
	}
	slices.Reverse(past)

	data := coachTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Week:             doc.WeekCount,
		Messages:         current,
		PastWeeks:        past,
		Analysis:         coach.AnalyzePatterns(weeks).Summary(),
	}
	app.render(w, r, http.StatusOK, "coach", data)
}

func (app *application) coachPOST(w http.ResponseWriter, r *http.Request) {
	if !app.parseForm(w, r) {
		return
	}
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	if _, err = app.coach.Send(r.Context(), doc.WeekCount, r.PostForm.Get("message")); err != nil {
		if errors.Is(err, coach.ErrEmptyMessage) {
			redirect(w, r, "/coach")
			return
		}
		app.serverError(w, r, errors.Wrap(err, "send coach message"))
		return
	}
	redirect(w, r, "/coach")
}
