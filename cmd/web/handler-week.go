package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type weekAdvanceTemplateData struct {
	BaseTemplateData
	WeekCount    int
	Confirmation string
	Changelog    []string
}

// weekAdvanceGET previews the next week. The preview is rolled on the first visit and kept until an edit.
func (app *application) weekAdvanceGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	pending, err := app.gym.PrepareAdvance(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "prepare advance"))
		return
	}
	data := weekAdvanceTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		WeekCount:        doc.WeekCount,
		Confirmation:     gym.ConfirmationText(doc.WeekCount, pending.Changelog),
		Changelog:        pending.Changelog,
	}
	app.render(w, r, http.StatusOK, "week-advance", data)
}

func (app *application) weekAdvancePOST(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.ConfirmAdvance(r.Context())
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "confirm advance"))
		return
	}
	finished := doc.WeekCount - 1
	if err = app.coach.SummarizeWeek(r.Context(), finished); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "summarize coach week",
			slog.Int("week", finished), errors.SlogError(err))
	}
	redirect(w, r, "/")
}
