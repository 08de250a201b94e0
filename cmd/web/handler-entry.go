package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

// redirectToEntryDay sends the user back to the day holding the entry.
func (app *application) redirectToEntryDay(w http.ResponseWriter, r *http.Request, entryID string) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	ref, ok := doc.Plan.Find(entryID)
	if !ok {
		redirect(w, r, "/")
		return
	}
	redirect(w, r, dayPath(ref.Day))
}

func (app *application) entryCompletePOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	completed, err := app.gym.ToggleComplete(r.Context(), id)
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "toggle entry", slog.String("entry_id", id)))
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelDebug, "toggled entry",
		slog.String("entry_id", id), slog.Bool("completed", completed))
	app.redirectToEntryDay(w, r, id)
}

func (app *application) entryIntensityPOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !app.parseForm(w, r) {
		return
	}
	value, err := strconv.Atoi(r.PostForm.Get("intensity"))
	if err != nil {
		app.actionError(w, r, errors.Wrap(gym.ErrInvalidIntensity, "parse intensity",
			slog.String("intensity", r.PostForm.Get("intensity"))))
		return
	}
	if err = app.gym.SetIntensity(r.Context(), id, value); err != nil {
		app.actionError(w, r, errors.Wrap(err, "set intensity", slog.String("entry_id", id)))
		return
	}
	app.redirectToEntryDay(w, r, id)
}

func (app *application) entryActualPOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !app.parseForm(w, r) {
		return
	}
	if err := app.gym.SetActual(r.Context(), id, r.PostForm.Get("actual")); err != nil {
		app.actionError(w, r, errors.Wrap(err, "set actual", slog.String("entry_id", id)))
		return
	}
	app.redirectToEntryDay(w, r, id)
}

type swapTemplateData struct {
	BaseTemplateData
	Entry    gym.ExerciseEntry
	Variants []gym.Variant
}

func (app *application) entrySwapGET(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, variants, err := app.gym.Alternatives(r.Context(), id)
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "list alternatives", slog.String("entry_id", id)))
		return
	}
	data := swapTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Entry:            entry,
		Variants:         variants,
	}
	app.render(w, r, http.StatusOK, "swap", data)
}

func (app *application) entrySwapPOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !app.parseForm(w, r) {
		return
	}
	swapped, err := app.gym.Swap(r.Context(), id, r.PostForm.Get("name"))
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "swap entry", slog.String("entry_id", id)))
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "swapped entry",
		slog.String("entry_id", id), slog.String("exercise", swapped.Name))
	app.redirectToEntryDay(w, r, id)
}
