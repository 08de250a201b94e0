package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.render(w, r, http.StatusInternalServerError, "error",
		errorTemplateData{BaseTemplateData: newBaseTemplateData(r), Message: ""})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

// actionError responds to a failed gym action. Failures caused by the request become a 4xx response with the
// reason, everything else is a server error.
func (app *application) actionError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, gym.ErrUnknownEntry), errors.Is(err, gym.ErrUnknownDay), errors.Is(err, gym.ErrUnknownSkill):
		status = http.StatusNotFound
	case errors.Is(err, gym.ErrNoAlternatives), errors.Is(err, gym.ErrSkillMaxed), errors.Is(err, gym.ErrNoPendingAdvance):
		status = http.StatusConflict
	case errors.Is(err, gym.ErrInvalidIntensity), errors.Is(err, gym.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		app.serverError(w, r, err)
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "rejected action", slog.Int("status", status),
		slog.String("reason", err.Error()))
	data := errorTemplateData{BaseTemplateData: newBaseTemplateData(r), Message: userMessage(err)}
	app.render(w, r, status, "error", data)
}

// userMessage is the text shown to the user for a rejected action.
func userMessage(err error) string {
	switch {
	case errors.Is(err, gym.ErrNoAlternatives):
		return "No alternatives found."
	case errors.Is(err, gym.ErrSkillMaxed):
		return "You have mastered this skill tree."
	case errors.Is(err, gym.ErrNoPendingAdvance):
		return "Review the next week before confirming it."
	case errors.Is(err, gym.ErrInvalidIntensity):
		return "Pick an intensity of 1, 3, 5, 7 or 10."
	case errors.Is(err, gym.ErrInvalidInput):
		return "Please check your input and try again."
	default:
		return "Not found."
	}
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// parseDayParam parses the "day" path parameter. On failure it responds with 404 and returns false.
func (app *application) parseDayParam(w http.ResponseWriter, r *http.Request) (gym.Weekday, bool) {
	day, ok := gym.ParseWeekday(r.PathValue("day"))
	if !ok {
		app.notFound(w, r)
		return "", false
	}
	return day, true
}

// parseForm parses the request form. On failure it responds with 400 and returns false.
func (app *application) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelInfo, "invalid form", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}
