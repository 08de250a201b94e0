package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type exercisesTemplateData struct {
	BaseTemplateData
	Names   []string
	Library []gym.LibraryExercise
}

func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	names := slices.Clone(doc.MasterExerciseList)
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	data := exercisesTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Names:            names,
		Library:          app.gym.Catalog().Library,
	}
	app.render(w, r, http.StatusOK, "exercises", data)
}

func (app *application) exercisesPOST(w http.ResponseWriter, r *http.Request) {
	if !app.parseForm(w, r) {
		return
	}
	if err := app.gym.AddMasterExercise(r.Context(), r.PostForm.Get("name")); err != nil {
		app.actionError(w, r, errors.Wrap(err, "add master exercise"))
		return
	}
	redirect(w, r, "/exercises")
}

func (app *application) exercisesDeletePOST(w http.ResponseWriter, r *http.Request) {
	if !app.parseForm(w, r) {
		return
	}
	if err := app.gym.DeleteMasterExercise(r.Context(), r.PostForm.Get("name")); err != nil {
		app.actionError(w, r, errors.Wrap(err, "delete master exercise"))
		return
	}
	redirect(w, r, "/exercises")
}
