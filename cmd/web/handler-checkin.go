package main

import (
	"net/http"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type fuelDayView struct {
	Name string
	Date string
	Log  gym.NutritionLog
}

type checkInTemplateData struct {
	BaseTemplateData
	Today     string
	BodyStats gym.BodyStats
	Fuel      []fuelDayView
}

func (app *application) checkInGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	now := app.gym.Now()
	fuel := make([]fuelDayView, 0, len(gym.Weekdays))
	for _, day := range gym.Weekdays {
		fuel = append(fuel, fuelDayView{
			Name: day.Title(),
			Date: doc.DayDate(day, now).Format(gym.DateLayout),
			Log:  doc.Nutrition[day],
		})
	}
	data := checkInTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Today:            now.Format(gym.DateLayout),
		BodyStats:        doc.BodyStats,
		Fuel:             fuel,
	}
	app.render(w, r, http.StatusOK, "check-in", data)
}

func (app *application) checkInPOST(w http.ResponseWriter, r *http.Request) {
	if !app.parseForm(w, r) {
		return
	}
	err := app.gym.SaveBodyStats(r.Context(), r.PostForm.Get("date"), r.PostForm.Get("weight"),
		r.PostForm.Get("waist"))
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "save body stats"))
		return
	}
	redirect(w, r, "/check-in")
}

func (app *application) fuelPOST(w http.ResponseWriter, r *http.Request) {
	if !app.parseForm(w, r) {
		return
	}
	in := gym.NutritionLog{
		Protein:  r.PostForm.Get("protein"),
		Calories: r.PostForm.Get("calories"),
		Fat:      r.PostForm.Get("fat"),
		Carbs:    r.PostForm.Get("carbs"),
		Notes:    r.PostForm.Get("notes"),
	}
	if err := app.gym.LogNutrition(r.Context(), r.PostForm.Get("date"), in); err != nil {
		app.actionError(w, r, errors.Wrap(err, "log nutrition"))
		return
	}
	redirect(w, r, "/check-in")
}
