package main

import (
	"net/http"
	"time"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type homeTemplateData struct {
	BaseTemplateData
	WeekCount int
	WeekStart string
	Days      []dayCard
}

// dayCard summarises one day of the week overview.
type dayCard struct {
	ID       gym.Weekday
	Name     string
	Date     string
	Title    string
	Subtitle string
	// Done and Total count completed and planned entries.
	Done    int
	Total   int
	IsToday bool
}

func toDayCards(doc gym.Document, now time.Time) []dayCard {
	today := now.Format(gym.DateLayout)
	cards := make([]dayCard, 0, len(gym.Weekdays))
	for _, day := range gym.Weekdays {
		dp := doc.Plan[day]
		card := dayCard{
			ID:       day,
			Name:     day.Title(),
			Date:     doc.DayDate(day, now).Format(gym.DateLayout),
			Title:    dp.Title,
			Subtitle: dp.Subtitle,
			Done:     0,
			Total:    0,
			IsToday:  false,
		}
		card.IsToday = card.Date == today
		for _, section := range dp.Sections {
			for _, e := range section.Entries {
				card.Total++
				if doc.IsCompleted(e.ID) {
					card.Done++
				}
			}
		}
		cards = append(cards, card)
	}
	return cards
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	base := newBaseTemplateData(r)
	if !base.Authenticated {
		app.render(w, r, http.StatusOK, "landing", base)
		return
	}

	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	data := homeTemplateData{
		BaseTemplateData: base,
		WeekCount:        doc.WeekCount,
		WeekStart:        doc.WeekStart,
		Days:             toDayCards(doc, app.gym.Now()),
	}
	app.render(w, r, http.StatusOK, "home", data)
}
