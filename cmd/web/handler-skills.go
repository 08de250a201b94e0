package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

type skillLevelView struct {
	gym.SkillLevel
	State gym.SkillState
}

type skillTreeView struct {
	ID          string
	Title       string
	Description string
	Current     int
	Maxed       bool
	Levels      []skillLevelView
}

type skillsTemplateData struct {
	BaseTemplateData
	Trees []skillTreeView
}

func (app *application) skillsGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	trees := app.gym.Catalog().SkillTrees
	views := make([]skillTreeView, 0, len(trees))
	for _, tree := range trees {
		current := max(doc.SkillLevels[tree.ID], 1)
		view := skillTreeView{
			ID:          tree.ID,
			Title:       tree.Title,
			Description: tree.Description,
			Current:     current,
			Maxed:       current >= tree.MaxLevel(),
			Levels:      make([]skillLevelView, 0, len(tree.Levels)),
		}
		for _, level := range tree.Levels {
			view.Levels = append(view.Levels, skillLevelView{SkillLevel: level, State: gym.LevelState(current, level.Level)})
		}
		views = append(views, view)
	}
	app.render(w, r, http.StatusOK, "skills", skillsTemplateData{BaseTemplateData: newBaseTemplateData(r), Trees: views})
}

func (app *application) skillUnlockPOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	level, err := app.gym.UnlockSkill(r.Context(), id)
	if err != nil {
		app.actionError(w, r, errors.Wrap(err, "unlock skill", slog.String("tree", id)))
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "unlocked skill level",
		slog.String("tree", id), slog.Int("level", level))
	redirect(w, r, "/skills")
}
