package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

// maxImportBytes bounds the size of an uploaded document.
const maxImportBytes = 4 << 20

type preferencesTemplateData struct {
	BaseTemplateData
	WeekCount        int
	WeekStart        string
	TrackedExercises int
}

func (app *application) preferencesGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	data := preferencesTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		WeekCount:        doc.WeekCount,
		WeekStart:        doc.WeekStart,
		TrackedExercises: len(doc.ExerciseHistory),
	}
	app.render(w, r, http.StatusOK, "preferences", data)
}

func (app *application) exportDocumentGET(w http.ResponseWriter, r *http.Request) {
	doc, err := app.gym.Document(r.Context())
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "load document"))
		return
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal document"))
		return
	}
	filename := fmt.Sprintf("gympal-week-%d.json", doc.WeekCount)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err = w.Write(out); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "write export", errors.SlogError(err))
	}
}

// backupGET serves a SQLite database holding every row stored for the user, including coach conversations and
// passkeys.
func (app *application) backupGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dir, err := os.MkdirTemp("", "gympal-backup-*")
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "create backup dir"))
		return
	}
	defer func() {
		if err = os.RemoveAll(dir); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "remove backup dir", errors.SlogError(err))
		}
	}()

	path := filepath.Join(dir, "gympal-backup.sqlite3")
	if err = app.db.ExportUser(ctx, contexthelpers.AuthenticatedUserID(ctx), path); err != nil {
		app.serverError(w, r, errors.Wrap(err, "export user"))
		return
	}
	f, err := os.Open(path)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "open backup"))
		return
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="gympal-backup.sqlite3"`)
	http.ServeContent(w, r, "gympal-backup.sqlite3", time.Now(), f)
}

// importDocumentPOST accepts the document either as an uploaded file or as a plain form field, both named
// "document".
func (app *application) importDocumentPOST(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	data, err := readImport(r)
	if err != nil {
		app.actionError(w, r, errors.Wrap(gym.ErrInvalidInput, "read import", slog.String("reason", err.Error())))
		return
	}
	if err = app.gym.Import(r.Context(), data); err != nil {
		app.actionError(w, r, errors.Wrap(err, "import document"))
		return
	}
	redirect(w, r, "/")
}

func readImport(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("document")
		if err == nil {
			defer func(f multipart.File) { _ = f.Close() }(file)
			data, readErr := io.ReadAll(file)
			if readErr != nil {
				return nil, fmt.Errorf("read uploaded document: %w", readErr)
			}
			return data, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, fmt.Errorf("open uploaded document: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	document := strings.TrimSpace(r.PostFormValue("document"))
	if document == "" {
		return nil, errors.New("no document provided")
	}
	return []byte(document), nil
}

func (app *application) deleteUserPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.webAuthnHandler.DeleteUser(r.Context()); err != nil {
		app.serverError(w, r, errors.Wrap(err, "delete user"))
		return
	}
	redirect(w, r, "/")
}
