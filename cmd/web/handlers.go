package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/yuin/goldmark"
)

// templateFuncs are bound to the request so that nonce matches the Content-Security-Policy header.
func (app *application) templateFuncs(ctx context.Context) template.FuncMap {
	nonceAttr := template.HTMLAttr(`nonce="` + contexthelpers.CSPNonce(ctx) + `"`) //nolint:gosec // server generated.
	return template.FuncMap{
		"nonce":    func() template.HTMLAttr { return nonceAttr },
		"mdToHTML": func(markdown string) template.HTML { return app.markdown(ctx, markdown) },
	}
}

// markdown renders coach replies. goldmark leaves raw HTML out unless told otherwise.
func (app *application) markdown(ctx context.Context, src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "render markdown", errors.SlogError(err))
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped.
	}
	return template.HTML(buf.String()) //nolint:gosec // no raw HTML passes through goldmark.
}

// executePage parses base.gohtml with ui/templates/pages/<page>/*.gohtml and executes "base". Templates are read
// on every request so edits show up without a restart.
func (app *application) executePage(ctx context.Context, page string, data any) (*bytes.Buffer, error) {
	t, err := template.New(page).Funcs(app.templateFuncs(ctx)).
		ParseFS(app.templateFS, "base.gohtml", "pages/"+page+"/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", page, err)
	}
	var buf bytes.Buffer
	if err = t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("execute page %s: %w", page, err)
	}
	return &buf, nil
}

// render writes page with status. Nothing is written until the page has executed, so a template failure can
// still become an error page.
func (app *application) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	buf, err := app.executePage(r.Context(), page, data)
	switch {
	case err == nil:
		w.WriteHeader(status)
		_, _ = buf.WriteTo(w)
	case page == "error":
		app.logger.LogAttrs(r.Context(), slog.LevelError, "render error page", errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		app.serverError(w, r, err)
	}
}
