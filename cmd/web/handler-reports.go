package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
)

const (
	reportsPath     = "/api/reports"
	maxReportsBytes = 64 << 10
)

// cspReport is the legacy report-uri payload.
type cspReport struct {
	Body struct {
		DocumentURI       string `json:"document-uri"`
		ViolatedDirective string `json:"violated-directive"`
		BlockedURI        string `json:"blocked-uri"`
		SourceFile        string `json:"source-file"`
		LineNumber        int    `json:"line-number"`
		Disposition       string `json:"disposition"`
	} `json:"csp-report"`
}

// browserReport is one entry of a Reporting API batch.
type browserReport struct {
	Type string         `json:"type"`
	URL  string         `json:"url"`
	Body map[string]any `json:"body"`
}

// reportsPOST logs Content-Security-Policy violations and other browser reports.
func (app *application) reportsPOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportsBytes))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	userAgent := slog.String("user_agent", r.Header.Get("User-Agent"))

	if mediaType == "application/csp-report" {
		var report cspReport
		if err = json.Unmarshal(body, &report); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelInfo, "invalid csp report", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		app.logger.LogAttrs(ctx, slog.LevelWarn, "csp violation",
			slog.String("document_uri", report.Body.DocumentURI),
			slog.String("violated_directive", report.Body.ViolatedDirective),
			slog.String("blocked_uri", report.Body.BlockedURI),
			slog.String("source_file", report.Body.SourceFile),
			slog.Int("line_number", report.Body.LineNumber),
			slog.String("disposition", report.Body.Disposition),
			userAgent)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var reports []browserReport
	if err = json.Unmarshal(body, &reports); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelInfo, "invalid browser report", slog.Any("error", err),
			slog.String("content_type", mediaType))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	for _, report := range reports {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "browser report",
			slog.String("type", report.Type),
			slog.String("url", report.URL),
			slog.Any("body", report.Body),
			userAgent)
	}
	w.WriteHeader(http.StatusNoContent)
}
