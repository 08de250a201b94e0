package main

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_application_reportsPOST(t *testing.T) {
	var logBuffer bytes.Buffer
	app := &application{ //nolint:exhaustruct // this is a test
		logger: slog.New(slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{ //nolint:exhaustruct // test only
			Level: slog.LevelDebug,
		})),
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		logContains []string
	}{
		{
			name: "Legacy CSP report",
			body: `{"csp-report": {"document-uri": "https://example.com/days/monday", ` +
				`"violated-directive": "script-src", "blocked-uri": "https://evil.com/script.js", ` +
				`"line-number": 42, "disposition": "enforce"}}`,
			contentType: "application/csp-report",
			wantStatus:  http.StatusNoContent,
			logContains: []string{"csp violation", "script-src", "https://evil.com/script.js", "line_number=42"},
		},
		{
			name: "Reporting API batch",
			body: `[{"age":0,"body":{"blockedURL":"eval","effectiveDirective":"script-src"},` +
				`"type":"csp-violation","url":"https://example.com/coach"}]`,
			contentType: "application/reports+json",
			wantStatus:  http.StatusNoContent,
			logContains: []string{"browser report", "csp-violation", "https://example.com/coach", "eval"},
		},
		{
			name:        "Content type with parameters",
			body:        `{"csp-report": {"violated-directive": "img-src"}}`,
			contentType: "application/csp-report; charset=utf-8",
			wantStatus:  http.StatusNoContent,
			logContains: []string{"csp violation", "img-src"},
		},
		{
			name:        "Invalid CSP report",
			body:        `{"csp-report": `,
			contentType: "application/csp-report",
			wantStatus:  http.StatusBadRequest,
			logContains: []string{"invalid csp report"},
		},
		{
			name:        "Reporting API object instead of batch",
			body:        `{"type": "deprecation"}`,
			contentType: "application/reports+json",
			wantStatus:  http.StatusBadRequest,
			logContains: []string{"invalid browser report"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logBuffer.Reset()
			req := httptest.NewRequest(http.MethodPost, reportsPath, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set("User-Agent", "Mozilla/5.0 (Test Browser)")
			w := httptest.NewRecorder()

			app.reportsPOST(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status code %d, got %d", tt.wantStatus, w.Code)
			}
			logOutput := logBuffer.String()
			for _, want := range tt.logContains {
				if !strings.Contains(logOutput, want) {
					t.Errorf("Expected log to contain %q, got: %s", want, logOutput)
				}
			}
		})
	}
}

func Test_secureHeaders_reportingEndpoints(t *testing.T) {
	handler := secureHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("Reporting-Endpoints"); got != `csp="/api/reports"` {
		t.Errorf("Unexpected Reporting-Endpoints header %q", got)
	}
	csp := w.Header().Get("Content-Security-Policy")
	for _, directive := range []string{"report-uri /api/reports;", "report-to csp;"} {
		if !strings.Contains(csp, directive) {
			t.Errorf("Expected CSP to contain %q, got %q", directive, csp)
		}
	}
}
