package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/gympal/internal/contexthelpers"
)

// deadlineRecorder accepts write deadlines so http.ResponseController does not report ErrNotSupported.
type deadlineRecorder struct {
	*httptest.ResponseRecorder
}

func (deadlineRecorder) SetWriteDeadline(time.Time) error {
	return nil
}

func discardApp() *application {
	return &application{ //nolint:exhaustruct // only the logger is needed.
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func Test_application_timeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deadline time.Duration
		sleep    time.Duration
		wantCode int
	}{
		{name: "page answers in time", deadline: defaultTimeout, sleep: 1500 * time.Millisecond, wantCode: http.StatusOK},
		{name: "page misses the deadline", deadline: defaultTimeout, sleep: 1900 * time.Millisecond,
			wantCode: http.StatusServiceUnavailable},
		{name: "coach gets a longer deadline", deadline: coachTimeout, sleep: 28 * time.Second, wantCode: http.StatusOK},
		{name: "coach misses the deadline", deadline: coachTimeout, sleep: 29 * time.Second,
			wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			synctest.Test(t, func(t *testing.T) {
				app := discardApp()
				handler := app.timeout(tt.deadline, http.HandlerFunc(app.testTimeout))
				target := fmt.Sprintf("/api/test/timeout?sleep_ms=%d", tt.sleep.Milliseconds())
				w := deadlineRecorder{httptest.NewRecorder()}

				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

				if w.Code != tt.wantCode {
					t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
				}
				if tt.wantCode == http.StatusServiceUnavailable && !strings.Contains(w.Body.String(), "timed out") {
					t.Errorf("body = %q, want the timeout page", w.Body.String())
				}
			})
		})
	}
}

func Test_secureHeaders(t *testing.T) {
	t.Parallel()

	var nonce string
	handler := secureHeaders(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		nonce = contexthelpers.CSPNonce(r.Context())
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if nonce == "" {
		t.Fatal("handler saw no CSP nonce")
	}
	csp := w.Header().Get("Content-Security-Policy")
	for _, want := range []string{
		"script-src 'nonce-" + nonce + "'",
		"style-src 'nonce-" + nonce + "'",
		"default-src 'none'",
		"report-uri " + reportsPath,
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("Content-Security-Policy %q does not contain %q", csp, want)
		}
	}
	if got := w.Header().Get("X-Frame-Options"); got != "deny" {
		t.Errorf("X-Frame-Options = %q, want deny", got)
	}
}

func Test_application_mustAuthenticate(t *testing.T) {
	t.Parallel()

	handler := discardApp().mustAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("anonymous navigation is redirected", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/week/advance", nil))
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
			t.Errorf("got %d to %q, want 303 to /", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("anonymous fetch gets content location", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/days/monday/rest", nil)
		r.Header.Set("Sec-Fetch-Dest", "empty")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK || w.Header().Get("Content-Location") != "/" {
			t.Errorf("got %d with Content-Location %q, want 200 with /", w.Code, w.Header().Get("Content-Location"))
		}
	})

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()
		r := contexthelpers.AuthenticateContext(httptest.NewRequest(http.MethodGet, "/week/advance", nil), 1)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusTeapot {
			t.Errorf("status = %d, want the wrapped handler", w.Code)
		}
	})
}

func Test_application_recoverPanic(t *testing.T) {
	t.Parallel()

	templates, err := uiDir("templates", "")
	if err != nil {
		t.Fatalf("locate templates: %v", err)
	}
	app := discardApp()
	app.templateFS = os.DirFS(templates)
	handler := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("rotation drew from an empty pool")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/days/monday", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := w.Header().Get("Connection"); got != "close" {
		t.Errorf("Connection = %q, want close", got)
	}
	if !strings.Contains(w.Body.String(), "Something went wrong") {
		t.Errorf("body = %q, want the error page", w.Body.String())
	}
}
