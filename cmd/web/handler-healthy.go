package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/gympal/internal/errors"
)

const healthCheckTimeout = 2 * time.Second

// healthy reports whether the server can reach its database.
func (app *application) healthy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if app.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := app.db.ReadOnly.PingContext(ctx); err != nil {
			app.logger.LogAttrs(r.Context(), slog.LevelError, "health check failed", errors.SlogError(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// testTimeout sleeps for sleep_ms milliseconds or until the request is cancelled. It exercises the timeout
// middleware.
func (app *application) testTimeout(w http.ResponseWriter, r *http.Request) {
	sleepMS, err := strconv.Atoi(r.URL.Query().Get("sleep_ms"))
	if err != nil || sleepMS < 0 {
		http.Error(w, "Invalid sleep_ms parameter", http.StatusBadRequest)
		return
	}

	select {
	case <-r.Context().Done():
		return
	case <-time.After(time.Duration(sleepMS) * time.Millisecond):
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"completed","slept_ms":%d}`, sleepMS)
}
