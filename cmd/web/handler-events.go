package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/gym"
)

const eventsKeepAlive = 25 * time.Second

// eventsGET streams a server-sent "document" event whenever the user's document is written, so that other
// open pages can reload.
func (app *application) eventsGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "clear write deadline", errors.SlogError(err))
	}

	updates := make(chan int, 1)
	unsubscribe := app.gym.Subscribe(ctx, func(doc gym.Document) {
		select {
		case updates <- doc.WeekCount:
		default:
		}
	})
	defer unsubscribe()

	app.metrics.GaugeEventStreams.Inc()
	defer app.metrics.GaugeEventStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "flush event stream", errors.SlogError(err))
		return
	}

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case week := <-updates:
			_, err = fmt.Fprintf(w, "event: document\ndata: {\"weekCount\":%d}\n\n", week)
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": keep-alive\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			app.logger.LogAttrs(ctx, slog.LevelDebug, "event stream closed", slog.Any("error", err))
			return
		}
	}
}
