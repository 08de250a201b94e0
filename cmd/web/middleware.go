package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"strings"
	"time"

	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/logging"
)

// responseRecorder remembers the status code and body size of a response for the request log.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	started bool
}

func (rr *responseRecorder) WriteHeader(status int) {
	if !rr.started {
		rr.status = status
		rr.started = true
	}
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if !rr.started {
		rr.status = http.StatusOK
		rr.started = true
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// Unwrap lets http.ResponseController reach the flusher of the event stream.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

// contentSecurityPolicy allows scripts and styles carrying nonce, same-origin fetches for the event stream and
// reports violations to reportsPath.
func contentSecurityPolicy(nonce string) string {
	directives := []string{
		"default-src 'none'",
		fmt.Sprintf("script-src 'nonce-%s' 'strict-dynamic' 'unsafe-inline' https: http:", nonce),
		"connect-src 'self'",
		"img-src 'self'",
		fmt.Sprintf("style-src 'nonce-%s' 'self' 'unsafe-inline'", nonce),
		"frame-ancestors 'self'",
		"form-action 'self'",
		"font-src 'none'",
		"object-src 'none'",
		"manifest-src 'self'",
		"base-uri 'none'",
		"report-uri " + reportsPath,
		"report-to csp",
	}
	return strings.Join(directives, "; ") + ";"
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := rand.Text()
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy(nonce))
		h.Set("Reporting-Endpoints", fmt.Sprintf(`csp="%s"`, reportsPath))
		h.Set("Referrer-Policy", "origin-when-cross-origin")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "deny")
		h.Set("X-XSS-Protection", "0")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		next.ServeHTTP(w, contexthelpers.SetCSPNonce(r, nonce))
	})
}

func withCacheControl(policy string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", policy)
		next.ServeHTTP(w, r)
	})
}

// cacheForever is for fingerprinted static assets.
func cacheForever(next http.Handler) http.Handler {
	return withCacheControl("public, max-age=31536000, immutable", next)
}

// noCache is for pages showing the user's training document, which changes with every action.
func noCache(next http.Handler) http.Handler {
	return withCacheControl("no-cache, no-store, must-revalidate", next)
}

// logAndTraceRequest adds request attributes to the logging context, logs the outcome and, when execution tracing
// is on, wraps the request in a trace task.
func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := rand.Text()
		ctx := logging.WithAttrs(r.Context(),
			slog.String("trace_id", requestID),
			slog.String("proto", r.Proto),
			slog.String("method", r.Method),
			slog.String("uri", r.URL.RequestURI()),
		)
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK, bytes: 0, started: false}
		if trace.IsEnabled() {
			var task *trace.Task
			ctx, task = trace.NewTask(ctx, "HTTP "+r.Method+" "+r.URL.Path)
			trace.Log(ctx, "trace_id", requestID)
			defer func() {
				trace.Log(ctx, "response", fmt.Sprintf("status=%d duration=%v", rec.status, time.Since(start)))
				task.End()
			}()
		}
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, r, errors.DecoratePanic(recovered))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// mustAuthenticate sends anonymous visitors to the landing page.
func (app *application) mustAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !contexthelpers.IsAuthenticated(r.Context()) {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// commonContext stores the request path for the navigation bar.
func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, contexthelpers.SetCurrentPath(r, r.URL.Path))
	})
}

// crossOriginProtection rejects cross-site form posts based on Sec-Fetch-Site and Origin.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	return http.NewCrossOriginProtection().Handler(next)
}

// timeout serves next through http.TimeoutHandler with a deadline slightly shorter than d so that the timeout
// page still fits in the write deadline. Deadlines longer than the server default extend the connection's write
// deadline.
func (app *application) timeout(d time.Duration, next http.Handler) http.Handler {
	const writeMargin = 200 * time.Millisecond
	guarded := http.TimeoutHandler(app.traceTimeouts(next), d-writeMargin, timeoutBody)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d > defaultTimeout {
			if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(d + time.Second)); err != nil {
				app.serverError(w, r, errors.Wrap(err, "extend write deadline"))
				return
			}
		}
		guarded.ServeHTTP(w, r)
	})
}

// traceTimeouts dumps the flight recorder when next is still running after the request deadline.
func (app *application) traceTimeouts(next http.Handler) http.Handler {
	if app.flightRecorder == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
			app.flightRecorder.Capture(r.Context(), "timeout")
		}
	})
}
