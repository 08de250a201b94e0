package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts requests and observes their duration labelled with the matched route pattern.
func (m *Manager) RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		resp := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(resp, r)

		status := strconv.Itoa(resp.statusCode)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HistogramRequestDuration.With(prometheus.Labels{
			"route":       route,
			"method":      r.Method,
			"status_code": status,
		}).Observe(time.Since(begin).Seconds())
		m.CounterRequests.With(prometheus.Labels{
			"method": r.Method,
			"status": status,
		}).Inc()
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}

func (r *responseWriter) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
