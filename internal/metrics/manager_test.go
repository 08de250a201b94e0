package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/gympal/internal/gym"
	"github.com/myrjola/gympal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestManager_WeekAdvanced(t *testing.T) {
	m := metrics.NewTestManager()

	m.WeekAdvanced("classic", []gym.Change{
		{Kind: gym.ChangeRotated, EntryID: "a", Text: "Rotated: Push-ups -> Diamond Push-ups"},
		{Kind: gym.ChangeReps, EntryID: "b", Text: "Plank: Reps 10 -> 12"},
		{Kind: gym.ChangeReps, EntryID: "c", Text: "Squat: Reps 8 -> 10"},
	})
	m.WeekAdvanced("classic", nil)

	if got := testutil.ToFloat64(m.CounterWeekAdvances.WithLabelValues("classic")); got != 2 {
		t.Errorf("week advances = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterPlanChanges.WithLabelValues(string(gym.ChangeReps))); got != 2 {
		t.Errorf("rep changes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterPlanChanges.WithLabelValues(string(gym.ChangeRotated))); got != 1 {
		t.Errorf("rotations = %v, want 1", got)
	}
}

func TestManager_RequestMetrics(t *testing.T) {
	m, reg := metrics.NewTestManagerAndRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /days/{day}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := m.RequestMetrics(mux)

	for _, path := range []string{"/days/monday", "/days/tuesday", "/missing"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequestWithContext(t.Context(), http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "418")); got != 2 {
		t.Errorf("teapot requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "404")); got != 1 {
		t.Errorf("not found requests = %v, want 1", got)
	}
	count, err := testutil.GatherAndCount(reg, "gympal_test_server_request_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 2 {
		t.Errorf("duration series = %d, want 2 (one per route)", count)
	}
}

func TestManager_CoachReplied(t *testing.T) {
	m := metrics.NewTestManager()
	m.CoachReplied("offline")
	if got := testutil.ToFloat64(m.CounterCoachReplies.WithLabelValues("offline")); got != 1 {
		t.Errorf("offline replies = %v, want 1", got)
	}
}
