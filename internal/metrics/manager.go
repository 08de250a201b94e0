package metrics

import (
	"github.com/myrjola/gympal/internal/gym"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "gympal"
	subsystem = "web"
)

type Manager struct {
	// counters
	CounterRequests     *prometheus.CounterVec
	CounterWeekAdvances *prometheus.CounterVec
	CounterPlanChanges  *prometheus.CounterVec
	CounterCoachReplies *prometheus.CounterVec

	// gauges
	GaugeEventStreams prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("gympal", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gympal", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterWeekAdvances := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "week_advances",
		Help:      "The total number of confirmed week advances",
	}, []string{"strategy"})
	counterPlanChanges := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_changes",
		Help:      "The total number of rotations and progressions applied by week advances",
	}, []string{"kind"})
	counterCoachReplies := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "coach_replies",
		Help:      "The total number of coach replies by outcome",
	}, []string{"outcome"})

	gaugeEventStreams := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "event_streams",
		Help:      "Current number of open live refresh streams",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:          counterRequests,
		CounterWeekAdvances:      counterWeekAdvances,
		CounterPlanChanges:       counterPlanChanges,
		CounterCoachReplies:      counterCoachReplies,
		GaugeEventStreams:        gaugeEventStreams,
		HistogramRequestDuration: histogramRequestDuration,
	}
}

// NewRegistry returns a registry with the build info, Go runtime and process collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewDefaultManager registers the application metrics on reg.
func NewDefaultManager(reg prometheus.Registerer) *Manager {
	return NewManager(namespace, subsystem, reg)
}

// WeekAdvanced counts a confirmed week advance and the plan changes it applied.
func (m *Manager) WeekAdvanced(strategy string, changes []gym.Change) {
	m.CounterWeekAdvances.With(prometheus.Labels{"strategy": strategy}).Inc()
	for _, c := range changes {
		m.CounterPlanChanges.With(prometheus.Labels{"kind": string(c.Kind)}).Inc()
	}
}

// CoachReplied counts a coach reply. outcome is "ok", "offline" or "error".
func (m *Manager) CoachReplied(outcome string) {
	m.CounterCoachReplies.With(prometheus.Labels{"outcome": outcome}).Inc()
}
