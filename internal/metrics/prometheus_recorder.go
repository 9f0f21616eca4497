package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "rosterwatch"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration *prom.HistogramVec
	fetchResults  *prom.CounterVec
	activities    prom.Counter
	notifications *prom.CounterVec
	stateSaves    *prom.CounterVec
	rosterSize    prom.Gauge
	untrackable   prom.Gauge
	passDuration  prom.Histogram
	passes        prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_fetch_duration_seconds",
			Help:      "Duration of per-member activity fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "activity_fetches_total",
			Help:      "Per-member poll outcomes",
		}, []string{"result"}),
		activities: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "activities_emitted_total",
			Help:      "Activities handed to the notification sink",
		}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by sink and result",
		}, []string{"sink", "result"}),
		stateSaves: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "state_saves_total",
			Help:      "State file writes by result",
		}, []string{"result"}),
		rosterSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_members",
			Help:      "Members on the roster after the last reconcile",
		}),
		untrackable: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_untrackable_members",
			Help:      "Members skipped because their error count reached the limit",
		}),
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full reconcile and poll pass",
			Buckets:   prom.ExponentialBuckets(1, 2, 14),
		}),
		passes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed reconcile and poll passes",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.fetchResults, pr.activities, pr.notifications,
		pr.stateSaves, pr.rosterSize, pr.untrackable, pr.passDuration, pr.passes)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, result FetchResult) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchResult(result FetchResult) {
	if p == nil {
		return
	}
	p.fetchResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddActivitiesEmitted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.activities.Add(float64(n))
}

func (p *PrometheusRecorder) IncNotification(sink string, success bool) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(sink, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncStateSave(success bool) {
	if p == nil {
		return
	}
	p.stateSaves.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) SetRosterSize(n int) {
	if p == nil {
		return
	}
	p.rosterSize.Set(float64(n))
}

func (p *PrometheusRecorder) SetUntrackable(n int) {
	if p == nil {
		return
	}
	p.untrackable.Set(float64(n))
}

func (p *PrometheusRecorder) ObservePassDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.Observe(d.Seconds())
	p.passes.Inc()
}
