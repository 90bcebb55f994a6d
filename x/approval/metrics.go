package approval

import (
	"sync/atomic"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by
	// this package.
	MetricsSubsystem = "approval"
)

// Metrics contains the lifecycle counters exposed by the engine.
type Metrics struct {
	// Number of submitted approval requests.
	Submitted metrics.Counter
	// Number of requests finalized as approved.
	Approved metrics.Counter
	// Number of requests finalized as rejected.
	Rejected metrics.Counter
	// Number of requests finalized as expired.
	Expired metrics.Counter
	// Number of accepted, distinct votes.
	Votes metrics.Counter
	// Number of unauthorized approval attempts (each one also rejects
	// its request).
	Unauthorized metrics.Counter
	// Number of issued attestations.
	Attestations metrics.Counter

	snap snapshot
}

type snapshot struct {
	submitted    atomic.Uint64
	approved     atomic.Uint64
	rejected     atomic.Uint64
	expired      atomic.Uint64
	votes        atomic.Uint64
	unauthorized atomic.Uint64
	attestations atomic.Uint64
}

// MetricsSnapshot is a point in time view of the lifecycle counters,
// served by the status query surface.
type MetricsSnapshot struct {
	Submitted    uint64 `json:"submitted"`
	Approved     uint64 `json:"approved"`
	Rejected     uint64 `json:"rejected"`
	Expired      uint64 `json:"expired"`
	Votes        uint64 `json:"votes"`
	Unauthorized uint64 `json:"unauthorized"`
	Attestations uint64 `json:"attestations"`
}

// PrometheusMetrics returns Metrics built using Prometheus client
// library. Optionally, labels can be provided along with their values
// ("labelName1", labelValue1, "labelName2", labelValue2, ...).
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	counter := func(name, help string) metrics.Counter {
		return prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      name,
			Help:      help,
		}, labels).With(labelsAndValues...)
	}
	return &Metrics{
		Submitted:    counter("submitted_total", "Number of submitted approval requests."),
		Approved:     counter("approved_total", "Number of requests finalized as approved."),
		Rejected:     counter("rejected_total", "Number of requests finalized as rejected."),
		Expired:      counter("expired_total", "Number of requests finalized as expired."),
		Votes:        counter("votes_total", "Number of accepted distinct votes."),
		Unauthorized: counter("unauthorized_total", "Number of unauthorized approval attempts."),
		Attestations: counter("attestations_total", "Number of issued attestations."),
	}
}

// NopMetrics returns no-op Metrics. The snapshot counters still count.
func NopMetrics() *Metrics {
	return &Metrics{
		Submitted:    discard.NewCounter(),
		Approved:     discard.NewCounter(),
		Rejected:     discard.NewCounter(),
		Expired:      discard.NewCounter(),
		Votes:        discard.NewCounter(),
		Unauthorized: discard.NewCounter(),
		Attestations: discard.NewCounter(),
	}
}

func (m *Metrics) markSubmitted() {
	m.snap.submitted.Add(1)
	m.Submitted.Add(1)
}

func (m *Metrics) markApproved() {
	m.snap.approved.Add(1)
	m.Approved.Add(1)
}

func (m *Metrics) markRejected() {
	m.snap.rejected.Add(1)
	m.Rejected.Add(1)
}

func (m *Metrics) markExpired() {
	m.snap.expired.Add(1)
	m.Expired.Add(1)
}

func (m *Metrics) markVote() {
	m.snap.votes.Add(1)
	m.Votes.Add(1)
}

func (m *Metrics) markUnauthorized() {
	m.snap.unauthorized.Add(1)
	m.Unauthorized.Add(1)
}

func (m *Metrics) markAttestation() {
	m.snap.attestations.Add(1)
	m.Attestations.Add(1)
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Submitted:    m.snap.submitted.Load(),
		Approved:     m.snap.approved.Load(),
		Rejected:     m.snap.rejected.Load(),
		Expired:      m.snap.expired.Load(),
		Votes:        m.snap.votes.Load(),
		Unauthorized: m.snap.unauthorized.Load(),
		Attestations: m.snap.attestations.Load(),
	}
}
