package accounting

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/posledger/posledger/internal/accounting/shared"
)

// Metrics records derivation outcomes.
type Metrics struct {
	derivations *prometheus.CounterVec
	duration    prometheus.Histogram
	rejected    *prometheus.CounterVec
	imbalance   prometheus.Gauge
	cacheHits   *prometheus.CounterVec
}

// NewMetrics registers the ledger collectors. A nil registerer uses the
// Prometheus default.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posledger_ledger_derivations_total",
			Help: "Ledger derivations by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "posledger_ledger_derivation_duration_seconds",
			Help:    "Time spent loading inputs and deriving a ledger snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posledger_ledger_rejected_records_total",
			Help: "Input records excluded from aggregation, by kind.",
		}, []string{"kind"}),
		imbalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posledger_ledger_trial_balance_difference",
			Help: "Debit minus credit total of the latest trial balance.",
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posledger_ledger_cache_requests_total",
			Help: "Snapshot cache lookups by result.",
		}, []string{"result"}),
	}
	registerer.MustRegister(m.derivations, m.duration, m.rejected, m.imbalance, m.cacheHits)
	return m
}

func (m *Metrics) observeDerivation(start time.Time, snap Snapshot, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.derivations.WithLabelValues("error").Inc()
		return
	}
	m.derivations.WithLabelValues("ok").Inc()
	for _, bad := range snap.Rejected {
		m.rejected.WithLabelValues(string(bad.Kind)).Inc()
	}
	diff, _ := snap.TrialBalance.Difference().Float64()
	m.imbalance.Set(diff)
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.WithLabelValues("hit").Inc()
		return
	}
	m.cacheHits.WithLabelValues("miss").Inc()
}

// rejectedKinds counts rejected records per kind.
func rejectedKinds(snap Snapshot) map[shared.RecordKind]int {
	out := make(map[shared.RecordKind]int)
	for _, bad := range snap.Rejected {
		out[bad.Kind]++
	}
	return out
}
