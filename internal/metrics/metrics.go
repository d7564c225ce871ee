// Package metrics collects run metrics in a private Prometheus registry and
// writes them in the text exposition format, for the node exporter's
// textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/524D/protgraph/internal/parsimony"
	"github.com/524D/protgraph/internal/protein"
)

const namespace = "protgraph"

// Metrics holds the collectors of one run.
type Metrics struct {
	reg *prometheus.Registry

	solves       *prometheus.CounterVec
	solveSeconds *prometheus.HistogramVec
	coverSize    *prometheus.GaugeVec
	records      *prometheus.CounterVec
	entities     *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parsimony",
			Name:      "solves_total",
			Help:      "Minimal cover computations by algorithm and outcome.",
		}, []string{"algorithm", "outcome"}),
		solveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "parsimony",
			Name:      "solve_duration_seconds",
			Help:      "Time to compute a minimal cover.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
		coverSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "parsimony",
			Name:      "cover_size",
			Help:      "Number of proteins in the last minimal cover.",
		}, []string{"dataset"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "match_records_total",
			Help:      "Peptide match records by outcome.",
		}, []string{"outcome"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Entities of an inference run by kind.",
		}, []string{"dataset", "kind"}),
	}
	m.reg.MustRegister(m.solves, m.solveSeconds, m.coverSize, m.records, m.entities)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveSolve records a minimal cover computation.
func (m *Metrics) ObserveSolve(dataset string, r parsimony.Result) {
	outcome := "solved"
	switch {
	case r.Cached:
		outcome = "cached"
	case r.FellBack:
		outcome = "fallback"
	}
	alg := r.Algorithm.String()
	m.solves.WithLabelValues(alg, outcome).Inc()
	m.solveSeconds.WithLabelValues(alg).Observe(r.Elapsed.Seconds())
	m.coverSize.WithLabelValues(dataset).Set(float64(len(r.Cover)))
}

// ObserveBuild records the outcome of adding match records.
func (m *Metrics) ObserveBuild(st protein.BuildStats) {
	m.records.WithLabelValues("added").Add(float64(st.Added))
	m.records.WithLabelValues("duplicate").Add(float64(st.Duplicates))
	m.records.WithLabelValues("rejected").Add(float64(st.Rejected))
}

// ObserveStats records the entity counts of a run.
func (m *Metrics) ObserveStats(dataset string, st protein.Stats) {
	for kind, n := range map[string]int{
		"peptides":   st.Peptides,
		"unmatched":  st.Unmatched,
		"candidates": st.Candidates,
		"evidence":   st.Evidence,
		"proteins":   st.Proteins,
		"isoforms":   st.Isoforms,
		"leading":    st.Leading,
		"groups":     st.Groups,
	} {
		m.entities.WithLabelValues(dataset, kind).Set(float64(n))
	}
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
