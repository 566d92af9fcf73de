package manca

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for clustering runs.
// A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	RoundsTotal         prometheus.Counter
	RoundDuration       prometheus.Histogram
	Sparsity            prometheus.Gauge
	Delay               prometheus.Gauge
	SelectedClusters    *prometheus.CounterVec
	BaselineWinsTotal   prometheus.Counter
	ForcedAdoptions     prometheus.Counter
	MissingWeightsTotal prometheus.Counter
	RunDuration         prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manca_runs_total",
				Help: "Total number of clustering runs by terminal state",
			},
			[]string{"state"},
		),
		RoundsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "manca_rounds_total",
			Help: "Total number of diffusion rounds executed",
		}),
		RoundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "manca_round_duration_seconds",
			Help:    "Duration of one diffusion round in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		Sparsity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "manca_sparsity",
			Help: "Sparsity of the assignment held after the latest round",
		}),
		Delay: factory.NewGauge(prometheus.GaugeOpts{
			Name: "manca_delay",
			Help: "Consecutive rounds with unchanged sparsity",
		}),
		SelectedClusters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manca_selected_clusters_total",
				Help: "Rounds by winning cluster count (0 is the random baseline)",
			},
			[]string{"k"},
		),
		BaselineWinsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "manca_baseline_wins_total",
			Help: "Rounds in which no candidate beat the random baseline",
		}),
		ForcedAdoptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "manca_forced_adoptions_total",
			Help: "Rounds that adopted a candidate despite a baseline win because no assignment was held",
		}),
		MissingWeightsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "manca_missing_weights_total",
			Help: "Edges without a weight attribute that defaulted to 1.0",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "manca_run_duration_seconds",
			Help:    "Duration of a full clustering run in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
}

// RecordRound records one finished round.
func (m *Metrics) RecordRound(sel Selection, sparsity, delay int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RoundsTotal.Inc()
	m.RoundDuration.Observe(duration.Seconds())
	m.Sparsity.Set(float64(sparsity))
	m.Delay.Set(float64(delay))
	m.SelectedClusters.WithLabelValues(strconv.Itoa(sel.BestCount)).Inc()
	if sel.BestCount == 0 {
		m.BaselineWinsTotal.Inc()
	}
	if sel.Forced {
		m.ForcedAdoptions.Inc()
	}
}

// RecordMissingWeights counts edges that fell back to weight 1.0.
func (m *Metrics) RecordMissingWeights(n int) {
	if m == nil || n == 0 {
		return
	}
	m.MissingWeightsTotal.Add(float64(n))
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(state State, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state.String()).Inc()
	m.RunDuration.Observe(duration.Seconds())
}
