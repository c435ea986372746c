// Package monitoring exposes liquidity analyses as Prometheus metrics and runs
// the scheduled liquidity check over every fund.
package monitoring

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

const namespace = "fof"

// Metrics records analysis outcomes
type Metrics struct {
	analyses *prometheus.CounterVec
	index    *prometheus.GaugeVec
	mismatch *prometheus.GaugeVec
	jobRuns  *prometheus.CounterVec
}

// NewMetrics creates the liquidity metrics and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "analyses_total",
			Help:      "Liquidity analyses run, by demand method and classification.",
		}, []string{"method", "classification"}),
		index: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "index",
			Help:      "Liquidity index at the fund's target horizon. Absent when not applicable.",
		}, []string{"fund"}),
		mismatch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "mismatch_percent",
			Help:      "Share of NAV held in funds with notice beyond the target horizon.",
		}, []string{"fund"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidity",
			Name:      "check_runs_total",
			Help:      "Scheduled liquidity check runs, by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.analyses, m.index, m.mismatch, m.jobRuns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordAnalysis updates the counters and per-fund gauges
func (m *Metrics) RecordAnalysis(fundID string, report *liquidity.Report) {
	m.analyses.WithLabelValues(report.Method, string(report.Classification)).Inc()

	if il := report.TargetIL(); il.Defined && !math.IsInf(il.Value, 0) {
		m.index.WithLabelValues(fundID).Set(il.Value)
	} else {
		m.index.DeleteLabelValues(fundID)
	}
	m.mismatch.WithLabelValues(fundID).Set(report.MismatchPercent)
}

// ForgetFund drops the gauges of a deleted fund
func (m *Metrics) ForgetFund(fundID string) {
	m.index.DeleteLabelValues(fundID)
	m.mismatch.DeleteLabelValues(fundID)
}

func (m *Metrics) recordRun(failed int) {
	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	m.jobRuns.WithLabelValues(result).Inc()
}
