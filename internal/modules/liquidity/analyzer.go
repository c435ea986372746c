package liquidity

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Input is everything a liquidity analysis needs. The caller owns and
// persists the portfolio and history; the analyzer only reads them.
type Input struct {
	History   []FlowRecord
	Portfolio Portfolio
	// NAV overrides the net asset value of the latest history record
	NAV    *decimal.Decimal
	Policy Policy
}

// Report is the outcome of one analysis. It is recomputed on every call and
// never mutated after it is returned.
type Report struct {
	Policy          Policy           `json:"policy"`
	Method          string           `json:"method"`
	Observations    int              `json:"observations"`
	Vertices        []CoverageResult `json:"vertices"`
	Target          CoverageResult   `json:"target"`
	OneDayDemand    float64          `json:"one_day_demand"`
	NAV             decimal.Decimal  `json:"nav"`
	TotalHoldings   decimal.Decimal  `json:"total_holdings"`
	MismatchAmount  decimal.Decimal  `json:"mismatch_amount"`
	MismatchPercent float64          `json:"mismatch_percent"`
	Classification  Severity         `json:"classification"`
	MismatchFlag    bool             `json:"mismatch_flag"`
	Alerts          []Alert          `json:"alerts"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// TargetIL returns the liquidity index at the fund's own notice period
func (r *Report) TargetIL() Ratio {
	return r.Target.LiquidityIndex
}

// Analyzer runs the liquidity pipeline: flow normalization, demand
// estimation, supply aggregation and coverage classification
type Analyzer struct {
	log zerolog.Logger
	now func() time.Time
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "liquidity_analyzer").Logger(),
		now: time.Now,
	}
}

// Analyze computes the coverage of every vertex and classifies the fund.
// Schema, ordering and policy problems are returned as errors before any
// computation; degenerate values (short history, zero demand, zero NAV) are
// represented in the report instead.
func (a *Analyzer) Analyze(in Input) (*Report, error) {
	p := in.Policy
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := in.Portfolio.Validate(); err != nil {
		return nil, err
	}

	series, err := NormalizeFlows(in.History, p.RequireTimestamps)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize history: %w", err)
	}

	nav := series.LatestNAV()
	if in.NAV != nil {
		if in.NAV.IsNegative() {
			return nil, fmt.Errorf("nav: %w", ErrNegativeAmount)
		}
		nav = *in.NAV
	}

	estimator, err := NewEstimator(p, nav.InexactFloat64())
	if err != nil {
		return nil, err
	}

	vertices := Vertices(p.TargetHorizon)
	demand := estimator.Estimate(series, vertices)
	supply := Supply(in.Portfolio, vertices)
	results := Coverage(supply, demand, vertices)

	var target CoverageResult
	for _, r := range results {
		if r.Vertex == Vertex(p.TargetHorizon) {
			target = r
			break
		}
	}

	mismatch := Mismatch(in.Portfolio, p.TargetHorizon)
	mismatchPct := MismatchPercent(mismatch, nav)
	classification := Classify(target.LiquidityIndex, p.SoftLimit)

	oneDay := 0.0
	if od, ok := estimator.(OneDayEstimator); ok {
		oneDay = od.OneDay(series)
	} else if len(vertices) > 0 && vertices[0] == 1 {
		oneDay = demand[1]
	}

	report := &Report{
		Policy:          p,
		Method:          estimator.Name(),
		Observations:    series.Len(),
		Vertices:        results,
		Target:          target,
		OneDayDemand:    oneDay,
		NAV:             nav,
		TotalHoldings:   in.Portfolio.Total(),
		MismatchAmount:  mismatch,
		MismatchPercent: mismatchPct,
		Classification:  classification,
		MismatchFlag:    MismatchBreached(mismatchPct, p.MismatchThreshold),
		Alerts:          buildAlerts(target, classification, mismatchPct, p),
		GeneratedAt:     a.now().UTC(),
	}

	a.log.Debug().
		Str("method", report.Method).
		Int("observations", report.Observations).
		Int("target_horizon", p.TargetHorizon).
		Str("target_il", target.LiquidityIndex.String()).
		Str("classification", string(classification)).
		Float64("mismatch_pct", mismatchPct).
		Msg("Liquidity analysis completed")

	return report, nil
}
