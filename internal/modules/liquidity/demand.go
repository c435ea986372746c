package liquidity

import (
	"fmt"
	"math"

	"github.com/aristath/fofliquidity/pkg/formulas"
)

// StressQuantile is the one-tailed 99% Gaussian quantile applied to the EWMA deviation
const StressQuantile = 2.33

// EmpiricalConfidence is the percentile of rolling window sums used as stressed demand
const EmpiricalConfidence = 0.99

// ManualDemandFraction is the default one-day stressed demand, as a fraction
// of NAV, when demand is entered manually instead of estimated from history
const ManualDemandFraction = 0.02

// Estimation methods
const (
	MethodEWMA      = "ewma"
	MethodEmpirical = "empirical"
	MethodManual    = "manual"
)

// DemandEstimator turns a flow history into a non-negative stressed
// redemption demand for each requested horizon
type DemandEstimator interface {
	Name() string
	Estimate(series FlowSeries, vertices []Vertex) map[Vertex]float64
}

// OneDayEstimator is implemented by estimators that derive every horizon from
// a single one-day stressed demand
type OneDayEstimator interface {
	OneDay(series FlowSeries) float64
}

// EWMAEstimator derives a one-day stressed demand from the exponentially
// weighted mean and deviation of the risk flow, then scales it to each horizon
// with the square-root-of-time rule.
type EWMAEstimator struct {
	LookbackMonths int
}

// Name implements DemandEstimator
func (e EWMAEstimator) Name() string { return MethodEWMA }

// Moments returns the EWMA mean and deviation of the risk flow at the last observation
func (e EWMAEstimator) Moments(series FlowSeries) (mean, std float64) {
	return formulas.EWMA(series.RiskFlows(), formulas.SpanFromMonths(e.LookbackMonths))
}

// OneDay returns mean + 2.33·std, or 0 for an empty series
func (e EWMAEstimator) OneDay(series FlowSeries) float64 {
	if series.Len() == 0 {
		return 0
	}
	mean, std := e.Moments(series)
	return math.Max(0, mean+StressQuantile*std)
}

// Estimate implements DemandEstimator
func (e EWMAEstimator) Estimate(series FlowSeries, vertices []Vertex) map[Vertex]float64 {
	oneDay := e.OneDay(series)
	out := make(map[Vertex]float64, len(vertices))
	for _, v := range vertices {
		out[v] = formulas.SqrtTimeScale(oneDay, v.Days())
	}
	return out
}

// EmpiricalEstimator takes, for each horizon, the 99th percentile of the
// horizon-length rolling sums of the risk flow. No distribution or time
// scaling is assumed. LookbackDays > 0 restricts the history to its most
// recent observations.
type EmpiricalEstimator struct {
	LookbackDays int
}

// Name implements DemandEstimator
func (e EmpiricalEstimator) Name() string { return MethodEmpirical }

// Estimate implements DemandEstimator. A horizon longer than the available
// history yields 0.
func (e EmpiricalEstimator) Estimate(series FlowSeries, vertices []Vertex) map[Vertex]float64 {
	flows := series.RiskFlows()
	if e.LookbackDays > 0 && len(flows) > e.LookbackDays {
		flows = flows[len(flows)-e.LookbackDays:]
	}

	out := make(map[Vertex]float64, len(vertices))
	for _, v := range vertices {
		sums := formulas.RollingSum(flows, v.Days())
		if len(sums) == 0 {
			out[v] = 0
			continue
		}
		out[v] = math.Max(0, formulas.Percentile(sums, EmpiricalConfidence))
	}
	return out
}

// ManualEstimator scales a caller-supplied one-day stressed demand to each
// horizon with the square-root-of-time rule. History is ignored.
type ManualEstimator struct {
	OneDayDemand float64
}

// Name implements DemandEstimator
func (e ManualEstimator) Name() string { return MethodManual }

// OneDay returns the configured one-day demand
func (e ManualEstimator) OneDay(FlowSeries) float64 {
	return math.Max(0, e.OneDayDemand)
}

// Estimate implements DemandEstimator
func (e ManualEstimator) Estimate(series FlowSeries, vertices []Vertex) map[Vertex]float64 {
	oneDay := e.OneDay(series)
	out := make(map[Vertex]float64, len(vertices))
	for _, v := range vertices {
		out[v] = formulas.SqrtTimeScale(oneDay, v.Days())
	}
	return out
}

// NewEstimator selects the demand estimator configured by the policy.
// nav is only used to default a manual one-day demand.
func NewEstimator(p Policy, nav float64) (DemandEstimator, error) {
	switch p.Method {
	case MethodEWMA, "":
		return EWMAEstimator{LookbackMonths: p.LookbackMonths}, nil
	case MethodEmpirical:
		return EmpiricalEstimator{LookbackDays: p.LookbackDays}, nil
	case MethodManual:
		oneDay := p.ManualOneDayDemand
		if oneDay <= 0 {
			oneDay = math.Max(0, nav) * ManualDemandFraction
		}
		return ManualEstimator{OneDayDemand: oneDay}, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidPolicy, p.Method)
	}
}
