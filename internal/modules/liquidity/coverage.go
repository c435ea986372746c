package liquidity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HardLimit is the liquidity index below which coverage is critical
const HardLimit = 1.0

// LiquidityIndex returns supply/demand, or the undefined ratio when there is
// no stressed demand at the horizon
func LiquidityIndex(supply decimal.Decimal, demand float64) Ratio {
	if demand <= 0 {
		return UndefinedRatio()
	}
	return DefinedRatio(supply.InexactFloat64() / demand)
}

// Coverage joins supply and demand per vertex, in vertex order
func Coverage(supply map[Vertex]decimal.Decimal, demand map[Vertex]float64, vertices []Vertex) []CoverageResult {
	out := make([]CoverageResult, 0, len(vertices))
	for _, v := range vertices {
		s := supply[v]
		d := demand[v]
		out = append(out, CoverageResult{
			Vertex:         v,
			Label:          v.Label(),
			Supply:         s,
			Demand:         d,
			LiquidityIndex: LiquidityIndex(s, d),
		})
	}
	return out
}

// MismatchPercent returns mismatch as a percentage of NAV, 0 when NAV <= 0
func MismatchPercent(mismatch, nav decimal.Decimal) float64 {
	if !nav.IsPositive() {
		return 0
	}
	return mismatch.Div(nav).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Classify grades a liquidity index against the hard limit (1.0) and the soft
// limit. 1.0 itself is a warning, and the soft limit itself is OK.
func Classify(il Ratio, softLimit float64) Severity {
	switch {
	case !il.Defined:
		return SeverityNotApplicable
	case il.Value < HardLimit:
		return SeverityCritical
	case il.Value < softLimit:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// MismatchBreached reports whether mismatch exceeds the policy threshold (strictly)
func MismatchBreached(mismatchPercent, threshold float64) bool {
	return mismatchPercent > threshold
}

// buildAlerts lists the alerts raised by the target-horizon classification
// and the mismatch check. The two are independent and may both fire.
func buildAlerts(target CoverageResult, classification Severity, mismatchPercent float64, p Policy) []Alert {
	var alerts []Alert

	switch classification {
	case SeverityCritical:
		alerts = append(alerts, Alert{
			Code:     AlertLiquidityBreach,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("liquidity index %s below %.1f at %s: insufficient liquid holdings to meet stressed demand at the fund's redemption notice",
				target.LiquidityIndex, HardLimit, target.Label),
		})
	case SeverityWarning:
		alerts = append(alerts, Alert{
			Code:     AlertLiquiditySoftLimit,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("liquidity index %s at %s is within the soft limit zone (< %.2f)",
				target.LiquidityIndex, target.Label, p.SoftLimit),
		})
	}

	if MismatchBreached(mismatchPercent, p.MismatchThreshold) {
		alerts = append(alerts, Alert{
			Code:     AlertMismatch,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("mismatch of %.1f%% exceeds %.1f%%: review the composition of the underlying funds",
				mismatchPercent, p.MismatchThreshold),
		})
	}

	return alerts
}
