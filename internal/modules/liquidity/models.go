// Package liquidity implements the fund-of-funds liquidity risk engine.
//
// The engine compares stressed redemption demand, estimated from the fund's
// flow history, with the liquidity the fund can raise from its underlying
// holdings at a fixed set of horizons (vertices). Everything in this package is
// a pure, synchronous computation over caller-owned inputs: nothing is cached
// or persisted, and every call recomputes from scratch.
package liquidity

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlowRecord is one observation period of the fund's history
type FlowRecord struct {
	GrossRedemptions       decimal.Decimal `json:"gross_redemptions"`
	ScheduledContributions decimal.Decimal `json:"scheduled_contributions"`
	NetAssetValue          decimal.Decimal `json:"net_asset_value"`
	Timestamp              *time.Time      `json:"timestamp,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. All three amounts are required.
func (r *FlowRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		GrossRedemptions       *decimal.Decimal `json:"gross_redemptions"`
		ScheduledContributions *decimal.Decimal `json:"scheduled_contributions"`
		NetAssetValue          *decimal.Decimal `json:"net_asset_value"`
		Timestamp              *time.Time       `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var missing []string
	if wire.GrossRedemptions == nil {
		missing = append(missing, "gross_redemptions")
	}
	if wire.ScheduledContributions == nil {
		missing = append(missing, "scheduled_contributions")
	}
	if wire.NetAssetValue == nil {
		missing = append(missing, "net_asset_value")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: record missing %s", ErrInvalidRow, strings.Join(missing, ", "))
	}

	*r = FlowRecord{
		GrossRedemptions:       *wire.GrossRedemptions,
		ScheduledContributions: *wire.ScheduledContributions,
		NetAssetValue:          *wire.NetAssetValue,
		Timestamp:              wire.Timestamp,
	}
	return nil
}

// NormalizedFlow is a FlowRecord augmented with its net and risk flows
type NormalizedFlow struct {
	FlowRecord
	NetFlow  decimal.Decimal `json:"net_flow"`
	RiskFlow decimal.Decimal `json:"risk_flow"`
}

// FlowSeries is a chronologically ascending sequence of normalized flows
type FlowSeries []NormalizedFlow

// Len returns the number of observations
func (s FlowSeries) Len() int {
	return len(s)
}

// RiskFlows returns the risk flow of every observation, oldest first
func (s FlowSeries) RiskFlows() []float64 {
	out := make([]float64, len(s))
	for i, f := range s {
		out[i] = f.RiskFlow.InexactFloat64()
	}
	return out
}

// LatestNAV returns the net asset value of the most recent observation,
// or zero for an empty series
func (s FlowSeries) LatestNAV() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	return s[len(s)-1].NetAssetValue
}

// Holding is a position in an underlying fund
type Holding struct {
	Name             string          `json:"name"`
	NoticePeriodDays int             `json:"notice_period_days"`
	Amount           decimal.Decimal `json:"amount"`
}

// Portfolio is the set of holdings of the fund of funds. Order is irrelevant.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

// Vertex is a horizon, in days after the evaluation date
type Vertex int

// Label returns the D+X notation of the vertex
func (v Vertex) Label() string {
	return fmt.Sprintf("D+%d", int(v))
}

// Days returns the horizon length in days
func (v Vertex) Days() int {
	return int(v)
}

// Ratio is a coverage ratio that may be undefined (no stress demand).
// Undefined ratios marshal to JSON null.
type Ratio struct {
	Value   float64
	Defined bool
}

// DefinedRatio wraps a computed ratio
func DefinedRatio(v float64) Ratio {
	return Ratio{Value: v, Defined: true}
}

// UndefinedRatio is the "not applicable" sentinel
func UndefinedRatio() Ratio {
	return Ratio{Value: math.NaN()}
}

// Float returns the ratio or NaN when undefined
func (r Ratio) Float() float64 {
	if !r.Defined {
		return math.NaN()
	}
	return r.Value
}

// Ptr returns a pointer to the value, nil when undefined
func (r Ratio) Ptr() *float64 {
	if !r.Defined {
		return nil
	}
	v := r.Value
	return &v
}

// String formats the ratio with two decimals or N/A
func (r Ratio) String() string {
	if !r.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// MarshalJSON implements json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Ptr())
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*r = UndefinedRatio()
		return nil
	}
	*r = DefinedRatio(*v)
	return nil
}

// CoverageResult is the joint supply/demand evaluation at one vertex
type CoverageResult struct {
	Vertex         Vertex          `json:"vertex"`
	Label          string          `json:"label"`
	Supply         decimal.Decimal `json:"supply"`
	Demand         float64         `json:"demand"`
	LiquidityIndex Ratio           `json:"liquidity_index"`
}

// Severity is the classification level of an alert
type Severity string

const (
	SeverityCritical      Severity = "CRITICAL"
	SeverityWarning       Severity = "WARNING"
	SeverityOK            Severity = "OK"
	SeverityNotApplicable Severity = "N/A"
)

// Alert codes
const (
	AlertLiquidityBreach    = "LIQUIDITY_INDEX_BREACH"
	AlertLiquiditySoftLimit = "LIQUIDITY_INDEX_SOFT_LIMIT"
	AlertMismatch           = "MISMATCH_ABOVE_THRESHOLD"
)

// Alert is a threshold breach raised by the coverage analysis
type Alert struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
