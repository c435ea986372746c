package liquidity

import "fmt"

// Policy holds the tunable parameters of a liquidity analysis
type Policy struct {
	// TargetHorizon is the fund's own redemption notice period, in days
	TargetHorizon int `json:"target_horizon"`
	// Method selects the demand estimator: ewma, empirical or manual
	Method string `json:"method"`
	// LookbackMonths is the EWMA window, converted to a span of months×21 days
	LookbackMonths int `json:"lookback_months"`
	// LookbackDays limits the empirical estimator to the latest observations (0 = all)
	LookbackDays int `json:"lookback_days"`
	// SoftLimit is the warning threshold on the liquidity index
	SoftLimit float64 `json:"soft_limit"`
	// MismatchThreshold is the mismatch percentage above which a warning is raised
	MismatchThreshold float64 `json:"mismatch_threshold"`
	// RequireTimestamps rejects undated history instead of trusting input order
	RequireTimestamps bool `json:"require_timestamps"`
	// ManualOneDayDemand overrides the manual estimator's one-day demand
	ManualOneDayDemand float64 `json:"manual_one_day_demand,omitempty"`
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		TargetHorizon:     7,
		Method:            MethodEWMA,
		LookbackMonths:    12,
		LookbackDays:      0,
		SoftLimit:         1.3,
		MismatchThreshold: 25,
		RequireTimestamps: true,
	}
}

// Validate checks the policy ranges
func (p Policy) Validate() error {
	switch {
	case p.TargetHorizon < 1:
		return fmt.Errorf("%w: target_horizon must be at least 1 day", ErrInvalidPolicy)
	case p.Method != MethodEWMA && p.Method != MethodEmpirical && p.Method != MethodManual:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidPolicy, p.Method)
	case p.Method == MethodEWMA && (p.LookbackMonths < 1 || p.LookbackMonths > 36):
		return fmt.Errorf("%w: lookback_months must be between 1 and 36", ErrInvalidPolicy)
	case p.LookbackDays < 0:
		return fmt.Errorf("%w: lookback_days must not be negative", ErrInvalidPolicy)
	case p.SoftLimit < HardLimit:
		return fmt.Errorf("%w: soft_limit must be at least %.1f", ErrInvalidPolicy, HardLimit)
	case p.MismatchThreshold <= 0 || p.MismatchThreshold > 100:
		return fmt.Errorf("%w: mismatch_threshold must be in (0, 100]", ErrInvalidPolicy)
	case p.ManualOneDayDemand < 0:
		return fmt.Errorf("%w: manual_one_day_demand must not be negative", ErrInvalidPolicy)
	}
	return nil
}

// PolicyOverrides adjusts a policy for a single analysis.
// Nil fields keep the default.
type PolicyOverrides struct {
	Method             *string  `json:"method,omitempty"`
	LookbackMonths     *int     `json:"lookback_months,omitempty"`
	LookbackDays       *int     `json:"lookback_days,omitempty"`
	SoftLimit          *float64 `json:"soft_limit,omitempty"`
	MismatchThreshold  *float64 `json:"mismatch_threshold,omitempty"`
	RequireTimestamps  *bool    `json:"require_timestamps,omitempty"`
	ManualOneDayDemand *float64 `json:"manual_one_day_demand,omitempty"`
}

// Apply returns p with every set override applied
func (o PolicyOverrides) Apply(p Policy) Policy {
	if o.Method != nil {
		p.Method = *o.Method
	}
	if o.LookbackMonths != nil {
		p.LookbackMonths = *o.LookbackMonths
	}
	if o.LookbackDays != nil {
		p.LookbackDays = *o.LookbackDays
	}
	if o.SoftLimit != nil {
		p.SoftLimit = *o.SoftLimit
	}
	if o.MismatchThreshold != nil {
		p.MismatchThreshold = *o.MismatchThreshold
	}
	if o.RequireTimestamps != nil {
		p.RequireTimestamps = *o.RequireTimestamps
	}
	if o.ManualOneDayDemand != nil {
		p.ManualOneDayDemand = *o.ManualOneDayDemand
	}
	return p
}
