package liquidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"zero target", func(p *Policy) { p.TargetHorizon = 0 }},
		{"unknown method", func(p *Policy) { p.Method = "var" }},
		{"lookback too short", func(p *Policy) { p.LookbackMonths = 0 }},
		{"lookback too long", func(p *Policy) { p.LookbackMonths = 37 }},
		{"negative lookback days", func(p *Policy) { p.LookbackDays = -1 }},
		{"soft limit below hard limit", func(p *Policy) { p.SoftLimit = 0.9 }},
		{"zero mismatch threshold", func(p *Policy) { p.MismatchThreshold = 0 }},
		{"mismatch threshold above 100", func(p *Policy) { p.MismatchThreshold = 101 }},
		{"negative manual demand", func(p *Policy) { p.Method = MethodManual; p.ManualOneDayDemand = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
		})
	}
}

func TestPolicyValidate_EmpiricalIgnoresMonths(t *testing.T) {
	p := DefaultPolicy()
	p.Method = MethodEmpirical
	p.LookbackMonths = 0
	p.LookbackDays = 252
	assert.NoError(t, p.Validate())
}

func TestPolicyOverrides_ApplyKeepsUnsetFields(t *testing.T) {
	soft := 1.5
	p := PolicyOverrides{SoftLimit: &soft}.Apply(DefaultPolicy())

	assert.Equal(t, 1.5, p.SoftLimit)
	assert.Equal(t, 12, p.LookbackMonths)
	assert.Equal(t, 25.0, p.MismatchThreshold)
	assert.True(t, p.RequireTimestamps)
}
