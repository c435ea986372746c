package liquidity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks that a holding has a non-negative notice period and amount
func (h Holding) Validate() error {
	if h.NoticePeriodDays < 0 {
		return fmt.Errorf("%w: %q has negative notice period", ErrInvalidHolding, h.Name)
	}
	if h.Amount.IsNegative() {
		return fmt.Errorf("%w: %q has negative amount", ErrInvalidHolding, h.Name)
	}
	return nil
}

// Validate checks every holding of the portfolio
func (p Portfolio) Validate() error {
	for _, h := range p.Holdings {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of all holding amounts
func (p Portfolio) Total() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.Holdings {
		total = total.Add(h.Amount)
	}
	return total
}

// SupplyAt returns the value redeemable within the horizon: the sum of
// holdings whose notice period is at most v days
func (p Portfolio) SupplyAt(v Vertex) decimal.Decimal {
	supply := decimal.Zero
	for _, h := range p.Holdings {
		if h.NoticePeriodDays <= v.Days() {
			supply = supply.Add(h.Amount)
		}
	}
	return supply
}

// Supply returns the cumulative supply at every vertex. Supply is monotone
// non-decreasing in the horizon.
func Supply(p Portfolio, vertices []Vertex) map[Vertex]decimal.Decimal {
	out := make(map[Vertex]decimal.Decimal, len(vertices))
	for _, v := range vertices {
		out[v] = p.SupplyAt(v)
	}
	return out
}

// Mismatch returns the value of holdings that cannot be redeemed within the
// fund's own notice period
func Mismatch(p Portfolio, targetHorizon int) decimal.Decimal {
	amount := decimal.Zero
	for _, h := range p.Holdings {
		if h.NoticePeriodDays > targetHorizon {
			amount = amount.Add(h.Amount)
		}
	}
	return amount
}
