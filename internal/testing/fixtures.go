package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

// NewHoldingFixtures returns a three-fund portfolio worth 10,000,000 with
// notice periods of D+0, D+5 and D+30
func NewHoldingFixtures() []liquidity.Holding {
	return []liquidity.Holding{
		{Name: "Fundo Caixa", NoticePeriodDays: 0, Amount: decimal.NewFromInt(3000000)},
		{Name: "Fundo Credito", NoticePeriodDays: 5, Amount: decimal.NewFromInt(3000000)},
		{Name: "Fundo Multimercado", NoticePeriodDays: 30, Amount: decimal.NewFromInt(4000000)},
	}
}

// NewFlowFixtures returns n dated daily records with a constant gross
// redemption, no contributions and a NAV of 10,000,000, oldest first
func NewFlowFixtures(n int, redemption int64) []liquidity.FlowRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]liquidity.FlowRecord, n)
	for i := range records {
		ts := start.AddDate(0, 0, i)
		records[i] = liquidity.FlowRecord{
			GrossRedemptions:       decimal.NewFromInt(redemption),
			ScheduledContributions: decimal.Zero,
			NetAssetValue:          decimal.NewFromInt(10000000),
			Timestamp:              &ts,
		}
	}
	return records
}
