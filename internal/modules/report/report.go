// Package report formats liquidity analyses into presentation tables.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

const moneyFormat = "#,###.##"

// DefaultCurrencySymbol prefixes monetary KPI strings
const DefaultCurrencySymbol = "R$"

// Row is one line of the per-vertex table
type Row struct {
	Vertex         string `json:"vertex"`
	Supply         string `json:"supply"`
	Demand         string `json:"demand"`
	LiquidityIndex string `json:"liquidity_index"`
}

// KPI holds the headline figures of an analysis
type KPI struct {
	TargetLabel     string `json:"target_label"`
	TargetIL        string `json:"target_il"`
	MismatchPercent string `json:"mismatch_percent"`
	MismatchAmount  string `json:"mismatch_amount"`
	NAV             string `json:"nav"`
	Classification  string `json:"classification"`
	MismatchFlag    bool   `json:"mismatch_flag"`
}

// Formatter renders report values with a currency symbol
type Formatter struct {
	Currency string
}

// NewFormatter creates a formatter, defaulting the currency symbol
func NewFormatter(currency string) Formatter {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrencySymbol
	}
	return Formatter{Currency: currency}
}

// Money formats an amount with thousands separators and two decimals
func (f Formatter) Money(v decimal.Decimal) string {
	return fmt.Sprintf("%s %s", f.Currency, Number(v.InexactFloat64()))
}

// Number formats a value with thousands separators and two decimals
func Number(v float64) string {
	return humanize.FormatFloat(moneyFormat, v)
}

// Rows renders the per-vertex table
func (f Formatter) Rows(r *liquidity.Report) []Row {
	rows := make([]Row, 0, len(r.Vertices))
	for _, v := range r.Vertices {
		rows = append(rows, Row{
			Vertex:         v.Label,
			Supply:         Number(v.Supply.InexactFloat64()),
			Demand:         Number(v.Demand),
			LiquidityIndex: v.LiquidityIndex.String(),
		})
	}
	return rows
}

// KPIs renders the headline figures
func (f Formatter) KPIs(r *liquidity.Report) KPI {
	return KPI{
		TargetLabel:     r.Target.Label,
		TargetIL:        r.TargetIL().String(),
		MismatchPercent: fmt.Sprintf("%.1f%%", r.MismatchPercent),
		MismatchAmount:  f.Money(r.MismatchAmount),
		NAV:             f.Money(r.NAV),
		Classification:  string(r.Classification),
		MismatchFlag:    r.MismatchFlag,
	}
}

// Template returns the header and sample rows of the history template handed
// to fund administrators. Writing it to a spreadsheet is left to the caller.
func Template(mapping liquidity.ColumnMapping) ([]string, [][]string) {
	header := []string{mapping.Date, mapping.GrossRedemptions, mapping.ScheduledContributions, mapping.NetAssetValue}
	rows := [][]string{
		{"2024-01-01", "100000", "50000", "10000000"},
		{"2024-01-02", "500000", "0", "10100000"},
		{"2024-01-03", "150000", "100000", "9800000"},
		{"2024-01-04", "200000", "50000", "9600000"},
		{"2024-01-05", "0", "250000", "9500000"},
	}
	return header, rows
}
