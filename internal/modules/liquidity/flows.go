package liquidity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnMapping names the tabular columns holding each logical field
type ColumnMapping struct {
	GrossRedemptions       string `json:"gross_redemptions"`
	ScheduledContributions string `json:"scheduled_contributions"`
	NetAssetValue          string `json:"net_asset_value"`
	Date                   string `json:"date"`
}

// DefaultColumnMapping matches the history template distributed to fund administrators
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		GrossRedemptions:       "Resgates_Brutos",
		ScheduledContributions: "Aportes_do_Dia",
		NetAssetValue:          "Patrimonio_Liquido",
		Date:                   "Data",
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// ValidateColumns checks that the three required columns are present after
// trimming surrounding whitespace. The date column is optional here; ordering
// requirements are enforced by NormalizeFlows.
func ValidateColumns(columns []string, mapping ColumnMapping) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.TrimSpace(c)] = true
	}

	var missing []string
	for _, required := range []string{mapping.GrossRedemptions, mapping.ScheduledContributions, mapping.NetAssetValue} {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// RecordsFromRows converts rows of an already-read tabular source into flow
// records. A schema error aborts before any row is parsed.
func RecordsFromRows(columns []string, rows [][]string, mapping ColumnMapping) ([]FlowRecord, error) {
	if err := ValidateColumns(columns, mapping); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.TrimSpace(c)] = i
	}
	dateIdx, hasDate := index[mapping.Date]
	if mapping.Date == "" {
		hasDate = false
	}

	records := make([]FlowRecord, 0, len(rows))
	for n, row := range rows {
		amount := func(name string) (decimal.Decimal, error) {
			i := index[name]
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				return decimal.Zero, fmt.Errorf("%w %d: %s is empty", ErrInvalidRow, n+1, name)
			}
			v, err := decimal.NewFromString(strings.TrimSpace(row[i]))
			if err != nil {
				return decimal.Zero, fmt.Errorf("%w %d: %s: %v", ErrInvalidRow, n+1, name, err)
			}
			return v, nil
		}

		var rec FlowRecord
		var err error
		if rec.GrossRedemptions, err = amount(mapping.GrossRedemptions); err != nil {
			return nil, err
		}
		if rec.ScheduledContributions, err = amount(mapping.ScheduledContributions); err != nil {
			return nil, err
		}
		if rec.NetAssetValue, err = amount(mapping.NetAssetValue); err != nil {
			return nil, err
		}

		if hasDate && dateIdx < len(row) && strings.TrimSpace(row[dateIdx]) != "" {
			ts, err := parseDate(strings.TrimSpace(row[dateIdx]))
			if err != nil {
				return nil, fmt.Errorf("%w %d: %s: %v", ErrInvalidRow, n+1, mapping.Date, err)
			}
			rec.Timestamp = &ts
		}

		records = append(records, rec)
	}

	return records, nil
}

// HistoryInput is a flow history given either as records or as a table
// (column names plus string rows, as read from the history template)
type HistoryInput struct {
	Records []FlowRecord   `json:"records,omitempty"`
	Columns []string       `json:"columns,omitempty"`
	Rows    [][]string     `json:"rows,omitempty"`
	Mapping *ColumnMapping `json:"mapping,omitempty"`
}

// FlowRecords returns the records, converting the table form when columns
// are given. Giving both forms is an error.
func (h HistoryInput) FlowRecords() ([]FlowRecord, error) {
	if len(h.Columns) == 0 {
		if len(h.Rows) > 0 {
			return nil, fmt.Errorf("%w: rows given without columns", ErrMissingColumns)
		}
		return h.Records, nil
	}
	if len(h.Records) > 0 {
		return nil, fmt.Errorf("%w: give either records or columns and rows", ErrInvalidRow)
	}

	mapping := DefaultColumnMapping()
	if h.Mapping != nil {
		mapping = *h.Mapping
	}
	return RecordsFromRows(h.Columns, h.Rows, mapping)
}

// NormalizeFlows derives net and risk flow for every record and returns the
// series in ascending chronological order.
//
// When every record is dated the series is sorted by date (stable for equal
// dates). Undated input is rejected unless requireTimestamps is false, in which
// case input order is taken as ascending (most recent record last).
func NormalizeFlows(records []FlowRecord, requireTimestamps bool) (FlowSeries, error) {
	dated := 0
	for i, r := range records {
		if r.GrossRedemptions.IsNegative() || r.ScheduledContributions.IsNegative() || r.NetAssetValue.IsNegative() {
			return nil, fmt.Errorf("record %d: %w", i+1, ErrNegativeAmount)
		}
		if r.Timestamp != nil {
			dated++
		}
	}

	switch {
	case dated > 0 && dated < len(records):
		return nil, fmt.Errorf("%w: %d of %d records dated", ErrMixedTimestamps, dated, len(records))
	case dated == 0 && len(records) > 0 && requireTimestamps:
		return nil, ErrMissingTimestamps
	}

	series := make(FlowSeries, len(records))
	for i, r := range records {
		series[i] = normalize(r)
	}

	if dated > 0 {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp.Before(*series[j].Timestamp)
		})
	}

	return series, nil
}

func normalize(r FlowRecord) NormalizedFlow {
	net := r.ScheduledContributions.Sub(r.GrossRedemptions)
	risk := decimal.Zero
	if net.IsNegative() {
		risk = net.Neg()
	}
	return NormalizedFlow{FlowRecord: r, NetFlow: net, RiskFlow: risk}
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
