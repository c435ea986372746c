package report

import (
	"time"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

// VertexView is the wire form of one coverage result. A nil LiquidityIndex
// means not applicable (no stress demand at that horizon).
type VertexView struct {
	Vertex         int      `json:"vertex"`
	Label          string   `json:"label"`
	Supply         float64  `json:"supply"`
	Demand         float64  `json:"demand"`
	LiquidityIndex *float64 `json:"liquidity_index"`
}

// View is the wire form of a liquidity report, used for both JSON and
// MessagePack responses
type View struct {
	Method          string            `json:"method"`
	Observations    int               `json:"observations"`
	Policy          liquidity.Policy  `json:"policy"`
	OneDayDemand    float64           `json:"one_day_demand"`
	NAV             float64           `json:"nav"`
	TotalHoldings   float64           `json:"total_holdings"`
	MismatchAmount  float64           `json:"mismatch_amount"`
	MismatchPercent float64           `json:"mismatch_percent"`
	Target          VertexView        `json:"target"`
	Classification  string            `json:"classification"`
	MismatchFlag    bool              `json:"mismatch_flag"`
	Vertices        []VertexView      `json:"vertices"`
	Alerts          []liquidity.Alert `json:"alerts"`
	Rows            []Row             `json:"rows"`
	KPIs            KPI               `json:"kpis"`
	GeneratedAt     string            `json:"generated_at"`
}

// View converts a report into its wire form
func (f Formatter) View(r *liquidity.Report) View {
	vertices := make([]VertexView, 0, len(r.Vertices))
	for _, v := range r.Vertices {
		vertices = append(vertices, vertexView(v))
	}

	alerts := r.Alerts
	if alerts == nil {
		alerts = []liquidity.Alert{}
	}

	return View{
		Method:          r.Method,
		Observations:    r.Observations,
		Policy:          r.Policy,
		OneDayDemand:    r.OneDayDemand,
		NAV:             r.NAV.InexactFloat64(),
		TotalHoldings:   r.TotalHoldings.InexactFloat64(),
		MismatchAmount:  r.MismatchAmount.InexactFloat64(),
		MismatchPercent: r.MismatchPercent,
		Target:          vertexView(r.Target),
		Classification:  string(r.Classification),
		MismatchFlag:    r.MismatchFlag,
		Vertices:        vertices,
		Alerts:          alerts,
		Rows:            f.Rows(r),
		KPIs:            f.KPIs(r),
		GeneratedAt:     r.GeneratedAt.Format(time.RFC3339),
	}
}

func vertexView(c liquidity.CoverageResult) VertexView {
	return VertexView{
		Vertex:         c.Vertex.Days(),
		Label:          c.Label,
		Supply:         c.Supply.InexactFloat64(),
		Demand:         c.Demand,
		LiquidityIndex: c.LiquidityIndex.Ptr(),
	}
}
