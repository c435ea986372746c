package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/modules/report"
	"github.com/aristath/fofliquidity/internal/utils"
)

func setupRouter() http.Handler {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(liquidity.NewAnalyzer(log), liquidity.DefaultPolicy(), report.NewFormatter(""), log)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router
}

func post(router http.Handler, body string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/liquidity/analyze", bytes.NewReader([]byte(body)))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) report.View {
	t.Helper()
	var envelope struct {
		Data report.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

const portfolio = `[
	{"name":"Fundo Caixa","notice_period_days":0,"amount":"3000000"},
	{"name":"Fundo Credito","notice_period_days":5,"amount":"3000000"},
	{"name":"Fundo Multimercado","notice_period_days":30,"amount":"4000000"}
]`

func TestHandleAnalyze_TableHistory(t *testing.T) {
	body := `{
		"history":{"columns":["Data","Resgates_Brutos","Aportes_do_Dia","Patrimonio_Liquido"],"rows":[
			["2024-01-02","100000","0","10000000"],
			["2024-01-01","100000","0","10000000"]
		]},
		"holdings":` + portfolio + `
	}`

	w := post(setupRouter(), body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decodeView(t, w)
	assert.Equal(t, liquidity.MethodEWMA, view.Method)
	assert.Equal(t, 2, view.Observations)
	assert.Equal(t, 10000000.0, view.NAV)
	assert.InDelta(t, 100000*math.Sqrt(7), view.Target.Demand, 1e-6)
	assert.Equal(t, 6000000.0, view.Target.Supply)
	assert.Equal(t, "OK", view.Classification)
	assert.True(t, view.MismatchFlag)
	require.Len(t, view.Alerts, 1)
	assert.Equal(t, liquidity.AlertMismatch, view.Alerts[0].Code)
}

func TestHandleAnalyze_Empirical(t *testing.T) {
	body := `{
		"history":{"records":[
			{"gross_redemptions":"100","scheduled_contributions":"0","net_asset_value":"1000","timestamp":"2024-01-01T00:00:00Z"},
			{"gross_redemptions":"300","scheduled_contributions":"0","net_asset_value":"1000","timestamp":"2024-01-02T00:00:00Z"}
		]},
		"holdings":[{"name":"A","notice_period_days":0,"amount":"500"}],
		"target_horizon":1,
		"policy":{"method":"empirical"}
	}`

	w := post(setupRouter(), body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decodeView(t, w)
	assert.Equal(t, liquidity.MethodEmpirical, view.Method)
	assert.Equal(t, "D+1", view.Target.Label)
	// 99th percentile of [100, 300] with linear CDF interpolation
	assert.InDelta(t, 296.0, view.Target.Demand, 1e-9)
	// D+5 needs five observations
	assert.Zero(t, view.Vertices[1].Demand)
	assert.Nil(t, view.Vertices[1].LiquidityIndex)
}

func TestHandleAnalyze_Msgpack(t *testing.T) {
	body := `{"holdings":` + portfolio + `,"nav":"10000000","policy":{"method":"manual","manual_one_day_demand":5000000}}`

	w := post(setupRouter(), body, utils.ContentTypeMsgpack)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, utils.ContentTypeMsgpack, w.Header().Get("Content-Type"))

	var envelope struct {
		Data report.View `json:"data"`
	}
	dec := msgpack.NewDecoder(w.Body)
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&envelope))
	assert.Equal(t, "CRITICAL", envelope.Data.Classification)
	require.NotNil(t, envelope.Data.Target.LiquidityIndex)
	assert.Less(t, *envelope.Data.Target.LiquidityIndex, 1.0)
}

func TestHandleAnalyze_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed", `{`, "Invalid request body"},
		{"missing column", `{"history":{"columns":["Resgates_Brutos"],"rows":[["1"]]}}`, "Aportes_do_Dia"},
		{"undated records", `{"history":{"records":[{"gross_redemptions":"1","scheduled_contributions":"0","net_asset_value":"1"}]}}`, "no timestamps"},
		{"negative notice", `{"holdings":[{"name":"x","notice_period_days":-1,"amount":"1"}]}`, "negative notice"},
		{"bad policy", `{"policy":{"soft_limit":0.5}}`, "soft_limit"},
		{"bad target", `{"target_horizon":-1}`, "target_horizon"},
		{"negative nav", `{"nav":"-10"}`, "nav"},
		{"record missing field", `{"history":{"records":[{"gross_redemptions":"1","net_asset_value":"1","timestamp":"2024-01-02T00:00:00Z"}]}}`, "scheduled_contributions"},
		{"blank cell", `{"history":{"columns":["Data","Resgates_Brutos","Aportes_do_Dia","Patrimonio_Liquido"],"rows":[["2024-01-01","","",""]]}}`, "Resgates_Brutos is empty"},
		{"short row", `{"history":{"columns":["Data","Resgates_Brutos","Aportes_do_Dia","Patrimonio_Liquido"],"rows":[["2024-01-02","5"]]}}`, "Aportes_do_Dia is empty"},
	}

	router := setupRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestHandleAnalyze_UndatedAllowed(t *testing.T) {
	body := `{
		"history":{"records":[{"gross_redemptions":"10","scheduled_contributions":"0","net_asset_value":"100"}]},
		"policy":{"require_timestamps":false}
	}`

	w := post(setupRouter(), body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeView(t, w).Observations)
}

func TestHandleGetVertices(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		query    string
		code     int
		vertices []int
	}{
		{"", http.StatusOK, []int{1, 5, 7, 21, 42, 63}},
		{"?target=21", http.StatusOK, []int{1, 5, 21, 42, 63}},
		{"?target=90", http.StatusOK, []int{1, 5, 21, 42, 63, 90}},
		{"?target=0", http.StatusBadRequest, nil},
		{"?target=x", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/liquidity/vertices"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, tt.code, w.Code)
			if tt.vertices == nil {
				return
			}

			var envelope struct {
				Data struct {
					Vertices []int    `json:"vertices"`
					Labels   []string `json:"labels"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			assert.Equal(t, tt.vertices, envelope.Data.Vertices)
			assert.Equal(t, "D+1", envelope.Data.Labels[0])
		})
	}
}

func TestHandleGetTemplate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/liquidity/template", nil)
	w := httptest.NewRecorder()
	setupRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data TemplateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"Data", "Resgates_Brutos", "Aportes_do_Dia", "Patrimonio_Liquido"}, envelope.Data.Columns)
	assert.Len(t, envelope.Data.Rows, 5)
}

func TestHandleGetPolicy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/liquidity/policy", nil)
	w := httptest.NewRecorder()
	setupRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data liquidity.Policy `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, liquidity.DefaultPolicy(), envelope.Data)
}
