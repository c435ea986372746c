// Package handlers provides HTTP handlers for stateless liquidity analysis.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/modules/report"
	"github.com/aristath/fofliquidity/internal/utils"
)

// Handler handles liquidity HTTP requests. Nothing is persisted: every
// request carries its own history and portfolio.
type Handler struct {
	analyzer  *liquidity.Analyzer
	policy    liquidity.Policy
	formatter report.Formatter
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler creates a new liquidity handler. policy holds the configured
// defaults that request overrides are applied to.
func NewHandler(analyzer *liquidity.Analyzer, policy liquidity.Policy, formatter report.Formatter, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		policy:    policy,
		formatter: formatter,
		validate:  utils.NewValidator(),
		log:       log.With().Str("handler", "liquidity").Logger(),
	}
}

// AnalyzeRequest is the body of POST /api/liquidity/analyze
type AnalyzeRequest struct {
	History       liquidity.HistoryInput    `json:"history"`
	Holdings      []liquidity.Holding       `json:"holdings"`
	NAV           *decimal.Decimal          `json:"nav" validate:"omitempty,gte=0"`
	TargetHorizon int                       `json:"target_horizon" validate:"omitempty,min=1,max=3650"`
	Policy        liquidity.PolicyOverrides `json:"policy"`
}

// TemplateResponse is the body of GET /api/liquidity/template
type TemplateResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// HandleAnalyze handles POST /api/liquidity/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if liquidity.IsInputError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, utils.ValidationMessage(err))
		return
	}

	history, err := req.History.FlowRecords()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	policy := req.Policy.Apply(h.policy)
	if req.TargetHorizon != 0 {
		policy.TargetHorizon = req.TargetHorizon
	}

	rep, err := h.analyzer.Analyze(liquidity.Input{
		History:   history,
		Portfolio: liquidity.Portfolio{Holdings: req.Holdings},
		NAV:       req.NAV,
		Policy:    policy,
	})
	if err != nil {
		if liquidity.IsInputError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to analyze liquidity")
		h.writeError(w, http.StatusInternalServerError, "Failed to analyze liquidity")
		return
	}

	utils.WriteNegotiated(w, r, http.StatusOK, utils.NewEnvelope(h.formatter.View(rep)), h.log)
}

// HandleGetVertices handles GET /api/liquidity/vertices?target=7
func (h *Handler) HandleGetVertices(w http.ResponseWriter, r *http.Request) {
	target := h.policy.TargetHorizon
	if v := r.URL.Query().Get("target"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "target must be a positive integer")
			return
		}
		target = n
	}

	vertices := liquidity.Vertices(target)
	labels := make([]string, len(vertices))
	days := make([]int, len(vertices))
	for i, v := range vertices {
		labels[i] = v.Label()
		days[i] = v.Days()
	}

	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(map[string]interface{}{
		"target":   target,
		"vertices": days,
		"labels":   labels,
	}))
}

// HandleGetTemplate handles GET /api/liquidity/template
func (h *Handler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	columns, rows := report.Template(liquidity.DefaultColumnMapping())
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(TemplateResponse{Columns: columns, Rows: rows}))
}

// HandleGetPolicy handles GET /api/liquidity/policy
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(h.policy))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, data, h.log)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	utils.WriteError(w, status, message, h.log)
}

