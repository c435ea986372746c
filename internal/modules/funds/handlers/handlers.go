// Package handlers provides HTTP handlers for fund management and per-fund
// liquidity analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/modules/funds"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/modules/report"
	"github.com/aristath/fofliquidity/internal/utils"
)

// Handler handles fund HTTP requests
type Handler struct {
	service   *funds.Service
	formatter report.Formatter
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler creates a new funds handler
func NewHandler(service *funds.Service, formatter report.Formatter, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		formatter: formatter,
		validate:  utils.NewValidator(),
		log:       log.With().Str("handler", "funds").Logger(),
	}
}

// FundRequest is the body of fund create and update requests
type FundRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	TargetHorizon int              `json:"target_horizon" validate:"omitempty,min=1,max=3650"`
	NAV           *decimal.Decimal `json:"nav" validate:"omitempty,gte=0"`
}

// HoldingRequest is one holding in a request body
type HoldingRequest struct {
	Name             string          `json:"name" validate:"required,max=200"`
	NoticePeriodDays int             `json:"notice_period_days" validate:"gte=0"`
	Amount           decimal.Decimal `json:"amount" validate:"gte=0"`
}

// HoldingsRequest replaces a fund's portfolio
type HoldingsRequest struct {
	Holdings []HoldingRequest `json:"holdings" validate:"dive"`
}

// AnalysisResponse is the body of GET /api/funds/{id}/analysis
type AnalysisResponse struct {
	FundID   string      `json:"fund_id"`
	FundName string      `json:"fund_name"`
	Report   report.View `json:"report"`
}

// HandleListFunds handles GET /api/funds
func (h *Handler) HandleListFunds(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.writeServiceError(w, err, "Failed to list funds")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(list))
}

// HandleCreateFund handles POST /api/funds
func (h *Handler) HandleCreateFund(w http.ResponseWriter, r *http.Request) {
	var req FundRequest
	if !h.decode(w, r, &req) {
		return
	}

	fund := &funds.Fund{Name: req.Name, TargetHorizon: req.TargetHorizon, NAV: req.NAV}
	if err := h.service.Create(fund); err != nil {
		h.writeServiceError(w, err, "Failed to create fund")
		return
	}
	h.writeJSON(w, http.StatusCreated, utils.NewEnvelope(fund))
}

// HandleGetFund handles GET /api/funds/{id}
func (h *Handler) HandleGetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get fund")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(fund))
}

// HandleUpdateFund handles PUT /api/funds/{id}
func (h *Handler) HandleUpdateFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get fund")
		return
	}

	var req FundRequest
	if !h.decode(w, r, &req) {
		return
	}

	fund.Name = req.Name
	if req.TargetHorizon != 0 {
		fund.TargetHorizon = req.TargetHorizon
	}
	fund.NAV = req.NAV

	if err := h.service.Update(fund); err != nil {
		h.writeServiceError(w, err, "Failed to update fund")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(fund))
}

// HandleDeleteFund handles DELETE /api/funds/{id}
func (h *Handler) HandleDeleteFund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(id); err != nil {
		h.writeServiceError(w, err, "Failed to delete fund")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(map[string]string{"deleted": id}))
}

// HandleGetHoldings handles GET /api/funds/{id}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Holdings(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(holdings))
}

// HandleReplaceHoldings handles PUT /api/funds/{id}/holdings
func (h *Handler) HandleReplaceHoldings(w http.ResponseWriter, r *http.Request) {
	var req HoldingsRequest
	if !h.decode(w, r, &req) {
		return
	}

	holdings := make([]liquidity.Holding, len(req.Holdings))
	for i, hr := range req.Holdings {
		holdings[i] = hr.toHolding()
	}

	id := chi.URLParam(r, "id")
	if err := h.service.SetHoldings(id, holdings); err != nil {
		h.writeServiceError(w, err, "Failed to replace holdings")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(holdings))
}

// HandleAddHolding handles POST /api/funds/{id}/holdings
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	var req HoldingRequest
	if !h.decode(w, r, &req) {
		return
	}

	holding := req.toHolding()
	if err := h.service.AddHolding(chi.URLParam(r, "id"), holding); err != nil {
		h.writeServiceError(w, err, "Failed to add holding")
		return
	}
	h.writeJSON(w, http.StatusCreated, utils.NewEnvelope(holding))
}

// HandleGetHistory handles GET /api/funds/{id}/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "Failed to get history")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(records))
}

// HandleReplaceHistory handles PUT /api/funds/{id}/history.
// The body holds either records or a table (columns and rows).
func (h *Handler) HandleReplaceHistory(w http.ResponseWriter, r *http.Request) {
	var req liquidity.HistoryInput
	if !h.decode(w, r, &req) {
		return
	}

	records, err := req.FlowRecords()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetHistory(chi.URLParam(r, "id"), records); err != nil {
		h.writeServiceError(w, err, "Failed to replace history")
		return
	}
	h.writeJSON(w, http.StatusOK, utils.NewEnvelope(map[string]int{"records": len(records)}))
}

// HandleGetAnalysis handles GET /api/funds/{id}/analysis.
// Policy overrides are read from the query string.
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	overrides, err := parseOverrides(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := h.service.Analyze(r.Context(), chi.URLParam(r, "id"), overrides)
	if err != nil {
		h.writeServiceError(w, err, "Failed to analyze fund")
		return
	}

	utils.WriteNegotiated(w, r, http.StatusOK, utils.NewEnvelope(AnalysisResponse{
		FundID:   analysis.Fund.ID,
		FundName: analysis.Fund.Name,
		Report:   h.formatter.View(analysis.Report),
	}), h.log)
}

func (hr HoldingRequest) toHolding() liquidity.Holding {
	return liquidity.Holding{Name: hr.Name, NoticePeriodDays: hr.NoticePeriodDays, Amount: hr.Amount}
}

func parseOverrides(q url.Values) (liquidity.PolicyOverrides, error) {
	var o liquidity.PolicyOverrides

	if v := q.Get("method"); v != "" {
		o.Method = &v
	}
	for _, p := range []struct {
		key string
		dst **int
	}{
		{"lookback_months", &o.LookbackMonths},
		{"lookback_days", &o.LookbackDays},
	} {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return o, fmt.Errorf("%s must be an integer", p.key)
			}
			*p.dst = &n
		}
	}
	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"soft_limit", &o.SoftLimit},
		{"mismatch_threshold", &o.MismatchThreshold},
		{"manual_one_day_demand", &o.ManualOneDayDemand},
	} {
		if v := q.Get(p.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return o, fmt.Errorf("%s must be a number", p.key)
			}
			*p.dst = &f
		}
	}
	if v := q.Get("require_timestamps"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, fmt.Errorf("require_timestamps must be a boolean")
		}
		o.RequireTimestamps = &b
	}

	return o, nil
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if liquidity.IsInputError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return false
		}
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			h.writeError(w, http.StatusBadRequest, utils.ValidationMessage(err))
			return false
		}
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, funds.ErrFundNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case funds.IsInputError(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(message)
		h.writeError(w, http.StatusInternalServerError, message)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, data, h.log)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	utils.WriteError(w, status, message, h.log)
}
