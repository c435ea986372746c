package funds

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/fofliquidity/internal/events"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
)

const eventModule = "funds"

// AnalysisRecorder receives every completed analysis (metrics)
type AnalysisRecorder interface {
	RecordAnalysis(fundID string, report *liquidity.Report)
	ForgetFund(fundID string)
}

// Service coordinates fund state changes and liquidity analyses
type Service struct {
	repo     *Repository
	analyzer *liquidity.Analyzer
	policy   liquidity.Policy
	recorder AnalysisRecorder
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService creates a new funds service. policy holds the configured
// defaults; each fund's target horizon replaces policy.TargetHorizon.
func NewService(repo *Repository, analyzer *liquidity.Analyzer, policy liquidity.Policy, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		analyzer: analyzer,
		policy:   policy,
		log:      log.With().Str("component", "funds_service").Logger(),
	}
}

// SetRecorder sets the analysis recorder
func (s *Service) SetRecorder(recorder AnalysisRecorder) {
	s.recorder = recorder
}

// SetEventBus sets the bus used to publish fund and alert events
func (s *Service) SetEventBus(bus *events.Bus) {
	s.bus = bus
}

// DefaultPolicy returns the configured default policy
func (s *Service) DefaultPolicy() liquidity.Policy {
	return s.policy
}

// Create validates and stores a new fund. A zero target horizon takes the
// configured default.
func (s *Service) Create(fund *Fund) error {
	if fund.TargetHorizon == 0 {
		fund.TargetHorizon = s.policy.TargetHorizon
	}
	if err := validateFund(fund); err != nil {
		return err
	}
	if err := s.repo.Create(fund); err != nil {
		return err
	}
	s.emit(&events.FundChangedData{FundID: fund.ID, Change: "created"})
	return nil
}

// Get returns a fund by ID
func (s *Service) Get(id string) (*Fund, error) {
	return s.repo.GetByID(id)
}

// List returns all funds
func (s *Service) List() ([]Fund, error) {
	return s.repo.List()
}

// Update validates and stores a fund's attributes
func (s *Service) Update(fund *Fund) error {
	if err := validateFund(fund); err != nil {
		return err
	}
	if err := s.repo.Update(fund); err != nil {
		return err
	}
	s.emit(&events.FundChangedData{FundID: fund.ID, Change: "updated"})
	return nil
}

// Delete removes a fund
func (s *Service) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.ForgetFund(id)
	}
	s.emit(&events.FundChangedData{FundID: id, Change: "deleted"})
	return nil
}

// Holdings returns the fund's portfolio
func (s *Service) Holdings(id string) ([]liquidity.Holding, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}
	return s.repo.GetHoldings(id)
}

// SetHoldings replaces the fund's portfolio
func (s *Service) SetHoldings(id string, holdings []liquidity.Holding) error {
	if err := (liquidity.Portfolio{Holdings: holdings}).Validate(); err != nil {
		return err
	}
	if err := s.repo.ReplaceHoldings(id, holdings); err != nil {
		return err
	}
	s.emit(&events.FundChangedData{FundID: id, Change: "holdings"})
	return nil
}

// AddHolding appends one holding to the fund's portfolio
func (s *Service) AddHolding(id string, holding liquidity.Holding) error {
	if err := holding.Validate(); err != nil {
		return err
	}
	if err := s.repo.AddHolding(id, holding); err != nil {
		return err
	}
	s.emit(&events.FundChangedData{FundID: id, Change: "holdings"})
	return nil
}

// History returns the fund's stored flow history
func (s *Service) History(id string) ([]liquidity.FlowRecord, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}
	return s.repo.GetHistory(id)
}

// SetHistory replaces the fund's flow history. Records are checked for
// negative amounts and mixed dating before they are stored.
func (s *Service) SetHistory(id string, records []liquidity.FlowRecord) error {
	if _, err := liquidity.NormalizeFlows(records, false); err != nil {
		return err
	}
	if err := s.repo.ReplaceHistory(id, records); err != nil {
		return err
	}
	s.emit(&events.FundChangedData{FundID: id, Change: "history"})
	return nil
}

// Analyze loads the fund's holdings and history and runs a liquidity
// analysis with the default policy adjusted by overrides
func (s *Service) Analyze(ctx context.Context, id string, overrides liquidity.PolicyOverrides) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fund, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	holdings, err := s.repo.GetHoldings(id)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.GetHistory(id)
	if err != nil {
		return nil, err
	}

	policy := overrides.Apply(s.policy)
	policy.TargetHorizon = fund.TargetHorizon

	report, err := s.analyzer.Analyze(liquidity.Input{
		History:   history,
		Portfolio: liquidity.Portfolio{Holdings: holdings},
		NAV:       fund.NAV,
		Policy:    policy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze fund %s: %w", fund.ID, err)
	}

	if s.recorder != nil {
		s.recorder.RecordAnalysis(fund.ID, report)
	}
	s.publishAnalysis(fund, report)

	return &Analysis{Fund: *fund, Report: report}, nil
}

func (s *Service) publishAnalysis(fund *Fund, report *liquidity.Report) {
	il := report.TargetIL().Ptr()
	s.emit(&events.AnalysisCompletedData{
		FundID:          fund.ID,
		Method:          report.Method,
		Classification:  string(report.Classification),
		LiquidityIndex:  il,
		MismatchPercent: report.MismatchPercent,
	})

	for _, alert := range report.Alerts {
		s.emit(&events.LiquidityAlertData{
			FundID:         fund.ID,
			FundName:       fund.Name,
			Code:           alert.Code,
			Severity:       string(alert.Severity),
			Message:        alert.Message,
			Vertex:         report.Target.Label,
			LiquidityIndex: il,
		})
	}
}

func (s *Service) emit(data events.EventData) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(eventModule, data)
}

func validateFund(fund *Fund) error {
	if fund.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFund)
	}
	if fund.TargetHorizon < 1 {
		return fmt.Errorf("%w: target_horizon must be at least 1 day", ErrInvalidFund)
	}
	if fund.NAV != nil && fund.NAV.LessThan(decimal.Zero) {
		return fmt.Errorf("nav: %w", liquidity.ErrNegativeAmount)
	}
	return nil
}
