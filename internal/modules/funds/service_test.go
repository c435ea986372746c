package funds

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fofliquidity/internal/events"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	testingpkg "github.com/aristath/fofliquidity/internal/testing"
)

type recordingRecorder struct {
	mu        sync.Mutex
	recorded  map[string]*liquidity.Report
	forgotten []string
}

func (r *recordingRecorder) RecordAnalysis(fundID string, report *liquidity.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recorded == nil {
		r.recorded = make(map[string]*liquidity.Report)
	}
	r.recorded[fundID] = report
}

func (r *recordingRecorder) ForgetFund(fundID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgotten = append(r.forgotten, fundID)
}

type serviceFixture struct {
	service  *Service
	recorder *recordingRecorder
	events   []*events.Event
}

func newTestService(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newTestRepository(t)
	log := zerolog.Nop()

	f := &serviceFixture{recorder: &recordingRecorder{}}
	bus := events.NewBus(log)
	bus.Subscribe(func(e *events.Event) { f.events = append(f.events, e) })

	f.service = NewService(repo, liquidity.NewAnalyzer(log), liquidity.DefaultPolicy(), log)
	f.service.SetRecorder(f.recorder)
	f.service.SetEventBus(bus)
	return f
}

func (f *serviceFixture) eventTypes() []events.EventType {
	types := make([]events.EventType, len(f.events))
	for i, e := range f.events {
		types[i] = e.Type
	}
	return types
}

func seededFund(t *testing.T, f *serviceFixture) *Fund {
	t.Helper()
	nav := decimal.NewFromInt(10000000)
	fund := &Fund{Name: "Alpha FoF", NAV: &nav}
	require.NoError(t, f.service.Create(fund))
	require.NoError(t, f.service.SetHoldings(fund.ID, testingpkg.NewHoldingFixtures()))
	require.NoError(t, f.service.SetHistory(fund.ID, testingpkg.NewFlowFixtures(30, 100000)))
	return fund
}

func TestService_CreateDefaultsTargetHorizon(t *testing.T) {
	f := newTestService(t)

	fund := &Fund{Name: "Alpha"}
	require.NoError(t, f.service.Create(fund))
	assert.Equal(t, 7, fund.TargetHorizon)
	assert.Equal(t, []events.EventType{events.FundChanged}, f.eventTypes())
}

func TestService_CreateRejectsInvalidFund(t *testing.T) {
	f := newTestService(t)

	err := f.service.Create(&Fund{})
	assert.ErrorIs(t, err, ErrInvalidFund)
	assert.True(t, IsInputError(err))

	neg := decimal.NewFromInt(-1)
	err = f.service.Create(&Fund{Name: "x", NAV: &neg})
	assert.ErrorIs(t, err, liquidity.ErrNegativeAmount)
	assert.Empty(t, f.events)
}

func TestService_SetHoldingsRejectsNegativeNotice(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)

	err := f.service.SetHoldings(fund.ID, []liquidity.Holding{{Name: "bad", NoticePeriodDays: -1, Amount: decimal.NewFromInt(1)}})
	assert.ErrorIs(t, err, liquidity.ErrInvalidHolding)
}

func TestService_SetHistoryRejectsMixedDates(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)

	records := testingpkg.NewFlowFixtures(2, 10)
	records[1].Timestamp = nil
	err := f.service.SetHistory(fund.ID, records)
	assert.ErrorIs(t, err, liquidity.ErrMixedTimestamps)
}

func TestService_AnalyzeEWMA(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)
	f.events = nil

	analysis, err := f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{})
	require.NoError(t, err)

	report := analysis.Report
	assert.Equal(t, liquidity.MethodEWMA, report.Method)
	assert.Equal(t, 30, report.Observations)
	assert.Equal(t, liquidity.Vertex(7), report.Target.Vertex)
	assert.InDelta(t, 100000*math.Sqrt(7), report.Target.Demand, 1e-6)
	assert.True(t, report.Target.Supply.Equal(decimal.NewFromInt(6000000)))
	assert.Equal(t, liquidity.SeverityOK, report.Classification)
	assert.InDelta(t, 40.0, report.MismatchPercent, 1e-9)
	assert.True(t, report.MismatchFlag)

	assert.Same(t, report, f.recorder.recorded[fund.ID])
	assert.Equal(t, []events.EventType{events.AnalysisCompleted, events.LiquidityAlert}, f.eventTypes())

	alert := f.events[1].Data.(*events.LiquidityAlertData)
	assert.Equal(t, liquidity.AlertMismatch, alert.Code)
	assert.Equal(t, "Alpha FoF", alert.FundName)
	assert.Equal(t, "D+7", alert.Vertex)
}

func TestService_AnalyzeWithOverrides(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)
	f.events = nil

	method := liquidity.MethodManual
	oneDay := 5000000.0
	analysis, err := f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{
		Method:             &method,
		ManualOneDayDemand: &oneDay,
	})
	require.NoError(t, err)

	report := analysis.Report
	assert.Equal(t, liquidity.MethodManual, report.Method)
	assert.Equal(t, liquidity.SeverityCritical, report.Classification)
	require.Len(t, report.Alerts, 2)
	assert.Equal(t, liquidity.AlertLiquidityBreach, report.Alerts[0].Code)

	// Overrides never leak into the configured defaults
	assert.Equal(t, liquidity.MethodEWMA, f.service.DefaultPolicy().Method)
	assert.Equal(t, []events.EventType{
		events.AnalysisCompleted, events.LiquidityAlert, events.LiquidityAlert,
	}, f.eventTypes())
}

func TestService_AnalyzeUsesFundTargetHorizon(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)

	fund.TargetHorizon = 30
	require.NoError(t, f.service.Update(fund))

	analysis, err := f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{})
	require.NoError(t, err)
	assert.Equal(t, liquidity.Vertex(30), analysis.Report.Target.Vertex)
	assert.True(t, analysis.Report.Target.Supply.Equal(decimal.NewFromInt(10000000)))
	assert.Zero(t, analysis.Report.MismatchPercent)
	assert.Len(t, analysis.Report.Vertices, 6)
}

func TestService_AnalyzeErrors(t *testing.T) {
	f := newTestService(t)

	_, err := f.service.Analyze(context.Background(), "missing", liquidity.PolicyOverrides{})
	assert.ErrorIs(t, err, ErrFundNotFound)

	fund := seededFund(t, f)
	months := 0
	_, err = f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{LookbackMonths: &months})
	assert.ErrorIs(t, err, liquidity.ErrInvalidPolicy)
	assert.True(t, IsInputError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.service.Analyze(ctx, fund.ID, liquidity.PolicyOverrides{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_AnalyzeUndatedHistoryNeedsOverride(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)

	records := testingpkg.NewFlowFixtures(10, 1000)
	for i := range records {
		records[i].Timestamp = nil
	}
	require.NoError(t, f.service.SetHistory(fund.ID, records))

	_, err := f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{})
	assert.ErrorIs(t, err, liquidity.ErrMissingTimestamps)

	allow := false
	analysis, err := f.service.Analyze(context.Background(), fund.ID, liquidity.PolicyOverrides{RequireTimestamps: &allow})
	require.NoError(t, err)
	assert.Equal(t, 10, analysis.Report.Observations)
}

func TestService_DeleteForgetsMetrics(t *testing.T) {
	f := newTestService(t)
	fund := seededFund(t, f)

	require.NoError(t, f.service.Delete(fund.ID))
	assert.Equal(t, []string{fund.ID}, f.recorder.forgotten)

	_, err := f.service.Get(fund.ID)
	assert.ErrorIs(t, err, ErrFundNotFound)
	_, err = f.service.Holdings(fund.ID)
	assert.ErrorIs(t, err, ErrFundNotFound)
}
