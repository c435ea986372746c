package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/modules/funds"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	"github.com/aristath/fofliquidity/internal/utils"
)

// CheckResult summarizes one liquidity check run
type CheckResult struct {
	Checked  int `json:"checked"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Failed   int `json:"failed"`
}

// LiquidityCheckJob analyzes every fund with the default policy. Alerts are
// published by the funds service; the job logs them and counts outcomes.
type LiquidityCheckJob struct {
	service *funds.Service
	metrics *Metrics
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	last CheckResult
}

// NewLiquidityCheckJob creates a new LiquidityCheckJob. metrics may be nil.
func NewLiquidityCheckJob(service *funds.Service, metrics *Metrics, log zerolog.Logger) *LiquidityCheckJob {
	return &LiquidityCheckJob{
		service: service,
		metrics: metrics,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "liquidity_check").Logger(),
	}
}

// Name returns the job name
func (j *LiquidityCheckJob) Name() string {
	return "liquidity_check"
}

// Run executes the check. A failing fund is logged and skipped.
func (j *LiquidityCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.Check(ctx)
	return err
}

// Check analyzes every fund and returns the outcome counts
func (j *LiquidityCheckJob) Check(ctx context.Context) (CheckResult, error) {
	defer utils.OperationTimer("liquidity_check", j.log)()

	list, err := j.service.List()
	if err != nil {
		return CheckResult{}, fmt.Errorf("failed to list funds: %w", err)
	}

	var result CheckResult
	for _, fund := range list {
		analysis, err := j.service.Analyze(ctx, fund.ID, liquidity.PolicyOverrides{})
		if err != nil {
			result.Failed++
			j.log.Error().Err(err).Str("fund_id", fund.ID).Str("fund", fund.Name).Msg("Liquidity analysis failed")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		result.Checked++

		report := analysis.Report
		event := j.log.Debug()
		switch report.Classification {
		case liquidity.SeverityCritical:
			result.Critical++
			event = j.log.Error()
		case liquidity.SeverityWarning:
			result.Warning++
			event = j.log.Warn()
		}
		event.
			Str("fund_id", fund.ID).
			Str("fund", fund.Name).
			Str("target", report.Target.Label).
			Str("target_il", report.TargetIL().String()).
			Str("classification", string(report.Classification)).
			Float64("mismatch_pct", report.MismatchPercent).
			Msg("Liquidity check")
	}

	if j.metrics != nil {
		j.metrics.recordRun(result.Failed)
	}
	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	j.log.Info().
		Int("checked", result.Checked).
		Int("critical", result.Critical).
		Int("warning", result.Warning).
		Int("failed", result.Failed).
		Msg("Liquidity check completed")

	return result, ctx.Err()
}

// LastResult returns the counts of the most recent run
func (j *LiquidityCheckJob) LastResult() CheckResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
