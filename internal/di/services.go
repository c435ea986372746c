package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/config"
	"github.com/aristath/fofliquidity/internal/events"
	"github.com/aristath/fofliquidity/internal/modules/funds"
	fundshandlers "github.com/aristath/fofliquidity/internal/modules/funds/handlers"
	"github.com/aristath/fofliquidity/internal/modules/liquidity"
	liquidityhandlers "github.com/aristath/fofliquidity/internal/modules/liquidity/handlers"
	"github.com/aristath/fofliquidity/internal/modules/monitoring"
	"github.com/aristath/fofliquidity/internal/modules/report"
	"github.com/aristath/fofliquidity/internal/reliability"
	"github.com/aristath/fofliquidity/internal/scheduler"
)

// InitializeServices creates the services and handlers
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.FundRepo == nil {
		return fmt.Errorf("repositories not initialized")
	}

	container.EventBus = events.NewBus(log)

	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := monitoring.NewMetrics(container.Registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	container.Metrics = metrics

	policy := cfg.DefaultPolicy()
	container.Analyzer = liquidity.NewAnalyzer(log)
	container.Formatter = report.NewFormatter(cfg.CurrencySymbol)

	container.FundService = funds.NewService(container.FundRepo, container.Analyzer, policy, log)
	container.FundService.SetRecorder(metrics)
	container.FundService.SetEventBus(container.EventBus)

	container.LiquidityHandler = liquidityhandlers.NewHandler(container.Analyzer, policy, container.Formatter, log)
	container.FundsHandler = fundshandlers.NewHandler(container.FundService, container.Formatter, log)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewR2Client(context.Background(), reliability.R2Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create backup client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			store, container.FundsDB, cfg.DataDir, cfg.Backup.Prefix, cfg.Backup.Retention, log,
		)
		container.BackupService.SetEventBus(container.EventBus)
	} else {
		log.Info().Msg("Backup bucket not configured, backups disabled")
	}

	container.Scheduler = scheduler.New(log)

	log.Debug().Msg("Services initialized")

	return nil
}
