// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristath/fofliquidity/internal/database"
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

// Container holds all application dependencies
type Container struct {
	// Databases
	FundsDB *database.DB

	// Repositories
	FundRepo *funds.Repository

	// Services
	Analyzer      *liquidity.Analyzer
	FundService   *funds.Service
	Formatter     report.Formatter
	EventBus      *events.Bus
	Registry      *prometheus.Registry
	Metrics       *monitoring.Metrics
	BackupService *reliability.BackupService // nil when backups are disabled
	Scheduler     *scheduler.Scheduler

	// Handlers
	LiquidityHandler *liquidityhandlers.Handler
	FundsHandler     *fundshandlers.Handler
}

// JobInstances holds the registered jobs for manual triggering via API
type JobInstances struct {
	LiquidityCheck    *monitoring.LiquidityCheckJob
	Backup            *reliability.BackupJob // nil when backups are disabled
	CheckDatabase     scheduler.Job
	WALCheckpoints    scheduler.Job
	DailyMaintenance  scheduler.Job
	WeeklyMaintenance scheduler.Job
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.FundsDB == nil {
		return nil
	}
	return c.FundsDB.Close()
}
