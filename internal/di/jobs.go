package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/config"
	"github.com/aristath/fofliquidity/internal/modules/monitoring"
	"github.com/aristath/fofliquidity/internal/reliability"
	"github.com/aristath/fofliquidity/internal/scheduler"
)

// Maintenance schedules (cron with seconds)
const (
	checkDatabaseSchedule     = "0 30 3 * * *"
	walCheckpointSchedule     = "0 0 * * * *"
	dailyMaintenanceSchedule  = "0 0 4 * * *"
	weeklyMaintenanceSchedule = "0 0 5 * * SUN"
)

// RegisterJobs creates the background jobs and schedules them
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}
	sched := container.Scheduler

	instances.LiquidityCheck = monitoring.NewLiquidityCheckJob(container.FundService, container.Metrics, log)
	if err := sched.AddJob(cfg.MonitorSchedule, instances.LiquidityCheck); err != nil {
		return nil, err
	}

	checkDatabase := scheduler.NewCheckDatabaseJob(container.FundsDB)
	checkDatabase.SetLogger(log.With().Str("job", "check_database").Logger())
	instances.CheckDatabase = checkDatabase
	if err := sched.AddJob(checkDatabaseSchedule, checkDatabase); err != nil {
		return nil, err
	}

	walCheckpoints := scheduler.NewCheckWALCheckpointsJob(container.FundsDB)
	walCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())
	instances.WALCheckpoints = walCheckpoints
	if err := sched.AddJob(walCheckpointSchedule, walCheckpoints); err != nil {
		return nil, err
	}

	instances.DailyMaintenance = reliability.NewDailyMaintenanceJob(container.FundsDB, cfg.DataDir, log)
	if err := sched.AddJob(dailyMaintenanceSchedule, instances.DailyMaintenance); err != nil {
		return nil, err
	}

	instances.WeeklyMaintenance = reliability.NewWeeklyMaintenanceJob(container.FundsDB, log)
	if err := sched.AddJob(weeklyMaintenanceSchedule, instances.WeeklyMaintenance); err != nil {
		return nil, err
	}

	if container.BackupService != nil {
		instances.Backup = reliability.NewBackupJob(container.BackupService, log)
		if err := sched.AddJob(cfg.Backup.Schedule, instances.Backup); err != nil {
			return nil, err
		}
	}

	log.Info().Int("jobs", sched.EntryCount()).Msg("Jobs registered")

	return instances, nil
}
