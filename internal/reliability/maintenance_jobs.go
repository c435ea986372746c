package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/fofliquidity/internal/database"
)

// Disk space thresholds in GB
const (
	diskCriticalGB = 0.5
	diskWarningGB  = 5.0
)

// BackupJob uploads a backup of the funds database
type BackupJob struct {
	service *BackupService
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.service.CreateAndUploadBackup(ctx)
	return err
}

// DailyMaintenanceJob truncates the WAL and checks free disk space
type DailyMaintenanceJob struct {
	db      *database.DB
	dataDir string
	usage   func(path string) (*disk.UsageStat, error)
	log     zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		db:      db,
		dataDir: dataDir,
		usage:   disk.Usage,
		log:     log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	if _, err := j.db.Conn().Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		// Not critical, the next checkpoint retries
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")

	return nil
}

// checkDiskSpace fails when the data directory is nearly full
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	usage, err := j.usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < diskCriticalGB {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	}

	if availableGB < diskWarningGB {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Msg("Disk space running low")
	}

	return nil
}

// WeeklyMaintenanceJob compacts the funds database
type WeeklyMaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(db *database.DB, log zerolog.Logger) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		db:  db,
		log: log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// Run performs VACUUM and logs the reclaimed space
func (j *WeeklyMaintenanceJob) Run() error {
	before, err := j.db.GetStats()
	if err != nil {
		return err
	}

	if _, err := j.db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	after, err := j.db.GetStats()
	if err != nil {
		return err
	}

	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	j.log.Info().
		Str("database", j.db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}
