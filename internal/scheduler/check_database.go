package scheduler

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/database"
)

// CheckDatabaseJob verifies integrity of the funds database
type CheckDatabaseJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob
func NewCheckDatabaseJob(db *database.DB) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabaseJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_database"
}

// Run executes the integrity check
func (j *CheckDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	if err := checkDatabaseIntegrity(j.db.Conn()); err != nil {
		// Corruption cannot be repaired automatically; restore from backup
		j.log.Error().
			Err(err).
			Str("database", j.db.Name()).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database integrity check passed")
	return nil
}

// checkDatabaseIntegrity runs SQLite's PRAGMA integrity_check
func checkDatabaseIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check returned: %s", result)
	}

	return nil
}
