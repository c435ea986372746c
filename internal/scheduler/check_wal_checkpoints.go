package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/database"
)

// walWarnFrames is the WAL size above which a warning is logged
const walWarnFrames = 1000

// CheckWALCheckpointsJob monitors WAL checkpoint status
type CheckWALCheckpointsJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob
func NewCheckWALCheckpointsJob(db *database.DB) *CheckWALCheckpointsJob {
	return &CheckWALCheckpointsJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckWALCheckpointsJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run runs a passive checkpoint and reports the WAL size
func (j *CheckWALCheckpointsJob) Run() error {
	if j.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		return fmt.Errorf("failed to check WAL checkpoint of %s: %w", j.db.Name(), err)
	}

	if frames > walWarnFrames {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Msg("WAL checkpoint status OK")
	}

	return nil
}
