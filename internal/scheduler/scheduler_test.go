package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/fofliquidity/internal/testing"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func TestScheduler_AddJobAndRunByName(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "liquidity_check"}

	require.NoError(t, s.AddJob("0 0 7 * * MON-FRI", job))
	assert.Equal(t, 1, s.EntryCount())
	assert.Equal(t, []string{"liquidity_check"}, s.JobNames())

	require.NoError(t, s.RunByName("liquidity_check"))
	assert.Equal(t, 1, job.runs)

	assert.Error(t, s.RunByName("unknown"))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("not a schedule", &countingJob{name: "x"})
	assert.Error(t, err)
	assert.Zero(t, s.EntryCount())
	assert.Empty(t, s.JobNames())
}

func TestScheduler_RunNowReturnsJobError(t *testing.T) {
	s := New(zerolog.Nop())
	boom := errors.New("boom")

	err := s.RunNow(&countingJob{name: "x", err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "x"}))

	s.Start()
	s.Stop()
}

func TestCheckDatabaseJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	defer cleanup()

	job := NewCheckDatabaseJob(db)
	job.SetLogger(zerolog.Nop())
	assert.Equal(t, "check_database", job.Name())
	assert.NoError(t, job.Run())

	assert.NoError(t, NewCheckDatabaseJob(nil).Run())
}

func TestCheckWALCheckpointsJob(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	defer cleanup()

	job := NewCheckWALCheckpointsJob(db)
	assert.Equal(t, "check_wal_checkpoints", job.Name())
	assert.NoError(t, job.Run())

	assert.NoError(t, NewCheckWALCheckpointsJob(nil).Run())
}
