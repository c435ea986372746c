package reliability

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/fofliquidity/internal/testing"
)

func TestDailyMaintenanceJob_DiskSpace(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	defer cleanup()

	tests := []struct {
		name    string
		free    uint64
		statErr error
		wantErr bool
	}{
		{name: "plenty of space", free: 50e9},
		{name: "low but above critical", free: 2e9},
		{name: "below critical", free: 1e8, wantErr: true},
		{name: "stat failure", statErr: errors.New("no such device"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewDailyMaintenanceJob(db, t.TempDir(), zerolog.Nop())
			job.usage = func(path string) (*disk.UsageStat, error) {
				if tt.statErr != nil {
					return nil, tt.statErr
				}
				return &disk.UsageStat{Path: path, Free: tt.free}, nil
			}

			err := job.Run()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeeklyMaintenanceJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	defer cleanup()

	job := NewWeeklyMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "weekly_maintenance", job.Name())
	require.NoError(t, job.Run())
}

func TestBackupJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "funds")
	defer cleanup()

	store := newMemStore()
	service := NewBackupService(store, db, t.TempDir(), "bk", 3, zerolog.Nop())
	service.now = func() time.Time { return time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC) }

	job := NewBackupJob(service, zerolog.Nop())
	assert.Equal(t, "backup", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, []string{"bk/fof-funds-20260501-030000.tar.gz"}, store.keys())
}
