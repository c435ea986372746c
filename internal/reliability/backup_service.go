// Package reliability backs up the funds database to S3-compatible storage
// and runs periodic database maintenance.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fofliquidity/internal/database"
	"github.com/aristath/fofliquidity/internal/events"
)

const (
	backupBaseName        = "fof-funds-"
	backupSuffix          = ".tar.gz"
	backupTimestampLayout = "20060102-150405"
	metadataFilename      = "backup-metadata.json"
	eventModule           = "reliability"
)

// BackupMetadata is stored next to the database inside every archive
type BackupMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// BackupInfo represents a backup stored remotely
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the funds database and uploads it. Runs from the
// scheduler and the manual trigger are serialized.
type BackupService struct {
	mu         sync.Mutex
	store      ObjectStore
	db         *database.DB
	stagingDir string
	prefix     string
	retention  int
	bus        *events.Bus
	log        zerolog.Logger
	now        func() time.Time
}

// NewBackupService creates a backup service. retention is the number of
// backups kept; older ones are deleted after each upload.
func NewBackupService(store ObjectStore, db *database.DB, dataDir, prefix string, retention int, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:      store,
		db:         db,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		prefix:     strings.Trim(prefix, "/"),
		retention:  retention,
		log:        log.With().Str("service", "backup").Logger(),
		now:        time.Now,
	}
}

// SetEventBus sets the bus used to publish BackupCompleted events
func (s *BackupService) SetEventBus(bus *events.Bus) {
	s.bus = bus
}

// BackupKey returns the object key of a backup taken at t
func BackupKey(prefix string, t time.Time) string {
	name := backupBaseName + t.UTC().Format(backupTimestampLayout) + backupSuffix
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// ParseBackupKey extracts the timestamp from a backup key
func ParseBackupKey(key string) (time.Time, bool) {
	name := path.Base(key)
	if !strings.HasPrefix(name, backupBaseName) || !strings.HasSuffix(name, backupSuffix) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(name, backupBaseName), backupSuffix)
	t, err := time.Parse(backupTimestampLayout, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CreateAndUploadBackup snapshots the database with VACUUM INTO, archives it
// with its metadata and uploads the archive. Old backups are rotated after a
// successful upload.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	runDir, err := os.MkdirTemp(s.stagingDir, "run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(runDir)

	taken := s.now().UTC()
	dbFilename := s.db.Name() + ".db"
	dbPath := filepath.Join(runDir, dbFilename)

	if err := s.db.VacuumInto(ctx, dbPath); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := calculateChecksum(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	metadata := BackupMetadata{
		Timestamp: taken,
		Database:  s.db.Name(),
		Filename:  dbFilename,
		SizeBytes: info.Size(),
		Checksum:  checksum,
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFilename), metadata); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	key := BackupKey(s.prefix, taken)
	archivePath := filepath.Join(runDir, path.Base(key))
	if err := createArchive(archivePath, runDir, []string{dbFilename, metadataFilename}); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, key, archiveFile, archiveInfo.Size()); err != nil {
		return nil, err
	}

	pruned, err := s.RotateOldBackups(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	if s.bus != nil {
		s.bus.Emit(eventModule, &events.BackupCompletedData{
			Key:       key,
			SizeBytes: archiveInfo.Size(),
			Pruned:    pruned,
		})
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int64("size_bytes", archiveInfo.Size()).
		Int("pruned", pruned).
		Msg("Backup completed successfully")

	return &BackupInfo{Key: key, Timestamp: taken, SizeBytes: archiveInfo.Size()}, nil
}

// ListBackups lists stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	listPrefix := backupBaseName
	if s.prefix != "" {
		listPrefix = s.prefix + "/" + backupBaseName
	}

	objects, err := s.store.List(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		ts, ok := ParseBackupKey(obj.Key)
		if !ok {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Timestamp: ts,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes every backup beyond the newest retention ones and
// returns how many were deleted. A retention of zero keeps everything.
func (s *BackupService) RotateOldBackups(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, backup := range backupsToPrune(backups, s.retention) {
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("key", backup.Key).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}

	return deleted, nil
}

// backupsToPrune returns the backups beyond the newest keep entries of a
// newest-first list
func backupsToPrune(newestFirst []BackupInfo, keep int) []BackupInfo {
	if keep <= 0 || len(newestFirst) <= keep {
		return nil
	}
	return newestFirst[keep:]
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes backup metadata to a JSON file
func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive creates a tar.gz archive of the named files in sourceDir
func createArchive(archivePath, sourceDir string, filenames []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
