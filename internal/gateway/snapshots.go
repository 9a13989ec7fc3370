package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a date.
// Snapshots only exist from the day recording started, so callers treat
// this as a normal condition, not a failure.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore reads and writes per-day snapshot records addressed by
// calendar date.
type SnapshotStore interface {
	Load(ctx context.Context, date time.Time) (*domain.DailySnapshot, error)
	Save(ctx context.Context, snapshot *domain.DailySnapshot) error
}

// FileSnapshotStore stores one JSON file per date under a directory,
// named {YYYY-MM-DD}.json.
type FileSnapshotStore struct {
	dir    string
	logger *log.Logger
}

// NewFileSnapshotStore creates a store rooted at dir.
func NewFileSnapshotStore(dir string, logger *log.Logger) *FileSnapshotStore {
	return &FileSnapshotStore{dir: dir, logger: logger}
}

func (s *FileSnapshotStore) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Load reads the snapshot for a date. The returned snapshot is normalized at
// this boundary: its date is taken from the address, not the file body.
func (s *FileSnapshotStore) Load(_ context.Context, date time.Time) (*domain.DailySnapshot, error) {
	day := date.Format(domain.DateLayout)
	data, err := os.ReadFile(s.path(day))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for %s: %w", day, err)
	}
	var snapshot domain.DailySnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", day, err)
	}
	snapshot.Normalize(date)
	return &snapshot, nil
}

// Save writes the snapshot for its date, overwriting any existing file for
// the same date so at most one snapshot per date ever exists.
func (s *FileSnapshotStore) Save(_ context.Context, snapshot *domain.DailySnapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", s.dir, err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", snapshot.Date, err)
	}
	path := s.path(snapshot.Date)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	s.logger.Printf("Wrote snapshot %s", path)
	return nil
}
