package usecase

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/gateway"
)

// DefaultHistoryDays is the default trailing window for history loading.
const DefaultHistoryDays = 365

// probeConcurrency bounds in-flight snapshot probes. Each probe writes into
// its own slot; ordering is reconstructed afterwards by an explicit sort.
const probeConcurrency = 16

// HistoryLoader reconstructs the historical snapshot series from the
// per-day snapshot store.
type HistoryLoader struct {
	store  gateway.SnapshotStore
	logger *log.Logger
	now    func() time.Time
}

// NewHistoryLoader creates a new HistoryLoader instance.
func NewHistoryLoader(store gateway.SnapshotStore, logger *log.Logger) *HistoryLoader {
	return &HistoryLoader{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// LoadWindow probes one snapshot per day over the trailing maxDays window
// (today backwards) and returns whatever subset exists, sorted ascending by
// date. A date with no snapshot is normal, since recording started at some
// point; a malformed file is logged and skipped the same way. The scan never
// fails as a whole.
func (l *HistoryLoader) LoadWindow(ctx context.Context, maxDays int) []domain.DailySnapshot {
	if maxDays <= 0 {
		maxDays = DefaultHistoryDays
	}
	today := l.now()
	results := make([]*domain.DailySnapshot, maxDays)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(probeConcurrency)
	for i := 0; i < maxDays; i++ {
		date := today.AddDate(0, 0, -i)
		eg.Go(func() error {
			snapshot, err := l.store.Load(egCtx, date)
			if err != nil {
				if !errors.Is(err, gateway.ErrSnapshotNotFound) {
					l.logger.Printf("  Skipping snapshot for %s: %v", date.Format(domain.DateLayout), err)
				}
				return nil
			}
			results[i] = snapshot
			return nil
		})
	}
	// Probes swallow their own failures, so Wait never reports one.
	_ = eg.Wait()

	snapshots := make([]domain.DailySnapshot, 0, len(results))
	for _, s := range results {
		if s != nil {
			snapshots = append(snapshots, *s)
		}
	}
	// Probes run newest-first and complete in any order; the series contract
	// is ascending by date.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Date < snapshots[j].Date
	})
	l.logger.Printf("Loaded %d snapshots from a %d-day window.", len(snapshots), maxDays)
	return snapshots
}
