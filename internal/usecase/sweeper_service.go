package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/vaultheim/crucible/internal/domain/match"
)

const (
	defaultSweepMaxAge  = 24 * time.Hour
	defaultSweepWorkers = 4
)

// SweepResult summarizes one pass over stale matches.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// SweeperService reclaims unfinished matches past the retention age. The
// core's transition guards already tolerate a match vanishing between
// operations, so the sweep needs no coordination with in-flight requests.
type SweeperService struct {
	matches match.Repository
	maxAge  time.Duration
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

func NewSweeperService(matches match.Repository, maxAge time.Duration, workers int, logger *slog.Logger) *SweeperService {
	if maxAge <= 0 {
		maxAge = defaultSweepMaxAge
	}
	if workers < 1 {
		workers = defaultSweepWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SweeperService{
		matches: matches,
		maxAge:  maxAge,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// SweepOnce deletes every unfinished match created before now-maxAge,
// fanning the deletes out over a bounded worker pool.
func (s *SweeperService) SweepOnce(ctx context.Context) (SweepResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SweeperService.SweepOnce")
	defer span.End()

	cutoff := s.now().UTC().Add(-s.maxAge)
	stale, err := s.matches.ListUnfinishedBefore(ctx, cutoff)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list stale matches: %w", err)
	}

	result := SweepResult{Scanned: len(stale)}
	if len(stale) == 0 {
		return result, nil
	}

	workerCount := s.workers
	if workerCount > len(stale) {
		workerCount = len(stale)
	}
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return SweepResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var deleted atomic.Int32
	var failed atomic.Int32
	var workers sync.WaitGroup
	var submitErr error
	for _, m := range stale {
		m := m
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			if err := s.matches.DeleteMatch(ctx, m.ID); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "sweep delete failed", "match_id", m.ID, "error", err)
				return
			}
			deleted.Add(1)
		}); err != nil {
			workers.Done()
			submitErr = fmt.Errorf("submit sweep task: %w", err)
			break
		}
	}
	// In-flight deletes finish before the pool is released, even when a
	// submit fails partway through.
	workers.Wait()

	result.Deleted = int(deleted.Load())
	result.Failed = int(failed.Load())
	if submitErr != nil {
		return result, submitErr
	}

	s.logger.InfoContext(ctx, "sweep completed",
		"scanned", result.Scanned,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)

	return result, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep failed", "error", err)
			}
		}
	}
}
