package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/infrastructure/repository/memory"
)

func TestSweeperService_SweepOnce(t *testing.T) {
	repo := memory.NewMatchRepository()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	seed := func(id string, age time.Duration, status match.Status) {
		t.Helper()
		if err := repo.CreateMatch(t.Context(), match.Match{
			ID:        id,
			Format:    match.FormatSingle,
			CreatorID: "alice",
			Status:    status,
			BestOf:    1,
			JoinToken: "tok-" + id,
			CreatedAt: now.Add(-age),
		}); err != nil {
			t.Fatalf("seed match %s: %v", id, err)
		}
	}

	seed("stale-1", 48*time.Hour, match.StatusSetup)
	seed("stale-2", 30*time.Hour, match.StatusPublished)
	seed("fresh", time.Hour, match.StatusSetup)
	seed("finished", 48*time.Hour, match.StatusCompleted)

	sweeper := NewSweeperService(repo, 24*time.Hour, 2, discardLogger())
	sweeper.now = func() time.Time { return now }

	result, err := sweeper.SweepOnce(t.Context())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Scanned != 2 || result.Deleted != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	for _, id := range []string{"stale-1", "stale-2"} {
		if _, exists, _ := repo.GetMatch(t.Context(), id); exists {
			t.Fatalf("match %s must be swept", id)
		}
	}
	for _, id := range []string{"fresh", "finished"} {
		if _, exists, _ := repo.GetMatch(t.Context(), id); !exists {
			t.Fatalf("match %s must survive the sweep", id)
		}
	}
}

// flakyDeleteRepository fails deletes for a fixed set of match ids.
type flakyDeleteRepository struct {
	*memory.MatchRepository
	failing map[string]struct{}
}

func (r *flakyDeleteRepository) DeleteMatch(ctx context.Context, id string) error {
	if _, bad := r.failing[id]; bad {
		return errors.New("storage unavailable")
	}
	return r.MatchRepository.DeleteMatch(ctx, id)
}

func TestSweeperService_SweepOnce_CountsFailedDeletes(t *testing.T) {
	inner := memory.NewMatchRepository()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for _, id := range []string{"stale-1", "stale-2", "stale-3"} {
		if err := inner.CreateMatch(t.Context(), match.Match{
			ID:        id,
			Format:    match.FormatSingle,
			CreatorID: "alice",
			Status:    match.StatusSetup,
			BestOf:    1,
			JoinToken: "tok-" + id,
			CreatedAt: now.Add(-48 * time.Hour),
		}); err != nil {
			t.Fatalf("seed match %s: %v", id, err)
		}
	}

	repo := &flakyDeleteRepository{
		MatchRepository: inner,
		failing:         map[string]struct{}{"stale-2": {}},
	}
	sweeper := NewSweeperService(repo, 24*time.Hour, 2, discardLogger())
	sweeper.now = func() time.Time { return now }

	result, err := sweeper.SweepOnce(t.Context())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// Every outcome is accounted for: nothing in flight is dropped.
	if result.Scanned != 3 || result.Deleted != 2 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, exists, _ := inner.GetMatch(t.Context(), "stale-2"); !exists {
		t.Fatalf("failed delete must leave the match in place")
	}
}

func TestSweeperService_SweepOnce_NothingStale(t *testing.T) {
	sweeper := NewSweeperService(memory.NewMatchRepository(), 24*time.Hour, 2, discardLogger())

	result, err := sweeper.SweepOnce(t.Context())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Scanned != 0 || result.Deleted != 0 || result.Failed != 0 {
		t.Fatalf("empty repository must yield a zero result: %+v", result)
	}
}
