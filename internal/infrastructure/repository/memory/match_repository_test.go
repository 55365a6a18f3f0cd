package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
)

func newTestMatch(id string) match.Match {
	return match.Match{
		ID:        id,
		Format:    match.FormatSingle,
		CreatorID: "alice",
		Status:    match.StatusSetup,
		BestOf:    3,
		Visible:   true,
		JoinToken: "token-" + id,
		CreatedAt: time.Now(),
	}
}

func TestMatchRepository_CreateAndGet(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	m := newTestMatch("m1")
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := repo.CreateMatch(ctx, m); err == nil {
		t.Fatalf("expected error on duplicate match id")
	}

	got, ok, err := repo.GetMatch(ctx, "m1")
	if err != nil || !ok {
		t.Fatalf("get match: ok=%v err=%v", ok, err)
	}
	if got.ID != "m1" || got.CreatorID != "alice" {
		t.Fatalf("unexpected match: %+v", got)
	}

	if _, ok, _ := repo.GetMatch(ctx, "missing"); ok {
		t.Fatalf("missing match must not be found")
	}
}

func TestMatchRepository_GetReturnsClone(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	m := newTestMatch("m1")
	m.Rules.AllowedSets = []deck.Set{deck.SetCallOfTheArchons}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}

	got, _, _ := repo.GetMatch(ctx, "m1")
	got.Rules.AllowedSets[0] = deck.SetMassMutation

	again, _, _ := repo.GetMatch(ctx, "m1")
	if again.Rules.AllowedSets[0] != deck.SetCallOfTheArchons {
		t.Fatalf("stored match mutated through returned slice")
	}
}

func TestMatchRepository_ListOpen(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	open := newTestMatch("m1")
	hidden := newTestMatch("m2")
	hidden.Visible = false
	joined := newTestMatch("m3")

	for _, m := range []match.Match{open, hidden, joined} {
		if err := repo.CreateMatch(ctx, m); err != nil {
			t.Fatalf("create match: %v", err)
		}
	}
	if err := repo.JoinMatch(ctx, "m3", "bob", nil); err != nil {
		t.Fatalf("join match: %v", err)
	}

	got, err := repo.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("unexpected open matches: %+v", got)
	}
}

func TestMatchRepository_JoinAtMostOnce(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	if err := repo.CreateMatch(ctx, newTestMatch("m1")); err != nil {
		t.Fatalf("create match: %v", err)
	}
	pool := []match.PoolEntry{
		{MatchID: "m1", UserID: "alice", DeckID: "d1"},
		{MatchID: "m1", UserID: "bob", DeckID: "d2"},
	}
	if err := repo.JoinMatch(ctx, "m1", "bob", pool); err != nil {
		t.Fatalf("join match: %v", err)
	}

	if err := repo.JoinMatch(ctx, "m1", "carol", nil); !errors.Is(err, match.ErrOpponentTaken) {
		t.Fatalf("expected ErrOpponentTaken, got %v", err)
	}

	got, _, _ := repo.GetMatch(ctx, "m1")
	if got.OpponentID != "bob" || got.Status != match.StatusDeckSelection {
		t.Fatalf("unexpected match after join: %+v", got)
	}
	if !got.PoolsGenerated {
		t.Fatalf("pools_generated must be set when a pool is dealt")
	}

	alicePool, err := repo.ListPool(ctx, "m1", "alice")
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(alicePool) != 1 || alicePool[0].DeckID != "d1" {
		t.Fatalf("unexpected pool for alice: %+v", alicePool)
	}
}

func TestMatchRepository_SelectionsUpsertAndDelete(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	if err := repo.CreateMatch(ctx, newTestMatch("m1")); err != nil {
		t.Fatalf("create match: %v", err)
	}

	first := match.DeckSelection{MatchID: "m1", UserID: "alice", Slot: 1, DeckID: "d1"}
	if err := repo.UpsertSelection(ctx, first); err != nil {
		t.Fatalf("upsert selection: %v", err)
	}

	replaced := first
	replaced.DeckID = "d2"
	if err := repo.UpsertSelection(ctx, replaced); err != nil {
		t.Fatalf("replace selection: %v", err)
	}

	got, err := repo.ListSelections(ctx, "m1")
	if err != nil {
		t.Fatalf("list selections: %v", err)
	}
	if len(got) != 1 || got[0].DeckID != "d2" {
		t.Fatalf("resubmission must replace in place: %+v", got)
	}

	if err := repo.DeleteSelection(ctx, "m1", "alice", 1); err != nil {
		t.Fatalf("delete selection: %v", err)
	}
	got, _ = repo.ListSelections(ctx, "m1")
	if len(got) != 0 {
		t.Fatalf("expected no selections, got %+v", got)
	}
}

func TestMatchRepository_AllianceLifecycle(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	sel := match.AllianceSelection{
		MatchID: "m1",
		UserID:  "alice",
		Pods: []match.AlliancePod{
			{DeckID: "d1", House: "Dis"},
			{DeckID: "d2", House: "Mars"},
			{DeckID: "d3", House: "Logos"},
		},
	}
	if err := repo.ReplaceAlliance(ctx, sel); err != nil {
		t.Fatalf("replace alliance: %v", err)
	}

	got, ok, err := repo.GetAlliance(ctx, "m1", "alice")
	if err != nil || !ok {
		t.Fatalf("get alliance: ok=%v err=%v", ok, err)
	}
	if len(got.Pods) != 3 {
		t.Fatalf("unexpected pods: %+v", got.Pods)
	}

	if err := repo.ClearAlliance(ctx, "m1", "alice"); err != nil {
		t.Fatalf("clear alliance: %v", err)
	}
	if _, ok, _ := repo.GetAlliance(ctx, "m1", "alice"); ok {
		t.Fatalf("cleared alliance must be gone")
	}
}

func TestMatchRepository_MarkStartedPublishes(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	if err := repo.CreateMatch(ctx, newTestMatch("m1")); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := repo.JoinMatch(ctx, "m1", "bob", nil); err != nil {
		t.Fatalf("join match: %v", err)
	}

	mu, err := repo.MarkStarted(ctx, "m1", true)
	if err != nil {
		t.Fatalf("mark started creator: %v", err)
	}
	if mu.BothStarted() {
		t.Fatalf("one side starting must not flip both")
	}

	m, _, _ := repo.GetMatch(ctx, "m1")
	if m.Status != match.StatusDeckSelection {
		t.Fatalf("match must stay in deck selection until both start")
	}

	mu, err = repo.MarkStarted(ctx, "m1", false)
	if err != nil {
		t.Fatalf("mark started opponent: %v", err)
	}
	if !mu.BothStarted() {
		t.Fatalf("both sides started")
	}

	m, _, _ = repo.GetMatch(ctx, "m1")
	if m.Status != match.StatusPublished {
		t.Fatalf("match must publish when both sides start, got %s", m.Status)
	}
}

func TestMatchRepository_StrikeOncePerParticipant(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	s := match.Strike{MatchID: "m1", StruckBy: "alice", TargetID: "bob", Slot: 1, DeckID: "d1"}
	if err := repo.AddStrike(ctx, s); err != nil {
		t.Fatalf("add strike: %v", err)
	}

	again := s
	again.Slot = 2
	if err := repo.AddStrike(ctx, again); !errors.Is(err, match.ErrStrikeUsed) {
		t.Fatalf("expected ErrStrikeUsed, got %v", err)
	}

	other := match.Strike{MatchID: "m1", StruckBy: "bob", TargetID: "alice", Slot: 3, DeckID: "d9"}
	if err := repo.AddStrike(ctx, other); err != nil {
		t.Fatalf("other participant strikes: %v", err)
	}

	got, _ := repo.ListStrikes(ctx, "m1")
	if len(got) != 2 {
		t.Fatalf("unexpected strikes: %+v", got)
	}
}

func TestMatchRepository_AppendGame(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	if err := repo.CreateMatch(ctx, newTestMatch("m1")); err != nil {
		t.Fatalf("create match: %v", err)
	}

	g1 := match.Game{MatchID: "m1", Number: 1, WinnerID: "alice"}
	if err := repo.AppendGame(ctx, g1, false); err != nil {
		t.Fatalf("append game: %v", err)
	}
	if err := repo.AppendGame(ctx, g1, false); !errors.Is(err, match.ErrGameNumberTaken) {
		t.Fatalf("expected ErrGameNumberTaken, got %v", err)
	}

	g2 := match.Game{MatchID: "m1", Number: 2, WinnerID: "alice"}
	if err := repo.AppendGame(ctx, g2, true); err != nil {
		t.Fatalf("append deciding game: %v", err)
	}

	m, _, _ := repo.GetMatch(ctx, "m1")
	if m.Status != match.StatusCompleted {
		t.Fatalf("deciding game must complete the match, got %s", m.Status)
	}

	games, _ := repo.ListGames(ctx, "m1")
	if len(games) != 2 {
		t.Fatalf("unexpected game count: %d", len(games))
	}
}

func TestMatchRepository_AppendBid(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	b1 := match.ChainBid{MatchID: "m1", Number: 1, UserID: "alice", Chains: 3}
	if err := repo.AppendBid(ctx, b1); err != nil {
		t.Fatalf("append bid: %v", err)
	}
	if err := repo.AppendBid(ctx, b1); !errors.Is(err, match.ErrBidNumberTaken) {
		t.Fatalf("expected ErrBidNumberTaken, got %v", err)
	}

	bids, _ := repo.ListBids(ctx, "m1")
	if len(bids) != 1 || bids[0].Chains != 3 {
		t.Fatalf("unexpected bids: %+v", bids)
	}
}

func TestMatchRepository_SweepSelectsUnfinishedBeforeCutoff(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	stale := newTestMatch("m1")
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := newTestMatch("m2")
	done := newTestMatch("m3")
	done.CreatedAt = stale.CreatedAt
	done.Status = match.StatusCompleted

	for _, m := range []match.Match{stale, fresh, done} {
		if err := repo.CreateMatch(ctx, m); err != nil {
			t.Fatalf("create match: %v", err)
		}
	}

	got, err := repo.ListUnfinishedBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list unfinished: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("unexpected sweep candidates: %+v", got)
	}
}

func TestMatchRepository_DeleteMatchRemovesChildren(t *testing.T) {
	repo := NewMatchRepository()
	ctx := context.Background()

	if err := repo.CreateMatch(ctx, newTestMatch("m1")); err != nil {
		t.Fatalf("create match: %v", err)
	}
	pool := []match.PoolEntry{{MatchID: "m1", UserID: "bob", DeckID: "d1"}}
	if err := repo.JoinMatch(ctx, "m1", "bob", pool); err != nil {
		t.Fatalf("join match: %v", err)
	}
	_ = repo.UpsertSelection(ctx, match.DeckSelection{MatchID: "m1", UserID: "alice", Slot: 1, DeckID: "d1"})
	_ = repo.ReplaceAlliance(ctx, match.AllianceSelection{MatchID: "m1", UserID: "bob"})
	_ = repo.AddStrike(ctx, match.Strike{MatchID: "m1", StruckBy: "alice", DeckID: "d1"})

	if err := repo.DeleteMatch(ctx, "m1"); err != nil {
		t.Fatalf("delete match: %v", err)
	}

	if _, ok, _ := repo.GetMatch(ctx, "m1"); ok {
		t.Fatalf("deleted match must be gone")
	}
	if sels, _ := repo.ListSelections(ctx, "m1"); len(sels) != 0 {
		t.Fatalf("selections must be swept with the match")
	}
	if entries, _ := repo.ListPool(ctx, "m1", "bob"); len(entries) != 0 {
		t.Fatalf("pool entries must be swept with the match")
	}
	if _, ok, _ := repo.GetAlliance(ctx, "m1", "bob"); ok {
		t.Fatalf("alliance must be swept with the match")
	}
}
