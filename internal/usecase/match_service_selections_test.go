package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/infrastructure/repository/memory"
)

// joinedMatch creates a match and joins bob so it sits in deck selection.
func joinedMatch(t *testing.T, service *MatchService, input CreateMatchInput) match.Match {
	t.Helper()

	input.Visible = true
	m, err := service.CreateMatch(t.Context(), input)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	joined, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "bob", JoinToken: m.JoinToken})
	if err != nil {
		t.Fatalf("join match: %v", err)
	}

	return joined
}

func TestMatchService_SubmitDeckSelection(t *testing.T) {
	service, _ := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle})

	sel, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID,
		UserID:  "alice",
		Slot:    1,
		DeckRef: "cota-001",
	})
	if err != nil {
		t.Fatalf("submit selection: %v", err)
	}
	if sel.DeckName != "Titan of the Lonely Sprocket" || sel.Rating != 74 {
		t.Fatalf("selection must carry catalog metadata: %+v", sel)
	}

	t.Run("slot out of range", func(t *testing.T) {
		_, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
			MatchID: m.ID, UserID: "alice", Slot: 2, DeckRef: "cota-002",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("single format only has one slot, got %v", err)
		}
	})

	t.Run("unknown deck", func(t *testing.T) {
		_, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
			MatchID: m.ID, UserID: "alice", Slot: 1, DeckRef: "no-such-deck",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("non-participant", func(t *testing.T) {
		_, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
			MatchID: m.ID, UserID: "mallory", Slot: 1, DeckRef: "cota-001",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("resubmission replaces the slot", func(t *testing.T) {
		replacement, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
			MatchID: m.ID, UserID: "alice", Slot: 1, DeckRef: "aoa-001",
		})
		if err != nil {
			t.Fatalf("replace selection: %v", err)
		}
		if replacement.DeckID != "aoa-001" {
			t.Fatalf("unexpected replacement: %+v", replacement)
		}
		detail, err := service.GetMatchDetail(t.Context(), m.ID, "alice")
		if err != nil {
			t.Fatalf("get detail: %v", err)
		}
		if len(detail.Selections) != 1 {
			t.Fatalf("replacement must not add a row, got %d", len(detail.Selections))
		}
	})
}

func TestMatchService_SubmitDeckSelection_TriadHouseDiversity(t *testing.T) {
	service, _ := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{
		CreatorID:      "alice",
		Format:         match.FormatTriad,
		HouseDiversity: true,
	})

	// cota-001 runs Brobnar, Logos and Shadows.
	if _, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "alice", Slot: 1, DeckRef: "cota-001",
	}); err != nil {
		t.Fatalf("first selection: %v", err)
	}

	// aoa-001 shares Logos and Shadows with cota-001.
	_, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "alice", Slot: 2, DeckRef: "aoa-001",
	})
	if !errors.Is(err, match.ErrSharedHouse) {
		t.Fatalf("expected ErrSharedHouse, got %v", err)
	}

	// dt-001 runs Mars, Unfathomable and Untamed, disjoint from cota-001.
	if _, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "alice", Slot: 2, DeckRef: "dt-001",
	}); err != nil {
		t.Fatalf("disjoint second selection: %v", err)
	}
}

func TestMatchService_SubmitDeckSelection_SealedRequiresPoolMembership(t *testing.T) {
	service, repo := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{
		CreatorID:   "alice",
		Format:      match.FormatSealedSingle,
		AllowedSets: []deck.Set{deck.SetWindsOfExchange},
	})

	bobPool, err := repo.ListPool(t.Context(), m.ID, "bob")
	if err != nil {
		t.Fatalf("list pool: %v", err)
	}
	if len(bobPool) == 0 {
		t.Fatalf("bob must have a pool")
	}

	if _, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "bob", Slot: 1, DeckRef: bobPool[0].DeckID,
	}); err != nil {
		t.Fatalf("pool deck must be selectable: %v", err)
	}

	// A catalog deck outside bob's dealt pool.
	_, err = service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "bob", Slot: 1, DeckRef: "cota-001",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for deck outside pool, got %v", err)
	}
}

func TestMatchService_RemoveDeckSelection(t *testing.T) {
	service, _ := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle})

	if _, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "alice", Slot: 1, DeckRef: "cota-001",
	}); err != nil {
		t.Fatalf("submit selection: %v", err)
	}

	if err := service.RemoveDeckSelection(t.Context(), RemoveSelectionInput{MatchID: m.ID, UserID: "alice", Slot: 1}); err != nil {
		t.Fatalf("remove selection: %v", err)
	}

	detail, err := service.GetMatchDetail(t.Context(), m.ID, "alice")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if len(detail.Selections) != 0 {
		t.Fatalf("selection must be gone, got %d", len(detail.Selections))
	}
}

func TestMatchService_SubmitAlliance(t *testing.T) {
	service, _ := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{
		CreatorID:   "alice",
		Format:      match.FormatSealedAlliance,
		AllowedSets: []deck.Set{deck.SetWindsOfExchange},
	})

	// Identity shuffle deals the seeded WoE decks in order: alice holds
	// woe-001 through woe-004.
	pods := []match.AlliancePod{
		{DeckID: "woe-001", House: "Brobnar"},
		{DeckID: "woe-002", House: "Dis"},
		{DeckID: "woe-003", House: "Mars"},
	}

	t.Run("token deck required for a token set list", func(t *testing.T) {
		_, err := service.SubmitAlliance(t.Context(), SubmitAllianceInput{
			MatchID: m.ID, UserID: "alice", Pods: pods,
		})
		if !errors.Is(err, match.ErrTokenDeckMissing) {
			t.Fatalf("expected ErrTokenDeckMissing, got %v", err)
		}
	})

	t.Run("pod outside own pool", func(t *testing.T) {
		outside := []match.AlliancePod{
			{DeckID: "woe-005", House: "Brobnar"},
			{DeckID: "woe-002", House: "Dis"},
			{DeckID: "woe-003", House: "Mars"},
		}
		_, err := service.SubmitAlliance(t.Context(), SubmitAllianceInput{
			MatchID: m.ID, UserID: "alice", Pods: outside, TokenDeckID: "woe-002",
		})
		if !errors.Is(err, match.ErrPodOutsidePool) {
			t.Fatalf("expected ErrPodOutsidePool, got %v", err)
		}
	})

	t.Run("valid alliance replaces wholesale", func(t *testing.T) {
		sel, err := service.SubmitAlliance(t.Context(), SubmitAllianceInput{
			MatchID: m.ID, UserID: "alice", Pods: pods, TokenDeckID: "woe-001",
		})
		if err != nil {
			t.Fatalf("submit alliance: %v", err)
		}
		if len(sel.Pods) != 3 || sel.TokenDeckID != "woe-001" {
			t.Fatalf("unexpected alliance: %+v", sel)
		}
	})

	t.Run("wrong format", func(t *testing.T) {
		single := joinedMatch(t, service, CreateMatchInput{CreatorID: "carol", Format: match.FormatSingle})
		_, err := service.SubmitAlliance(t.Context(), SubmitAllianceInput{
			MatchID: single.ID, UserID: "carol", Pods: pods, TokenDeckID: "woe-001",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestMatchService_ClearAlliance(t *testing.T) {
	service, repo := newMatchService(t)
	m := joinedMatch(t, service, CreateMatchInput{
		CreatorID:   "alice",
		Format:      match.FormatSealedAlliance,
		AllowedSets: []deck.Set{deck.SetWindsOfExchange},
	})

	if _, err := service.SubmitAlliance(t.Context(), SubmitAllianceInput{
		MatchID: m.ID,
		UserID:  "alice",
		Pods: []match.AlliancePod{
			{DeckID: "woe-001", House: "Brobnar"},
			{DeckID: "woe-002", House: "Dis"},
			{DeckID: "woe-003", House: "Mars"},
		},
		TokenDeckID: "woe-001",
	}); err != nil {
		t.Fatalf("submit alliance: %v", err)
	}

	if err := service.ClearAlliance(t.Context(), m.ID, "alice"); err != nil {
		t.Fatalf("clear alliance: %v", err)
	}
	if _, ok, err := repo.GetAlliance(t.Context(), m.ID, "alice"); err != nil || ok {
		t.Fatalf("alliance must be gone: ok=%v err=%v", ok, err)
	}
}

type catalogMock struct {
	mock.Mock
}

func (c *catalogMock) Resolve(ctx context.Context, ref string) (deck.Info, bool, error) {
	args := c.Called(ctx, ref)
	return args.Get(0).(deck.Info), args.Bool(1), args.Error(2)
}

func (c *catalogMock) HousesOf(ctx context.Context, deckID string) ([]deck.House, error) {
	args := c.Called(ctx, deckID)
	if houses := args.Get(0); houses != nil {
		return houses.([]deck.House), args.Error(1)
	}
	return nil, args.Error(1)
}

func (c *catalogMock) ListBySets(ctx context.Context, sets []deck.Set) ([]deck.Info, error) {
	args := c.Called(ctx, sets)
	if decks := args.Get(0); decks != nil {
		return decks.([]deck.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMatchService_SubmitDeckSelection_CatalogDown(t *testing.T) {
	repo := memory.NewMatchRepository()
	catalog := &catalogMock{}
	service := NewMatchService(repo, catalog, NewSealedAllocator(catalog), &seqIDGenerator{prefix: "id"}, discardLogger())
	service.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	m := joinedMatch(t, service, CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle})

	catalog.On("Resolve", mock.Anything, "cota-001").
		Return(deck.Info{}, false, errors.New("upstream timeout")).Once()

	_, err := service.SubmitDeckSelection(t.Context(), SubmitSelectionInput{
		MatchID: m.ID, UserID: "alice", Slot: 1, DeckRef: "cota-001",
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	catalog.AssertExpectations(t)
}
