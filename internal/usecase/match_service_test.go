package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/infrastructure/repository/memory"
)

type seqIDGenerator struct {
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMatchService(t *testing.T) (*MatchService, *memory.MatchRepository) {
	t.Helper()

	repo := memory.NewMatchRepository()
	catalog := memory.NewCatalog(memory.SeedDecks())
	alloc := NewSealedAllocator(catalog)
	// Identity shuffle keeps sealed draws in catalog order for assertions.
	alloc.shuffle = func(n int, swap func(i, j int)) {}

	service := NewMatchService(repo, catalog, alloc, &seqIDGenerator{prefix: "id"}, discardLogger())
	service.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	return service, repo
}

func TestMatchService_CreateMatch(t *testing.T) {
	service, _ := newMatchService(t)

	m, err := service.CreateMatch(t.Context(), CreateMatchInput{
		CreatorID: "alice",
		Format:    match.FormatSingle,
		BestOf:    3,
		Visible:   true,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ID == "" || m.JoinToken == "" {
		t.Fatalf("match must get an id and a join token: %+v", m)
	}
	if m.Status != match.StatusSetup {
		t.Fatalf("unexpected status: %s", m.Status)
	}
	if !m.CreatedAt.Equal(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created at: %s", m.CreatedAt)
	}
}

func TestMatchService_CreateMatch_Validation(t *testing.T) {
	service, _ := newMatchService(t)

	tests := []struct {
		name  string
		input CreateMatchInput
	}{
		{
			name:  "missing creator",
			input: CreateMatchInput{Format: match.FormatSingle},
		},
		{
			name:  "thief format rejected",
			input: CreateMatchInput{CreatorID: "alice", Format: match.FormatThief},
		},
		{
			name:  "unknown format",
			input: CreateMatchInput{CreatorID: "alice", Format: "archon-rumble"},
		},
		{
			name:  "even best of",
			input: CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle, BestOf: 4},
		},
		{
			name:  "unknown allowed set",
			input: CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle, AllowedSets: []deck.Set{"XYZ"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateMatch(t.Context(), tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestMatchService_CreateMatch_ForcedBestOf(t *testing.T) {
	service, _ := newMatchService(t)

	for _, format := range []match.Format{match.FormatTriad, match.FormatAdaptive} {
		m, err := service.CreateMatch(t.Context(), CreateMatchInput{
			CreatorID: "alice",
			Format:    format,
			BestOf:    7,
		})
		if err != nil {
			t.Fatalf("create %s match: %v", format, err)
		}
		if m.BestOf != 3 {
			t.Fatalf("%s must force best-of-3, got %d", format, m.BestOf)
		}
	}
}

func TestMatchService_JoinMatch(t *testing.T) {
	service, _ := newMatchService(t)

	m, err := service.CreateMatch(t.Context(), CreateMatchInput{
		CreatorID: "alice",
		Format:    match.FormatSingle,
		Visible:   true,
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	t.Run("wrong token", func(t *testing.T) {
		_, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "bob", JoinToken: "nope"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("creator cannot join own match", func(t *testing.T) {
		_, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "alice", JoinToken: m.JoinToken})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("join succeeds once", func(t *testing.T) {
		joined, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "bob", JoinToken: m.JoinToken})
		if err != nil {
			t.Fatalf("join match: %v", err)
		}
		if joined.OpponentID != "bob" || joined.Status != match.StatusDeckSelection {
			t.Fatalf("unexpected joined match: %+v", joined)
		}

		_, err = service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "carol", JoinToken: m.JoinToken})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for second join, got %v", err)
		}
	})

	t.Run("missing match", func(t *testing.T) {
		_, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: "missing", UserID: "bob", JoinToken: "x"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMatchService_JoinMatch_SealedDealsPools(t *testing.T) {
	service, repo := newMatchService(t)

	m, err := service.CreateMatch(t.Context(), CreateMatchInput{
		CreatorID:   "alice",
		Format:      match.FormatSealedSingle,
		Visible:     true,
		AllowedSets: []deck.Set{deck.SetWindsOfExchange},
	})
	if err != nil {
		t.Fatalf("create sealed match: %v", err)
	}

	joined, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "bob", JoinToken: m.JoinToken})
	if err != nil {
		t.Fatalf("join sealed match: %v", err)
	}
	if !joined.PoolsGenerated {
		t.Fatalf("sealed join must deal pools")
	}

	alicePool, _ := repo.ListPool(t.Context(), m.ID, "alice")
	bobPool, _ := repo.ListPool(t.Context(), m.ID, "bob")
	if len(alicePool) != 4 || len(bobPool) != 4 {
		t.Fatalf("each side gets decks_per_player decks: alice=%d bob=%d", len(alicePool), len(bobPool))
	}

	seen := make(map[string]struct{}, 8)
	for _, entry := range append(alicePool, bobPool...) {
		if _, dup := seen[entry.DeckID]; dup {
			t.Fatalf("deck %s dealt to both pools", entry.DeckID)
		}
		seen[entry.DeckID] = struct{}{}
	}
}

func TestMatchService_Start(t *testing.T) {
	service, _ := newMatchService(t)

	m, _ := service.CreateMatch(t.Context(), CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle, Visible: true})

	if _, err := service.Start(t.Context(), StartMatchInput{MatchID: m.ID, UserID: "alice"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("starting before a join must fail, got %v", err)
	}

	if _, err := service.JoinMatch(t.Context(), JoinMatchInput{MatchID: m.ID, UserID: "bob", JoinToken: m.JoinToken}); err != nil {
		t.Fatalf("join match: %v", err)
	}

	if _, err := service.Start(t.Context(), StartMatchInput{MatchID: m.ID, UserID: "mallory"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-participant start must fail, got %v", err)
	}

	mu, err := service.Start(t.Context(), StartMatchInput{MatchID: m.ID, UserID: "alice"})
	if err != nil {
		t.Fatalf("creator start: %v", err)
	}
	if mu.BothStarted() {
		t.Fatalf("one start signal must not publish")
	}

	mu, err = service.Start(t.Context(), StartMatchInput{MatchID: m.ID, UserID: "bob"})
	if err != nil {
		t.Fatalf("opponent start: %v", err)
	}
	if !mu.BothStarted() {
		t.Fatalf("both sides have started")
	}

	detail, err := service.GetMatchDetail(t.Context(), m.ID, "alice")
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.Match.Status != match.StatusPublished {
		t.Fatalf("match must publish when both start, got %s", detail.Match.Status)
	}
}

func TestMatchService_ListOpenMatches_HidesJoinToken(t *testing.T) {
	service, _ := newMatchService(t)

	if _, err := service.CreateMatch(t.Context(), CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle, Visible: true}); err != nil {
		t.Fatalf("create match: %v", err)
	}

	open, err := service.ListOpenMatches(t.Context())
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("unexpected open count: %d", len(open))
	}
	if open[0].JoinToken != "" {
		t.Fatalf("lobby listing must not leak the join token")
	}
}

func TestMatchService_GetMatchDetail_TokenOnlyForCreator(t *testing.T) {
	service, _ := newMatchService(t)

	m, _ := service.CreateMatch(t.Context(), CreateMatchInput{CreatorID: "alice", Format: match.FormatSingle, Visible: true})

	creatorView, err := service.GetMatchDetail(t.Context(), m.ID, "alice")
	if err != nil {
		t.Fatalf("creator detail: %v", err)
	}
	if creatorView.Match.JoinToken != m.JoinToken {
		t.Fatalf("creator must see the join token")
	}

	strangerView, err := service.GetMatchDetail(t.Context(), m.ID, "someone")
	if err != nil {
		t.Fatalf("stranger detail: %v", err)
	}
	if strangerView.Match.JoinToken != "" {
		t.Fatalf("non-creator must not see the join token")
	}
}
