package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
)

// SealedAllocator deals random, non-repeating deck pools for sealed-format
// matches. Generation is one-shot per match; callers guard re-runs with the
// match's pools-generated flag and commit the returned entries atomically
// with the surrounding join.
type SealedAllocator struct {
	catalog deck.Catalog
	shuffle func(n int, swap func(i, j int))
}

func NewSealedAllocator(catalog deck.Catalog) *SealedAllocator {
	return &SealedAllocator{
		catalog: catalog,
		shuffle: rand.Shuffle,
	}
}

// GeneratePools draws 2 x decks_per_player distinct decks restricted to the
// match's allowed sets, shuffles them and splits the result into two equal
// halves. The split point is fixed at decks_per_player; the shuffle already
// randomizes which decks land on which side.
func (a *SealedAllocator) GeneratePools(ctx context.Context, m match.Match) ([]match.PoolEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SealedAllocator.GeneratePools")
	defer span.End()

	perPlayer := m.Rules.DecksPerPlayer
	if perPlayer < 1 {
		return nil, fmt.Errorf("%w: decks per player must be at least 1", ErrInvalidInput)
	}
	if m.OpponentID == "" {
		return nil, fmt.Errorf("%w: match has no opponent to deal for", ErrInvalidInput)
	}

	need := 2 * perPlayer

	eligible, err := a.catalog.ListBySets(ctx, m.Rules.AllowedSets)
	if err != nil {
		return nil, fmt.Errorf("%w: list catalog decks: %v", ErrDependencyUnavailable, err)
	}
	if len(eligible) < need {
		return nil, fmt.Errorf("%w: not enough eligible decks: need=%d have=%d", ErrInvalidInput, need, len(eligible))
	}

	drawn := append([]deck.Info(nil), eligible...)
	a.shuffle(len(drawn), func(i, j int) { drawn[i], drawn[j] = drawn[j], drawn[i] })
	drawn = drawn[:need]

	entries := make([]match.PoolEntry, 0, need)
	for i, d := range drawn {
		owner := m.CreatorID
		if i >= perPlayer {
			owner = m.OpponentID
		}
		entries = append(entries, match.PoolEntry{
			MatchID: m.ID,
			UserID:  owner,
			DeckID:  d.ID,
		})
	}

	return entries, nil
}
