package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
)

type SubmitSelectionInput struct {
	MatchID string
	UserID  string
	Slot    int
	DeckRef string
}

type RemoveSelectionInput struct {
	MatchID string
	UserID  string
	Slot    int
}

type SubmitAllianceInput struct {
	MatchID        string
	UserID         string
	Pods           []match.AlliancePod
	TokenDeckID    string
	ProphecyDeckID string
}

// SubmitDeckSelection upserts one deck into one slot. Sealed formats resolve
// the reference against the participant's own pool; open formats resolve it
// through the catalog.
func (s *MatchService) SubmitDeckSelection(ctx context.Context, input SubmitSelectionInput) (match.DeckSelection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitDeckSelection")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return match.DeckSelection{}, err
	}
	if m.Status != match.StatusDeckSelection {
		return match.DeckSelection{}, fmt.Errorf("%w: decks can only be selected during deck selection", ErrInvalidInput)
	}
	if input.Slot < 1 || input.Slot > m.Format.DeckSlots() {
		return match.DeckSelection{}, fmt.Errorf("%w: slot must be between 1 and %d", ErrInvalidInput, m.Format.DeckSlots())
	}

	info, err := s.resolveForSelection(ctx, m, input.UserID, input.DeckRef)
	if err != nil {
		return match.DeckSelection{}, err
	}

	candidate := match.DeckSelection{
		MatchID:  m.ID,
		UserID:   input.UserID,
		Slot:     input.Slot,
		DeckID:   info.ID,
		DeckName: info.Name,
		Set:      info.Set,
		Rating:   info.Rating,
		Houses:   info.Houses,
	}

	all, err := s.matches.ListSelections(ctx, m.ID)
	if err != nil {
		return match.DeckSelection{}, fmt.Errorf("list selections: %w", err)
	}
	// Exclude the slot being replaced so an upsert never conflicts with the
	// selection it replaces.
	existing := make([]match.DeckSelection, 0, len(all))
	for _, sel := range all {
		if sel.UserID != input.UserID || sel.Slot == input.Slot {
			continue
		}
		existing = append(existing, sel)
	}

	if err := match.ValidateDeck(m.Rules, m.Format, candidate, existing); err != nil {
		return match.DeckSelection{}, fmt.Errorf("validate deck selection: %w", err)
	}

	if err := s.matches.UpsertSelection(ctx, candidate); err != nil {
		return match.DeckSelection{}, fmt.Errorf("upsert selection: %w", err)
	}

	s.logger.InfoContext(ctx, "deck selected",
		"match_id", m.ID,
		"user_id", input.UserID,
		"slot", input.Slot,
		"deck_id", info.ID,
	)

	return candidate, nil
}

func (s *MatchService) RemoveDeckSelection(ctx context.Context, input RemoveSelectionInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RemoveDeckSelection")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return err
	}
	if m.Status != match.StatusDeckSelection {
		return fmt.Errorf("%w: selections can only change during deck selection", ErrInvalidInput)
	}
	if input.Slot < 1 || input.Slot > m.Format.DeckSlots() {
		return fmt.Errorf("%w: slot must be between 1 and %d", ErrInvalidInput, m.Format.DeckSlots())
	}

	if err := s.matches.DeleteSelection(ctx, m.ID, input.UserID, input.Slot); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}

	return nil
}

// SubmitAlliance replaces a participant's entire alliance declaration.
// Sealed-alliance format only.
func (s *MatchService) SubmitAlliance(ctx context.Context, input SubmitAllianceInput) (match.AllianceSelection, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitAlliance")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return match.AllianceSelection{}, err
	}
	if m.Format != match.FormatSealedAlliance {
		return match.AllianceSelection{}, fmt.Errorf("%w: alliances only exist in the sealed alliance format", ErrInvalidInput)
	}
	if m.Status != match.StatusDeckSelection {
		return match.AllianceSelection{}, fmt.Errorf("%w: alliances can only change during deck selection", ErrInvalidInput)
	}

	entries, err := s.matches.ListPool(ctx, m.ID, input.UserID)
	if err != nil {
		return match.AllianceSelection{}, fmt.Errorf("list pool: %w", err)
	}
	ownPool := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ownPool[e.DeckID] = struct{}{}
	}

	housesByDeck, err := s.fetchPodHouses(ctx, input.Pods)
	if err != nil {
		return match.AllianceSelection{}, err
	}

	sel := match.AllianceSelection{
		MatchID:        m.ID,
		UserID:         input.UserID,
		Pods:           input.Pods,
		TokenDeckID:    strings.TrimSpace(input.TokenDeckID),
		ProphecyDeckID: strings.TrimSpace(input.ProphecyDeckID),
	}
	if err := match.ValidateAlliance(m.Rules, sel, ownPool, housesByDeck); err != nil {
		return match.AllianceSelection{}, fmt.Errorf("validate alliance: %w", err)
	}

	if err := s.matches.ReplaceAlliance(ctx, sel); err != nil {
		return match.AllianceSelection{}, fmt.Errorf("replace alliance: %w", err)
	}

	s.logger.InfoContext(ctx, "alliance submitted",
		"match_id", m.ID,
		"user_id", input.UserID,
	)

	return sel, nil
}

func (s *MatchService) ClearAlliance(ctx context.Context, matchID, userID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ClearAlliance")
	defer span.End()

	m, err := s.participantMatch(ctx, matchID, userID)
	if err != nil {
		return err
	}
	if m.Format != match.FormatSealedAlliance {
		return fmt.Errorf("%w: alliances only exist in the sealed alliance format", ErrInvalidInput)
	}
	if m.Status != match.StatusDeckSelection {
		return fmt.Errorf("%w: alliances can only change during deck selection", ErrInvalidInput)
	}

	if err := s.matches.ClearAlliance(ctx, m.ID, userID); err != nil {
		return fmt.Errorf("clear alliance: %w", err)
	}

	return nil
}

func (s *MatchService) resolveForSelection(ctx context.Context, m match.Match, userID, ref string) (deck.Info, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return deck.Info{}, fmt.Errorf("%w: deck reference is required", ErrInvalidInput)
	}

	if m.Format.Sealed() {
		entries, err := s.matches.ListPool(ctx, m.ID, userID)
		if err != nil {
			return deck.Info{}, fmt.Errorf("list pool: %w", err)
		}
		inPool := false
		for _, e := range entries {
			if e.DeckID == ref {
				inPool = true
				break
			}
		}
		if !inPool {
			return deck.Info{}, fmt.Errorf("%w: deck %s is not in your sealed pool", ErrInvalidInput, ref)
		}
	}

	info, found, err := s.catalog.Resolve(ctx, ref)
	if err != nil {
		return deck.Info{}, fmt.Errorf("%w: failed to fetch deck: %v", ErrDependencyUnavailable, err)
	}
	if !found {
		return deck.Info{}, fmt.Errorf("%w: deck %s is not in the catalog", ErrNotFound, ref)
	}

	return info, nil
}

// fetchPodHouses resolves the houses of each distinct pod deck, with the
// per-deck lookups running concurrently.
func (s *MatchService) fetchPodHouses(ctx context.Context, pods []match.AlliancePod) (map[string][]deck.House, error) {
	distinct := make([]string, 0, len(pods))
	seen := make(map[string]struct{}, len(pods))
	for _, p := range pods {
		id := strings.TrimSpace(p.DeckID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	results, err := iter.MapErr(distinct, func(id *string) ([]deck.House, error) {
		houses, err := s.catalog.HousesOf(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("houses of deck %s: %w", *id, err)
		}
		return houses, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch deck houses: %v", ErrDependencyUnavailable, err)
	}

	housesByDeck := make(map[string][]deck.House, len(distinct))
	for i, houses := range results {
		housesByDeck[distinct[i]] = houses
	}

	return housesByDeck, nil
}
