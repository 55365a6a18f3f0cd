package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
)

// MatchRepository keeps all match state behind one mutex so each mutating
// method behaves as the single atomic unit the interface promises.
type MatchRepository struct {
	mu sync.RWMutex

	matches    map[string]match.Match
	order      []string
	selections map[string][]match.DeckSelection
	pools      map[string][]match.PoolEntry
	alliances  map[string]match.AllianceSelection
	matchups   map[string]match.Matchup
	strikes    map[string][]match.Strike
	games      map[string][]match.Game
	bids       map[string][]match.ChainBid
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		matches:    make(map[string]match.Match),
		selections: make(map[string][]match.DeckSelection),
		pools:      make(map[string][]match.PoolEntry),
		alliances:  make(map[string]match.AllianceSelection),
		matchups:   make(map[string]match.Matchup),
		strikes:    make(map[string][]match.Strike),
		games:      make(map[string][]match.Game),
		bids:       make(map[string][]match.ChainBid),
	}
}

func (r *MatchRepository) CreateMatch(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.ID]; exists {
		return fmt.Errorf("match %s already exists", m.ID)
	}
	r.matches[m.ID] = cloneMatch(m)
	r.order = append(r.order, m.ID)
	return nil
}

func (r *MatchRepository) GetMatch(_ context.Context, id string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[id]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(m), true, nil
}

func (r *MatchRepository) ListOpen(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.order {
		m, ok := r.matches[id]
		if !ok {
			continue
		}
		if m.Visible && m.Status == match.StatusSetup && m.OpponentID == "" {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (r *MatchRepository) ListUnfinishedBefore(_ context.Context, cutoff time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.order {
		m, ok := r.matches[id]
		if !ok {
			continue
		}
		if m.Status != match.StatusCompleted && m.CreatedAt.Before(cutoff) {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (r *MatchRepository) DeleteMatch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.matches, id)
	delete(r.selections, id)
	delete(r.pools, id)
	delete(r.matchups, id)
	delete(r.strikes, id)
	delete(r.games, id)
	delete(r.bids, id)
	for key := range r.alliances {
		if keyMatch(key) == id {
			delete(r.alliances, key)
		}
	}
	return nil
}

func (r *MatchRepository) JoinMatch(_ context.Context, matchID, opponentID string, pool []match.PoolEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	if m.Status != match.StatusSetup || m.OpponentID != "" {
		return match.ErrOpponentTaken
	}

	m.OpponentID = opponentID
	m.Status = match.StatusDeckSelection
	m.PoolsGenerated = len(pool) > 0
	r.matches[matchID] = m
	if len(pool) > 0 {
		r.pools[matchID] = append([]match.PoolEntry(nil), pool...)
	}
	return nil
}

func (r *MatchRepository) UpsertSelection(_ context.Context, sel match.DeckSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.selections[sel.MatchID]
	for i, s := range existing {
		if s.UserID == sel.UserID && s.Slot == sel.Slot {
			existing[i] = cloneSelection(sel)
			return nil
		}
	}
	r.selections[sel.MatchID] = append(existing, cloneSelection(sel))
	return nil
}

func (r *MatchRepository) DeleteSelection(_ context.Context, matchID, userID string, slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.selections[matchID]
	kept := existing[:0]
	for _, s := range existing {
		if s.UserID == userID && s.Slot == slot {
			continue
		}
		kept = append(kept, s)
	}
	r.selections[matchID] = kept
	return nil
}

func (r *MatchRepository) ListSelections(_ context.Context, matchID string) ([]match.DeckSelection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing := r.selections[matchID]
	out := make([]match.DeckSelection, 0, len(existing))
	for _, s := range existing {
		out = append(out, cloneSelection(s))
	}
	return out, nil
}

func (r *MatchRepository) ListPool(_ context.Context, matchID, userID string) ([]match.PoolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.PoolEntry, 0)
	for _, entry := range r.pools[matchID] {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *MatchRepository) ReplaceAlliance(_ context.Context, sel match.AllianceSelection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alliances[allianceKey(sel.MatchID, sel.UserID)] = cloneAlliance(sel)
	return nil
}

func (r *MatchRepository) ClearAlliance(_ context.Context, matchID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.alliances, allianceKey(matchID, userID))
	return nil
}

func (r *MatchRepository) GetAlliance(_ context.Context, matchID, userID string) (match.AllianceSelection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sel, ok := r.alliances[allianceKey(matchID, userID)]
	if !ok {
		return match.AllianceSelection{}, false, nil
	}
	return cloneAlliance(sel), true, nil
}

func (r *MatchRepository) MarkStarted(_ context.Context, matchID string, asCreator bool) (match.Matchup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[matchID]
	if !ok {
		return match.Matchup{}, fmt.Errorf("match %s not found", matchID)
	}

	mu := r.matchups[matchID]
	mu.MatchID = matchID
	if asCreator {
		mu.CreatorStarted = true
	} else {
		mu.OpponentStarted = true
	}
	r.matchups[matchID] = mu

	if mu.BothStarted() && m.Status == match.StatusDeckSelection {
		m.Status = match.StatusPublished
		r.matches[matchID] = m
	}
	return mu, nil
}

func (r *MatchRepository) GetMatchup(_ context.Context, matchID string) (match.Matchup, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mu, ok := r.matchups[matchID]
	if !ok {
		return match.Matchup{}, false, nil
	}
	return mu, true, nil
}

func (r *MatchRepository) AddStrike(_ context.Context, s match.Strike) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.strikes[s.MatchID] {
		if existing.StruckBy == s.StruckBy {
			return match.ErrStrikeUsed
		}
	}
	r.strikes[s.MatchID] = append(r.strikes[s.MatchID], s)
	return nil
}

func (r *MatchRepository) ListStrikes(_ context.Context, matchID string) ([]match.Strike, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]match.Strike(nil), r.strikes[matchID]...), nil
}

func (r *MatchRepository) AppendGame(_ context.Context, g match.Game, complete bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.matches[g.MatchID]
	if !ok {
		return fmt.Errorf("match %s not found", g.MatchID)
	}
	for _, existing := range r.games[g.MatchID] {
		if existing.Number == g.Number {
			return match.ErrGameNumberTaken
		}
	}

	r.games[g.MatchID] = append(r.games[g.MatchID], g)
	if complete {
		m.Status = match.StatusCompleted
		r.matches[g.MatchID] = m
	}
	return nil
}

func (r *MatchRepository) ListGames(_ context.Context, matchID string) ([]match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]match.Game(nil), r.games[matchID]...), nil
}

func (r *MatchRepository) AppendBid(_ context.Context, b match.ChainBid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bids[b.MatchID] {
		if existing.Number == b.Number {
			return match.ErrBidNumberTaken
		}
	}
	r.bids[b.MatchID] = append(r.bids[b.MatchID], b)
	return nil
}

func (r *MatchRepository) ListBids(_ context.Context, matchID string) ([]match.ChainBid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]match.ChainBid(nil), r.bids[matchID]...), nil
}

func allianceKey(matchID, userID string) string {
	return matchID + "::" + userID
}

func keyMatch(key string) string {
	for i := 0; i+1 < len(key); i++ {
		if key[i] == ':' && key[i+1] == ':' {
			return key[:i]
		}
	}
	return key
}

func cloneMatch(m match.Match) match.Match {
	copied := m
	copied.Rules.AllowedSets = append([]deck.Set(nil), m.Rules.AllowedSets...)
	return copied
}

func cloneSelection(s match.DeckSelection) match.DeckSelection {
	copied := s
	copied.Houses = append([]deck.House(nil), s.Houses...)
	return copied
}

func cloneAlliance(a match.AllianceSelection) match.AllianceSelection {
	copied := a
	copied.Pods = append([]match.AlliancePod(nil), a.Pods...)
	return copied
}
