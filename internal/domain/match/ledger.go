package match

import (
	"errors"
	"fmt"
)

var (
	ErrGameOutOfSequence = errors.New("game number is out of sequence")
	ErrWinnerNotInMatch  = errors.New("winner is not a match participant")
	ErrMatchDecided      = errors.New("match is already decided")
	ErrKeyCountRange     = errors.New("key count must be between 0 and 3")
	ErrDeckUsedRequired  = errors.New("both sides must report the deck they used")
	ErrDeckStruck        = errors.New("deck has been struck and cannot be used")
	ErrDeckAlreadyWon    = errors.New("deck already won a game for this player")
)

// WinsNeeded is the win threshold for a best-of-N matchup.
func WinsNeeded(bestOf int) int {
	return (bestOf + 1) / 2
}

// WinCounts recomputes per-participant win totals from the game ledger.
// Ledger scans stay O(games); no cached counters exist to drift.
func WinCounts(games []Game) map[string]int {
	counts := make(map[string]int, 2)
	for _, g := range games {
		counts[g.WinnerID]++
	}
	return counts
}

// ValidateGame checks a candidate game against the existing ledger,
// fail-fast in the order callers expect: sequence, winner, decidedness,
// key counts, then Triad deck constraints.
func ValidateGame(m Match, existing []Game, strikes []Strike, candidate Game) error {
	if candidate.Number < 1 || candidate.Number != len(existing)+1 {
		return fmt.Errorf("%w: got=%d want=%d", ErrGameOutOfSequence, candidate.Number, len(existing)+1)
	}

	if !m.HasParticipant(candidate.WinnerID) {
		return fmt.Errorf("%w: winner=%s", ErrWinnerNotInMatch, candidate.WinnerID)
	}

	needed := WinsNeeded(m.BestOf)
	for _, wins := range WinCounts(existing) {
		if wins >= needed {
			return ErrMatchDecided
		}
	}

	if candidate.CreatorKeys < 0 || candidate.CreatorKeys > 3 ||
		candidate.OpponentKeys < 0 || candidate.OpponentKeys > 3 {
		return ErrKeyCountRange
	}

	if m.Format == FormatTriad {
		if err := validateTriadDecks(existing, strikes, candidate, m); err != nil {
			return err
		}
	}

	return nil
}

// Decided reports whether either side has reached the win threshold after
// appending the candidate to the ledger.
func Decided(bestOf int, games []Game) bool {
	needed := WinsNeeded(bestOf)
	for _, wins := range WinCounts(games) {
		if wins >= needed {
			return true
		}
	}
	return false
}

func validateTriadDecks(existing []Game, strikes []Strike, candidate Game, m Match) error {
	if candidate.CreatorDeckID == "" || candidate.OpponentDeckID == "" {
		return ErrDeckUsedRequired
	}

	for _, s := range strikes {
		if s.DeckID == candidate.CreatorDeckID || s.DeckID == candidate.OpponentDeckID {
			return fmt.Errorf("%w: deck=%s", ErrDeckStruck, s.DeckID)
		}
	}

	// A deck is burned only by its own prior win: having been played and
	// lost leaves it eligible.
	for _, g := range existing {
		winnerDeck := g.OpponentDeckID
		if g.WinnerID == m.CreatorID {
			winnerDeck = g.CreatorDeckID
		}
		if g.WinnerID == m.CreatorID && winnerDeck == candidate.CreatorDeckID {
			return fmt.Errorf("%w: deck=%s", ErrDeckAlreadyWon, winnerDeck)
		}
		if g.WinnerID == m.OpponentID && winnerDeck == candidate.OpponentDeckID {
			return fmt.Errorf("%w: deck=%s", ErrDeckAlreadyWon, winnerDeck)
		}
	}

	return nil
}
