package match

import (
	"errors"
	"fmt"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

var (
	ErrSetNotAllowed     = errors.New("deck set is not allowed in this match")
	ErrRatingTooHigh     = errors.New("deck rating exceeds the match limit")
	ErrCombinedRating    = errors.New("combined deck rating exceeds the match limit")
	ErrDuplicateSet      = errors.New("two selected decks share a set")
	ErrSharedHouse       = errors.New("two selected decks share a house")
	ErrPodOutsidePool    = errors.New("pod deck is not in the sealed pool")
	ErrHouseNotOnDeck    = errors.New("declared house is not on the deck")
	ErrDuplicatePodHouse = errors.New("pod houses must be distinct")
	ErrTokenDeckMissing  = errors.New("token deck is required for this set list")
	ErrProphecyMissing   = errors.New("prophecy deck is required for this set list")
)

// ValidateDeck checks one candidate selection against the match rules,
// failing fast on the first violated constraint. Multi-deck constraints are
// evaluated against the hypothetical full selection (existing + candidate);
// the caller must pass existing selections with the candidate's slot already
// excluded so that re-submitting a slot does not conflict with itself.
func ValidateDeck(rules Rules, format Format, candidate DeckSelection, existing []DeckSelection) error {
	if !rules.AllowsSet(candidate.Set) {
		return fmt.Errorf("%w: set=%s", ErrSetNotAllowed, candidate.Set)
	}
	if rules.MaxDeckRating > 0 && candidate.Rating > rules.MaxDeckRating {
		return fmt.Errorf("%w: rating=%d max=%d", ErrRatingTooHigh, candidate.Rating, rules.MaxDeckRating)
	}

	if format != FormatTriad {
		return nil
	}

	virtual := make([]DeckSelection, 0, len(existing)+1)
	virtual = append(virtual, existing...)
	virtual = append(virtual, candidate)
	if len(virtual) < 2 {
		return nil
	}

	if rules.MaxCombinedRating > 0 && len(virtual) == format.DeckSlots() {
		total := 0
		for _, sel := range virtual {
			total += sel.Rating
		}
		if total > rules.MaxCombinedRating {
			return fmt.Errorf("%w: total=%d max=%d", ErrCombinedRating, total, rules.MaxCombinedRating)
		}
	}

	if rules.RequireSetDiversity {
		seen := make(map[deck.Set]int, len(virtual))
		for _, sel := range virtual {
			seen[sel.Set]++
			if seen[sel.Set] > 1 {
				return fmt.Errorf("%w: set=%s", ErrDuplicateSet, sel.Set)
			}
		}
	}

	if rules.RequireHouseDiv {
		seen := make(map[deck.House]int, 3*len(virtual))
		for _, sel := range virtual {
			for _, h := range sel.Houses {
				if h == deck.HouseArchonPower {
					continue
				}
				seen[h]++
				if seen[h] > 1 {
					return fmt.Errorf("%w: house=%s", ErrSharedHouse, h)
				}
			}
		}
	}

	return nil
}

// ValidateAlliance checks a full alliance declaration. pool holds the ids of
// the participant's sealed-pool decks and housesByDeck the resolved houses of
// each pod deck (the caller fetches those from the catalog).
func ValidateAlliance(rules Rules, sel AllianceSelection, pool map[string]struct{}, housesByDeck map[string][]deck.House) error {
	if len(sel.Pods) != 3 {
		return fmt.Errorf("exactly 3 pods are required, got %d", len(sel.Pods))
	}

	podDecks := make(map[string]struct{}, 3)
	seenHouses := make(map[deck.House]struct{}, 3)
	for _, pod := range sel.Pods {
		if pod.DeckID == "" {
			return fmt.Errorf("pod deck id is required")
		}
		if _, ok := pool[pod.DeckID]; !ok {
			return fmt.Errorf("%w: deck=%s", ErrPodOutsidePool, pod.DeckID)
		}
		if !houseOnDeck(housesByDeck[pod.DeckID], pod.House) {
			return fmt.Errorf("%w: deck=%s house=%s", ErrHouseNotOnDeck, pod.DeckID, pod.House)
		}
		if _, dup := seenHouses[pod.House]; dup {
			return fmt.Errorf("%w: house=%s", ErrDuplicatePodHouse, pod.House)
		}
		seenHouses[pod.House] = struct{}{}
		podDecks[pod.DeckID] = struct{}{}
	}

	if setListIntersects(rules.AllowedSets, deck.TokenSets) {
		if sel.TokenDeckID == "" {
			return ErrTokenDeckMissing
		}
		if _, ok := podDecks[sel.TokenDeckID]; !ok {
			return fmt.Errorf("token deck %s must be one of the pod decks", sel.TokenDeckID)
		}
	}

	if setListContains(rules.AllowedSets, deck.SetPropheticVisions) {
		if sel.ProphecyDeckID == "" {
			return ErrProphecyMissing
		}
		if _, ok := podDecks[sel.ProphecyDeckID]; !ok {
			return fmt.Errorf("prophecy deck %s must be one of the pod decks", sel.ProphecyDeckID)
		}
	}

	return nil
}

func houseOnDeck(houses []deck.House, h deck.House) bool {
	for _, have := range houses {
		if have == h {
			return true
		}
	}
	return false
}

func setListIntersects(sets []deck.Set, family map[deck.Set]struct{}) bool {
	for _, s := range sets {
		if _, ok := family[s]; ok {
			return true
		}
	}
	return false
}

func setListContains(sets []deck.Set, want deck.Set) bool {
	for _, s := range sets {
		if s == want {
			return true
		}
	}
	return false
}
