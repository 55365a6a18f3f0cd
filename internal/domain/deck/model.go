package deck

import "fmt"

// House is one of the three factions printed on a KeyForge deck.
type House string

// HouseArchonPower is a universal pseudo-house present on prophecy-era decks.
// It never counts toward house-diversity comparisons.
const HouseArchonPower House = "Archon Power"

// Set identifies a KeyForge expansion.
type Set string

const (
	SetCallOfTheArchons Set = "CotA"
	SetAgeOfAscension   Set = "AoA"
	SetWorldsCollide    Set = "WC"
	SetMassMutation     Set = "MM"
	SetDarkTidings      Set = "DT"
	SetWindsOfExchange  Set = "WoE"
	SetGrimReminders    Set = "GR"
	SetAemberSkies      Set = "AES"
	SetTokensOfChange   Set = "ToC"
	SetPropheticVisions Set = "PV"
)

// AllSets enumerates every expansion the engine understands.
var AllSets = map[Set]struct{}{
	SetCallOfTheArchons: {},
	SetAgeOfAscension:   {},
	SetWorldsCollide:    {},
	SetMassMutation:     {},
	SetDarkTidings:      {},
	SetWindsOfExchange:  {},
	SetGrimReminders:    {},
	SetAemberSkies:      {},
	SetTokensOfChange:   {},
	SetPropheticVisions: {},
}

// TokenSets are the expansions whose decks are built around a token creature.
// Alliance pods drawn from these sets must nominate a token deck.
var TokenSets = map[Set]struct{}{
	SetWindsOfExchange: {},
	SetTokensOfChange:  {},
	SetAemberSkies:     {},
}

// Info is the catalog's view of one registered deck.
type Info struct {
	ID     string
	Name   string
	Set    Set
	Houses []House
	Rating int
}

func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("deck id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("deck name is required")
	}
	if _, ok := AllSets[i.Set]; !ok {
		return fmt.Errorf("unknown deck set %q", i.Set)
	}
	if len(i.Houses) == 0 {
		return fmt.Errorf("deck houses are required")
	}

	return nil
}

// HasHouse reports whether the deck plays the given house.
func (i Info) HasHouse(h House) bool {
	for _, have := range i.Houses {
		if have == h {
			return true
		}
	}
	return false
}
