package catalog

import (
	"strings"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

// Wire models for the deck registry API. The registry reports expansions by
// their enum names; unknown expansions are dropped rather than guessed.

type deckEnvelope struct {
	Deck deckPayload `json:"deck"`
}

type searchEnvelope struct {
	Decks []deckPayload `json:"decks"`
	Page  int           `json:"page"`
	Pages int           `json:"totalPages"`
}

type searchRequest struct {
	Expansions []string `json:"expansions,omitempty"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}

type deckPayload struct {
	ID        string   `json:"keyforgeId"`
	Name      string   `json:"name"`
	Expansion string   `json:"expansion"`
	Houses    []string `json:"houses"`
	SasRating int      `json:"sasRating"`
}

var setByExpansion = map[string]deck.Set{
	"CALL_OF_THE_ARCHONS": deck.SetCallOfTheArchons,
	"AGE_OF_ASCENSION":    deck.SetAgeOfAscension,
	"WORLDS_COLLIDE":      deck.SetWorldsCollide,
	"MASS_MUTATION":       deck.SetMassMutation,
	"DARK_TIDINGS":        deck.SetDarkTidings,
	"WINDS_OF_EXCHANGE":   deck.SetWindsOfExchange,
	"GRIM_REMINDERS":      deck.SetGrimReminders,
	"AEMBER_SKIES":        deck.SetAemberSkies,
	"TOKENS_OF_CHANGE":    deck.SetTokensOfChange,
	"PROPHETIC_VISIONS":   deck.SetPropheticVisions,
}

var expansionBySet = map[deck.Set]string{
	deck.SetCallOfTheArchons: "CALL_OF_THE_ARCHONS",
	deck.SetAgeOfAscension:   "AGE_OF_ASCENSION",
	deck.SetWorldsCollide:    "WORLDS_COLLIDE",
	deck.SetMassMutation:     "MASS_MUTATION",
	deck.SetDarkTidings:      "DARK_TIDINGS",
	deck.SetWindsOfExchange:  "WINDS_OF_EXCHANGE",
	deck.SetGrimReminders:    "GRIM_REMINDERS",
	deck.SetAemberSkies:      "AEMBER_SKIES",
	deck.SetTokensOfChange:   "TOKENS_OF_CHANGE",
	deck.SetPropheticVisions: "PROPHETIC_VISIONS",
}

func deckFromPayload(payload deckPayload) (deck.Info, bool) {
	id := strings.TrimSpace(payload.ID)
	set, knownSet := setByExpansion[strings.ToUpper(strings.TrimSpace(payload.Expansion))]
	if id == "" || !knownSet {
		return deck.Info{}, false
	}

	houses := make([]deck.House, 0, len(payload.Houses))
	for _, h := range payload.Houses {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		houses = append(houses, deck.House(h))
	}

	info := deck.Info{
		ID:     id,
		Name:   strings.TrimSpace(payload.Name),
		Set:    set,
		Houses: houses,
		Rating: payload.SasRating,
	}
	if err := info.Validate(); err != nil {
		return deck.Info{}, false
	}
	return info, true
}
