package match

import (
	"errors"
	"testing"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

func TestValidateDeck_Single(t *testing.T) {
	rules := Rules{
		MaxDeckRating: 80,
		AllowedSets:   []deck.Set{deck.SetCallOfTheArchons, deck.SetWorldsCollide},
	}

	tests := []struct {
		name      string
		candidate DeckSelection
		targetErr error
	}{
		{
			name:      "valid deck",
			candidate: DeckSelection{DeckID: "d1", Set: deck.SetCallOfTheArchons, Rating: 70},
			targetErr: nil,
		},
		{
			name:      "set not allowed",
			candidate: DeckSelection{DeckID: "d1", Set: deck.SetMassMutation, Rating: 70},
			targetErr: ErrSetNotAllowed,
		},
		{
			name:      "rating too high",
			candidate: DeckSelection{DeckID: "d1", Set: deck.SetWorldsCollide, Rating: 81},
			targetErr: ErrRatingTooHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeck(rules, FormatSingle, tt.candidate, nil)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestValidateDeck_EmptyAllowedSetsAllowsEverything(t *testing.T) {
	candidate := DeckSelection{DeckID: "d1", Set: deck.SetPropheticVisions, Rating: 99}
	if err := ValidateDeck(Rules{}, FormatSingle, candidate, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDeck_TriadConstraints(t *testing.T) {
	existing := []DeckSelection{
		{DeckID: "d1", Slot: 1, Set: deck.SetCallOfTheArchons, Rating: 50, Houses: []deck.House{"Brobnar", "Dis", "Logos"}},
		{DeckID: "d2", Slot: 2, Set: deck.SetWorldsCollide, Rating: 50, Houses: []deck.House{"Mars", "Shadows", "Untamed"}},
	}

	tests := []struct {
		name      string
		rules     Rules
		candidate DeckSelection
		targetErr error
	}{
		{
			name:      "valid third deck",
			rules:     Rules{RequireSetDiversity: true, RequireHouseDiv: true},
			candidate: DeckSelection{DeckID: "d3", Slot: 3, Set: deck.SetMassMutation, Rating: 50, Houses: []deck.House{"Sanctum", "Saurian", "Star Alliance"}},
			targetErr: nil,
		},
		{
			name:      "combined rating exceeded on final slot",
			rules:     Rules{MaxCombinedRating: 140},
			candidate: DeckSelection{DeckID: "d3", Slot: 3, Set: deck.SetMassMutation, Rating: 41},
			targetErr: ErrCombinedRating,
		},
		{
			name:      "duplicate set",
			rules:     Rules{RequireSetDiversity: true},
			candidate: DeckSelection{DeckID: "d3", Slot: 3, Set: deck.SetCallOfTheArchons, Rating: 50},
			targetErr: ErrDuplicateSet,
		},
		{
			name:      "shared house",
			rules:     Rules{RequireHouseDiv: true},
			candidate: DeckSelection{DeckID: "d3", Slot: 3, Set: deck.SetMassMutation, Rating: 50, Houses: []deck.House{"Dis", "Saurian", "Star Alliance"}},
			targetErr: ErrSharedHouse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeck(tt.rules, FormatTriad, tt.candidate, existing)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestValidateDeck_CombinedRatingWaitsForFullSelection(t *testing.T) {
	rules := Rules{MaxCombinedRating: 100}
	existing := []DeckSelection{
		{DeckID: "d1", Slot: 1, Rating: 70},
	}
	candidate := DeckSelection{DeckID: "d2", Slot: 2, Rating: 70}

	// Only two of three slots filled: the combined cap is not evaluated yet.
	if err := ValidateDeck(rules, FormatTriad, candidate, existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDeck_ArchonPowerNeverSharesHouse(t *testing.T) {
	rules := Rules{RequireHouseDiv: true}
	existing := []DeckSelection{
		{DeckID: "d1", Slot: 1, Houses: []deck.House{deck.HouseArchonPower, "Dis", "Logos"}},
	}
	candidate := DeckSelection{DeckID: "d2", Slot: 2, Houses: []deck.House{deck.HouseArchonPower, "Mars", "Shadows"}}

	if err := ValidateDeck(rules, FormatTriad, candidate, existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAlliance(t *testing.T) {
	pool := map[string]struct{}{"d1": {}, "d2": {}, "d3": {}}
	houses := map[string][]deck.House{
		"d1": {"Brobnar", "Dis", "Logos"},
		"d2": {"Mars", "Shadows", "Untamed"},
		"d3": {"Sanctum", "Saurian", "Shadows"},
	}
	validPods := []AlliancePod{
		{DeckID: "d1", House: "Brobnar"},
		{DeckID: "d2", House: "Shadows"},
		{DeckID: "d3", House: "Saurian"},
	}

	tests := []struct {
		name      string
		rules     Rules
		sel       AllianceSelection
		targetErr error
	}{
		{
			name:      "valid alliance",
			rules:     Rules{AllowedSets: []deck.Set{deck.SetGrimReminders}},
			sel:       AllianceSelection{Pods: validPods},
			targetErr: nil,
		},
		{
			name:  "deck outside pool",
			rules: Rules{},
			sel: AllianceSelection{Pods: []AlliancePod{
				{DeckID: "d9", House: "Brobnar"},
				{DeckID: "d2", House: "Shadows"},
				{DeckID: "d3", House: "Saurian"},
			}},
			targetErr: ErrPodOutsidePool,
		},
		{
			name:  "house not on deck",
			rules: Rules{},
			sel: AllianceSelection{Pods: []AlliancePod{
				{DeckID: "d1", House: "Mars"},
				{DeckID: "d2", House: "Shadows"},
				{DeckID: "d3", House: "Saurian"},
			}},
			targetErr: ErrHouseNotOnDeck,
		},
		{
			name:  "duplicate pod house",
			rules: Rules{},
			sel: AllianceSelection{Pods: []AlliancePod{
				{DeckID: "d1", House: "Dis"},
				{DeckID: "d2", House: "Shadows"},
				{DeckID: "d3", House: "Shadows"},
			}},
			targetErr: ErrDuplicatePodHouse,
		},
		{
			name:      "token deck required for token sets",
			rules:     Rules{AllowedSets: []deck.Set{deck.SetWindsOfExchange}},
			sel:       AllianceSelection{Pods: validPods},
			targetErr: ErrTokenDeckMissing,
		},
		{
			name:      "prophecy deck required for prophetic visions",
			rules:     Rules{AllowedSets: []deck.Set{deck.SetPropheticVisions}},
			sel:       AllianceSelection{Pods: validPods},
			targetErr: ErrProphecyMissing,
		},
		{
			name:      "token deck satisfied",
			rules:     Rules{AllowedSets: []deck.Set{deck.SetTokensOfChange}},
			sel:       AllianceSelection{Pods: validPods, TokenDeckID: "d2"},
			targetErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlliance(tt.rules, tt.sel, pool, houses)
			if tt.targetErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.targetErr) {
				t.Fatalf("expected %v, got %v", tt.targetErr, err)
			}
		})
	}
}

func TestValidateAlliance_RequiresExactlyThreePods(t *testing.T) {
	sel := AllianceSelection{Pods: []AlliancePod{{DeckID: "d1", House: "Dis"}}}
	if err := ValidateAlliance(Rules{}, sel, map[string]struct{}{"d1": {}}, nil); err == nil {
		t.Fatalf("expected error for short pod list")
	}
}
