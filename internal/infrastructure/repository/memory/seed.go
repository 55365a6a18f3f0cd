package memory

import "github.com/vaultheim/crucible/internal/domain/deck"

// SeedDecks provides a small catalog for memory-backed runs: enough decks
// per expansion group to deal sealed pools and exercise every format.
func SeedDecks() []deck.Info {
	return []deck.Info{
		{ID: "cota-001", Name: "Titan of the Lonely Sprocket", Set: deck.SetCallOfTheArchons, Houses: []deck.House{"Brobnar", "Logos", "Shadows"}, Rating: 74},
		{ID: "cota-002", Name: "Envy, the Cave Whisperer", Set: deck.SetCallOfTheArchons, Houses: []deck.House{"Dis", "Mars", "Untamed"}, Rating: 68},
		{ID: "cota-003", Name: "Rustmarrow, Warden of Dusk", Set: deck.SetCallOfTheArchons, Houses: []deck.House{"Sanctum", "Shadows", "Untamed"}, Rating: 81},
		{ID: "cota-004", Name: "The Seer of Ruined Teeth", Set: deck.SetCallOfTheArchons, Houses: []deck.House{"Brobnar", "Dis", "Logos"}, Rating: 59},
		{ID: "aoa-001", Name: "Omni, Hunter of the Vault", Set: deck.SetAgeOfAscension, Houses: []deck.House{"Dis", "Logos", "Shadows"}, Rating: 77},
		{ID: "aoa-002", Name: "Greta, the Gale of Quietus", Set: deck.SetAgeOfAscension, Houses: []deck.House{"Brobnar", "Sanctum", "Untamed"}, Rating: 70},
		{ID: "wc-001", Name: "Nikolai the Furtive Scholar", Set: deck.SetWorldsCollide, Houses: []deck.House{"Dis", "Saurian", "Star Alliance"}, Rating: 83},
		{ID: "wc-002", Name: "Harbinger of Polite Ruin", Set: deck.SetWorldsCollide, Houses: []deck.House{"Brobnar", "Saurian", "Shadows"}, Rating: 65},
		{ID: "mm-001", Name: "Motley, Fang of the Deep", Set: deck.SetMassMutation, Houses: []deck.House{"Dis", "Logos", "Star Alliance"}, Rating: 72},
		{ID: "mm-002", Name: "Ada of the Endless Grotto", Set: deck.SetMassMutation, Houses: []deck.House{"Sanctum", "Shadows", "Untamed"}, Rating: 79},
		{ID: "dt-001", Name: "Whisper of the Sunken Choir", Set: deck.SetDarkTidings, Houses: []deck.House{"Mars", "Unfathomable", "Untamed"}, Rating: 76},
		{ID: "dt-002", Name: "Corsair Vex, Tidebreaker", Set: deck.SetDarkTidings, Houses: []deck.House{"Saurian", "Shadows", "Unfathomable"}, Rating: 69},
		{ID: "woe-001", Name: "Bartering Bess of the Span", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Brobnar", "Ekwidon", "Untamed"}, Rating: 71},
		{ID: "woe-002", Name: "The Cartographer of Grudges", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Dis", "Ekwidon", "Logos"}, Rating: 84},
		{ID: "woe-003", Name: "Sigrid, Broker of Thunder", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Ekwidon", "Mars", "Sanctum"}, Rating: 66},
		{ID: "woe-004", Name: "Pavel the Unpaid Debt", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Ekwidon", "Shadows", "Star Alliance"}, Rating: 78},
		{ID: "woe-005", Name: "Maw of the Market Square", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Brobnar", "Dis", "Ekwidon"}, Rating: 62},
		{ID: "woe-006", Name: "Tally, Keeper of Nine Ledgers", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Ekwidon", "Logos", "Untamed"}, Rating: 80},
		{ID: "woe-007", Name: "The Haggler Below the Hill", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Ekwidon", "Sanctum", "Shadows"}, Rating: 73},
		{ID: "woe-008", Name: "Ondine of the Long Caravan", Set: deck.SetWindsOfExchange, Houses: []deck.House{"Ekwidon", "Mars", "Untamed"}, Rating: 67},
		{ID: "gr-001", Name: "Mist of the Hollow Bell", Set: deck.SetGrimReminders, Houses: []deck.House{"Brobnar", "Geistoid", "Untamed"}, Rating: 75},
		{ID: "gr-002", Name: "Erasmus, the Fond Farewell", Set: deck.SetGrimReminders, Houses: []deck.House{"Geistoid", "Sanctum", "Shadows"}, Rating: 82},
		{ID: "aes-001", Name: "Skylar of the Painted Drift", Set: deck.SetAemberSkies, Houses: []deck.House{"Logos", "Skyborn", "Untamed"}, Rating: 70},
		{ID: "aes-002", Name: "The Bosun's Second Regret", Set: deck.SetAemberSkies, Houses: []deck.House{"Dis", "Skyborn", "Star Alliance"}, Rating: 64},
		{ID: "toc-001", Name: "Minter of Crooked Halos", Set: deck.SetTokensOfChange, Houses: []deck.House{"Ekwidon", "Sanctum", "Star Alliance"}, Rating: 71},
		{ID: "toc-002", Name: "Willa, the Exchange of Rain", Set: deck.SetTokensOfChange, Houses: []deck.House{"Logos", "Mars", "Untamed"}, Rating: 77},
		{ID: "pv-001", Name: "Auric, Reader of Tomorrows", Set: deck.SetPropheticVisions, Houses: []deck.House{"Redemption", "Sanctum", "Shadows", deck.HouseArchonPower}, Rating: 79},
		{ID: "pv-002", Name: "The Oracle of Misplaced Keys", Set: deck.SetPropheticVisions, Houses: []deck.House{"Dis", "Logos", "Redemption", deck.HouseArchonPower}, Rating: 73},
	}
}
