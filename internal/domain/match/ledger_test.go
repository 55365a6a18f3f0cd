package match

import (
	"errors"
	"testing"
)

func TestWinsNeeded(t *testing.T) {
	cases := map[int]int{1: 1, 3: 2, 5: 3, 7: 4, 13: 7}
	for bestOf, want := range cases {
		if got := WinsNeeded(bestOf); got != want {
			t.Fatalf("WinsNeeded(%d) = %d, want %d", bestOf, got, want)
		}
	}
}

func TestValidateGame(t *testing.T) {
	m := Match{
		ID:         "m1",
		Format:     FormatSingle,
		CreatorID:  "alice",
		OpponentID: "bob",
		BestOf:     3,
	}

	tests := []struct {
		name      string
		existing  []Game
		candidate Game
		targetErr error
	}{
		{
			name:      "first game",
			candidate: Game{Number: 1, WinnerID: "alice", CreatorKeys: 3, OpponentKeys: 1},
			targetErr: nil,
		},
		{
			name:      "number skips ahead",
			candidate: Game{Number: 2, WinnerID: "alice"},
			targetErr: ErrGameOutOfSequence,
		},
		{
			name:      "number zero",
			candidate: Game{Number: 0, WinnerID: "alice"},
			targetErr: ErrGameOutOfSequence,
		},
		{
			name: "duplicate number",
			existing: []Game{
				{Number: 1, WinnerID: "alice"},
			},
			candidate: Game{Number: 1, WinnerID: "bob"},
			targetErr: ErrGameOutOfSequence,
		},
		{
			name:      "winner not in match",
			candidate: Game{Number: 1, WinnerID: "mallory"},
			targetErr: ErrWinnerNotInMatch,
		},
		{
			name: "match already decided",
			existing: []Game{
				{Number: 1, WinnerID: "alice"},
				{Number: 2, WinnerID: "alice"},
			},
			candidate: Game{Number: 3, WinnerID: "bob"},
			targetErr: ErrMatchDecided,
		},
		{
			name:      "keys out of range",
			candidate: Game{Number: 1, WinnerID: "alice", CreatorKeys: 4},
			targetErr: ErrKeyCountRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGame(m, tt.existing, nil, tt.candidate)
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

func TestValidateGame_TriadDeckConstraints(t *testing.T) {
	m := Match{
		ID:         "m1",
		Format:     FormatTriad,
		CreatorID:  "alice",
		OpponentID: "bob",
		BestOf:     3,
	}

	tests := []struct {
		name      string
		existing  []Game
		strikes   []Strike
		candidate Game
		targetErr error
	}{
		{
			name:      "decks required",
			candidate: Game{Number: 1, WinnerID: "alice"},
			targetErr: ErrDeckUsedRequired,
		},
		{
			name: "struck deck rejected",
			strikes: []Strike{
				{MatchID: "m1", StruckBy: "bob", TargetID: "alice", Slot: 2, DeckID: "a2"},
			},
			candidate: Game{Number: 1, WinnerID: "alice", CreatorDeckID: "a2", OpponentDeckID: "b1"},
			targetErr: ErrDeckStruck,
		},
		{
			name: "winning deck burned for winner",
			existing: []Game{
				{Number: 1, WinnerID: "alice", CreatorDeckID: "a1", OpponentDeckID: "b1"},
			},
			candidate: Game{Number: 2, WinnerID: "bob", CreatorDeckID: "a1", OpponentDeckID: "b1"},
			targetErr: ErrDeckAlreadyWon,
		},
		{
			name: "losing deck stays eligible",
			existing: []Game{
				{Number: 1, WinnerID: "alice", CreatorDeckID: "a1", OpponentDeckID: "b1"},
			},
			candidate: Game{Number: 2, WinnerID: "bob", CreatorDeckID: "a2", OpponentDeckID: "b1"},
			targetErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGame(m, tt.existing, tt.strikes, tt.candidate)
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

func TestDecided(t *testing.T) {
	games := []Game{
		{Number: 1, WinnerID: "alice"},
		{Number: 2, WinnerID: "bob"},
	}
	if Decided(3, games) {
		t.Fatalf("1-1 in a best-of-3 is not decided")
	}

	games = append(games, Game{Number: 3, WinnerID: "alice"})
	if !Decided(3, games) {
		t.Fatalf("2-1 in a best-of-3 is decided")
	}
}

func TestMatchOpponentOf(t *testing.T) {
	m := Match{ID: "m1", CreatorID: "alice", OpponentID: "bob"}

	if other, ok := m.OpponentOf("alice"); !ok || other != "bob" {
		t.Fatalf("unexpected opponent of alice: %q %v", other, ok)
	}
	if other, ok := m.OpponentOf("bob"); !ok || other != "alice" {
		t.Fatalf("unexpected opponent of bob: %q %v", other, ok)
	}
	if _, ok := m.OpponentOf("mallory"); ok {
		t.Fatalf("non-participant must not resolve an opponent")
	}

	open := Match{ID: "m2", CreatorID: "alice"}
	if _, ok := open.OpponentOf("alice"); ok {
		t.Fatalf("open match has no opponent yet")
	}
}

func TestFormatForcedBestOf(t *testing.T) {
	for _, f := range []Format{FormatTriad, FormatAdaptive} {
		forced, ok := f.ForcedBestOf()
		if !ok || forced != 3 {
			t.Fatalf("%s must force best-of-3, got %d %v", f, forced, ok)
		}
	}
	if _, ok := FormatSingle.ForcedBestOf(); ok {
		t.Fatalf("single format has no forced best-of")
	}
}
