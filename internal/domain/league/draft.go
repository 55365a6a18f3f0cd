package league

import (
	"fmt"
	"sort"
)

// DraftState is a pure projection of the draft ledger plus team and signup
// rows. It holds no state of its own and recomputing it with unchanged
// inputs yields an identical value.
type DraftState struct {
	PicksPerTeam int
	TotalPicks   int
	PicksMade    int
	Complete     bool

	// CurrentRound is 1-based; CurrentTeamID is empty once complete.
	CurrentRound  int
	PickInRound   int
	CurrentTeamID string

	// Available lists draftable user ids in signup order.
	Available []string

	// Board is the rounds x teams pick grid, rebuilt from history for
	// display. Board[r][t] is the user picked by the team with order t+1 in
	// round r+1, or "" when that slot is still open.
	Board [][]string
}

// ComputeDraftState derives the current draft position from source records.
// Captains fill one roster slot each without being drafted, so each team
// makes team_size-1 picks.
func ComputeDraftState(l League, teams []Team, members []TeamMember, signups []Signup, picks []DraftPick) (DraftState, error) {
	if l.NumTeams < 2 {
		return DraftState{}, fmt.Errorf("league %s has fewer than 2 teams configured", l.ID)
	}

	ordered := append([]Team(nil), teams...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].OrderNum < ordered[j].OrderNum })

	history := append([]DraftPick(nil), picks...)
	sort.Slice(history, func(i, j int) bool {
		if history[i].Round != history[j].Round {
			return history[i].Round < history[j].Round
		}
		return history[i].PickInRO < history[j].PickInRO
	})

	picked := make(map[string]struct{}, len(history))
	for _, p := range history {
		picked[p.UserID] = struct{}{}
	}
	captains := make(map[string]struct{}, len(ordered))
	for _, m := range members {
		if m.Captain {
			captains[m.UserID] = struct{}{}
		}
	}

	state := DraftState{
		PicksPerTeam: l.TeamSize - 1,
		PicksMade:    len(history),
	}
	state.TotalPicks = state.PicksPerTeam * l.NumTeams
	state.Complete = state.PicksMade >= state.TotalPicks

	inOrder := append([]Signup(nil), signups...)
	sort.Slice(inOrder, func(i, j int) bool { return inOrder[i].Position < inOrder[j].Position })
	for _, s := range inOrder {
		if s.Status != SignupDrafted {
			continue
		}
		if _, gone := picked[s.UserID]; gone {
			continue
		}
		if _, isCaptain := captains[s.UserID]; isCaptain {
			continue
		}
		state.Available = append(state.Available, s.UserID)
	}

	if !state.Complete {
		state.CurrentRound = state.PicksMade/l.NumTeams + 1
		state.PickInRound = state.PicksMade % l.NumTeams
		idx := snakeTeamIndex(state.CurrentRound, state.PickInRound, l.NumTeams)
		if idx < len(ordered) {
			state.CurrentTeamID = ordered[idx].ID
		}
	}

	rounds := state.TotalPicks / l.NumTeams
	state.Board = make([][]string, rounds)
	for r := range state.Board {
		state.Board[r] = make([]string, l.NumTeams)
	}
	teamCol := make(map[string]int, len(ordered))
	for i, t := range ordered {
		teamCol[t.ID] = i
	}
	for _, p := range history {
		if p.Round < 1 || p.Round > rounds {
			continue
		}
		if col, ok := teamCol[p.TeamID]; ok {
			state.Board[p.Round-1][col] = p.UserID
		}
	}

	return state, nil
}

// snakeTeamIndex maps a (round, pick-in-round) position to a 0-based team
// index. Direction reverses every round.
func snakeTeamIndex(round, pickInRound, numTeams int) int {
	if round%2 == 1 {
		return pickInRound
	}
	return numTeams - 1 - pickInRound
}
