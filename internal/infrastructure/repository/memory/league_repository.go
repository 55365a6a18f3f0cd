package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaultheim/crucible/internal/domain/league"
)

type LeagueRepository struct {
	mu sync.RWMutex

	leagues map[string]league.League
	order   []string
	teams   map[string][]league.Team
	members map[string][]league.TeamMember
	signups map[string][]league.Signup
	picks   map[string][]league.DraftPick

	teamLeague map[string]string
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{
		leagues:    make(map[string]league.League),
		teams:      make(map[string][]league.Team),
		members:    make(map[string][]league.TeamMember),
		signups:    make(map[string][]league.Signup),
		picks:      make(map[string][]league.DraftPick),
		teamLeague: make(map[string]string),
	}
}

func (r *LeagueRepository) CreateLeague(_ context.Context, l league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leagues[l.ID]; exists {
		return fmt.Errorf("league %s already exists", l.ID)
	}
	r.leagues[l.ID] = l
	r.order = append(r.order, l.ID)
	return nil
}

func (r *LeagueRepository) GetLeague(_ context.Context, id string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leagues[id]
	if !ok {
		return league.League{}, false, nil
	}
	return l, true, nil
}

func (r *LeagueRepository) ListLeagues(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.leagues[id])
	}
	return out, nil
}

func (r *LeagueRepository) CreateTeam(_ context.Context, t league.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leagues[t.LeagueID]; !exists {
		return fmt.Errorf("league %s not found", t.LeagueID)
	}
	r.teams[t.LeagueID] = append(r.teams[t.LeagueID], t)
	r.teamLeague[t.ID] = t.LeagueID
	return nil
}

func (r *LeagueRepository) ListTeams(_ context.Context, leagueID string) ([]league.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]league.Team(nil), r.teams[leagueID]...), nil
}

func (r *LeagueRepository) AddMember(_ context.Context, m league.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	leagueID, ok := r.teamLeague[m.TeamID]
	if !ok {
		return fmt.Errorf("team %s not found", m.TeamID)
	}
	r.members[leagueID] = append(r.members[leagueID], m)
	return nil
}

func (r *LeagueRepository) ListMembers(_ context.Context, leagueID string) ([]league.TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]league.TeamMember(nil), r.members[leagueID]...), nil
}

func (r *LeagueRepository) AddSignup(_ context.Context, s league.Signup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.signups[s.LeagueID] = append(r.signups[s.LeagueID], s)
	return nil
}

func (r *LeagueRepository) ListSignups(_ context.Context, leagueID string) ([]league.Signup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]league.Signup(nil), r.signups[leagueID]...), nil
}

func (r *LeagueRepository) StartDraft(_ context.Context, leagueID string, drafted, waitlisted []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leagues[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	if l.Status != league.StatusSetup {
		return fmt.Errorf("league %s is not in setup", leagueID)
	}

	draftedSet := make(map[string]struct{}, len(drafted))
	for _, userID := range drafted {
		draftedSet[userID] = struct{}{}
	}
	waitlistedSet := make(map[string]struct{}, len(waitlisted))
	for _, userID := range waitlisted {
		waitlistedSet[userID] = struct{}{}
	}

	signups := r.signups[leagueID]
	for i, su := range signups {
		if _, ok := draftedSet[su.UserID]; ok {
			signups[i].Status = league.SignupDrafted
			continue
		}
		if _, ok := waitlistedSet[su.UserID]; ok {
			signups[i].Status = league.SignupWaitlisted
		}
	}

	l.Status = league.StatusDrafting
	r.leagues[leagueID] = l
	return nil
}

func (r *LeagueRepository) AppendPick(_ context.Context, p league.DraftPick, m league.TeamMember, complete bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leagues[p.LeagueID]
	if !ok {
		return fmt.Errorf("league %s not found", p.LeagueID)
	}
	for _, existing := range r.picks[p.LeagueID] {
		if existing.Round == p.Round && existing.PickInRO == p.PickInRO {
			return league.ErrPickTaken
		}
	}

	r.picks[p.LeagueID] = append(r.picks[p.LeagueID], p)
	r.members[p.LeagueID] = append(r.members[p.LeagueID], m)
	if complete {
		l.Status = league.StatusActive
		r.leagues[p.LeagueID] = l
	}
	return nil
}

func (r *LeagueRepository) ListPicks(_ context.Context, leagueID string) ([]league.DraftPick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]league.DraftPick(nil), r.picks[leagueID]...), nil
}
