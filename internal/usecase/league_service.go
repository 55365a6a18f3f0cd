package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/vaultheim/crucible/internal/domain/league"
	idgen "github.com/vaultheim/crucible/internal/platform/id"
)

type CreateLeagueInput struct {
	CreatorID string
	Name      string
	TeamSize  int
	NumTeams  int
}

type CreateTeamInput struct {
	LeagueID  string
	CallerID  string
	Name      string
	CaptainID string
}

type SignupInput struct {
	LeagueID string
	UserID   string
}

type MakePickInput struct {
	LeagueID string
	CallerID string
	UserID   string
}

// LeagueService manages multi-team leagues and their snake drafts. Draft
// position is always recomputed from the append-only pick ledger; nothing
// about the draft is cached.
type LeagueService struct {
	leagues league.Repository
	idGen   idgen.Generator
	logger  *slog.Logger
	now     func() time.Time
}

func NewLeagueService(leagues league.Repository, idGen idgen.Generator, logger *slog.Logger) *LeagueService {
	if logger == nil {
		logger = slog.Default()
	}

	return &LeagueService{
		leagues: leagues,
		idGen:   idGen,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *LeagueService) CreateLeague(ctx context.Context, input CreateLeagueInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateLeague")
	defer span.End()

	input.CreatorID = strings.TrimSpace(input.CreatorID)
	input.Name = strings.TrimSpace(input.Name)
	if input.CreatorID == "" {
		return league.League{}, fmt.Errorf("%w: creator id is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return league.League{}, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return league.League{}, fmt.Errorf("generate league id: %w", err)
	}

	l := league.League{
		ID:        id,
		Name:      input.Name,
		CreatorID: input.CreatorID,
		TeamSize:  input.TeamSize,
		NumTeams:  input.NumTeams,
		Status:    league.StatusSetup,
		CreatedAt: s.now().UTC(),
	}
	if err := l.Validate(); err != nil {
		return league.League{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.leagues.CreateLeague(ctx, l); err != nil {
		return league.League{}, fmt.Errorf("create league: %w", err)
	}

	s.logger.InfoContext(ctx, "league created",
		"league_id", l.ID,
		"team_size", l.TeamSize,
		"num_teams", l.NumTeams,
	)

	return l, nil
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ListLeagues")
	defer span.End()

	leagues, err := s.leagues.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	return leagues, nil
}

// CreateTeam adds a team (with its captain) while the league is in setup.
// Only the league admin may do this.
func (s *LeagueService) CreateTeam(ctx context.Context, input CreateTeamInput) (league.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateTeam")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	input.CaptainID = strings.TrimSpace(input.CaptainID)
	if input.Name == "" {
		return league.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if input.CaptainID == "" {
		return league.Team{}, fmt.Errorf("%w: captain id is required", ErrInvalidInput)
	}

	l, err := s.adminLeague(ctx, input.LeagueID, input.CallerID)
	if err != nil {
		return league.Team{}, err
	}
	if l.Status != league.StatusSetup {
		return league.Team{}, fmt.Errorf("%w: teams can only be added during setup", ErrInvalidInput)
	}

	teams, err := s.leagues.ListTeams(ctx, l.ID)
	if err != nil {
		return league.Team{}, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) >= l.NumTeams {
		return league.Team{}, fmt.Errorf("%w: league already has %d teams", ErrInvalidInput, l.NumTeams)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return league.Team{}, fmt.Errorf("generate team id: %w", err)
	}

	t := league.Team{
		ID:       id,
		LeagueID: l.ID,
		Name:     input.Name,
		OrderNum: len(teams) + 1,
	}
	if err := s.leagues.CreateTeam(ctx, t); err != nil {
		return league.Team{}, fmt.Errorf("create team: %w", err)
	}
	if err := s.leagues.AddMember(ctx, league.TeamMember{TeamID: t.ID, UserID: input.CaptainID, Captain: true}); err != nil {
		return league.Team{}, fmt.Errorf("add captain: %w", err)
	}

	s.logger.InfoContext(ctx, "team created",
		"league_id", l.ID,
		"team_id", t.ID,
		"captain_id", input.CaptainID,
	)

	return t, nil
}

// Signup queues a candidate participant in join order.
func (s *LeagueService) Signup(ctx context.Context, input SignupInput) (league.Signup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.Signup")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return league.Signup{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	l, err := s.getLeague(ctx, input.LeagueID)
	if err != nil {
		return league.Signup{}, err
	}
	if l.Status != league.StatusSetup {
		return league.Signup{}, fmt.Errorf("%w: signups are closed", ErrInvalidInput)
	}

	signups, err := s.leagues.ListSignups(ctx, l.ID)
	if err != nil {
		return league.Signup{}, fmt.Errorf("list signups: %w", err)
	}
	maxPos := 0
	for _, existing := range signups {
		if existing.UserID == input.UserID {
			return league.Signup{}, fmt.Errorf("%w: already signed up", ErrInvalidInput)
		}
		if existing.Position > maxPos {
			maxPos = existing.Position
		}
	}

	signup := league.Signup{
		LeagueID: l.ID,
		UserID:   input.UserID,
		Status:   league.SignupPending,
		Position: maxPos + 1,
	}
	if err := s.leagues.AddSignup(ctx, signup); err != nil {
		return league.Signup{}, fmt.Errorf("add signup: %w", err)
	}

	return signup, nil
}

// StartDraft freezes the signup queue: the first num_teams x (team_size-1)
// non-captain signups (in join order) are drafted, the rest waitlisted, and
// captains are drafted unconditionally.
func (s *LeagueService) StartDraft(ctx context.Context, leagueID, callerID string) (league.DraftState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.StartDraft")
	defer span.End()

	l, err := s.adminLeague(ctx, leagueID, callerID)
	if err != nil {
		return league.DraftState{}, err
	}
	if l.Status != league.StatusSetup {
		return league.DraftState{}, fmt.Errorf("%w: draft can only start from setup", ErrInvalidInput)
	}

	teams, err := s.leagues.ListTeams(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) < 2 {
		return league.DraftState{}, fmt.Errorf("%w: at least 2 teams are required", ErrInvalidInput)
	}
	if len(teams) != l.NumTeams {
		return league.DraftState{}, fmt.Errorf("%w: league expects %d teams, has %d", ErrInvalidInput, l.NumTeams, len(teams))
	}

	members, err := s.leagues.ListMembers(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list members: %w", err)
	}
	captainsByTeam := make(map[string]int, len(teams))
	captains := make(map[string]struct{}, len(teams))
	for _, m := range members {
		if m.Captain {
			captainsByTeam[m.TeamID]++
			captains[m.UserID] = struct{}{}
		}
	}
	for _, t := range teams {
		if captainsByTeam[t.ID] != 1 {
			return league.DraftState{}, fmt.Errorf("%w: team %s must have exactly one captain", ErrInvalidInput, t.Name)
		}
	}

	signups, err := s.leagues.ListSignups(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list signups: %w", err)
	}
	sort.Slice(signups, func(i, j int) bool { return signups[i].Position < signups[j].Position })

	totalSpots := l.NumTeams * (l.TeamSize - 1)
	drafted := make([]string, 0, totalSpots+len(captains))
	waitlisted := make([]string, 0)
	taken := 0
	for _, su := range signups {
		if _, isCaptain := captains[su.UserID]; isCaptain {
			drafted = append(drafted, su.UserID)
			continue
		}
		if taken < totalSpots {
			drafted = append(drafted, su.UserID)
			taken++
			continue
		}
		waitlisted = append(waitlisted, su.UserID)
	}

	if err := s.leagues.StartDraft(ctx, l.ID, drafted, waitlisted); err != nil {
		return league.DraftState{}, fmt.Errorf("start draft: %w", err)
	}

	s.logger.InfoContext(ctx, "draft started",
		"league_id", l.ID,
		"drafted", len(drafted),
		"waitlisted", len(waitlisted),
	)

	return s.ComputeDraft(ctx, l.ID)
}

// ComputeDraft re-derives the current draft position from source records.
func (s *LeagueService) ComputeDraft(ctx context.Context, leagueID string) (league.DraftState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.ComputeDraft")
	defer span.End()

	l, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return league.DraftState{}, err
	}

	teams, err := s.leagues.ListTeams(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list teams: %w", err)
	}
	members, err := s.leagues.ListMembers(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list members: %w", err)
	}
	signups, err := s.leagues.ListSignups(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list signups: %w", err)
	}
	picks, err := s.leagues.ListPicks(ctx, l.ID)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("list picks: %w", err)
	}

	state, err := league.ComputeDraftState(l, teams, members, signups, picks)
	if err != nil {
		return league.DraftState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return state, nil
}

// MakePick drafts one user onto the team whose turn it is. Allowed for the
// league admin or the captain of the current snake-order team; the turn and
// availability are recomputed fresh from the ledger.
func (s *LeagueService) MakePick(ctx context.Context, input MakePickInput) (league.DraftPick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.MakePick")
	defer span.End()

	input.CallerID = strings.TrimSpace(input.CallerID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.CallerID == "" || input.UserID == "" {
		return league.DraftPick{}, fmt.Errorf("%w: caller id and user id are required", ErrInvalidInput)
	}

	l, err := s.getLeague(ctx, input.LeagueID)
	if err != nil {
		return league.DraftPick{}, err
	}
	if l.Status != league.StatusDrafting {
		return league.DraftPick{}, fmt.Errorf("%w: league is not drafting", ErrInvalidInput)
	}

	state, err := s.ComputeDraft(ctx, l.ID)
	if err != nil {
		return league.DraftPick{}, err
	}
	if state.Complete {
		return league.DraftPick{}, fmt.Errorf("%w: draft is already complete", ErrInvalidInput)
	}

	if input.CallerID != l.CreatorID {
		isCurrentCaptain, capErr := s.isCaptainOf(ctx, l.ID, state.CurrentTeamID, input.CallerID)
		if capErr != nil {
			return league.DraftPick{}, capErr
		}
		if !isCurrentCaptain {
			return league.DraftPick{}, fmt.Errorf("%w: not your turn to pick", ErrUnauthorized)
		}
	}

	available := false
	for _, userID := range state.Available {
		if userID == input.UserID {
			available = true
			break
		}
	}
	if !available {
		return league.DraftPick{}, fmt.Errorf("%w: user %s is not available to draft", ErrInvalidInput, input.UserID)
	}

	pick := league.DraftPick{
		LeagueID:   l.ID,
		Round:      state.CurrentRound,
		PickInRO:   state.PickInRound,
		TeamID:     state.CurrentTeamID,
		UserID:     input.UserID,
		PickedByID: input.CallerID,
	}
	member := league.TeamMember{TeamID: state.CurrentTeamID, UserID: input.UserID}
	complete := state.PicksMade+1 >= state.TotalPicks

	if err := s.leagues.AppendPick(ctx, pick, member, complete); err != nil {
		if errors.Is(err, league.ErrPickTaken) {
			return league.DraftPick{}, fmt.Errorf("%w: not your turn to pick", ErrInvalidInput)
		}
		return league.DraftPick{}, fmt.Errorf("append pick: %w", err)
	}

	s.logger.InfoContext(ctx, "draft pick made",
		"league_id", l.ID,
		"round", pick.Round,
		"pick_in_round", pick.PickInRO,
		"team_id", pick.TeamID,
		"user_id", pick.UserID,
		"complete", complete,
	)

	return pick, nil
}

func (s *LeagueService) isCaptainOf(ctx context.Context, leagueID, teamID, userID string) (bool, error) {
	members, err := s.leagues.ListMembers(ctx, leagueID)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if m.TeamID == teamID && m.UserID == userID && m.Captain {
			return true, nil
		}
	}
	return false, nil
}

func (s *LeagueService) getLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	l, exists, err := s.leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	return l, nil
}

func (s *LeagueService) adminLeague(ctx context.Context, leagueID, callerID string) (league.League, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return league.League{}, fmt.Errorf("%w: caller id is required", ErrInvalidInput)
	}

	l, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return league.League{}, err
	}
	if l.CreatorID != callerID {
		return league.League{}, fmt.Errorf("%w: only the league admin may do this", ErrUnauthorized)
	}

	return l, nil
}
