package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
	idgen "github.com/vaultheim/crucible/internal/platform/id"
)

// CreateMatchInput is the incoming payload for match creation.
type CreateMatchInput struct {
	CreatorID         string
	Format            match.Format
	BestOf            int
	Visible           bool
	MaxDeckRating     int
	MaxCombinedRating int
	SetDiversity      bool
	HouseDiversity    bool
	AllowedSets       []deck.Set
	DecksPerPlayer    int
}

type JoinMatchInput struct {
	MatchID   string
	UserID    string
	JoinToken string
}

type StartMatchInput struct {
	MatchID string
	UserID  string
}

// MatchDetail is the participant-facing projection of one match and its
// children.
type MatchDetail struct {
	Match      match.Match
	Selections []match.DeckSelection
	Pool       []match.PoolEntry
	Matchup    *match.Matchup
	Strikes    []match.Strike
	Games      []match.Game
	Bids       []match.ChainBid
}

// MatchService drives the match lifecycle: setup, joining, deck selection,
// strikes, bids and game reporting. Every operation re-derives legality from
// persisted state; the repository's atomic conditional writes serialize
// racing callers.
type MatchService struct {
	matches match.Repository
	catalog deck.Catalog
	alloc   *SealedAllocator
	idGen   idgen.Generator
	logger  *slog.Logger
	now     func() time.Time
}

func NewMatchService(
	matches match.Repository,
	catalog deck.Catalog,
	alloc *SealedAllocator,
	idGen idgen.Generator,
	logger *slog.Logger,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}

	return &MatchService{
		matches: matches,
		catalog: catalog,
		alloc:   alloc,
		idGen:   idGen,
		logger:  logger,
		now:     time.Now,
	}
}

const defaultDecksPerPlayer = 4

func (s *MatchService) CreateMatch(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CreateMatch")
	defer span.End()

	input.CreatorID = strings.TrimSpace(input.CreatorID)
	if input.CreatorID == "" {
		return match.Match{}, fmt.Errorf("%w: creator id is required", ErrInvalidInput)
	}
	if input.Format == match.FormatThief {
		return match.Match{}, fmt.Errorf("%w: thief is a team format and cannot be played as a match", ErrInvalidInput)
	}
	if !input.Format.Playable() {
		return match.Match{}, fmt.Errorf("%w: unknown format %q", ErrInvalidInput, input.Format)
	}

	bestOf := input.BestOf
	if forced, ok := input.Format.ForcedBestOf(); ok {
		bestOf = forced
	}
	if bestOf == 0 {
		bestOf = 1
	}
	if bestOf < 1 || bestOf%2 == 0 {
		return match.Match{}, fmt.Errorf("%w: best-of count must be a positive odd number", ErrInvalidInput)
	}

	for _, set := range input.AllowedSets {
		if _, ok := deck.AllSets[set]; !ok {
			return match.Match{}, fmt.Errorf("%w: unknown set %q", ErrInvalidInput, set)
		}
	}

	decksPerPlayer := input.DecksPerPlayer
	if input.Format.Sealed() {
		if decksPerPlayer == 0 {
			decksPerPlayer = defaultDecksPerPlayer
		}
		if decksPerPlayer < 1 {
			return match.Match{}, fmt.Errorf("%w: decks per player must be at least 1", ErrInvalidInput)
		}
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate match id: %w", err)
	}
	token, err := s.idGen.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate join token: %w", err)
	}

	m := match.Match{
		ID:        id,
		Format:    input.Format,
		CreatorID: input.CreatorID,
		Status:    match.StatusSetup,
		BestOf:    bestOf,
		Visible:   input.Visible,
		Rules: match.Rules{
			MaxDeckRating:       input.MaxDeckRating,
			MaxCombinedRating:   input.MaxCombinedRating,
			RequireSetDiversity: input.SetDiversity,
			RequireHouseDiv:     input.HouseDiversity,
			AllowedSets:         input.AllowedSets,
			DecksPerPlayer:      decksPerPlayer,
		},
		JoinToken: token,
		CreatedAt: s.now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.matches.CreateMatch(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}

	s.logger.InfoContext(ctx, "match created",
		"match_id", m.ID,
		"format", m.Format,
		"best_of", m.BestOf,
		"creator_id", m.CreatorID,
	)

	return m, nil
}

// JoinMatch admits a second participant. Authorization is by join token, not
// identity, so anonymous participants can join. For sealed formats the pools
// are dealt inside the same atomic unit; a failed draw rolls the join back.
func (s *MatchService) JoinMatch(ctx context.Context, input JoinMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.JoinMatch")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.UserID = strings.TrimSpace(input.UserID)
	if input.MatchID == "" || input.UserID == "" {
		return match.Match{}, fmt.Errorf("%w: match id and user id are required", ErrInvalidInput)
	}

	m, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return match.Match{}, err
	}

	if input.JoinToken == "" || input.JoinToken != m.JoinToken {
		return match.Match{}, fmt.Errorf("%w: join token does not match", ErrUnauthorized)
	}
	if m.Status != match.StatusSetup {
		return match.Match{}, fmt.Errorf("%w: match is no longer joinable", ErrInvalidInput)
	}
	if m.OpponentID != "" {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, match.ErrOpponentTaken)
	}
	if input.UserID == m.CreatorID {
		return match.Match{}, fmt.Errorf("%w: cannot join your own match", ErrInvalidInput)
	}

	var pool []match.PoolEntry
	if m.Format.Sealed() && !m.PoolsGenerated {
		staged := m
		staged.OpponentID = input.UserID
		pool, err = s.alloc.GeneratePools(ctx, staged)
		if err != nil {
			return match.Match{}, fmt.Errorf("generate sealed pools: %w", err)
		}
	}

	if err := s.matches.JoinMatch(ctx, m.ID, input.UserID, pool); err != nil {
		if isRaceViolation(err) {
			return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return match.Match{}, fmt.Errorf("join match: %w", err)
	}

	joined, err := s.getMatch(ctx, m.ID)
	if err != nil {
		return match.Match{}, err
	}

	s.logger.InfoContext(ctx, "match joined",
		"match_id", m.ID,
		"opponent_id", input.UserID,
		"sealed", m.Format.Sealed(),
	)

	return joined, nil
}

// Start records one participant's readiness. The matchup is created lazily
// on the first signal; the match publishes once both sides have signalled.
func (s *MatchService) Start(ctx context.Context, input StartMatchInput) (match.Matchup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Start")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return match.Matchup{}, err
	}
	if m.Status != match.StatusDeckSelection && m.Status != match.StatusPublished {
		return match.Matchup{}, fmt.Errorf("%w: match cannot be started in status %s", ErrInvalidInput, m.Status)
	}
	if m.OpponentID == "" {
		return match.Matchup{}, fmt.Errorf("%w: match has no opponent yet", ErrInvalidInput)
	}

	mu, err := s.matches.MarkStarted(ctx, m.ID, input.UserID == m.CreatorID)
	if err != nil {
		return match.Matchup{}, fmt.Errorf("mark started: %w", err)
	}

	s.logger.InfoContext(ctx, "match start signalled",
		"match_id", m.ID,
		"user_id", input.UserID,
		"both_started", mu.BothStarted(),
	)

	return mu, nil
}

func (s *MatchService) ListOpenMatches(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListOpenMatches")
	defer span.End()

	open, err := s.matches.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open matches: %w", err)
	}

	// The join token is a capability; never leak it through the lobby.
	for i := range open {
		open[i].JoinToken = ""
	}

	return open, nil
}

// GetMatchDetail assembles the participant-facing view. The sealed pool in
// the detail is the caller's own; the join token is only echoed back to the
// creator.
func (s *MatchService) GetMatchDetail(ctx context.Context, matchID, callerID string) (MatchDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatchDetail")
	defer span.End()

	m, err := s.getMatch(ctx, matchID)
	if err != nil {
		return MatchDetail{}, err
	}

	detail := MatchDetail{Match: m}
	if callerID != m.CreatorID {
		detail.Match.JoinToken = ""
	}

	if detail.Selections, err = s.matches.ListSelections(ctx, m.ID); err != nil {
		return MatchDetail{}, fmt.Errorf("list selections: %w", err)
	}
	if m.Format.Sealed() && m.HasParticipant(callerID) {
		if detail.Pool, err = s.matches.ListPool(ctx, m.ID, callerID); err != nil {
			return MatchDetail{}, fmt.Errorf("list pool: %w", err)
		}
	}
	if mu, ok, muErr := s.matches.GetMatchup(ctx, m.ID); muErr != nil {
		return MatchDetail{}, fmt.Errorf("get matchup: %w", muErr)
	} else if ok {
		detail.Matchup = &mu
	}
	if detail.Strikes, err = s.matches.ListStrikes(ctx, m.ID); err != nil {
		return MatchDetail{}, fmt.Errorf("list strikes: %w", err)
	}
	if detail.Games, err = s.matches.ListGames(ctx, m.ID); err != nil {
		return MatchDetail{}, fmt.Errorf("list games: %w", err)
	}
	if m.Format == match.FormatAdaptive {
		if detail.Bids, err = s.matches.ListBids(ctx, m.ID); err != nil {
			return MatchDetail{}, fmt.Errorf("list bids: %w", err)
		}
	}

	return detail, nil
}

// getMatch loads a match and converts absence into a not-found violation,
// which is how operations against an externally swept match fail.
func (s *MatchService) getMatch(ctx context.Context, matchID string) (match.Match, error) {
	m, exists, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	return m, nil
}

func (s *MatchService) participantMatch(ctx context.Context, matchID, userID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	userID = strings.TrimSpace(userID)
	if matchID == "" || userID == "" {
		return match.Match{}, fmt.Errorf("%w: match id and user id are required", ErrInvalidInput)
	}

	m, err := s.getMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !m.HasParticipant(userID) {
		return match.Match{}, fmt.Errorf("%w: not a participant of this match", ErrUnauthorized)
	}

	return m, nil
}

func isRaceViolation(err error) bool {
	return errors.Is(err, match.ErrOpponentTaken) ||
		errors.Is(err, match.ErrStrikeUsed) ||
		errors.Is(err, match.ErrGameNumberTaken) ||
		errors.Is(err, match.ErrBidNumberTaken)
}
