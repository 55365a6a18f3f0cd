package usecase

import (
	"context"
	"fmt"

	"github.com/vaultheim/crucible/internal/domain/match"
)

type SubmitStrikeInput struct {
	MatchID    string
	UserID     string
	TargetSlot int
}

type SubmitBidInput struct {
	MatchID string
	UserID  string
	Chains  int
	Concede bool
}

type ReportGameInput struct {
	MatchID        string
	ReporterID     string
	Number         int
	WinnerID       string
	CreatorKeys    int
	OpponentKeys   int
	TimeExpired    bool
	Concession     bool
	CreatorDeckID  string
	OpponentDeckID string
}

// SubmitStrike removes one of the opponent's Triad selections from
// eligibility. Exactly one strike per participant, only once both sides
// have started.
func (s *MatchService) SubmitStrike(ctx context.Context, input SubmitStrikeInput) (match.Strike, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitStrike")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return match.Strike{}, err
	}
	if m.Format != match.FormatTriad {
		return match.Strike{}, fmt.Errorf("%w: strikes only exist in the triad format", ErrInvalidInput)
	}
	if m.Status != match.StatusPublished {
		return match.Strike{}, fmt.Errorf("%w: strikes are only legal once the match is published", ErrInvalidInput)
	}

	mu, ok, err := s.matches.GetMatchup(ctx, m.ID)
	if err != nil {
		return match.Strike{}, fmt.Errorf("get matchup: %w", err)
	}
	if !ok || !mu.BothStarted() {
		return match.Strike{}, fmt.Errorf("%w: both participants must start before striking", ErrInvalidInput)
	}

	strikes, err := s.matches.ListStrikes(ctx, m.ID)
	if err != nil {
		return match.Strike{}, fmt.Errorf("list strikes: %w", err)
	}
	for _, st := range strikes {
		if st.StruckBy == input.UserID {
			return match.Strike{}, fmt.Errorf("%w: %v", ErrInvalidInput, match.ErrStrikeUsed)
		}
	}

	targetID, _ := m.OpponentOf(input.UserID)
	selections, err := s.matches.ListSelections(ctx, m.ID)
	if err != nil {
		return match.Strike{}, fmt.Errorf("list selections: %w", err)
	}
	var target *match.DeckSelection
	for i, sel := range selections {
		if sel.UserID == targetID && sel.Slot == input.TargetSlot {
			target = &selections[i]
			break
		}
	}
	if target == nil {
		return match.Strike{}, fmt.Errorf("%w: opponent has no selection in slot %d", ErrInvalidInput, input.TargetSlot)
	}

	strike := match.Strike{
		MatchID:  m.ID,
		StruckBy: input.UserID,
		TargetID: targetID,
		Slot:     target.Slot,
		DeckID:   target.DeckID,
	}
	if err := s.matches.AddStrike(ctx, strike); err != nil {
		if isRaceViolation(err) {
			return match.Strike{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return match.Strike{}, fmt.Errorf("add strike: %w", err)
	}

	s.logger.InfoContext(ctx, "strike submitted",
		"match_id", m.ID,
		"struck_by", input.UserID,
		"deck_id", target.DeckID,
	)

	return strike, nil
}

// SubmitAdaptiveBid advances the Adaptive chain bid-off. Bids are only
// legal after games one and two have split 1-1; participants alternate,
// each raise must beat the current high bid, and a concession closes the
// bid-off with the conceder taking the contested deck at the final chains.
func (s *MatchService) SubmitAdaptiveBid(ctx context.Context, input SubmitBidInput) (match.ChainBid, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitAdaptiveBid")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.UserID)
	if err != nil {
		return match.ChainBid{}, err
	}
	if m.Format != match.FormatAdaptive {
		return match.ChainBid{}, fmt.Errorf("%w: bids only exist in the adaptive format", ErrInvalidInput)
	}
	if m.Status != match.StatusPublished {
		return match.ChainBid{}, fmt.Errorf("%w: bids are only legal once the match is published", ErrInvalidInput)
	}

	mu, ok, err := s.matches.GetMatchup(ctx, m.ID)
	if err != nil {
		return match.ChainBid{}, fmt.Errorf("get matchup: %w", err)
	}
	if !ok || !mu.BothStarted() {
		return match.ChainBid{}, fmt.Errorf("%w: both participants must start before bidding", ErrInvalidInput)
	}

	games, err := s.matches.ListGames(ctx, m.ID)
	if err != nil {
		return match.ChainBid{}, fmt.Errorf("list games: %w", err)
	}
	if len(games) != 2 {
		return match.ChainBid{}, fmt.Errorf("%w: bidding opens after exactly two games, %d recorded", ErrInvalidInput, len(games))
	}
	wins := match.WinCounts(games)
	if wins[m.CreatorID] != 1 || wins[m.OpponentID] != 1 {
		return match.ChainBid{}, fmt.Errorf("%w: bidding requires a 1-1 split", ErrInvalidInput)
	}

	bids, err := s.matches.ListBids(ctx, m.ID)
	if err != nil {
		return match.ChainBid{}, fmt.Errorf("list bids: %w", err)
	}

	high := -1
	var lastBidder string
	for _, b := range bids {
		if b.Concede {
			return match.ChainBid{}, fmt.Errorf("%w: bidding is already closed", ErrInvalidInput)
		}
		lastBidder = b.UserID
		if b.Chains > high {
			high = b.Chains
		}
	}

	if input.UserID == lastBidder {
		return match.ChainBid{}, fmt.Errorf("%w: it is your opponent's turn to bid", ErrInvalidInput)
	}

	bid := match.ChainBid{
		MatchID: m.ID,
		Number:  len(bids) + 1,
		UserID:  input.UserID,
		Concede: input.Concede,
	}
	switch {
	case input.Concede:
		if len(bids) == 0 {
			return match.ChainBid{}, fmt.Errorf("%w: nothing to concede to yet", ErrInvalidInput)
		}
		bid.Chains = high
	default:
		if input.Chains < 0 {
			return match.ChainBid{}, fmt.Errorf("%w: chains cannot be negative", ErrInvalidInput)
		}
		if input.Chains <= high {
			return match.ChainBid{}, fmt.Errorf("%w: bid must beat the current high of %d", ErrInvalidInput, high)
		}
		bid.Chains = input.Chains
	}

	if err := s.matches.AppendBid(ctx, bid); err != nil {
		if isRaceViolation(err) {
			return match.ChainBid{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return match.ChainBid{}, fmt.Errorf("append bid: %w", err)
	}

	s.logger.InfoContext(ctx, "adaptive bid submitted",
		"match_id", m.ID,
		"user_id", input.UserID,
		"chains", bid.Chains,
		"concede", bid.Concede,
	)

	return bid, nil
}

// ReportGame appends one game to the ledger and completes the match when a
// side reaches the win threshold. This is the only transition into the
// terminal state.
func (s *MatchService) ReportGame(ctx context.Context, input ReportGameInput) (match.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ReportGame")
	defer span.End()

	m, err := s.participantMatch(ctx, input.MatchID, input.ReporterID)
	if err != nil {
		return match.Game{}, err
	}
	if m.Status != match.StatusPublished {
		return match.Game{}, fmt.Errorf("%w: games can only be reported on a published match", ErrInvalidInput)
	}

	mu, ok, err := s.matches.GetMatchup(ctx, m.ID)
	if err != nil {
		return match.Game{}, fmt.Errorf("get matchup: %w", err)
	}
	if !ok || !mu.BothStarted() {
		return match.Game{}, fmt.Errorf("%w: both participants must start before reporting", ErrInvalidInput)
	}

	games, err := s.matches.ListGames(ctx, m.ID)
	if err != nil {
		return match.Game{}, fmt.Errorf("list games: %w", err)
	}
	strikes, err := s.matches.ListStrikes(ctx, m.ID)
	if err != nil {
		return match.Game{}, fmt.Errorf("list strikes: %w", err)
	}

	candidate := match.Game{
		MatchID:        m.ID,
		Number:         input.Number,
		WinnerID:       input.WinnerID,
		CreatorKeys:    input.CreatorKeys,
		OpponentKeys:   input.OpponentKeys,
		TimeExpired:    input.TimeExpired,
		Concession:     input.Concession,
		CreatorDeckID:  input.CreatorDeckID,
		OpponentDeckID: input.OpponentDeckID,
		ReportedBy:     input.ReporterID,
		ReportedAt:     s.now().UTC(),
	}

	if err := match.ValidateGame(m, games, strikes, candidate); err != nil {
		return match.Game{}, fmt.Errorf("validate game: %w", err)
	}
	if m.Format == match.FormatTriad {
		if err := s.checkTriadDecksSelected(ctx, m, candidate); err != nil {
			return match.Game{}, err
		}
	}

	complete := match.Decided(m.BestOf, append(append([]match.Game(nil), games...), candidate))
	if err := s.matches.AppendGame(ctx, candidate, complete); err != nil {
		if isRaceViolation(err) {
			return match.Game{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return match.Game{}, fmt.Errorf("append game: %w", err)
	}

	s.logger.InfoContext(ctx, "game reported",
		"match_id", m.ID,
		"game_number", candidate.Number,
		"winner_id", candidate.WinnerID,
		"completed", complete,
	)

	return candidate, nil
}

// checkTriadDecksSelected verifies the reported decks belong to the
// respective side's pre-selected three.
func (s *MatchService) checkTriadDecksSelected(ctx context.Context, m match.Match, g match.Game) error {
	selections, err := s.matches.ListSelections(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("list selections: %w", err)
	}

	creatorOK, opponentOK := false, false
	for _, sel := range selections {
		if sel.UserID == m.CreatorID && sel.DeckID == g.CreatorDeckID {
			creatorOK = true
		}
		if sel.UserID == m.OpponentID && sel.DeckID == g.OpponentDeckID {
			opponentOK = true
		}
	}
	if !creatorOK {
		return fmt.Errorf("%w: deck %s is not among the creator's selections", ErrInvalidInput, g.CreatorDeckID)
	}
	if !opponentOK {
		return fmt.Errorf("%w: deck %s is not among the opponent's selections", ErrInvalidInput, g.OpponentDeckID)
	}

	return nil
}
