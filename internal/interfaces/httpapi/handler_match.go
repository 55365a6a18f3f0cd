package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
	"github.com/vaultheim/crucible/internal/usecase"
)

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req createMatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	allowedSets := make([]deck.Set, 0, len(req.AllowedSets))
	for _, s := range req.AllowedSets {
		allowedSets = append(allowedSets, deck.Set(s))
	}

	created, err := h.matchService.CreateMatch(ctx, usecase.CreateMatchInput{
		CreatorID:         principal.UserID,
		Format:            match.Format(req.Format),
		BestOf:            req.BestOf,
		Visible:           req.Visible,
		MaxDeckRating:     req.MaxDeckRating,
		MaxCombinedRating: req.MaxCombinedRating,
		SetDiversity:      req.SetDiversity,
		HouseDiversity:    req.HouseDiversity,
		AllowedSets:       allowedSets,
		DecksPerPlayer:    req.DecksPerPlayer,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(ctx, created, true))
}

func (h *Handler) ListOpenMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListOpenMatches")
	defer span.End()

	open, err := h.matchService.ListOpenMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list open matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(open))
	for _, m := range open {
		items = append(items, matchToDTO(ctx, m, false))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	detail, err := h.matchService.GetMatchDetail(ctx, matchID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchDetailToDTO(ctx, detail))
}

func (h *Handler) JoinMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinMatch")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req joinMatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	joined, err := h.matchService.JoinMatch(ctx, usecase.JoinMatchInput{
		MatchID:   matchID,
		UserID:    principal.UserID,
		JoinToken: req.JoinToken,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join match failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, joined, false))
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartMatch")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	matchup, err := h.matchService.Start(ctx, usecase.StartMatchInput{
		MatchID: matchID,
		UserID:  principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchupToDTO(ctx, matchup))
}

func (h *Handler) SubmitDeckSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitDeckSelection")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}
	slot, err := slotFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectDeckRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	selection, err := h.matchService.SubmitDeckSelection(ctx, usecase.SubmitSelectionInput{
		MatchID: matchID,
		UserID:  principal.UserID,
		Slot:    slot,
		DeckRef: req.DeckRef,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit selection failed", "match_id", matchID, "slot", slot, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, selectionToDTO(ctx, selection))
}

func (h *Handler) RemoveDeckSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveDeckSelection")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}
	slot, err := slotFromPath(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if err := h.matchService.RemoveDeckSelection(ctx, usecase.RemoveSelectionInput{
		MatchID: matchID,
		UserID:  principal.UserID,
		Slot:    slot,
	}); err != nil {
		h.logger.WarnContext(ctx, "remove selection failed", "match_id", matchID, "slot", slot, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func (h *Handler) SubmitAlliance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitAlliance")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req allianceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	pods := make([]match.AlliancePod, 0, len(req.Pods))
	for _, p := range req.Pods {
		pods = append(pods, match.AlliancePod{DeckID: p.DeckID, House: deck.House(p.House)})
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	alliance, err := h.matchService.SubmitAlliance(ctx, usecase.SubmitAllianceInput{
		MatchID:        matchID,
		UserID:         principal.UserID,
		Pods:           pods,
		TokenDeckID:    req.TokenDeckID,
		ProphecyDeckID: req.ProphecyDeckID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit alliance failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, allianceToDTO(ctx, alliance))
}

func (h *Handler) ClearAlliance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearAlliance")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if err := h.matchService.ClearAlliance(ctx, matchID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "clear alliance failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nil)
}

func slotFromPath(ctx context.Context, r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("slot"))
	slot, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: slot must be an integer, got %q", usecase.ErrInvalidInput, raw)
	}

	return slot, nil
}

type createMatchRequest struct {
	Format            string   `json:"format" validate:"required"`
	BestOf            int      `json:"bestOf" validate:"omitempty,min=1,max=13"`
	Visible           bool     `json:"visible"`
	MaxDeckRating     int      `json:"maxDeckRating" validate:"min=0"`
	MaxCombinedRating int      `json:"maxCombinedRating" validate:"min=0"`
	SetDiversity      bool     `json:"setDiversity"`
	HouseDiversity    bool     `json:"houseDiversity"`
	AllowedSets       []string `json:"allowedSets" validate:"dive,required"`
	DecksPerPlayer    int      `json:"decksPerPlayer" validate:"omitempty,min=1,max=20"`
}

type joinMatchRequest struct {
	JoinToken string `json:"joinToken" validate:"required"`
}

type selectDeckRequest struct {
	DeckRef string `json:"deckRef" validate:"required,max=300"`
}

type allianceRequest struct {
	Pods           []podRequest `json:"pods" validate:"required,len=3,dive"`
	TokenDeckID    string       `json:"tokenDeckId"`
	ProphecyDeckID string       `json:"prophecyDeckId"`
}

type podRequest struct {
	DeckID string `json:"deckId" validate:"required"`
	House  string `json:"house" validate:"required"`
}

type matchDTO struct {
	ID             string   `json:"id"`
	Format         string   `json:"format"`
	CreatorID      string   `json:"creatorId"`
	OpponentID     string   `json:"opponentId,omitempty"`
	Status         string   `json:"status"`
	BestOf         int      `json:"bestOf"`
	Visible        bool     `json:"visible"`
	Rules          rulesDTO `json:"rules"`
	JoinToken      string   `json:"joinToken,omitempty"`
	PoolsGenerated bool     `json:"poolsGenerated"`
	CreatedAtUTC   string   `json:"createdAtUtc"`
}

type rulesDTO struct {
	MaxDeckRating     int      `json:"maxDeckRating"`
	MaxCombinedRating int      `json:"maxCombinedRating"`
	SetDiversity      bool     `json:"setDiversity"`
	HouseDiversity    bool     `json:"houseDiversity"`
	AllowedSets       []string `json:"allowedSets,omitempty"`
	DecksPerPlayer    int      `json:"decksPerPlayer,omitempty"`
}

type matchDetailDTO struct {
	Match      matchDTO       `json:"match"`
	Selections []selectionDTO `json:"selections"`
	Pool       []poolEntryDTO `json:"pool,omitempty"`
	Matchup    *matchupDTO    `json:"matchup,omitempty"`
	Strikes    []strikeDTO    `json:"strikes"`
	Games      []gameDTO      `json:"games"`
	Bids       []bidDTO       `json:"bids,omitempty"`
}

type selectionDTO struct {
	UserID   string   `json:"userId"`
	Slot     int      `json:"slot"`
	DeckID   string   `json:"deckId"`
	DeckName string   `json:"deckName"`
	Set      string   `json:"set"`
	Rating   int      `json:"rating"`
	Houses   []string `json:"houses"`
}

type poolEntryDTO struct {
	DeckID string `json:"deckId"`
}

type allianceDTO struct {
	MatchID        string   `json:"matchId"`
	UserID         string   `json:"userId"`
	Pods           []podDTO `json:"pods"`
	TokenDeckID    string   `json:"tokenDeckId,omitempty"`
	ProphecyDeckID string   `json:"prophecyDeckId,omitempty"`
}

type podDTO struct {
	DeckID string `json:"deckId"`
	House  string `json:"house"`
}

type matchupDTO struct {
	MatchID         string `json:"matchId"`
	CreatorStarted  bool   `json:"creatorStarted"`
	OpponentStarted bool   `json:"opponentStarted"`
	BothStarted     bool   `json:"bothStarted"`
}

type strikeDTO struct {
	StruckBy string `json:"struckBy"`
	TargetID string `json:"targetId"`
	Slot     int    `json:"slot"`
	DeckID   string `json:"deckId"`
}

type gameDTO struct {
	Number         int    `json:"number"`
	WinnerID       string `json:"winnerId"`
	CreatorKeys    int    `json:"creatorKeys"`
	OpponentKeys   int    `json:"opponentKeys"`
	TimeExpired    bool   `json:"timeExpired"`
	Concession     bool   `json:"concession"`
	CreatorDeckID  string `json:"creatorDeckId,omitempty"`
	OpponentDeckID string `json:"opponentDeckId,omitempty"`
	ReportedBy     string `json:"reportedBy"`
	ReportedAtUTC  string `json:"reportedAtUtc"`
}

type bidDTO struct {
	Number  int    `json:"number"`
	UserID  string `json:"userId"`
	Chains  int    `json:"chains"`
	Concede bool   `json:"concede"`
}

func matchToDTO(ctx context.Context, m match.Match, includeToken bool) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	sets := make([]string, 0, len(m.Rules.AllowedSets))
	for _, s := range m.Rules.AllowedSets {
		sets = append(sets, string(s))
	}

	dto := matchDTO{
		ID:         m.ID,
		Format:     string(m.Format),
		CreatorID:  m.CreatorID,
		OpponentID: m.OpponentID,
		Status:     string(m.Status),
		BestOf:     m.BestOf,
		Visible:    m.Visible,
		Rules: rulesDTO{
			MaxDeckRating:     m.Rules.MaxDeckRating,
			MaxCombinedRating: m.Rules.MaxCombinedRating,
			SetDiversity:      m.Rules.RequireSetDiversity,
			HouseDiversity:    m.Rules.RequireHouseDiv,
			AllowedSets:       sets,
			DecksPerPlayer:    m.Rules.DecksPerPlayer,
		},
		PoolsGenerated: m.PoolsGenerated,
		CreatedAtUTC:   m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includeToken {
		dto.JoinToken = m.JoinToken
	}

	return dto
}

func matchDetailToDTO(ctx context.Context, detail usecase.MatchDetail) matchDetailDTO {
	ctx, span := startSpan(ctx, "httpapi.matchDetailToDTO")
	defer span.End()

	// GetMatchDetail already blanked the token for non-creators; echo
	// whatever survived.
	dto := matchDetailDTO{
		Match:      matchToDTO(ctx, detail.Match, detail.Match.JoinToken != ""),
		Selections: make([]selectionDTO, 0, len(detail.Selections)),
		Strikes:    make([]strikeDTO, 0, len(detail.Strikes)),
		Games:      make([]gameDTO, 0, len(detail.Games)),
	}
	for _, sel := range detail.Selections {
		dto.Selections = append(dto.Selections, selectionToDTO(ctx, sel))
	}
	for _, entry := range detail.Pool {
		dto.Pool = append(dto.Pool, poolEntryDTO{DeckID: entry.DeckID})
	}
	if detail.Matchup != nil {
		mu := matchupToDTO(ctx, *detail.Matchup)
		dto.Matchup = &mu
	}
	for _, st := range detail.Strikes {
		dto.Strikes = append(dto.Strikes, strikeDTO{
			StruckBy: st.StruckBy,
			TargetID: st.TargetID,
			Slot:     st.Slot,
			DeckID:   st.DeckID,
		})
	}
	for _, g := range detail.Games {
		dto.Games = append(dto.Games, gameToDTO(ctx, g))
	}
	for _, b := range detail.Bids {
		dto.Bids = append(dto.Bids, bidToDTO(ctx, b))
	}

	return dto
}

func selectionToDTO(ctx context.Context, sel match.DeckSelection) selectionDTO {
	ctx, span := startSpan(ctx, "httpapi.selectionToDTO")
	defer span.End()

	houses := make([]string, 0, len(sel.Houses))
	for _, house := range sel.Houses {
		houses = append(houses, string(house))
	}

	return selectionDTO{
		UserID:   sel.UserID,
		Slot:     sel.Slot,
		DeckID:   sel.DeckID,
		DeckName: sel.DeckName,
		Set:      string(sel.Set),
		Rating:   sel.Rating,
		Houses:   houses,
	}
}

func allianceToDTO(ctx context.Context, sel match.AllianceSelection) allianceDTO {
	ctx, span := startSpan(ctx, "httpapi.allianceToDTO")
	defer span.End()

	pods := make([]podDTO, 0, len(sel.Pods))
	for _, p := range sel.Pods {
		pods = append(pods, podDTO{DeckID: p.DeckID, House: string(p.House)})
	}

	return allianceDTO{
		MatchID:        sel.MatchID,
		UserID:         sel.UserID,
		Pods:           pods,
		TokenDeckID:    sel.TokenDeckID,
		ProphecyDeckID: sel.ProphecyDeckID,
	}
}

func matchupToDTO(ctx context.Context, mu match.Matchup) matchupDTO {
	ctx, span := startSpan(ctx, "httpapi.matchupToDTO")
	defer span.End()

	return matchupDTO{
		MatchID:         mu.MatchID,
		CreatorStarted:  mu.CreatorStarted,
		OpponentStarted: mu.OpponentStarted,
		BothStarted:     mu.BothStarted(),
	}
}

func gameToDTO(ctx context.Context, g match.Game) gameDTO {
	ctx, span := startSpan(ctx, "httpapi.gameToDTO")
	defer span.End()

	return gameDTO{
		Number:         g.Number,
		WinnerID:       g.WinnerID,
		CreatorKeys:    g.CreatorKeys,
		OpponentKeys:   g.OpponentKeys,
		TimeExpired:    g.TimeExpired,
		Concession:     g.Concession,
		CreatorDeckID:  g.CreatorDeckID,
		OpponentDeckID: g.OpponentDeckID,
		ReportedBy:     g.ReportedBy,
		ReportedAtUTC:  g.ReportedAt.UTC().Format(time.RFC3339),
	}
}

func bidToDTO(ctx context.Context, b match.ChainBid) bidDTO {
	ctx, span := startSpan(ctx, "httpapi.bidToDTO")
	defer span.End()

	return bidDTO{
		Number:  b.Number,
		UserID:  b.UserID,
		Chains:  b.Chains,
		Concede: b.Concede,
	}
}
