package httpapi

import (
	"net/http"
	"strings"

	"github.com/vaultheim/crucible/internal/usecase"
)

func (h *Handler) SubmitStrike(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitStrike")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req strikeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	strike, err := h.matchService.SubmitStrike(ctx, usecase.SubmitStrikeInput{
		MatchID:    matchID,
		UserID:     principal.UserID,
		TargetSlot: req.TargetSlot,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit strike failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, strikeDTO{
		StruckBy: strike.StruckBy,
		TargetID: strike.TargetID,
		Slot:     strike.Slot,
		DeckID:   strike.DeckID,
	})
}

func (h *Handler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitBid")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req bidRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	bid, err := h.matchService.SubmitAdaptiveBid(ctx, usecase.SubmitBidInput{
		MatchID: matchID,
		UserID:  principal.UserID,
		Chains:  req.Chains,
		Concede: req.Concede,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit bid failed", "match_id", matchID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bidToDTO(ctx, bid))
}

func (h *Handler) ReportGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReportGame")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req reportGameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	game, err := h.matchService.ReportGame(ctx, usecase.ReportGameInput{
		MatchID:        matchID,
		ReporterID:     principal.UserID,
		Number:         req.Number,
		WinnerID:       req.WinnerID,
		CreatorKeys:    req.CreatorKeys,
		OpponentKeys:   req.OpponentKeys,
		TimeExpired:    req.TimeExpired,
		Concession:     req.Concession,
		CreatorDeckID:  req.CreatorDeckID,
		OpponentDeckID: req.OpponentDeckID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "report game failed", "match_id", matchID, "game_number", req.Number, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameToDTO(ctx, game))
}

type strikeRequest struct {
	TargetSlot int `json:"targetSlot" validate:"required,min=1,max=3"`
}

type bidRequest struct {
	Chains  int  `json:"chains" validate:"min=0,max=50"`
	Concede bool `json:"concede"`
}

type reportGameRequest struct {
	Number         int    `json:"number" validate:"required,min=1"`
	WinnerID       string `json:"winnerId" validate:"required"`
	CreatorKeys    int    `json:"creatorKeys" validate:"min=0,max=3"`
	OpponentKeys   int    `json:"opponentKeys" validate:"min=0,max=3"`
	TimeExpired    bool   `json:"timeExpired"`
	Concession     bool   `json:"concession"`
	CreatorDeckID  string `json:"creatorDeckId"`
	OpponentDeckID string `json:"opponentDeckId"`
}
