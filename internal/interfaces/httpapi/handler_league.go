package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/vaultheim/crucible/internal/domain/league"
	"github.com/vaultheim/crucible/internal/usecase"
)

func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateLeague")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req createLeagueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.leagueService.CreateLeague(ctx, usecase.CreateLeagueInput{
		CreatorID: principal.UserID,
		Name:      req.Name,
		TeamSize:  req.TeamSize,
		NumTeams:  req.NumTeams,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create league failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, leagueToDTO(ctx, created))
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(ctx, l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req createTeamRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	team, err := h.leagueService.CreateTeam(ctx, usecase.CreateTeamInput{
		LeagueID:  leagueID,
		CallerID:  principal.UserID,
		Name:      req.Name,
		CaptainID: req.CaptainID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(ctx, team))
}

func (h *Handler) SignupForLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SignupForLeague")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	signup, err := h.leagueService.Signup(ctx, usecase.SignupInput{
		LeagueID: leagueID,
		UserID:   principal.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "league signup failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, signupDTO{
		LeagueID: signup.LeagueID,
		UserID:   signup.UserID,
		Status:   string(signup.Status),
		Position: signup.Position,
	})
}

func (h *Handler) StartDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartDraft")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	state, err := h.leagueService.StartDraft(ctx, leagueID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "start draft failed", "league_id", leagueID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftStateToDTO(ctx, state))
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraft")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	state, err := h.leagueService.ComputeDraft(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get draft failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftStateToDTO(ctx, state))
}

func (h *Handler) MakePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MakePick")
	defer span.End()

	principal, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req makePickRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	pick, err := h.leagueService.MakePick(ctx, usecase.MakePickInput{
		LeagueID: leagueID,
		CallerID: principal.UserID,
		UserID:   req.UserID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "make pick failed", "league_id", leagueID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, pickDTO{
		Round:       pick.Round,
		PickInRound: pick.PickInRO,
		TeamID:      pick.TeamID,
		UserID:      pick.UserID,
		PickedBy:    pick.PickedByID,
	})
}

type createLeagueRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	TeamSize int    `json:"teamSize" validate:"required,min=2,max=20"`
	NumTeams int    `json:"numTeams" validate:"required,min=2,max=32"`
}

type createTeamRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	CaptainID string `json:"captainId" validate:"required"`
}

type makePickRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type leagueDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatorID    string `json:"creatorId"`
	TeamSize     int    `json:"teamSize"`
	NumTeams     int    `json:"numTeams"`
	Status       string `json:"status"`
	CreatedAtUTC string `json:"createdAtUtc"`
}

type leagueTeamDTO struct {
	ID       string `json:"id"`
	LeagueID string `json:"leagueId"`
	Name     string `json:"name"`
	OrderNum int    `json:"orderNum"`
}

type signupDTO struct {
	LeagueID string `json:"leagueId"`
	UserID   string `json:"userId"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type pickDTO struct {
	Round       int    `json:"round"`
	PickInRound int    `json:"pickInRound"`
	TeamID      string `json:"teamId"`
	UserID      string `json:"userId"`
	PickedBy    string `json:"pickedBy"`
}

type draftStateDTO struct {
	PicksPerTeam  int        `json:"picksPerTeam"`
	TotalPicks    int        `json:"totalPicks"`
	PicksMade     int        `json:"picksMade"`
	Complete      bool       `json:"complete"`
	CurrentRound  int        `json:"currentRound,omitempty"`
	PickInRound   int        `json:"pickInRound,omitempty"`
	CurrentTeamID string     `json:"currentTeamId,omitempty"`
	Available     []string   `json:"available"`
	Board         [][]string `json:"board"`
}

func leagueToDTO(ctx context.Context, l league.League) leagueDTO {
	ctx, span := startSpan(ctx, "httpapi.leagueToDTO")
	defer span.End()

	return leagueDTO{
		ID:           l.ID,
		Name:         l.Name,
		CreatorID:    l.CreatorID,
		TeamSize:     l.TeamSize,
		NumTeams:     l.NumTeams,
		Status:       string(l.Status),
		CreatedAtUTC: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func teamToDTO(ctx context.Context, t league.Team) leagueTeamDTO {
	ctx, span := startSpan(ctx, "httpapi.teamToDTO")
	defer span.End()

	return leagueTeamDTO{
		ID:       t.ID,
		LeagueID: t.LeagueID,
		Name:     t.Name,
		OrderNum: t.OrderNum,
	}
}

func draftStateToDTO(ctx context.Context, state league.DraftState) draftStateDTO {
	ctx, span := startSpan(ctx, "httpapi.draftStateToDTO")
	defer span.End()

	available := state.Available
	if available == nil {
		available = []string{}
	}

	return draftStateDTO{
		PicksPerTeam:  state.PicksPerTeam,
		TotalPicks:    state.TotalPicks,
		PicksMade:     state.PicksMade,
		Complete:      state.Complete,
		CurrentRound:  state.CurrentRound,
		PickInRound:   state.PickInRound,
		CurrentTeamID: state.CurrentTeamID,
		Available:     available,
		Board:         state.Board,
	}
}
