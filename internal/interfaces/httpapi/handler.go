package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/vaultheim/crucible/internal/domain/user"
	"github.com/vaultheim/crucible/internal/usecase"
)

type Handler struct {
	matchService   *usecase.MatchService
	leagueService  *usecase.LeagueService
	sweeperService *usecase.SweeperService
	logger         *slog.Logger
	validator      *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	leagueService *usecase.LeagueService,
	sweeperService *usecase.SweeperService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:   matchService,
		leagueService:  leagueService,
		sweeperService: sweeperService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunSweepJob triggers one stale-match sweep. Guarded by the internal job
// token; the scheduler that normally drives the sweep lives in cmd/api.
func (h *Handler) RunSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepJob")
	defer span.End()

	result, err := h.sweeperService.SweepOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func requirePrincipal(ctx context.Context, w http.ResponseWriter) (user.Principal, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return user.Principal{}, false
	}

	return principal, true
}
