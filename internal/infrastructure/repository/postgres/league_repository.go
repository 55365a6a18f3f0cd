package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vaultheim/crucible/internal/domain/league"
	qb "github.com/vaultheim/crucible/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) CreateLeague(ctx context.Context, l league.League) error {
	query, args, err := qb.InsertInto("leagues").
		Columns("id", "name", "creator_id", "team_size", "num_teams", "status", "created_at").
		Values(l.ID, l.Name, l.CreatorID, l.TeamSize, l.NumTeams, string(l.Status), l.CreatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build create league query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create league: %w", err)
	}

	return nil
}

func (r *LeagueRepository) GetLeague(ctx context.Context, id string) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league query: %w", err)
	}

	var row leagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}

	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) ListLeagues(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) CreateTeam(ctx context.Context, t league.Team) error {
	query, args, err := qb.InsertInto("teams").
		Columns("id", "league_id", "name", "order_num").
		Values(t.ID, t.LeagueID, t.Name, t.OrderNum).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build create team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *LeagueRepository) ListTeams(ctx context.Context, leagueID string) ([]league.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("order_num ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]league.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.Team{ID: row.ID, LeagueID: row.LeagueID, Name: row.Name, OrderNum: row.OrderNum})
	}
	return out, nil
}

func (r *LeagueRepository) AddMember(ctx context.Context, m league.TeamMember) error {
	query, args, err := qb.InsertInto("team_members").
		Columns("team_id", "user_id", "captain").
		Values(m.TeamID, m.UserID, m.Captain).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add member query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.TeamMember, error) {
	query, args, err := qb.Select("tm.team_id", "tm.user_id", "tm.captain").
		From("team_members tm JOIN teams t ON t.id = tm.team_id").
		Where(qb.Eq("t.league_id", leagueID)).
		OrderBy("t.order_num ASC", "tm.user_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members query: %w", err)
	}

	var rows []teamMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	out := make([]league.TeamMember, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.TeamMember{TeamID: row.TeamID, UserID: row.UserID, Captain: row.Captain})
	}
	return out, nil
}

func (r *LeagueRepository) AddSignup(ctx context.Context, s league.Signup) error {
	query, args, err := qb.InsertInto("signups").
		Columns("league_id", "user_id", "status", "position").
		Values(s.LeagueID, s.UserID, string(s.Status), s.Position).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add signup query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add signup: %w", err)
	}

	return nil
}

func (r *LeagueRepository) ListSignups(ctx context.Context, leagueID string) ([]league.Signup, error) {
	query, args, err := qb.Select("*").From("signups").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("position ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list signups query: %w", err)
	}

	var rows []signupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}

	out := make([]league.Signup, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.Signup{
			LeagueID: row.LeagueID,
			UserID:   row.UserID,
			Status:   league.SignupStatus(row.Status),
			Position: row.Position,
		})
	}
	return out, nil
}

func (r *LeagueRepository) StartDraft(ctx context.Context, leagueID string, drafted, waitlisted []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx start draft: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("leagues").
		Set("status", string(league.StatusDrafting)).
		Where(
			qb.Eq("id", leagueID),
			qb.Eq("status", string(league.StatusSetup)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build start draft query: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("start draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected start draft: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("start draft: league %s is not in setup", leagueID)
	}

	if err := updateSignupStatusTx(ctx, tx, leagueID, drafted, league.SignupDrafted); err != nil {
		return err
	}
	if err := updateSignupStatusTx(ctx, tx, leagueID, waitlisted, league.SignupWaitlisted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start draft tx: %w", err)
	}

	return nil
}

func updateSignupStatusTx(ctx context.Context, tx *sqlx.Tx, leagueID string, userIDs []string, status league.SignupStatus) error {
	if len(userIDs) == 0 {
		return nil
	}

	ids := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id)
	}
	query, args, err := qb.Update("signups").
		Set("status", string(status)).
		Where(
			qb.Eq("league_id", leagueID),
			qb.In("user_id", ids),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update signup status query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update signup status: %w", err)
	}

	return nil
}

func (r *LeagueRepository) AppendPick(ctx context.Context, p league.DraftPick, m league.TeamMember, complete bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append pick: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertInto("draft_picks").
		Columns("league_id", "round", "pick_in_round", "team_id", "user_id", "picked_by").
		Values(p.LeagueID, p.Round, p.PickInRO, p.TeamID, p.UserID, p.PickedByID).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build append pick query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return league.ErrPickTaken
		}
		return fmt.Errorf("append pick: %w", err)
	}

	memberQuery, memberArgs, err := qb.InsertInto("team_members").
		Columns("team_id", "user_id", "captain").
		Values(m.TeamID, m.UserID, m.Captain).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add drafted member query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, memberQuery, memberArgs...); err != nil {
		return fmt.Errorf("add drafted member: %w", err)
	}

	if complete {
		completeQuery, completeArgs, err := qb.Update("leagues").
			Set("status", string(league.StatusActive)).
			Where(qb.Eq("id", p.LeagueID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build activate league query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, completeQuery, completeArgs...); err != nil {
			return fmt.Errorf("activate league: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append pick tx: %w", err)
	}

	return nil
}

func (r *LeagueRepository) ListPicks(ctx context.Context, leagueID string) ([]league.DraftPick, error) {
	query, args, err := qb.Select("*").From("draft_picks").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("round ASC", "pick_in_round ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []draftPickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	out := make([]league.DraftPick, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.DraftPick{
			LeagueID:   row.LeagueID,
			Round:      row.Round,
			PickInRO:   row.PickInRO,
			TeamID:     row.TeamID,
			UserID:     row.UserID,
			PickedByID: row.PickedByID,
		})
	}
	return out, nil
}
