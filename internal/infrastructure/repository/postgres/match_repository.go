package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
	qb "github.com/vaultheim/crucible/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) CreateMatch(ctx context.Context, m match.Match) error {
	insertModel := matchInsertModel{
		ID:                    m.ID,
		Format:                string(m.Format),
		CreatorID:             m.CreatorID,
		Status:                string(m.Status),
		BestOf:                m.BestOf,
		Visible:               m.Visible,
		MaxDeckRating:         m.Rules.MaxDeckRating,
		MaxCombinedRating:     m.Rules.MaxCombinedRating,
		RequireSetDiversity:   m.Rules.RequireSetDiversity,
		RequireHouseDiversity: m.Rules.RequireHouseDiv,
		AllowedSets:           setsToStrings(m.Rules.AllowedSets),
		DecksPerPlayer:        m.Rules.DecksPerPlayer,
		JoinToken:             m.JoinToken,
		PoolsGenerated:        m.PoolsGenerated,
		CreatedAt:             m.CreatedAt,
	}
	query, args, err := qb.InsertModel("matches", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	return nil
}

func (r *MatchRepository) GetMatch(ctx context.Context, id string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListOpen(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("visible", true),
			qb.Eq("status", string(match.StatusSetup)),
			qb.Expr("opponent_id IS NULL"),
		).
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list open matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list open matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListUnfinishedBefore(ctx context.Context, cutoff time.Time) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Lt("created_at", cutoff),
			qb.Expr("status <> ?", string(match.StatusCompleted)),
		).
		OrderBy("created_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unfinished matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unfinished matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

// DeleteMatch relies on ON DELETE CASCADE for the owned child tables.
func (r *MatchRepository) DeleteMatch(ctx context.Context, id string) error {
	query, args, err := qb.DeleteFrom("matches").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}

	return nil
}

func (r *MatchRepository) JoinMatch(ctx context.Context, matchID, opponentID string, pool []match.PoolEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx join match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("matches").
		Set("opponent_id", opponentID).
		Set("status", string(match.StatusDeckSelection)).
		Set("pools_generated", len(pool) > 0).
		Where(
			qb.Eq("id", matchID),
			qb.Eq("status", string(match.StatusSetup)),
			qb.Expr("opponent_id IS NULL"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build join match query: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("join match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected join match: %w", err)
	}
	if affected == 0 {
		return match.ErrOpponentTaken
	}

	if len(pool) > 0 {
		builder := qb.InsertInto("sealed_pool_entries").Columns("match_id", "user_id", "deck_id")
		for _, entry := range pool {
			builder = builder.Values(entry.MatchID, entry.UserID, entry.DeckID)
		}
		poolQuery, poolArgs, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert pool entries query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, poolQuery, poolArgs...); err != nil {
			return fmt.Errorf("insert pool entries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit join match tx: %w", err)
	}

	return nil
}

func (r *MatchRepository) UpsertSelection(ctx context.Context, sel match.DeckSelection) error {
	query, args, err := qb.InsertInto("deck_selections").
		Columns("match_id", "user_id", "slot", "deck_id", "deck_name", "expansion", "rating", "houses").
		Values(sel.MatchID, sel.UserID, sel.Slot, sel.DeckID, sel.DeckName, string(sel.Set), sel.Rating, housesToStrings(sel.Houses)).
		Suffix(`ON CONFLICT (match_id, user_id, slot)
DO UPDATE SET
    deck_id = EXCLUDED.deck_id,
    deck_name = EXCLUDED.deck_name,
    expansion = EXCLUDED.expansion,
    rating = EXCLUDED.rating,
    houses = EXCLUDED.houses`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert selection query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert selection: %w", err)
	}

	return nil
}

func (r *MatchRepository) DeleteSelection(ctx context.Context, matchID, userID string, slot int) error {
	query, args, err := qb.DeleteFrom("deck_selections").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("user_id", userID),
			qb.Eq("slot", slot),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete selection query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}

	return nil
}

func (r *MatchRepository) ListSelections(ctx context.Context, matchID string) ([]match.DeckSelection, error) {
	query, args, err := qb.Select("*").From("deck_selections").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("user_id ASC", "slot ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list selections query: %w", err)
	}

	var rows []selectionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}

	out := make([]match.DeckSelection, 0, len(rows))
	for _, row := range rows {
		out = append(out, selectionFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListPool(ctx context.Context, matchID, userID string) ([]match.PoolEntry, error) {
	query, args, err := qb.Select("*").From("sealed_pool_entries").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("user_id", userID),
		).
		OrderBy("deck_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pool query: %w", err)
	}

	var rows []poolEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pool: %w", err)
	}

	out := make([]match.PoolEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.PoolEntry{MatchID: row.MatchID, UserID: row.UserID, DeckID: row.DeckID})
	}
	return out, nil
}

func (r *MatchRepository) ReplaceAlliance(ctx context.Context, sel match.AllianceSelection) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace alliance: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteAllianceTx(ctx, tx, sel.MatchID, sel.UserID); err != nil {
		return err
	}

	query, args, err := qb.InsertInto("alliance_selections").
		Columns("match_id", "user_id", "token_deck_id", "prophecy_deck_id").
		Values(sel.MatchID, sel.UserID, nullString(sel.TokenDeckID), nullString(sel.ProphecyDeckID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert alliance query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert alliance: %w", err)
	}

	if len(sel.Pods) > 0 {
		builder := qb.InsertInto("alliance_pods").Columns("match_id", "user_id", "position", "deck_id", "house")
		for i, pod := range sel.Pods {
			builder = builder.Values(sel.MatchID, sel.UserID, i+1, pod.DeckID, string(pod.House))
		}
		podQuery, podArgs, err := builder.ToSQL()
		if err != nil {
			return fmt.Errorf("build insert alliance pods query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, podQuery, podArgs...); err != nil {
			return fmt.Errorf("insert alliance pods: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace alliance tx: %w", err)
	}

	return nil
}

func (r *MatchRepository) ClearAlliance(ctx context.Context, matchID, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx clear alliance: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteAllianceTx(ctx, tx, matchID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear alliance tx: %w", err)
	}

	return nil
}

func deleteAllianceTx(ctx context.Context, tx *sqlx.Tx, matchID, userID string) error {
	podQuery, podArgs, err := qb.DeleteFrom("alliance_pods").
		Where(qb.Eq("match_id", matchID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete alliance pods query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, podQuery, podArgs...); err != nil {
		return fmt.Errorf("delete alliance pods: %w", err)
	}

	query, args, err := qb.DeleteFrom("alliance_selections").
		Where(qb.Eq("match_id", matchID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete alliance query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete alliance: %w", err)
	}

	return nil
}

func (r *MatchRepository) GetAlliance(ctx context.Context, matchID, userID string) (match.AllianceSelection, bool, error) {
	query, args, err := qb.Select("*").From("alliance_selections").
		Where(qb.Eq("match_id", matchID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return match.AllianceSelection{}, false, fmt.Errorf("build get alliance query: %w", err)
	}

	var row allianceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.AllianceSelection{}, false, nil
		}
		return match.AllianceSelection{}, false, fmt.Errorf("get alliance: %w", err)
	}

	podQuery, podArgs, err := qb.Select("*").From("alliance_pods").
		Where(qb.Eq("match_id", matchID), qb.Eq("user_id", userID)).
		OrderBy("position ASC").
		ToSQL()
	if err != nil {
		return match.AllianceSelection{}, false, fmt.Errorf("build list alliance pods query: %w", err)
	}

	var podRows []alliancePodTableModel
	if err := r.db.SelectContext(ctx, &podRows, podQuery, podArgs...); err != nil {
		return match.AllianceSelection{}, false, fmt.Errorf("list alliance pods: %w", err)
	}

	sel := match.AllianceSelection{
		MatchID:        row.MatchID,
		UserID:         row.UserID,
		TokenDeckID:    row.TokenDeckID.String,
		ProphecyDeckID: row.ProphecyDeckID.String,
	}
	for _, pod := range podRows {
		sel.Pods = append(sel.Pods, match.AlliancePod{DeckID: pod.DeckID, House: deck.House(pod.House)})
	}
	return sel, true, nil
}

func (r *MatchRepository) MarkStarted(ctx context.Context, matchID string, asCreator bool) (match.Matchup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.Matchup{}, fmt.Errorf("begin tx mark started: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertInto("matchups").
		Columns("match_id", "creator_started", "opponent_started").
		Values(matchID, asCreator, !asCreator).
		Suffix(`ON CONFLICT (match_id)
DO UPDATE SET
    creator_started = matchups.creator_started OR EXCLUDED.creator_started,
    opponent_started = matchups.opponent_started OR EXCLUDED.opponent_started
RETURNING match_id, creator_started, opponent_started`).
		ToSQL()
	if err != nil {
		return match.Matchup{}, fmt.Errorf("build mark started query: %w", err)
	}

	var row matchupTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return match.Matchup{}, fmt.Errorf("mark started: %w", err)
	}

	mu := match.Matchup{
		MatchID:         row.MatchID,
		CreatorStarted:  row.CreatorStarted,
		OpponentStarted: row.OpponentStarted,
	}
	if mu.BothStarted() {
		publishQuery, publishArgs, err := qb.Update("matches").
			Set("status", string(match.StatusPublished)).
			Where(
				qb.Eq("id", matchID),
				qb.Eq("status", string(match.StatusDeckSelection)),
			).
			ToSQL()
		if err != nil {
			return match.Matchup{}, fmt.Errorf("build publish match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, publishQuery, publishArgs...); err != nil {
			return match.Matchup{}, fmt.Errorf("publish match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return match.Matchup{}, fmt.Errorf("commit mark started tx: %w", err)
	}

	return mu, nil
}

func (r *MatchRepository) GetMatchup(ctx context.Context, matchID string) (match.Matchup, bool, error) {
	query, args, err := qb.Select("*").From("matchups").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Matchup{}, false, fmt.Errorf("build get matchup query: %w", err)
	}

	var row matchupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Matchup{}, false, nil
		}
		return match.Matchup{}, false, fmt.Errorf("get matchup: %w", err)
	}

	return match.Matchup{
		MatchID:         row.MatchID,
		CreatorStarted:  row.CreatorStarted,
		OpponentStarted: row.OpponentStarted,
	}, true, nil
}

func (r *MatchRepository) AddStrike(ctx context.Context, s match.Strike) error {
	query, args, err := qb.InsertInto("strikes").
		Columns("match_id", "struck_by", "target_id", "slot", "deck_id").
		Values(s.MatchID, s.StruckBy, s.TargetID, s.Slot, s.DeckID).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build add strike query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return match.ErrStrikeUsed
		}
		return fmt.Errorf("add strike: %w", err)
	}

	return nil
}

func (r *MatchRepository) ListStrikes(ctx context.Context, matchID string) ([]match.Strike, error) {
	query, args, err := qb.Select("*").From("strikes").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list strikes query: %w", err)
	}

	var rows []strikeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list strikes: %w", err)
	}

	out := make([]match.Strike, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.Strike{
			MatchID:  row.MatchID,
			StruckBy: row.StruckBy,
			TargetID: row.TargetID,
			Slot:     row.Slot,
			DeckID:   row.DeckID,
		})
	}
	return out, nil
}

func (r *MatchRepository) AppendGame(ctx context.Context, g match.Game, complete bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append game: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertInto("games").
		Columns("match_id", "game_number", "winner_id", "creator_keys", "opponent_keys",
			"time_expired", "concession", "creator_deck_id", "opponent_deck_id", "reported_by", "reported_at").
		Values(g.MatchID, g.Number, g.WinnerID, g.CreatorKeys, g.OpponentKeys,
			g.TimeExpired, g.Concession, nullString(g.CreatorDeckID), nullString(g.OpponentDeckID), g.ReportedBy, g.ReportedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build append game query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return match.ErrGameNumberTaken
		}
		return fmt.Errorf("append game: %w", err)
	}

	if complete {
		completeQuery, completeArgs, err := qb.Update("matches").
			Set("status", string(match.StatusCompleted)).
			Where(qb.Eq("id", g.MatchID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build complete match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, completeQuery, completeArgs...); err != nil {
			return fmt.Errorf("complete match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append game tx: %w", err)
	}

	return nil
}

func (r *MatchRepository) ListGames(ctx context.Context, matchID string) ([]match.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("game_number ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make([]match.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) AppendBid(ctx context.Context, b match.ChainBid) error {
	query, args, err := qb.InsertInto("chain_bids").
		Columns("match_id", "bid_number", "user_id", "chains", "concede").
		Values(b.MatchID, b.Number, b.UserID, b.Chains, b.Concede).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build append bid query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return match.ErrBidNumberTaken
		}
		return fmt.Errorf("append bid: %w", err)
	}

	return nil
}

func (r *MatchRepository) ListBids(ctx context.Context, matchID string) ([]match.ChainBid, error) {
	query, args, err := qb.Select("*").From("chain_bids").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("bid_number ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bids query: %w", err)
	}

	var rows []bidTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}

	out := make([]match.ChainBid, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.ChainBid{
			MatchID: row.MatchID,
			Number:  row.Number,
			UserID:  row.UserID,
			Chains:  row.Chains,
			Concede: row.Concede,
		})
	}
	return out, nil
}
