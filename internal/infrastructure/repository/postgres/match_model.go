package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/vaultheim/crucible/internal/domain/deck"
	"github.com/vaultheim/crucible/internal/domain/match"
)

type matchTableModel struct {
	ID                    string         `db:"id"`
	Format                string         `db:"format"`
	CreatorID             string         `db:"creator_id"`
	OpponentID            sql.NullString `db:"opponent_id"`
	Status                string         `db:"status"`
	BestOf                int            `db:"best_of"`
	Visible               bool           `db:"visible"`
	MaxDeckRating         int            `db:"max_deck_rating"`
	MaxCombinedRating     int            `db:"max_combined_rating"`
	RequireSetDiversity   bool           `db:"require_set_diversity"`
	RequireHouseDiversity bool           `db:"require_house_diversity"`
	AllowedSets           pq.StringArray `db:"allowed_sets"`
	DecksPerPlayer        int            `db:"decks_per_player"`
	JoinToken             string         `db:"join_token"`
	PoolsGenerated        bool           `db:"pools_generated"`
	CreatedAt             time.Time      `db:"created_at"`
}

type matchInsertModel struct {
	ID                    string         `db:"id"`
	Format                string         `db:"format"`
	CreatorID             string         `db:"creator_id"`
	Status                string         `db:"status"`
	BestOf                int            `db:"best_of"`
	Visible               bool           `db:"visible"`
	MaxDeckRating         int            `db:"max_deck_rating"`
	MaxCombinedRating     int            `db:"max_combined_rating"`
	RequireSetDiversity   bool           `db:"require_set_diversity"`
	RequireHouseDiversity bool           `db:"require_house_diversity"`
	AllowedSets           pq.StringArray `db:"allowed_sets"`
	DecksPerPlayer        int            `db:"decks_per_player"`
	JoinToken             string         `db:"join_token"`
	PoolsGenerated        bool           `db:"pools_generated"`
	CreatedAt             time.Time      `db:"created_at"`
}

func matchFromRow(row matchTableModel) match.Match {
	sets := make([]deck.Set, 0, len(row.AllowedSets))
	for _, s := range row.AllowedSets {
		sets = append(sets, deck.Set(s))
	}

	return match.Match{
		ID:         row.ID,
		Format:     match.Format(row.Format),
		CreatorID:  row.CreatorID,
		OpponentID: row.OpponentID.String,
		Status:     match.Status(row.Status),
		BestOf:     row.BestOf,
		Visible:    row.Visible,
		Rules: match.Rules{
			MaxDeckRating:       row.MaxDeckRating,
			MaxCombinedRating:   row.MaxCombinedRating,
			RequireSetDiversity: row.RequireSetDiversity,
			RequireHouseDiv:     row.RequireHouseDiversity,
			AllowedSets:         sets,
			DecksPerPlayer:      row.DecksPerPlayer,
		},
		JoinToken:      row.JoinToken,
		PoolsGenerated: row.PoolsGenerated,
		CreatedAt:      row.CreatedAt,
	}
}

type selectionTableModel struct {
	MatchID  string         `db:"match_id"`
	UserID   string         `db:"user_id"`
	Slot     int            `db:"slot"`
	DeckID   string         `db:"deck_id"`
	DeckName string         `db:"deck_name"`
	Set      string         `db:"expansion"`
	Rating   int            `db:"rating"`
	Houses   pq.StringArray `db:"houses"`
}

func selectionFromRow(row selectionTableModel) match.DeckSelection {
	houses := make([]deck.House, 0, len(row.Houses))
	for _, h := range row.Houses {
		houses = append(houses, deck.House(h))
	}

	return match.DeckSelection{
		MatchID:  row.MatchID,
		UserID:   row.UserID,
		Slot:     row.Slot,
		DeckID:   row.DeckID,
		DeckName: row.DeckName,
		Set:      deck.Set(row.Set),
		Rating:   row.Rating,
		Houses:   houses,
	}
}

type poolEntryTableModel struct {
	MatchID string `db:"match_id"`
	UserID  string `db:"user_id"`
	DeckID  string `db:"deck_id"`
}

type allianceTableModel struct {
	MatchID        string         `db:"match_id"`
	UserID         string         `db:"user_id"`
	TokenDeckID    sql.NullString `db:"token_deck_id"`
	ProphecyDeckID sql.NullString `db:"prophecy_deck_id"`
}

type alliancePodTableModel struct {
	MatchID  string `db:"match_id"`
	UserID   string `db:"user_id"`
	Position int    `db:"position"`
	DeckID   string `db:"deck_id"`
	House    string `db:"house"`
}

type matchupTableModel struct {
	MatchID         string `db:"match_id"`
	CreatorStarted  bool   `db:"creator_started"`
	OpponentStarted bool   `db:"opponent_started"`
}

type strikeTableModel struct {
	MatchID  string `db:"match_id"`
	StruckBy string `db:"struck_by"`
	TargetID string `db:"target_id"`
	Slot     int    `db:"slot"`
	DeckID   string `db:"deck_id"`
}

type gameTableModel struct {
	MatchID        string         `db:"match_id"`
	Number         int            `db:"game_number"`
	WinnerID       string         `db:"winner_id"`
	CreatorKeys    int            `db:"creator_keys"`
	OpponentKeys   int            `db:"opponent_keys"`
	TimeExpired    bool           `db:"time_expired"`
	Concession     bool           `db:"concession"`
	CreatorDeckID  sql.NullString `db:"creator_deck_id"`
	OpponentDeckID sql.NullString `db:"opponent_deck_id"`
	ReportedBy     string         `db:"reported_by"`
	ReportedAt     time.Time      `db:"reported_at"`
}

func gameFromRow(row gameTableModel) match.Game {
	return match.Game{
		MatchID:        row.MatchID,
		Number:         row.Number,
		WinnerID:       row.WinnerID,
		CreatorKeys:    row.CreatorKeys,
		OpponentKeys:   row.OpponentKeys,
		TimeExpired:    row.TimeExpired,
		Concession:     row.Concession,
		CreatorDeckID:  row.CreatorDeckID.String,
		OpponentDeckID: row.OpponentDeckID.String,
		ReportedBy:     row.ReportedBy,
		ReportedAt:     row.ReportedAt,
	}
}

type bidTableModel struct {
	MatchID string `db:"match_id"`
	Number  int    `db:"bid_number"`
	UserID  string `db:"user_id"`
	Chains  int    `db:"chains"`
	Concede bool   `db:"concede"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func housesToStrings(houses []deck.House) pq.StringArray {
	out := make(pq.StringArray, 0, len(houses))
	for _, h := range houses {
		out = append(out, string(h))
	}
	return out
}

func setsToStrings(sets []deck.Set) pq.StringArray {
	out := make(pq.StringArray, 0, len(sets))
	for _, s := range sets {
		out = append(out, string(s))
	}
	return out
}
