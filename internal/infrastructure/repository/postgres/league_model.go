package postgres

import (
	"time"

	"github.com/vaultheim/crucible/internal/domain/league"
)

type leagueTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatorID string    `db:"creator_id"`
	TeamSize  int       `db:"team_size"`
	NumTeams  int       `db:"num_teams"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:        row.ID,
		Name:      row.Name,
		CreatorID: row.CreatorID,
		TeamSize:  row.TeamSize,
		NumTeams:  row.NumTeams,
		Status:    league.Status(row.Status),
		CreatedAt: row.CreatedAt,
	}
}

type teamTableModel struct {
	ID       string `db:"id"`
	LeagueID string `db:"league_id"`
	Name     string `db:"name"`
	OrderNum int    `db:"order_num"`
}

type teamMemberTableModel struct {
	TeamID  string `db:"team_id"`
	UserID  string `db:"user_id"`
	Captain bool   `db:"captain"`
}

type signupTableModel struct {
	LeagueID string `db:"league_id"`
	UserID   string `db:"user_id"`
	Status   string `db:"status"`
	Position int    `db:"position"`
}

type draftPickTableModel struct {
	LeagueID   string `db:"league_id"`
	Round      int    `db:"round"`
	PickInRO   int    `db:"pick_in_round"`
	TeamID     string `db:"team_id"`
	UserID     string `db:"user_id"`
	PickedByID string `db:"picked_by"`
}
