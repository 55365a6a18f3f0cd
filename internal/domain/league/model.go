package league

import (
	"fmt"
	"time"
)

// Status is the league lifecycle state.
type Status string

const (
	StatusSetup    Status = "setup"
	StatusDrafting Status = "drafting"
	StatusActive   Status = "active"
)

// League is a multi-team competition whose rosters are filled by a snake
// draft. The creator acts as league admin.
type League struct {
	ID        string
	Name      string
	CreatorID string
	TeamSize  int
	NumTeams  int
	Status    Status
	CreatedAt time.Time
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.CreatorID == "" {
		return fmt.Errorf("league creator is required")
	}
	if l.TeamSize < 2 {
		return fmt.Errorf("team size must be at least 2")
	}
	if l.NumTeams < 2 {
		return fmt.Errorf("league needs at least 2 teams")
	}

	return nil
}

// Team belongs to exactly one league. OrderNum fixes its position in the
// draft rotation (1-based).
type Team struct {
	ID       string
	LeagueID string
	Name     string
	OrderNum int
}

// TeamMember links a user to a roster. Captains occupy a roster slot
// without being drafted.
type TeamMember struct {
	TeamID  string
	UserID  string
	Captain bool
}

// SignupStatus tracks where a candidate landed when the draft started.
type SignupStatus string

const (
	SignupPending    SignupStatus = "pending"
	SignupDrafted    SignupStatus = "drafted"
	SignupWaitlisted SignupStatus = "waitlisted"
)

// Signup queues one candidate participant in join order.
type Signup struct {
	LeagueID string
	UserID   string
	Status   SignupStatus
	Position int
}

// DraftPick is one row of the append-only draft ledger, strictly ordered by
// (round, pick-in-round).
type DraftPick struct {
	LeagueID   string
	Round      int
	PickInRO   int
	TeamID     string
	UserID     string
	PickedByID string
}
