package league

import (
	"context"
	"errors"
)

// ErrPickTaken reports a lost race for a (round, pick) ledger slot.
var ErrPickTaken = errors.New("draft pick slot is already taken")

// Repository describes league persistence needs from use cases. The
// conditional methods re-check their guard inside one atomic unit.
type Repository interface {
	CreateLeague(ctx context.Context, l League) error
	GetLeague(ctx context.Context, id string) (League, bool, error)
	ListLeagues(ctx context.Context) ([]League, error)

	CreateTeam(ctx context.Context, t Team) error
	ListTeams(ctx context.Context, leagueID string) ([]Team, error)

	AddMember(ctx context.Context, m TeamMember) error
	ListMembers(ctx context.Context, leagueID string) ([]TeamMember, error)

	AddSignup(ctx context.Context, s Signup) error
	ListSignups(ctx context.Context, leagueID string) ([]Signup, error)

	// StartDraft flips signup statuses and moves the league to drafting in
	// one unit, conditional on the league still being in setup.
	StartDraft(ctx context.Context, leagueID string, drafted, waitlisted []string) error

	// AppendPick writes the ledger row and roster member together and, when
	// complete is true, activates the league. Fails with ErrPickTaken when
	// another caller claimed the same (round, pick) slot first.
	AppendPick(ctx context.Context, p DraftPick, m TeamMember, complete bool) error
	ListPicks(ctx context.Context, leagueID string) ([]DraftPick, error)
}
