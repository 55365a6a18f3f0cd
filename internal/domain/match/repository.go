package match

import (
	"context"
	"errors"
	"time"
)

// Race-sensitive persistence failures. Repositories surface lost races as
// these sentinels so callers can report them as ordinary validation
// violations instead of silent overwrites.
var (
	ErrOpponentTaken   = errors.New("match already has an opponent")
	ErrStrikeUsed      = errors.New("participant has already struck")
	ErrGameNumberTaken = errors.New("game number is already recorded")
	ErrBidNumberTaken  = errors.New("bid number is already recorded")
)

// Repository describes match persistence needs from use cases. Every
// mutating method executes as one atomic unit; the conditional methods
// re-check their guard inside that unit so concurrent callers serialize.
type Repository interface {
	CreateMatch(ctx context.Context, m Match) error
	GetMatch(ctx context.Context, id string) (Match, bool, error)
	ListOpen(ctx context.Context) ([]Match, error)

	// ListUnfinishedBefore returns matches created before the cutoff that
	// never reached completion. Used by the sweeper.
	ListUnfinishedBefore(ctx context.Context, cutoff time.Time) ([]Match, error)

	// DeleteMatch removes the match and all owned children.
	DeleteMatch(ctx context.Context, id string) error

	// JoinMatch sets the opponent, advances the match to deck selection and
	// writes the sealed pool (possibly empty) in the same unit. Fails with
	// ErrOpponentTaken when the setup/no-opponent guard no longer holds.
	JoinMatch(ctx context.Context, matchID, opponentID string, pool []PoolEntry) error

	UpsertSelection(ctx context.Context, sel DeckSelection) error
	DeleteSelection(ctx context.Context, matchID, userID string, slot int) error
	ListSelections(ctx context.Context, matchID string) ([]DeckSelection, error)

	ListPool(ctx context.Context, matchID, userID string) ([]PoolEntry, error)

	// ReplaceAlliance discards any prior pods/special slots for the
	// participant and writes the new declaration atomically.
	ReplaceAlliance(ctx context.Context, sel AllianceSelection) error
	ClearAlliance(ctx context.Context, matchID, userID string) error
	GetAlliance(ctx context.Context, matchID, userID string) (AllianceSelection, bool, error)

	// MarkStarted lazily creates the matchup, sets the caller's started flag
	// and publishes the match once both flags are set. Flags never unset.
	MarkStarted(ctx context.Context, matchID string, asCreator bool) (Matchup, error)
	GetMatchup(ctx context.Context, matchID string) (Matchup, bool, error)

	// AddStrike fails with ErrStrikeUsed when the striker already has one.
	AddStrike(ctx context.Context, s Strike) error
	ListStrikes(ctx context.Context, matchID string) ([]Strike, error)

	// AppendGame appends an immutable ledger row and, when complete is true,
	// moves the match to completed in the same unit. A concurrent reporter
	// that claimed the number first wins; the loser gets ErrGameNumberTaken.
	AppendGame(ctx context.Context, g Game, complete bool) error
	ListGames(ctx context.Context, matchID string) ([]Game, error)

	AppendBid(ctx context.Context, b ChainBid) error
	ListBids(ctx context.Context, matchID string) ([]ChainBid, error)
}
