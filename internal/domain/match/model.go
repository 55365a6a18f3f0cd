package match

import (
	"fmt"
	"time"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

// Format is the competitive format a match is played under.
type Format string

const (
	FormatSingle         Format = "single"
	FormatTriad          Format = "triad"
	FormatSealedSingle   Format = "sealed_single"
	FormatSealedAlliance Format = "sealed_alliance"
	FormatAdaptive       Format = "adaptive"

	// FormatThief is a team format; its mechanics are incompatible with
	// two-party matches and creation is rejected unconditionally.
	FormatThief Format = "thief"
)

var playableFormats = map[Format]struct{}{
	FormatSingle:         {},
	FormatTriad:          {},
	FormatSealedSingle:   {},
	FormatSealedAlliance: {},
	FormatAdaptive:       {},
}

func (f Format) Playable() bool {
	_, ok := playableFormats[f]
	return ok
}

// Sealed reports whether decks are dealt from the catalog instead of chosen.
func (f Format) Sealed() bool {
	return f == FormatSealedSingle || f == FormatSealedAlliance
}

// DeckSlots is the number of deck-selection slots each participant fills.
func (f Format) DeckSlots() int {
	if f == FormatTriad {
		return 3
	}
	return 1
}

// ForcedBestOf returns the fixed best-of count for formats that mandate one.
func (f Format) ForcedBestOf() (int, bool) {
	if f == FormatTriad || f == FormatAdaptive {
		return 3, true
	}
	return 0, false
}

// Status is the match lifecycle state. Transitions are strictly forward.
type Status string

const (
	StatusSetup         Status = "setup"
	StatusDeckSelection Status = "deck_selection"
	StatusPublished     Status = "published"
	StatusCompleted     Status = "completed"
)

// Rules carries the per-match legality parameters configured at creation.
// Zero values mean "not configured".
type Rules struct {
	MaxDeckRating       int
	MaxCombinedRating   int
	RequireSetDiversity bool
	RequireHouseDiv     bool
	AllowedSets         []deck.Set
	DecksPerPlayer      int
}

// AllowsSet reports whether a set passes the allowed-set restriction.
// An empty list allows everything.
func (r Rules) AllowsSet(s deck.Set) bool {
	if len(r.AllowedSets) == 0 {
		return true
	}
	for _, allowed := range r.AllowedSets {
		if allowed == s {
			return true
		}
	}
	return false
}

// Match is one competitive encounter between exactly two participants.
// OpponentID stays empty until somebody joins and is set at most once.
type Match struct {
	ID             string
	Format         Format
	CreatorID      string
	OpponentID     string
	Status         Status
	BestOf         int
	Visible        bool
	Rules          Rules
	JoinToken      string
	PoolsGenerated bool
	CreatedAt      time.Time
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if !m.Format.Playable() {
		return fmt.Errorf("format %q is not playable", m.Format)
	}
	if m.CreatorID == "" {
		return fmt.Errorf("match creator is required")
	}
	if m.OpponentID != "" && m.OpponentID == m.CreatorID {
		return fmt.Errorf("opponent cannot equal creator")
	}
	if m.BestOf < 1 || m.BestOf%2 == 0 {
		return fmt.Errorf("best-of count must be a positive odd number")
	}
	if m.JoinToken == "" {
		return fmt.Errorf("join token is required")
	}

	return nil
}

// HasParticipant reports whether the given user is one of the two sides.
func (m Match) HasParticipant(userID string) bool {
	return userID != "" && (userID == m.CreatorID || userID == m.OpponentID)
}

// OpponentOf returns the other participant. The boolean is false when the
// user is not a participant or the match has no opponent yet.
func (m Match) OpponentOf(userID string) (string, bool) {
	switch {
	case m.OpponentID == "" || !m.HasParticipant(userID):
		return "", false
	case userID == m.CreatorID:
		return m.OpponentID, true
	default:
		return m.CreatorID, true
	}
}

// DeckSelection is one chosen deck for one slot. Unique per
// (match, participant, slot); resubmission replaces it in place while the
// match is still in deck selection.
type DeckSelection struct {
	MatchID  string
	UserID   string
	Slot     int
	DeckID   string
	DeckName string
	Set      deck.Set
	Rating   int
	Houses   []deck.House
}

// PoolEntry records one deck dealt into a participant's sealed pool.
// Rows are written once at join time and never mutated.
type PoolEntry struct {
	MatchID string
	UserID  string
	DeckID  string
}

// AlliancePod is one (deck, house) contribution to a sealed alliance.
type AlliancePod struct {
	DeckID string
	House  deck.House
}

// AllianceSelection is a participant's full alliance declaration: three pods
// with mutually distinct houses plus the token/prophecy special slots
// required by certain expansions. Replaced wholesale on resubmission.
type AllianceSelection struct {
	MatchID        string
	UserID         string
	Pods           []AlliancePod
	TokenDeckID    string
	ProphecyDeckID string
}

// Matchup tracks readiness once either participant signals start. Created
// lazily, at most once per match; the started flags are monotonic.
type Matchup struct {
	MatchID         string
	CreatorStarted  bool
	OpponentStarted bool
}

func (mu Matchup) BothStarted() bool {
	return mu.CreatorStarted && mu.OpponentStarted
}

// Strike is a participant's one-time removal of an opposing deck selection
// from eligibility. Triad only.
type Strike struct {
	MatchID  string
	StruckBy string
	TargetID string
	Slot     int
	DeckID   string
}

// Game is one completed game inside a matchup. Immutable once recorded;
// game numbers form a contiguous append-only ledger starting at 1.
type Game struct {
	MatchID        string
	Number         int
	WinnerID       string
	CreatorKeys    int
	OpponentKeys   int
	TimeExpired    bool
	Concession     bool
	CreatorDeckID  string
	OpponentDeckID string
	ReportedBy     string
	ReportedAt     time.Time
}

// ChainBid is one entry in the Adaptive bid-off ledger: either a chain bid
// or a concession that ends the bidding. Append-only, like Games.
type ChainBid struct {
	MatchID string
	Number  int
	UserID  string
	Chains  int
	Concede bool
}
