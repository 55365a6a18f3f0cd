package deck

import "context"

// Catalog is the external deck registry. The engine only ever asks it to
// resolve a caller-supplied reference, list decks for sealed draws, and
// report the houses of a known deck.
type Catalog interface {
	// Resolve looks up a deck by a caller-supplied reference (a raw deck id
	// or a catalog URL containing one). The boolean is false when the
	// reference does not name a registered deck.
	Resolve(ctx context.Context, ref string) (Info, bool, error)

	// HousesOf returns the houses of a deck already known to exist.
	HousesOf(ctx context.Context, deckID string) ([]House, error)

	// ListBySets returns registered decks restricted to the given sets.
	// An empty set list means no restriction.
	ListBySets(ctx context.Context, sets []Set) ([]Info, error)
}
