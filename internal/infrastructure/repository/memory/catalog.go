package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaultheim/crucible/internal/domain/deck"
)

// Catalog is an in-process deck registry used for local runs and tests.
type Catalog struct {
	mu    sync.RWMutex
	decks map[string]deck.Info
	order []string
}

func NewCatalog(decks []deck.Info) *Catalog {
	items := make(map[string]deck.Info, len(decks))
	order := make([]string, 0, len(decks))
	for _, d := range decks {
		if _, exists := items[d.ID]; exists {
			continue
		}
		items[d.ID] = d
		order = append(order, d.ID)
	}
	return &Catalog{decks: items, order: order}
}

func (c *Catalog) Register(d deck.Info) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.decks[d.ID]; !exists {
		c.order = append(c.order, d.ID)
	}
	c.decks[d.ID] = d
}

func (c *Catalog) Resolve(_ context.Context, ref string) (deck.Info, bool, error) {
	id := deck.ParseRef(ref)
	if id == "" {
		return deck.Info{}, false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.decks[id]
	if !ok {
		return deck.Info{}, false, nil
	}
	return cloneDeck(d), true, nil
}

func (c *Catalog) HousesOf(_ context.Context, deckID string) ([]deck.House, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("deck %s is not registered", deckID)
	}
	return append([]deck.House(nil), d.Houses...), nil
}

func (c *Catalog) ListBySets(_ context.Context, sets []deck.Set) ([]deck.Info, error) {
	wanted := make(map[deck.Set]struct{}, len(sets))
	for _, s := range sets {
		wanted[s] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]deck.Info, 0, len(c.order))
	for _, id := range c.order {
		d := c.decks[id]
		if len(wanted) > 0 {
			if _, ok := wanted[d.Set]; !ok {
				continue
			}
		}
		out = append(out, cloneDeck(d))
	}
	return out, nil
}

func cloneDeck(d deck.Info) deck.Info {
	copied := d
	copied.Houses = append([]deck.House(nil), d.Houses...)
	return copied
}
