package resilience

import "sync"

// SingleFlight deduplicates concurrent calls for the same key: while one
// call is in flight, later callers wait for its result instead of issuing
// their own.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*inflight
}

type inflight struct {
	wg  sync.WaitGroup
	val any
	err error
}

// Do runs fn once per key at a time. The boolean reports whether the result
// was shared from another caller's execution.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*inflight)
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err, true
	}

	c := &inflight{}
	c.wg.Add(1)
	g.calls[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.wg.Done()

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return c.val, c.err, false
}
