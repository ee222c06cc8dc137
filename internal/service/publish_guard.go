package service

import (
	"context"
	"sync"
)

// publishGuard lets a cron tick and a manual publish overlap without writing
// the same story twice at once. Each busy story holds a channel that is
// closed when its publish ends.
type publishGuard struct {
	mu   sync.Mutex
	busy map[string]chan struct{}
}

// Acquire claims storyID. ok is false when a publish of it is already
// running. release is safe to call more than once.
func (g *publishGuard) Acquire(storyID string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, running := g.busy[storyID]; running {
		return nil, false
	}
	if g.busy == nil {
		g.busy = make(map[string]chan struct{})
	}
	done := make(chan struct{})
	g.busy[storyID] = done

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, storyID)
			g.mu.Unlock()
			close(done)
		})
	}, true
}

// Busy reports whether storyID is being published.
func (g *publishGuard) Busy(storyID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[storyID]
	return ok
}

// Wait blocks until every publish running at call time has finished, or
// returns ctx.Err() first.
func (g *publishGuard) Wait(ctx context.Context) error {
	g.mu.Lock()
	pending := make([]chan struct{}, 0, len(g.busy))
	for _, done := range g.busy {
		pending = append(pending, done)
	}
	g.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
