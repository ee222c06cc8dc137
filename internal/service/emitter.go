package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Events emitted by the story services.
const (
	EventStoryCreated   = "story:created"
	EventStoryCommitted = "story:committed"
	EventStoryDeleted   = "story:deleted"
	EventStoryImported  = "story:imported"
	EventStoryPublished = "story:published"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from their host surface
// ─────────────────────────────────────────────────────────────

// EventEmitter receives change notifications. The CLI logs them, the MCP
// server forwards them as log notifications, tests record them.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter records every call. Safe for use from watcher goroutines.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// CommitEvent is the payload of EventStoryCommitted.
type CommitEvent struct {
	StoryID string `json:"storyId"`
	Blocks  int    `json:"blocks"`
}

// PublishEvent is the payload of EventStoryPublished.
type PublishEvent struct {
	StoryID string `json:"storyId"`
	Path    string `json:"path"`
}

// LogEmitter writes every event to a zap logger at debug level.
type LogEmitter struct {
	Log *zap.Logger
}

func (l LogEmitter) Emit(_ context.Context, event string, data any) {
	l.Log.Debug("event", zap.String("event", event), zap.Any("data", data))
}

// FanOut forwards each event to every registered emitter. Targets may be
// added after the services holding it were built.
type FanOut struct {
	mu      sync.RWMutex
	targets []EventEmitter
}

func (f *FanOut) Add(e EventEmitter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, e)
}

func (f *FanOut) Emit(ctx context.Context, event string, data any) {
	f.mu.RLock()
	targets := f.targets
	f.mu.RUnlock()
	for _, t := range targets {
		t.Emit(ctx, event, data)
	}
}
