package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Publisher receives events after the write that produced them has committed.
type Publisher interface {
	Publish(ctx context.Context, event any)
}

// LogPublisher writes every event to a structured logger.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, event any) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event", "type", fmt.Sprintf("%T", event), "payload", event)
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

func (r *Recorder) Publish(_ context.Context, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

type nop struct{}

func (nop) Publish(context.Context, any) {}

// Nop discards events.
var Nop Publisher = nop{}
