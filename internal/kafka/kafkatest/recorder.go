// Package kafkatest provides an in-memory event sink for service tests.
package kafkatest

import (
	"context"
	"sync"

	"github.com/Domenick1991/spacebooking/internal/kafka"
)

type Recorder struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (r *Recorder) Emit(_ context.Context, events ...kafka.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Events() []kafka.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Event(nil), r.events...)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
