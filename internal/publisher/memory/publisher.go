// Package memory collects published events for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Event is one published payload.
type Event struct {
	Topic   string
	Payload any
}

// Publisher records events in order.
type Publisher struct {
	mu     sync.Mutex
	events []Event
	nextID int
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Topic: topic, Payload: payload})
	p.nextID++
	return fmt.Sprintf("mem-msg-%d", p.nextID), nil
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
