package messaging

import (
	"context"
	"errors"
	"sync"
)

var ErrBrokerClosed = errors.New("broker closed")

// sentHistory bounds how many published messages Sent can return.
const sentHistory = 1000

// MemoryBroker delivers messages in-process. It backs the worker when no
// Redis URL is configured and is used by tests.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	sent   []Message
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string][]chan Message)}
}

func (b *MemoryBroker) Publish(ctx context.Context, channel string, message Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBrokerClosed
	}
	b.sent = append(b.sent, message)
	if len(b.sent) > sentHistory {
		b.sent = b.sent[len(b.sent)-sentHistory:]
	}
	for _, ch := range b.subs[channel] {
		select {
		case ch <- message:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// slow subscriber; drop like Redis pub/sub would
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}
	ch := make(chan Message, 100)
	b.subs[channel] = append(b.subs[channel], ch)

	go func() {
		<-ctx.Done()
		b.unsubscribe(channel, ch)
	}()
	return ch, nil
}

// Sent returns the most recently published messages, oldest first.
func (b *MemoryBroker) Sent() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.sent...)
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = nil
	return nil
}

func (b *MemoryBroker) unsubscribe(channel string, target chan Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	chans := b.subs[channel]
	for i, ch := range chans {
		if ch == target {
			b.subs[channel] = append(chans[:i], chans[i+1:]...)
			close(ch)
			return
		}
	}
}
