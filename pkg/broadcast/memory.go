package broadcast

import (
	"context"
	"sync"
)

// Option configures a MemoryBroadcaster.
type Option func(*options)

type options struct {
	replay bool
}

// WithReplay makes the broadcaster remember the latest message and deliver
// it to every new subscriber first.
func WithReplay() Option {
	return func(o *options) { o.replay = true }
}

// MemoryBroadcaster delivers messages to in-process subscribers. A slow
// subscriber loses its oldest queued messages, never the newest one, and is
// never disconnected by the broadcaster.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	replay      bool
	last        *Message[T]
	closed      bool
	closing     chan struct{}
	mu          sync.Mutex
	cleanupWg   sync.WaitGroup
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
// bufferSize is the per-subscriber queue length, at least 1.
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option) *MemoryBroadcaster[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		replay:      o.replay,
		closing:     make(chan struct{}),
	}
}

// Subscribe creates a new subscriber. With replay enabled the latest
// message, if any, is already queued when Subscribe returns.
// The subscription is cleaned up when ctx is cancelled.
// If the broadcaster is already closed, returns a closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}

	if b.replay && b.last != nil {
		sub.send(*b.last)
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-b.closing:
			}
		}()
	}

	return sub
}

// Broadcast queues msg for every active subscriber and, with replay
// enabled, remembers it as the latest message.
// It returns ErrBroadcasterClosed after Close.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBroadcasterClosed{}
	}

	if b.replay {
		b.last = &msg
	}
	for sub := range b.subscribers {
		if !sub.send(msg) {
			delete(b.subscribers, sub)
		}
	}

	return nil
}

// Last returns the latest message when replay is enabled.
func (b *MemoryBroadcaster[T]) Last() (Message[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.last == nil {
		return Message[T]{}, false
	}
	return *b.last, true
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers.
// It is safe to call Close multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	close(b.closing)
	b.mu.Unlock()

	b.cleanupWg.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
