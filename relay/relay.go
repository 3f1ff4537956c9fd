// Package relay moves values produced on background goroutines into the
// frame loop. Producers block or drop when the buffer is full; the consumer
// polls once per frame and never blocks.
package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrRelayClosed = errors.New("relay: closed")

// Envelope wraps a relayed value with bookkeeping for logging and dedupe.
type Envelope[T any] struct {
	ID       ulid.ULID
	Source   string
	Received time.Time
	Payload  T
}

// Relay is a bounded channel with a non-blocking consumer side.
type Relay[T any] struct {
	source string
	ch     chan Envelope[T]
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex

	dropped atomic.Uint64
	sent    atomic.Uint64
	now     func() time.Time
}

// New creates a relay named after its producer with room for size pending
// values.
func New[T any](source string, size int) *Relay[T] {
	if size <= 0 {
		size = 1
	}
	return &Relay[T]{
		source: source,
		ch:     make(chan Envelope[T], size),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

func (r *Relay[T]) wrap(v T) Envelope[T] {
	now := r.now()
	return Envelope[T]{
		ID:       ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Source:   r.source,
		Received: now,
		Payload:  v,
	}
}

// Send blocks until v is queued, ctx is done or the relay is closed.
func (r *Relay[T]) Send(ctx context.Context, v T) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	select {
	case <-r.done:
		return ErrRelayClosed
	default:
	}
	select {
	case r.ch <- r.wrap(v):
		r.sent.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrRelayClosed
	}
}

// Offer queues v if there is room and reports whether it did. Values offered
// to a full or closed relay are counted as dropped.
func (r *Relay[T]) Offer(v T) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	select {
	case <-r.done:
		r.dropped.Add(1)
		return false
	default:
	}
	select {
	case r.ch <- r.wrap(v):
		r.sent.Add(1)
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Poll returns up to max queued envelopes without blocking. max <= 0 drains
// everything currently queued.
func (r *Relay[T]) Poll(max int) []Envelope[T] {
	var out []Envelope[T]
	for max <= 0 || len(out) < max {
		select {
		case env, ok := <-r.ch:
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
	return out
}

// Close stops accepting values. Queued values stay available to Poll.
func (r *Relay[T]) Close() {
	r.once.Do(func() {
		close(r.done)
		r.mu.Lock()
		close(r.ch)
		r.mu.Unlock()
	})
}

// Closed reports whether Close has been called.
func (r *Relay[T]) Closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Done is closed when the relay is closed.
func (r *Relay[T]) Done() <-chan struct{} { return r.done }

// Len returns the number of queued values.
func (r *Relay[T]) Len() int { return len(r.ch) }

// Stats returns how many values were accepted and dropped.
func (r *Relay[T]) Stats() (sent, dropped uint64) {
	return r.sent.Load(), r.dropped.Load()
}
