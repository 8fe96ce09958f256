// Package pchannelasync implements the same bounded, policy-aware MPMC
// channel as pkg/pchannel, but exposes a context.Context-driven API instead
// of blocking on condition variables. A FIFO queue of wake tokens per
// direction keeps senders and receivers fair; a caller whose context is
// canceled removes its own token from the queue, and if it had already
// been woken, wakes the next candidate so the slot is never lost.
package pchannelasync

import (
	"context"
	"sync"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/google/uuid"
)

type waiter struct {
	id   uuid.UUID
	wake chan struct{}
}

func newWaiter() *waiter {
	return &waiter{id: uuid.New(), wake: make(chan struct{}, 1)}
}

// Channel is the shared inner state behind a Sender/Receiver pair.
type Channel[T policy.Message] struct {
	mu           sync.Mutex
	queue        *policy.Deque[T]
	senders      int
	receivers    int
	sendWaiters  []*waiter
	recvWaiters  []*waiter
}

// Bounded creates an unordered async channel with one Sender/Receiver pair.
//
// Panics if capacity <= 0.
func Bounded[T policy.Message](capacity int) (*Sender[T], *Receiver[T]) {
	return newChannel[T](policy.Bounded[T](capacity))
}

// Ordered creates a priority-ordered async channel.
func Ordered[T policy.Message](capacity int) (*Sender[T], *Receiver[T]) {
	return newChannel[T](policy.Ordered[T](capacity))
}

func newChannel[T policy.Message](deque *policy.Deque[T]) (*Sender[T], *Receiver[T]) {
	c := &Channel[T]{queue: deque, senders: 1, receivers: 1}
	return &Sender[T]{ch: c}, &Receiver[T]{ch: c}
}

func (c *Channel[T]) wakeNext(waiters *[]*waiter) {
	if len(*waiters) == 0 {
		return
	}
	w := (*waiters)[0]
	*waiters = (*waiters)[1:]
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (c *Channel[T]) remove(waiters *[]*waiter, id uuid.UUID) bool {
	for i, w := range *waiters {
		if w.id == id {
			*waiters = append((*waiters)[:i], (*waiters)[i+1:]...)
			return true
		}
	}
	return false
}

// Sender is a producer handle on an async Channel.
type Sender[T policy.Message] struct {
	ch     *Channel[T]
	closed bool
}

func (s *Sender[T]) Clone() *Sender[T] {
	c := s.ch
	c.mu.Lock()
	c.senders++
	c.mu.Unlock()
	return &Sender[T]{ch: c}
}

func (s *Sender[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	c := s.ch
	c.mu.Lock()
	c.senders--
	for _, w := range c.recvWaiters {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
}

// SendCtx sends v, suspending the caller (cooperatively, via ctx) while the
// channel is full. A canceled ctx removes the caller's own waiter entry; if
// the entry had already been woken but not yet retried, the next waiter is
// woken in its place so the freed slot is never lost.
func (s *Sender[T]) SendCtx(ctx context.Context, v T) error {
	c := s.ch
	for {
		c.mu.Lock()
		if c.receivers == 0 {
			c.mu.Unlock()
			return relayrt.New(relayrt.KindChannelClosed, "no live receivers")
		}
		switch c.queue.TryPush(v) {
		case policy.Pushed:
			c.wakeNext(&c.recvWaiters)
			c.mu.Unlock()
			return nil
		case policy.Skipped:
			c.mu.Unlock()
			return relayrt.New(relayrt.KindChannelSkipped, "value dropped by policy")
		}

		w := newWaiter()
		c.sendWaiters = append(c.sendWaiters, w)
		c.mu.Unlock()

		select {
		case <-w.wake:
			continue
		case <-ctx.Done():
			c.mu.Lock()
			stillQueued := c.remove(&c.sendWaiters, w.id)
			if !stillQueued {
				select {
				case <-w.wake:
				default:
				}
				c.wakeNext(&c.sendWaiters)
			}
			c.mu.Unlock()
			return ctx.Err()
		}
	}
}

// TrySend is a non-blocking attempt; it never registers a waiter.
func (s *Sender[T]) TrySend(v T) error {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.receivers == 0 {
		return relayrt.New(relayrt.KindChannelClosed, "no live receivers")
	}
	switch c.queue.TryPush(v) {
	case policy.Pushed:
		c.wakeNext(&c.recvWaiters)
		return nil
	case policy.Skipped:
		return relayrt.New(relayrt.KindChannelSkipped, "value dropped by policy")
	default:
		return relayrt.New(relayrt.KindChannelFull, "queue full")
	}
}

// Receiver is a consumer handle on an async Channel.
type Receiver[T policy.Message] struct {
	ch     *Channel[T]
	closed bool
}

func (r *Receiver[T]) Clone() *Receiver[T] {
	c := r.ch
	c.mu.Lock()
	c.receivers++
	c.mu.Unlock()
	return &Receiver[T]{ch: c}
}

func (r *Receiver[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	c := r.ch
	c.mu.Lock()
	c.receivers--
	for _, w := range c.sendWaiters {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
}

// RecvCtx receives a value, suspending the caller while the channel is
// empty. Cancellation never discards an already-taken value: the queue pop
// and the Ready result are produced atomically under the channel lock, so a
// canceled ctx only ever removes a still-pending waiter entry.
func (r *Receiver[T]) RecvCtx(ctx context.Context) (T, error) {
	c := r.ch
	for {
		c.mu.Lock()
		if v, ok := c.queue.Get(); ok {
			c.wakeNext(&c.sendWaiters)
			c.mu.Unlock()
			return v, nil
		}
		var zero T
		if c.senders == 0 {
			c.mu.Unlock()
			return zero, relayrt.New(relayrt.KindChannelClosed, "no live senders")
		}

		w := newWaiter()
		c.recvWaiters = append(c.recvWaiters, w)
		c.mu.Unlock()

		select {
		case <-w.wake:
			continue
		case <-ctx.Done():
			c.mu.Lock()
			stillQueued := c.remove(&c.recvWaiters, w.id)
			if !stillQueued {
				select {
				case <-w.wake:
				default:
				}
				c.wakeNext(&c.recvWaiters)
			}
			c.mu.Unlock()
			return zero, ctx.Err()
		}
	}
}

// TryRecv is a non-blocking attempt; it never registers a waiter.
func (r *Receiver[T]) TryRecv() (T, error) {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.queue.Get(); ok {
		c.wakeNext(&c.sendWaiters)
		return v, nil
	}
	var zero T
	if c.senders == 0 {
		return zero, relayrt.New(relayrt.KindChannelClosed, "no live senders")
	}
	return zero, relayrt.New(relayrt.KindChannelEmpty, "queue empty")
}

// SendBlocking sends with no cancellation path — the synchronous-caller
// equivalent of SendCtx(context.Background(), v), for code that shares this
// channel with async callers but has no context of its own to thread
// through.
func (s *Sender[T]) SendBlocking(v T) error {
	return s.SendCtx(context.Background(), v)
}

// RecvBlocking receives with no cancellation path.
func (r *Receiver[T]) RecvBlocking() (T, error) {
	return r.RecvCtx(context.Background())
}
