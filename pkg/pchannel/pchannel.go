// Package pchannel implements a bounded, policy-aware, multi-producer
// multi-consumer synchronous channel built on pkg/policy's Deque. A single
// mutex guards the deque; two condition variables, one per direction, wake
// blocked senders and receivers.
package pchannel

import (
	"sync"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/policy"
)

// Channel is the shared inner state of a policy channel. Senders and
// Receivers are thin handles around a *Channel that track liveness.
type Channel[T policy.Message] struct {
	mu             sync.Mutex
	dataAvailable  *sync.Cond
	spaceAvailable *sync.Cond
	queue          *policy.Deque[T]
	senders        int
	receivers      int
}

// Bounded creates an unordered channel of the given capacity with one
// sender and one receiver handle.
//
// Panics if capacity <= 0.
func Bounded[T policy.Message](capacity int) (*Sender[T], *Receiver[T]) {
	return newChannel[T](policy.Bounded[T](capacity))
}

// Ordered creates a priority-ordered channel of the given capacity.
func Ordered[T policy.Message](capacity int) (*Sender[T], *Receiver[T]) {
	return newChannel[T](policy.Ordered[T](capacity))
}

func newChannel[T policy.Message](deque *policy.Deque[T]) (*Sender[T], *Receiver[T]) {
	c := &Channel[T]{queue: deque, senders: 1, receivers: 1}
	c.dataAvailable = sync.NewCond(&c.mu)
	c.spaceAvailable = sync.NewCond(&c.mu)
	return &Sender[T]{ch: c}, &Receiver[T]{ch: c}
}

// Sender is a producer handle on a Channel.
type Sender[T policy.Message] struct {
	ch     *Channel[T]
	closed bool
}

// Clone returns a new Sender handle sharing the same channel, incrementing
// the live-sender count.
func (s *Sender[T]) Clone() *Sender[T] {
	c := s.ch
	c.mu.Lock()
	c.senders++
	c.mu.Unlock()
	return &Sender[T]{ch: c}
}

// Close drops this sender handle. Once every sender handle is closed, the
// channel is closed from the sender side and pending/future receives
// observe ChannelClosed once the queue drains.
func (s *Sender[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	c := s.ch
	c.mu.Lock()
	c.senders--
	c.mu.Unlock()
	c.dataAvailable.Broadcast()
	c.spaceAvailable.Broadcast()
}

// TrySend attempts a non-blocking send, returning a *relayrt.Error of kind
// KindChannelFull if the queue is full and no eviction is possible, or
// KindChannelClosed if there are no live receivers.
func (s *Sender[T]) TrySend(v T) error {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.receivers == 0 {
		return relayrt.New(relayrt.KindChannelClosed, "no live receivers")
	}
	switch c.queue.TryPush(v) {
	case policy.Pushed:
		c.dataAvailable.Signal()
		return nil
	case policy.Skipped:
		return relayrt.New(relayrt.KindChannelSkipped, "value dropped by policy")
	default:
		return relayrt.New(relayrt.KindChannelFull, "queue full")
	}
}

// Send blocks until the value is accepted, the queue reports a policy skip,
// or the channel is closed from the receiver side.
func (s *Sender[T]) Send(v T) error {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if c.receivers == 0 {
			return relayrt.New(relayrt.KindChannelClosed, "no live receivers")
		}
		switch c.queue.TryPush(v) {
		case policy.Pushed:
			c.dataAvailable.Signal()
			return nil
		case policy.Skipped:
			return relayrt.New(relayrt.KindChannelSkipped, "value dropped by policy")
		default:
			c.spaceAvailable.Wait()
		}
	}
}

// Receiver is a consumer handle on a Channel.
type Receiver[T policy.Message] struct {
	ch     *Channel[T]
	closed bool
}

// Clone returns a new Receiver handle sharing the same channel,
// incrementing the live-receiver count.
func (r *Receiver[T]) Clone() *Receiver[T] {
	c := r.ch
	c.mu.Lock()
	c.receivers++
	c.mu.Unlock()
	return &Receiver[T]{ch: c}
}

// Close drops this receiver handle.
func (r *Receiver[T]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	c := r.ch
	c.mu.Lock()
	c.receivers--
	c.mu.Unlock()
	c.dataAvailable.Broadcast()
	c.spaceAvailable.Broadcast()
}

// Len reports the number of values currently queued.
func (r *Receiver[T]) Len() int {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// TryRecv attempts a non-blocking receive.
func (r *Receiver[T]) TryRecv() (T, error) {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.queue.Get(); ok {
		c.spaceAvailable.Signal()
		return v, nil
	}
	var zero T
	if c.senders == 0 {
		return zero, relayrt.New(relayrt.KindChannelClosed, "no live senders")
	}
	return zero, relayrt.New(relayrt.KindChannelEmpty, "queue empty")
}

// Recv blocks until a value is available or the channel is closed from the
// sender side.
func (r *Receiver[T]) Recv() (T, error) {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if v, ok := c.queue.Get(); ok {
			c.spaceAvailable.Signal()
			return v, nil
		}
		var zero T
		if c.senders == 0 {
			return zero, relayrt.New(relayrt.KindChannelClosed, "no live senders")
		}
		c.dataAvailable.Wait()
	}
}
