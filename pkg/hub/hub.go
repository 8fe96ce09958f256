// Package hub implements the runtime's pub/sub fan-out: a dynamic set of
// named subscribers, each with a predicate selecting which messages it
// receives, delivered in ascending priority order without holding the hub's
// lock across subscriber sends.
package hub

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/pchannel"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/google/uuid"
)

// Message is the capability set the hub requires beyond policy.Message: a
// way to clone a value so all but the last matching subscriber gets a copy
// and the last gets the original, moved.
type Message interface {
	policy.Message
	Clone() any
}

// DefaultChannelCapacity is the per-subscriber channel size used when
// ClientOptions.Capacity is left unset.
const DefaultChannelCapacity = 1024

// DefaultPriority is used when ClientOptions.Priority is left unset.
const DefaultPriority = 100

type subscription[T Message] struct {
	name      string
	tx        *pchannel.Sender[T]
	priority  int
	predicate func(T) bool
}

// Hub is a reference-type handle: copying a *Hub shares the same
// subscriber registry, the way worker contexts share one hub instance.
type Hub[T Message] struct {
	mu              sync.Mutex
	defaultCapacity int
	subs            []*subscription[T]
	dispatchCount   atomic.Int64
	cloneCount      atomic.Int64
}

// DispatchCount returns the total number of per-subscriber deliveries
// attempted across all Send/SendChecked calls.
func (h *Hub[T]) DispatchCount() int64 { return h.dispatchCount.Load() }

// CloneCount returns the total number of message clones made to satisfy
// all-but-last delivery — exactly S-1 per send to S matching subscribers.
func (h *Hub[T]) CloneCount() int64 { return h.cloneCount.Load() }

// New returns an empty Hub using DefaultChannelCapacity for subscribers that
// don't request a specific capacity.
func New[T Message]() *Hub[T] {
	return &Hub[T]{defaultCapacity: DefaultChannelCapacity}
}

// SetDefaultChannelCapacity overrides the per-subscriber channel size used
// when a registration doesn't specify one. Returns the receiver for
// chaining, mirroring the builder style used elsewhere in this runtime.
func (h *Hub[T]) SetDefaultChannelCapacity(capacity int) *Hub[T] {
	h.mu.Lock()
	h.defaultCapacity = capacity
	h.mu.Unlock()
	return h
}

// ClientOptions configures a registration beyond the (name, predicate) pair
// Register accepts directly.
type ClientOptions[T Message] struct {
	Name      string
	Priority  int
	Capacity  int // 0 means "use the hub default"
	Ordering  bool
	Condition func(T) bool
}

// Client is the receive side of a subscription; closing it unregisters the
// subscription.
type Client[T Message] struct {
	name   string
	hub    *Hub[T]
	rx     *pchannel.Receiver[T]
	closed bool
}

// Recv blocks for the next message matching this client's predicate.
func (c *Client[T]) Recv() (T, error) {
	return c.rx.Recv()
}

// TryRecv is a non-blocking receive.
func (c *Client[T]) TryRecv() (T, error) {
	return c.rx.TryRecv()
}

// Pending reports how many messages are queued for this client, waiting to
// be received.
func (c *Client[T]) Pending() int {
	return c.rx.Len()
}

// Name returns the subscription name this client was registered under.
func (c *Client[T]) Name() string { return c.name }

// Close unregisters this client from its hub.
func (c *Client[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.hub.Unregister(c.name)
	c.rx.Close()
}

// Register subscribes name to messages matching condition, using the hub's
// default capacity and priority.
func (h *Hub[T]) Register(name string, condition func(T) bool) (*Client[T], error) {
	return h.RegisterWithOptions(ClientOptions[T]{Name: name, Condition: condition})
}

// RegisterWithOptions subscribes with full control over priority, capacity,
// and ordering. Fails if name is already registered.
func (h *Hub[T]) RegisterWithOptions(opts ClientOptions[T]) (*Client[T], error) {
	if opts.Priority == 0 {
		opts.Priority = DefaultPriority
	}
	condition := opts.Condition
	if condition == nil {
		condition = func(T) bool { return true }
	}

	h.mu.Lock()
	for _, s := range h.subs {
		if s.name == opts.Name {
			h.mu.Unlock()
			return nil, relayrt.New(relayrt.KindHubAlreadyRegistered, opts.Name)
		}
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = h.defaultCapacity
	}
	var tx *pchannel.Sender[T]
	var rx *pchannel.Receiver[T]
	if opts.Ordering {
		tx, rx = pchannel.Ordered[T](capacity)
	} else {
		tx, rx = pchannel.Bounded[T](capacity)
	}

	h.subs = append(h.subs, &subscription[T]{
		name:      opts.Name,
		tx:        tx,
		priority:  opts.Priority,
		predicate: condition,
	})
	sort.SliceStable(h.subs, func(i, j int) bool { return h.subs[i].priority < h.subs[j].priority })
	h.mu.Unlock()

	return &Client[T]{name: opts.Name, hub: h, rx: rx}, nil
}

// Sender returns a produce-only client: its Recv always reports
// ChannelClosed, and it is never a dispatch target. Used by actors that
// only publish.
func (h *Hub[T]) Sender() *Client[T] {
	tx, rx := pchannel.Bounded[T](1)
	tx.Close() // no live senders, so Recv reports closure at once
	name := "sender-" + uuid.NewString()
	return &Client[T]{name: name, hub: h, rx: rx}
}

// Unregister removes a subscription by name; a no-op if it isn't present.
func (h *Hub[T]) Unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.subs[:0:0]
	for _, s := range h.subs {
		if s.name != name {
			out = append(out, s)
		}
	}
	h.subs = out
}

// Send dispatches message to every matching subscriber in ascending
// priority order, cloning for all but the last match and moving (sending
// without a clone) to the last. Send errors are ignored; use SendChecked to
// observe them.
func (h *Hub[T]) Send(message T) {
	h.SendChecked(message, nil)
}

// SendChecked is Send, but invokes errHandler(name, err) on every delivery
// failure. If errHandler returns false, remaining matching subscribers are
// skipped for this call.
func (h *Hub[T]) SendChecked(message T, errHandler func(name string, err error) bool) {
	h.mu.Lock()
	var targets []*subscription[T]
	for _, s := range h.subs {
		if s.predicate(message) {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	for _, s := range targets[:len(targets)-1] {
		v := message.Clone().(T)
		h.cloneCount.Add(1)
		h.dispatchCount.Add(1)
		if err := s.tx.Send(v); err != nil && errHandler != nil {
			if !errHandler(s.name, err) {
				return
			}
		}
	}

	last := targets[len(targets)-1]
	h.dispatchCount.Add(1)
	if err := last.tx.Send(message); err != nil && errHandler != nil {
		errHandler(last.name, err)
	}
}

// Matches composes predicates with logical OR, so a subscriber interested
// in several message kinds can pass one condition per kind.
func Matches[T any](preds ...func(T) bool) func(T) bool {
	return func(v T) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}
