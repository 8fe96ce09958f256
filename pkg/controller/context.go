package controller

import "github.com/cuemby/relayrt/pkg/hub"

// Context is what a running worker or task receives: the shared hub,
// lifecycle state, and whatever application variables the controller was
// constructed with.
type Context[M hub.Message, V any] struct {
	hub       *hub.Hub[M]
	state     *State
	variables *V
	terminate func()
}

// Hub returns the message bus shared by every worker under this controller.
func (c *Context[M, V]) Hub() *hub.Hub[M] { return c.hub }

// Variables returns the application-defined shared state pointer passed to
// NewWithVariables.
func (c *Context[M, V]) Variables() *V { return c.variables }

// GetState reports the controller's current lifecycle state.
func (c *Context[M, V]) GetState() Kind { return c.state.Get() }

// SetState updates the controller's lifecycle state. Workers typically move
// it from Starting to Active/Running once their own setup is complete.
func (c *Context[M, V]) SetState(k Kind) { c.state.Set(k) }

// IsOnline reports whether the controller is still in a non-shutdown state.
func (c *Context[M, V]) IsOnline() bool { return c.state.IsOnline() }

// Terminate requests an orderly shutdown, as if a shutdown signal had been
// received.
func (c *Context[M, V]) Terminate() {
	if c.terminate != nil {
		c.terminate()
	}
}
