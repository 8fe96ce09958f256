// Package controller wires a message hub, a name-keyed thread supervisor,
// and a lifecycle state beacon into the single object an application builds
// once at startup: register workers and background tasks against it,
// install signal handling, then block until shutdown.
package controller

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/hub"
	"github.com/cuemby/relayrt/pkg/rtlog"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/cuemby/relayrt/pkg/supervisor"
)

// DefaultShutdownTimeout is used by RegisterSignals.
const DefaultShutdownTimeout = 10 * time.Second

// Controller owns the hub, the worker/task registry, and the lifecycle
// state shared by every Context handed to a worker.
type Controller[M hub.Message, V any] struct {
	supervisor *supervisor.Supervisor[struct{}]
	hub        *hub.Hub[M]
	state      *State
	variables  *V
}

// New returns a Controller with zero-valued shared variables; callers that
// don't need any instantiate with V = struct{}.
func New[M hub.Message, V any]() *Controller[M, V] {
	var zero V
	return NewWithVariables[M](zero)
}

// NewWithVariables returns a Controller whose Context.Variables() exposes a
// pointer to a copy of vars.
func NewWithVariables[M hub.Message, V any](vars V) *Controller[M, V] {
	return &Controller[M, V]{
		supervisor: supervisor.New[struct{}](),
		hub:        hub.New[M](),
		state:      NewState(),
		variables:  &vars,
	}
}

// Hub returns the controller's message bus.
func (c *Controller[M, V]) Hub() *hub.Hub[M] { return c.hub }

// State returns the controller's lifecycle beacon.
func (c *Controller[M, V]) State() *State { return c.state }

// TaskCount reports how many workers and tasks are currently registered.
func (c *Controller[M, V]) TaskCount() int { return c.supervisor.Len() }

func (c *Controller[M, V]) newContext() *Context[M, V] {
	return &Context[M, V]{
		hub:       c.hub,
		state:     c.state,
		variables: c.variables,
		terminate: func() { c.state.Set(Stopping) },
	}
}

// SpawnWorker builds a thread from w's WorkerOptions and runs w.Run on it.
// A worker that returns an error is treated as a critical failure: it is
// logged and the whole process tree is brought down, since a worker is
// assumed essential to the controller's operation.
func (c *Controller[M, V]) SpawnWorker(w Worker[M, V]) (*rtthread.Task[struct{}], error) {
	b, err := rtthread.NewBuilder(w.WorkerName())
	if err != nil {
		return nil, err
	}
	if n := w.WorkerStackSize(); n > 0 {
		b.StackSize(n)
	}
	b.Blocking(w.WorkerIsBlocking())

	params := rtthread.RTParams{}
	params.SetScheduling(w.WorkerScheduling())
	if p := w.WorkerPriority(); p != nil {
		params.SetPriority(*p)
	}
	if ids := w.WorkerCPUIDs(); len(ids) > 0 {
		params.SetCPUIDs(ids)
	}
	b.RTParams(params)

	ctx := c.newContext()
	name := w.WorkerName()
	return c.supervisor.Spawn(b, func() struct{} {
		if err := w.Run(ctx); err != nil {
			c.critical(name, err)
		}
		return struct{}{}
	})
}

// SpawnTask runs fn on a dedicated thread under the given name, with no RT
// scheduling applied.
func (c *Controller[M, V]) SpawnTask(name string, fn func(ctx *Context[M, V])) (*rtthread.Task[struct{}], error) {
	b, err := rtthread.NewBuilder(name)
	if err != nil {
		return nil, err
	}
	ctx := c.newContext()
	return c.supervisor.Spawn(b, func() struct{} {
		fn(ctx)
		return struct{}{}
	})
}

// critical logs a worker failure and kills the entire process tree: a
// worker is never expected to exit on its own, so its error is treated the
// same as an unrecoverable fault.
func (c *Controller[M, V]) critical(name string, err error) {
	rtlog.Errorf(fmt.Sprintf("worker %q exited", name), err)
	rtthread.SuicideMyself(0, true)
}

// Block joins every non-blocking worker/task and marks the controller
// Stopped once they have all returned.
func (c *Controller[M, V]) Block() {
	c.supervisor.JoinAll()
	c.state.Set(Stopped)
}

// BlockWhileOnline polls the lifecycle state until it leaves the online
// range, a simple alternative to Block for callers that want to keep doing
// periodic work on the calling goroutine (e.g. a cobra command's RunE) while
// waiting for a shutdown signal.
func (c *Controller[M, V]) BlockWhileOnline() {
	for c.state.IsOnline() {
		time.Sleep(100 * time.Millisecond)
	}
}

// Terminate requests an orderly shutdown by moving the state to Stopping;
// it does not itself join or kill anything.
func (c *Controller[M, V]) Terminate() { c.state.Set(Stopping) }

// RegisterSignals installs SIGTERM/SIGINT handling with a no-op shutdown
// callback and no reload handling.
func (c *Controller[M, V]) RegisterSignals(shutdownTimeout time.Duration) error {
	return c.RegisterSignalsWithHandlers(nil, nil, shutdownTimeout)
}

// RegisterSignalsWithHandlers spawns a dedicated, high-priority signal
// handling thread. On SIGTERM/SIGINT it runs shutdownFn (if non-nil), sets
// the state to Stopping, and arms a watchdog that force-kills the process
// tree if shutdown hasn't completed within shutdownTimeout. On SIGUSR2 it
// runs reloadFn and, if reloadFn succeeds, re-execs the current binary in
// place. With a nil reloadFn, SIGUSR2 is not subscribed to at all.
//
// The handler thread runs FIFO priority 99 pinned to CPU 0 when realtime
// mode is live: the shutdown path must preempt every other worker. A
// platform that refuses those RT parameters still gets a (non-realtime)
// handler thread rather than none at all.
func (c *Controller[M, V]) RegisterSignalsWithHandlers(
	shutdownFn func(ctx *Context[M, V]) error,
	reloadFn func(ctx *Context[M, V]) error,
	shutdownTimeout time.Duration,
) error {
	ctx := c.newContext()
	sigCh := make(chan os.Signal, 1)
	sigs := []os.Signal{os.Interrupt, syscall.SIGTERM}
	if reloadFn != nil {
		sigs = append(sigs, syscall.SIGUSR2)
	}
	signal.Notify(sigCh, sigs...)

	body := func() struct{} {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGUSR2:
				if reloadFn != nil {
					if err := reloadFn(ctx); err != nil {
						rtlog.Errorf("reload handler failed", err)
						continue
					}
				}
				if err := reexec(); err != nil {
					rtlog.Errorf("re-exec failed", err)
				}
			default:
				// The watchdog is never cancelled: once a shutdown signal
				// arrives, the process either exits cleanly before the
				// deadline or is taken down by force.
				go rtthread.SuicideMyself(shutdownTimeout, true)
				if shutdownFn != nil {
					if err := shutdownFn(ctx); err != nil {
						rtlog.Errorf("shutdown handler failed", err)
					}
				}
				c.state.Set(Stopping)
				return struct{}{}
			}
		}
		return struct{}{}
	}

	b, err := rtthread.NewBuilder("signals")
	if err != nil {
		return err
	}
	b.ParkOnErrors(true)
	params := rtthread.RTParams{}
	params.SetScheduling(rtthread.FIFO)
	params.SetPriority(99)
	params.SetCPUIDs([]int{0})
	b.RTParams(params)

	if _, err = c.supervisor.Spawn(b, body); err != nil {
		// RT setup was refused (the RT thread is parked, never having run
		// the body); fall back to an ordinary thread so signal handling
		// still works.
		rtlog.Errorf("signal thread RT setup failed, falling back to non-RT", err)
		fb, berr := rtthread.NewBuilder("signals")
		if berr != nil {
			return berr
		}
		_, err = c.supervisor.Spawn(fb, body)
	}
	return err
}

// reexec replaces the current process image with a fresh copy of the
// running binary, read from /proc/self/exe. Used after a successful config
// reload in place of a full supervisor-level restart.
func reexec() error {
	path, err := os.Readlink("/proc/self/exe")
	if err != nil {
		return relayrt.Wrap(relayrt.KindIO, "readlink /proc/self/exe", err)
	}
	path = strings.TrimSuffix(path, " (deleted)")
	return syscall.Exec(path, os.Args, os.Environ())
}
