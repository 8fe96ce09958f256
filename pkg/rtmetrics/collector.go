package rtmetrics

import (
	"sync"
	"time"

	"github.com/cuemby/relayrt/pkg/controller"
	"github.com/cuemby/relayrt/pkg/hub"
)

// Collector periodically refreshes the gauges that aren't naturally updated
// at the point of the event: hub dispatch/clone totals are running counters
// owned by the hub itself, and controller state is a beacon read on demand.
type Collector struct {
	name                      string
	dispatchCount, cloneCount func() int64
	state                     *controller.State
	stopCh                    chan struct{}

	mu     sync.Mutex
	depths map[string]func() int
	tasks  func() int
}

// NewCollector builds a Collector sampling h (identified as name in the
// exported series) and the controller state beacon.
func NewCollector[T hub.Message](name string, h *hub.Hub[T], state *controller.State) *Collector {
	return &Collector{
		name:          name,
		dispatchCount: h.DispatchCount,
		cloneCount:    h.CloneCount,
		state:         state,
		stopCh:        make(chan struct{}),
		depths:        make(map[string]func() int),
	}
}

// TrackChannel registers a queue-depth source (typically a hub
// Client.Pending method) sampled into the ChannelDepth gauge under the
// given series label.
func (c *Collector) TrackChannel(name string, depth func() int) {
	c.mu.Lock()
	c.depths[name] = depth
	c.mu.Unlock()
}

// TrackTasks registers a task-count source (typically Controller.TaskCount)
// sampled into the SupervisorTasksActive gauge.
func (c *Collector) TrackTasks(count func() int) {
	c.mu.Lock()
	c.tasks = count
	c.mu.Unlock()
}

func (c *Collector) sample() {
	HubDispatchTotal.WithLabelValues(c.name).Set(float64(c.dispatchCount()))
	HubCloneTotal.WithLabelValues(c.name).Set(float64(c.cloneCount()))
	ControllerState.Set(float64(c.state.Get()))
	c.mu.Lock()
	for name, depth := range c.depths {
		ChannelDepth.WithLabelValues(name).Set(float64(depth()))
	}
	if c.tasks != nil {
		SupervisorTasksActive.Set(float64(c.tasks()))
	}
	c.mu.Unlock()
}

// Start begins periodic sampling on its own goroutine, sampling once
// immediately.
func (c *Collector) Start(period time.Duration) {
	ticker := time.NewTicker(period)
	go func() {
		c.sample()
		for {
			select {
			case <-ticker.C:
				c.sample()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts periodic sampling.
func (c *Collector) Stop() {
	close(c.stopCh)
}
