package controller_test

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/cuemby/relayrt/pkg/controller"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	rtthread.SetSimulated()
	m.Run()
}

type reading struct {
	Kind  string
	Value float64
}

func (reading) DeliveryPolicy() policy.DeliveryPolicy { return policy.Always }
func (reading) Priority() int                         { return 100 }
func (reading) EqKind(other any) bool                 { _, ok := other.(reading); return ok }
func (reading) IsExpired() bool                       { return false }
func (r reading) Clone() any                          { return r }

type sharedVars struct {
	Count int
}

type echoWorker struct {
	controller.BaseWorkerOptions
	ran chan struct{}
}

func (w *echoWorker) WorkerName() string { return "echo" }

func (w *echoWorker) Run(ctx *controller.Context[reading, sharedVars]) error {
	ctx.SetState(controller.Active)
	close(w.ran)
	return nil
}

func TestSpawnWorkerRunsAndJoins(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{})
	w := &echoWorker{ran: make(chan struct{})}
	_, err := c.SpawnWorker(w)
	require.NoError(t, err)

	select {
	case <-w.ran:
	case <-time.After(time.Second):
		t.Fatal("worker never ran")
	}

	c.Block()
	require.Equal(t, controller.Stopped, c.State().Get())
}

func TestSpawnTaskReceivesContext(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{Count: 41})
	done := make(chan int, 1)
	_, err := c.SpawnTask("reader", func(ctx *controller.Context[reading, sharedVars]) {
		done <- ctx.Variables().Count
	})
	require.NoError(t, err)

	select {
	case v := <-done:
		require.Equal(t, 41, v)
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	c.Block()
}

func TestTerminateMovesStateToStopping(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{})
	c.Terminate()
	require.Equal(t, controller.Stopping, c.State().Get())
	require.False(t, c.State().IsOnline())
}

func TestContextTerminateReachesController(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{})
	done := make(chan struct{})
	_, err := c.SpawnTask("terminator", func(ctx *controller.Context[reading, sharedVars]) {
		ctx.Terminate()
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	c.Block()
	require.Equal(t, controller.Stopped, c.State().Get())
}

func TestSignalMovesStateToStopping(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{})
	require.NoError(t, c.RegisterSignals(time.Second))

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))
	require.Eventually(t, func() bool {
		return c.State().Get() == controller.Stopping
	}, time.Second, 10*time.Millisecond)
}

func TestHubIsSharedAcrossWorkers(t *testing.T) {
	c := controller.NewWithVariables[reading](sharedVars{})
	client, err := c.Hub().Register("sink", nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = c.SpawnTask("publisher", func(ctx *controller.Context[reading, sharedVars]) {
		ctx.Hub().Send(reading{Kind: "temp", Value: 1})
	})
	require.NoError(t, err)
	c.Block()

	v, err := client.Recv()
	require.NoError(t, err)
	require.Equal(t, "temp", v.Kind)
}
