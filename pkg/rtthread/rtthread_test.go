package rtthread_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	rtthread.SetSimulated()
	m.Run()
}

func TestSpawnRunsBodyOnce(t *testing.T) {
	b, err := rtthread.NewBuilder("worker-1")
	require.NoError(t, err)

	var ran atomic.Bool
	task, err := rtthread.Spawn(b, func() int {
		ran.Store(true)
		return 42
	})
	require.NoError(t, err)
	require.Equal(t, 42, task.Join())
	require.True(t, ran.Load())
}

func TestBuilderRejectsLongNames(t *testing.T) {
	_, err := rtthread.NewBuilder("this-name-is-definitely-too-long")
	require.Error(t, err)
}

func TestSchedulingDefaultsPriorityForRTClasses(t *testing.T) {
	var p rtthread.RTParams
	p.SetScheduling(rtthread.FIFO)
	require.NotNil(t, p.Priority)
	require.Equal(t, 1, *p.Priority)
}

func TestFailedRTParamsPreventBodyExecution(t *testing.T) {
	rtthread.SetRealtime()
	defer rtthread.SetSimulated()

	b, err := rtthread.NewBuilder("bad-affinity")
	require.NoError(t, err)
	b.ParkOnErrors(true) // the adapter parks instead of panicking the test binary
	params := rtthread.RTParams{}
	params.SetCPUIDs([]int{1023}) // not a CPU this machine has
	b.RTParams(params)

	var sideEffects atomic.Int32
	_, err = rtthread.Spawn(b, func() int {
		sideEffects.Add(1)
		return 0
	})
	require.Error(t, err)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), sideEffects.Load())
}

func TestSpawnRaceFreedom(t *testing.T) {
	b, err := rtthread.NewBuilder("race-check")
	require.NoError(t, err)
	b.RTParams(rtthread.RTParams{}) // empty params always apply cleanly in simulated mode

	var sideEffects atomic.Int32
	task, err := rtthread.Spawn(b, func() int {
		sideEffects.Add(1)
		return 0
	})
	require.NoError(t, err)
	task.Join()
	require.Equal(t, int32(1), sideEffects.Load())
}
