package pchannel_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/pchannel"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/stretchr/testify/require"
)

type msg struct {
	kind   string
	policy policy.DeliveryPolicy
}

func (m msg) DeliveryPolicy() policy.DeliveryPolicy { return m.policy }
func (m msg) Priority() int                         { return policy.DefaultPriority }
func (m msg) IsExpired() bool                       { return false }
func (m msg) EqKind(other any) bool {
	o, ok := other.(msg)
	return ok && o.kind == m.kind
}

func TestOptionalSkippedWhenFull(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)
	require.NoError(t, tx.TrySend(msg{kind: "a", policy: policy.Always}))

	err := tx.TrySend(msg{kind: "b", policy: policy.Optional})
	require.True(t, relayrt.IsSkipped(err))

	v, err := rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "a", v.kind)
}

func TestSingleOptionalCoalescesUnderLoad(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)
	for i := 0; i < 10; i++ {
		err := tx.TrySend(msg{kind: "k", policy: policy.SingleOptional})
		require.True(t, err == nil || relayrt.IsSkipped(err))
	}

	v, err := rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "k", v.kind)

	_, err = rx.TryRecv()
	require.True(t, relayrt.Is(err, relayrt.KindChannelEmpty))
}

func TestClosureFromSenderSide(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)
	tx.Close()

	_, err := rx.Recv()
	require.True(t, relayrt.IsClosed(err))
}

func TestClosureFromReceiverSide(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)
	rx.Close()

	err := tx.Send(msg{kind: "a", policy: policy.Always})
	require.True(t, relayrt.IsClosed(err))
}

func TestBlockingSendWakesOnRecv(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)
	require.NoError(t, tx.TrySend(msg{kind: "a", policy: policy.Always}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, tx.Send(msg{kind: "b", policy: policy.Always}))
	}()

	time.Sleep(10 * time.Millisecond)
	v, err := rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "a", v.kind)

	wg.Wait()
	v, err = rx.Recv()
	require.NoError(t, err)
	require.Equal(t, "b", v.kind)
}

func TestBlockingRecvUnblocksOnClose(t *testing.T) {
	tx, rx := pchannel.Bounded[msg](1)

	done := make(chan error, 1)
	go func() {
		_, err := rx.Recv()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	tx.Close()

	select {
	case err := <-done:
		require.True(t, relayrt.IsClosed(err))
	case <-time.After(time.Second):
		t.Fatal("recv did not unblock after sender closed")
	}
}
