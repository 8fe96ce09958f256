package pchannelasync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/pchannelasync"
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

func TestAsyncSendRecvRoundTrip(t *testing.T) {
	tx, rx := pchannelasync.Bounded[msg](2)
	ctx := context.Background()

	require.NoError(t, tx.SendCtx(ctx, msg{kind: "a", policy: policy.Always}))
	v, err := rx.RecvCtx(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", v.kind)
}

func TestAsyncSendBlocksUntilSpace(t *testing.T) {
	tx, rx := pchannelasync.Bounded[msg](1)
	ctx := context.Background()
	require.NoError(t, tx.SendCtx(ctx, msg{kind: "a", policy: policy.Always}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, tx.SendCtx(ctx, msg{kind: "b", policy: policy.Always}))
	}()

	time.Sleep(10 * time.Millisecond)
	v, err := rx.RecvCtx(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", v.kind)

	wg.Wait()
	v, err = rx.RecvCtx(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", v.kind)
}

func TestAsyncRecvCancellation(t *testing.T) {
	_, rx := pchannelasync.Bounded[msg](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rx.RecvCtx(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAsyncClosureFromSenderSide(t *testing.T) {
	tx, rx := pchannelasync.Bounded[msg](1)
	tx.Close()

	_, err := rx.RecvCtx(context.Background())
	require.True(t, relayrt.IsClosed(err))
}

func TestSyncSendAsyncRecv(t *testing.T) {
	tx, rx := pchannelasync.Bounded[msg](1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := rx.RecvCtx(context.Background())
		require.NoError(t, err)
		require.Equal(t, "a", v.kind)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tx.SendBlocking(msg{kind: "a", policy: policy.Always}))
	<-done
}
