package buf_test

import (
	"testing"

	"github.com/cuemby/relayrt/pkg/buf"
	"github.com/stretchr/testify/require"
)

func TestTryPushRejectsWhenFull(t *testing.T) {
	b := buf.Bounded[int](2)
	_, ok := b.TryPush(1)
	require.True(t, ok)
	_, ok = b.TryPush(2)
	require.True(t, ok)
	v, ok := b.TryPush(3)
	require.False(t, ok)
	require.Equal(t, 3, v)
}

func TestForcePushEvictsOldest(t *testing.T) {
	b := buf.Bounded[int](2)
	require.True(t, b.ForcePush(1))
	require.True(t, b.ForcePush(2))
	require.False(t, b.ForcePush(3))

	require.Equal(t, []int{2, 3}, b.Take())
	require.True(t, b.IsEmpty())
}
