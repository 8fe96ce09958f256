package policy_test

import (
	"testing"

	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/stretchr/testify/require"
)

type msg struct {
	kind     string
	policy   policy.DeliveryPolicy
	priority int
	expired  bool
}

func (m msg) DeliveryPolicy() policy.DeliveryPolicy { return m.policy }
func (m msg) Priority() int                         { return m.priority }
func (m msg) IsExpired() bool                       { return m.expired }
func (m msg) EqKind(other any) bool {
	o, ok := other.(msg)
	return ok && o.kind == m.kind
}

func TestOptionalDropsUnderPressure(t *testing.T) {
	d := policy.Bounded[msg](1)
	require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "always", policy: policy.Always}))

	for i := 0; i < 10; i++ {
		require.Equal(t, policy.Skipped, d.TryPush(msg{kind: "optional", policy: policy.Optional}))
	}
	require.Equal(t, 1, d.Len())
	v, ok := d.Get()
	require.True(t, ok)
	require.Equal(t, "always", v.kind)
}

func TestSingleCoalesces(t *testing.T) {
	d := policy.Bounded[msg](4)
	for i := 0; i < 10; i++ {
		require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "temp", policy: policy.Single}))
	}
	require.Equal(t, 1, d.Len())
}

func TestLatestEvictsOldest(t *testing.T) {
	d := policy.Bounded[msg](2)
	require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "a", policy: policy.Latest, priority: 1}))
	require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "b", policy: policy.Latest, priority: 2}))
	require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "c", policy: policy.Latest, priority: 3}))

	v, ok := d.Get()
	require.True(t, ok)
	require.Equal(t, "b", v.kind)
}

func TestOrderedSortsByPriority(t *testing.T) {
	d := policy.Ordered[msg](4)
	d.TryPush(msg{kind: "a", policy: policy.Always, priority: 30})
	d.TryPush(msg{kind: "b", policy: policy.Always, priority: 10})
	d.TryPush(msg{kind: "c", policy: policy.Always, priority: 20})

	var order []string
	for {
		v, ok := d.Get()
		if !ok {
			break
		}
		order = append(order, v.kind)
	}
	require.Equal(t, []string{"b", "c", "a"}, order)
}

func TestExpiredNeverStored(t *testing.T) {
	d := policy.Bounded[msg](4)
	require.Equal(t, policy.Pushed, d.TryPush(msg{kind: "x", policy: policy.Always, expired: true}))
	require.Equal(t, 0, d.Len())
}

func TestEmptyDequeGetFails(t *testing.T) {
	d := policy.Bounded[msg](4)
	_, ok := d.Get()
	require.False(t, ok)
}
