package rtmetrics_test

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/relayrt/pkg/controller"
	"github.com/cuemby/relayrt/pkg/hub"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/cuemby/relayrt/pkg/rtmetrics"
)

type event struct{}

func (event) DeliveryPolicy() policy.DeliveryPolicy { return policy.Always }
func (event) Priority() int                         { return 100 }
func (event) EqKind(other any) bool                 { _, ok := other.(event); return ok }
func (event) IsExpired() bool                       { return false }
func (e event) Clone() any                          { return e }

func TestCollectorSamplesHubCounters(t *testing.T) {
	h := hub.New[event]()
	client, err := h.Register("sink", nil)
	require.NoError(t, err)
	defer client.Close()

	h.Send(event{})

	c := rtmetrics.NewCollector("test-hub", h, controller.NewState())
	c.Start(10 * time.Millisecond)
	defer c.Stop()

	require.Eventually(t, func() bool {
		m := &dto.Metric{}
		g, err := rtmetrics.HubDispatchTotal.GetMetricWithLabelValues("test-hub")
		require.NoError(t, err)
		_ = g.Write(m)
		return m.GetGauge().GetValue() >= 1
	}, time.Second, 10*time.Millisecond)
}
