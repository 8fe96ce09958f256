// Package rtmetrics declares the Prometheus metrics this runtime exposes:
// hub fan-out counters, policy channel pressure gauges, controller
// lifecycle state, and supervisor task counts.
package rtmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HubDispatchTotal and HubCloneTotal mirror Hub.DispatchCount/CloneCount,
	// which are running totals read by the collector rather than incremented
	// here directly — gauges, not counters, since the collector sets them to
	// the hub's current snapshot instead of adding deltas.
	HubDispatchTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relayrt_hub_dispatch_total",
			Help: "Total number of per-subscriber hub deliveries attempted",
		},
		[]string{"hub"},
	)

	HubCloneTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relayrt_hub_clone_total",
			Help: "Total number of message clones made for all-but-last fan-out",
		},
		[]string{"hub"},
	)

	ChannelFullTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayrt_channel_full_total",
			Help: "Total number of TrySend/SendCtx attempts that found a full Always/Single channel",
		},
		[]string{"channel"},
	)

	ChannelSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relayrt_channel_skipped_total",
			Help: "Total number of values dropped by an Optional/SingleOptional channel under pressure",
		},
		[]string{"channel"},
	)

	ChannelDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relayrt_channel_depth",
			Help: "Current number of queued values in a policy channel",
		},
		[]string{"channel"},
	)

	ControllerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayrt_controller_state",
			Help: "Current controller lifecycle state (matches controller.Kind's numeric encoding)",
		},
	)

	SupervisorTasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relayrt_supervisor_tasks_active",
			Help: "Current number of tasks registered with the supervisor",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HubDispatchTotal,
		HubCloneTotal,
		ChannelFullTotal,
		ChannelSkippedTotal,
		ChannelDepth,
		ControllerState,
		SupervisorTasksActive,
	)
}
