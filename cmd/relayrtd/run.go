package main

import (
	"time"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/config"
	"github.com/cuemby/relayrt/pkg/controller"
	"github.com/cuemby/relayrt/pkg/policy"
	"github.com/cuemby/relayrt/pkg/rtlog"
	"github.com/cuemby/relayrt/pkg/rtmetrics"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/cuemby/relayrt/pkg/rttime"
	"github.com/spf13/cobra"
)

// signalEvent is a minimal hub payload standing in for a real sensor/alarm
// message type; real applications define their own and satisfy the same
// four methods plus Clone.
type signalEvent struct {
	Source string
	Value  float64
}

func (signalEvent) DeliveryPolicy() policy.DeliveryPolicy { return policy.Latest }
func (signalEvent) Priority() int                         { return policy.DefaultPriority }
func (e signalEvent) EqKind(other any) bool {
	o, ok := other.(signalEvent)
	return ok && o.Source == e.Source
}
func (signalEvent) IsExpired() bool { return false }
func (e signalEvent) Clone() any    { return e }

type vars struct{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the controller and block until shutdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		cfg := config.Default()
		if configPath != "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		if !cmd.Flags().Changed("shutdown-timeout") && cfg.Shutdown.Timeout > 0 {
			shutdownTimeout = cfg.Shutdown.Timeout
		}
		level, _ := cmd.Flags().GetString("log-level")
		if !cmd.Flags().Changed("log-level") && cfg.Log.Level != "" {
			level = cfg.Log.Level
		}
		jsonOut, _ := cmd.Flags().GetBool("log-json")
		if !cmd.Flags().Changed("log-json") {
			jsonOut = cfg.Log.JSON
		}
		rtlog.Init(rtlog.Config{Level: config.LogConfig{Level: level}.LogLevel(), JSONOutput: jsonOut})

		c := controller.NewWithVariables[signalEvent](vars{})
		c.Hub().SetDefaultChannelCapacity(cfg.Hub.DefaultCapacity)

		collector := rtmetrics.NewCollector("relayrtd", c.Hub(), c.State())

		monitor, err := c.Hub().Register("monitor", nil)
		if err != nil {
			return err
		}
		defer monitor.Close()
		collector.TrackChannel(monitor.Name(), monitor.Pending)
		collector.TrackTasks(c.TaskCount)

		collector.Start(5 * time.Second)
		defer collector.Stop()

		if _, err := c.SpawnWorker(applyWorkerConfig(&heartbeatWorker{period: time.Second}, cfg.Workers)); err != nil {
			return err
		}

		if err := c.RegisterSignalsWithHandlers(
			func(ctx *controller.Context[signalEvent, vars]) error {
				rtlog.Info("shutting down")
				return nil
			},
			nil,
			shutdownTimeout,
		); err != nil {
			return err
		}

		c.Block()
		return nil
	},
}

// configuredWorker overlays scheduling knobs from the config file on top of
// a worker's compiled-in options.
type configuredWorker struct {
	controller.Worker[signalEvent, vars]
	cfg config.WorkerConfig
}

func (w configuredWorker) WorkerScheduling() rtthread.Scheduling {
	if w.cfg.Scheduling != "" {
		return w.cfg.SchedulingClass()
	}
	return w.Worker.WorkerScheduling()
}

func (w configuredWorker) WorkerPriority() *int {
	if w.cfg.Priority != nil {
		return w.cfg.Priority
	}
	return w.Worker.WorkerPriority()
}

func (w configuredWorker) WorkerCPUIDs() []int {
	if len(w.cfg.CPUIDs) > 0 {
		return w.cfg.CPUIDs
	}
	return w.Worker.WorkerCPUIDs()
}

// applyWorkerConfig wraps w with the file-level override matching its name,
// if one exists.
func applyWorkerConfig(w controller.Worker[signalEvent, vars], overrides []config.WorkerConfig) controller.Worker[signalEvent, vars] {
	for _, wc := range overrides {
		if wc.Name == w.WorkerName() {
			return configuredWorker{Worker: w, cfg: wc}
		}
	}
	return w
}

// heartbeatWorker periodically publishes a signalEvent, demonstrating the
// periodic-worker idiom: set Active once startup is done, then loop until
// told to stop.
type heartbeatWorker struct {
	controller.BaseWorkerOptions
	period time.Duration
}

func (heartbeatWorker) WorkerName() string { return "heartbeat" }

func (w *heartbeatWorker) Run(ctx *controller.Context[signalEvent, vars]) error {
	ctx.SetState(controller.Active)
	interval := rttime.New(w.period)
	for ctx.IsOnline() {
		interval.Tick()
		ctx.Hub().SendChecked(signalEvent{Source: "heartbeat", Value: 1}, func(name string, err error) bool {
			switch {
			case relayrt.Is(err, relayrt.KindChannelSkipped):
				rtmetrics.ChannelSkippedTotal.WithLabelValues(name).Inc()
			case relayrt.Is(err, relayrt.KindChannelFull):
				rtmetrics.ChannelFullTotal.WithLabelValues(name).Inc()
			default:
				rtlog.Errorf("heartbeat delivery to "+name+" failed", err)
			}
			return true
		})
	}
	return nil
}
