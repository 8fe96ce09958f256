// Package config loads the YAML configuration file a relayrt process
// starts from: worker scheduling defaults, hub sizing, and logging.
package config

import (
	"os"
	"time"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/rtlog"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"gopkg.in/yaml.v3"
)

// Config is the top-level shape of a relayrt config file.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Hub      HubConfig      `yaml:"hub"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	Workers  []WorkerConfig `yaml:"workers"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

type HubConfig struct {
	DefaultCapacity int `yaml:"defaultCapacity"`
}

type ShutdownConfig struct {
	Timeout time.Duration
}

// UnmarshalYAML accepts the timeout as a duration string ("10s", "1m30s")
// since yaml.v3 has no built-in time.Duration support.
func (s *ShutdownConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw struct {
		Timeout string `yaml:"timeout"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if raw.Timeout == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return err
	}
	s.Timeout = d
	return nil
}

// WorkerConfig describes the scheduling knobs for one named worker, read
// from the file and applied on top of whatever defaults that worker type's
// WorkerOptions otherwise returns.
type WorkerConfig struct {
	Name       string `yaml:"name"`
	Scheduling string `yaml:"scheduling"` // other, fifo, rr, batch, idle, deadline
	Priority   *int   `yaml:"priority,omitempty"`
	CPUIDs     []int  `yaml:"cpuIds,omitempty"`
}

// Default returns a Config with conservative defaults: info-level console
// logging and the hub/controller package defaults.
func Default() Config {
	return Config{
		Log:      LogConfig{Level: "info"},
		Hub:      HubConfig{DefaultCapacity: 1024},
		Shutdown: ShutdownConfig{Timeout: 10 * time.Second},
	}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, relayrt.Wrap(relayrt.KindIO, "read config "+path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, relayrt.Wrap(relayrt.KindInvalidData, "parse config "+path, err)
	}
	return cfg, nil
}

// SchedulingClass maps a config string to an rtthread.Scheduling, defaulting
// to Other for an empty or unrecognized value.
func (w WorkerConfig) SchedulingClass() rtthread.Scheduling {
	switch w.Scheduling {
	case "fifo":
		return rtthread.FIFO
	case "rr":
		return rtthread.RoundRobin
	case "batch":
		return rtthread.Batch
	case "idle":
		return rtthread.Idle
	case "deadline":
		return rtthread.DeadLine
	default:
		return rtthread.Other
	}
}

// LogLevel maps the config string to an rtlog.Level, defaulting to Info.
func (l LogConfig) LogLevel() rtlog.Level {
	switch l.Level {
	case "debug":
		return rtlog.DebugLevel
	case "warn":
		return rtlog.WarnLevel
	case "error":
		return rtlog.ErrorLevel
	default:
		return rtlog.InfoLevel
	}
}
