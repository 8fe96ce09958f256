package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/relayrt/pkg/config"
	"github.com/cuemby/relayrt/pkg/rtlog"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/stretchr/testify/require"
)

const sample = `
log:
  level: debug
  json: true
hub:
  defaultCapacity: 256
shutdown:
  timeout: 5s
workers:
  - name: poller
    scheduling: fifo
    priority: 42
    cpuIds: [0, 1]
`

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relayrt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)
	require.Equal(t, rtlog.DebugLevel, cfg.Log.LogLevel())
	require.Equal(t, 256, cfg.Hub.DefaultCapacity)
	require.Len(t, cfg.Workers, 1)
	require.Equal(t, rtthread.FIFO, cfg.Workers[0].SchedulingClass())
	require.Equal(t, 42, *cfg.Workers[0].Priority)
	require.Equal(t, []int{0, 1}, cfg.Workers[0].CPUIDs)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load("/nonexistent/relayrt.yaml")
	require.Error(t, err)
}

func TestDefaultIsUsableWithoutAFile(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, 1024, cfg.Hub.DefaultCapacity)
}
