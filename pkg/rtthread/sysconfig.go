package rtthread

import (
	"os"

	"github.com/cuemby/relayrt"
)

// SystemConfigGuard restores a /proc/sys value to what it was before
// SetSystemConfig was called for it, once Close is invoked. A no-op in simulated mode.
type SystemConfigGuard struct {
	previous map[string]string
}

// SetSystemConfig writes value to /proc/sys/<key> (key using "/" in place
// of the usual "." separator, e.g. "kernel/sched_rt_runtime_us"),
// remembering the previous value so it can be restored later. A no-op in
// simulated mode.
func SetSystemConfig(entries map[string]string) (*SystemConfigGuard, error) {
	g := &SystemConfigGuard{previous: make(map[string]string, len(entries))}
	if !IsRealtime() {
		return g, nil
	}
	for key, value := range entries {
		path := "/proc/sys/" + key
		prev, err := os.ReadFile(path)
		if err != nil {
			return nil, relayrt.Wrap(relayrt.KindIO, "read "+path, err)
		}
		g.previous[key] = string(prev)
		if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
			return nil, relayrt.Wrap(relayrt.KindIO, "write "+path, err)
		}
	}
	return g, nil
}

// Close restores every overridden key to its previous value.
func (g *SystemConfigGuard) Close() error {
	if !IsRealtime() {
		return nil
	}
	for key, value := range g.previous {
		if err := os.WriteFile("/proc/sys/"+key, []byte(value), 0o644); err != nil {
			return relayrt.Wrap(relayrt.KindIO, "restore /proc/sys/"+key, err)
		}
	}
	return nil
}
