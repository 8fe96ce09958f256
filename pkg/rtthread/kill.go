package rtthread

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// childPIDs walks /proc to find every process whose PPid chain leads back
// to parent.
func childPIDs(parent int) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	ppidOf := make(map[int]int)
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		data, err := os.ReadFile("/proc/" + e.Name() + "/stat")
		if err != nil {
			continue
		}
		// the comm field is parenthesized and may contain spaces; skip
		// past its closing paren before splitting on the rest.
		s := string(data)
		if idx := strings.LastIndex(s, ") "); idx >= 0 {
			fields := strings.Fields(s[idx+2:])
			if len(fields) >= 2 {
				if ppid, err := strconv.Atoi(fields[1]); err == nil {
					ppidOf[pid] = ppid
				}
			}
		}
		pids = append(pids, pid)
	}

	var result []int
	var walk func(pid int)
	seen := make(map[int]bool)
	walk = func(pid int) {
		for _, p := range pids {
			if ppidOf[p] == pid && !seen[p] {
				seen[p] = true
				result = append(result, p)
				walk(p)
			}
		}
	}
	walk(parent)
	return result
}

// KillPstree terminates the process tree rooted at pid (and pid itself if
// includeParent). A positive termKillInterval sends SIGTERM first, waits
// that long, then SIGKILLs whatever is still alive; otherwise SIGKILL is
// used immediately. A no-op in simulated mode.
func KillPstree(pid int, includeParent bool, termKillInterval time.Duration) error {
	if !IsRealtime() {
		return nil
	}
	targets := childPIDs(pid)
	if includeParent {
		targets = append(targets, pid)
	}
	if termKillInterval > 0 {
		for _, p := range targets {
			_ = unix.Kill(p, unix.SIGTERM)
		}
		time.Sleep(termKillInterval)
	}
	for _, p := range targets {
		_ = unix.Kill(p, unix.SIGKILL)
	}
	return nil
}

// SuicideMyself sleeps delay, optionally prints a warning, kills this
// process's tree, and finally SIGKILLs this process. A no-op (beyond the
// sleep and the warning) in simulated mode.
func SuicideMyself(delay time.Duration, warn bool) {
	time.Sleep(delay)
	if warn {
		fmt.Fprintln(os.Stderr, "\033[31mKILLING THE PROCESS\033[0m")
	}
	if !IsRealtime() {
		return
	}
	pid := os.Getpid()
	_ = KillPstree(pid, false, 0)
	_ = unix.Kill(pid, unix.SIGKILL)
}
