// Package rtthread builds and spawns OS threads with a configured
// scheduler class, priority, and CPU affinity, applied before the thread's
// user body ever runs. It also preallocates and locks heap pages for
// predictable worst-case latency, and can terminate a process tree on a
// critical failure.
package rtthread

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cuemby/relayrt"
	"golang.org/x/sys/unix"
)

// realtimeMode gates every RT syscall: true means they actually run;
// SetSimulated flips it off for developer machines that lack CAP_SYS_NICE
// or a realtime-capable kernel.
var realtimeMode atomic.Bool

func init() {
	realtimeMode.Store(true)
}

// SetSimulated disables the RT syscalls this package would otherwise issue
// (affinity, scheduler class, mlockall, kill, /proc/sys writes); thread
// naming and the tid lookup still run. Spawn protocol and
// accounting still run normally so the same code exercises identical logic
// paths on a development machine.
func SetSimulated() { realtimeMode.Store(false) }

// SetRealtime re-enables RT syscalls after SetSimulated, for tests that
// exercise real syscall failure paths.
func SetRealtime() { realtimeMode.Store(true) }

// IsRealtime reports whether RT syscalls are live.
func IsRealtime() bool { return realtimeMode.Load() }

// Scheduling identifies a Linux scheduler class.
type Scheduling int

const (
	Other Scheduling = iota // SCHED_OTHER, the default time-sharing class
	FIFO
	RoundRobin
	Batch
	Idle
	DeadLine
)

// linuxPolicy maps a Scheduling value to its SCHED_* constant.
func (s Scheduling) linuxPolicy() int {
	switch s {
	case FIFO:
		return 1
	case RoundRobin:
		return 2
	case Batch:
		return 3
	case Idle:
		return 5
	case DeadLine:
		return 6
	default:
		return 0
	}
}

func (s Scheduling) String() string {
	switch s {
	case FIFO:
		return "FIFO"
	case RoundRobin:
		return "RR"
	case Batch:
		return "BATCH"
	case Idle:
		return "IDLE"
	case DeadLine:
		return "DEADLINE"
	default:
		return "OTHER"
	}
}

// RTParams bundles the scheduler class, priority, and CPU affinity set
// applied to a spawned thread.
type RTParams struct {
	Scheduling Scheduling
	Priority   *int // nil means "leave the default priority for the class"
	CPUIDs     []int
}

// SetScheduling sets the scheduler class. If the class is realtime (FIFO,
// RoundRobin, DeadLine) and no priority has been set yet, Priority defaults
// to 1 so the class change can actually take effect.
func (p *RTParams) SetScheduling(s Scheduling) {
	p.Scheduling = s
	if p.Priority == nil {
		switch s {
		case FIFO, RoundRobin, DeadLine:
			one := 1
			p.Priority = &one
		}
	}
}

// SetPriority sets an explicit scheduler priority.
func (p *RTParams) SetPriority(priority int) { p.Priority = &priority }

// SetCPUIDs pins the thread to the given set of logical CPU ids.
func (p *RTParams) SetCPUIDs(ids []int) { p.CPUIDs = ids }

// schedParam mirrors struct sched_param from <sched.h>; only the first
// field is used on Linux.
type schedParam struct {
	priority int32
}

// applyThreadParams applies affinity and scheduler class+priority to the
// kernel thread identified by tid. A no-op in simulated mode.
func applyThreadParams(tid int, params RTParams) error {
	if !IsRealtime() {
		return nil
	}
	if len(params.CPUIDs) > 0 {
		var set unix.CPUSet
		set.Zero()
		for _, id := range params.CPUIDs {
			set.Set(id)
		}
		if err := unix.SchedSetaffinity(tid, &set); err != nil {
			return relayrt.Wrap(relayrt.KindRTSchedSetAffinity, fmt.Sprintf("tid %d", tid), err)
		}
	}
	if params.Priority != nil {
		sp := schedParam{priority: int32(*params.Priority)}
		_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER,
			uintptr(tid), uintptr(params.Scheduling.linuxPolicy()), uintptr(unsafe.Pointer(&sp)))
		if errno != 0 {
			return relayrt.Wrap(relayrt.KindRTSchedSetScheduler, fmt.Sprintf("tid %d", tid), errno)
		}
	}
	return nil
}

// Builder configures a thread before it is spawned.
type Builder struct {
	name         string
	stackSize    int
	blocking     bool
	rtParams     RTParams
	parkOnErrors bool
}

// NewBuilder returns a Builder for a thread named name. name must be 15
// bytes or fewer to fit the Linux thread-name limit.
func NewBuilder(name string) (*Builder, error) {
	if len(name) > 15 {
		return nil, relayrt.New(relayrt.KindInvalidData, "thread name exceeds 15 bytes: "+name)
	}
	return &Builder{name: name}, nil
}

// StackSize records a stack-size hint. Goroutine stacks grow on demand, so
// the value is kept for diagnostics rather than applied to the OS thread.
func (b *Builder) StackSize(n int) *Builder { b.stackSize = n; return b }
func (b *Builder) Blocking(v bool) *Builder     { b.blocking = v; return b }
func (b *Builder) RTParams(p RTParams) *Builder { b.rtParams = p; return b }

// ParkOnErrors controls the adapter's behavior when RT-param application
// fails: park forever instead of panicking. Used internally for the
// controller's signal-handling thread, which must never take the process
// down just because affinity couldn't be set.
func (b *Builder) ParkOnErrors(v bool) *Builder { b.parkOnErrors = v; return b }

func (b *Builder) Name() string { return b.name }

// Task is a handle to a spawned thread.
type Task[T any] struct {
	name     string
	blocking bool
	tid      int
	rtParams RTParams
	started  time.Time
	done     chan struct{}
	value    T
}

func (t *Task[T]) Name() string           { return t.name }
func (t *Task[T]) Blocking() bool         { return t.blocking }
func (t *Task[T]) TID() int               { return t.tid }
func (t *Task[T]) RTParams() RTParams     { return t.rtParams }
func (t *Task[T]) Elapsed() time.Duration { return time.Since(t.started) }

// IsFinished reports whether the thread body has returned.
func (t *Task[T]) IsFinished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Join blocks until the thread body returns and reports its result.
func (t *Task[T]) Join() T {
	<-t.done
	return t.value
}

// ApplyRTParams re-applies new parameters to the running thread; on
// failure the previous parameters are restored and the error returned.
func (t *Task[T]) ApplyRTParams(newParams RTParams) error {
	old := t.rtParams
	if err := applyThreadParams(t.tid, newParams); err != nil {
		_ = applyThreadParams(t.tid, old)
		return err
	}
	t.rtParams = newParams
	return nil
}

// setThreadName labels the calling OS thread so the name shows up in
// /proc/<pid>/task and tooling like htop. This is why builder names are
// capped at 15 bytes.
func setThreadName(name string) {
	buf := make([]byte, len(name)+1)
	copy(buf, name)
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}

// tidHandoff is the one-shot (tid, ack) rendezvous between the spawned
// thread's adapter and the spawning goroutine, step 3-5 of the spawn
// protocol described on Spawn.
type tidHandoff struct {
	tid int
	ack chan bool
}

// Spawn starts f on a dedicated, locked OS thread, applies this Builder's
// RT params before f ever runs, and returns a Task handle.
//
// The five-step protocol (unbuffered rendezvous channel; adapter reports
// its kernel tid then blocks on an acknowledgement; parent applies
// affinity/scheduler and signals success or failure) guarantees f never
// executes under the wrong scheduler or CPU set — the classic race this
// exists to close.
func Spawn[T any](b *Builder, f func() T) (*Task[T], error) {
	handoff := make(chan tidHandoff)
	task := &Task[T]{
		name:     b.name,
		blocking: b.blocking,
		rtParams: b.rtParams,
		started:  time.Now(),
		done:     make(chan struct{}),
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		// A panic anywhere in a spawned body takes the whole process tree
		// down and exits 1, instead of Go's default crash of just this
		// program with status 2 while children linger.
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "\033[31mthread %q panic: %v\033[0m\n", b.name, r)
				if IsRealtime() {
					_ = KillPstree(os.Getpid(), false, 0)
				}
				os.Exit(1)
			}
		}()
		setThreadName(b.name)

		ack := make(chan bool)
		handoff <- tidHandoff{tid: unix.Gettid(), ack: ack}
		ok := <-ack
		if !ok {
			if b.parkOnErrors {
				select {}
			}
			panic(fmt.Sprintf("rtthread: %s: failed to apply RT parameters", b.name))
		}

		task.value = f()
		close(task.done)
	}()

	h := <-handoff
	task.tid = h.tid
	err := applyThreadParams(h.tid, b.rtParams)
	h.ack <- (err == nil)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SpawnPeriodic runs f forever, once per interval.Tick call, on a dedicated
// thread built per b. Tick's return value only reflects whether the tick
// landed on time or a missed-tick policy kicked in; f still runs every
// iteration regardless.
func SpawnPeriodic(b *Builder, f func(), interval interface{ Tick() bool }) (*Task[struct{}], error) {
	return Spawn(b, func() struct{} {
		for {
			interval.Tick()
			f()
		}
	})
}

// NumCPUs reports the number of physical CPUs visible to the system by
// reading /proc/cpuinfo directly, rather than runtime.NumCPU's cgroup/affinity-
// aware count — useful when planning CPU-affinity sets that include CPUs
// isolated from the Go scheduler.
func NumCPUs() (int, error) {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return 0, relayrt.Wrap(relayrt.KindIO, "read /proc/cpuinfo", err)
	}
	count := 0
	start := 0
	for i, b := range data {
		if b == '\n' {
			line := string(data[start:i])
			if len(line) >= 9 && line[:9] == "processor" {
				count++
			}
			start = i + 1
		}
	}
	return count, nil
}
