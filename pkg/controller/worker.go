package controller

import (
	"github.com/cuemby/relayrt/pkg/hub"
	"github.com/cuemby/relayrt/pkg/rtthread"
)

// WorkerOptions are the spawn-time-knowable settings a worker declares:
// thread name, optional stack size, scheduler class and priority, CPU
// affinity, and whether the supervisor should treat it as a blocking (never
// joined by JoinAll) task.
type WorkerOptions interface {
	WorkerName() string
	WorkerStackSize() int // 0 means "use the platform default"
	WorkerScheduling() rtthread.Scheduling
	WorkerPriority() *int
	WorkerCPUIDs() []int
	WorkerIsBlocking() bool
}

// Worker is the contract every spawned worker type satisfies: a run body
// plus its WorkerOptions.
type Worker[M hub.Message, V any] interface {
	WorkerOptions
	Run(ctx *Context[M, V]) error
}

// BaseWorkerOptions is an embeddable struct giving a worker type sensible
// defaults (no stack size override, SCHED_OTHER, no explicit priority, no
// CPU pinning, non-blocking) so it only needs to implement WorkerName.
type BaseWorkerOptions struct{}

func (BaseWorkerOptions) WorkerStackSize() int                  { return 0 }
func (BaseWorkerOptions) WorkerScheduling() rtthread.Scheduling { return rtthread.Other }
func (BaseWorkerOptions) WorkerPriority() *int                  { return nil }
func (BaseWorkerOptions) WorkerCPUIDs() []int                   { return nil }
func (BaseWorkerOptions) WorkerIsBlocking() bool                { return false }
