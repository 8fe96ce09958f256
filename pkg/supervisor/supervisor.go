// Package supervisor maintains a name-keyed registry of threads spawned
// through pkg/rtthread, so a controller can look up, detach, or join its
// workers and background tasks by name.
package supervisor

import (
	"sort"
	"sync"

	"github.com/cuemby/relayrt"
	"github.com/cuemby/relayrt/pkg/rtthread"
	"github.com/cuemby/relayrt/pkg/rttime"
)

// Supervisor owns a name-keyed map of Tasks. The zero value is not usable;
// construct with New.
type Supervisor[T any] struct {
	mu    sync.Mutex
	tasks map[string]*rtthread.Task[T]
}

func New[T any]() *Supervisor[T] {
	return &Supervisor[T]{tasks: make(map[string]*rtthread.Task[T])}
}

// Spawn builds and registers a new task. The builder's name must be set and
// not already registered.
func (s *Supervisor[T]) Spawn(b *rtthread.Builder, f func() T) (*rtthread.Task[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserve(b.Name()); err != nil {
		return nil, err
	}
	task, err := rtthread.Spawn(b, f)
	if err != nil {
		return nil, err
	}
	s.tasks[b.Name()] = task
	return task, nil
}

// SpawnPeriodic builds, registers, and runs a periodic task gated by
// interval.Tick. A periodic body never returns on its own, so it is only
// meaningful on a Supervisor[struct{}] — the same instantiation a
// Controller uses for its worker/task registry.
func SpawnPeriodic(s *Supervisor[struct{}], b *rtthread.Builder, f func(), interval *rttime.Interval) (*rtthread.Task[struct{}], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reserve(b.Name()); err != nil {
		return nil, err
	}
	task, err := rtthread.SpawnPeriodic(b, f, interval)
	if err != nil {
		return nil, err
	}
	s.tasks[b.Name()] = task
	return task, nil
}

func (s *Supervisor[T]) reserve(name string) error {
	if name == "" {
		return relayrt.New(relayrt.KindSupervisorNameNotSpecified, "")
	}
	if _, exists := s.tasks[name]; exists {
		return relayrt.New(relayrt.KindSupervisorDuplicateTask, name)
	}
	return nil
}

// Len reports the number of registered tasks.
func (s *Supervisor[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get returns the named task, if registered.
func (s *Supervisor[T]) Get(name string) (*rtthread.Task[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	return t, ok
}

// Take removes and returns the named task without joining it.
func (s *Supervisor[T]) Take(name string) (*rtthread.Task[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	if ok {
		delete(s.tasks, name)
	}
	return t, ok
}

// Forget removes the named task from the registry without joining it.
// Returns an error if the name isn't registered.
func (s *Supervisor[T]) Forget(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[name]; !ok {
		return relayrt.New(relayrt.KindSupervisorTaskNotFound, name)
	}
	delete(s.tasks, name)
	return nil
}

// Purge removes every finished task from the registry.
func (s *Supervisor[T]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.tasks {
		if t.IsFinished() {
			delete(s.tasks, name)
		}
	}
}

// JoinAll joins every non-blocking task (blocking tasks are detached, not
// awaited) and drains the entire registry, returning each joined task's
// result keyed by name.
func (s *Supervisor[T]) JoinAll() map[string]T {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*rtthread.Task[T])
	s.mu.Unlock()

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make(map[string]T, len(tasks))
	for _, name := range names {
		t := tasks[name]
		if t.Blocking() {
			continue
		}
		result[name] = t.Join()
	}
	return result
}
