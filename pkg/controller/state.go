package controller

import "sync/atomic"

// Kind is one of the controller's lifecycle states. Non-negative values
// are "online"; negative values are shutdown phases.
type Kind int32

const (
	Starting Kind = 0
	Active   Kind = 1
	Running  Kind = 2
	Stopping Kind = -1
	Stopped  Kind = -100
	Unknown  Kind = -128
)

func kindFromInt32(v int32) Kind {
	switch Kind(v) {
	case Starting, Active, Running, Stopping, Stopped:
		return Kind(v)
	default:
		return Unknown
	}
}

// State is a lock-free atomic lifecycle beacon, shared by every clone of a
// Controller's handles.
type State struct {
	v atomic.Int32
}

// NewState returns a State initialized to Starting.
func NewState() *State {
	s := &State{}
	s.v.Store(int32(Starting))
	return s
}

func (s *State) Set(k Kind) { s.v.Store(int32(k)) }
func (s *State) Get() Kind  { return kindFromInt32(s.v.Load()) }

// IsOnline reports whether the state is Starting or later in the normal
// lifecycle (Starting, Active, Running) as opposed to a shutdown phase.
func (s *State) IsOnline() bool { return s.Get() >= Starting }
