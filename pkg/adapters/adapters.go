// Package adapters declares the contracts the runtime expects from the
// I/O collaborators that surround it: fieldbus protocol codecs, HMI
// integration, subprocess pipes, and raw-input sources. The core itself
// requires only the Worker contract (pkg/controller.Worker) from anything
// that publishes or consumes Hub messages; this package gives each
// collaborator a Go interface shape so a concrete implementation has
// somewhere to attach without inventing its own contract. Wire formats and
// transport details live entirely behind these interfaces.
package adapters

import "context"

// ModbusClient polls or writes holding/input/coil registers against a
// Modbus TCP or RTU device.
type ModbusClient interface {
	ReadHoldingRegisters(ctx context.Context, address, count uint16) ([]uint16, error)
	WriteSingleRegister(ctx context.Context, address, value uint16) error
	Close() error
}

// ModbusServer exposes a register bank to remote Modbus masters.
type ModbusServer interface {
	SetHoldingRegister(address uint16, value uint16) error
	HoldingRegister(address uint16) (uint16, error)
	Serve(ctx context.Context) error
}

// SNMPAgent exposes OIDs for polling by an external SNMP manager.
type SNMPAgent interface {
	SetOID(oid string, value any) error
	Serve(ctx context.Context) error
}

// RawUDPSource publishes a fixed-layout UDP datagram stream into the Hub.
type RawUDPSource interface {
	Listen(ctx context.Context) error
	Close() error
}

// EVAICSClient talks to an EVA ICS bus for state/action exchange with a
// SCADA-style supervisory system.
type EVAICSClient interface {
	State(ctx context.Context, oid string) (any, error)
	Action(ctx context.Context, oid string, params map[string]any) error
	Close() error
}

// SubprocessPipe runs a child process and exchanges line-delimited data
// with it over stdin/stdout: a write side and a line-reader side backed by
// a policy channel.
type SubprocessPipe interface {
	WriteLine(line string) error
	ReadLine(ctx context.Context) (string, error)
	Close() error
}

// KeyboardListener reports raw key press/release events from input
// devices.
type KeyboardListener interface {
	Events(ctx context.Context) (<-chan KeyEvent, error)
	Close() error
}

// KeyState is a three-way Pressed/Released/Other key state; Other carries
// the raw evdev value for codes this runtime doesn't interpret.
type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
	KeyOther
)

// KeyEvent is one reported keyboard event.
type KeyEvent struct {
	Code  int
	State KeyState
	Raw   int // populated when State == KeyOther
}

// HMI is the minimal surface an HMI integration needs from the core: a
// way to push a snapshot of current values and pull back operator
// commands, independent of the actual HMI wire protocol.
type HMI interface {
	PushSnapshot(ctx context.Context, values map[string]any) error
	PullCommands(ctx context.Context) (map[string]any, error)
}
