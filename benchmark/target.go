package benchmark

import (
	"errors"
	"fmt"
)

// OpResult is the outcome of one dispatch. Attempted may exceed one when a
// single call performs several logical steps (accept, read, write).
type OpResult struct {
	Attempted uint64
	Succeeded uint64
}

// ThreadContext is target-defined per-thread state. It is created by
// RegisterThread and only ever used by the worker that owns it.
type ThreadContext any

// Target describes a benchmark target. The operation set is fixed for the
// lifetime of the process.
type Target interface {
	// Name identifies the target in reports.
	Name() string

	// OperationCount returns how many operation types the target exposes.
	OperationCount() int

	// OperationName returns the report prefix of operation op.
	OperationName(op int) string

	// Init performs the one-time setup and returns the run-wide handle.
	// It is called exactly once, before any worker starts.
	Init(cfg TargetConfig) (Handle, error)
}

// Handle is the run-wide state returned by Target.Init. It outlives every
// worker. Dispatch is called concurrently from different workers; a handle
// sharing mutable resources across workers synchronizes them itself.
type Handle interface {
	// RegisterThread creates the context of worker tid. Called once per
	// worker, before its first dispatch.
	RegisterThread(tid int) (ThreadContext, error)

	// Dispatch executes one unit of operation op. It must not block for
	// longer than a bounded interval so the stop signal is observed.
	Dispatch(tc ThreadContext, op int) OpResult

	// DeregisterThread releases the context of worker tid after its last
	// dispatch.
	DeregisterThread(tc ThreadContext, tid int)

	// ExtraInfo returns free text appended to the report. Empty means none.
	ExtraInfo() string

	// Destroy releases every target resource. Called once after all workers
	// have joined.
	Destroy() error
}

// TargetConfig is handed to Target.Init.
type TargetConfig struct {
	Workload WorkloadConfig
	Seed     uint64 // 0 seeds from the clock

	KVServer KVServerConfig
	Pebble   PebbleConfig
}

// KVServerConfig holds kvserver-specific options.
type KVServerConfig struct {
	Host string // listen host, empty binds all interfaces
}

// PebbleConfig holds pebble-specific options.
type PebbleConfig struct {
	Dir            string // store directory, empty keeps the store in memory
	ValueSize      int    // bytes per value
	BlockCacheSize int64  // bytes, negative disables the block cache
	KeysFile       string // optional key file replacing derived keys
}

// Registered target names.
const (
	TargetEmpty    = "empty"
	TargetKVServer = "kvserver"
	TargetPebble   = "pebble"
)

var (
	ErrTargetNotFound      = errors.New("target not found")
	ErrUnsupportedPlatform = errors.New("target not supported on this platform")
)

// TargetNames lists the registered targets.
func TargetNames() []string {
	return []string{TargetEmpty, TargetKVServer, TargetPebble}
}

// NewTarget returns the target registered under name.
func NewTarget(name string) (Target, error) {
	switch name {
	case TargetEmpty:
		return EmptyTarget{}, nil
	case TargetKVServer:
		return KVServerTarget{}, nil
	case TargetPebble:
		return PebbleTarget{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, name)
	}
}

// OperationNames returns every operation name of t in index order.
func OperationNames(t Target) []string {
	names := make([]string, t.OperationCount())
	for i := range names {
		names[i] = t.OperationName(i)
	}
	return names
}
