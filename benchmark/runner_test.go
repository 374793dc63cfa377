package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	ops    int
	inits  atomic.Int32
	handle *countingHandle
}

func (t *countingTarget) Name() string { return "bm_counting" }

func (t *countingTarget) OperationCount() int { return t.ops }

func (t *countingTarget) OperationName(op int) string { return fmt.Sprintf("op%d_count", op) }

func (t *countingTarget) Init(TargetConfig) (Handle, error) {
	t.inits.Add(1)
	return t.handle, nil
}

type countingHandle struct {
	failOn int // tid+1 whose registration fails, 0 for none

	registered   atomic.Int32
	deregistered atomic.Int32
	destroyed    atomic.Int32
	dispatched   atomic.Uint64
}

var errRegister = errors.New("register refused")

func (h *countingHandle) RegisterThread(tid int) (ThreadContext, error) {
	if tid+1 == h.failOn {
		return nil, errRegister
	}
	h.registered.Add(1)
	return tid, nil
}

func (h *countingHandle) Dispatch(ThreadContext, int) OpResult {
	h.dispatched.Add(1)
	return OpResult{Attempted: 1, Succeeded: 1}
}

func (h *countingHandle) DeregisterThread(ThreadContext, int) { h.deregistered.Add(1) }

func (h *countingHandle) ExtraInfo() string { return "" }

func (h *countingHandle) Destroy() error {
	h.destroyed.Add(1)
	return nil
}

func testConfig(threads uint32, dist ...uint32) Config {
	return Config{
		Workload:          WorkloadConfig{Threads: threads, Duration: 1, OpDist: dist},
		CalibrationWindow: 10 * time.Millisecond,
		Seed:              1,
	}
}

func TestRunBenchmarkEmpty(t *testing.T) {
	cfg := testConfig(2, 100)
	cfg.Target = TargetEmpty
	cfg.ProgressInterval = 100 * time.Millisecond

	var out bytes.Buffer
	s, err := RunBenchmark(context.Background(), cfg, &out)
	require.NoError(t, err)

	assert.Equal(t, "bm_empty", s.Target)
	assert.Positive(t, s.Universal.Count)
	assert.InDelta(t, 100.0, s.Universal.SuccPercent, 1e-9)
	assert.Equal(t, s.Universal.Count, s.Universal.HistogramSum())
	assert.Positive(t, s.TicksPerMs)
	assert.LessOrEqual(t, s.ThroughputMin, s.ThroughputMax)
	assert.LessOrEqual(t, s.ThroughputMinTS, s.ThroughputMaxTS)

	m := fieldMap(ParseReport(out.String(), DefaultDelimiter))
	assert.Equal(t, "bm_empty", m["algo_name"])
	assert.Equal(t, "2", m["num_threads"])
	assert.Equal(t, "100", m["op0_dist"])
	assert.Equal(t, "100.00", m["univ_succ_percent"])
	assert.Equal(t, "100.00", m["op0_nop_succ_percent"])
	assert.Equal(t, formatUint(s.Universal.Count), m["univ_count"])
}

func TestRunTargetLifecycle(t *testing.T) {
	target := &countingTarget{ops: 2, handle: &countingHandle{}}
	cfg := testConfig(3, 30, 70)
	cfg.Delimiter = '|'
	cfg.Percentiles = true

	var out bytes.Buffer
	s, err := runTarget(context.Background(), cfg, target, &out)
	require.NoError(t, err)

	h := target.handle
	assert.Equal(t, int32(1), target.inits.Load())
	assert.Equal(t, int32(3), h.registered.Load())
	assert.Equal(t, int32(3), h.deregistered.Load())
	assert.Equal(t, int32(1), h.destroyed.Load())
	assert.Equal(t, h.dispatched.Load(), s.Universal.Count)
	require.Len(t, s.Ops, 2)
	assert.Len(t, s.Ops[1].Percentiles, 4)

	m := fieldMap(ParseReport(out.String(), '|'))
	assert.Contains(t, m, "op1_count_p99")
	assert.Equal(t, "30", m["op0_dist"])
}

func TestRunTargetRegisterError(t *testing.T) {
	target := &countingTarget{ops: 1, handle: &countingHandle{failOn: 2}}

	var out bytes.Buffer
	_, err := runTarget(context.Background(), testConfig(2, 100), target, &out)
	require.ErrorIs(t, err, errRegister)
	assert.Equal(t, int32(1), target.handle.destroyed.Load())
	assert.Empty(t, out.String())
}

func TestRunTargetRejectsWeightMismatch(t *testing.T) {
	target := &countingTarget{ops: 2, handle: &countingHandle{}}

	_, err := runTarget(context.Background(), testConfig(1, 100), target, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrParamMismatch)
	assert.Zero(t, target.inits.Load())
}

func TestRunBenchmarkUnknownTarget(t *testing.T) {
	cfg := testConfig(1, 100)
	cfg.Target = "nope"
	_, err := RunBenchmark(context.Background(), cfg, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestRunBenchmarkCancelled(t *testing.T) {
	cfg := testConfig(1, 100)
	cfg.Target = TargetEmpty
	cfg.Workload.Duration = 60

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	s, err := RunBenchmark(ctx, cfg, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)
	assert.Positive(t, s.Universal.Count)
}
