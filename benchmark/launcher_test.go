package benchmark

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncherRunsEveryWorker(t *testing.T) {
	l := NewLauncher(3, false)
	var ran atomic.Int32
	seen := make([]atomic.Bool, 3)

	before := Now()
	stopped, err := l.Launch(context.Background(), 20*time.Millisecond, func(tid int) error {
		ran.Add(1)
		seen[tid].Store(true)
		for !l.StopFlag().Load() {
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), ran.Load())
	for tid := range seen {
		assert.True(t, seen[tid].Load(), "worker %d", tid)
	}
	assert.True(t, l.StopFlag().Load())
	assert.False(t, stopped.Wall.Before(before.Wall.Add(20*time.Millisecond)))
	assert.GreaterOrEqual(t, stopped.Clk, before.Clk)
}

func TestLauncherWorkerErrorStopsRun(t *testing.T) {
	l := NewLauncher(2, false)
	boom := errors.New("boom")

	start := time.Now()
	_, err := l.Launch(context.Background(), time.Hour, func(tid int) error {
		if tid == 0 {
			return boom
		}
		for !l.StopFlag().Load() {
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestLauncherContextCancel(t *testing.T) {
	l := NewLauncher(1, false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := l.Launch(ctx, time.Hour, func(int) error {
		for !l.StopFlag().Load() {
		}
		return nil
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}
