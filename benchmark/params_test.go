package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	cfg, err := ParseParams([]string{"-t=4", "-n=100", "-d=5", "-s=1000", "-op0=20", "-op1=80"}, 2)
	require.NoError(t, err)
	assert.Equal(t, WorkloadConfig{
		Threads:  4,
		MaxNoise: 100,
		Duration: 5,
		InitSize: 1000,
		OpDist:   []uint32{20, 80},
	}, cfg)
}

func TestParseParamsOrderIndependent(t *testing.T) {
	cfg, err := ParseParams([]string{"-op1=80", "-s=0", "-op0=20", "-d=1", "-t=1", "-n=0"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{20, 80}, cfg.OpDist)
	assert.Equal(t, uint32(1), cfg.Threads)
}

func TestParseParamsErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		numOps int
		want   error
	}{
		{
			name:   "missing duration",
			args:   []string{"-t=4", "-n=100", "-s=1000", "-op0=100"},
			numOps: 1,
			want:   ErrParamMissing,
		},
		{
			name:   "missing op weight",
			args:   []string{"-t=4", "-n=100", "-d=5", "-s=1000", "-op0=100"},
			numOps: 2,
			want:   ErrParamMissing,
		},
		{
			name:   "three weights for two operations",
			args:   []string{"-t=4", "-n=100", "-d=5", "-s=1000", "-op0=20", "-op1=30", "-op2=50"},
			numOps: 2,
			want:   ErrParamsIncorrectCount,
		},
		{
			name:   "unknown parameter",
			args:   []string{"-t=4", "-x=100", "-d=5", "-s=1000", "-op0=100"},
			numOps: 1,
			want:   ErrParamsCannotParse,
		},
		{
			name:   "not a number",
			args:   []string{"-t=four", "-n=100", "-d=5", "-s=1000", "-op0=100"},
			numOps: 1,
			want:   ErrParamsCannotParse,
		},
		{
			name:   "overflows uint32",
			args:   []string{"-t=4", "-n=4294967296", "-d=5", "-s=1000", "-op0=100"},
			numOps: 1,
			want:   ErrParamsCannotParse,
		},
		{
			name:   "weights do not sum to 100",
			args:   []string{"-t=4", "-n=100", "-d=5", "-s=1000", "-op0=20", "-op1=70"},
			numOps: 2,
			want:   ErrParamMismatch,
		},
		{
			name:   "operation index out of range",
			args:   []string{"-t=4", "-n=100", "-d=5", "-s=1000", "-op0=20", "-op2=80"},
			numOps: 2,
			want:   ErrParamMismatch,
		},
		{
			name:   "zero threads",
			args:   []string{"-t=0", "-n=100", "-d=5", "-s=1000", "-op0=100"},
			numOps: 1,
			want:   ErrParamMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams(tt.args, tt.numOps)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWorkloadConfigFields(t *testing.T) {
	cfg := WorkloadConfig{Threads: 2, MaxNoise: 10, Duration: 3, InitSize: 7, OpDist: []uint32{40, 60}}
	assert.Equal(t, []Field{
		{Key: "num_threads", Value: "2"},
		{Key: "init_sz", Value: "7"},
		{Key: "max_noise", Value: "10"},
		{Key: "duration", Value: "3"},
		{Key: "op0_dist", Value: "40"},
		{Key: "op1_dist", Value: "60"},
	}, cfg.Fields())
}
