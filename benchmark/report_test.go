package benchmark

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMap(fields []Field) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func fieldKeys(fields []Field) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func testSummary() Summary {
	op := OpSummary{Name: "op0_nop", Avg: 12.346, SuccPercent: 100}
	op.Count, op.SuccCount, op.Sum, op.Min, op.Max = 4, 4, 49, 3, 20
	op.Histogram[0] = 4
	op.Percentiles = []Percentile{{Name: "p50", Quantile: 50, Value: 11}}

	univ := op
	univ.Name = "univ"
	univ.Percentiles = nil

	return Summary{
		Target:          "bm_test",
		ExtraInfo:       "kv_addr=127.0.0.1:1",
		Params:          WorkloadConfig{Threads: 1, Duration: 1, OpDist: []uint32{100}}.Fields(),
		Ops:             []OpSummary{op},
		Universal:       univ,
		ThroughputMax:   2,
		ThroughputMin:   1,
		ThroughputMaxTS: 2.5,
		ThroughputMinTS: 1.25,
		TicksPerMs:      3000,
		DurationMaxMs:   1001,
		DurationMaxClk:  3_003_000,
		DurationMinMs:   1000,
		DurationMinClk:  3_000_000,
		Usage:           ResourceUsage{SysTimeMicros: 5, UsrTimeMicros: 6, MaxRSSKB: 7},
	}
}

func TestSummaryFieldsOrder(t *testing.T) {
	keys := fieldKeys(testSummary().Fields())

	want := []string{
		"algo_name", "",
		"num_threads", "init_sz", "max_noise", "duration", "op0_dist",
		"op0_nop_max", "op0_nop_min", "op0_nop_sum", "op0_nop_count",
		"op0_nop_succ_count", "op0_nop_skipped_count", "op0_nop_avg", "op0_nop_succ_percent",
		"op0_nop_histogram", "op0_nop_p50",
		"univ_max", "univ_min", "univ_sum", "univ_count",
		"univ_succ_count", "univ_skipped_count", "univ_avg", "univ_succ_percent",
		"throughput_max", "throughput_min", "throughput_max_ts", "throughput_min_ts",
		"ticks_to_ms",
		"duration_max_ms", "duration_max_clk", "duration_min_ms", "duration_min_clk",
		"sys_time", "usr_time", "max_rss_kb",
	}
	assert.Equal(t, want, keys)
}

func TestSummaryFieldsFormat(t *testing.T) {
	m := fieldMap(testSummary().Fields())

	assert.Equal(t, "bm_test", m["algo_name"])
	assert.Equal(t, "kv_addr=127.0.0.1:1", m[""])
	assert.Equal(t, "12.35", m["op0_nop_avg"])
	assert.Equal(t, "100.00", m["op0_nop_succ_percent"])
	assert.Equal(t, "2.00000000", m["throughput_max"])
	assert.Equal(t, "1.25000000", m["throughput_min_ts"])
	assert.Equal(t, "3000", m["ticks_to_ms"])
	assert.Equal(t, "11", m["op0_nop_p50"])

	hist := strings.Split(m["op0_nop_histogram"], ",")
	require.Len(t, hist, NumBuckets)
	assert.Equal(t, "4", hist[0])
	assert.Equal(t, "0", hist[NumBuckets-1])
}

func TestFormatReport(t *testing.T) {
	fields := []Field{{Key: "a", Value: "1"}, {Value: "raw"}, {Key: "b", Value: "2"}}
	assert.Equal(t, "a=1;raw;b=2;", FormatReport(fields, ';'))
	assert.Equal(t, "a=1|raw|b=2|", FormatReport(fields, '|'))
	assert.Empty(t, FormatReport(nil, ';'))
}

func TestWriteReportRoundTrip(t *testing.T) {
	s := testSummary()
	s.ExtraInfo = "free text"
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, s, ';'))

	line := buf.String()
	require.True(t, strings.HasSuffix(line, ";\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))

	parsed := ParseReport(line, ';')
	assert.Equal(t, s.Fields(), parsed)
}

func TestParseReport(t *testing.T) {
	fields := ParseReport("algo_name=x|extra|k=v=w|\n", '|')
	assert.Equal(t, []Field{
		{Key: "algo_name", Value: "x"},
		{Value: "extra"},
		{Key: "k", Value: "v=w"},
	}, fields)
}
