package benchmark

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	// NumBuckets is the fixed histogram size of every operation.
	NumBuckets = 60

	bucketFirst  = 99
	bucketGrowth = 1.1

	// latency percentiles track 1 tick .. percentileMax ticks
	percentileMax     = 100_000_000_000
	percentileSigFigs = 3

	cacheLine = 128
)

// BucketBoundaries are the inclusive upper bounds of the histogram buckets,
// in ticks. Each bucket is 1.1 times wider than the previous one.
type BucketBoundaries [NumBuckets]uint64

// NewBucketBoundaries computes the boundaries used by every run.
func NewBucketBoundaries() BucketBoundaries {
	return computeBoundaries(bucketFirst, bucketGrowth)
}

func computeBoundaries(first uint64, growth float64) BucketBoundaries {
	var (
		b  BucketBoundaries
		lo uint64
		hi = first
	)
	for i := range b {
		b[i] = hi
		prev := hi
		hi = uint64(float64(hi) + float64(hi-lo+1)*growth)
		lo = prev + 1
	}
	return b
}

// Index returns the first bucket whose boundary is >= d. Durations above
// the last boundary land in the last bucket.
func (b *BucketBoundaries) Index(d uint64) int {
	idx := sort.Search(NumBuckets, func(i int) bool { return b[i] >= d })
	if idx == NumBuckets {
		idx--
	}
	return idx
}

// OpStat aggregates one operation type. During a run it is only written by
// the worker owning it.
type OpStat struct {
	SuccCount    uint64
	Count        uint64
	SkippedCount uint64
	Sum          uint64
	Min          uint64
	Max          uint64
	Histogram    [NumBuckets]uint64

	samples uint64 // non-skipped recordings
	latency *hdrhistogram.Histogram
}

func newOpStat(percentiles bool) OpStat {
	s := OpStat{Min: math.MaxUint64}
	if percentiles {
		s.latency = hdrhistogram.New(1, percentileMax, percentileSigFigs)
	}
	return s
}

// Record folds one dispatch into the stat. A skipped iteration only counts
// as skipped.
func (s *OpStat) Record(bounds *BucketBoundaries, res OpResult, duration uint64, skipped bool) {
	if skipped {
		s.SkippedCount++
		return
	}
	s.SuccCount += res.Succeeded
	s.Count += res.Attempted
	s.Sum += duration
	s.Min = min(s.Min, duration)
	s.Max = max(s.Max, duration)
	s.Histogram[bounds.Index(duration)]++
	s.samples++

	if s.latency != nil {
		v := int64(min(duration, percentileMax))
		if err := s.latency.RecordValue(v); err != nil {
			panic(fmt.Sprintf("benchmark: recording latency %d: %v", v, err))
		}
	}
}

// MergeOpStats combines two stats of the same operation type. Counters and
// histogram cells add up, Min and Max keep the extremes.
func MergeOpStats(a, b OpStat) OpStat {
	out := OpStat{
		SuccCount:    a.SuccCount + b.SuccCount,
		Count:        a.Count + b.Count,
		SkippedCount: a.SkippedCount + b.SkippedCount,
		Sum:          a.Sum + b.Sum,
		Min:          min(a.Min, b.Min),
		Max:          max(a.Max, b.Max),
		samples:      a.samples + b.samples,
	}
	for i := range out.Histogram {
		out.Histogram[i] = a.Histogram[i] + b.Histogram[i]
	}
	if a.latency != nil || b.latency != nil {
		out.latency = hdrhistogram.New(1, percentileMax, percentileSigFigs)
		for _, h := range []*hdrhistogram.Histogram{a.latency, b.latency} {
			if h != nil {
				out.latency.Merge(h)
			}
		}
	}
	return out
}

// Samples returns the number of non-skipped recordings.
func (s *OpStat) Samples() uint64 { return s.samples }

// HistogramSum returns the total of all histogram cells.
func (s *OpStat) HistogramSum() uint64 {
	var sum uint64
	for _, c := range s.Histogram {
		sum += c
	}
	return sum
}

// ThreadStat holds the stats of one worker, one OpStat per operation type,
// plus the worker's own start and end timestamps.
type ThreadStat struct {
	Ops []OpStat

	StartWall, EndWall time.Time
	StartClk, EndClk   uint64

	bounds   *BucketBoundaries
	progress atomic.Uint64
	_        [cacheLine]byte
}

// Record folds one dispatch of op into the worker stats.
func (t *ThreadStat) Record(op int, res OpResult, duration uint64, skipped bool) {
	t.Ops[op].Record(t.bounds, res, duration, skipped)
}

// WallDuration is the time the worker spent in its dispatch loop.
func (t *ThreadStat) WallDuration() time.Duration { return t.EndWall.Sub(t.StartWall) }

// ClkDuration is the number of ticks the worker spent in its dispatch loop.
func (t *ThreadStat) ClkDuration() uint64 { return t.EndClk - t.StartClk }

// RunStat collects every worker's stats for one run.
type RunStat struct {
	Threads []*ThreadStat
	Bounds  BucketBoundaries

	StartWall, StopWall time.Time
	StartClk, StopClk   uint64
	TicksPerMs          uint64
}

// NewRunStat allocates zeroed stats for threads workers and ops operation
// types. percentiles additionally tracks an HDR histogram per operation.
func NewRunStat(threads, ops int, percentiles bool) *RunStat {
	rs := &RunStat{
		Threads: make([]*ThreadStat, threads),
		Bounds:  NewBucketBoundaries(),
	}
	for i := range rs.Threads {
		ts := &ThreadStat{Ops: make([]OpStat, ops), bounds: &rs.Bounds}
		for op := range ts.Ops {
			ts.Ops[op] = newOpStat(percentiles)
		}
		rs.Threads[i] = ts
	}
	return rs
}

// Progress returns the approximate number of dispatches so far. It is safe
// to call while the run is in flight.
func (rs *RunStat) Progress() uint64 {
	var n uint64
	for _, ts := range rs.Threads {
		n += ts.progress.Load()
	}
	return n
}

// Percentile is one latency quantile estimate in ticks.
type Percentile struct {
	Name     string
	Quantile float64
	Value    int64
}

var reportedQuantiles = []struct {
	name string
	q    float64
}{
	{"p50", 50},
	{"p90", 90},
	{"p99", 99},
	{"p999", 99.9},
}

// OpSummary is the merged view of one operation type across all workers.
type OpSummary struct {
	Name string
	OpStat
	Avg         float64
	SuccPercent float64
	Percentiles []Percentile
}

func summarizeOp(name string, s OpStat) OpSummary {
	if s.HistogramSum() != s.samples {
		panic(fmt.Sprintf("benchmark: %s histogram holds %d samples, recorded %d", name, s.HistogramSum(), s.samples))
	}
	out := OpSummary{Name: name, OpStat: s}
	if out.Min == math.MaxUint64 {
		out.Min = 0
	}
	if s.Count != 0 {
		out.Avg = float64(s.Sum) / float64(s.Count)
		out.SuccPercent = float64(s.SuccCount) * 100 / float64(s.Count)
	}
	if s.latency != nil {
		for _, q := range reportedQuantiles {
			out.Percentiles = append(out.Percentiles, Percentile{
				Name:     q.name,
				Quantile: q.q,
				Value:    s.latency.ValueAtQuantile(q.q),
			})
		}
	}
	return out
}

// Summary is the merged result of a run.
type Summary struct {
	Target    string
	ExtraInfo string
	Params    []Field

	Ops       []OpSummary
	Universal OpSummary

	ThroughputMax   float64 // ops/s over the shortest worker wall duration
	ThroughputMin   float64 // ops/s over the longest worker wall duration
	ThroughputMaxTS float64 // ops/s over the shortest worker tick duration
	ThroughputMinTS float64 // ops/s over the longest worker tick duration
	TicksPerMs      uint64

	DurationMaxMs, DurationMinMs   uint64
	DurationMaxClk, DurationMinClk uint64

	Usage ResourceUsage
}

// Summarize merges all workers' stats. It must only be called after every
// worker has joined. names holds one entry per operation type.
func (rs *RunStat) Summarize(names []string) Summary {
	merged := make([]OpStat, len(names))
	for op := range merged {
		merged[op] = newOpStat(false)
	}
	for tid, ts := range rs.Threads {
		if len(ts.Ops) != len(names) {
			panic(fmt.Sprintf("benchmark: thread %d has %d op stats, want %d", tid, len(ts.Ops), len(names)))
		}
		for op := range ts.Ops {
			merged[op] = MergeOpStats(merged[op], ts.Ops[op])
		}
	}

	sum := Summary{TicksPerMs: rs.TicksPerMs}
	univ := newOpStat(false)
	for op, s := range merged {
		sum.Ops = append(sum.Ops, summarizeOp(names[op], s))
		univ = MergeOpStats(univ, s)
	}
	sum.Universal = summarizeOp("univ", univ)

	sum.DurationMinMs, sum.DurationMaxMs, sum.DurationMinClk, sum.DurationMaxClk = rs.durationBounds()

	count := sum.Universal.Count
	sum.ThroughputMax = throughput(count, 1, sum.DurationMinMs)
	sum.ThroughputMin = throughput(count, 1, sum.DurationMaxMs)
	sum.ThroughputMaxTS = throughput(count, rs.TicksPerMs, sum.DurationMinClk)
	sum.ThroughputMinTS = throughput(count, rs.TicksPerMs, sum.DurationMaxClk)
	return sum
}

func (rs *RunStat) durationBounds() (minMs, maxMs, minClk, maxClk uint64) {
	if len(rs.Threads) == 0 {
		return 0, 0, 0, 0
	}
	minMs, minClk = math.MaxUint64, math.MaxUint64
	for _, ts := range rs.Threads {
		ms := uint64(max(ts.WallDuration().Milliseconds(), 0))
		clk := ts.ClkDuration()
		minMs, maxMs = min(minMs, ms), max(maxMs, ms)
		minClk, maxClk = min(minClk, clk), max(maxClk, clk)
	}
	return minMs, maxMs, minClk, maxClk
}

// throughput converts count operations over duration units into operations
// per second, where ticksPerMs units make up one millisecond. Durations
// shorter than one unit count as one unit.
func throughput(count, ticksPerMs, duration uint64) float64 {
	if count == 0 || ticksPerMs == 0 {
		return 0
	}
	return float64(count) * 1000 * float64(ticksPerMs) / float64(max(duration, 1))
}
