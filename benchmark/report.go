package benchmark

import (
	"io"
	"strconv"
	"strings"
)

// DefaultDelimiter separates report fields.
const DefaultDelimiter = ';'

// Field is one key=value entry of the report line. A field without a key
// is written verbatim.
type Field struct {
	Key   string
	Value string
}

// Fields flattens the summary into report order: target name, extra info,
// run parameters, per-operation stats, universal stats, throughput bounds,
// calibration, duration bounds and resource usage.
func (s Summary) Fields() []Field {
	fields := []Field{{Key: "algo_name", Value: s.Target}}
	if s.ExtraInfo != "" {
		fields = append(fields, Field{Value: s.ExtraInfo})
	}
	fields = append(fields, s.Params...)

	for _, op := range s.Ops {
		fields = append(fields, op.fields(op.Name+"_")...)
		fields = append(fields, Field{Key: op.Name + "_histogram", Value: joinHistogram(op.Histogram)})
		for _, p := range op.Percentiles {
			fields = append(fields, Field{Key: op.Name + "_" + p.Name, Value: strconv.FormatInt(p.Value, 10)})
		}
	}
	fields = append(fields, s.Universal.fields("univ_")...)

	fields = append(fields,
		Field{Key: "throughput_max", Value: formatFloat(s.ThroughputMax, 8)},
		Field{Key: "throughput_min", Value: formatFloat(s.ThroughputMin, 8)},
		Field{Key: "throughput_max_ts", Value: formatFloat(s.ThroughputMaxTS, 8)},
		Field{Key: "throughput_min_ts", Value: formatFloat(s.ThroughputMinTS, 8)},
		Field{Key: "ticks_to_ms", Value: formatUint(s.TicksPerMs)},
		Field{Key: "duration_max_ms", Value: formatUint(s.DurationMaxMs)},
		Field{Key: "duration_max_clk", Value: formatUint(s.DurationMaxClk)},
		Field{Key: "duration_min_ms", Value: formatUint(s.DurationMinMs)},
		Field{Key: "duration_min_clk", Value: formatUint(s.DurationMinClk)},
	)
	return append(fields, s.Usage.fields()...)
}

func (o OpSummary) fields(prefix string) []Field {
	return []Field{
		{Key: prefix + "max", Value: formatUint(o.Max)},
		{Key: prefix + "min", Value: formatUint(o.Min)},
		{Key: prefix + "sum", Value: formatUint(o.Sum)},
		{Key: prefix + "count", Value: formatUint(o.Count)},
		{Key: prefix + "succ_count", Value: formatUint(o.SuccCount)},
		{Key: prefix + "skipped_count", Value: formatUint(o.SkippedCount)},
		{Key: prefix + "avg", Value: formatFloat(o.Avg, 2)},
		{Key: prefix + "succ_percent", Value: formatFloat(o.SuccPercent, 2)},
	}
}

// FormatReport renders fields as one line, every field followed by delim.
func FormatReport(fields []Field, delim byte) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Key != "" {
			b.WriteString(f.Key)
			b.WriteByte('=')
		}
		b.WriteString(f.Value)
		b.WriteByte(delim)
	}
	return b.String()
}

// WriteReport writes the summary as a single newline-terminated line.
func WriteReport(w io.Writer, s Summary, delim byte) error {
	_, err := io.WriteString(w, FormatReport(s.Fields(), delim)+"\n")
	return err
}

// ParseReport splits a report line back into key/value pairs. Entries
// without '=' are returned with an empty key.
func ParseReport(line string, delim byte) []Field {
	line = strings.TrimRight(line, "\r\n")
	var fields []Field
	for _, part := range strings.Split(line, string(delim)) {
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			fields = append(fields, Field{Value: part})
			continue
		}
		fields = append(fields, Field{Key: k, Value: v})
	}
	return fields
}

func joinHistogram(h [NumBuckets]uint64) string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = formatUint(c)
	}
	return strings.Join(parts, ",")
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatFloat(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
