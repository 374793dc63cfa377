package benchmark

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Configuration errors. They are reported before any worker starts.
var (
	ErrParamsIncorrectCount = errors.New("incorrect number of parameters")
	ErrParamsCannotParse    = errors.New("cannot parse parameter")
	ErrParamMismatch        = errors.New("parameter mismatch")
	ErrParamMissing         = errors.New("required parameter missing")
)

// fixedParams counts -t, -n, -d and -s.
const fixedParams = 4

var (
	paramThreads  = regexp.MustCompile(`^-t=([0-9]+)$`)
	paramNoise    = regexp.MustCompile(`^-n=([0-9]+)$`)
	paramDuration = regexp.MustCompile(`^-d=([0-9]+)$`)
	paramInitSize = regexp.MustCompile(`^-s=([0-9]+)$`)
	paramOpDist   = regexp.MustCompile(`^-op([0-9]+)=([0-9]+)$`)
)

// WorkloadConfig is the immutable description of one run. It is shared
// read-only by every worker.
type WorkloadConfig struct {
	Threads  uint32   // number of worker threads
	MaxNoise uint32   // max no-op cycles injected before each operation
	Duration uint32   // run duration in seconds
	InitSize uint32   // initial size handed to the target
	OpDist   []uint32 // per-operation weights in percent, sums to 100
}

// ParseParams parses harness arguments of the form
//
//	-t=<threads> -n=<noise> -d=<seconds> -s=<init size> -op<N>=<weight>...
//
// numOps is the operation count of the selected target; exactly one weight
// per operation is required. Surplus arguments are an incorrect count, a
// short list reports whichever fields are missing.
func ParseParams(args []string, numOps int) (WorkloadConfig, error) {
	if len(args) > fixedParams+numOps {
		return WorkloadConfig{}, fmt.Errorf("%w: got %d, want %d", ErrParamsIncorrectCount, len(args), fixedParams+numOps)
	}

	var (
		cfg    WorkloadConfig
		seen   = map[string]bool{}
		opSeen = make([]bool, numOps)
	)
	cfg.OpDist = make([]uint32, numOps)

	for _, arg := range args {
		if m := paramOpDist.FindStringSubmatch(arg); m != nil {
			idx, err := parseUint32(m[1])
			if err != nil {
				return WorkloadConfig{}, fmt.Errorf("%w: %q: %v", ErrParamsCannotParse, arg, err)
			}
			if int(idx) >= numOps {
				return WorkloadConfig{}, fmt.Errorf("%w: %q: target has %d operations", ErrParamMismatch, arg, numOps)
			}
			w, err := parseUint32(m[2])
			if err != nil {
				return WorkloadConfig{}, fmt.Errorf("%w: %q: %v", ErrParamsCannotParse, arg, err)
			}
			cfg.OpDist[idx] = w
			opSeen[idx] = true
			continue
		}

		var (
			dst  *uint32
			name string
			m    []string
		)
		switch {
		case matchInto(paramThreads, arg, &m):
			dst, name = &cfg.Threads, "-t"
		case matchInto(paramNoise, arg, &m):
			dst, name = &cfg.MaxNoise, "-n"
		case matchInto(paramDuration, arg, &m):
			dst, name = &cfg.Duration, "-d"
		case matchInto(paramInitSize, arg, &m):
			dst, name = &cfg.InitSize, "-s"
		default:
			return WorkloadConfig{}, fmt.Errorf("%w: %q", ErrParamsCannotParse, arg)
		}
		v, err := parseUint32(m[1])
		if err != nil {
			return WorkloadConfig{}, fmt.Errorf("%w: %q: %v", ErrParamsCannotParse, arg, err)
		}
		*dst = v
		seen[name] = true
	}

	var missing []string
	for _, name := range []string{"-t", "-n", "-d", "-s"} {
		if !seen[name] {
			missing = append(missing, name+"=")
		}
	}
	for i, ok := range opSeen {
		if !ok {
			missing = append(missing, fmt.Sprintf("-op%d=", i))
		}
	}
	if len(missing) > 0 {
		return WorkloadConfig{}, fmt.Errorf("%w: %s", ErrParamMissing, strings.Join(missing, " "))
	}

	if err := cfg.Validate(); err != nil {
		return WorkloadConfig{}, err
	}
	return cfg, nil
}

// Validate checks the invariants every run relies on.
func (c WorkloadConfig) Validate() error {
	if c.Threads == 0 {
		return fmt.Errorf("%w: -t must be at least 1", ErrParamMismatch)
	}
	if len(c.OpDist) == 0 {
		return fmt.Errorf("%w: no operation weights", ErrParamMismatch)
	}
	var sum uint64
	for _, w := range c.OpDist {
		sum += uint64(w)
	}
	if sum != 100 {
		return fmt.Errorf("%w: operation weights sum to %d, want 100", ErrParamMismatch, sum)
	}
	return nil
}

// Fields renders the configuration as report key/value pairs.
func (c WorkloadConfig) Fields() []Field {
	fields := []Field{
		{Key: "num_threads", Value: strconv.FormatUint(uint64(c.Threads), 10)},
		{Key: "init_sz", Value: strconv.FormatUint(uint64(c.InitSize), 10)},
		{Key: "max_noise", Value: strconv.FormatUint(uint64(c.MaxNoise), 10)},
		{Key: "duration", Value: strconv.FormatUint(uint64(c.Duration), 10)},
	}
	for i, w := range c.OpDist {
		fields = append(fields, Field{Key: fmt.Sprintf("op%d_dist", i), Value: strconv.FormatUint(uint64(w), 10)})
	}
	return fields
}

func matchInto(re *regexp.Regexp, s string, out *[]string) bool {
	*out = re.FindStringSubmatch(s)
	return *out != nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
