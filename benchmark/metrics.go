package benchmark

import "strconv"

// ResourceUsage is the process resource consumption reported at the end of
// a run.
type ResourceUsage struct {
	SysTimeMicros uint64
	UsrTimeMicros uint64
	MaxRSSKB      uint64
}

// ReadResourceUsage returns the usage of the calling process so far.
func ReadResourceUsage() (ResourceUsage, error) {
	return readResourceUsage()
}

func (u ResourceUsage) fields() []Field {
	return []Field{
		{Key: "sys_time", Value: strconv.FormatUint(u.SysTimeMicros, 10)},
		{Key: "usr_time", Value: strconv.FormatUint(u.UsrTimeMicros, 10)},
		{Key: "max_rss_kb", Value: strconv.FormatUint(u.MaxRSSKB, 10)},
	}
}
