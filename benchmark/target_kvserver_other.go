//go:build !linux

package benchmark

func (KVServerTarget) Init(TargetConfig) (Handle, error) {
	return nil, ErrUnsupportedPlatform
}
