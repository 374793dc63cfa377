//go:build !linux

package benchmark

// Thread affinity is only available on linux; elsewhere threads float.
func pinToCore(int) error { return nil }
