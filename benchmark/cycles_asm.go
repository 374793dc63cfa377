//go:build amd64 || arm64

package benchmark

// implemented in cycles_$GOARCH.s
func readCycleCounter() uint64
