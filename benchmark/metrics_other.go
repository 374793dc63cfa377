//go:build !unix

package benchmark

func readResourceUsage() (ResourceUsage, error) {
	return ResourceUsage{}, nil
}
