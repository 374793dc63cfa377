package benchmark

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxKeyLen rejects corrupt length prefixes before allocating.
const maxKeyLen = 1 << 16

// LoadKeys reads a binary key file in the format
// [uvarint length][key bytes] repeating.
func LoadKeys(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keys file: %w", err)
	}
	defer file.Close()
	return readKeys(bufio.NewReader(file))
}

func readKeys(r *bufio.Reader) ([][]byte, error) {
	var keys [][]byte
	for {
		n, err := binary.ReadUvarint(r)
		if errors.Is(err, io.EOF) {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read key length: %w", err)
		}
		if n > maxKeyLen {
			return nil, fmt.Errorf("key %d: length %d exceeds %d", len(keys), n, maxKeyLen)
		}

		key := make([]byte, n)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("failed to read key bytes: %w", err)
		}
		keys = append(keys, key)
	}
}

// WriteKeys writes keys in the format read by LoadKeys.
func WriteKeys(w io.Writer, keys [][]byte) error {
	bw := bufio.NewWriter(w)
	var lenBuf [binary.MaxVarintLen64]byte
	for _, k := range keys {
		n := binary.PutUvarint(lenBuf[:], uint64(len(k)))
		if _, err := bw.Write(lenBuf[:n]); err != nil {
			return err
		}
		if _, err := bw.Write(k); err != nil {
			return err
		}
	}
	return bw.Flush()
}
