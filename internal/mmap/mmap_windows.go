//go:build windows

package mmap

import (
	"io"
	"os"
)

// Windows builds read the file into the heap instead of mapping it.
func mmap(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return data, nil
}

func munmap(data []byte) error {
	return nil
}
