// Package connection loads the dense connection cost matrix indexed by
// (right id of the preceding word, left id of the following word).
package connection

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// HeaderSize is size u32 + reserved u32.
	HeaderSize = 8
	// MaxSize bounds the matrix dimension; context ids are u16.
	MaxSize = 1 << 16
)

var (
	// ErrMatrixMissing is returned when connection.bin does not exist.
	ErrMatrixMissing = errors.New("connection matrix not found")
	// ErrCorruptMatrix is returned when the file is shorter than its header claims.
	ErrCorruptMatrix = errors.New("connection matrix is corrupt")
)

// Table is an immutable size x size matrix of signed costs.
type Table struct {
	size  int
	costs []int16
}

// Open reads the whole matrix file into memory.
func Open(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMatrixMissing, path)
		}
		return nil, fmt.Errorf("failed to read matrix %s: %w", path, err)
	}
	t, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Connection matrix loaded: %s (%dx%d)", path, t.size, t.size)
	return t, nil
}

func decode(data []byte) (*Table, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header too small (%d bytes)", ErrCorruptMatrix, len(data))
	}
	dim := binary.LittleEndian.Uint32(data[0:4])
	if dim > MaxSize {
		return nil, fmt.Errorf("%w: size %d exceeds %d", ErrCorruptMatrix, dim, MaxSize)
	}
	need := uint64(dim) * uint64(dim) * 2
	if need > uint64(len(data)-HeaderSize) {
		return nil, fmt.Errorf("%w: size %d needs %d bytes, have %d", ErrCorruptMatrix, dim, HeaderSize+need, len(data))
	}
	size := int(dim)
	cells := size * size
	costs := make([]int16, cells)
	body := data[HeaderSize:]
	for i := range costs {
		costs[i] = int16(binary.LittleEndian.Uint16(body[i*2:]))
	}
	return &Table{size: size, costs: costs}, nil
}

// New builds a table from row-major costs; len(costs) must be size*size.
func New(size int, costs []int16) (*Table, error) {
	if size < 0 || size > MaxSize || len(costs) != size*size {
		return nil, fmt.Errorf("%w: %d costs for size %d", ErrCorruptMatrix, len(costs), size)
	}
	return &Table{size: size, costs: costs}, nil
}

// Size returns the matrix dimension.
func (t *Table) Size() int {
	return t.size
}

// Cost returns the transition cost from a word with rightID to a word with
// leftID. Ids outside the matrix cost 0.
func (t *Table) Cost(rightID, leftID int) int {
	if t.size <= 0 || rightID < 0 || leftID < 0 || rightID >= t.size || leftID >= t.size {
		return 0
	}
	return int(t.costs[rightID*t.size+leftID])
}

// Write encodes a matrix in the connection.bin layout.
func Write(w io.Writer, size int, costs []int16) error {
	if len(costs) != size*size {
		return fmt.Errorf("%w: %d costs for size %d", ErrCorruptMatrix, len(costs), size)
	}
	bw := bufio.NewWriter(w)
	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(size))
	if _, err := bw.Write(header); err != nil {
		return err
	}
	cell := make([]byte, 2)
	for _, c := range costs {
		binary.LittleEndian.PutUint16(cell, uint16(c))
		if _, err := bw.Write(cell); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes a matrix to path.
func WriteFile(path string, size int, costs []int16) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create matrix %s: %w", path, err)
	}
	if err := Write(file, size, costs); err != nil {
		file.Close()
		return fmt.Errorf("failed to write matrix %s: %w", path, err)
	}
	return file.Close()
}

// ConvertText converts a single-column text matrix (first line is the size,
// then one cost per line in row-major order) into connection.bin.
func ConvertText(src, dst string) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return fmt.Errorf("%w: %s is empty", ErrCorruptMatrix, src)
	}
	size, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || size < 0 {
		return fmt.Errorf("%w: bad size line in %s", ErrCorruptMatrix, src)
	}

	costs := make([]int16, 0, size*size)
	for scanner.Scan() && len(costs) < size*size {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: line %d of %s: %v", ErrCorruptMatrix, len(costs)+2, src, err)
		}
		costs = append(costs, int16(v))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if len(costs) != size*size {
		return fmt.Errorf("%w: %s has %d costs, want %d", ErrCorruptMatrix, src, len(costs), size*size)
	}
	return WriteFile(dst, size, costs)
}
