/*
Package dictionary provides the binary searchable reading index over the
sharded system dictionary.

The dictionary lives in a data directory next to its offline-built index:

	dictionary00.txt .. dictionary09.txt   reading\tleft_id\tright_id\tcost\tsurface
	dictionary.str                         concatenated reading bytes, each reading stored once
	dictionary.idx                         12 byte header + 13 byte records sorted by reading

Shards and the string pool are memory-mapped and never loaded as a whole
into Go structures. A lookup binary-searches the record table and parses
the matching shard lines on demand.
*/
package dictionary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bastiangx/henkan/internal/mmap"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// IndexFile is the sorted record table.
	IndexFile = "dictionary.idx"
	// PoolFile is the deduplicated reading string pool.
	PoolFile = "dictionary.str"
	// MatrixFile is the connection cost matrix.
	MatrixFile = "connection.bin"
	// PosDefFile holds the part-of-speech id definitions.
	PosDefFile = "id.def"

	// MaxShards is the number of shard slots addressable by a record.
	MaxShards = 10
	// HeaderSize is the size of the index header: count u32 + 8 reserved bytes.
	HeaderSize = 12
	// RecordSize is the size of one index record.
	RecordSize = 13
	// DefaultMaxReadingLen caps the reading length in runes tried by Search.
	DefaultMaxReadingLen = 15
)

var (
	// ErrIndexMissing is returned when the offline index has not been built.
	ErrIndexMissing = errors.New("dictionary index not found")
	// ErrCorruptIndex is returned when the index or pool is malformed.
	ErrCorruptIndex = errors.New("dictionary index is corrupt")
)

// ShardName returns the file name of shard id.
func ShardName(id int) string {
	return fmt.Sprintf("dictionary%02d.txt", id)
}

type record struct {
	strOffset  uint32
	strLen     uint16
	shard      uint8
	lineOffset uint32
}

// Index is an immutable reading index. It is safe for concurrent use.
type Index struct {
	dirPath       string
	idx           *mmap.File
	pool          *mmap.File
	shards        [MaxShards]*mmap.File
	count         int
	maxReadingLen int
}

// Stats describes a loaded index.
type Stats struct {
	Records   int
	Shards    int
	PoolBytes int
}

// Open maps the index, string pool and every present shard in dirPath.
// maxReadingLen <= 0 selects DefaultMaxReadingLen.
func Open(dirPath string, maxReadingLen int) (*Index, error) {
	if maxReadingLen <= 0 {
		maxReadingLen = DefaultMaxReadingLen
	}
	idxPath := filepath.Join(dirPath, IndexFile)
	poolPath := filepath.Join(dirPath, PoolFile)

	for _, p := range []string{idxPath, poolPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s (build it with `henkan -build %s`)", ErrIndexMissing, p, dirPath)
		}
	}

	ix := &Index{dirPath: dirPath, maxReadingLen: maxReadingLen}

	var g errgroup.Group
	g.Go(func() error {
		f, err := mmap.Open(idxPath)
		if err != nil {
			return fmt.Errorf("failed to map %s: %w", idxPath, err)
		}
		ix.idx = f
		return nil
	})
	g.Go(func() error {
		f, err := mmap.Open(poolPath)
		if err != nil {
			return fmt.Errorf("failed to map %s: %w", poolPath, err)
		}
		ix.pool = f
		return nil
	})
	for i := 0; i < MaxShards; i++ {
		shardPath := filepath.Join(dirPath, ShardName(i))
		if _, err := os.Stat(shardPath); err != nil {
			continue
		}
		i := i // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			f, err := mmap.Open(shardPath)
			if err != nil {
				return fmt.Errorf("failed to map shard %s: %w", shardPath, err)
			}
			ix.shards[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ix.Close()
		return nil, err
	}

	if err := ix.validate(); err != nil {
		ix.Close()
		return nil, err
	}

	log.Debugf("Dictionary index opened: dir=%s records=%d shards=%d", dirPath, ix.count, ix.Stats().Shards)
	return ix, nil
}

// validate checks the header and that every record points inside the pool.
func (ix *Index) validate() error {
	data := ix.idx.Data
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header too small (%d bytes)", ErrCorruptIndex, len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[0:4]))
	if need := HeaderSize + count*RecordSize; len(data) < need {
		return fmt.Errorf("%w: %d records need %d bytes, file has %d", ErrCorruptIndex, count, need, len(data))
	}
	ix.count = count

	poolLen := ix.pool.Len()
	for i := 0; i < count; i++ {
		r := ix.record(i)
		if int(r.strOffset)+int(r.strLen) > poolLen {
			return fmt.Errorf("%w: record %d points past the string pool", ErrCorruptIndex, i)
		}
		if int(r.shard) >= MaxShards {
			return fmt.Errorf("%w: record %d has shard id %d", ErrCorruptIndex, i, r.shard)
		}
	}
	return nil
}

func (ix *Index) record(i int) record {
	off := HeaderSize + i*RecordSize
	b := ix.idx.Data[off : off+RecordSize]
	return record{
		strOffset:  binary.LittleEndian.Uint32(b[0:4]),
		strLen:     binary.LittleEndian.Uint16(b[4:6]),
		shard:      b[6],
		lineOffset: binary.LittleEndian.Uint32(b[7:11]),
	}
}

func (ix *Index) readingOf(r record) []byte {
	return ix.pool.Data[r.strOffset : uint32(r.strOffset)+uint32(r.strLen)]
}

// Search looks up every substring of text that starts at a rune boundary
// and is at most the configured number of runes long. Each distinct
// substring is searched once per call. The result preserves the order in
// which readings were found: by start position, then by length.
func (ix *Index) Search(text string) *Entries {
	result := NewEntries()
	offsets := runeOffsets(text)
	total := len(offsets) - 1
	checked := make(map[string]struct{})

	for start := 0; start < total; start++ {
		limit := min(start+ix.maxReadingLen, total)
		for end := start + 1; end <= limit; end++ {
			partial := text[offsets[start]:offsets[end]]
			if _, ok := checked[partial]; ok {
				continue
			}
			checked[partial] = struct{}{}

			if entries := ix.Lookup(partial); len(entries) > 0 {
				result.Add(partial, entries...)
			}
		}
	}
	return result
}

// Lookup returns every entry whose reading equals reading, in index order.
func (ix *Index) Lookup(reading string) []Entry {
	if ix.count == 0 || reading == "" {
		return nil
	}
	key := []byte(reading)
	first := sort.Search(ix.count, func(i int) bool {
		return bytes.Compare(ix.readingOf(ix.record(i)), key) >= 0
	})

	var entries []Entry
	for i := first; i < ix.count; i++ {
		r := ix.record(i)
		if !bytes.Equal(ix.readingOf(r), key) {
			break
		}
		if entry, ok := ix.entryAt(r, reading); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// entryAt resolves a record into an Entry by reading its shard line.
func (ix *Index) entryAt(r record, reading string) (Entry, bool) {
	shard := ix.shards[r.shard]
	if shard == nil || int(r.lineOffset) >= shard.Len() {
		return Entry{}, false
	}
	line := shard.Data[r.lineOffset:]
	if nl := bytes.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return parseLine(string(line), reading)
}

// parseLine parses reading\tleft_id\tright_id\tword_cost\tsurface.
func parseLine(line, reading string) (Entry, bool) {
	parts := strings.SplitN(line, "\t", 5)
	if len(parts) < 5 {
		return Entry{}, false
	}
	leftID, err := strconv.Atoi(parts[1])
	if err != nil {
		return Entry{}, false
	}
	rightID, err := strconv.Atoi(parts[2])
	if err != nil {
		return Entry{}, false
	}
	wordCost, err := strconv.Atoi(parts[3])
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Reading:  reading,
		Surface:  parts[4],
		LeftID:   leftID,
		RightID:  rightID,
		WordCost: wordCost,
	}, true
}

// runeOffsets returns the byte offset of every rune in s followed by len(s).
func runeOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}

// Stats returns counters about the loaded index.
func (ix *Index) Stats() Stats {
	shards := 0
	for _, s := range ix.shards {
		if s != nil {
			shards++
		}
	}
	return Stats{
		Records:   ix.count,
		Shards:    shards,
		PoolBytes: ix.pool.Len(),
	}
}

// Dir returns the data directory the index was opened from.
func (ix *Index) Dir() string {
	return ix.dirPath
}

// Close unmaps every file. The index must not be used afterwards.
func (ix *Index) Close() error {
	var errs []error
	for _, f := range append([]*mmap.File{ix.idx, ix.pool}, ix.shards[:]...) {
		if f != nil {
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
