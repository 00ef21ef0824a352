package dictionary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
)

// BuildStats summarises an index build.
type BuildStats struct {
	Shards   int
	Records  int
	Readings int
}

// BuildIndex scans the shards in dirPath and writes dictionary.idx and
// dictionary.str next to them. Records sharing a reading keep shard order,
// then line order.
func BuildIndex(dirPath string) (BuildStats, error) {
	var stats BuildStats
	var records []record
	var pool []byte
	poolOffsets := make(map[string]uint32)

	for i := 0; i < MaxShards; i++ {
		shardPath := filepath.Join(dirPath, ShardName(i))
		data, err := os.ReadFile(shardPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return stats, fmt.Errorf("failed to read shard %s: %w", shardPath, err)
		}
		stats.Shards++
		log.Debugf("Indexing shard %s (%d bytes)", shardPath, len(data))

		offset := 0
		for offset < len(data) {
			line := data[offset:]
			lineLen := len(line)
			if nl := bytes.IndexByte(line, '\n'); nl >= 0 {
				line = line[:nl]
				lineLen = nl + 1
			}
			if tab := bytes.IndexByte(line, '\t'); tab > 0 {
				reading := string(line[:tab])
				if len(reading) > math.MaxUint16 {
					return stats, fmt.Errorf("reading at %s:%d is too long (%d bytes)", shardPath, offset, len(reading))
				}
				if uint64(offset) > math.MaxUint32 {
					return stats, fmt.Errorf("shard %s exceeds 4GiB", shardPath)
				}
				strOffset, ok := poolOffsets[reading]
				if !ok {
					if uint64(len(pool)) > math.MaxUint32 {
						return stats, fmt.Errorf("string pool exceeds 4GiB")
					}
					strOffset = uint32(len(pool))
					poolOffsets[reading] = strOffset
					pool = append(pool, reading...)
				}
				records = append(records, record{
					strOffset:  strOffset,
					strLen:     uint16(len(reading)),
					shard:      uint8(i),
					lineOffset: uint32(offset),
				})
			}
			offset += lineLen
		}
	}

	if stats.Shards == 0 {
		return stats, fmt.Errorf("no dictionary shards found in %s", dirPath)
	}

	readingOf := func(r record) []byte {
		return pool[r.strOffset : r.strOffset+uint32(r.strLen)]
	}
	sort.SliceStable(records, func(a, b int) bool {
		return bytes.Compare(readingOf(records[a]), readingOf(records[b])) < 0
	})

	if err := os.WriteFile(filepath.Join(dirPath, PoolFile), pool, 0644); err != nil {
		return stats, fmt.Errorf("failed to write string pool: %w", err)
	}
	if err := writeIndex(filepath.Join(dirPath, IndexFile), records); err != nil {
		return stats, err
	}

	stats.Records = len(records)
	stats.Readings = len(poolOffsets)
	log.Debugf("Index built: shards=%d records=%d readings=%d pool=%dB", stats.Shards, stats.Records, stats.Readings, len(pool))
	return stats, nil
}

func writeIndex(path string, records []record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	header := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(records)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	buf := make([]byte, RecordSize)
	for _, r := range records {
		binary.LittleEndian.PutUint32(buf[0:4], r.strOffset)
		binary.LittleEndian.PutUint16(buf[4:6], r.strLen)
		buf[6] = r.shard
		binary.LittleEndian.PutUint32(buf[7:11], r.lineOffset)
		buf[11], buf[12] = 0, 0
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write index record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush index: %w", err)
	}
	return file.Close()
}
