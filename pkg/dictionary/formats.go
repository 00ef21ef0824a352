package dictionary

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the files found in a data directory
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatIndex              // Sorted binary record table
	FormatPool               // Reading string pool
	FormatShard              // Tab-delimited dictionary shard
	FormatMatrix             // Binary connection cost matrix
	FormatPosDef             // Part-of-speech id definitions
)

// FormatInfo contains metadata about a data file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatIndex: {
		Format:      FormatIndex,
		Description: "Dictionary Record Index",
		Extensions:  []string{".idx"},
		MinSize:     HeaderSize,
	},
	FormatPool: {
		Format:      FormatPool,
		Description: "Reading String Pool",
		Extensions:  []string{".str"},
		MinSize:     0,
	},
	FormatShard: {
		Format:      FormatShard,
		Description: "Dictionary Shard",
		Extensions:  []string{".txt"},
		MinSize:     1,
	},
	FormatMatrix: {
		Format:      FormatMatrix,
		Description: "Connection Cost Matrix",
		Extensions:  []string{".bin"},
		MinSize:     8, // size + reserved
	},
	FormatPosDef: {
		Format:      FormatPosDef,
		Description: "POS Id Definitions",
		Extensions:  []string{".def"},
		MinSize:     1,
	},
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, validExtension := range formatInfo.Extensions {
		if ext == validExtension {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for format %s (expected: %v)",
			filename, ext, formatInfo.Description, formatInfo.Extensions)
	}

	switch expectedFormat {
	case FormatIndex:
		return validateIndexFormat(filename, fileInfo.Size())
	case FormatMatrix:
		return validateMatrixFormat(filename, fileInfo.Size())
	}
	return nil
}

// validateIndexFormat checks the record count against the file size
func validateIndexFormat(filename string, size int64) error {
	count, err := readHeaderU32(filename)
	if err != nil {
		return err
	}
	need := int64(HeaderSize) + int64(count)*RecordSize
	if size < need {
		return fmt.Errorf("index %s declares %d records (%d bytes) but has %d bytes", filename, count, need, size)
	}
	log.Debugf("Index file %s validated: %d records", filename, count)
	return nil
}

// validateMatrixFormat checks the matrix dimension against the file size
func validateMatrixFormat(filename string, size int64) error {
	dim, err := readHeaderU32(filename)
	if err != nil {
		return err
	}
	need := 8 + int64(dim)*int64(dim)*2
	if size < need {
		return fmt.Errorf("matrix %s declares size %d (%d bytes) but has %d bytes", filename, dim, need, size)
	}
	log.Debugf("Matrix file %s validated: %dx%d", filename, dim, dim)
	return nil
}

func readHeaderU32(filename string) (uint32, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var v uint32
	if err := binary.Read(file, binary.LittleEndian, &v); err != nil {
		return 0, fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	return v, nil
}

// DetectFileFormat attempts to detect the format of a file from its name
func DetectFileFormat(filename string) (FileFormat, error) {
	basename := strings.ToLower(filepath.Base(filename))

	var format FileFormat
	switch {
	case basename == IndexFile:
		format = FormatIndex
	case basename == PoolFile:
		format = FormatPool
	case basename == MatrixFile:
		format = FormatMatrix
	case basename == PosDefFile:
		format = FormatPosDef
	case strings.HasPrefix(basename, "dictionary") && strings.HasSuffix(basename, ".txt"):
		format = FormatShard
	default:
		return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
	}

	if err := ValidateFileFormat(filename, format); err != nil {
		return FormatUnknown, err
	}
	return format, nil
}

// ValidateDataDir checks every required file of a data directory.
// Shards are optional individually but at least one must exist.
func ValidateDataDir(dirPath string) error {
	required := []struct {
		name   string
		format FileFormat
	}{
		{IndexFile, FormatIndex},
		{PoolFile, FormatPool},
		{MatrixFile, FormatMatrix},
		{PosDefFile, FormatPosDef},
	}
	for _, r := range required {
		if err := ValidateFileFormat(filepath.Join(dirPath, r.name), r.format); err != nil {
			return err
		}
	}

	shards := 0
	for i := 0; i < MaxShards; i++ {
		if err := ValidateFileFormat(filepath.Join(dirPath, ShardName(i)), FormatShard); err == nil {
			shards++
		}
	}
	if shards == 0 {
		return fmt.Errorf("no dictionary shards found in %s", dirPath)
	}
	return nil
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// DataFile is a recognized file of a data directory.
type DataFile struct {
	Name   string
	Format FileFormat
	Size   int64
}

// Inventory lists the recognized files of a data directory ordered by
// format, then name. Unrecognized or invalid files are skipped.
func Inventory(dirPath string) ([]DataFile, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dirPath, err)
	}

	var files []DataFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, err := DetectFileFormat(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			log.Debugf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, DataFile{Name: entry.Name(), Format: format, Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Format != files[j].Format {
			return files[i].Format < files[j].Format
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}
