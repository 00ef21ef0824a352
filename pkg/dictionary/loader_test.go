package dictionary_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/henkan/internal/fixture"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *dictionary.Index {
	t.Helper()
	ix, err := dictionary.Open(fixture.Write(t), 0)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestLookup(t *testing.T) {
	ix := openFixture(t)

	testCases := []struct {
		reading     string
		surfaces    []string
		description string
	}{
		{"きのう", []string{"昨日", "機能"}, "homophones keep shard line order"},
		{"とうきょう", []string{"東京"}, "single entry"},
		{"まし", []string{"まし"}, "entry from second shard"},
		{"きょう", []string{"今日", "京"}, "several entries"},
		{"ぼろ", nil, "malformed line is skipped"},
		{"ない", nil, "missing reading"},
		{"", nil, "empty reading"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			entries := ix.Lookup(tc.reading)
			var surfaces []string
			for _, e := range entries {
				assert.Equal(t, tc.reading, e.Reading)
				surfaces = append(surfaces, e.Surface)
			}
			assert.Equal(t, tc.surfaces, surfaces)
		})
	}
}

func TestLookupParsesIDsAndCost(t *testing.T) {
	ix := openFixture(t)

	entries := ix.Lookup("たべ")
	require.Len(t, entries, 1)
	assert.Equal(t, dictionary.Entry{
		Reading:  "たべ",
		Surface:  "食べ",
		LeftID:   fixture.IDVerb,
		RightID:  fixture.IDVerb,
		WordCost: 3000,
	}, entries[0])
	assert.Empty(t, entries[0].POS, "system entries take their part of speech from id.def")
}

func TestSearchDiscoveryOrder(t *testing.T) {
	ix := openFixture(t)

	found := ix.Search("とうきょう")
	// start 0: とう, とうきょう; start 2: きょう
	assert.Equal(t, []string{"とう", "とうきょう", "きょう"}, found.Readings())
	assert.Equal(t, 4, found.Count())
	assert.Equal(t, "東京", found.Get("とうきょう")[0].Surface)
}

func TestSearchRespectsMaxReadingLen(t *testing.T) {
	ix, err := dictionary.Open(fixture.Write(t), 3)
	require.NoError(t, err)
	defer ix.Close()

	found := ix.Search("とうきょう")
	assert.Nil(t, found.Get("とうきょう"), "5-rune reading exceeds the cap")
	assert.NotNil(t, found.Get("きょう"))
}

func TestSearchNoMatches(t *testing.T) {
	ix := openFixture(t)

	assert.Equal(t, 0, ix.Search("ぬぬぬ").Len())
	assert.Equal(t, 0, ix.Search("").Len())
}

func TestOpenMissingIndex(t *testing.T) {
	dir := fixture.Write(t)
	require.NoError(t, os.Remove(filepath.Join(dir, dictionary.IndexFile)))

	_, err := dictionary.Open(dir, 0)
	assert.ErrorIs(t, err, dictionary.ErrIndexMissing)
}

func TestOpenCorruptIndex(t *testing.T) {
	dir := fixture.Write(t)
	path := filepath.Join(dir, dictionary.IndexFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[0:4], 1<<20)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = dictionary.Open(dir, 0)
	assert.ErrorIs(t, err, dictionary.ErrCorruptIndex)
}

func TestOpenRecordPastPool(t *testing.T) {
	dir := fixture.Write(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, dictionary.PoolFile), []byte("き"), 0o644))

	_, err := dictionary.Open(dir, 0)
	assert.ErrorIs(t, err, dictionary.ErrCorruptIndex)
}

func TestStats(t *testing.T) {
	ix := openFixture(t)

	stats := ix.Stats()
	assert.Equal(t, fixture.ShardCount, stats.Shards)
	assert.Equal(t, 19, stats.Records)
	assert.Positive(t, stats.PoolBytes)
}

func TestMissingShardResolvesToNothing(t *testing.T) {
	dir := fixture.Write(t)
	require.NoError(t, os.Remove(filepath.Join(dir, dictionary.ShardName(1))))

	ix, err := dictionary.Open(dir, 0)
	require.NoError(t, err)
	defer ix.Close()

	assert.Empty(t, ix.Lookup("まし"))
	assert.Len(t, ix.Lookup("きのう"), 2)
}
