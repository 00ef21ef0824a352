package lattice

import (
	"testing"

	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(words ...dictionary.Entry) *dictionary.Entries {
	e := dictionary.NewEntries()
	for _, w := range words {
		e.Add(w.Reading, w)
	}
	return e
}

func TestBuildSpansAndOrder(t *testing.T) {
	l := Build("きのうの", entries(
		dictionary.Entry{Reading: "きのう", Surface: "昨日", LeftID: 2, RightID: 2, WordCost: 3000},
		dictionary.Entry{Reading: "の", Surface: "の", LeftID: 5, RightID: 5, WordCost: 500},
		dictionary.Entry{Reading: "きのう", Surface: "機能", LeftID: 3, RightID: 3, WordCost: 3000},
	), DefaultOptions())

	assert.Equal(t, 4, l.Len)
	assert.Equal(t, 0, l.BOS)

	// reading order, then occurrences, then entries
	want := []struct {
		surface    string
		start, end int
	}{
		{"昨日", 0, 3},
		{"機能", 0, 3},
		{"の", 1, 2},
		{"の", 3, 4},
	}
	for i, w := range want {
		n := l.Node(i + 1)
		assert.Equal(t, i+1, n.ID)
		assert.Equal(t, w.surface, n.Surface)
		assert.Equal(t, w.start, n.Start)
		assert.Equal(t, w.end, n.End)
	}

	// positions 2 (う) lacks a word start
	unknown := l.Node(5)
	assert.True(t, unknown.Unknown)
	assert.Equal(t, "う", unknown.Surface)
	assert.Equal(t, 2, unknown.Start)
	assert.Equal(t, UnknownPenalty, unknown.Cost)
	assert.Equal(t, 0, unknown.LeftID)

	assert.Equal(t, 6, l.EOS)
	eos := l.Node(l.EOS)
	assert.Equal(t, 4, eos.Start)
	assert.True(t, eos.Sentinel())
	assert.Len(t, l.Nodes, 7)
}

func TestBuildSameSurfacePenalty(t *testing.T) {
	l := Build("の", entries(dictionary.Entry{Reading: "の", Surface: "の", WordCost: 500}), DefaultOptions())
	n := l.Node(1)
	assert.Equal(t, SameSurfacePenalty, n.Penalty)
	assert.Equal(t, 500+SameSurfacePenalty, n.Cost)

	custom := Build("の", entries(dictionary.Entry{Reading: "の", Surface: "の", WordCost: 500}), Options{SameSurfacePenalty: 7})
	assert.Equal(t, 507, custom.Node(1).Cost)
}

func TestBuildOverlappingOccurrences(t *testing.T) {
	l := Build("ああああ", entries(dictionary.Entry{Reading: "ああ", Surface: "嗚呼"}), DefaultOptions())

	var starts []int
	for _, n := range l.Nodes[1 : len(l.Nodes)-1] {
		if !n.Unknown {
			starts = append(starts, n.Start)
		}
	}
	assert.Equal(t, []int{0, 1, 2}, starts)
	// the last rune has no word start
	assert.True(t, l.Node(4).Unknown)
	assert.Equal(t, 3, l.Node(4).Start)
}

func TestBuildEveryPositionHasAStart(t *testing.T) {
	l := Build("ぬるぽ", nil, DefaultOptions())
	for p := 0; p < l.Len; p++ {
		ids := l.StartingAt(p)
		require.NotEmpty(t, ids, "position %d", p)
	}
	assert.Equal(t, []int{l.EOS}, l.StartingAt(3))
	assert.Contains(t, l.EndingAt(3), l.EOS)
	assert.Nil(t, l.StartingAt(10))
}

func TestBuildEmpty(t *testing.T) {
	l := Build("", dictionary.NewEntries(), DefaultOptions())
	assert.Equal(t, 0, l.Len)
	assert.Equal(t, 1, l.EOS)
	assert.Equal(t, []int{0, 1}, l.StartingAt(0))
	assert.Equal(t, []int{0, 1}, l.EndingAt(0))
}

func TestBuildCarriesUserPOS(t *testing.T) {
	l := Build("き", entries(dictionary.Entry{Reading: "き", Surface: "木", POS: "名詞", SubPOS: "一般"}), DefaultOptions())
	assert.Equal(t, "名詞", l.Node(1).POS)
	assert.Equal(t, "一般", l.Node(1).SubPOS)
}
