package decoder_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/henkan/internal/fixture"
	"github.com/bastiangx/henkan/pkg/connection"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/bastiangx/henkan/pkg/pos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	index   *dictionary.Index
	matrix  *connection.Table
	grammar *pos.Table
}

func setup(t *testing.T) engine {
	t.Helper()
	dir := fixture.Write(t)

	index, err := dictionary.Open(dir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	matrix, err := connection.Open(filepath.Join(dir, dictionary.MatrixFile))
	require.NoError(t, err)

	grammar, err := pos.Load(filepath.Join(dir, dictionary.PosDefFile), nil)
	require.NoError(t, err)

	return engine{index: index, matrix: matrix, grammar: grammar}
}

func (e engine) forward(t *testing.T, kana string) (*lattice.Lattice, *decoder.Pass) {
	t.Helper()
	lat := lattice.Build(kana, e.index.Search(kana), lattice.DefaultOptions())
	pass, err := decoder.Forward(context.Background(), lat, e.matrix, e.grammar, decoder.DefaultOptions())
	require.NoError(t, err)
	return lat, pass
}

func surfaces(c decoder.Candidate) []string {
	var out []string
	for _, tok := range c.Tokens {
		out = append(out, tok.Surface)
	}
	return out
}

func TestBest(t *testing.T) {
	e := setup(t)

	testCases := []struct {
		kana        string
		text        string
		cost        int
		description string
	}{
		{"きのう", "昨日", 2500, "sentence-initial adverbial noun bonus"},
		{"とうきょう", "東京", 1800, "long word beats split"},
		{"たべました", "食べました", 6500, "verb with auxiliaries"},
		{"きのうのかいぎをかいさいした", "昨日の会議を開催した", 13200, "sentence with n-gram context"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			lat, pass := e.forward(t, tc.kana)
			best := decoder.Best(lat, pass, e.grammar)
			assert.Equal(t, tc.text, best.Text)
			assert.Equal(t, tc.cost, best.Cost)
			assert.Equal(t, tc.text, strings.Join(surfaces(best), ""))
		})
	}
}

func TestBestTokens(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "たべました")

	best := decoder.Best(lat, pass, e.grammar)
	require.Len(t, best.Tokens, 3)
	assert.Equal(t, decoder.Token{
		Surface:  "食べ",
		Reading:  "たべ",
		WordCost: 3000,
		POS:      "動詞",
		SubPOS:   "自立",
		POSLabel: "動詞-自立",
	}, best.Tokens[0])
	assert.Equal(t, 1000, best.Tokens[1].Penalty, "surface equals reading")
}

func TestForwardBackPointers(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "きのうの")

	// 昨日 -> の -> EOS
	eosPrev := pass.Prev[lat.EOS]
	require.GreaterOrEqual(t, eosPrev, 0)
	assert.Equal(t, "の", lat.Node(eosPrev).Surface)
	assert.Equal(t, "昨日", lat.Node(pass.PrevPrev[lat.EOS]).Surface)
	assert.Equal(t, lat.BOS, pass.PrevPrev[eosPrev])
}

func TestAdjacentUnknownPenalty(t *testing.T) {
	e := setup(t)

	testCases := []struct {
		kana        string
		want        int
		description string
	}{
		{"ぬ", lattice.UnknownPenalty + 2*decoder.AdjacentUnknownPenalty, "BOS and EOS edges"},
		{"ぬぬ", 2*lattice.UnknownPenalty + 3*decoder.AdjacentUnknownPenalty, "every edge of an all-unknown path"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			lat := lattice.Build(tc.kana, nil, lattice.DefaultOptions())
			pass, err := decoder.Forward(context.Background(), lat, e.matrix, e.grammar, decoder.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tc.want, pass.Cost[lat.EOS])
		})
	}

	lat := lattice.Build("ぬぬ", nil, lattice.DefaultOptions())
	opts := decoder.DefaultOptions()
	opts.AdjacentUnknownPenalty = 0
	pass, err := decoder.Forward(context.Background(), lat, e.matrix, e.grammar, opts)
	require.NoError(t, err)
	assert.Equal(t, 2*lattice.UnknownPenalty, pass.Cost[lat.EOS])

	best := decoder.Best(lat, pass, e.grammar)
	require.Len(t, best.Tokens, 2)
	assert.Equal(t, pos.Unknown.POS, best.Tokens[0].POS)
	assert.Equal(t, lattice.UnknownPenalty, best.Tokens[0].Penalty)
}

func TestKnownWordsSkipUnknownPenalty(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "とうきょう")
	assert.Equal(t, 1800, pass.Cost[lat.EOS])
}

func TestEmptyInput(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "")

	best := decoder.Best(lat, pass, e.grammar)
	assert.Equal(t, "", best.Text)
	assert.Equal(t, 0, best.Cost)
	assert.Empty(t, best.Tokens)

	all := decoder.NBest(lat, pass, e.matrix, e.grammar, 5, decoder.DefaultOptions())
	require.Len(t, all, 1)
	assert.Equal(t, "", all[0].Text)
}

func TestForwardTimeout(t *testing.T) {
	e := setup(t)
	lat := lattice.Build("きのう", e.index.Search("きのう"), lattice.DefaultOptions())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := decoder.Forward(ctx, lat, e.matrix, e.grammar, decoder.DefaultOptions())
	assert.ErrorIs(t, err, decoder.ErrTimeout)

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	_, err = decoder.Forward(ctx, lat, e.matrix, e.grammar, decoder.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNBest(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "きのう")

	all := decoder.NBest(lat, pass, e.matrix, e.grammar, 5, decoder.DefaultOptions())
	require.Len(t, all, 2)
	assert.Equal(t, "昨日", all[0].Text)
	assert.Equal(t, 2500, all[0].Cost)
	assert.Equal(t, "機能", all[1].Text)
	assert.Equal(t, 3000, all[1].Cost)
}

func TestNBestSentence(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "きのうのかいぎをかいさいした")

	all := decoder.NBest(lat, pass, e.matrix, e.grammar, 5, decoder.DefaultOptions())
	require.GreaterOrEqual(t, len(all), 2)
	assert.LessOrEqual(t, len(all), 5)

	// backward edges carry pair adjustments only
	assert.Equal(t, "昨日の会議を開催した", all[0].Text)
	assert.Equal(t, 14700, all[0].Cost)
	assert.Equal(t, "機能の会議を開催した", all[1].Text)
	assert.Equal(t, 15200, all[1].Cost)

	seen := make(map[string]bool)
	for i, c := range all {
		assert.False(t, seen[c.Text], "duplicate text %q", c.Text)
		seen[c.Text] = true
		assert.Equal(t, c.Text, strings.Join(surfaces(c), ""))
		if i > 0 {
			assert.LessOrEqual(t, all[i-1].Cost, c.Cost)
		}
	}
}

func TestNBestRespectsN(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "きのうのかいぎをかいさいした")

	assert.Len(t, decoder.NBest(lat, pass, e.matrix, e.grammar, 1, decoder.DefaultOptions()), 1)
	assert.Len(t, decoder.NBest(lat, pass, e.matrix, e.grammar, 0, decoder.DefaultOptions()), 1)
}

func TestNBestExpansionLimit(t *testing.T) {
	e := setup(t)
	lat, pass := e.forward(t, "きのう")

	opts := decoder.DefaultOptions()
	opts.MaxExpansions = 1
	all := decoder.NBest(lat, pass, e.matrix, e.grammar, 5, opts)
	require.Len(t, all, 1)
	assert.Equal(t, decoder.Best(lat, pass, e.grammar), all[0], "no path completed within the limit")
	assert.Equal(t, "昨日", all[0].Text)
	assert.Equal(t, 2500, all[0].Cost)
}

func TestUnreachableFallsBack(t *testing.T) {
	e := setup(t)
	lat := lattice.Build("あ", nil, lattice.DefaultOptions())
	pass := &decoder.Pass{
		Cost:     []int{0, decoder.Inf, decoder.Inf},
		Prev:     []int{-1, -1, -1},
		PrevPrev: []int{-1, -1, -1},
	}

	best := decoder.Best(lat, pass, e.grammar)
	assert.Equal(t, decoder.Fallback("あ"), best)
	assert.Equal(t, 0, best.Cost)
	assert.Equal(t, []decoder.Candidate{decoder.Fallback("あ")}, decoder.NBest(lat, pass, e.matrix, e.grammar, 3, decoder.DefaultOptions()))
}

func TestTokenUsesEmbeddedPOS(t *testing.T) {
	e := setup(t)
	entries := dictionary.NewEntries()
	entries.Add("き", dictionary.Entry{Reading: "き", Surface: "木", LeftID: fixture.IDNoun, RightID: fixture.IDNoun, POS: "副詞", SubPOS: "一般"})

	lat := lattice.Build("き", entries, lattice.DefaultOptions())
	pass, err := decoder.Forward(context.Background(), lat, e.matrix, e.grammar, decoder.DefaultOptions())
	require.NoError(t, err)

	best := decoder.Best(lat, pass, e.grammar)
	require.Len(t, best.Tokens, 1)
	assert.Equal(t, "副詞", best.Tokens[0].POS)
	assert.Equal(t, "副詞-一般", best.Tokens[0].POSLabel)
}
