package converter_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/henkan/internal/fixture"
	"github.com/bastiangx/henkan/pkg/connection"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/lexicon"
	"github.com/bastiangx/henkan/pkg/pos"
	"github.com/bastiangx/henkan/pkg/romaji"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newConverter(t *testing.T) *converter.Converter {
	t.Helper()
	c, err := converter.New(converter.DefaultOptions(fixture.Write(t)))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func texts(r *converter.Result) []string {
	out := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Text
	}
	return out
}

func checkResult(t *testing.T, r *converter.Result, n int) {
	t.Helper()
	require.NotEmpty(t, r.Candidates)
	assert.LessOrEqual(t, len(r.Candidates), converter.ClampN(n))

	minCost := r.Candidates[0].Cost
	seen := make(map[string]bool)
	for i, c := range r.Candidates {
		var joined strings.Builder
		for _, tok := range c.Tokens {
			joined.WriteString(tok.Surface)
		}
		assert.Equal(t, c.Text, joined.String())
		assert.False(t, seen[c.Text], "duplicate %q", c.Text)
		seen[c.Text] = true
		if i > 0 {
			assert.LessOrEqual(t, r.Candidates[i-1].Cost, c.Cost)
		}
		minCost = min(minCost, c.Cost)
	}
	var joined strings.Builder
	for _, tok := range r.Best.Tokens {
		joined.WriteString(tok.Surface)
	}
	assert.Equal(t, r.Best.Text, joined.String())
	assert.Equal(t, minCost, r.Best.Cost)
}

func TestConvertExamples(t *testing.T) {
	c := newConverter(t)
	ctx := context.Background()

	testCases := []struct {
		kana        string
		n           int
		best        string
		description string
	}{
		{"きのう", 1, "昨日", "single word"},
		{"とうきょう", 1, "東京", "proper noun"},
		{"たべました", 1, "食べました", "verb chain"},
		{"きのうのかいぎをかいさいした", 5, "昨日の会議を開催した", "sentence"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			r, err := c.Convert(ctx, tc.kana, tc.n)
			require.NoError(t, err)
			checkResult(t, r, tc.n)
			assert.Equal(t, tc.best, r.Best.Text)
			assert.Equal(t, tc.kana, r.Kana)
		})
	}
}

func TestConvertVerbTokenPOS(t *testing.T) {
	c := newConverter(t)
	r, err := c.Convert(context.Background(), "たべました", 1)
	require.NoError(t, err)

	var found bool
	for _, tok := range r.Best.Tokens {
		if tok.Surface == "食べ" {
			found = true
			assert.Equal(t, "動詞", tok.POS)
		}
	}
	assert.True(t, found)
}

func TestConvertSentenceCandidates(t *testing.T) {
	c := newConverter(t)
	r, err := c.Convert(context.Background(), "きのうのかいぎをかいさいした", 5)
	require.NoError(t, err)
	assert.Contains(t, texts(r), "昨日の会議を開催した")
}

func TestConvertClampsN(t *testing.T) {
	c := newConverter(t)
	ctx := context.Background()

	for _, n := range []int{0, -3} {
		r, err := c.Convert(ctx, "きのう", n)
		require.NoError(t, err)
		assert.Len(t, r.Candidates, 1)
	}

	r, err := c.Convert(ctx, "きのうのかいぎをかいさいした", 1000)
	require.NoError(t, err)
	checkResult(t, r, 1000)
	assert.LessOrEqual(t, len(r.Candidates), converter.MaxNBest)
	assert.Equal(t, 1, converter.ClampN(-1))
	assert.Equal(t, converter.MaxNBest, converter.ClampN(101))
}

func TestConvertEmpty(t *testing.T) {
	c := newConverter(t)
	r, err := c.Convert(context.Background(), "", 3)
	require.NoError(t, err)
	assert.Equal(t, "", r.Best.Text)
	assert.Equal(t, 0, r.Best.Cost)
}

func TestConvertIdempotentAndIndependent(t *testing.T) {
	c := newConverter(t)
	ctx := context.Background()
	a, b := "きのうのかいぎをかいさいした", "とうきょう"

	first, err := c.Convert(ctx, a, 5)
	require.NoError(t, err)
	_, err = c.Convert(ctx, b, 5)
	require.NoError(t, err)
	again, err := c.Convert(ctx, a, 5)
	require.NoError(t, err)

	assert.Equal(t, texts(first), texts(again))
	assert.Equal(t, first.Candidates, again.Candidates)
}

func TestConvertConcurrent(t *testing.T) {
	c := newConverter(t)
	ctx := context.Background()
	inputs := []string{"きのう", "とうきょう", "たべました", "きのうのかいぎをかいさいした"}

	want := make(map[string][]string)
	for _, in := range inputs {
		r, err := c.Convert(ctx, in, 5)
		require.NoError(t, err)
		want[in] = texts(r)
	}

	got := make([][]string, len(inputs)*8)
	var g errgroup.Group
	for i := range got {
		i := i // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			r, err := c.Convert(ctx, inputs[i%len(inputs)], 5)
			if err != nil {
				return err
			}
			got[i] = texts(r)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, texts := range got {
		assert.Equal(t, want[inputs[i%len(inputs)]], texts)
	}
}

func TestConvertTimeout(t *testing.T) {
	c := newConverter(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	r, err := c.Convert(ctx, "きのう", 1)
	assert.ErrorIs(t, err, converter.ErrTimeout)
	assert.Nil(t, r)
}

func TestMergeLexicon(t *testing.T) {
	c := newConverter(t)
	lex := c.NewLexicon()
	require.NoError(t, lex.Add(lexicon.Entry{Reading: "きのう", Surface: "木野", Mode: lexicon.ModeMerge}))
	c.Register("user", lex)

	r, err := c.Convert(context.Background(), "きのう", 3)
	require.NoError(t, err)
	checkResult(t, r, 3)
	assert.Equal(t, "木野", r.Best.Text)
	assert.Equal(t, -3200, r.Best.Cost)
	assert.Equal(t, []string{"木野", "昨日", "機能"}, texts(r))
	assert.Equal(t, "名詞", r.Best.Tokens[0].POS)

	require.True(t, c.Unregister("user"))
	r, err = c.Convert(context.Background(), "きのう", 1)
	require.NoError(t, err)
	assert.Equal(t, "昨日", r.Best.Text)
}

func TestConvertWithUserEntries(t *testing.T) {
	c := newConverter(t)
	ctx := context.Background()
	entries := []lexicon.Entry{{Reading: "きの", Surface: "木野", Mode: lexicon.ModeMerge}}

	r, err := c.ConvertWithUserEntries(ctx, "きのう", entries, false, 1)
	require.NoError(t, err)
	assert.Equal(t, "木野う", r.Best.Text)
	assert.Equal(t, 14800, r.Best.Cost, "unknown う before EOS")

	r, err = c.ConvertWithUserEntries(ctx, "きのう", entries, true, 1)
	require.NoError(t, err)
	assert.Equal(t, "昨日", r.Best.Text)

	// the entries do not outlive the call
	r, err = c.ConvertWithUserEntries(ctx, "きのう", nil, false, 1)
	require.NoError(t, err)
	assert.Equal(t, "きのう", r.Best.Text)
}

func TestConvertWithUserEntriesInvalid(t *testing.T) {
	c := newConverter(t)
	_, err := c.ConvertWithUserEntries(context.Background(), "きのう", []lexicon.Entry{{Reading: ""}}, true, 1)
	assert.ErrorIs(t, err, lexicon.ErrEmptyReading)
}

func TestReplaceShortCircuit(t *testing.T) {
	c := newConverter(t)
	c.Register(converter.SystemLexiconName, converter.SystemLexicon())
	ctx := context.Background()

	r, err := c.ConvertRomaji(ctx, "test", 3)
	require.NoError(t, err)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, "テスト", r.Best.Text)
	assert.Equal(t, -5000, r.Best.Cost)
	assert.Equal(t, "test", r.Best.Tokens[0].Reading)

	r, err = c.ConvertRomaji(ctx, "testa", 1)
	require.NoError(t, err)
	assert.Equal(t, romaji.ToHiragana("testa"), r.Kana)
	assert.NotContains(t, r.Best.Text, "テスト")

	// "test" has no complete kana form so kana input is never replaced
	r, err = c.Convert(ctx, "て", 1)
	require.NoError(t, err)
	assert.Equal(t, "て", r.Best.Text)
}

func TestReplaceKanaInput(t *testing.T) {
	c := newConverter(t)
	lex := c.NewLexicon()
	require.NoError(t, lex.Add(lexicon.Entry{Reading: "とうきょう", Surface: "TOKYO", Mode: lexicon.ModeReplace}))
	c.Register("user", lex)

	r, err := c.Convert(context.Background(), "とうきょう", 5)
	require.NoError(t, err)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, "TOKYO", r.Best.Text)
	assert.Equal(t, lexicon.DefaultWordCost, r.Best.Cost)
}

func TestConvertRomaji(t *testing.T) {
	c := newConverter(t)
	c.Register(converter.SystemLexiconName, converter.SystemLexicon())

	r, err := c.ConvertRomaji(context.Background(), "kinou", 1)
	require.NoError(t, err)
	assert.Equal(t, "kinou", r.Input)
	assert.Equal(t, "きのう", r.Kana)
	assert.Equal(t, "昨日", r.Best.Text)
}

func TestInfo(t *testing.T) {
	c := newConverter(t)
	c.Register("a", c.NewLexicon())

	info := c.Info()
	assert.Equal(t, fixture.MatrixSize, info.MatrixSize)
	assert.Equal(t, fixture.MatrixSize, info.PosIDs)
	assert.Equal(t, fixture.ShardCount, info.Shards)
	assert.Equal(t, 1, info.Lexicons)
}

func TestNewMissingFiles(t *testing.T) {
	testCases := []struct {
		remove string
		target error
	}{
		{dictionary.MatrixFile, connection.ErrMatrixMissing},
		{dictionary.PosDefFile, pos.ErrDefinitionsMissing},
	}
	for _, tc := range testCases {
		t.Run(tc.remove, func(t *testing.T) {
			dir := fixture.Write(t)
			require.NoError(t, os.Remove(filepath.Join(dir, tc.remove)))
			_, err := converter.New(converter.DefaultOptions(dir))
			assert.ErrorIs(t, err, tc.target)
		})
	}

	_, err := converter.New(converter.DefaultOptions(t.TempDir()))
	assert.Error(t, err)
}

func TestFallbackShape(t *testing.T) {
	fb := decoder.Fallback("ぬ")
	assert.Equal(t, "ぬ", fb.Text)
	assert.Equal(t, 0, fb.Cost)
	require.Len(t, fb.Tokens, 1)
	assert.Equal(t, pos.Unknown.Label, fb.Tokens[0].POSLabel)
}
