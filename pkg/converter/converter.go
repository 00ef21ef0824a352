// Package converter turns kana or romaji input into ranked Japanese text
// candidates. It owns the read-only dictionary resources and the registry
// of user lexicons.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bastiangx/henkan/pkg/connection"
	"github.com/bastiangx/henkan/pkg/decoder"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/bastiangx/henkan/pkg/lexicon"
	"github.com/bastiangx/henkan/pkg/pos"
	"github.com/bastiangx/henkan/pkg/romaji"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// MaxNBest is the upper bound for the number of requested candidates.
const MaxNBest = 100

// ErrTimeout is returned when a conversion exceeds its deadline.
var ErrTimeout = decoder.ErrTimeout

// Options configures a Converter.
type Options struct {
	// DataDir holds the dictionary shards, index, matrix and id.def.
	DataDir string
	// Timeout bounds one conversion; zero disables it.
	Timeout time.Duration
	// MaxReadingLen caps dictionary lookups in runes.
	MaxReadingLen int
	// UserWordCost is the default cost of lexicon entries created here.
	UserWordCost int

	Lattice lattice.Options
	Decoder decoder.Options
}

// DefaultOptions returns options for dataDir with the standard penalties.
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:       dataDir,
		MaxReadingLen: dictionary.DefaultMaxReadingLen,
		UserWordCost:  lexicon.DefaultWordCost,
		Lattice:       lattice.DefaultOptions(),
		Decoder:       decoder.DefaultOptions(),
	}
}

// Result is the outcome of one conversion.
type Result struct {
	Input      string              `msgpack:"input"`
	Kana       string              `msgpack:"kana"`
	Best       decoder.Candidate   `msgpack:"best"`
	Candidates []decoder.Candidate `msgpack:"candidates"`
}

// Converter is safe for concurrent conversions. Registering or mutating a
// lexicon must not race with a conversion that uses it.
type Converter struct {
	opts     Options
	index    *dictionary.Index
	matrix   *connection.Table
	grammar  *pos.Table
	romaji   *romaji.Table
	lexicons *lexicon.Registry
}

// New loads the dictionary index, connection matrix and POS table from
// opts.DataDir. Any missing or corrupt file fails construction.
func New(opts Options) (*Converter, error) {
	c := &Converter{
		opts:     opts,
		romaji:   romaji.Default(),
		lexicons: lexicon.NewRegistry(),
	}

	var g errgroup.Group
	g.Go(func() error {
		index, err := dictionary.Open(opts.DataDir, opts.MaxReadingLen)
		if err != nil {
			return err
		}
		c.index = index
		return nil
	})
	g.Go(func() error {
		matrix, err := connection.Open(filepath.Join(opts.DataDir, dictionary.MatrixFile))
		if err != nil {
			return err
		}
		c.matrix = matrix
		return nil
	})
	g.Go(func() error {
		grammar, err := pos.Load(filepath.Join(opts.DataDir, dictionary.PosDefFile), pos.DefaultRules())
		if err != nil {
			return err
		}
		c.grammar = grammar
		return nil
	})
	if err := g.Wait(); err != nil {
		if c.index != nil {
			c.index.Close()
		}
		return nil, fmt.Errorf("failed to load data from %s: %w", opts.DataDir, err)
	}

	stats := c.index.Stats()
	log.Debugf("Converter ready: records=%d shards=%d matrix=%d pos=%d",
		stats.Records, stats.Shards, c.matrix.Size(), c.grammar.Len())
	return c, nil
}

// Close releases the mapped dictionary files.
func (c *Converter) Close() error {
	return c.index.Close()
}

// Convert decodes a kana string into at most n candidates.
func (c *Converter) Convert(ctx context.Context, kana string, n int) (*Result, error) {
	return c.convert(ctx, kana, kana, nil, true, n)
}

// ConvertWithUserEntries decodes kana with entries overlaid for this call
// only. With useBuiltin false the system dictionary is not consulted.
func (c *Converter) ConvertWithUserEntries(ctx context.Context, kana string, entries []lexicon.Entry, useBuiltin bool, n int) (*Result, error) {
	lex, err := lexicon.FromEntries(c.lexiconOptions(), entries)
	if err != nil {
		return nil, fmt.Errorf("invalid user entries: %w", err)
	}
	lex.Resolve(c.grammar)
	return c.convert(ctx, kana, kana, lex, useBuiltin, n)
}

// ConvertRomaji applies registered replace entries to the raw input,
// transliterates the rest to hiragana and decodes it.
func (c *Converter) ConvertRomaji(ctx context.Context, input string, n int) (*Result, error) {
	rewritten := input
	var whole *lexicon.Entry
	c.lexicons.Each(func(name string, lex *lexicon.Lexicon) bool {
		out, entry, ok := lex.ApplyReplacements(rewritten)
		if ok {
			log.Debugf("Input %q replaced by lexicon %s", input, name)
			whole = &entry
			return false
		}
		rewritten = out
		return true
	})

	if whole != nil {
		return replacement(input, whole.Reading, *whole), nil
	}
	return c.convert(ctx, input, c.romaji.ToHiragana(rewritten, true), nil, true, n)
}

func (c *Converter) convert(ctx context.Context, input, kana string, extra *lexicon.Lexicon, useBuiltin bool, n int) (*Result, error) {
	n = ClampN(n)
	lexicons := c.active(extra)

	for _, lex := range lexicons {
		if entry, ok := lex.ReplaceKana(kana); ok {
			return replacement(input, kana, entry), nil
		}
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	entries := dictionary.NewEntries()
	if useBuiltin {
		entries = c.index.Search(kana)
	}
	inject(entries, kana, lexicons)
	log.Debugf("Lattice for %q: %d readings, %d words", kana, entries.Len(), entries.Count())

	lat := lattice.Build(kana, entries, c.opts.Lattice)
	pass, err := decoder.Forward(ctx, lat, c.matrix, c.grammar, c.opts.Decoder)
	if err != nil {
		return nil, err
	}

	var candidates []decoder.Candidate
	if n == 1 {
		candidates = []decoder.Candidate{decoder.Best(lat, pass, c.grammar)}
	} else {
		candidates = decoder.NBest(lat, pass, c.matrix, c.grammar, n, c.opts.Decoder)
	}

	return &Result{
		Input:      input,
		Kana:       kana,
		Best:       candidates[0],
		Candidates: candidates,
	}, nil
}

// active lists the registered lexicons in registration order, then extra.
func (c *Converter) active(extra *lexicon.Lexicon) []*lexicon.Lexicon {
	var out []*lexicon.Lexicon
	c.lexicons.Each(func(_ string, lex *lexicon.Lexicon) bool {
		out = append(out, lex)
		return true
	})
	if extra != nil {
		out = append(out, extra)
	}
	return out
}

// inject places merge and server entries ahead of built-in entries for the
// same reading. Entries from earlier lexicons come first.
func inject(entries *dictionary.Entries, kana string, lexicons []*lexicon.Lexicon) {
	user := dictionary.NewEntries()
	for _, lex := range lexicons {
		found := lex.Collect(kana)
		for _, reading := range found.Readings() {
			user.Add(reading, found.Get(reading)...)
		}
	}
	for _, reading := range user.Readings() {
		entries.Prepend(reading, user.Get(reading)...)
	}
}

// replacement renders a replace entry as the only candidate.
func replacement(input, kana string, e lexicon.Entry) *Result {
	info := e.Info()
	candidate := decoder.Candidate{
		Text: e.Surface,
		Cost: e.Cost(),
		Tokens: []decoder.Token{{
			Surface:  e.Surface,
			Reading:  kana,
			WordCost: e.Cost(),
			POS:      info.POS,
			SubPOS:   info.SubPOS,
			POSLabel: info.Label,
		}},
	}
	return &Result{
		Input:      input,
		Kana:       kana,
		Best:       candidate,
		Candidates: []decoder.Candidate{candidate},
	}
}

// ClampN bounds a requested candidate count to [1, MaxNBest].
func ClampN(n int) int {
	return max(1, min(n, MaxNBest))
}

// NewLexicon creates an empty lexicon using the converter's default user
// word cost.
func (c *Converter) NewLexicon() *lexicon.Lexicon {
	return lexicon.New(c.lexiconOptions())
}

func (c *Converter) lexiconOptions() lexicon.Options {
	return lexicon.Options{DefaultWordCost: c.opts.UserWordCost, Romaji: c.romaji}
}

// Register resolves the lexicon's context ids and adds it under name.
func (c *Converter) Register(name string, lex *lexicon.Lexicon) {
	lex.Resolve(c.grammar)
	c.lexicons.Register(name, lex)
	log.Debugf("Registered lexicon %s (%d entries)", name, lex.Len())
}

// Unregister removes a named lexicon.
func (c *Converter) Unregister(name string) bool {
	return c.lexicons.Unregister(name)
}

// Lexicons returns the registry of named lexicons.
func (c *Converter) Lexicons() *lexicon.Registry {
	return c.lexicons
}

// Info describes the loaded resources.
type Info struct {
	DataDir    string `msgpack:"data_dir"`
	Records    int    `msgpack:"records"`
	Shards     int    `msgpack:"shards"`
	MatrixSize int    `msgpack:"matrix_size"`
	PosIDs     int    `msgpack:"pos_ids"`
	Lexicons   int    `msgpack:"lexicons"`
}

// Info returns counters about the loaded dictionary.
func (c *Converter) Info() Info {
	stats := c.index.Stats()
	return Info{
		DataDir:    c.index.Dir(),
		Records:    stats.Records,
		Shards:     stats.Shards,
		MatrixSize: c.matrix.Size(),
		PosIDs:     c.grammar.Len(),
		Lexicons:   c.lexicons.Len(),
	}
}
