// Package lexicon holds user supplied words that are overlaid on the system
// dictionary during a conversion.
//
// Merge and server entries are injected into the lattice ahead of built-in
// words for the same reading. Replace entries bypass decoding: a kana input
// that equals a replace reading becomes that entry's surface, and raw romaji
// input is rewritten before transliteration.
package lexicon

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/romaji"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// IDResolver finds a context id for a part of speech.
type IDResolver interface {
	FindID(pos, subpos string) (int, bool)
}

// Options configures a Lexicon.
type Options struct {
	// DefaultWordCost is used for entries without a word cost.
	DefaultWordCost int
	// Romaji transliterates ASCII readings. Nil uses romaji.Default.
	Romaji *romaji.Table
}

// DefaultOptions returns the standard lexicon options.
func DefaultOptions() Options {
	return Options{DefaultWordCost: DefaultWordCost}
}

type item struct {
	entry Entry
	kana  string
}

// Lexicon is an ordered set of user entries with lazily built prefix
// indexes. Lookups are safe for concurrent use; mutations must not run
// concurrently with a conversion that uses the lexicon.
type Lexicon struct {
	mu       sync.Mutex
	opts     Options
	items    []item
	resolver IDResolver

	// rebuilt on demand after a mutation
	kanaIndex    *patricia.Trie
	replaceIndex *patricia.Trie
}

// Match is a lexicon hit at a byte offset of the searched text.
type Match struct {
	Reading string
	End     int
	Entry   dictionary.Entry

	item int
}

// New creates an empty lexicon.
func New(opts Options) *Lexicon {
	if opts.Romaji == nil {
		opts.Romaji = romaji.Default()
	}
	return &Lexicon{opts: opts}
}

// FromEntries creates a lexicon and adds entries to it.
func FromEntries(opts Options, entries []Entry) (*Lexicon, error) {
	l := New(opts)
	return l, l.AddAll(entries)
}

// Add normalizes and appends one entry.
func (l *Lexicon) Add(e Entry) error {
	normalized, err := normalize(e, l.opts.DefaultWordCost)
	if err != nil {
		return err
	}
	kana := normalized.Reading
	if IsASCII(kana) {
		kana = romajiKana(l.opts.Romaji, kana)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolver != nil {
		normalized = resolve(normalized, l.resolver)
	}
	l.items = append(l.items, item{entry: normalized, kana: kana})
	l.invalidate()
	return nil
}

// AddAll adds every entry. Invalid entries are skipped and reported
// together.
func (l *Lexicon) AddAll(entries []Entry) error {
	var errs []error
	for i, e := range entries {
		if err := l.Add(e); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Clear removes every entry.
func (l *Lexicon) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.invalidate()
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// All returns a copy of the normalized entries in insertion order.
func (l *Lexicon) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.items))
	for i, it := range l.items {
		out[i] = it.entry
	}
	return out
}

// ByMode returns the entries of one mode in insertion order.
func (l *Lexicon) ByMode(mode Mode) []Entry {
	var out []Entry
	for _, e := range l.All() {
		if e.Mode == mode {
			out = append(out, e)
		}
	}
	return out
}

// Resolve fills missing context ids through r and keeps r for entries
// added later. Entries whose part of speech is unknown to r get id 0.
func (l *Lexicon) Resolve(r IDResolver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolver = r
	for i := range l.items {
		l.items[i].entry = resolve(l.items[i].entry, r)
	}
	l.invalidate()
}

func resolve(e Entry, r IDResolver) Entry {
	if e.LeftID != nil && e.RightID != nil {
		return e
	}
	id, ok := r.FindID(e.POS, e.SubPOS)
	if !ok {
		id = 0
	}
	if e.LeftID == nil {
		left := id
		e.LeftID = &left
	}
	if e.RightID == nil {
		right := id
		e.RightID = &right
	}
	return e
}

func (l *Lexicon) invalidate() {
	l.kanaIndex = nil
	l.replaceIndex = nil
}

// indexes returns the kana and replace tries, building them if needed.
// Trie items are slices of item positions in insertion order.
func (l *Lexicon) indexes() (*patricia.Trie, *patricia.Trie, []item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kanaIndex == nil {
		l.kanaIndex = patricia.NewTrie()
		l.replaceIndex = patricia.NewTrie()
		for i, it := range l.items {
			appendIndex(l.kanaIndex, it.kana, i)
			if it.entry.Mode == ModeReplace {
				appendIndex(l.replaceIndex, it.entry.Reading, i)
			}
		}
		log.Debugf("Lexicon index built: %d entries", len(l.items))
	}
	return l.kanaIndex, l.replaceIndex, l.items
}

func appendIndex(trie *patricia.Trie, key string, i int) {
	if key == "" {
		return
	}
	k := patricia.Prefix(key)
	if existing := trie.Get(k); existing != nil {
		trie.Set(k, append(existing.([]int), i))
		return
	}
	trie.Insert(k, []int{i})
}

// MatchAt returns the entries whose kana reading starts at byte offset
// start of text, shortest reading first, restricted to modes when given.
func (l *Lexicon) MatchAt(text string, start int, modes ...Mode) []Match {
	if start < 0 || start >= len(text) {
		return nil
	}
	kanaIndex, _, items := l.indexes()

	var matches []Match
	kanaIndex.VisitPrefixes(patricia.Prefix(text[start:]), func(prefix patricia.Prefix, value patricia.Item) error {
		reading := string(prefix)
		for _, i := range value.([]int) {
			it := items[i]
			if len(modes) > 0 && !slices.Contains(modes, it.entry.Mode) {
				continue
			}
			matches = append(matches, Match{
				Reading: reading,
				End:     start + len(prefix),
				Entry:   it.entry.dictionaryEntry(reading),
				item:    i,
			})
		}
		return nil
	})
	return matches
}

// Collect gathers the injected entries whose reading occurs anywhere in
// kana. Each stored entry appears once however often its reading occurs,
// grouped by reading in the order readings are first found scanning left to
// right.
func (l *Lexicon) Collect(kana string) *dictionary.Entries {
	out := dictionary.NewEntries()
	seen := make(map[int]struct{})
	for start := 0; start < len(kana); {
		for _, m := range l.MatchAt(kana, start, ModeMerge, ModeServer) {
			if _, ok := seen[m.item]; ok {
				continue
			}
			seen[m.item] = struct{}{}
			out.Add(m.Reading, m.Entry)
		}
		_, size := utf8.DecodeRuneInString(kana[start:])
		start += size
	}
	return out
}

// ReplaceKana returns the first replace entry whose kana reading equals
// kana.
func (l *Lexicon) ReplaceKana(kana string) (Entry, bool) {
	if kana == "" {
		return Entry{}, false
	}
	kanaIndex, _, items := l.indexes()
	value := kanaIndex.Get(patricia.Prefix(kana))
	if value == nil {
		return Entry{}, false
	}
	for _, i := range value.([]int) {
		if items[i].entry.Mode == ModeReplace {
			return items[i].entry, true
		}
	}
	return Entry{}, false
}

// ApplyReplacements rewrites raw input with replace entries. At each
// position the longest matching reading wins unless it ends in a
// consonant that the next input letter would still extend into a romaji
// syllable. The entry is returned with ok set when the whole input was
// exactly one replacement.
func (l *Lexicon) ApplyReplacements(input string) (out string, whole Entry, ok bool) {
	_, replaceIndex, items := l.indexes()
	table := l.opts.Romaji

	var buf []byte
	replaced := 0
	for start := 0; start < len(input); {
		end, idx := -1, -1
		replaceIndex.VisitPrefixes(patricia.Prefix(input[start:]), func(prefix patricia.Prefix, value patricia.Item) error {
			e := start + len(prefix)
			if collides(table, input, e) {
				return nil
			}
			end, idx = e, value.([]int)[0]
			return nil
		})
		if idx < 0 {
			_, size := utf8.DecodeRuneInString(input[start:])
			buf = append(buf, input[start:start+size]...)
			start += size
			continue
		}
		entry := items[idx].entry
		if start == 0 && end == len(input) {
			return entry.Surface, entry, true
		}
		buf = append(buf, entry.Surface...)
		replaced++
		start = end
	}
	if replaced > 0 {
		log.Debugf("Applied %d replacements to %q", replaced, input)
	}
	return string(buf), Entry{}, false
}

// collides reports whether the match ending at end stops on a consonant
// that forms a romaji prefix with the following ASCII letter.
func collides(table *romaji.Table, input string, end int) bool {
	if end <= 0 || end >= len(input) {
		return false
	}
	last, next := rune(input[end-1]), rune(input[end])
	if !romaji.IsConsonant(last) || !isASCIILetter(next) {
		return false
	}
	return table.IsPrefix(string([]rune{last, next}))
}

// romajiKana transliterates an ASCII reading. Readings that do not
// convert completely have no kana form and only match raw input.
func romajiKana(table *romaji.Table, reading string) string {
	kana := table.ToHiragana(reading, false)
	if strings.IndexFunc(kana, isASCIILetter) >= 0 {
		return ""
	}
	return kana
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
