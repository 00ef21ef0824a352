package lexicon

import (
	"errors"
	"strings"

	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/pos"
)

// Mode selects how an entry takes part in a conversion.
type Mode int

const (
	// ModeReplace entries rewrite matching input without decoding.
	ModeReplace Mode = 2
	// ModeMerge entries are injected into the lattice ahead of built-in words.
	ModeMerge Mode = 4
	// ModeServer behaves like ModeMerge; it marks server-provided words.
	ModeServer Mode = 5
)

// Default entry attributes.
const (
	DefaultWordCost = -3000
	DefaultPOS      = "名詞"
	DefaultSubPOS   = "一般"
)

// ErrEmptyReading is returned for entries whose reading is empty after
// sanitizing.
var ErrEmptyReading = errors.New("lexicon entry has an empty reading")

// ParseMode maps a numeric mode onto a valid Mode, falling back to
// ModeReplace.
func ParseMode(v int) Mode {
	switch m := Mode(v); m {
	case ModeReplace, ModeMerge, ModeServer:
		return m
	}
	return ModeReplace
}

func (m Mode) String() string {
	switch m {
	case ModeReplace:
		return "replace"
	case ModeMerge:
		return "merge"
	case ModeServer:
		return "server"
	}
	return "invalid"
}

// Injected reports whether entries of this mode are added to the lattice.
func (m Mode) Injected() bool {
	return m == ModeMerge || m == ModeServer
}

// Entry is a caller-supplied word. Optional fields are pointers or empty
// strings; Add fills them with defaults.
type Entry struct {
	Reading  string `msgpack:"reading" toml:"reading"`
	Surface  string `msgpack:"surface,omitempty" toml:"surface"`
	Mode     Mode   `msgpack:"mode,omitempty" toml:"mode"`
	WordCost *int   `msgpack:"word_cost,omitempty" toml:"word_cost"`
	POS      string `msgpack:"pos,omitempty" toml:"pos"`
	SubPOS   string `msgpack:"subpos,omitempty" toml:"subpos"`
	LeftID   *int   `msgpack:"left_id,omitempty" toml:"left_id"`
	RightID  *int   `msgpack:"right_id,omitempty" toml:"right_id"`
}

// Cost returns the word cost, or DefaultWordCost when unset.
func (e Entry) Cost() int {
	if e.WordCost == nil {
		return DefaultWordCost
	}
	return *e.WordCost
}

// Info returns the part of speech of the entry.
func (e Entry) Info() pos.Info {
	return pos.NewInfo(e.POS, e.SubPOS)
}

// ids returns the context ids, 0 when unresolved.
func (e Entry) ids() (int, int) {
	left, right := 0, 0
	if e.LeftID != nil {
		left = *e.LeftID
	}
	if e.RightID != nil {
		right = *e.RightID
	}
	return left, right
}

// dictionaryEntry converts the entry into a lattice word keyed by kana.
func (e Entry) dictionaryEntry(kana string) dictionary.Entry {
	left, right := e.ids()
	return dictionary.Entry{
		Reading:  kana,
		Surface:  e.Surface,
		LeftID:   left,
		RightID:  right,
		WordCost: e.Cost(),
		POS:      e.POS,
		SubPOS:   e.SubPOS,
	}
}

// Sanitize removes C0 control characters other than tab, LF and CR.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// normalize sanitizes an entry and fills its defaults.
func normalize(e Entry, wordCost int) (Entry, error) {
	e.Reading = Sanitize(e.Reading)
	if e.Reading == "" {
		return Entry{}, ErrEmptyReading
	}
	e.Surface = Sanitize(e.Surface)
	if e.Surface == "" {
		e.Surface = e.Reading
	}
	e.Mode = ParseMode(int(e.Mode))
	if e.WordCost == nil {
		e.WordCost = &wordCost
	}
	e.POS = Sanitize(e.POS)
	if e.POS == "" {
		e.POS = DefaultPOS
	}
	e.SubPOS = Sanitize(e.SubPOS)
	if e.SubPOS == "" {
		e.SubPOS = DefaultSubPOS
	}
	return e, nil
}

// IsASCII reports whether s is non-empty and made of printable ASCII only.
func IsASCII(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
