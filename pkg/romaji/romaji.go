// Package romaji transliterates romanized Japanese into hiragana with a
// longest-match rule table.
package romaji

import (
	"strings"
	"unicode"

	"github.com/tchap/go-patricia/v2/patricia"
)

// MaxKeyLen is the longest rule key in runes.
const MaxKeyLen = 4

var rules = map[string]string{
	// contracted sounds
	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",
	"sha": "しゃ", "shu": "しゅ", "sho": "しょ",
	"cha": "ちゃ", "chu": "ちゅ", "cho": "ちょ",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",
	"ja": "じゃ", "ju": "じゅ", "jo": "じょ",

	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"sa": "さ", "shi": "し", "si": "し", "su": "す", "se": "せ", "so": "そ",
	"ta": "た", "chi": "ち", "ti": "ち", "tsu": "つ", "tu": "つ", "te": "て", "to": "と",
	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"ha": "は", "hi": "ひ", "fu": "ふ", "hu": "ふ", "he": "へ", "ho": "ほ",
	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"wa": "わ", "wo": "を",
	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"za": "ざ", "ji": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"da": "だ", "de": "で", "do": "ど",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",

	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",
	"n": "ん", "m": "ん", "n'": "ん",

	// small kana
	"xa": "ぁ", "la": "ぁ",
	"xi": "ぃ", "li": "ぃ",
	"xu": "ぅ", "lu": "ぅ",
	"xe": "ぇ", "le": "ぇ",
	"xo": "ぉ", "lo": "ぉ",
	"xtu": "っ", "ltu": "っ",
	"xya": "ゃ", "lya": "ゃ",
	"xyu": "ゅ", "lyu": "ゅ",
	"xyo": "ょ", "lyo": "ょ",

	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ", "zye": "じぇ", "zyi": "じぃ",

	"kye": "きぇ", "kyi": "きぃ",
	"gye": "ぎぇ", "gyi": "ぎぃ",
	"sye": "しぇ", "syi": "しぃ",
	"jye": "じぇ", "jyi": "じぃ",
	"tye": "ちぇ", "tyi": "ちぃ",
	"dye": "ぢぇ", "dyi": "ぢぃ",
	"nye": "にぇ", "nyi": "にぃ",
	"hye": "ひぇ", "hyi": "ひぃ",
	"bye": "びぇ", "byi": "びぃ",
	"pye": "ぴぇ", "pyi": "ぴぃ",
	"mye": "みぇ", "myi": "みぃ",
	"rye": "りぇ", "ryi": "りぃ",

	"gwa": "ぐぁ", "gwi": "ぐぃ", "gwu": "ぐぅ", "gwe": "ぐぇ", "gwo": "ぐぉ",
	"kwa": "くぁ", "kwi": "くぃ", "kwu": "くぅ", "kwe": "くぇ", "kwo": "くぉ",
	"qa": "くぁ", "qi": "くぃ", "qwu": "くぅ", "qe": "くぇ", "qo": "くぉ",

	"thi": "てぃ", "the": "てぇ", "thu": "てゅ", "tha": "てゃ", "tho": "てょ",
	"dhi": "でぃ", "dhe": "でぇ", "dhu": "でゅ", "dha": "でゃ", "dho": "でょ",
	"twa": "とぁ", "twi": "とぃ", "twu": "とぅ", "twe": "とぇ", "two": "とぉ",
	"dwa": "どぁ", "dwi": "どぃ", "dwu": "どぅ", "dwe": "どぇ", "dwo": "どぉ",

	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ", "fwu": "ふぅ",
	"wha": "うぁ", "who": "うぉ", "wi": "うぃ", "we": "うぇ",
	"di": "ぢ", "du": "づ",
}

var macrons = strings.NewReplacer(
	"ā", "aa", "ī", "ii", "ū", "uu", "ē", "ee", "ō", "ou",
	"Ā", "aa", "Ī", "ii", "Ū", "uu", "Ē", "ee", "Ō", "ou",
)

// Table is an immutable rule trie. The zero value is not usable; use
// Default or NewTable.
type Table struct {
	trie *patricia.Trie
}

var defaultTable = NewTable(rules)

// Default returns the built-in rule table.
func Default() *Table {
	return defaultTable
}

// NewTable builds a table from lowercase romaji -> kana rules.
func NewTable(rules map[string]string) *Table {
	trie := patricia.NewTrie()
	for key, kana := range rules {
		trie.Insert(patricia.Prefix(key), kana)
	}
	return &Table{trie: trie}
}

// IsPrefix reports whether some rule key starts with s.
func (t *Table) IsPrefix(s string) bool {
	if s == "" {
		return false
	}
	return t.trie.MatchSubtree(patricia.Prefix(strings.ToLower(s)))
}

// match returns the longest rule key that prefixes runes and its kana.
func (t *Table) match(runes []rune) (int, string) {
	key := string(runes[:min(MaxKeyLen, len(runes))])
	var width int
	var kana string
	t.trie.VisitPrefixes(patricia.Prefix(key), func(prefix patricia.Prefix, item patricia.Item) error {
		width = len([]rune(string(prefix)))
		kana = item.(string)
		return nil
	})
	return width, kana
}

// ToHiragana converts text. Whitespace runs are kept as is. A doubled
// consonant other than n becomes っ. ASCII letters and digits that no rule
// consumes are dropped when removeIllegal is set; any other character is
// kept.
func (t *Table) ToHiragana(text string, removeIllegal bool) string {
	norm := macrons.Replace(strings.ToLower(text))

	var out strings.Builder
	runes := []rune(norm)
	start := 0
	for start < len(runes) {
		end := start
		space := unicode.IsSpace(runes[start])
		for end < len(runes) && unicode.IsSpace(runes[end]) == space {
			end++
		}
		if space {
			out.WriteString(string(runes[start:end]))
		} else {
			t.convertToken(&out, runes[start:end], removeIllegal)
		}
		start = end
	}
	return strings.ReplaceAll(out.String(), "んん", "ん")
}

func (t *Table) convertToken(out *strings.Builder, runes []rune, removeIllegal bool) {
	for pos := 0; pos < len(runes); {
		cur := runes[pos]
		if pos+1 < len(runes) && runes[pos+1] == cur && isConsonant(cur) && cur != 'n' {
			out.WriteString("っ")
			pos++
			continue
		}

		if width, kana := t.match(runes[pos:]); width > 0 {
			out.WriteString(kana)
			pos += width
			continue
		}

		if !removeIllegal || !isASCIIAlnum(cur) {
			out.WriteRune(cur)
		}
		pos++
	}
}

// ToKatakana converts text to hiragana and shifts it into the katakana block.
func (t *Table) ToKatakana(text string, removeIllegal bool) string {
	return HiraganaToKatakana(t.ToHiragana(text, removeIllegal))
}

// ToHiragana converts text with the default table.
func ToHiragana(text string) string {
	return defaultTable.ToHiragana(text, true)
}

// HiraganaToKatakana maps U+3041..U+3096 onto the katakana block.
func HiraganaToKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x3041 && r <= 0x3096 {
			return r + 0x60
		}
		return r
	}, s)
}

// IsConsonant reports whether r is an ASCII consonant letter.
func IsConsonant(r rune) bool {
	return isConsonant(unicode.ToLower(r))
}

func isConsonant(r rune) bool {
	return strings.ContainsRune("bcdfghjklmnpqrstvwxyz", r)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
