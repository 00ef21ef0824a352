package converter

import "github.com/bastiangx/henkan/pkg/lexicon"

// SystemLexiconName is the registry name used for SystemLexicon.
const SystemLexiconName = "system"

func cost(v int) *int { return &v }

// SystemLexicon returns the built-in words shipped with the engine: one
// replace entry and a set of server entries keyed by romaji readings.
// Context ids are resolved from their part of speech on registration.
func SystemLexicon() *lexicon.Lexicon {
	lex := lexicon.New(lexicon.DefaultOptions())
	// every entry is valid, AddAll cannot fail here
	_ = lex.AddAll([]lexicon.Entry{
		{Reading: "test", Surface: "テスト", Mode: lexicon.ModeReplace, WordCost: cost(-5000), POS: "名詞"},

		{Reading: "tikakude", Surface: "近くで", Mode: lexicon.ModeServer, WordCost: cost(-1000), POS: "副詞", SubPOS: "一般"},
		{Reading: "daare", Surface: "だあれ", Mode: lexicon.ModeServer, WordCost: cost(-1200), POS: "名詞", SubPOS: "代名詞"},
		{Reading: "oite", Surface: "おいて", Mode: lexicon.ModeServer, WordCost: cost(-800), POS: "助詞", SubPOS: "格助詞"},
		{Reading: "masumasu", Surface: "ますます", Mode: lexicon.ModeServer, WordCost: cost(-1500), POS: "副詞", SubPOS: "一般"},
		{Reading: "banngohann", Surface: "晩ご飯", Mode: lexicon.ModeServer, WordCost: cost(-1800), POS: "名詞", SubPOS: "一般"},
		{Reading: "hataite", Surface: "はたいて", Mode: lexicon.ModeServer, WordCost: cost(-800), POS: "動詞", SubPOS: "自立"},
		{Reading: "anni", Surface: "Annihilation", Mode: lexicon.ModeServer, WordCost: cost(2000)},
		{Reading: "maaiiya", Surface: "まあいいや", Mode: lexicon.ModeServer, WordCost: cost(1000)},
		{Reading: "maaiiyo", Surface: "まあいいよ", Mode: lexicon.ModeServer, WordCost: cost(1000)},
		{Reading: "ai", Surface: "AI", Mode: lexicon.ModeServer, WordCost: cost(2000)},
		{Reading: "ime", Surface: "IME", Mode: lexicon.ModeServer, WordCost: cost(2000)},
		{Reading: "op", Surface: "Operator", Mode: lexicon.ModeServer, WordCost: cost(2000)},
		{Reading: "unn", Surface: "うん", Mode: lexicon.ModeServer, WordCost: cost(2000)},
		{Reading: "unnsouda", Surface: "うんそうだ", Mode: lexicon.ModeServer, WordCost: cost(2000)},
	})
	return lex
}
