package decoder

import (
	"strings"

	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/bastiangx/henkan/pkg/pos"
)

// Token is one word of a rendered candidate.
type Token struct {
	Surface  string `msgpack:"surface"`
	Reading  string `msgpack:"reading"`
	WordCost int    `msgpack:"word_cost"`
	Penalty  int    `msgpack:"penalty"`
	POS      string `msgpack:"pos"`
	SubPOS   string `msgpack:"subpos"`
	POSLabel string `msgpack:"pos_label"`
}

// Candidate is one decoding of the input.
type Candidate struct {
	Text   string  `msgpack:"text"`
	Cost   int     `msgpack:"cost"`
	Tokens []Token `msgpack:"tokens"`
}

// render turns a BOS..EOS id path into a candidate. Sentinels are skipped.
func render(lat *lattice.Lattice, grammar Grammar, path []int, cost int) Candidate {
	var text strings.Builder
	tokens := make([]Token, 0, len(path))
	for _, id := range path {
		if id == lat.BOS || id == lat.EOS {
			continue
		}
		n := lat.Node(id)
		info := nodeInfo(grammar, n)
		tokens = append(tokens, Token{
			Surface:  n.Surface,
			Reading:  n.Reading,
			WordCost: n.WordCost,
			Penalty:  n.Penalty,
			POS:      info.POS,
			SubPOS:   info.SubPOS,
			POSLabel: info.Label,
		})
		text.WriteString(n.Surface)
	}
	return Candidate{Text: text.String(), Cost: cost, Tokens: tokens}
}

// nodeInfo prefers the part of speech carried by the word itself.
func nodeInfo(grammar Grammar, n *lattice.Node) pos.Info {
	switch {
	case n.POS != "":
		return pos.NewInfo(n.POS, n.SubPOS)
	case n.Unknown:
		return pos.Unknown
	default:
		return grammar.Lookup(n.LeftID)
	}
}

// Fallback returns the whole input as a single zero-cost unknown word.
func Fallback(kana string) Candidate {
	return Candidate{
		Text: kana,
		Tokens: []Token{{
			Surface:  kana,
			Reading:  kana,
			POS:      pos.Unknown.POS,
			SubPOS:   pos.Unknown.SubPOS,
			POSLabel: pos.Unknown.Label,
		}},
	}
}

// Best backtracks the forward pointers from EOS. It returns Fallback when
// EOS was not reached.
func Best(lat *lattice.Lattice, pass *Pass, grammar Grammar) Candidate {
	if !pass.Reachable(lat.EOS) {
		return Fallback(lat.Input)
	}
	var path []int
	for id := lat.EOS; id >= 0; id = pass.Prev[id] {
		path = append(path, id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return render(lat, grammar, path, pass.Cost[lat.EOS])
}
