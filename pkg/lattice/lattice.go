// Package lattice builds the word graph over a kana input. Nodes live in
// one arena and refer to each other only by index.
package lattice

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/henkan/pkg/dictionary"
)

// Default penalties.
const (
	SameSurfacePenalty = 1000
	UnknownPenalty     = 10000
)

// Options holds the penalties applied while building.
type Options struct {
	// SameSurfacePenalty is added to words whose surface equals their reading.
	SameSurfacePenalty int
	// UnknownPenalty is the cost of a synthesized single-rune node.
	UnknownPenalty int
}

// DefaultOptions returns the standard penalties.
func DefaultOptions() Options {
	return Options{
		SameSurfacePenalty: SameSurfacePenalty,
		UnknownPenalty:     UnknownPenalty,
	}
}

// Node is one candidate word spanning runes [Start, End) of the input.
type Node struct {
	ID       int
	Start    int
	End      int
	Reading  string
	Surface  string
	LeftID   int
	RightID  int
	WordCost int
	Penalty  int
	Cost     int

	Unknown bool
	// POS and SubPOS are set when the word carried its own part of speech.
	POS    string
	SubPOS string
}

// Sentinel reports whether the node is BOS or EOS.
func (n *Node) Sentinel() bool {
	return n.Start == n.End
}

// Lattice is the node arena plus per-position indices.
type Lattice struct {
	Input string
	Len   int
	Nodes []Node
	BOS   int
	EOS   int

	byStart [][]int
	byEnd   [][]int
}

// StartingAt returns the ids of nodes starting at rune offset p.
func (l *Lattice) StartingAt(p int) []int {
	if p < 0 || p >= len(l.byStart) {
		return nil
	}
	return l.byStart[p]
}

// EndingAt returns the ids of nodes ending at rune offset p.
func (l *Lattice) EndingAt(p int) []int {
	if p < 0 || p >= len(l.byEnd) {
		return nil
	}
	return l.byEnd[p]
}

// Node returns the node with the given id.
func (l *Lattice) Node(id int) *Node {
	return &l.Nodes[id]
}

func (l *Lattice) add(n Node) int {
	n.ID = len(l.Nodes)
	l.Nodes = append(l.Nodes, n)
	l.byStart[n.Start] = append(l.byStart[n.Start], n.ID)
	l.byEnd[n.End] = append(l.byEnd[n.End], n.ID)
	return n.ID
}

// Build creates a lattice for kana from entries. Every occurrence of each
// reading, overlapping ones included, yields one node per entry. Node ids
// follow reading order, then occurrence order, then entry order. Positions
// where no word starts get an unknown single-rune node.
func Build(kana string, entries *dictionary.Entries, opts Options) *Lattice {
	runeAt := make(map[int]int, len(kana)+1)
	n := 0
	for i := range kana {
		runeAt[i] = n
		n++
	}
	runeAt[len(kana)] = n

	l := &Lattice{
		Input:   kana,
		Len:     n,
		byStart: make([][]int, n+1),
		byEnd:   make([][]int, n+1),
	}
	l.BOS = l.add(Node{})

	if entries != nil {
		for _, reading := range entries.Readings() {
			if reading == "" {
				continue
			}
			words := entries.Get(reading)
			readingLen := utf8.RuneCountInString(reading)
			for offset := 0; offset < len(kana); {
				i := strings.Index(kana[offset:], reading)
				if i < 0 {
					break
				}
				at := offset + i
				start := runeAt[at]
				for _, w := range words {
					penalty := 0
					if w.Surface == reading {
						penalty = opts.SameSurfacePenalty
					}
					l.add(Node{
						Start:    start,
						End:      start + readingLen,
						Reading:  reading,
						Surface:  w.Surface,
						LeftID:   w.LeftID,
						RightID:  w.RightID,
						WordCost: w.WordCost,
						Penalty:  penalty,
						Cost:     w.WordCost + penalty,
						POS:      w.POS,
						SubPOS:   w.SubPOS,
					})
				}
				_, size := utf8.DecodeRuneInString(kana[at:])
				offset = at + size
			}
		}
	}

	for offset, r := range kana {
		p := runeAt[offset]
		if l.hasWordAt(p) {
			continue
		}
		ch := string(r)
		l.add(Node{
			Start:   p,
			End:     p + 1,
			Reading: ch,
			Surface: ch,
			Penalty: opts.UnknownPenalty,
			Cost:    opts.UnknownPenalty,
			Unknown: true,
		})
	}

	l.EOS = l.add(Node{Start: n, End: n})
	return l
}

func (l *Lattice) hasWordAt(p int) bool {
	for _, id := range l.byStart[p] {
		if id != l.BOS {
			return true
		}
	}
	return false
}
