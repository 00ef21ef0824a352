// Package decoder finds the lowest cost paths through a lattice.
//
// Forward runs a Viterbi pass over lattice positions. Edge costs combine
// the connection matrix with part-of-speech pair adjustments, and the best
// predecessor chain of each node supplies the context for triplet and
// quadruplet adjustments. Best backtracks the single best path; NBest runs
// a backward best-first search that uses the forward costs as its
// remaining-cost estimate.
package decoder

import (
	"context"
	"errors"
	"time"

	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/bastiangx/henkan/pkg/pos"
	"github.com/charmbracelet/log"
)

const (
	// Inf marks nodes that cannot be reached from BOS.
	Inf = 1_000_000_000
	// AdjacentUnknownPenalty is added to edges whose endpoints both have
	// left id 0.
	AdjacentUnknownPenalty = 8000
	// DefaultMaxExpansions bounds the queue pops of one NBest search.
	DefaultMaxExpansions = 200_000
)

// ErrTimeout is returned when the conversion deadline passes during the
// forward pass.
var ErrTimeout = errors.New("conversion timed out")

// Matrix scores the connection between two context ids.
type Matrix interface {
	Cost(rightID, leftID int) int
}

// Grammar resolves context ids to parts of speech and scores sequences.
type Grammar interface {
	Lookup(id int) pos.Info
	PairAdjustment(prevRight, nextLeft int) int
	TripletAdjustment(a, b, c int) int
	QuadrupletAdjustment(a, b, c, d int) int
}

// Options tunes the decoder.
type Options struct {
	AdjacentUnknownPenalty int
	MaxExpansions          int
}

// DefaultOptions returns the standard decoder options.
func DefaultOptions() Options {
	return Options{
		AdjacentUnknownPenalty: AdjacentUnknownPenalty,
		MaxExpansions:          DefaultMaxExpansions,
	}
}

// Pass holds the forward costs and back pointers, indexed by node id.
type Pass struct {
	Cost     []int
	Prev     []int
	PrevPrev []int
}

// Reachable reports whether a path reached node id.
func (p *Pass) Reachable(id int) bool {
	return p.Cost[id] < Inf
}

// checkContext maps a passed deadline to ErrTimeout. The deadline is
// compared directly so that an elapsed timer is seen before it fires.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return ErrTimeout
	}
	return nil
}

// Forward computes the best cost of reaching every node. ctx is checked
// once per position; a passed deadline yields ErrTimeout.
func Forward(ctx context.Context, lat *lattice.Lattice, matrix Matrix, grammar Grammar, opts Options) (*Pass, error) {
	count := len(lat.Nodes)
	pass := &Pass{
		Cost:     make([]int, count),
		Prev:     make([]int, count),
		PrevPrev: make([]int, count),
	}
	for i := range pass.Cost {
		pass.Cost[i] = Inf
		pass.Prev[i] = -1
		pass.PrevPrev[i] = -1
	}
	pass.Cost[lat.BOS] = 0

	for p := 0; p <= lat.Len; p++ {
		if err := checkContext(ctx); err != nil {
			log.Debugf("Forward pass stopped at position %d/%d: %v", p, lat.Len, err)
			return nil, err
		}

		for _, prevID := range lat.EndingAt(p) {
			if prevID == lat.EOS || pass.Cost[prevID] >= Inf {
				continue
			}
			prev := lat.Node(prevID)
			gp := pass.Prev[prevID]
			ggp := pass.PrevPrev[prevID]

			for _, nextID := range lat.StartingAt(p) {
				if nextID == lat.BOS {
					continue
				}
				if nextID == lat.EOS && p != lat.Len {
					continue
				}
				if prevID == lat.BOS && nextID == lat.EOS && lat.Len > 0 {
					continue
				}
				next := lat.Node(nextID)

				cost := pass.Cost[prevID] + edgeCost(matrix, grammar, prev, next) + next.Cost
				if gp >= 0 {
					gpRight := lat.Node(gp).RightID
					cost += grammar.TripletAdjustment(gpRight, prev.RightID, next.LeftID)
					if ggp >= 0 {
						cost += grammar.QuadrupletAdjustment(lat.Node(ggp).RightID, gpRight, prev.RightID, next.LeftID)
					}
				}
				if adjacentUnknown(lat, prevID, nextID) {
					cost += opts.AdjacentUnknownPenalty
				}

				if cost < pass.Cost[nextID] {
					pass.Cost[nextID] = cost
					pass.Prev[nextID] = prevID
					pass.PrevPrev[nextID] = gp
				}
			}
		}
	}
	return pass, nil
}

// edgeCost is the matrix cost plus the pair adjustment.
func edgeCost(matrix Matrix, grammar Grammar, prev, next *lattice.Node) int {
	return matrix.Cost(prev.RightID, next.LeftID) + grammar.PairAdjustment(prev.RightID, next.LeftID)
}

// adjacentUnknown reports an edge whose endpoints both have left id 0.
// Sentinels count, except on the BOS to EOS edge of empty input.
func adjacentUnknown(lat *lattice.Lattice, prevID, nextID int) bool {
	if prevID == lat.BOS && nextID == lat.EOS {
		return false
	}
	return lat.Node(prevID).LeftID == 0 && lat.Node(nextID).LeftID == 0
}
