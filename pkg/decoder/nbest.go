package decoder

import (
	"sort"

	"github.com/bastiangx/henkan/internal/utils"
	"github.com/bastiangx/henkan/pkg/lattice"
	"github.com/charmbracelet/log"
)

// NBest returns up to n candidates with distinct text, searching backwards
// from EOS. Paths are ordered by backward cost plus the forward cost of
// their frontier node; ties go to the earlier inserted path. Edges are
// scored with the matrix and the pair adjustment only. The result is
// sorted by cost. When the expansion limit stops the search before any
// path completes, the forward best path is returned alone.
func NBest(lat *lattice.Lattice, pass *Pass, matrix Matrix, grammar Grammar, n int, opts Options) []Candidate {
	if n < 1 {
		n = 1
	}
	if !pass.Reachable(lat.EOS) {
		return []Candidate{Fallback(lat.Input)}
	}
	maxExpansions := opts.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}

	var cells arena
	queue := &pathQueue{}
	queue.push(pathItem{
		cell:     cells.add(lat.EOS, -1),
		priority: pass.Cost[lat.EOS],
	})

	filter := utils.NewTextFilter()
	results := make([]Candidate, 0, n)
	expansions := 0

	for queue.Len() > 0 && len(results) < n {
		if expansions >= maxExpansions {
			log.Debugf("N-best search stopped after %d expansions with %d results", expansions, filter.Len())
			break
		}
		expansions++

		item := queue.pop()
		nodeID := cells.node(item.cell)

		if nodeID == lat.BOS {
			candidate := render(lat, grammar, cells.path(item.cell), item.back)
			if filter.Include(candidate.Text) {
				results = append(results, candidate)
			}
			continue
		}

		cur := lat.Node(nodeID)
		for _, prevID := range lat.EndingAt(cur.Start) {
			if prevID == lat.EOS || !pass.Reachable(prevID) {
				continue
			}
			prev := lat.Node(prevID)
			back := item.back + cur.Cost + edgeCost(matrix, grammar, prev, cur)
			queue.push(pathItem{
				cell:     cells.add(prevID, item.cell),
				back:     back,
				priority: back + pass.Cost[prevID],
			})
		}
	}

	if len(results) == 0 {
		return []Candidate{Best(lat, pass, grammar)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Cost < results[j].Cost
	})
	return results
}
