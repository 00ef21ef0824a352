package decoder

import "container/heap"

// Compile time check to ensure pathQueue satisfies the heap interface.
var _ heap.Interface = (*pathQueue)(nil)

// pathItem is a partial path waiting in the queue. The path itself lives
// in the cell arena; cell is the index of its most recently added node.
type pathItem struct {
	cell     int
	back     int // cost from this node's end to EOS
	priority int // back + forward cost of the node
	seq      int // insertion order, breaks priority ties
}

// pathQueue is a min-heap of partial paths.
type pathQueue struct {
	items []pathItem
	seq   int
}

func (q *pathQueue) Len() int { return len(q.items) }

func (q *pathQueue) Less(i, j int) bool {
	if q.items[i].priority != q.items[j].priority {
		return q.items[i].priority < q.items[j].priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *pathQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pathQueue) Push(x any) {
	q.items = append(q.items, x.(pathItem))
}

func (q *pathQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// push stamps the item with the next sequence number.
func (q *pathQueue) push(item pathItem) {
	item.seq = q.seq
	q.seq++
	heap.Push(q, item)
}

func (q *pathQueue) pop() pathItem {
	return heap.Pop(q).(pathItem)
}

// cell is one link of a path stored as a list over an arena. Paths grow
// backwards from EOS, so following parent from a BOS cell yields the path
// in input order.
type cell struct {
	node   int
	parent int
}

type arena struct {
	cells []cell
}

func (a *arena) add(node, parent int) int {
	a.cells = append(a.cells, cell{node: node, parent: parent})
	return len(a.cells) - 1
}

func (a *arena) node(c int) int {
	return a.cells[c].node
}

// path returns the node ids from cell c to the root.
func (a *arena) path(c int) []int {
	var ids []int
	for ; c >= 0; c = a.cells[c].parent {
		ids = append(ids, a.cells[c].node)
	}
	return ids
}
