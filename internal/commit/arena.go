// Package commit implements the commit pipeline of spec.md §4.8: ordering
// staged holons by the sub-graph their forward relationships induce,
// persisting nodes, materializing links, and collecting results.
package commit

import (
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/pool"
)

// arena is the dense-integer-indexed view of the staged sub-graph the
// design note in spec.md §9 calls for: one node per eligible staged holon,
// edges for every relationship target that is itself an eligible staged
// holon.
type arena struct {
	entries []pool.PoolEntry
	indexOf map[ids.TemporaryId]int
	edges   [][]int // edges[i] = targets j such that entries[i] references entries[j]
}

func buildArena(entries []pool.PoolEntry) *arena {
	a := &arena{
		entries: entries,
		indexOf: make(map[ids.TemporaryId]int, len(entries)),
		edges:   make([][]int, len(entries)),
	}
	for i, e := range entries {
		a.indexOf[e.ID] = i
	}
	for i, e := range entries {
		if e.Holon.Relationships == nil {
			continue
		}
		seen := make(map[int]bool)
		for _, name := range e.Holon.Relationships.Names() {
			for _, ref := range e.Holon.Relationships.Get(name).All() {
				if ref.Kind != holon.KindStaged {
					continue
				}
				j, ok := a.indexOf[ref.Staged.ID]
				if !ok || j == i || seen[j] {
					continue
				}
				seen[j] = true
				a.edges[i] = append(a.edges[i], j)
			}
		}
	}
	return a
}

// tarjanSCCOrder runs Tarjan's strongly-connected-components algorithm over
// the arena and returns node indices grouped by SCC, in the algorithm's
// natural emission order. That order is already "sinks first": a node with
// no outgoing edges (no staged targets) is emitted before anything that
// points at it, which is exactly the ordering spec.md §4.8 step 2 and the
// §9 design note ask for — any of a holon's staged targets are committed,
// and thus carry a LocalId, before the holon itself is committed. Members
// within one SCC (a relationship cycle) are returned in the order they are
// popped off Tarjan's stack (reverse discovery order), since the design note
// says any order suffices there.
func tarjanSCCOrder(a *arena) [][]int {
	n := len(a.entries)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	visited := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var stack []int
	var sccs [][]int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		visited[v] = true

		for _, w := range a.edges[v] {
			if index[w] == -1 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var scc []int
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				scc = append(scc, top)
				if top == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if !visited[v] {
			strongconnect(v)
		}
	}
	return sccs
}
