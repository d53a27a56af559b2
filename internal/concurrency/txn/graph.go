package txn

import (
	"sort"
	"sync"

	"golang.org/x/exp/maps"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// WaitForGraph holds the "waits for" edges between blocked transactions and
// the transactions holding the locks they want. An edge A -> B means A is
// blocked on a lock B holds. A cycle is a deadlock.
type WaitForGraph struct {
	mu    sync.Mutex
	edges map[util.TransactionID]map[util.TransactionID]struct{}
}

func NewWaitForGraph() *WaitForGraph {
	return &WaitForGraph{
		edges: make(map[util.TransactionID]map[util.TransactionID]struct{}),
	}
}

// Wait replaces the outgoing edges of waiter with one edge per holder and
// checks whether any holder can already reach waiter. On a cycle the edges
// are withdrawn and ErrCycleDetected is returned, leaving the graph acyclic.
func (g *WaitForGraph) Wait(waiter util.TransactionID, holders []util.TransactionID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[util.TransactionID]struct{}, len(holders))
	for _, h := range holders {
		if h != waiter {
			out[h] = struct{}{}
		}
	}
	if len(out) == 0 {
		delete(g.edges, waiter)
		return nil
	}

	g.edges[waiter] = out
	if g.reaches(waiter, waiter) {
		delete(g.edges, waiter)
		return util.ErrCycleDetected
	}
	return nil
}

// Done drops the outgoing edges of a waiter that was granted or gave up.
func (g *WaitForGraph) Done(waiter util.TransactionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.edges, waiter)
}

// Remove erases tid as both waiter and holder; called when tid terminates.
func (g *WaitForGraph) Remove(tid util.TransactionID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.edges, tid)
	for waiter, holders := range g.edges {
		delete(holders, tid)
		if len(holders) == 0 {
			delete(g.edges, waiter)
		}
	}
}

// WaitsFor returns the transactions tid is currently blocked on, sorted.
func (g *WaitForGraph) WaitsFor(tid util.TransactionID) []util.TransactionID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sorted(maps.Keys(g.edges[tid]))
}

// Waiting returns every blocked transaction, sorted.
func (g *WaitForGraph) Waiting() []util.TransactionID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sorted(maps.Keys(g.edges))
}

// reaches walks the edges depth-first from each successor of start looking for target.
func (g *WaitForGraph) reaches(start, target util.TransactionID) bool {
	visited := make(map[util.TransactionID]bool)
	stack := maps.Keys(g.edges[start])

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == target {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true

		for next := range g.edges[cur] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}

func sorted(ids []util.TransactionID) []util.TransactionID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
