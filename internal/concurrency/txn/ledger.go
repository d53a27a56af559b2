package txn

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/maps"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// Releaser drops one page lock of a transaction; implemented by the lock table.
type Releaser interface {
	Release(tid util.TransactionID, pid util.PageID)
}

// entry is the page set of a single transaction
type entry struct {
	tid   util.TransactionID
	pages map[util.PageID]struct{}
}

func (e *entry) add(pid util.PageID, tid util.TransactionID) {
	if e.tid != tid {
		panic(fmt.Sprintf("ledger entry of %s asked to record page %s for %s", e.tid, pid, tid))
	}
	e.pages[pid] = struct{}{}
}

// Ledger is the inverse index of the lock table: for every live transaction,
// the pages it has locked. It is what makes release-all possible.
type Ledger struct {
	mu      sync.Mutex
	entries map[util.TransactionID]*entry
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[util.TransactionID]*entry)}
}

// AddPage records that tid locked pid, creating the entry on first touch.
func (l *Ledger) AddPage(pid util.PageID, tid util.TransactionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[tid]
	if !ok {
		e = &entry{tid: tid, pages: make(map[util.PageID]struct{})}
		l.entries[tid] = e
	}
	e.add(pid, tid)
}

// RemovePage forgets a single page, used when one lock is released early.
func (l *Ledger) RemovePage(pid util.PageID, tid util.TransactionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[tid]; ok {
		delete(e.pages, pid)
	}
}

// Pages returns the pages tid has locked, ordered by page id.
func (l *Ledger) Pages(tid util.TransactionID) []util.PageID {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[tid]
	if !ok {
		return nil
	}
	pids := maps.Keys(e.pages)
	sort.Slice(pids, func(i, j int) bool { return pids[i].Less(pids[j]) })
	return pids
}

func (l *Ledger) Contains(tid util.TransactionID, pid util.PageID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[tid]
	if !ok {
		return false
	}
	_, ok = e.pages[pid]
	return ok
}

// Active returns the transactions that currently own an entry.
func (l *Ledger) Active() []util.TransactionID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sorted(maps.Keys(l.entries))
}

// Release hands every recorded page of tid to r and discards the entry.
// A second call for the same transaction finds nothing and does nothing.
func (l *Ledger) Release(tid util.TransactionID, r Releaser) int {
	l.mu.Lock()
	e, ok := l.entries[tid]
	delete(l.entries, tid)
	l.mu.Unlock()

	if !ok {
		return 0
	}
	for pid := range e.pages {
		r.Release(tid, pid)
	}
	return len(e.pages)
}
