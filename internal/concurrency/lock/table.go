package lock

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bietkhonhungvandi212/heapdb/internal/concurrency/txn"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// Table owns one ResourceLock per page, created on first use, and keeps the
// ledger and wait-for graph consistent with what is actually held.
type Table struct {
	locks  sync.Map // util.PageID -> *ResourceLock
	ledger *txn.Ledger
	graph  *txn.WaitForGraph
	logger logrus.FieldLogger
}

var _ txn.Releaser = (*Table)(nil)

func NewTable(logger logrus.FieldLogger) *Table {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Table{
		ledger: txn.NewLedger(),
		graph:  txn.NewWaitForGraph(),
		logger: logger,
	}
}

// GetLock returns the lock of pid, creating it if absent.
func (t *Table) GetLock(pid util.PageID) *ResourceLock {
	if l, ok := t.locks.Load(pid); ok {
		return l.(*ResourceLock)
	}
	l, _ := t.locks.LoadOrStore(pid, NewResourceLock(pid, t.graph))
	return l.(*ResourceLock)
}

// Record notes a granted lock in the ledger.
func (t *Table) Record(tid util.TransactionID, pid util.PageID, perm util.Permission) {
	t.ledger.AddPage(pid, tid)
	t.logger.WithFields(logrus.Fields{"tid": tid, "page": pid, "perm": perm}).Trace("lock granted")
}

// Release drops tid's lock on pid.
func (t *Table) Release(tid util.TransactionID, pid util.PageID) {
	if l, ok := t.locks.Load(pid); ok {
		l.(*ResourceLock).Release(tid)
	}
	t.ledger.RemovePage(pid, tid)
}

// ReleaseAll drops every lock tid holds and removes it from the wait-for
// graph. Calling it again for a finished transaction does nothing.
func (t *Table) ReleaseAll(tid util.TransactionID) int {
	n := t.ledger.Release(tid, t)
	t.graph.Remove(tid)
	if n > 0 {
		t.logger.WithFields(logrus.Fields{"tid": tid, "pages": n}).Debug("locks released")
	}
	return n
}

// HasLock reports whether tid holds pid in any mode.
func (t *Table) HasLock(tid util.TransactionID, pid util.PageID) bool {
	l, ok := t.locks.Load(pid)
	if !ok {
		return false
	}
	return l.(*ResourceLock).HasHolder(tid, util.ReadOnly)
}

// Pages returns the pages tid has locked.
func (t *Table) Pages(tid util.TransactionID) []util.PageID {
	return t.ledger.Pages(tid)
}

// Active returns the transactions holding at least one lock.
func (t *Table) Active() []util.TransactionID {
	return t.ledger.Active()
}

// Waiting returns the transactions currently blocked on a lock.
func (t *Table) Waiting() []util.TransactionID {
	return t.graph.Waiting()
}
