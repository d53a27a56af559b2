package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// WaitGraph receives the wait-for edges of blocked requesters.
type WaitGraph interface {
	Wait(waiter util.TransactionID, holders []util.TransactionID) error
	Done(waiter util.TransactionID)
}

/**
* ResourceLock is the shared/exclusive lock of one page.
*
*	UNLOCKED  -> SHARED{tids} | EXCLUSIVE{tid}
*	SHARED{t} -> EXCLUSIVE{t}   (in-place upgrade, sole shared holder only)
*
* Waiters park on notify, which is closed and replaced every time the holder
* sets change, and re-check on wake-up.
**/
type ResourceLock struct {
	pid   util.PageID
	graph WaitGraph

	mu        sync.Mutex
	shared    map[util.TransactionID]struct{}
	exclusive util.TransactionID
	held      bool // exclusive is valid
	notify    chan struct{}
}

func NewResourceLock(pid util.PageID, graph WaitGraph) *ResourceLock {
	return &ResourceLock{
		pid:    pid,
		graph:  graph,
		shared: make(map[util.TransactionID]struct{}),
		notify: make(chan struct{}),
	}
}

func (l *ResourceLock) PageID() util.PageID {
	return l.pid
}

// Acquire blocks until tid holds the lock in mode perm, the timeout elapses
// (ErrLockTimeout), waiting would deadlock (ErrCycleDetected) or ctx is done.
// A non-positive timeout makes a single attempt.
func (l *ResourceLock) Acquire(ctx context.Context, tid util.TransactionID, perm util.Permission, timeout time.Duration) error {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	waiting := false
	defer func() {
		if waiting && l.graph != nil {
			l.graph.Done(tid)
		}
	}()

	for {
		l.mu.Lock()
		blockers := l.blockers(tid, perm)
		if len(blockers) == 0 {
			l.grant(tid, perm)
			l.mu.Unlock()
			return nil
		}
		if timer == nil {
			l.mu.Unlock()
			return util.ErrLockTimeout
		}
		if l.graph != nil {
			if err := l.graph.Wait(tid, blockers); err != nil {
				l.mu.Unlock()
				return err
			}
			waiting = true
		}
		wake := l.notify
		l.mu.Unlock()

		select {
		case <-wake:
		case <-timer:
			return util.ErrLockTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// TryLock reports whether the lock was obtained within timeout.
func (l *ResourceLock) TryLock(tid util.TransactionID, perm util.Permission, timeout time.Duration) bool {
	return l.Acquire(context.Background(), tid, perm, timeout) == nil
}

// HasHolder reports whether tid holds the lock with at least the access perm grants.
// An exclusive holder also counts as a reader.
func (l *ResourceLock) HasHolder(tid util.TransactionID, perm util.Permission) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held && l.exclusive == tid {
		return true
	}
	if perm == util.ReadOnly {
		_, ok := l.shared[tid]
		return ok
	}
	return false
}

// Release drops whatever tid holds; it is a no-op when tid holds nothing.
func (l *ResourceLock) Release(tid util.TransactionID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	released := false
	if _, ok := l.shared[tid]; ok {
		delete(l.shared, tid)
		released = true
	}
	if l.held && l.exclusive == tid {
		l.held = false
		l.exclusive = 0
		released = true
	}
	if released {
		l.broadcast()
	}
	return released
}

// Holders returns every transaction holding the lock in any mode, sorted.
func (l *ResourceLock) Holders() []util.TransactionID {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]util.TransactionID, 0, len(l.shared)+1)
	for tid := range l.shared {
		out = append(out, tid)
	}
	if l.held {
		out = append(out, l.exclusive)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Exclusive returns the exclusive holder, if any.
func (l *ResourceLock) Exclusive() (util.TransactionID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exclusive, l.held
}

// blockers lists the holders standing between tid and perm. Must hold mu.
func (l *ResourceLock) blockers(tid util.TransactionID, perm util.Permission) []util.TransactionID {
	if l.held {
		if l.exclusive == tid {
			return nil
		}
		return []util.TransactionID{l.exclusive}
	}
	if perm == util.ReadOnly {
		return nil
	}

	var out []util.TransactionID
	for h := range l.shared {
		if h != tid {
			out = append(out, h)
		}
	}
	return out
}

// grant records tid as holder. Must hold mu and blockers must be empty.
func (l *ResourceLock) grant(tid util.TransactionID, perm util.Permission) {
	if l.held && l.exclusive == tid {
		return
	}
	if perm == util.ReadOnly {
		if _, ok := l.shared[tid]; ok {
			return
		}
		l.shared[tid] = struct{}{}
	} else {
		// upgrade moves tid out of the shared set under the same critical section
		delete(l.shared, tid)
		l.exclusive = tid
		l.held = true
	}
	l.broadcast()
}

func (l *ResourceLock) broadcast() {
	close(l.notify)
	l.notify = make(chan struct{})
}
