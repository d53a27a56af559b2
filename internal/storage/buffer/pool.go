package buffer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/btree"
	"github.com/sirupsen/logrus"

	"github.com/bietkhonhungvandi212/heapdb/internal/concurrency/lock"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
	"github.com/bietkhonhungvandi212/heapdb/internal/wal"
)

const DefaultLockTimeout = 100 * time.Millisecond

// Catalog resolves a table id to the file holding its pages.
type Catalog interface {
	TableFile(id util.TableID) (file.TableFile, error)
}

/**
* BufferPool is the only way to reach a page. Every access takes the page
* lock on behalf of a transaction (strict 2PL: locks are held until the
* transaction completes). Pages dirtied by a transaction stay resident until
* it commits (written back, NO-STEAL / FORCE) or aborts (dropped).
**/
type BufferPool struct {
	cache   *PageCache
	locks   *lock.Table
	catalog Catalog
	log     wal.Writer

	lockTimeout time.Duration
	logger      logrus.FieldLogger
	flushMu     sync.Mutex // one writer of pages and log records at a time

	lockTimeouts atomic.Uint64
	deadlocks    atomic.Uint64
}

var _ file.Pager = (*BufferPool)(nil)

type Option func(*BufferPool)

func WithLockTimeout(d time.Duration) Option {
	return func(bp *BufferPool) { bp.lockTimeout = d }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(bp *BufferPool) { bp.logger = l }
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	CacheStats
	Dirty        int
	LockTimeouts uint64
	Deadlocks    uint64
	Active       int
	Waiting      int
}

func NewBufferPool(numPages int, catalog Catalog, log wal.Writer, opts ...Option) *BufferPool {
	bp := &BufferPool{
		catalog:     catalog,
		log:         log,
		lockTimeout: DefaultLockTimeout,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(bp)
	}

	bp.cache = NewPageCache(numPages, tableSource{catalog})
	bp.locks = lock.NewTable(bp.logger)
	bp.cache.OnEvict(func(p *page.Page) {
		bp.logger.WithField("page", p.ID()).Debug("page evicted")
	})
	return bp
}

// GetPage locks pid for tid with perm and returns the page, reading it from
// its table file on a miss. A lock that cannot be obtained in time, or whose
// wait would deadlock, yields an abort error: tid must be aborted.
func (bp *BufferPool) GetPage(ctx context.Context, tid util.TransactionID, pid util.PageID, perm util.Permission) (*page.Page, error) {
	lk := bp.locks.GetLock(pid)
	if err := lk.Acquire(ctx, tid, perm, bp.lockTimeout); err != nil {
		entry := bp.logger.WithFields(logrus.Fields{"tid": tid, "page": pid, "perm": perm})
		switch {
		case errors.Is(err, util.ErrCycleDetected):
			bp.deadlocks.Add(1)
			entry.Warn("deadlock detected")
		case errors.Is(err, util.ErrLockTimeout):
			bp.lockTimeouts.Add(1)
			entry.Warn("lock wait timed out")
		default:
			entry.WithError(err).Info("lock wait cancelled")
		}
		return nil, util.NewAbortError(tid, pid, perm, err)
	}
	bp.locks.Record(tid, pid, perm)

	p, err := bp.cache.GetOrCreate(pid)
	if err != nil {
		if errors.Is(err, util.ErrBufferFull) {
			bp.logger.WithFields(logrus.Fields{"tid": tid, "page": pid}).Error("no clean page to evict")
		}
		return nil, err
	}
	return p, nil
}

// ReleasePage drops tid's lock on pid ahead of completion.
// This breaks two-phase locking; prefer TransactionComplete.
func (bp *BufferPool) ReleasePage(tid util.TransactionID, pid util.PageID) {
	bp.locks.Release(tid, pid)
}

func (bp *BufferPool) HoldsLock(tid util.TransactionID, pid util.PageID) bool {
	return bp.locks.HasLock(tid, pid)
}

// InsertTuple adds t to a table on behalf of tid; t.RecordID is filled in.
func (bp *BufferPool) InsertTuple(ctx context.Context, tid util.TransactionID, tableID util.TableID, t *page.Tuple) error {
	tf, err := bp.catalog.TableFile(tableID)
	if err != nil {
		return err
	}
	pages, err := tf.InsertTuple(ctx, tid, t, bp)
	if err != nil {
		return err
	}
	return bp.absorb(tid, pages)
}

// DeleteTuple removes the tuple at t.RecordID on behalf of tid.
func (bp *BufferPool) DeleteTuple(ctx context.Context, tid util.TransactionID, t *page.Tuple) error {
	tf, err := bp.catalog.TableFile(t.RecordID.PageID.TableID)
	if err != nil {
		return err
	}
	pages, err := tf.DeleteTuple(ctx, tid, t, bp)
	if err != nil {
		return err
	}
	return bp.absorb(tid, pages)
}

// absorb marks pages returned by a table file dirty under tid and makes
// sure each one is resident.
func (bp *BufferPool) absorb(tid util.TransactionID, pages []*page.Page) error {
	for _, p := range pages {
		p.MarkDirty(true, tid)
		if bp.cache.Contains(p.ID()) {
			continue
		}
		if err := bp.cache.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// TransactionComplete ends tid. On commit every page tid dirtied is logged and
// written back, then a commit record is appended; on abort those pages are
// dropped from the cache so the next reader sees the disk contents. Locks are
// released afterwards. If a commit write-back fails the locks are kept and the
// error returned; the caller decides whether to retry or abort.
func (bp *BufferPool) TransactionComplete(tid util.TransactionID, commit bool) error {
	entry := bp.logger.WithField("tid", tid)

	if commit {
		if err := bp.FlushPages(tid); err != nil {
			entry.WithError(err).Error("commit flush failed")
			return err
		}
		if err := bp.log.LogCommit(tid); err != nil {
			return err
		}
		if err := bp.log.Force(); err != nil {
			return err
		}
		n := bp.locks.ReleaseAll(tid)
		entry.WithField("pages", n).Debug("transaction committed")
		return nil
	}

	discarded := 0
	for _, p := range bp.dirtiedBy(tid) {
		if bp.cache.Remove(p.ID()) {
			discarded++
		}
	}
	err := bp.log.LogAbort(tid)
	n := bp.locks.ReleaseAll(tid)
	entry.WithFields(logrus.Fields{"pages": n, "discarded": discarded}).Debug("transaction aborted")
	return err
}

// FlushPages writes back every page dirtied by tid, in page id order.
func (bp *BufferPool) FlushPages(tid util.TransactionID) error {
	return bp.flushOrdered(func(p *page.Page) bool { return p.IsDirtyBy(tid) })
}

// FlushAllPages writes back every dirty resident page regardless of owner.
func (bp *BufferPool) FlushAllPages() error {
	return bp.flushOrdered(func(p *page.Page) bool {
		_, dirty := p.IsDirty()
		return dirty
	})
}

// DiscardPage drops pid from the cache without writing it back.
func (bp *BufferPool) DiscardPage(pid util.PageID) {
	bp.cache.Remove(pid)
}

func (bp *BufferPool) Stats() Stats {
	dirty := 0
	bp.cache.Traverse(func(p *page.Page) bool {
		if _, d := p.IsDirty(); d {
			dirty++
		}
		return true
	})
	return Stats{
		CacheStats:   bp.cache.Stats(),
		Dirty:        dirty,
		LockTimeouts: bp.lockTimeouts.Load(),
		Deadlocks:    bp.deadlocks.Load(),
		Active:       len(bp.locks.Active()),
		Waiting:      len(bp.locks.Waiting()),
	}
}

// ===================== HELPER FUNCTION =====================

type byPageID struct{ p *page.Page }

func (a byPageID) Less(than btree.Item) bool {
	return a.p.ID().Less(than.(byPageID).p.ID())
}

// flushOrdered writes back the resident pages selected by match in page id
// order so that pages of one table hit the disk sequentially.
func (bp *BufferPool) flushOrdered(match func(*page.Page) bool) error {
	bp.flushMu.Lock()
	defer bp.flushMu.Unlock()

	tree := btree.New(8)
	bp.cache.Traverse(func(p *page.Page) bool {
		if match(p) {
			tree.ReplaceOrInsert(byPageID{p})
		}
		return true
	})

	var err error
	tree.Ascend(func(i btree.Item) bool {
		err = bp.flushPage(i.(byPageID).p)
		return err == nil
	})
	return err
}

// flushPage logs the before/after images, forces the log, then writes the page.
// The dirty marker is cleared only after the write succeeds.
func (bp *BufferPool) flushPage(p *page.Page) error {
	tid, dirty := p.IsDirty()
	if !dirty {
		return nil
	}
	tf, err := bp.catalog.TableFile(p.ID().TableID)
	if err != nil {
		return err
	}

	if err := bp.log.LogWrite(tid, p.BeforeImage(), p); err != nil {
		return err
	}
	if err := bp.log.Force(); err != nil {
		return err
	}
	if err := tf.WritePage(p); err != nil {
		return err
	}
	p.MarkDirty(false, 0)
	p.SetBeforeImage()

	bp.logger.WithFields(logrus.Fields{"tid": tid, "page": p.ID()}).Debug("page flushed")
	return nil
}

func (bp *BufferPool) dirtiedBy(tid util.TransactionID) []*page.Page {
	var out []*page.Page
	bp.cache.Traverse(func(p *page.Page) bool {
		if p.IsDirtyBy(tid) {
			out = append(out, p)
		}
		return true
	})
	return out
}

// tableSource reads pages through the catalog for the cache.
type tableSource struct {
	catalog Catalog
}

func (s tableSource) ReadPage(pid util.PageID) (*page.Page, error) {
	tf, err := s.catalog.TableFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	return tf.ReadPage(pid)
}
