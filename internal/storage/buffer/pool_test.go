package buffer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bietkhonhungvandi212/heapdb/internal/catalog"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
	"github.com/bietkhonhungvandi212/heapdb/internal/wal"
)

const testTable util.TableID = 1

type poolFixture struct {
	pool  *BufferPool
	table *file.MockTableFile
	log   *wal.MockWriter
	hook  *test.Hook
}

func newPoolFixture(t *testing.T, pages int) *poolFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	table := file.NewMockTableFile(ctrl)
	table.EXPECT().ID().Return(testTable).AnyTimes()
	cat := catalog.New()
	require.NoError(t, cat.AddTable(table, catalog.Schema{Name: "t", TupleSize: 8}))

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	log := wal.NewMockWriter(ctrl)

	return &poolFixture{
		pool:  NewBufferPool(pages, cat, log, WithLockTimeout(100*time.Millisecond), WithLogger(logger)),
		table: table,
		log:   log,
		hook:  hook,
	}
}

// expectReads lets the table serve any number of fresh reads of pid
func (f *poolFixture) expectReads(pid util.PageID) *gomock.Call {
	return f.table.EXPECT().ReadPage(pid).DoAndReturn(func(pid util.PageID) (*page.Page, error) {
		return page.NewPage(pid), nil
	})
}

func tp(n uint32) util.PageID {
	return util.NewPageID(testTable, n)
}

func TestBufferPoolGetPage(t *testing.T) {
	ctx := context.Background()

	t.Run("SharedReaders", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.expectReads(tp(0)).Times(1)

		a, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadOnly)
		require.NoError(t, err)
		b, err := f.pool.GetPage(ctx, 2, tp(0), util.ReadOnly)
		require.NoError(t, err)

		assert.Same(t, a, b)
		assert.True(t, f.pool.HoldsLock(1, tp(0)))
		assert.True(t, f.pool.HoldsLock(2, tp(0)))
		assert.False(t, f.pool.HoldsLock(3, tp(0)))
	})

	t.Run("TimeoutAbortsTheWaiter", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.expectReads(tp(0)).Times(1)

		_, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
		require.NoError(t, err)

		start := time.Now()
		_, err = f.pool.GetPage(ctx, 2, tp(0), util.ReadOnly)
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.True(t, util.IsAborted(err), "T2 must abort")
		assert.ErrorIs(t, err, util.ErrLockTimeout)
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, time.Second)

		var dbErr *util.DatabaseError
		require.True(t, errors.As(err, &dbErr))
		assert.Equal(t, util.TransactionID(2), dbErr.Context["tid"])

		assert.True(t, f.pool.HoldsLock(1, tp(0)), "T1 keeps its lock")
		assert.False(t, f.pool.HoldsLock(2, tp(0)))
		assert.Equal(t, uint64(1), f.pool.Stats().LockTimeouts)
		assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
	})

	t.Run("DeadlockAbortsOne", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.pool.lockTimeout = 5 * time.Second
		f.expectReads(tp(0)).Times(1)
		f.expectReads(tp(1)).Times(1)
		f.log.EXPECT().LogAbort(util.TransactionID(1)).Return(nil)

		_, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
		require.NoError(t, err)
		_, err = f.pool.GetPage(ctx, 2, tp(1), util.ReadWrite)
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := f.pool.GetPage(ctx, 2, tp(0), util.ReadWrite)
			done <- err
		}()
		require.Eventually(t, func() bool {
			return f.pool.Stats().Waiting == 1
		}, time.Second, time.Millisecond)

		start := time.Now()
		_, err = f.pool.GetPage(ctx, 1, tp(1), util.ReadWrite)
		assert.True(t, util.IsAborted(err))
		assert.ErrorIs(t, err, util.ErrCycleDetected)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, uint64(1), f.pool.Stats().Deadlocks)

		require.NoError(t, f.pool.TransactionComplete(1, false))
		assert.NoError(t, <-done, "survivor gets the page once the victim aborts")
		assert.True(t, f.pool.HoldsLock(2, tp(0)))
	})

	t.Run("BufferFullOfDirtyPages", func(t *testing.T) {
		f := newPoolFixture(t, 1)
		f.expectReads(tp(0)).Times(1)

		p, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
		require.NoError(t, err)
		p.MarkDirty(true, 1)

		_, err = f.pool.GetPage(ctx, 1, tp(1), util.ReadOnly)
		assert.ErrorIs(t, err, util.ErrBufferFull)
		assert.False(t, util.IsAborted(err))
		assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
	})
}

func TestBufferPoolReleasePage(t *testing.T) {
	f := newPoolFixture(t, 2)
	f.expectReads(tp(0)).Times(1)

	_, err := f.pool.GetPage(context.Background(), 1, tp(0), util.ReadWrite)
	require.NoError(t, err)
	f.pool.ReleasePage(1, tp(0))
	assert.False(t, f.pool.HoldsLock(1, tp(0)))

	_, err = f.pool.GetPage(context.Background(), 2, tp(0), util.ReadWrite)
	assert.NoError(t, err)
}

func TestBufferPoolCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("FlushesThenReleases", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.expectReads(tp(0)).Times(1)
		f.expectReads(tp(1)).Times(1)

		p, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
		require.NoError(t, err)
		_, err = f.pool.GetPage(ctx, 1, tp(1), util.ReadOnly)
		require.NoError(t, err)

		copy(p.Data[:], "committed")
		p.MarkDirty(true, 1)

		gomock.InOrder(
			f.log.EXPECT().LogWrite(util.TransactionID(1), gomock.Any(), p).
				DoAndReturn(func(_ util.TransactionID, before, after *page.Page) error {
					assert.Equal(t, [page.DATA_SIZE]byte{}, before.Data, "before image is the disk contents")
					return nil
				}),
			f.log.EXPECT().Force().Return(nil),
			f.table.EXPECT().WritePage(p).Return(nil),
			f.log.EXPECT().LogCommit(util.TransactionID(1)).Return(nil),
			f.log.EXPECT().Force().Return(nil),
		)

		require.NoError(t, f.pool.TransactionComplete(1, true))

		_, dirty := p.IsDirty()
		assert.False(t, dirty)
		assert.Equal(t, "committed", string(p.BeforeImage().Data[:9]))
		assert.False(t, f.pool.HoldsLock(1, tp(0)))
		assert.False(t, f.pool.HoldsLock(1, tp(1)))
		assert.True(t, f.pool.cache.Contains(tp(0)), "committed pages stay cached")
	})

	t.Run("WriteFailureKeepsState", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.expectReads(tp(0)).Times(1)

		p, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
		require.NoError(t, err)
		p.MarkDirty(true, 1)

		f.log.EXPECT().LogWrite(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.log.EXPECT().Force().Return(nil)
		f.table.EXPECT().WritePage(p).Return(errors.New("disk full"))

		err = f.pool.TransactionComplete(1, true)
		assert.ErrorContains(t, err, "disk full")
		assert.True(t, p.IsDirtyBy(1), "dirty marker unchanged")
		assert.True(t, f.pool.HoldsLock(1, tp(0)), "locks kept for retry or abort")
	})

	t.Run("NothingDirty", func(t *testing.T) {
		f := newPoolFixture(t, 4)
		f.log.EXPECT().LogCommit(util.TransactionID(5)).Return(nil)
		f.log.EXPECT().Force().Return(nil)
		assert.NoError(t, f.pool.TransactionComplete(5, true))
	})
}

func TestBufferPoolAbort(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t, 4)
	f.expectReads(tp(0)).Times(2)
	f.expectReads(tp(1)).Times(1)

	p, err := f.pool.GetPage(ctx, 1, tp(0), util.ReadWrite)
	require.NoError(t, err)
	copy(p.Data[:], "scratch")
	p.MarkDirty(true, 1)

	other, err := f.pool.GetPage(ctx, 2, tp(1), util.ReadWrite)
	require.NoError(t, err)
	other.MarkDirty(true, 2)

	f.log.EXPECT().LogAbort(util.TransactionID(1)).Return(nil)
	require.NoError(t, f.pool.TransactionComplete(1, false))

	assert.False(t, f.pool.cache.Contains(tp(0)), "aborted page dropped")
	assert.True(t, f.pool.cache.Contains(tp(1)), "other transaction's page untouched")
	assert.False(t, f.pool.HoldsLock(1, tp(0)))

	again, err := f.pool.GetPage(ctx, 3, tp(0), util.ReadOnly)
	require.NoError(t, err)
	assert.NotSame(t, p, again, "re-read from disk")
	assert.Equal(t, [page.DATA_SIZE]byte{}, again.Data)
}

func TestBufferPoolTuples(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t, 4)

	fresh := page.NewPage(tp(3))
	tup := &page.Tuple{Data: []byte("12345678")}
	f.table.EXPECT().InsertTuple(gomock.Any(), util.TransactionID(1), tup, f.pool).
		DoAndReturn(func(_ context.Context, _ util.TransactionID, t *page.Tuple, _ file.Pager) ([]*page.Page, error) {
			t.RecordID = page.RecordID{PageID: tp(3), Slot: 0}
			return []*page.Page{fresh}, nil
		})

	require.NoError(t, f.pool.InsertTuple(ctx, 1, testTable, tup))
	assert.True(t, fresh.IsDirtyBy(1), "pool marks returned pages dirty")
	got, ok := f.pool.cache.Get(tp(3))
	require.True(t, ok, "new page added to the cache")
	assert.Same(t, fresh, got)

	f.table.EXPECT().DeleteTuple(gomock.Any(), util.TransactionID(1), tup, f.pool).
		Return([]*page.Page{fresh}, nil)
	require.NoError(t, f.pool.DeleteTuple(ctx, 1, tup))
	assert.Equal(t, 1, f.pool.cache.Len())

	t.Run("UnknownTable", func(t *testing.T) {
		err := f.pool.InsertTuple(ctx, 1, 42, tup)
		assert.ErrorIs(t, err, util.ErrTableNotFound)
	})

	t.Run("TableError", func(t *testing.T) {
		aborted := util.NewAbortError(1, tp(0), util.ReadWrite, util.ErrLockTimeout)
		f.table.EXPECT().InsertTuple(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, aborted)
		err := f.pool.InsertTuple(ctx, 1, testTable, &page.Tuple{Data: make([]byte, 8)})
		assert.True(t, util.IsAborted(err))
	})
}

func TestBufferPoolFlushAllPages(t *testing.T) {
	ctx := context.Background()
	f := newPoolFixture(t, 4)

	var pages []*page.Page
	for _, n := range []uint32{2, 0, 1} {
		f.expectReads(tp(n)).Times(1)
		p, err := f.pool.GetPage(ctx, util.TransactionID(n+1), tp(n), util.ReadWrite)
		require.NoError(t, err)
		pages = append(pages, p)
	}
	pages[0].MarkDirty(true, 3) // page 2
	pages[1].MarkDirty(true, 1) // page 0

	f.log.EXPECT().LogWrite(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.log.EXPECT().Force().Return(nil).Times(2)
	gomock.InOrder(
		f.table.EXPECT().WritePage(pages[1]).Return(nil),
		f.table.EXPECT().WritePage(pages[0]).Return(nil),
	)

	require.NoError(t, f.pool.FlushAllPages())
	stats := f.pool.Stats()
	assert.Zero(t, stats.Dirty)
	assert.Equal(t, 3, stats.Resident)
	assert.Equal(t, 3, stats.Active, "flushing does not release locks")
}

func TestBufferPoolDiscardPage(t *testing.T) {
	f := newPoolFixture(t, 2)
	f.expectReads(tp(0)).Times(1)

	p, err := f.pool.GetPage(context.Background(), 1, tp(0), util.ReadWrite)
	require.NoError(t, err)
	p.MarkDirty(true, 1)

	f.pool.DiscardPage(tp(0))
	assert.Zero(t, f.pool.Stats().Resident)
	assert.True(t, f.pool.HoldsLock(1, tp(0)), "discard leaves locks alone")
}
