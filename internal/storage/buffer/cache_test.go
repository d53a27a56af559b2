package buffer

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// countingSource fabricates pages on demand and counts reads
type countingSource struct {
	reads atomic.Int32
}

func (s *countingSource) ReadPage(pid util.PageID) (*page.Page, error) {
	s.reads.Add(1)
	return page.NewPage(pid), nil
}

func pid(n uint32) util.PageID {
	return util.NewPageID(1, n)
}

func residentIDs(c *PageCache) []util.PageID {
	var ids []util.PageID
	for _, p := range c.Pages() {
		ids = append(ids, p.ID())
	}
	return ids
}

func TestNewPageCache(t *testing.T) {
	t.Run("ValidSize", func(t *testing.T) {
		size := 100
		c := NewPageCache(size, &countingSource{})
		assert.Equal(t, size, len(c.frames), "frames length")
		assert.Equal(t, 0, c.freeHead, "freeHead")
		assert.Equal(t, -1, c.lruHead, "lruHead")
		assert.Equal(t, -1, c.lruTail, "lruTail")
		assert.Equal(t, size, c.Capacity())

		// Free list: 0→1→...→size-1→-1
		idx := c.freeHead
		for i := 0; i < size; i++ {
			assert.Equal(t, i, idx, "free list at %d", i)
			idx = c.nextFree[idx]
		}
		assert.Equal(t, -1, idx, "free list end")
		assert.Empty(t, c.pageToIdx, "pageToIdx should be empty")
	})

	t.Run("ZeroSize", func(t *testing.T) {
		assert.Panics(t, func() { NewPageCache(0, nil) })
	})
}

func TestMoveToTail(t *testing.T) {
	c := NewPageCache(4, &countingSource{})
	for i := uint32(0); i < 4; i++ {
		_, err := c.GetOrCreate(pid(i))
		require.NoError(t, err)
	}
	// frames 0 ↔ 1 ↔ 2 ↔ 3
	assert.Equal(t, 0, c.lruHead)
	assert.Equal(t, 3, c.lruTail)

	t.Run("Middle", func(t *testing.T) {
		c.moveToTail(1) // 0 ↔ 2 ↔ 3 ↔ 1
		assert.Equal(t, 0, c.lruHead, "lruHead unchanged")
		assert.Equal(t, 1, c.lruTail, "new lruTail is 1")
		assert.Equal(t, 2, c.nextLRU[0], "0 points to 2")
		assert.Equal(t, 3, c.nextLRU[2], "2 points to 3")
		assert.Equal(t, 1, c.nextLRU[3], "3 points to 1")
		assert.Equal(t, -1, c.nextLRU[1], "1 points to -1 (tail)")
		assert.Equal(t, 3, c.prevLRU[1], "1 prev is 3")
	})

	t.Run("Head", func(t *testing.T) {
		c.moveToTail(0) // 2 ↔ 3 ↔ 1 ↔ 0
		assert.Equal(t, 2, c.lruHead, "new lruHead is 2")
		assert.Equal(t, 0, c.lruTail, "new lruTail is 0")
		assert.Equal(t, -1, c.prevLRU[2], "2 has no prev (head)")
		assert.Equal(t, 1, c.prevLRU[0], "0 prev is 1")
	})

	t.Run("AlreadyTail", func(t *testing.T) {
		c.moveToTail(0)
		assert.Equal(t, 2, c.lruHead)
		assert.Equal(t, 0, c.lruTail)
		assert.Equal(t, []util.PageID{pid(2), pid(3), pid(1), pid(0)}, residentIDs(c))
	})

	t.Run("OutOfBound", func(t *testing.T) {
		assert.Panics(t, func() { c.addToTail(-1) })
		assert.Panics(t, func() { c.removeLRUByIndex(4) })
	})
}

func TestGetOrCreate(t *testing.T) {
	t.Run("HitAndMiss", func(t *testing.T) {
		src := &countingSource{}
		c := NewPageCache(3, src)

		a, err := c.GetOrCreate(pid(1))
		require.NoError(t, err)
		b, err := c.GetOrCreate(pid(1))
		require.NoError(t, err)

		assert.Same(t, a, b, "one instance per page")
		assert.Equal(t, int32(1), src.reads.Load())
		stats := c.Stats()
		assert.Equal(t, uint64(1), stats.Hits)
		assert.Equal(t, uint64(1), stats.Misses)
		assert.Equal(t, 1, stats.Resident)
	})

	t.Run("EvictsLeastRecentlyUsed", func(t *testing.T) {
		c := NewPageCache(2, &countingSource{})
		var evicted []util.PageID
		c.OnEvict(func(p *page.Page) { evicted = append(evicted, p.ID()) })

		for _, n := range []uint32{'A', 'B', 'C'} {
			_, err := c.GetOrCreate(pid(n))
			require.NoError(t, err)
		}

		assert.Equal(t, []util.PageID{pid('A')}, evicted)
		assert.False(t, c.Contains(pid('A')))
		assert.Equal(t, []util.PageID{pid('B'), pid('C')}, residentIDs(c))
		assert.Equal(t, uint64(1), c.Stats().Evictions)
	})

	t.Run("LookupRefreshesRecency", func(t *testing.T) {
		c := NewPageCache(2, &countingSource{})
		for _, n := range []uint32{1, 2} {
			_, err := c.GetOrCreate(pid(n))
			require.NoError(t, err)
		}
		_, ok := c.Get(pid(1))
		require.True(t, ok)

		_, err := c.GetOrCreate(pid(3))
		require.NoError(t, err)
		assert.True(t, c.Contains(pid(1)))
		assert.False(t, c.Contains(pid(2)))
	})

	t.Run("SkipsDirty", func(t *testing.T) {
		c := NewPageCache(3, &countingSource{})
		for n := uint32(0); n < 3; n++ {
			p, err := c.GetOrCreate(pid(n))
			require.NoError(t, err)
			if n < 2 {
				p.MarkDirty(true, 9)
			}
		}

		_, err := c.GetOrCreate(pid(3))
		require.NoError(t, err)
		assert.False(t, c.Contains(pid(2)), "only clean page evicted")
		assert.Equal(t, []util.PageID{pid(0), pid(1), pid(3)}, residentIDs(c), "dirty pages keep their position")
	})

	t.Run("AllDirty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		src := file.NewMockFiler(ctrl)
		c := NewPageCache(2, src)

		for n := uint32(0); n < 2; n++ {
			src.EXPECT().ReadPage(pid(n)).Return(page.NewPage(pid(n)), nil)
			p, err := c.GetOrCreate(pid(n))
			require.NoError(t, err)
			p.MarkDirty(true, 1)
		}

		// no ReadPage expectation: the miss fails before touching the disk
		_, err := c.GetOrCreate(pid(2))
		assert.ErrorIs(t, err, util.ErrBufferFull)
		assert.Equal(t, 2, c.Len())
		assert.ErrorIs(t, c.Add(page.NewPage(pid(5))), util.ErrBufferFull)
	})

	t.Run("SourceError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		src := file.NewMockFiler(ctrl)
		c := NewPageCache(2, src)

		src.EXPECT().ReadPage(pid(0)).Return(nil, util.ErrPageOutOfBounds)
		_, err := c.GetOrCreate(pid(0))
		assert.ErrorIs(t, err, util.ErrPageOutOfBounds)
		assert.Zero(t, c.Len())
	})

	t.Run("ConcurrentMissesShareOneRead", func(t *testing.T) {
		src := &countingSource{}
		c := NewPageCache(4, src)

		var wg sync.WaitGroup
		results := make([]*page.Page, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := c.GetOrCreate(pid(7))
				assert.NoError(t, err)
				results[i] = p
			}(i)
		}
		wg.Wait()

		for _, p := range results {
			assert.Same(t, results[0], p)
		}
		assert.Equal(t, 1, c.Len())
	})
}

func TestAddRemove(t *testing.T) {
	c := NewPageCache(2, &countingSource{})

	fresh := page.NewPage(pid(10))
	require.NoError(t, c.Add(fresh))
	got, ok := c.Get(pid(10))
	require.True(t, ok)
	assert.Same(t, fresh, got)

	replacement := page.NewPage(pid(10))
	require.NoError(t, c.Add(replacement))
	got, _ = c.Get(pid(10))
	assert.Same(t, replacement, got, "add replaces the resident instance")
	assert.Equal(t, 1, c.Len())

	replacement.MarkDirty(true, 3)
	assert.True(t, c.Remove(pid(10)), "dirty pages can be removed")
	assert.False(t, c.Remove(pid(10)))
	assert.Zero(t, c.Len())

	// the freed frame is reusable
	for n := uint32(0); n < 2; n++ {
		require.NoError(t, c.Add(page.NewPage(pid(n))))
	}
	assert.Equal(t, 2, c.Len())
}

func TestTraverseAndEvict(t *testing.T) {
	c := NewPageCache(3, &countingSource{})
	for n := uint32(0); n < 3; n++ {
		_, err := c.GetOrCreate(pid(n))
		require.NoError(t, err)
	}

	var seen []util.PageID
	c.Traverse(func(p *page.Page) bool {
		seen = append(seen, p.ID())
		return len(seen) < 2
	})
	assert.Equal(t, []util.PageID{pid(0), pid(1)}, seen, "stops when visitor returns false")

	first, _ := c.Get(pid(0))
	first.MarkDirty(true, 1)

	var visited *page.Page
	p, err := c.Evict(func(p *page.Page) { visited = p })
	require.NoError(t, err)
	assert.Equal(t, pid(1), p.ID())
	assert.Same(t, p, visited)

	_, err = c.Evict(nil)
	require.NoError(t, err)
	_, err = c.Evict(nil)
	assert.ErrorIs(t, err, util.ErrBufferFull)
}
