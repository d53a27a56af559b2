package buffer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// PageSource loads a page that is not resident.
type PageSource interface {
	ReadPage(pid util.PageID) (*page.Page, error)
}

/**
* PageCache is a fixed set of frames holding resident pages.
* Frames not in use sit on a free list; frames in use are linked in recency order
* from lruHead (evicted first) to lruTail (most recently used).
* A dirty page is never chosen for eviction.
**/
type PageCache struct {
	frames    []*page.Page
	pageToIdx map[util.PageID]int // Map the pageId to index
	nextFree  []int               // Free list for allocation
	nextLRU   []int               // Forward links for LRU
	prevLRU   []int               // Backward links for LRU
	freeHead  int                 // Head of free list
	lruHead   int                 // Head of LRU (evict first)
	lruTail   int                 // Tail of LRU (most recent)
	poolSize  int                 // Total frames

	mu      sync.Mutex
	src     PageSource
	loads   singleflight.Group
	onEvict func(*page.Page)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Resident  int
	Capacity  int
}

func NewPageCache(size int, src PageSource) *PageCache {
	if size <= 0 {
		panic(util.ErrInvalidPoolSize)
	}

	c := &PageCache{
		frames:    make([]*page.Page, size),
		pageToIdx: make(map[util.PageID]int, size),
		nextFree:  make([]int, size),
		nextLRU:   make([]int, size),
		prevLRU:   make([]int, size),
		freeHead:  0,
		lruHead:   -1,
		lruTail:   -1,
		poolSize:  size,
		src:       src,
	}

	for i := range size {
		c.nextFree[i] = i + 1
		c.nextLRU[i] = -1
		c.prevLRU[i] = -1
	}
	c.nextFree[size-1] = -1

	return c
}

// OnEvict registers fn to be called with every page the cache evicts.
// fn runs under the cache lock and must not call back into the cache.
func (this *PageCache) OnEvict(fn func(*page.Page)) {
	this.mu.Lock()
	defer this.mu.Unlock()
	this.onEvict = fn
}

// GetOrCreate returns the resident page for pid, loading it from the source on a miss.
// When the cache is full a clean page is evicted before the read; if none exists
// ErrBufferFull is returned and nothing is read.
func (this *PageCache) GetOrCreate(pid util.PageID) (*page.Page, error) {
	if p, ok := this.Get(pid); ok {
		this.hits.Add(1)
		return p, nil
	}

	v, err, _ := this.loads.Do(pid.String(), func() (any, error) {
		this.mu.Lock()
		if idx, ok := this.pageToIdx[pid]; ok {
			this.moveToTail(idx)
			p := this.frames[idx]
			this.mu.Unlock()
			return p, nil
		}
		if this.freeHead == -1 {
			if _, err := this.evictLocked(); err != nil {
				this.mu.Unlock()
				return nil, err
			}
		}
		this.mu.Unlock()

		p, err := this.src.ReadPage(pid)
		if err != nil {
			return nil, err
		}

		this.mu.Lock()
		defer this.mu.Unlock()
		if idx, ok := this.pageToIdx[pid]; ok {
			// added by a mutation path while we were reading
			this.moveToTail(idx)
			return this.frames[idx], nil
		}
		if err := this.insertLocked(p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	this.misses.Add(1)
	return v.(*page.Page), nil
}

// Get returns the resident page for pid and marks it most recently used.
func (this *PageCache) Get(pid util.PageID) (*page.Page, bool) {
	this.mu.Lock()
	defer this.mu.Unlock()

	idx, ok := this.pageToIdx[pid]
	if !ok {
		return nil, false
	}
	this.moveToTail(idx)
	return this.frames[idx], true
}

// Contains reports residency without touching recency.
func (this *PageCache) Contains(pid util.PageID) bool {
	this.mu.Lock()
	defer this.mu.Unlock()
	_, ok := this.pageToIdx[pid]
	return ok
}

// Add makes p resident as the most recently used page, replacing any
// cached instance with the same id.
func (this *PageCache) Add(p *page.Page) error {
	this.mu.Lock()
	defer this.mu.Unlock()

	if idx, ok := this.pageToIdx[p.ID()]; ok {
		this.frames[idx] = p
		this.moveToTail(idx)
		return nil
	}
	return this.insertLocked(p)
}

// Remove drops pid whether or not it is dirty.
func (this *PageCache) Remove(pid util.PageID) bool {
	this.mu.Lock()
	defer this.mu.Unlock()

	idx, ok := this.pageToIdx[pid]
	if !ok {
		return false
	}
	this.removeLRUByIndex(idx)
	this.releaseFrame(idx)
	return true
}

// Traverse visits resident pages from least to most recently used until fn returns false.
// fn runs outside the cache lock.
func (this *PageCache) Traverse(fn func(*page.Page) bool) {
	for _, p := range this.Pages() {
		if !fn(p) {
			return
		}
	}
}

// Pages snapshots the resident pages from least to most recently used.
func (this *PageCache) Pages() []*page.Page {
	this.mu.Lock()
	defer this.mu.Unlock()

	out := make([]*page.Page, 0, len(this.pageToIdx))
	for idx := this.lruHead; idx != -1; idx = this.nextLRU[idx] {
		out = append(out, this.frames[idx])
	}
	return out
}

// Evict removes the least recently used clean page and hands it to visitor.
func (this *PageCache) Evict(visitor func(*page.Page)) (*page.Page, error) {
	this.mu.Lock()
	p, err := this.evictLocked()
	this.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if visitor != nil {
		visitor(p)
	}
	return p, nil
}

func (this *PageCache) Len() int {
	this.mu.Lock()
	defer this.mu.Unlock()
	return len(this.pageToIdx)
}

func (this *PageCache) Capacity() int {
	return this.poolSize
}

func (this *PageCache) Stats() CacheStats {
	return CacheStats{
		Hits:      this.hits.Load(),
		Misses:    this.misses.Load(),
		Evictions: this.evictions.Load(),
		Resident:  this.Len(),
		Capacity:  this.poolSize,
	}
}

// ===================== HELPER FUNCTION =====================

// insertLocked places p in a free frame, evicting first if there is none.
func (this *PageCache) insertLocked(p *page.Page) error {
	idx := this.allocFromFree()
	if idx == -1 {
		if _, err := this.evictLocked(); err != nil {
			return err
		}
		idx = this.allocFromFree()
	}

	this.frames[idx] = p
	this.pageToIdx[p.ID()] = idx
	this.addToTail(idx)
	return nil
}

// evictLocked scans from lruHead and frees the first clean frame.
// Dirty frames keep their position.
func (this *PageCache) evictLocked() (*page.Page, error) {
	for idx := this.lruHead; idx != -1; idx = this.nextLRU[idx] {
		p := this.frames[idx]
		if _, dirty := p.IsDirty(); dirty {
			continue
		}

		this.removeLRUByIndex(idx)
		this.releaseFrame(idx)
		this.evictions.Add(1)
		if this.onEvict != nil {
			this.onEvict(p)
		}
		return p, nil
	}
	return nil, util.ErrBufferFull
}

func (this *PageCache) releaseFrame(frameIdx int) {
	delete(this.pageToIdx, this.frames[frameIdx].ID())
	this.frames[frameIdx] = nil
	this.returnFrameToFree(frameIdx)
}

func (this *PageCache) moveToTail(frameIdx int) {
	if this.lruTail == frameIdx {
		return
	}
	this.removeLRUByIndex(frameIdx)
	this.addToTail(frameIdx)
}

func (this *PageCache) addToTail(frameIdx int) {
	if frameIdx >= this.poolSize || frameIdx < 0 {
		panic(fmt.Sprintf("[cache] [addToTail] frame index out of bound: %d", frameIdx))
	}

	tmp := this.lruTail
	this.lruTail = frameIdx
	this.prevLRU[frameIdx] = tmp
	this.nextLRU[frameIdx] = -1

	if tmp != -1 {
		this.nextLRU[tmp] = frameIdx
	}

	if this.lruHead == -1 {
		this.lruHead = frameIdx
	}
}

func (this *PageCache) removeLRUByIndex(frameIdx int) {
	if frameIdx >= this.poolSize || frameIdx < 0 {
		panic(fmt.Sprintf("[cache] [removeFromLRU] frame index out of bound: %d", frameIdx))
	}

	if this.lruHead == -1 || (this.nextLRU[frameIdx] == -1 && this.prevLRU[frameIdx] == -1 && this.lruHead != frameIdx) {
		panic(fmt.Sprintf("[cache] [removeFromLRU] frame index %d is invalid ", frameIdx))
	}

	prev := this.prevLRU[frameIdx]
	next := this.nextLRU[frameIdx]
	isHead := (prev == -1)
	isTail := (next == -1)

	switch {
	case isHead && isTail:
		this.lruHead = -1
		this.lruTail = -1
	case isHead && !isTail:
		this.lruHead = next
		this.prevLRU[next] = -1
	case !isHead && isTail:
		this.lruTail = prev
		this.nextLRU[prev] = -1
	default:
		this.nextLRU[prev] = next
		this.prevLRU[next] = prev
	}

	this.nextLRU[frameIdx] = -1
	this.prevLRU[frameIdx] = -1
}

func (this *PageCache) allocFromFree() int {
	if this.freeHead == -1 {
		return -1
	}

	freeIdx := this.freeHead
	this.freeHead = this.nextFree[freeIdx]
	this.nextFree[freeIdx] = -1

	return freeIdx
}

func (this *PageCache) returnFrameToFree(frameIdx int) {
	this.nextFree[frameIdx] = this.freeHead
	this.freeHead = frameIdx
}
