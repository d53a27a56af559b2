package file

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

/**
* HeapFile stores the tuples of one table as an unordered collection of pages.
* Each page is a slot bitmap followed by fixed-size tuple slots:
*
*	| bitmap (ceil(n/8) bytes) | slot 0 | slot 1 | ... | slot n-1 |
*
* n is the largest count for which n*tupleSize bytes plus n bits fit in DATA_SIZE.
**/
type HeapFile struct {
	fm        *FileManager
	id        util.TableID
	tupleSize int
	slots     int

	mu sync.Mutex // serializes page allocation
}

var _ TableFile = (*HeapFile)(nil)

func NewHeapFile(path string, id util.TableID, tupleSize int) (*HeapFile, error) {
	n := SlotsPerPage(tupleSize)
	if n <= 0 {
		return nil, util.ErrInvalidTupleSize
	}

	fm, err := NewFileManager(path, 0)
	if err != nil {
		return nil, err
	}

	return &HeapFile{fm: fm, id: id, tupleSize: tupleSize, slots: n}, nil
}

// SlotsPerPage returns how many tuples of the given size fit on one heap page
func SlotsPerPage(tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	return (page.DATA_SIZE * 8) / (tupleSize*8 + 1)
}

func bitmapSize(slots int) int {
	return (slots + 7) / 8
}

func (hf *HeapFile) ID() util.TableID {
	return hf.id
}

func (hf *HeapFile) TupleSize() int {
	return hf.tupleSize
}

func (hf *HeapFile) NumPages() int {
	return hf.fm.NumPages()
}

func (hf *HeapFile) ReadPage(pid util.PageID) (*page.Page, error) {
	if pid.TableID != hf.id {
		return nil, errors.Wrapf(util.ErrInvalidPageId, "page %s does not belong to table %d", pid, hf.id)
	}
	if int(pid.PageNo) >= hf.NumPages() {
		return nil, errors.Wrapf(util.ErrPageOutOfBounds, "page %s", pid)
	}

	p, err := hf.fm.ReadPage(pid.PageNo)
	if err != nil {
		return nil, err
	}
	// blocks that were never written come back zeroed
	p.Header.PageID = pid
	return p, nil
}

func (hf *HeapFile) WritePage(p *page.Page) error {
	if p.ID().TableID != hf.id {
		return errors.Wrapf(util.ErrInvalidPageId, "page %s does not belong to table %d", p.ID(), hf.id)
	}
	return hf.fm.WritePage(p)
}

// InsertTuple places t into the first page with a free slot, appending a
// fresh page when every existing page is full. t.RecordID is set on success.
func (hf *HeapFile) InsertTuple(ctx context.Context, tid util.TransactionID, t *page.Tuple, pager Pager) ([]*page.Page, error) {
	if len(t.Data) != hf.tupleSize {
		return nil, errors.Wrapf(util.ErrInvalidTupleSize, "got %d bytes, want %d", len(t.Data), hf.tupleSize)
	}

	for pageNo := 0; pageNo < hf.NumPages(); pageNo++ {
		pid := util.NewPageID(hf.id, uint32(pageNo))
		p, err := pager.GetPage(ctx, tid, pid, util.ReadWrite)
		if err != nil {
			return nil, err
		}
		if slot := hf.freeSlot(p); slot >= 0 {
			hf.place(p, slot, t, tid)
			return []*page.Page{p}, nil
		}
	}

	pid, err := hf.allocate()
	if err != nil {
		return nil, err
	}
	p, err := pager.GetPage(ctx, tid, pid, util.ReadWrite)
	if err != nil {
		return nil, err
	}
	slot := hf.freeSlot(p)
	if slot < 0 {
		// another transaction filled the page between allocation and locking
		return nil, errors.Wrapf(util.ErrNoFreeSlot, "page %s", pid)
	}
	hf.place(p, slot, t, tid)
	return []*page.Page{p}, nil
}

// DeleteTuple clears the slot named by t.RecordID
func (hf *HeapFile) DeleteTuple(ctx context.Context, tid util.TransactionID, t *page.Tuple, pager Pager) ([]*page.Page, error) {
	rid := t.RecordID
	if rid.PageID.TableID != hf.id {
		return nil, errors.Wrapf(util.ErrTupleNotFound, "tuple %s is not in table %d", rid, hf.id)
	}
	if rid.Slot < 0 || rid.Slot >= hf.slots {
		return nil, errors.Wrapf(util.ErrTupleNotFound, "tuple %s", rid)
	}

	p, err := pager.GetPage(ctx, tid, rid.PageID, util.ReadWrite)
	if err != nil {
		return nil, err
	}
	if !slotUsed(p, rid.Slot) {
		return nil, errors.Wrapf(util.ErrTupleNotFound, "tuple %s", rid)
	}

	setSlot(p, rid.Slot, false)
	off := bitmapSize(hf.slots) + rid.Slot*hf.tupleSize
	clear(p.Data[off : off+hf.tupleSize])
	p.MarkDirty(true, tid)
	return []*page.Page{p}, nil
}

func (hf *HeapFile) Close() error {
	return hf.fm.Close()
}

// Sync forces written pages to stable storage
func (hf *HeapFile) Sync() error {
	return hf.fm.Sync()
}

// allocate appends an empty heap page to the file and returns its id
func (hf *HeapFile) allocate() (util.PageID, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	pid := util.NewPageID(hf.id, uint32(hf.NumPages()))
	p := page.NewPage(pid)
	p.Header.Flags = page.FlagHeap
	if err := hf.fm.WritePage(p); err != nil {
		return util.PageID{}, errors.Wrapf(err, "allocate page %s", pid)
	}
	return pid, nil
}

func (hf *HeapFile) freeSlot(p *page.Page) int {
	for i := 0; i < hf.slots; i++ {
		if !slotUsed(p, i) {
			return i
		}
	}
	return -1
}

func (hf *HeapFile) place(p *page.Page, slot int, t *page.Tuple, tid util.TransactionID) {
	off := bitmapSize(hf.slots) + slot*hf.tupleSize
	copy(p.Data[off:off+hf.tupleSize], t.Data)
	setSlot(p, slot, true)
	p.Header.Flags |= page.FlagHeap
	p.MarkDirty(true, tid)
	t.RecordID = page.RecordID{PageID: p.ID(), Slot: slot}
}

func slotUsed(p *page.Page, slot int) bool {
	return p.Data[slot/8]&(1<<(slot%8)) != 0
}

func setSlot(p *page.Page, slot int, used bool) {
	if used {
		p.Data[slot/8] |= 1 << (slot % 8)
	} else {
		p.Data[slot/8] &^= 1 << (slot % 8)
	}
}

// HeapTuples decodes the occupied slots of a heap page
func HeapTuples(p *page.Page, tupleSize int) []page.Tuple {
	n := SlotsPerPage(tupleSize)
	base := bitmapSize(n)

	var tuples []page.Tuple
	for i := 0; i < n; i++ {
		if !slotUsed(p, i) {
			continue
		}
		off := base + i*tupleSize
		data := make([]byte, tupleSize)
		copy(data, p.Data[off:off+tupleSize])
		tuples = append(tuples, page.Tuple{
			RecordID: page.RecordID{PageID: p.ID(), Slot: i},
			Data:     data,
		})
	}
	return tuples
}

// FreeSlots counts the empty slots on a heap page
func FreeSlots(p *page.Page, tupleSize int) int {
	n := SlotsPerPage(tupleSize)
	free := 0
	for i := 0; i < n; i++ {
		if !slotUsed(p, i) {
			free++
		}
	}
	return free
}
