package page

import (
	"encoding/binary"
	"sync"

	"github.com/OneOfOne/xxhash"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

const (
	HEADER_SIZE = 16 // Size of PageHeader struct: TableID(4) + PageNo(4) + Checksum(4) + Flags(2) + padding(2)
	DATA_SIZE   = util.PageSize - HEADER_SIZE
)

const (
	FlagHeap uint16 = 1 << iota // page has been formatted by a heap file
)

// Page is block that read/write from disk.
// Data is guarded by the page lock the caller holds through the buffer pool;
// the dirty marker and before-image are guarded by mu.
type Page struct {
	Header PageHeader
	Data   [DATA_SIZE]byte

	mu      sync.Mutex
	dirtyBy util.TransactionID
	dirty   bool
	before  *[DATA_SIZE]byte
}

type PageHeader struct {
	PageID   util.PageID // 8 bytes
	Checksum uint32      // 4 bytes
	Flags    uint16      // 2 bytes
	_        uint16      //2 bytes (padding)
}

func NewPage(pid util.PageID) *Page {
	p := &Page{Header: PageHeader{PageID: pid}}
	p.SetBeforeImage()
	return p
}

func (p *Page) ID() util.PageID {
	return p.Header.PageID
}

// IsDirty returns the transaction that last dirtied the page, if any
func (p *Page) IsDirty() (util.TransactionID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirtyBy, p.dirty
}

// IsDirtyBy reports whether tid is the transaction responsible for the page's uncommitted state
func (p *Page) IsDirtyBy(tid util.TransactionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty && p.dirtyBy == tid
}

func (p *Page) MarkDirty(dirty bool, tid util.TransactionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = dirty
	if dirty {
		p.dirtyBy = tid
	} else {
		p.dirtyBy = 0
	}
}

// BeforeImage returns a page holding the contents as of the last SetBeforeImage
func (p *Page) BeforeImage() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := &Page{Header: p.Header}
	if p.before != nil {
		img.Data = *p.before
	}
	return img
}

// SetBeforeImage snapshots the current contents; called once a writer commits.
func (p *Page) SetBeforeImage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := p.Data
	p.before = &snapshot
}

// Serialize packs the page into a byte slice for writing
func (p *Page) Serialize() []byte {
	buf := make([]byte, util.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.Header.PageID.TableID))
	binary.LittleEndian.PutUint32(buf[4:8], p.Header.PageID.PageNo)
	binary.LittleEndian.PutUint16(buf[12:14], p.Header.Flags)

	copy(buf[HEADER_SIZE:], p.Data[:])

	p.Header.Checksum = checksum(buf)
	binary.LittleEndian.PutUint32(buf[8:12], p.Header.Checksum)

	return buf
}

// Deserialize unpacks from bytes, validates checksum.
// An all-zero block (never written) yields a fresh empty page.
func Deserialize(data []byte) (*Page, error) {
	if len(data) != util.PageSize {
		return nil, util.ErrInvalidPageSize
	}

	p := &Page{}
	p.Header.PageID = util.PageID{
		TableID: util.TableID(binary.LittleEndian.Uint32(data[0:4])),
		PageNo:  binary.LittleEndian.Uint32(data[4:8]),
	}
	p.Header.Checksum = binary.LittleEndian.Uint32(data[8:12])
	p.Header.Flags = binary.LittleEndian.Uint16(data[12:14])
	copy(p.Data[:], data[HEADER_SIZE:])

	if p.Header.Checksum != 0 || p.Header.Flags != 0 {
		if p.Header.Checksum != checksum(data) {
			return nil, util.ErrChecksumMismatch
		}
	}

	p.SetBeforeImage()
	return p, nil
}

// checksum covers the whole block except the checksum field itself
func checksum(buf []byte) uint32 {
	h := xxhash.New32()
	h.Write(buf[0:8])
	h.Write(buf[12:])
	return h.Sum32()
}
