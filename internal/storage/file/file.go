package file

import (
	goerrors "errors"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

/**
* This module is used to read and write pages from / to one table file on disk.
* Every page lives at offset pageNo * PageSize.
**/
type FileManager struct {
	File *os.File
	Size int64

	mu sync.RWMutex
}

func NewFileManager(path string, initialPages int) (*FileManager, error) {
	if initialPages < 0 {
		return nil, util.ErrInvalidInitialPages
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, errors.Wrapf(err, "open file %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat file %s", path)
	}

	fm := &FileManager{File: f, Size: info.Size()}

	initialSize := int64(initialPages) * int64(util.PageSize)
	if fm.Size < initialSize {
		if err := f.Truncate(initialSize); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "truncate to %d", initialSize)
		}
		fm.Size = initialSize
	}

	return fm, nil
}

// NumPages returns the number of whole pages in the file
func (fm *FileManager) NumPages() int {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return int(fm.Size / int64(util.PageSize))
}

// When read from disk -> Deseialize the data to page.Page
/* READ FILE */
func (fm *FileManager) ReadPage(pageNo uint32) (*page.Page, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if fm.File == nil {
		return nil, util.ErrFileManagerNil
	}

	offset := int64(pageNo) * int64(util.PageSize)
	if offset+util.PageSize > fm.Size {
		return nil, util.ErrPageOutOfBounds
	}

	buf := make([]byte, util.PageSize)
	if _, err := fm.File.ReadAt(buf, offset); err != nil && !goerrors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "read page %d", pageNo)
	}

	p, err := page.Deserialize(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "deserialize page %d", pageNo)
	}

	return p, nil
}

// When write to disk -> Serialize the data to []byte and store them in disk by offset
/* WRITE FILE */
func (fm *FileManager) WritePage(p *page.Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.File == nil {
		return util.ErrFileManagerNil
	}

	offset := int64(p.Header.PageID.PageNo) * int64(util.PageSize)
	end := offset + int64(util.PageSize)
	if end > util.MAX_FILE_SIZE {
		return util.ErrMaxFileSizeExceeded
	}

	if _, err := fm.File.WriteAt(p.Serialize(), offset); err != nil {
		return errors.Wrapf(err, "[WritePage] write page %s", p.ID())
	}

	if end > fm.Size {
		fm.Size = end
	}
	return nil
}

// Sync flushes the OS buffers of the file to stable storage
func (fm *FileManager) Sync() error {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	if fm.File == nil {
		return util.ErrFileManagerNil
	}
	return errors.Wrap(fm.File.Sync(), "sync file")
}

/**
* CLOSE FUNCTION
**/
func (fm *FileManager) Close() error {
	if fm == nil {
		return nil // Idempotent
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()

	var err error
	if fm.File != nil {
		if e := fm.File.Sync(); e != nil {
			err = goerrors.Join(err, errors.Wrap(e, "sync file"))
		}
		if e := fm.File.Close(); e != nil {
			err = goerrors.Join(err, errors.Wrap(e, "close file"))
		}
		fm.File = nil
	}
	return err
}
