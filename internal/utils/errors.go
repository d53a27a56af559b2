package util

import "errors"

var (
	ErrInvalidPageId       = errors.New("invalid page id")
	ErrInvalidPageSize     = errors.New("invalid page size")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidInitialPages = errors.New("initial pages must not be negative")
	ErrMaxFileSizeExceeded = errors.New("file size exceeds maximum table file size")
	ErrPageOutOfBounds     = errors.New("page out of bounds")
	ErrFileManagerNil      = errors.New("file manager is nil")
	ErrInvalidPoolSize     = errors.New("invalid pool size")
	ErrPageNotFound        = errors.New("page not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableExists         = errors.New("table already registered")
	ErrInvalidTupleSize    = errors.New("invalid tuple size")
	ErrTupleNotFound       = errors.New("tuple not found")
	ErrNoFreeSlot          = errors.New("no free slot on page")
	ErrCorruptRecord       = errors.New("corrupt log record")

	// ErrBufferFull: every resident page is dirty, nothing can be evicted
	ErrBufferFull = errors.New("all pages in buffer pool are dirty")

	// ErrLockTimeout: the lock was not granted before the timeout elapsed
	ErrLockTimeout = errors.New("lock wait timed out")

	// ErrCycleDetected: waiting would close a cycle in the wait-for graph
	ErrCycleDetected = errors.New("wait-for cycle detected")
)
