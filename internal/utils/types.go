package util

import (
	"errors"
	"fmt"
)

// PageSize represents the standard page size (4KB)
const PageSize = 4096

// MAX_FILE_SIZE bounds a single table file (1GB)
const MAX_FILE_SIZE = 1 << 30

// TableID identifies a table file registered in the catalog
type TableID uint32

// PageID is the composite identity of a page: owning table + page number.
// It is comparable and used directly as a map key.
type PageID struct {
	TableID TableID
	PageNo  uint32
}

func NewPageID(table TableID, pageNo uint32) PageID {
	return PageID{TableID: table, PageNo: pageNo}
}

func (p PageID) String() string {
	return fmt.Sprintf("%d:%d", p.TableID, p.PageNo)
}

// Less orders page ids by table, then page number
func (p PageID) Less(o PageID) bool {
	if p.TableID != o.TableID {
		return p.TableID < o.TableID
	}
	return p.PageNo < o.PageNo
}

// TransactionID represents a unique transaction identifier, supplied by the caller
type TransactionID uint64

func (t TransactionID) String() string {
	return fmt.Sprintf("tx-%d", uint64(t))
}

// Permission is the access level requested for a page
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	switch p {
	case ReadOnly:
		return "READ_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}

// ErrorType represents different types of database errors
type ErrorType int

const (
	ErrTypeNotFound ErrorType = iota
	ErrTypeInvalidKey
	ErrTypeInvalidValue
	ErrTypeTransactionAborted
	ErrTypeIOError
	ErrTypeCorruption
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotFound:
		return "not found"
	case ErrTypeInvalidKey:
		return "invalid key"
	case ErrTypeInvalidValue:
		return "invalid value"
	case ErrTypeTransactionAborted:
		return "transaction aborted"
	case ErrTypeIOError:
		return "io error"
	case ErrTypeCorruption:
		return "corruption"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// DatabaseError represents a database-specific error
type DatabaseError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("HeapDB Error [%s]: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("HeapDB Error [%s]: %s", e.Type, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a new database error
func NewDatabaseError(errType ErrorType, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewAbortError builds the signal telling a caller its transaction must abort.
func NewAbortError(tid TransactionID, pid PageID, perm Permission, cause error) *DatabaseError {
	e := NewDatabaseError(ErrTypeTransactionAborted,
		fmt.Sprintf("%s must abort: %s on page %s", tid, perm, pid), cause)
	e.Context["tid"] = tid
	e.Context["page"] = pid
	e.Context["perm"] = perm
	return e
}

// IsAborted reports whether err carries a transaction-abort signal.
func IsAborted(err error) bool {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Type == ErrTypeTransactionAborted
	}
	return false
}
