package file

//go:generate mockgen -source shared.go -destination shared_mocks.go -package file

import (
	"context"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// Filer is raw page I/O against a backing file.
type Filer interface {
	ReadPage(pid util.PageID) (*page.Page, error)
	WritePage(p *page.Page) error
}

// TableFile is the page source the buffer pool loads from and writes back to.
// Tuple mutations reach their pages through the supplied Pager so that every
// page touched is locked on behalf of the acting transaction.
type TableFile interface {
	Filer
	ID() util.TableID
	NumPages() int
	InsertTuple(ctx context.Context, tid util.TransactionID, t *page.Tuple, pager Pager) ([]*page.Page, error)
	DeleteTuple(ctx context.Context, tid util.TransactionID, t *page.Tuple, pager Pager) ([]*page.Page, error)
	Close() error
}

// Pager hands out locked pages; implemented by the buffer pool.
type Pager interface {
	GetPage(ctx context.Context, tid util.TransactionID, pid util.PageID, perm util.Permission) (*page.Page, error)
}
