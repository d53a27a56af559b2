package page

import (
	"fmt"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// RecordID locates a tuple: the page holding it and its slot on that page
type RecordID struct {
	PageID util.PageID
	Slot   int
}

func (r RecordID) String() string {
	return fmt.Sprintf("%s/%d", r.PageID, r.Slot)
}

// Tuple is an opaque fixed-size row; its layout belongs to the table schema
type Tuple struct {
	RecordID RecordID
	Data     []byte
}
