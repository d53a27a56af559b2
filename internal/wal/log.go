package wal

//go:generate mockgen -source log.go -destination log_mocks.go -package wal

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// Writer is what the buffer pool needs from the log.
type Writer interface {
	// LogWrite appends an update record carrying both images of a page.
	LogWrite(tid util.TransactionID, before, after *page.Page) error
	LogCommit(tid util.TransactionID) error
	LogAbort(tid util.TransactionID) error
	// Force makes every appended record durable.
	Force() error
}

type RecordType uint8

const (
	RecordUpdate RecordType = iota + 1
	RecordCommit
	RecordAbort
	RecordCheckpoint
)

func (t RecordType) String() string {
	switch t {
	case RecordUpdate:
		return "UPDATE"
	case RecordCommit:
		return "COMMIT"
	case RecordAbort:
		return "ABORT"
	case RecordCheckpoint:
		return "CHECKPOINT"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}

// Record is one decoded log entry. Before and After are page data areas
// and are only set for updates.
type Record struct {
	LSN    uint64
	Type   RecordType
	TID    util.TransactionID
	PageID util.PageID
	Before []byte
	After  []byte
}

// fixed part: type(1) tid(8) table(4) page(4) len(before)(4)
const recordHeaderSize = 21

var logBucket = []byte("log")

/**
* LogFile keeps records in a single bbolt bucket keyed by big-endian LSN,
* so cursor order is append order. Appends are not synced; Force is the
* durability barrier.
**/
type LogFile struct {
	db     *bbolt.DB
	noSync bool
}

var _ Writer = (*LogFile)(nil)

// Open opens or creates the log at path. With noSync, Force does not fsync.
func Open(path string, noSync bool) (*LogFile, error) {
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open log %s", path)
	}
	db.NoSync = true
	db.NoFreelistSync = true

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(logBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create log bucket")
	}

	return &LogFile{db: db, noSync: noSync}, nil
}

func (lf *LogFile) LogWrite(tid util.TransactionID, before, after *page.Page) error {
	if before.ID() != after.ID() {
		return errors.Errorf("log write: image ids differ: %s vs %s", before.ID(), after.ID())
	}
	return lf.append(Record{
		Type:   RecordUpdate,
		TID:    tid,
		PageID: after.ID(),
		Before: before.Data[:],
		After:  after.Data[:],
	})
}

func (lf *LogFile) LogCommit(tid util.TransactionID) error {
	return lf.append(Record{Type: RecordCommit, TID: tid})
}

func (lf *LogFile) LogAbort(tid util.TransactionID) error {
	return lf.append(Record{Type: RecordAbort, TID: tid})
}

// LogCheckpoint marks the point at which every dirty page was written back.
func (lf *LogFile) LogCheckpoint() error {
	if err := lf.append(Record{Type: RecordCheckpoint}); err != nil {
		return err
	}
	return lf.Force()
}

func (lf *LogFile) Force() error {
	if lf.noSync {
		return nil
	}
	return errors.Wrap(lf.db.Sync(), "force log")
}

// Records calls fn for every record in LSN order, stopping at the first error.
func (lf *LogFile) Records(fn func(Record) error) error {
	return lf.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(logBucket).ForEach(func(k, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return errors.Wrapf(err, "record %d", binary.BigEndian.Uint64(k))
			}
			rec.LSN = binary.BigEndian.Uint64(k)
			return fn(rec)
		})
	})
}

// Len returns the number of records in the log.
func (lf *LogFile) Len() (int, error) {
	var n int
	err := lf.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(logBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (lf *LogFile) Close() error {
	if lf == nil || lf.db == nil {
		return nil
	}
	err := lf.db.Sync()
	if cerr := lf.db.Close(); err == nil {
		err = cerr
	}
	lf.db = nil
	return errors.Wrap(err, "close log")
}

func (lf *LogFile) append(rec Record) error {
	err := lf.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket(logBucket)
		lsn, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, lsn)
		return bkt.Put(key, encode(rec))
	})
	return errors.Wrapf(err, "append %s record for %s", rec.Type, rec.TID)
}

func encode(rec Record) []byte {
	before := snappy.Encode(nil, rec.Before)
	after := snappy.Encode(nil, rec.After)

	buf := make([]byte, recordHeaderSize, recordHeaderSize+len(before)+len(after))
	buf[0] = byte(rec.Type)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(rec.TID))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(rec.PageID.TableID))
	binary.LittleEndian.PutUint32(buf[13:17], rec.PageID.PageNo)
	binary.LittleEndian.PutUint32(buf[17:21], uint32(len(before)))
	buf = append(buf, before...)
	return append(buf, after...)
}

func decode(buf []byte) (Record, error) {
	if len(buf) < recordHeaderSize {
		return Record{}, util.ErrCorruptRecord
	}

	rec := Record{
		Type: RecordType(buf[0]),
		TID:  util.TransactionID(binary.LittleEndian.Uint64(buf[1:9])),
		PageID: util.PageID{
			TableID: util.TableID(binary.LittleEndian.Uint32(buf[9:13])),
			PageNo:  binary.LittleEndian.Uint32(buf[13:17]),
		},
	}
	n := int(binary.LittleEndian.Uint32(buf[17:21]))
	body := buf[recordHeaderSize:]
	if n > len(body) {
		return Record{}, util.ErrCorruptRecord
	}

	var err error
	if rec.Before, err = decodeImage(body[:n]); err != nil {
		return Record{}, err
	}
	if rec.After, err = decodeImage(body[n:]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func decodeImage(b []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, b)
	if err != nil {
		return nil, errors.Wrap(err, "decompress image")
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
