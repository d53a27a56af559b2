package engine

import (
	"context"
	goerrors "errors"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bietkhonhungvandi212/heapdb/internal/catalog"
	"github.com/bietkhonhungvandi212/heapdb/internal/config"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/buffer"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	"github.com/bietkhonhungvandi212/heapdb/internal/storage/page"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
	"github.com/bietkhonhungvandi212/heapdb/internal/wal"
)

// ErrTransactionsActive: a checkpoint needs every transaction to be finished
var ErrTransactionsActive = goerrors.New("transactions still active")

// Database wires the catalog, the log and the buffer pool together.
type Database struct {
	opts    *config.Options
	catalog *catalog.Catalog
	log     *wal.LogFile
	pool    *buffer.BufferPool
	logger  logrus.FieldLogger

	nextTID atomic.Uint64
}

// TableStats describes one table.
type TableStats struct {
	ID        util.TableID
	Name      string
	TupleSize int
	Pages     int
}

type Stats struct {
	Pool       buffer.Stats
	Tables     []TableStats
	LogRecords int
}

type syncer interface {
	Sync() error
}

// Open creates the data directory if needed, opens the log and one heap file
// per configured table. Transaction ids continue after the largest id in the log.
func Open(opts *config.Options, logger logrus.FieldLogger) (*Database, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	log, err := wal.Open(opts.WALPath(), opts.NoSync)
	if err != nil {
		return nil, err
	}

	db := &Database{
		opts:    opts,
		catalog: catalog.New(),
		log:     log,
		logger:  logger,
	}
	for _, t := range opts.Tables {
		hf, err := file.NewHeapFile(opts.TablePath(t.Name), t.ID, t.TupleSize)
		if err == nil {
			err = db.catalog.AddTable(hf, catalog.Schema{Name: t.Name, TupleSize: t.TupleSize})
			if err != nil {
				hf.Close()
			}
		}
		if err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "open table %q", t.Name)
		}
	}

	var last util.TransactionID
	err = log.Records(func(r wal.Record) error {
		if r.TID > last {
			last = r.TID
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	db.nextTID.Store(uint64(last))

	db.pool = buffer.NewBufferPool(opts.BufferPages, db.catalog, log,
		buffer.WithLockTimeout(opts.LockTimeout),
		buffer.WithLogger(logger),
	)

	logger.WithFields(logrus.Fields{
		"dir":    opts.DataDir,
		"tables": len(opts.Tables),
		"pages":  opts.BufferPages,
		"tid":    last,
	}).Info("database opened")
	return db, nil
}

// Begin hands out a fresh transaction id.
func (db *Database) Begin() util.TransactionID {
	return util.TransactionID(db.nextTID.Add(1))
}

// Insert stores data in table, zero-padded to the tuple size.
func (db *Database) Insert(ctx context.Context, tid util.TransactionID, table string, data []byte) (page.RecordID, error) {
	id, schema, err := db.lookup(table)
	if err != nil {
		return page.RecordID{}, err
	}
	if len(data) > schema.TupleSize {
		return page.RecordID{}, errors.Wrapf(util.ErrInvalidTupleSize, "%d bytes exceed tuple size %d of %q", len(data), schema.TupleSize, table)
	}

	t := &page.Tuple{Data: make([]byte, schema.TupleSize)}
	copy(t.Data, data)
	if err := db.pool.InsertTuple(ctx, tid, id, t); err != nil {
		return page.RecordID{}, err
	}
	return t.RecordID, nil
}

func (db *Database) Delete(ctx context.Context, tid util.TransactionID, rid page.RecordID) error {
	return db.pool.DeleteTuple(ctx, tid, &page.Tuple{RecordID: rid})
}

// Scan visits every tuple of table under shared locks, page by page.
// It stops at the first error returned by fn.
func (db *Database) Scan(ctx context.Context, tid util.TransactionID, table string, fn func(page.Tuple) error) error {
	id, schema, err := db.lookup(table)
	if err != nil {
		return err
	}
	tf, err := db.catalog.TableFile(id)
	if err != nil {
		return err
	}

	for pageNo := 0; pageNo < tf.NumPages(); pageNo++ {
		p, err := db.pool.GetPage(ctx, tid, util.NewPageID(id, uint32(pageNo)), util.ReadOnly)
		if err != nil {
			return err
		}
		for _, t := range file.HeapTuples(p, schema.TupleSize) {
			if err := fn(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (db *Database) Commit(tid util.TransactionID) error {
	return db.pool.TransactionComplete(tid, true)
}

func (db *Database) Abort(tid util.TransactionID) error {
	return db.pool.TransactionComplete(tid, false)
}

// Checkpoint writes back every dirty page, syncs the table files and appends
// a checkpoint record. It refuses to run while any transaction holds locks.
func (db *Database) Checkpoint() error {
	if n := db.pool.Stats().Active; n > 0 {
		return errors.Wrapf(ErrTransactionsActive, "%d open", n)
	}
	if err := db.pool.FlushAllPages(); err != nil {
		return err
	}
	for _, id := range db.catalog.Tables() {
		tf, err := db.catalog.TableFile(id)
		if err != nil {
			return err
		}
		if s, ok := tf.(syncer); ok {
			if err := s.Sync(); err != nil {
				return err
			}
		}
	}
	if err := db.log.LogCheckpoint(); err != nil {
		return err
	}
	db.logger.Info("checkpoint written")
	return nil
}

// Log calls fn for every log record in order.
func (db *Database) Log(fn func(wal.Record) error) error {
	return db.log.Records(fn)
}

func (db *Database) Stats() (Stats, error) {
	n, err := db.log.Len()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Pool: db.pool.Stats(), LogRecords: n}
	for _, id := range db.catalog.Tables() {
		schema, err := db.catalog.Schema(id)
		if err != nil {
			return Stats{}, err
		}
		tf, err := db.catalog.TableFile(id)
		if err != nil {
			return Stats{}, err
		}
		st.Tables = append(st.Tables, TableStats{
			ID:        id,
			Name:      schema.Name,
			TupleSize: schema.TupleSize,
			Pages:     tf.NumPages(),
		})
	}
	return st, nil
}

// Close releases the table files and the log. Pages of unfinished
// transactions are not written.
func (db *Database) Close() error {
	err := db.catalog.Close()
	if e := db.log.Close(); e != nil {
		err = goerrors.Join(err, e)
	}
	if err != nil {
		db.logger.WithError(err).Error("close failed")
	}
	return err
}

func (db *Database) lookup(table string) (util.TableID, catalog.Schema, error) {
	id, err := db.catalog.TableID(table)
	if err != nil {
		return 0, catalog.Schema{}, err
	}
	schema, err := db.catalog.Schema(id)
	return id, schema, err
}
