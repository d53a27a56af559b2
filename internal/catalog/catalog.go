package catalog

import (
	goerrors "errors"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/bietkhonhungvandi212/heapdb/internal/storage/file"
	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

// Schema describes the rows of a table. Tuples are opaque fixed-size byte strings.
type Schema struct {
	Name      string
	TupleSize int
}

type table struct {
	file   file.TableFile
	schema Schema
}

// Catalog maps table ids and names to their files and schemas.
type Catalog struct {
	mu     sync.RWMutex
	tables map[util.TableID]*table
	names  map[string]util.TableID
}

func New() *Catalog {
	return &Catalog{
		tables: make(map[util.TableID]*table),
		names:  make(map[string]util.TableID),
	}
}

// AddTable registers f under its id and schema.Name.
func (c *Catalog) AddTable(f file.TableFile, schema Schema) error {
	if schema.TupleSize <= 0 {
		return errors.Wrapf(util.ErrInvalidTupleSize, "table %q", schema.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[f.ID()]; ok {
		return errors.Wrapf(util.ErrTableExists, "table id %d", f.ID())
	}
	if _, ok := c.names[schema.Name]; ok {
		return errors.Wrapf(util.ErrTableExists, "table %q", schema.Name)
	}
	c.tables[f.ID()] = &table{file: f, schema: schema}
	c.names[schema.Name] = f.ID()
	return nil
}

func (c *Catalog) TableFile(id util.TableID) (file.TableFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[id]
	if !ok {
		return nil, errors.Wrapf(util.ErrTableNotFound, "table id %d", id)
	}
	return t.file, nil
}

func (c *Catalog) Schema(id util.TableID) (Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[id]
	if !ok {
		return Schema{}, errors.Wrapf(util.ErrTableNotFound, "table id %d", id)
	}
	return t.schema, nil
}

func (c *Catalog) TableID(name string) (util.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.names[name]
	if !ok {
		return 0, errors.Wrapf(util.ErrTableNotFound, "table %q", name)
	}
	return id, nil
}

// Tables returns the registered table ids in ascending order.
func (c *Catalog) Tables() []util.TableID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]util.TableID, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close closes every table file.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for id, t := range c.tables {
		if e := t.file.Close(); e != nil {
			err = goerrors.Join(err, errors.Wrapf(e, "close table %d", id))
		}
	}
	c.tables = make(map[util.TableID]*table)
	c.names = make(map[string]util.TableID)
	return err
}
