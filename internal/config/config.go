package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"

	util "github.com/bietkhonhungvandi212/heapdb/internal/utils"
)

/*
data_dir  = ./data
log_level = info
log_file  =

[buffer]
pages        = 50
lock_timeout = 100ms

[wal]
file    = heapdb.wal
no_sync = false

[table.users]
tuple_size = 64
*/
type Options struct {
	Raw      *ini.File
	DataDir  string
	LogLevel string
	LogFile  string

	// buffer
	BufferPages int
	LockTimeout time.Duration

	// wal
	WALFile string
	NoSync  bool

	Tables []TableOptions
}

// TableOptions declares one heap table. IDs follow declaration order from 1.
type TableOptions struct {
	ID        util.TableID
	Name      string
	TupleSize int
}

const tablePrefix = "table."

func Default() *Options {
	return &Options{
		Raw:         ini.Empty(),
		DataDir:     "data",
		LogLevel:    "info",
		BufferPages: 50,
		LockTimeout: 100 * time.Millisecond,
		WALFile:     "heapdb.wal",
		Tables:      []TableOptions{{ID: 1, Name: "kv", TupleSize: 64}},
	}
}

// Load reads an ini file on top of the defaults.
func Load(path string) (*Options, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	return Parse(f)
}

func Parse(f *ini.File) (*Options, error) {
	o := Default()
	o.Raw = f

	root := f.Section(ini.DefaultSection)
	o.DataDir = root.Key("data_dir").MustString(o.DataDir)
	o.LogLevel = root.Key("log_level").MustString(o.LogLevel)
	o.LogFile = root.Key("log_file").MustString(o.LogFile)

	buf := f.Section("buffer")
	o.BufferPages = buf.Key("pages").MustInt(o.BufferPages)
	o.LockTimeout = buf.Key("lock_timeout").MustDuration(o.LockTimeout)

	w := f.Section("wal")
	o.WALFile = w.Key("file").MustString(o.WALFile)
	o.NoSync = w.Key("no_sync").MustBool(o.NoSync)

	var tables []TableOptions
	for _, s := range f.Sections() {
		if !strings.HasPrefix(s.Name(), tablePrefix) {
			continue
		}
		tables = append(tables, TableOptions{
			ID:        util.TableID(len(tables) + 1),
			Name:      strings.TrimPrefix(s.Name(), tablePrefix),
			TupleSize: s.Key("tuple_size").MustInt(0),
		})
	}
	if len(tables) > 0 {
		o.Tables = tables
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Options) Validate() error {
	if o.BufferPages <= 0 {
		return errors.Wrapf(util.ErrInvalidPoolSize, "buffer pages %d", o.BufferPages)
	}
	if o.LockTimeout <= 0 {
		return errors.Errorf("lock timeout must be positive, got %s", o.LockTimeout)
	}
	seen := make(map[string]bool, len(o.Tables))
	for _, t := range o.Tables {
		if t.Name == "" {
			return errors.New("table name must not be empty")
		}
		if seen[t.Name] {
			return errors.Wrapf(util.ErrTableExists, "table %q", t.Name)
		}
		seen[t.Name] = true
		if t.TupleSize <= 0 {
			return errors.Wrapf(util.ErrInvalidTupleSize, "table %q", t.Name)
		}
	}
	return nil
}

// WALPath resolves the log file against the data directory.
func (o *Options) WALPath() string {
	if filepath.IsAbs(o.WALFile) {
		return o.WALFile
	}
	return filepath.Join(o.DataDir, o.WALFile)
}

// TablePath is where the heap file of a table lives.
func (o *Options) TablePath(name string) string {
	return filepath.Join(o.DataDir, name+".dat")
}
