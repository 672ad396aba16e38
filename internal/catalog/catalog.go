// Package catalog is the node-local database catalog backing the admin
// listing and soft-delete lifecycle endpoints. Live databases and deletion
// tombstones live in distinct badger key prefixes; ordered iteration over
// those prefixes implements paginated enumeration.
package catalog

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	adminerrors "github.com/quillstore/admind/internal/errors"
)

const (
	prefixDB      = "db!"
	prefixDeleted = "del!"
	keyVersion    = "meta!version"
)

// Config holds catalog storage configuration.
type Config struct {
	Dir      string
	InMemory bool
}

// Catalog is the concrete listing source. The metadata version is a
// monotonic counter bumped by every catalog mutation; it feeds the
// conditional cache key, so a client whose cached listing carries the
// current version is served a 304 without any iteration.
type Catalog struct {
	db      *badger.DB
	logger  *zap.Logger
	version atomic.Uint64
}

// Open opens (or creates) the catalog store.
func Open(cfg Config, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, adminerrors.Internal("failed to open catalog store", err)
	}

	c := &Catalog{db: db, logger: logger}
	if err := c.loadVersion(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("catalog opened",
		zap.String("dir", cfg.Dir),
		zap.Bool("in_memory", cfg.InMemory),
		zap.Uint64("version", c.version.Load()),
	)
	return c, nil
}

// Close closes the underlying store.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Version returns the current metadata version without touching the
// store.
func (c *Catalog) Version() uint64 {
	return c.version.Load()
}

func (c *Catalog) loadVersion() error {
	return c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyVersion))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return adminerrors.Internal("failed to load catalog version", err)
		}
		return item.Value(func(val []byte) error {
			if len(val) == 8 {
				c.version.Store(binary.BigEndian.Uint64(val))
			}
			return nil
		})
	})
}

// bumpVersion advances the metadata version inside txn. The in-memory
// counter is only advanced after the transaction commits.
func (c *Catalog) bumpVersion(txn *badger.Txn) (uint64, error) {
	next := c.version.Load() + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := txn.Set([]byte(keyVersion), buf); err != nil {
		return 0, err
	}
	return next, nil
}

func dbKey(name string) []byte {
	return []byte(prefixDB + name)
}

func deletedKey(name, timestamp string) []byte {
	return []byte(prefixDeleted + name + "!" + timestamp)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
