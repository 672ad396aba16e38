package catalog

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

// EmitFunc receives enumeration events in order. A non-nil return stops
// the enumeration immediately; no further events are produced.
type EmitFunc func(model.StreamEvent) error

// EnumerateNames streams database names as serialized JSON strings,
// ordered by name according to the page options.
func (c *Catalog) EnumerateNames(ctx context.Context, opts model.PageOptions, emit EmitFunc) error {
	return c.enumerate(ctx, prefixDB, opts, emit, func(key string, _ []byte) (json.RawMessage, error) {
		return json.Marshal(key)
	})
}

// EnumerateInfo streams {key, info} records for every database.
func (c *Catalog) EnumerateInfo(ctx context.Context, opts model.PageOptions, emit EmitFunc) error {
	return c.enumerate(ctx, prefixDB, opts, emit, func(key string, val []byte) (json.RawMessage, error) {
		var info model.DatabaseInfo
		if err := json.Unmarshal(val, &info); err != nil {
			return nil, err
		}
		return json.Marshal(model.KeyedInfo{Key: key, Info: &info})
	})
}

// EnumerateDeleted streams tombstone records ordered by database name and
// deletion timestamp.
func (c *Catalog) EnumerateDeleted(ctx context.Context, opts model.PageOptions, emit EmitFunc) error {
	return c.enumerate(ctx, prefixDeleted, opts, emit, func(_ string, val []byte) (json.RawMessage, error) {
		return json.RawMessage(val), nil
	})
}

// enumerate walks one key prefix in the requested order, pushing a meta
// event, one row event per surviving record, and a terminal event. The
// sequence is finite and not restartable; callers re-enumerate with a
// fresh call. Each row checks the request context so a disconnected
// consumer stops the walk promptly.
func (c *Catalog) enumerate(
	ctx context.Context,
	prefix string,
	opts model.PageOptions,
	emit EmitFunc,
	render func(key string, val []byte) (json.RawMessage, error),
) error {
	opts = opts.Normalized()

	err := c.db.View(func(txn *badger.Txn) error {
		if err := emit(model.MetaEvent()); err != nil {
			return err
		}

		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(prefix)
		iterOpts.Reverse = opts.Direction == model.DirectionReverse
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		seekTo := []byte(prefix)
		if opts.StartKey != "" {
			seekTo = []byte(prefix + opts.StartKey)
		} else if iterOpts.Reverse {
			// Seek past the last key of the prefix.
			seekTo = append([]byte(prefix), 0xFF)
		}

		skipped := 0
		emitted := 0
		for it.Seek(seekTo); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := string(it.Item().Key())[len(prefix):]
			if opts.EndKey != "" {
				if !iterOpts.Reverse && key > opts.EndKey {
					break
				}
				if iterOpts.Reverse && key < opts.EndKey {
					break
				}
			}
			if skipped < opts.Skip {
				skipped++
				continue
			}
			if opts.Limit > 0 && emitted >= opts.Limit {
				break
			}

			var row json.RawMessage
			err := it.Item().Value(func(val []byte) error {
				r, rerr := render(key, val)
				if rerr != nil {
					return rerr
				}
				row = append(json.RawMessage(nil), r...)
				return nil
			})
			if err != nil {
				return err
			}
			if err := emit(model.RowEvent(row)); err != nil {
				return err
			}
			emitted++
		}
		return nil
	})

	if err != nil {
		// The consumer sees the failure as a terminal error event; if the
		// emit itself failed the responder is already closed and the event
		// is dropped on the floor.
		_ = emit(model.ErrorEvent(err))
		return err
	}
	return emit(model.CompleteEvent())
}

// Info returns the metadata record for one database.
func (c *Catalog) Info(name string) (*model.DatabaseInfo, error) {
	var info model.DatabaseInfo
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(name))
		if err == badger.ErrKeyNotFound {
			return adminerrors.NotFound("database " + name)
		}
		if err != nil {
			return adminerrors.Internal("catalog read failed", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		})
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// DeletedVersions returns every retained deletion of one database name,
// ordered by deletion timestamp.
func (c *Catalog) DeletedVersions(name string) ([]model.DeletedVersion, error) {
	prefix := []byte(prefixDeleted + name + "!")
	var versions []model.DeletedVersion

	err := c.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec model.DeletedDatabaseRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				versions = append(versions, model.DeletedVersion{
					Timestamp: rec.DeletedAt,
					Info:      rec.Info,
				})
				return nil
			})
			if err != nil {
				return adminerrors.Internal("catalog read failed", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, adminerrors.NotFound("deleted database " + name)
	}
	return versions, nil
}
