package catalog

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/model"
)

// Create registers a new live database.
func (c *Catalog) Create(name string) error {
	if err := ValidateDatabaseName(name); err != nil {
		return err
	}

	var committed uint64
	err := c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dbKey(name)); err == nil {
			return adminerrors.Conflict("database " + name + " already exists")
		} else if err != badger.ErrKeyNotFound {
			return adminerrors.Internal("catalog read failed", err)
		}

		next, err := c.bumpVersion(txn)
		if err != nil {
			return adminerrors.Internal("catalog write failed", err)
		}
		committed = next

		info := model.DatabaseInfo{
			Name:      name,
			CreatedAt: now(),
			UpdateSeq: next,
		}
		val, err := json.Marshal(info)
		if err != nil {
			return adminerrors.Internal("catalog encode failed", err)
		}
		return txn.Set(dbKey(name), val)
	})
	if err != nil {
		return err
	}
	c.version.Store(committed)

	c.logger.Info("database created", zap.String("name", name))
	return nil
}

// SoftDelete removes a live database and leaves a timestamped tombstone
// behind. The tombstone is destroyed only by Undelete or Remove.
func (c *Catalog) SoftDelete(name string) error {
	var committed uint64
	deletedAt := now()

	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(name))
		if err == badger.ErrKeyNotFound {
			return adminerrors.NotFound("database " + name)
		}
		if err != nil {
			return adminerrors.Internal("catalog read failed", err)
		}

		var info model.DatabaseInfo
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		}); err != nil {
			return adminerrors.Internal("catalog decode failed", err)
		}

		next, err := c.bumpVersion(txn)
		if err != nil {
			return adminerrors.Internal("catalog write failed", err)
		}
		committed = next

		rec := model.DeletedDatabaseRecord{
			Name:      name,
			DeletedAt: deletedAt,
			Info:      info,
		}
		val, err := json.Marshal(rec)
		if err != nil {
			return adminerrors.Internal("catalog encode failed", err)
		}
		if err := txn.Set(deletedKey(name, deletedAt), val); err != nil {
			return err
		}
		return txn.Delete(dbKey(name))
	})
	if err != nil {
		return err
	}
	c.version.Store(committed)

	c.logger.Info("database soft-deleted",
		zap.String("name", name),
		zap.String("timestamp", deletedAt),
	)
	return nil
}

// Undelete promotes the tombstone identified by (source, timestamp) back
// to a live database. Target defaults to source; an existing target
// rejects the promotion with a file-exists error.
func (c *Catalog) Undelete(source, target, timestamp string) error {
	if target == "" {
		target = source
	}
	if err := ValidateDatabaseName(target); err != nil {
		return err
	}

	var committed uint64
	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(deletedKey(source, timestamp))
		if err == badger.ErrKeyNotFound {
			return adminerrors.NotFound("deleted database " + source)
		}
		if err != nil {
			return adminerrors.Internal("catalog read failed", err)
		}

		if _, err := txn.Get(dbKey(target)); err == nil {
			return adminerrors.FileExists(target)
		} else if err != badger.ErrKeyNotFound {
			return adminerrors.Internal("catalog read failed", err)
		}

		var rec model.DeletedDatabaseRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return adminerrors.Internal("catalog decode failed", err)
		}

		next, err := c.bumpVersion(txn)
		if err != nil {
			return adminerrors.Internal("catalog write failed", err)
		}
		committed = next

		info := rec.Info
		info.Name = target
		info.UpdateSeq = next
		val, err := json.Marshal(info)
		if err != nil {
			return adminerrors.Internal("catalog encode failed", err)
		}
		if err := txn.Set(dbKey(target), val); err != nil {
			return err
		}
		return txn.Delete(deletedKey(source, timestamp))
	})
	if err != nil {
		return err
	}
	c.version.Store(committed)

	c.logger.Info("database undeleted",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("timestamp", timestamp),
	)
	return nil
}

// Remove hard-deletes the tombstone identified by (name, timestamp).
func (c *Catalog) Remove(name, timestamp string) error {
	var committed uint64
	err := c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(deletedKey(name, timestamp)); err == badger.ErrKeyNotFound {
			return adminerrors.NotFound("deleted database " + name)
		} else if err != nil {
			return adminerrors.Internal("catalog read failed", err)
		}

		next, err := c.bumpVersion(txn)
		if err != nil {
			return adminerrors.Internal("catalog write failed", err)
		}
		committed = next

		return txn.Delete(deletedKey(name, timestamp))
	})
	if err != nil {
		return err
	}
	c.version.Store(committed)

	c.logger.Info("deleted database removed",
		zap.String("name", name),
		zap.String("timestamp", timestamp),
	)
	return nil
}
