package docstorage

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerAdapter stores documents in an embedded badger database, on disk or
// in memory.
type BadgerAdapter struct {
	db     *badger.DB
	prefix []byte
}

// NewBadgerAdapter opens a badger database at path. With inMemory set the
// path is ignored and nothing is written to disk.
func NewBadgerAdapter(path string, inMemory bool, keyPrefix string) (*BadgerAdapter, error) {
	if inMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).WithInMemory(inMemory)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open BadgerDB")
	}
	return &BadgerAdapter{db: db, prefix: []byte(keyPrefix + ":doc:")}, nil
}

func (a *BadgerAdapter) key(id string) []byte {
	k := make([]byte, 0, len(a.prefix)+len(id))
	k = append(k, a.prefix...)
	return append(k, id...)
}

func (a *BadgerAdapter) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(a.key(id), data)
	})
	if err != nil {
		return errors.Wrap(err, "failed to save document")
	}
	return nil
}

func (a *BadgerAdapter) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(a.key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrDocumentNotFound{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load document")
	}
	return data, nil
}

// List returns ids in key order, which badger keeps sorted.
func (a *BadgerAdapter) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = a.prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(a.prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	return ids, nil
}

func (a *BadgerAdapter) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(a.key(id))
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete document")
	}
	return nil
}

func (a *BadgerAdapter) Close() error {
	return a.db.Close()
}
