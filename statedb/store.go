package statedb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/opentron/opentron-sub001/types"
)

// PersistentStore is the durable tail every StateDB overlay eventually
// solidifies into (spec §4.2). Backed by goleveldb, the same embedded
// key/value engine the teacher's database/ffldb package wraps with its own
// ldb.LevelDBTransaction.
type PersistentStore struct {
	db *leveldb.DB
}

// OpenPersistentStore opens (creating if absent) a goleveldb database at dir.
func OpenPersistentStore(dir string) (*PersistentStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, types.Wrap(types.KindStateConsistency, err, "open leveldb store")
	}
	return &PersistentStore{db: db}, nil
}

// Close closes the underlying database.
func (s *PersistentStore) Close() error {
	return s.db.Close()
}

// Get returns the raw value for key, or ok=false if absent.
func (s *PersistentStore) Get(key []byte) (value []byte, ok bool, err error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, types.Wrap(types.KindStateConsistency, err, "leveldb get")
	}
	return v, true, nil
}

// Put writes value for key.
func (s *PersistentStore) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return types.Wrap(types.KindStateConsistency, err, "leveldb put")
	}
	return nil
}

// Delete removes key, no-op if absent.
func (s *PersistentStore) Delete(key []byte) error {
	if err := s.db.Delete(key, nil); err != nil {
		return types.Wrap(types.KindStateConsistency, err, "leveldb delete")
	}
	return nil
}

// WriteBatch atomically applies puts (value != nil) and deletes (value ==
// nil) — used by solidify_layer to commit a whole overlay in one shot
// (spec §4.2 "atomically writes it to the persistent store").
func (s *PersistentStore) WriteBatch(puts map[string][]byte, deletes [][]byte) error {
	batch := new(leveldb.Batch)
	for k, v := range puts {
		batch.Put([]byte(k), v)
	}
	for _, k := range deletes {
		batch.Delete(k)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return types.Wrap(types.KindStateConsistency, err, "leveldb batch write")
	}
	return nil
}

// PrefixIterator returns a goleveldb iterator restricted to keys sharing
// prefix, released by the caller.
func (s *PersistentStore) PrefixIterator(prefix []byte) iterator.Iterator {
	return s.db.NewIterator(util.BytesPrefix(prefix), nil)
}
