package dht

import (
	"github.com/dgraph-io/badger"
)

const recordPrefix = "record"

// BadgerStore is a RecordStore backed by a badger database, so that retrieved
// and published records survive a restart. Reads are served from an in-memory
// store first and fall back to the database.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
}

// NewBadgerStore opens, or creates, a badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = false

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
	}

	return store, nil
}

func recordKey(key []byte) []byte {
	return append([]byte(recordPrefix), key...)
}

// GetRecord returns the record stored under key, or ErrKeyNotFound.
func (s *BadgerStore) GetRecord(key []byte) (*Record, error) {
	if rec, err := s.inmemStore.GetRecord(key); err == nil {
		return rec, nil
	}
	return s.dbGetRecord(key)
}

// PutRecord stores rec in memory and writes it through to the database.
func (s *BadgerStore) PutRecord(rec *Record) error {
	if err := s.inmemStore.PutRecord(rec); err != nil {
		return err
	}
	return s.dbSetRecord(rec)
}

// Close shuts the underlying database down.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) dbGetRecord(key []byte) (*Record, error) {
	var recBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if err != nil {
			return err
		}
		recBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, ErrKeyNotFound
	}

	rec := new(Record)
	if err := rec.Unmarshal(recBytes); err != nil {
		return nil, err
	}

	// warm the in-memory store for subsequent reads
	s.inmemStore.PutRecord(rec)

	return rec, nil
}

func (s *BadgerStore) dbSetRecord(rec *Record) error {
	recBytes, err := rec.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.Key), recBytes)
	})
}
