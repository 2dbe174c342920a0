package dht

import (
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by record stores when a key has no record.
var ErrKeyNotFound = errors.New("record not found")

// RecordStore abstracts the local storage of DHT records. Implementations
// must be safe for concurrent use.
type RecordStore interface {
	GetRecord(key []byte) (*Record, error)
	PutRecord(rec *Record) error
	Close() error
}

// InmemStore is the default RecordStore. Records do not survive a restart.
type InmemStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewInmemStore creates an empty in-memory record store.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		records: make(map[string]*Record),
	}
}

// GetRecord returns the record stored under key, or ErrKeyNotFound.
func (s *InmemStore) GetRecord(key []byte) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return rec, nil
}

// PutRecord stores rec, overwriting any previous record under the same key.
func (s *InmemStore) PutRecord(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[string(rec.Key)] = rec
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InmemStore) Close() error {
	return nil
}
