package dht

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestInmemStore(t *testing.T) {
	store := NewInmemStore()

	if _, err := store.GetRecord([]byte("missing")); err != ErrKeyNotFound {
		t.Fatalf("got %v, expected ErrKeyNotFound", err)
	}

	rec := &Record{Key: []byte("k"), Value: []byte("v"), Publisher: RandomNodeID()}
	if err := store.PutRecord(rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetRecord([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Value, rec.Value) {
		t.Fatalf("got %q, expected %q", got.Value, rec.Value)
	}

	// Overwrite under the same key.
	rec2 := &Record{Key: []byte("k"), Value: []byte("v2")}
	if err := store.PutRecord(rec2); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetRecord([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Value, rec2.Value) {
		t.Fatalf("got %q, expected %q", got.Value, rec2.Value)
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")

	store, err := NewBadgerStore(path)
	if err != nil {
		t.Fatal(err)
	}

	rec := &Record{Key: []byte("k"), Value: []byte("v"), Publisher: RandomNodeID()}
	if err := store.PutRecord(rec); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = NewBadgerStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	got, err := store.GetRecord([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Value, rec.Value) {
		t.Fatalf("got %q, expected %q", got.Value, rec.Value)
	}
	if !got.Publisher.Equals(rec.Publisher) {
		t.Fatal("publisher lost across reopen")
	}
}
