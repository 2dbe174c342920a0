package dht

import (
	"bytes"
	"time"

	"github.com/ugorji/go/codec"
)

// Record associates a key with a value in the DHT, attributed to the node
// that published it. A zero Expires means the record never expires.
type Record struct {
	Key       []byte
	Value     []byte
	Publisher NodeID
	Expires   time.Time
}

// Quorum is the number of independent peers that must acknowledge a stored
// record before it is considered durably published.
type Quorum int

const (
	// QuorumOne considers a record published as soon as a single peer has
	// acknowledged it.
	QuorumOne Quorum = 1
)

// Marshal - json encoding of Record
func (r *Record) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (r *Record) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(r); err != nil {
		return err
	}

	return nil
}
