package dht

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// IDLength is the number of bytes in a NodeID.
const IDLength = 20

// NodeID is a 160-bit identifier in the XOR metric space. Node identifiers
// and record keys are both mapped into this space.
type NodeID [IDLength]byte

// NewNodeID builds a NodeID from raw bytes, truncating or zero-padding to
// IDLength.
func NewNodeID(buf []byte) NodeID {
	id := NodeID{}
	copy(id[:], buf)
	return id
}

// NodeIDFromPublicKey derives a NodeID from a public key by hashing it and
// keeping the first IDLength bytes.
func NodeIDFromPublicKey(pub []byte) NodeID {
	sum := sha256.Sum256(pub)
	return NewNodeID(sum[:])
}

// NodeIDFromKey maps a record key into the ID space. The mapping is
// deterministic so every retry of a lookup lands on the same coordinates.
func NodeIDFromKey(key []byte) NodeID {
	sum := sha256.Sum256(key)
	return NewNodeID(sum[:])
}

// RandomNodeID returns a cryptographically random NodeID.
func RandomNodeID() NodeID {
	id := NodeID{}
	rand.Read(id[:])
	return id
}

// Distance returns the XOR distance between two IDs.
func (id NodeID) Distance(other NodeID) NodeID {
	result := NodeID{}
	for i := 0; i < IDLength; i++ {
		result[i] = id[i] ^ other[i]
	}
	return result
}

// Less compares lexicographically; used for distance ordering.
func (id NodeID) Less(other NodeID) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// Equals checks equality.
func (id NodeID) Equals(other NodeID) bool {
	return id == other
}

// String hex-encodes the ID.
func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Pretty returns a compact base58 rendering of the ID, used when printing
// dialable node addresses.
func (id NodeID) Pretty() string {
	return base58.Encode(id[:])
}
