package content

import (
	"fmt"
	"os"
	"path/filepath"

	cid "github.com/ipfs/go-cid"
)

// Key is the normalized lookup key derived from a content identifier. The key
// bytes are the CID's multihash, computed once at parse time; every DHT
// lookup, retry included, reuses the same value.
type Key struct {
	c     cid.Cid
	bytes []byte
}

// ParseKey validates a content-identifier string and derives the DHT lookup
// key from it. Malformed identifiers are rejected here, before any network
// activity starts.
func ParseKey(s string) (*Key, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid identifier %q: %v", s, err)
	}
	return &Key{
		c:     c,
		bytes: []byte(c.Hash()),
	}, nil
}

// Bytes returns the raw lookup key.
func (k *Key) Bytes() []byte {
	return k.bytes
}

// CID returns the parsed content identifier.
func (k *Key) CID() cid.Cid {
	return k.c
}

// String returns the canonical string form of the content identifier.
func (k *Key) String() string {
	return k.c.String()
}

// ResolveOutput returns the path where retrieved content is persisted. It is
// a pure function of its inputs:
//  1. an explicit output path is used verbatim;
//  2. otherwise the filename is "<identifier>.bin", placed in shareDir when
//     sharing is enabled, or in the working directory when it is not.
func ResolveOutput(explicit string, sharing bool, identifier string, shareDir string) string {
	if explicit != "" {
		return explicit
	}
	filename := identifier + ".bin"
	if sharing {
		return filepath.Join(shareDir, filename)
	}
	return filename
}

// Save creates the target file, overwriting it if present, and writes all
// bytes to it.
func Save(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// EnsureDir creates dir recursively if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
