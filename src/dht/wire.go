package dht

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// Message kinds exchanged over the UDP transport.
const (
	msgPing       = "PING"
	msgPong       = "PONG"
	msgFindNode   = "FIND_NODE"
	msgFindNodeOK = "FIND_NODE_OK"
	msgGetValue   = "GET_VALUE"
	msgGetValueOK = "GET_VALUE_OK"
	msgStore      = "STORE"
	msgStoreOK    = "STORE_OK"
)

// envelope is the single wire frame for all message kinds. Replies carry the
// MsgID of the request they answer.
type envelope struct {
	Kind     string
	MsgID    string
	From     Contact
	Target   []byte    // node ID or record key, depending on Kind
	Contacts []Contact // FIND_NODE_OK, GET_VALUE_OK miss path
	Record   *Record   // GET_VALUE_OK hit path, STORE
	Found    bool      // GET_VALUE_OK
}

func isReply(kind string) bool {
	switch kind {
	case msgPong, msgFindNodeOK, msgGetValueOK, msgStoreOK:
		return true
	default:
		return false
	}
}

// Marshal - canonical json encoding of envelope
func (e *envelope) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(e); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (e *envelope) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	if err := dec.Decode(e); err != nil {
		return err
	}

	return nil
}
