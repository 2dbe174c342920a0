package dht

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRequestTimeout is returned when a peer does not answer a request within
// the transport timeout.
var ErrRequestTimeout = errors.New("request timed out")

// transport provides UDP-based request/response messaging. Responses are
// matched to requests by message ID.
type transport struct {
	conn   *net.UDPConn
	logger *logrus.Entry

	mu       sync.Mutex
	inflight map[string]chan envelope

	// handler processes inbound requests. It runs on the read loop, so it
	// must not block.
	handler func(env envelope, src *net.UDPAddr)

	readStopped chan struct{}
}

// newTransport binds bindAddr. A bind failure is fatal to startup.
func newTransport(bindAddr string, logger *logrus.Entry) (*transport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &transport{
		conn:        conn,
		logger:      logger,
		inflight:    make(map[string]chan envelope),
		readStopped: make(chan struct{}),
	}, nil
}

func (t *transport) localAddr() string {
	return t.conn.LocalAddr().String()
}

func (t *transport) close() error {
	if t.conn != nil {
		_ = t.conn.Close()
	}
	select {
	case <-t.readStopped:
	case <-time.After(200 * time.Millisecond):
	}
	return nil
}

func nextMsgID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func (t *transport) send(addr string, env envelope) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	b, err := env.Marshal()
	if err != nil {
		return err
	}
	_, err = t.conn.WriteToUDP(b, udpAddr)
	return err
}

// request sends env to addr and waits for the matching reply.
func (t *transport) request(addr string, env envelope, timeout time.Duration) (envelope, error) {
	if env.MsgID == "" {
		env.MsgID = nextMsgID()
	}

	ch := make(chan envelope, 1)
	t.mu.Lock()
	t.inflight[env.MsgID] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inflight, env.MsgID)
		t.mu.Unlock()
	}()

	if err := t.send(addr, env); err != nil {
		return envelope{}, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-time.After(timeout):
		return envelope{}, ErrRequestTimeout
	case <-t.readStopped:
		return envelope{}, errors.New("transport closed")
	}
}

// reply answers a request in-place, reusing its message ID.
func (t *transport) reply(src *net.UDPAddr, env envelope) {
	if err := t.send(src.String(), env); err != nil {
		t.logger.WithError(err).Debug("Failed to send reply")
	}
}

func (t *transport) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, src, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			close(t.readStopped)
			return
		}

		var env envelope
		if err := env.Unmarshal(buf[:n]); err != nil {
			t.logger.WithError(err).Debug("Dropping malformed datagram")
			continue
		}

		if isReply(env.Kind) {
			t.mu.Lock()
			ch := t.inflight[env.MsgID]
			t.mu.Unlock()
			if ch != nil {
				select {
				case ch <- env:
				default:
				}
			}
			continue
		}

		if t.handler != nil {
			t.handler(env, src)
		}
	}
}
