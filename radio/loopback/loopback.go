// Package loopback provides an in-memory radio.Link pair with the same
// semantics as the real modem: best effort, unacknowledged, at most one
// packet in flight per direction with newest-wins overwrite.
package loopback

import (
	"errors"
	"sync"
)

var errClosed = errors.New("loopback link is closed")

// Link is one end of an in-memory radio pair.
type Link struct {
	peer *Link

	mu      sync.Mutex
	pending []byte
	has     bool
	closed  bool
}

// Pair returns two connected ends: what one end sends, the other receives.
func Pair() (*Link, *Link) {
	a := &Link{}
	b := &Link{}
	a.peer = b
	b.peer = a
	return a, b
}

func (l *Link) TrySend(payload []byte) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return errClosed
	}
	l.peer.put(payload)
	return nil
}

func (l *Link) TryReceive() ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, false, errClosed
	}
	if !l.has {
		return nil, false, nil
	}
	p := l.pending
	l.pending = nil
	l.has = false
	return p, true, nil
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.pending = nil
	l.has = false
	return nil
}

// put stores the newest packet, replacing an unread one.
func (l *Link) put(payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.pending = make([]byte, len(payload))
	copy(l.pending, payload)
	l.has = true
}
