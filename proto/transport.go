// Framed message transport
//
// Copyright (c) 2025, 2026  The go-ttt Authors
//
// This file is part of go-ttt.
//
// go-ttt is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ttt is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ttt. If not, see
// <http://www.gnu.org/licenses/>

package proto

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// A Transport owns one stream connection and moves frames over it.
// Sends are serialized by a lock; receives are fed by a single reader
// goroutine through a channel, which keeps them in order and lets a
// caller abandon a pending Receive without losing a frame.
type Transport struct {
	conn  net.Conn
	wlock sync.Mutex
	in    chan *Message
	once  sync.Once
	rerr  error // set before in is closed
}

func NewTransport(conn net.Conn) *Transport {
	t := &Transport{
		conn: conn,
		in:   make(chan *Message, 16),
	}
	go t.pump()
	return t
}

// pump reads frames until the connection fails.  A protocol error
// tears the connection down; anything else is the peer going away.
func (t *Transport) pump() {
	for {
		m, err := readMessage(t.conn)
		if err != nil {
			t.rerr = err
			close(t.in)
			var perr *ProtocolError
			if errors.As(err, &perr) {
				t.Close()
			}
			return
		}
		t.in <- m
	}
}

// Receive returns the next frame.  It reports ErrPeerClosed or a
// ProtocolError once the connection is done, and the context error if
// CTX is cancelled first.  A cancelled Receive consumes nothing.
func (t *Transport) Receive(ctx context.Context) (*Message, error) {
	select {
	case m, ok := <-t.in:
		if !ok {
			return nil, t.rerr
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send writes one frame.  Concurrent senders are serialized; the
// three frame sections always reach the wire contiguously.  A failed
// write means the peer is gone.
func (t *Transport) Send(m *Message) error {
	buf, err := m.encode()
	if err != nil {
		return err
	}

	t.wlock.Lock()
	defer t.wlock.Unlock()
	if _, err := t.conn.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", ErrPeerClosed, err)
	}
	return nil
}

// Close releases the connection.  It is idempotent.
func (t *Transport) Close() {
	t.once.Do(func() {
		t.conn.Close()
	})
}

// RemoteAddr names the peer, for logging.
func (t *Transport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// readMessage reads one frame off R.  Short reads loop until the
// section is complete; EOF anywhere counts as the peer closing.
func readMessage(r io.Reader) (*Message, error) {
	var lenbuf [2]byte
	if _, err := io.ReadFull(r, lenbuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerClosed, err)
	}

	head := make([]byte, binary.BigEndian.Uint16(lenbuf[:]))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerClosed, err)
	}
	var header map[string]interface{}
	if err := json.Unmarshal(head, &header); err != nil {
		return nil, &ProtocolError{"malformed header"}
	}
	clen, ok := header["content-length"].(float64)
	if !ok || clen < 0 {
		return nil, &ProtocolError{`header lacks "content-length"`}
	}
	if clen > MaxContent {
		return nil, &ProtocolError{"content-length exceeds frame limit"}
	}

	body := make([]byte, int(clen))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerClosed, err)
	}
	var content map[string]interface{}
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, &ProtocolError{"malformed content"}
	}
	if _, ok := content["type"].(string); !ok {
		return nil, &ProtocolError{`content lacks "type"`}
	}

	return &Message{Header: header, Content: content}, nil
}
