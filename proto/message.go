// Framed message encoding
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
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
)

// ErrPeerClosed signals that the remote end closed the connection.
// It is the regular way sessions end, not a protocol failure.
var ErrPeerClosed = errors.New("peer closed connection")

// MaxContent caps the content length of a single frame.  The boards
// and chat lines of this protocol are tiny; a header declaring more
// than this is not a frame we are willing to allocate for.
const MaxContent = 1 << 20

// A ProtocolError is fatal for the connection that produced it.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// A Message is one frame on the wire: a JSON header carrying the
// content length, followed by a JSON content object.  The content
// always has a "type" entry.
type Message struct {
	Header  map[string]interface{}
	Content map[string]interface{}
}

func NewMessage(content map[string]interface{}) *Message {
	return &Message{Content: content}
}

// Type returns the frame type, or the empty string if absent.
func (m *Message) Type() string {
	t, _ := m.Content["type"].(string)
	return t
}

// Str returns the string stored under KEY, or the empty string.
func (m *Message) Str(key string) string {
	s, _ := m.Content[key].(string)
	return s
}

// Int returns the number stored under KEY.  JSON numbers arrive as
// float64, so a lossy cast is intentional here.
func (m *Message) Int(key string) (int, bool) {
	switch n := m.Content[key].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// encode serializes the frame: content first to learn its length,
// then the header, then the two-byte big-endian header length.
func (m *Message) encode() ([]byte, error) {
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	if len(content) > MaxContent {
		return nil, &ProtocolError{"content too large"}
	}

	header := make(map[string]interface{}, len(m.Header)+1)
	for k, v := range m.Header {
		header[k] = v
	}
	header["content-length"] = len(content)
	head, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	if len(head) > math.MaxUint16 {
		return nil, &ProtocolError{"header too large"}
	}

	buf := make([]byte, 2+len(head)+len(content))
	binary.BigEndian.PutUint16(buf, uint16(len(head)))
	copy(buf[2:], head)
	copy(buf[2+len(head):], content)
	return buf, nil
}
