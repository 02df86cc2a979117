// Outgoing connections
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
	"net"
	"time"

	"go-ttt"
)

// Backoff schedule between connection attempts when the remote end is
// not up yet.
var retrySchedule = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	10 * time.Second,
}

// Connect makes a single connection attempt to ADDR.
func Connect(addr string) (*Transport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTransport(conn), nil
}

// Dial connects to ADDR, retrying along the backoff schedule before
// giving up with the last error.
func Dial(ctx context.Context, addr string) (*Transport, error) {
	t, err := Connect(addr)
	if err == nil {
		return t, nil
	}

	for _, wait := range retrySchedule {
		ttt.Debug.Printf("Cannot reach %s, retrying in %s", addr, wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		t, err = Connect(addr)
		if err == nil {
			return t, nil
		}
	}
	return nil, err
}
