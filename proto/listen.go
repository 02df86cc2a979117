// TCP acceptor
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
	"fmt"
	"net"
	"strconv"
	"strings"

	"go-ttt"
)

// A Listener accepts stream connections and hands each one, wrapped
// in a Transport, to its handler on a fresh goroutine.
type Listener struct {
	name    string
	conn    net.Listener
	port    uint16
	handler func(*Transport)
}

// Listen binds PORT immediately so that the bound port is known
// before Start is called.  Port 0 asks the operating system for a
// free port.
func Listen(name string, port uint16, handler func(*Transport)) (*Listener, error) {
	l := &Listener{name: name, port: port, handler: handler}

	var err error
	l.conn, err = net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	if l.port == 0 {
		// Extract the port number the operating system bound the
		// listener to, since port 0 is redirected to a "random"
		// open port
		addr := l.conn.Addr().String()
		i := strings.LastIndexByte(addr, ':')
		if i == -1 || i+1 == len(addr) {
			l.conn.Close()
			return nil, fmt.Errorf("invalid address %q", addr)
		}
		port, err := strconv.ParseUint(addr[i+1:], 10, 16)
		if err != nil {
			l.conn.Close()
			return nil, err
		}
		l.port = uint16(port)
	}

	return l, nil
}

func (l *Listener) String() string {
	return l.name
}

func (l *Listener) Port() uint16 {
	return l.port
}

// Start accepts connections until the listener is shut down.
func (l *Listener) Start() {
	ttt.Debug.Printf("%s accepting connections on :%d", l.name, l.port)
	for {
		conn, err := l.conn.Accept()
		if err != nil {
			return
		}
		go l.handler(NewTransport(conn))
	}
}

func (l *Listener) Shutdown() {
	l.conn.Close()
}
