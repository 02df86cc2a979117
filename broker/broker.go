// Broker process wiring
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

package broker

import (
	"net"
	"strconv"
	"sync/atomic"

	"go-ttt"
	"go-ttt/conf"
	"go-ttt/proto"
)

// A Broker accepts player connections on one port and game-server
// registrations on another, and matches the two sides through the
// repository.
type Broker struct {
	conf    *conf.Conf
	repo    *Repository
	players *proto.Listener
	servers *proto.Listener
	clients atomic.Int64
}

func New(config *conf.Conf) *Broker {
	return &Broker{
		conf: config,
		repo: NewRepository(config.PoolPoll),
	}
}

// Prepare builds the broker and registers it with the configuration.
func Prepare(config *conf.Conf) *Broker {
	b := New(config)
	config.Register(b)
	return b
}

func (b *Broker) String() string { return "Broker" }

// Repository exposes the pools for the monitor.
func (b *Broker) Repository() *Repository { return b.repo }

// Clients returns the number of currently connected players.
func (b *Broker) Clients() int64 { return b.clients.Load() }

func (b *Broker) Start() {
	var err error
	b.servers, err = proto.Listen("Game-server acceptor",
		b.conf.ServerPort, b.acceptServer)
	if err != nil {
		b.conf.Log.Fatal(err)
	}
	b.players, err = proto.Listen("Player acceptor",
		b.conf.PlayerPort, b.acceptPlayer)
	if err != nil {
		b.conf.Log.Fatal(err)
	}

	b.conf.Log.Printf("Accepting players on :%d, game servers on :%d",
		b.players.Port(), b.servers.Port())
	go b.servers.Start()
	b.players.Start()
}

func (b *Broker) Shutdown() {
	if b.players != nil {
		b.players.Shutdown()
	}
	if b.servers != nil {
		b.servers.Shutdown()
	}
}

// acceptPlayer hands the connection to a client handler for its
// whole lifetime.
func (b *Broker) acceptPlayer(t *proto.Transport) {
	b.clients.Add(1)
	defer b.clients.Add(-1)
	ttt.Debug.Printf("New player connection from %s", t.RemoteAddr())

	h := &clientHandler{conf: b.conf, repo: b.repo, player: t}
	h.run(b.conf.Ctx)
}

// acceptServer expects the registration handshake as the first frame
// on a fresh game-server connection, then keeps the channel as the
// session's control path.
func (b *Broker) acceptServer(t *proto.Transport) {
	m, err := t.Receive(b.conf.Ctx)
	if err != nil || m.Type() != "handshake" {
		b.conf.Log.Printf("Game server at %s failed to handshake", t.RemoteAddr())
		t.Close()
		return
	}
	port, ok := m.Int("port")
	if !ok {
		b.conf.Log.Printf("Handshake from %s lacks a port", t.RemoteAddr())
		t.Close()
		return
	}

	handle := newHandle(net.JoinHostPort(m.Str("host"), strconv.Itoa(port)))
	b.repo.Register(handle)
	b.conf.Log.Printf("Game server %s registered for %s", handle.Id, handle.Addr)

	h := &serverHandler{conf: b.conf, repo: b.repo, ctrl: t, handle: handle}
	h.run(b.conf.Ctx)
}
