// Websocket status feed
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

package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"go-ttt"
	"go-ttt/broker"
)

// status is the JSON payload pushed to the live view.
type status struct {
	Pools   broker.Counts `json:"pools"`
	Clients int64         `json:"clients"`
}

func (s *web) status() status {
	return status{
		Pools:   s.broker.Repository().Snapshot(),
		Clients: s.broker.Clients(),
	}
}

// socket upgrades the connection and pushes a status snapshot every
// second until the viewer goes away.
func (s *web) socket(w http.ResponseWriter, r *http.Request) {
	conn, err := (&websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}).Upgrade(w, r, nil)
	if err != nil {
		ttt.Debug.Printf("Unable to upgrade connection: %s", err)
		w.WriteHeader(400)
		return
	}
	defer conn.Close()
	ttt.Debug.Printf("New viewer from %s", conn.RemoteAddr())

	// Discard whatever the viewer sends, noticing the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		if err := conn.WriteJSON(s.status()); err != nil {
			return
		}
		select {
		case <-gone:
			return
		case <-s.conf.Ctx.Done():
			return
		case <-tick.C:
		}
	}
}
