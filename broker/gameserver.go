// Game-server control channel
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
	"context"

	"go-ttt/conf"
	"go-ttt/proto"
)

// A serverHandler owns the persistent control channel of one
// registered game server.  It is the only mutator of its handle's
// pool membership besides the client handler's add/remove of the
// transient reconnect reservation.
type serverHandler struct {
	conf   *conf.Conf
	repo   *Repository
	ctrl   *proto.Transport
	handle *Handle
}

// run applies pool-transition frames until the control channel
// closes, then retires the handle from every pool.
func (h *serverHandler) run(ctx context.Context) {
	defer h.ctrl.Close()
	defer h.repo.Unregister(h.handle)

	for {
		m, err := h.ctrl.Receive(ctx)
		if err != nil {
			h.conf.Log.Printf("Game server %s disconnected", h.handle.Id)
			return
		}

		switch m.Type() {
		case "put_to_free":
			h.repo.ToFree(h.handle)
		case "put_to_multi_free":
			h.repo.ToMulti(h.handle)
		case "put_to_waiting":
			h.repo.ToWaiting(m.Str("username"), h.handle)
		default:
			h.conf.Log.Printf("Unknown control frame %q from %s",
				m.Type(), h.handle.Id)
		}
	}
}
