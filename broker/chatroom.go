// Chatroom binding
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
	"fmt"

	"go-ttt/proto"
)

// A Chatroom binds one player transport to a freshly opened transport
// toward the game server owning the session slot, for the life of one
// bridge.
type Chatroom struct {
	handle *Handle
}

// AddPlayer opens the game-server side, forwards the start frame so
// the game server learns the player's username and game type, and
// runs the bridge.  The server-side transport is closed on every exit
// path; the player transport stays with its owning handler.
func (c *Chatroom) AddPlayer(ctx context.Context, player *proto.Transport, start *proto.Message) error {
	server, err := proto.Connect(c.handle.Addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerGone, err)
	}
	defer server.Close()

	if err := server.Send(start); err != nil {
		return fmt.Errorf("%w: %v", ErrServerGone, err)
	}

	b := &bridge{server: server, player: player}
	return b.run(ctx)
}
