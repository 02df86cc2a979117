// Full-duplex frame bridge
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
	"errors"
	"sync/atomic"

	"go-ttt"
	"go-ttt/proto"
)

var (
	// ErrServerGone attributes a broken bridge to the game-server side.
	ErrServerGone = errors.New("game server disconnected")
	// ErrPlayerGone attributes a broken bridge to the player side.
	ErrPlayerGone = errors.New("player disconnected")
)

// A bridge shuttles frames between the game-server transport and the
// player transport, one forwarder per direction.  Each direction
// preserves frame order; no ordering across directions exists.
type bridge struct {
	server *proto.Transport
	player *proto.Transport
	quit   atomic.Bool
}

// run returns nil once the end-of-game sentinel has been forwarded,
// or the first disconnect attributed to its side.  The surviving
// forwarder is cancelled before run returns.
func (b *bridge) run(ctx context.Context) error {
	_, err := ttt.First(ctx, b.serverToPlayer, b.playerToServer)
	return err
}

func (b *bridge) serverToPlayer(ctx context.Context) (struct{}, error) {
	var done struct{}
	for {
		if b.quit.Load() {
			return done, nil
		}

		m, err := b.server.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			return done, ErrServerGone
		}
		if err := b.player.Send(m); err != nil {
			return done, ErrPlayerGone
		}

		// The game server announces the end of a session in-band;
		// the sentinel frame itself still reaches the player.
		if m.Str("game_status") == "finished" {
			b.quit.Store(true)
			return done, nil
		}
	}
}

func (b *bridge) playerToServer(ctx context.Context) (struct{}, error) {
	var done struct{}
	for {
		if b.quit.Load() {
			return done, nil
		}

		m, err := b.player.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			return done, ErrPlayerGone
		}
		if err := b.server.Send(m); err != nil {
			return done, ErrServerGone
		}
	}
}
