// Player connection handling
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

	"go-ttt"
	"go-ttt/conf"
	"go-ttt/proto"
)

// errGameChanged reports that the player abandoned the wait for a
// free session.
var errGameChanged = errors.New("player changed game")

// A clientHandler owns one player connection for its whole lifetime.
type clientHandler struct {
	conf   *conf.Conf
	repo   *Repository
	player *proto.Transport
}

// run serves start_game requests until the player disconnects.
func (h *clientHandler) run(ctx context.Context) {
	defer h.player.Close()

	for {
		m, err := h.player.Receive(ctx)
		if err != nil {
			ttt.Debug.Printf("Player %s gone: %v", h.player.RemoteAddr(), err)
			return
		}
		if m.Type() != "start_game" {
			ttt.Debug.Printf("Unexpected frame %q from idle player", m.Type())
			continue
		}

		if err := h.handleGame(ctx, m); err != nil {
			return
		}
	}
}

// handleGame matches the player to a session and runs the chatroom.
// A nil return means the handler may await the next start_game; an
// error means the player side is gone.
func (h *clientHandler) handleGame(ctx context.Context, start *proto.Message) error {
	var (
		username = start.Str("username")
		single   = start.Str("game_type") == "single"
	)

	// Fast path: a session reserved for this user's reconnect.
	handle := h.repo.PopWaiting(username)
	if handle == nil {
		var err error
		handle, err = h.claimFree(ctx, single)
		if errors.Is(err, errGameChanged) {
			return nil
		}
		if err != nil {
			return err
		}
	} else {
		ttt.Debug.Printf("Reconnect fast path for %q", username)
	}

	room := &Chatroom{handle: handle}
	err := room.AddPlayer(ctx, h.player, start)
	switch {
	case errors.Is(err, ErrServerGone):
		// The dead game server's control channel will retire the
		// handle; the player just learns their session is gone.
		crashed := proto.NewMessage(map[string]interface{}{
			"type": "server_crashed",
		})
		if err := h.player.Send(crashed); err != nil {
			return err
		}
		return nil
	case errors.Is(err, ErrPlayerGone):
		// Leave the slot reserved so the player can resume within
		// the game server's reconnect window.
		h.repo.ToWaiting(username, handle)
		return err
	default:
		// The session ended in-band.  The game server may still
		// override this placement with its own pool transition.
		h.repo.ToFree(handle)
		return nil
	}
}

// claimFree races the free-pool pop against the player's decision to
// stop waiting.  The pop may still succeed in the instant the race is
// lost; such a handle goes back to the free pool instead of being
// dropped.
func (h *clientHandler) claimFree(ctx context.Context, single bool) (*Handle, error) {
	var popped *Handle
	handle, err := ttt.First(ctx,
		func(ctx context.Context) (*Handle, error) {
			hd, err := h.repo.PopFree(ctx, single)
			if err == nil {
				popped = hd
			}
			return hd, err
		},
		h.awaitChangeGame)
	if err != nil && popped != nil {
		h.repo.ToFree(popped)
	}
	return handle, err
}

// awaitChangeGame watches the idle player while they queue for a free
// session.  It never yields a handle, only the decision to stop
// waiting (or the player's departure).
func (h *clientHandler) awaitChangeGame(ctx context.Context) (*Handle, error) {
	for {
		m, err := h.player.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrPlayerGone
		}
		if m.Type() == "change_game" {
			return nil, errGameChanged
		}
		ttt.Debug.Printf("Ignoring %q while queueing", m.Type())
	}
}
