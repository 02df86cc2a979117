// Typed request frames
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

package client

import (
	"go-ttt/proto"
)

// A Stub turns the player's intents into request frames.  Every frame
// carries the username, which is the only identity the system knows.
type Stub struct {
	username string
	t        *proto.Transport
}

func NewStub(username string, t *proto.Transport) *Stub {
	return &Stub{username: username, t: t}
}

func (s *Stub) send(content map[string]interface{}) error {
	content["username"] = s.username
	return s.t.Send(proto.NewMessage(content))
}

// StartGame requests a session of KIND, "single" or "multi".
func (s *Stub) StartGame(kind string) error {
	return s.send(map[string]interface{}{
		"type":      "start_game",
		"game_type": kind,
	})
}

func (s *Stub) PlaceMark(row, col int) error {
	return s.send(map[string]interface{}{
		"type": "place_mark",
		"row":  row,
		"col":  col,
	})
}

func (s *Stub) Chat(text string) error {
	return s.send(map[string]interface{}{
		"type":         "chat",
		"text_message": text,
	})
}

// CancelGame asks the server to abort the running session.
func (s *Stub) CancelGame() error {
	return s.send(map[string]interface{}{
		"type": "cancel_game",
	})
}

// ChangeGame abandons the wait for a free or joinable session.
func (s *Stub) ChangeGame() error {
	return s.send(map[string]interface{}{
		"type": "change_game",
	})
}
