// Game session state
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

package gameserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-ttt"
	"go-ttt/proto"
)

// A session holds one board and the transports of its connected
// players.  All mutation happens under the mutex; status broadcasts go
// out while it is held so that every peer observes board states in the
// same order.
type session struct {
	mu     sync.Mutex
	single bool
	user1  string
	user2  string // empty while a multiplayer game awaits its second player
	board  *ttt.Board
	peers  map[string]*proto.Transport
	abort  bool
	joined chan struct{} // closed once user2 is bound
	begin  time.Time
	done   sync.Once // guards the teardown
}

// newSingle starts a game against the built-in opponent.  The player
// holds the first mark, so the computer never opens.
func newSingle(user string, t *proto.Transport) *session {
	s := &session{
		single: true,
		user1:  user,
		user2:  ttt.ComputerUser,
		board:  ttt.NewBoard(user, ttt.ComputerUser),
		peers:  map[string]*proto.Transport{user: t},
		begin:  time.Now(),
	}
	return s
}

// newMulti starts a game slot with only its first player.  The board
// does not exist until the second player joins.
func newMulti(user string, t *proto.Transport) *session {
	return &session{
		user1:  user,
		peers:  map[string]*proto.Transport{user: t},
		joined: make(chan struct{}),
		begin:  time.Now(),
	}
}

// join binds the second player and brings the board into existence.
// Both peers receive the opening status frame.
func (s *session) join(user string, t *proto.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user2 = user
	s.board = ttt.NewBoard(s.user1, user)
	s.peers[user] = t
	close(s.joined)
	s.broadcast()
}

// rebind replaces USER's transport after a reconnect and resends the
// current state.
func (s *session) rebind(user string, t *proto.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[user] = t
	s.broadcast()
}

// drop removes USER's transport so broadcasts skip the dead socket.
func (s *session) drop(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, user)
}

// over reports whether the session has reached a terminal state.
func (s *session) over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overLocked()
}

func (s *session) overLocked() bool {
	return s.abort || (s.board != nil && s.board.Finished())
}

// result captures the finished game for the archive, or nil when there
// is nothing worth recording.
func (s *session) result() *ttt.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil || !s.board.Finished() {
		return nil
	}
	return &ttt.Result{
		User1:  s.user1,
		User2:  s.user2,
		Winner: s.board.Winner(),
		Board:  s.board,
		Start:  s.begin,
		End:    time.Now(),
	}
}

// pump dispatches frames from USER's transport until the session is
// over or the transport fails.  A nil return means the session ended
// in-band; any error is the transport's.
func (s *session) pump(ctx context.Context, user string, t *proto.Transport) error {
	for {
		if s.over() {
			return nil
		}
		m, err := t.Receive(ctx)
		if err != nil {
			if s.over() {
				return nil
			}
			return err
		}
		s.dispatch(user, m)
	}
}

// dispatch applies one request frame to the session.
func (s *session) dispatch(user string, m *proto.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Type() {
	case "place_mark":
		s.placeMark(user, m)
	case "chat":
		s.chat(user, m)
	case "cancel_game":
		s.abort = true
		s.broadcast()
	case "reconnect":
		// The peer asks for a fresh view of the board.
		s.broadcast()
	default:
		ttt.Debug.Printf("Ignoring %q from %q", m.Type(), user)
	}
}

// placeMark attempts USER's move.  Illegal moves do not end the
// session; the following broadcast just shows the unchanged board.
// Every change gets its own broadcast, so in a single-player round the
// peers see the player's mark before the computer answers.
func (s *session) placeMark(user string, m *proto.Message) {
	if s.board == nil {
		return
	}
	row, okr := m.Int("row")
	col, okc := m.Int("col")
	if !okr || !okc {
		ttt.Debug.Printf("Malformed place_mark from %q", user)
		s.broadcast()
		return
	}

	if err := s.board.Place(user, row, col); err != nil {
		if errors.Is(err, ttt.ErrInvalidMove) {
			ttt.Debug.Printf("Rejecting move (%d, %d) by %q: %s",
				row, col, user, err)
		}
		s.broadcast()
		return
	}
	s.broadcast()

	if s.single && !s.board.Finished() && s.placeComputer() {
		s.broadcast()
	}
}

// placeComputer puts the opponent's mark on the first empty cell in
// row-major order, if it is the computer's turn.  It reports whether a
// mark was placed.
func (s *session) placeComputer() bool {
	mark, _ := s.board.MarkOf(ttt.ComputerUser)
	if s.board.Current() != mark {
		return false
	}
	for row := 0; row < ttt.Size; row++ {
		for col := 0; col < ttt.Size; col++ {
			if s.board.Cell(row, col) == ttt.None {
				s.board.Place(ttt.ComputerUser, row, col)
				return true
			}
		}
	}
	return false
}

// chat echoes the message to every peer but the sender.
func (s *session) chat(user string, m *proto.Message) {
	echo := proto.NewMessage(map[string]interface{}{
		"type":         "chat",
		"username":     user,
		"text_message": m.Str("text_message"),
	})
	for peer, t := range s.peers {
		if peer == user {
			continue
		}
		if err := t.Send(echo); err != nil {
			ttt.Debug.Printf("Chat to %q failed: %s", peer, err)
		}
	}
}

// escape notifies every remaining peer that their opponent will not
// come back, and terminates the session.
func (s *session) escape() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abort = true
	gone := proto.NewMessage(map[string]interface{}{
		"type":        "opponent_escaped",
		"game_status": "finished",
	})
	for peer, t := range s.peers {
		if err := t.Send(gone); err != nil {
			ttt.Debug.Printf("Escape notice to %q failed: %s", peer, err)
		}
	}
}

// closePeers releases every remaining transport.
func (s *session) closePeers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.peers {
		t.Close()
	}
}

// broadcast sends each peer its view of the board.  Caller holds the
// lock.
func (s *session) broadcast() {
	if s.board == nil {
		return
	}
	for peer, t := range s.peers {
		if err := t.Send(s.statusFor(peer)); err != nil {
			ttt.Debug.Printf("Status to %q failed: %s", peer, err)
		}
	}
}

// statusFor renders the board state from PEER's perspective.  Caller
// holds the lock.
func (s *session) statusFor(peer string) *proto.Message {
	mark, _ := s.board.MarkOf(peer)
	content := map[string]interface{}{
		"type":          "show_game_status",
		"game_status":   "running",
		"game_board":    s.board.Grid(),
		"your_mark":     int(mark),
		"opponent_mark": int(mark.Other()),
		"current_user":  int(s.board.Current()),
	}
	if s.overLocked() {
		content["game_status"] = "finished"
		content["winner"] = int(s.board.Winner())
	}
	return proto.NewMessage(content)
}
