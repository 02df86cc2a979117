// Session orchestration
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
	"net"
	"strconv"
	"sync"
	"time"

	"go-ttt"
	"go-ttt/conf"
	"go-ttt/proto"
)

// errQueueLeft reports that the first multiplayer peer stopped waiting
// for an opponent.
var errQueueLeft = errors.New("player left the queue")

// A Server hosts game sessions.  It registers with the broker over a
// persistent control channel and accepts player transports, which the
// broker opens on its announced address, on a dynamically bound port.
type Server struct {
	conf     *conf.Conf
	ctrl     *proto.Transport
	listener *proto.Listener

	mu        sync.Mutex
	multi     *session // multiplayer slot awaiting its second player
	reconnect map[string]chan *proto.Transport
}

func New(config *conf.Conf) *Server {
	return &Server{
		conf:      config,
		reconnect: make(map[string]chan *proto.Transport),
	}
}

// Prepare builds the server and registers it with the configuration.
func Prepare(config *conf.Conf) *Server {
	s := New(config)
	config.Register(s)
	return s
}

func (s *Server) String() string { return "Game server" }

func (s *Server) Start() {
	var err error
	s.listener, err = proto.Listen("Session acceptor", 0, s.handle)
	if err != nil {
		s.conf.Log.Fatal(err)
	}

	broker := net.JoinHostPort(s.conf.Host, strconv.Itoa(int(s.conf.ServerPort)))
	s.ctrl, err = proto.Dial(s.conf.Ctx, broker)
	if err != nil {
		s.conf.Log.Fatal(err)
	}
	err = s.ctrl.Send(proto.NewMessage(map[string]interface{}{
		"type": "handshake",
		"host": s.conf.Host,
		"port": int(s.listener.Port()),
	}))
	if err != nil {
		s.conf.Log.Fatal(err)
	}

	s.conf.Log.Printf("Registered with broker %s, hosting sessions on :%d",
		broker, s.listener.Port())
	s.listener.Start()
}

func (s *Server) Shutdown() {
	if s.listener != nil {
		s.listener.Shutdown()
	}
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

// control sends one pool-transition frame to the broker.
func (s *Server) control(content map[string]interface{}) {
	if err := s.ctrl.Send(proto.NewMessage(content)); err != nil {
		s.conf.Log.Printf("Control channel lost: %s", err)
	}
}

// handle serves one player transport from its start frame to the end
// of its session.
func (s *Server) handle(t *proto.Transport) {
	m, err := t.Receive(s.conf.Ctx)
	if err != nil {
		t.Close()
		return
	}
	if m.Type() != "start_game" {
		ttt.Debug.Printf("Expected start_game, got %q", m.Type())
		t.Close()
		return
	}
	user := m.Str("username")

	// A returning player takes over their interrupted session; the
	// waiting orchestrator picks the transport up.
	if s.deliver(user, t) {
		return
	}

	if m.Str("game_type") == "single" {
		s.singleplayer(user, t)
	} else {
		s.multiplayer(user, t)
	}
}

func (s *Server) singleplayer(user string, t *proto.Transport) {
	sess := newSingle(user, t)
	if err := s.assign(t, "single"); err != nil {
		s.finish(sess)
		return
	}

	sess.mu.Lock()
	sess.broadcast()
	sess.mu.Unlock()
	s.serve(sess, user, t)
}

func (s *Server) multiplayer(user string, t *proto.Transport) {
	s.mu.Lock()
	if sess := s.multi; sess != nil && sess.user2 == "" && sess.user1 != user {
		s.mu.Unlock()
		sess.join(user, t)
		s.serve(sess, user, t)
		return
	}
	sess := newMulti(user, t)
	s.multi = sess
	s.mu.Unlock()

	// Announce the open slot so the broker can route a second player
	// here, then wait for either the join or a change of heart.
	s.control(map[string]interface{}{"type": "put_to_multi_free"})
	if err := s.assign(t, "multi"); err != nil {
		s.release(sess)
		s.finish(sess)
		return
	}

	_, err := ttt.First(s.conf.Ctx,
		func(ctx context.Context) (struct{}, error) {
			select {
			case <-sess.joined:
				return struct{}{}, nil
			case <-ctx.Done():
				return struct{}{}, ctx.Err()
			}
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.awaitQueueLeave(ctx, t)
		})
	switch {
	case err == nil:
		s.serve(sess, user, t)
	case errors.Is(err, errQueueLeft):
		changed := proto.NewMessage(map[string]interface{}{
			"type":        "game_changed",
			"game_status": "finished",
		})
		if err := t.Send(changed); err != nil {
			ttt.Debug.Printf("Queue leave notice failed: %s", err)
		}
		s.release(sess)
		s.finish(sess)
	default:
		ttt.Debug.Printf("Player %q vanished while queueing: %s", user, err)
		s.release(sess)
		s.finish(sess)
	}
}

// assign confirms the slot to the player.
func (s *Server) assign(t *proto.Transport, kind string) error {
	return t.Send(proto.NewMessage(map[string]interface{}{
		"type":      "server_assigned",
		"game_type": kind,
	}))
}

// release gives up the pending multiplayer slot.
func (s *Server) release(sess *session) {
	s.mu.Lock()
	if s.multi == sess {
		s.multi = nil
	}
	s.mu.Unlock()
}

// awaitQueueLeave watches the first multiplayer peer while they wait
// for an opponent.
func (s *Server) awaitQueueLeave(ctx context.Context, t *proto.Transport) error {
	for {
		m, err := t.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if m.Type() == "change_game" {
			return errQueueLeft
		}
		ttt.Debug.Printf("Ignoring %q while awaiting an opponent", m.Type())
	}
}

// serve runs USER's side of the session, re-entering after each
// successful reconnect, until the session ends.
func (s *Server) serve(sess *session, user string, t *proto.Transport) {
	for {
		err := sess.pump(s.conf.Ctx, user, t)
		if err == nil {
			s.finish(sess)
			return
		}
		if s.conf.Ctx.Err() != nil {
			t.Close()
			return
		}

		ttt.Debug.Printf("Player %q dropped mid-game: %s", user, err)
		sess.drop(user)
		t.Close()

		nt, ok := s.awaitReturn(user)
		if !ok {
			sess.escape()
			s.finish(sess)
			return
		}
		t = nt
		sess.rebind(user, t)
	}
}

// deliver hands a fresh transport to the orchestrator waiting for
// USER's return.  It reports whether a window was open.  The buffered
// send happens under the mutex, so a window that was open when the
// entry was found is guaranteed to see the transport even if its
// timeout fires concurrently.
func (s *Server) deliver(user string, t *proto.Transport) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.reconnect[user]
	if !ok {
		return false
	}
	delete(s.reconnect, user)
	ch <- t
	return true
}

// awaitReturn reserves the session for USER at the broker and waits
// out the reconnect window.
func (s *Server) awaitReturn(user string) (*proto.Transport, bool) {
	ch := make(chan *proto.Transport, 1)
	s.mu.Lock()
	s.reconnect[user] = ch
	s.mu.Unlock()
	s.control(map[string]interface{}{
		"type":     "put_to_waiting",
		"username": user,
	})

	select {
	case t := <-ch:
		return t, true
	case <-time.After(s.conf.ReconnectWait):
	case <-s.conf.Ctx.Done():
	}
	s.mu.Lock()
	delete(s.reconnect, user)
	s.mu.Unlock()

	// The window may have been hit between the timeout and the
	// removal of the entry.
	select {
	case t := <-ch:
		return t, true
	default:
		return nil, false
	}
}

// finish tears the session down exactly once: archive the outcome,
// clear the multiplayer slot, return the handle to the free pool and
// release the remaining transports.
func (s *Server) finish(sess *session) {
	sess.done.Do(func() {
		if r := sess.result(); r != nil && s.conf.DB != nil {
			s.conf.DB.SaveGame(s.conf.Ctx, r)
		}
		s.release(sess)
		s.control(map[string]interface{}{"type": "put_to_free"})
		sess.closePeers()
	})
}
