// Session pools
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
	"sync"
	"time"

	"github.com/google/uuid"
)

// A Handle is the broker-side record of one registered game-server
// session slot.  Pool membership lives in the Repository; the handle
// itself only knows where players reach the session.
type Handle struct {
	Id   string
	Addr string // host:port the game server accepts players on
}

func newHandle(addr string) *Handle {
	return &Handle{Id: uuid.NewString(), Addr: addr}
}

// Counts is a snapshot of the pool sizes, for the monitor.
type Counts struct {
	All     int `json:"all"`
	Free    int `json:"free"`
	Multi   int `json:"multi"`
	Waiting int `json:"waiting"`
}

// A Repository partitions session handles into pools: free for any
// game, free for a multiplayer game waiting on its second player, and
// reserved for a named user's reconnect.  A handle is in at most one
// of the three; the all set is a separate view.
type Repository struct {
	poll time.Duration

	mu      sync.Mutex
	all     map[string]*Handle
	free    map[string]*Handle
	multi   map[string]*Handle
	waiting map[string]*Handle // keyed by username
}

func NewRepository(poll time.Duration) *Repository {
	if poll <= 0 {
		poll = time.Second
	}
	return &Repository{
		poll:    poll,
		all:     make(map[string]*Handle),
		free:    make(map[string]*Handle),
		multi:   make(map[string]*Handle),
		waiting: make(map[string]*Handle),
	}
}

// Register inserts a freshly handshaken handle into the free pool.
func (r *Repository) Register(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all[h.Id] = h
	r.free[h.Id] = h
}

// Unregister removes H from every pool.  Called when the game
// server's control channel closes.
func (r *Repository) Unregister(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.all, h.Id)
	r.evict(h)
}

// evict removes H from the three exclusive pools.  Caller holds the lock.
func (r *Repository) evict(h *Handle) {
	delete(r.free, h.Id)
	delete(r.multi, h.Id)
	for user, w := range r.waiting {
		if w.Id == h.Id {
			delete(r.waiting, user)
		}
	}
}

// ToFree moves H exclusively into the free pool.
func (r *Repository) ToFree(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.all[h.Id]; !ok {
		return
	}
	r.evict(h)
	r.free[h.Id] = h
}

// ToMulti moves H exclusively into the multiplayer-joinable pool.
func (r *Repository) ToMulti(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.all[h.Id]; !ok {
		return
	}
	r.evict(h)
	r.multi[h.Id] = h
}

// ToWaiting reserves H for USER's reconnect.  A handle already
// reserved for USER is displaced back into the free pool, so at most
// one reservation per user is in flight.
func (r *Repository) ToWaiting(user string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.all[h.Id]; !ok {
		return
	}
	if old, ok := r.waiting[user]; ok && old.Id != h.Id {
		r.free[old.Id] = old
	}
	r.evict(h)
	r.waiting[user] = h
}

// PopWaiting removes and returns the handle reserved for USER, if any.
func (r *Repository) PopWaiting(user string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.waiting[user]
	if !ok {
		return nil
	}
	delete(r.waiting, user)
	return h
}

// PopFree removes and returns a free handle, preferring the
// multiplayer-joinable pool unless SINGLE is set or that pool is
// empty.  It re-checks at the poll interval until a handle exists or
// CTX is cancelled.  No fairness between concurrent callers is
// guaranteed.
func (r *Repository) PopFree(ctx context.Context, single bool) (*Handle, error) {
	for {
		if h := r.tryPopFree(single); h != nil {
			return h, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.poll):
		}
	}
}

func (r *Repository) tryPopFree(single bool) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := r.multi
	if single || len(r.multi) == 0 {
		pool = r.free
	}
	for id, h := range pool {
		delete(pool, id)
		return h
	}
	return nil
}

// Snapshot returns the current pool sizes.
func (r *Repository) Snapshot() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Counts{
		All:     len(r.all),
		Free:    len(r.free),
		Multi:   len(r.multi),
		Waiting: len(r.waiting),
	}
}
