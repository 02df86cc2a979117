// Service management
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

package conf

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go-ttt"
)

type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

type DatabaseManager interface {
	Manager

	SaveGame(context.Context, *ttt.Result)
	QueryGames(context.Context, chan<- *ttt.Result, int)
}

func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("Late register: %#v", m))
	}

	if db, ok := m.(DatabaseManager); ok {
		c.DB = db
	}
	c.man = append(c.man, m)
}

// Start launches every registered manager and blocks until an
// interrupt or a Kill request, then shuts them down in reverse order.
func (c *Conf) Start() {
	for _, m := range c.man {
		c.Debug.Printf("Starting %s", m)
		go m.Start()
	}
	c.run = true

	// Catch an interrupt request...
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	select {
	case <-intr:
		c.Log.Println("Caught interrupt")
	case <-c.Ctx.Done():
		c.Log.Println("Requested shutdown")
	}
	c.Kill()

	// ...and request all managers to shut down.
	c.Debug.Println("Waiting for managers to shutdown...")
	for i := len(c.man) - 1; i >= 0; i-- {
		m := c.man[i]
		c.Debug.Printf("Shutting %s down", m)
		m.Shutdown()
	}
}
