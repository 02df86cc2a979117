// Configuration specification
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
	"io"
	"log"
	"time"
)

// Internal representation
type conf struct {
	Debug  bool   `toml:"debug"`
	Host   string `toml:"host"`
	Broker struct {
		PlayerPort uint `toml:"player-port"`
		ServerPort uint `toml:"server-port"`
	} `toml:"broker"`
	Game struct {
		Reconnect uint `toml:"reconnect"` // milliseconds
		Poll      uint `toml:"poll"`      // milliseconds
	} `toml:"game"`
	Database struct {
		File string `toml:"file"`
	} `toml:"database"`
	Web struct {
		Enabled bool `toml:"enabled"`
		Port    uint `toml:"port"`
	} `toml:"web"`
}

// Public configuration
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger

	// Address configuration
	Host       string // Host the processes announce and dial
	PlayerPort uint16 // Broker port accepting player connections
	ServerPort uint16 // Broker port accepting game-server registrations

	// Session configuration
	ReconnectWait time.Duration // Window for a disconnected player to return
	PoolPoll      time.Duration // Re-check interval for cooperative waits

	// Database configuration
	Database string // File to store the match archive
	DB       DatabaseManager

	// Website configuration
	WebInterface bool
	WebPort      uint16

	// Internal state
	Ctx  context.Context
	Kill context.CancelFunc
	man  []Manager
	run  bool
}

// Configuration object used by default
var defaultConfig = Conf{
	Log:   log.Default(),
	Debug: log.New(io.Discard, "[debug] ", log.Ltime|log.Lmicroseconds),

	Host:       "127.0.0.1",
	PlayerPort: 8989,
	ServerPort: 9090,

	ReconnectWait: 10 * time.Second,
	PoolPoll:      time.Second,

	Database: "games.db",

	WebInterface: true,
	WebPort:      8080,
}
