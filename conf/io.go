// Configuration loading and dumping
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
	"os"
	"time"

	"go-ttt"

	"github.com/BurntSushi/toml"
)

// Parse a configuration from R
func load(r io.Reader) (*Conf, error) {
	var data conf
	if _, err := toml.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}

	c := defaultConfig
	if data.Host != "" {
		c.Host = data.Host
	}
	if data.Broker.PlayerPort != 0 {
		c.PlayerPort = uint16(data.Broker.PlayerPort)
	}
	if data.Broker.ServerPort != 0 {
		c.ServerPort = uint16(data.Broker.ServerPort)
	}
	if data.Game.Reconnect != 0 {
		c.ReconnectWait = time.Duration(data.Game.Reconnect) * time.Millisecond
	}
	if data.Game.Poll != 0 {
		c.PoolPoll = time.Duration(data.Game.Poll) * time.Millisecond
	}
	if data.Database.File != "" {
		c.Database = data.Database.File
	}
	c.WebInterface = data.Web.Enabled
	if data.Web.Port != 0 {
		c.WebPort = uint16(data.Web.Port)
	}
	if data.Debug {
		c.Debug.SetOutput(os.Stderr)
		ttt.Debug.SetOutput(os.Stderr)
	}

	return &c, nil
}

// Open a configuration file and return it
func Open(name string) (*Conf, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c, err := load(file)
	if err != nil {
		return nil, err
	}
	c.Ctx, c.Kill = context.WithCancel(context.Background())
	return c, nil
}

// Return a reference to the default configuration
func Default() *Conf {
	c := defaultConfig
	c.Ctx, c.Kill = context.WithCancel(context.Background())
	return &c
}

// Serialise the configuration into a writer
func (c *Conf) Dump(wr io.Writer) error {
	var data conf

	data.Host = c.Host
	data.Broker.PlayerPort = uint(c.PlayerPort)
	data.Broker.ServerPort = uint(c.ServerPort)
	data.Game.Reconnect = uint(c.ReconnectWait / time.Millisecond)
	data.Game.Poll = uint(c.PoolPoll / time.Millisecond)
	data.Database.File = c.Database
	data.Web.Enabled = c.WebInterface
	data.Web.Port = uint(c.WebPort)

	return toml.NewEncoder(wr).Encode(data)
}
