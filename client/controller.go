// Terminal input loop
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
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go-ttt/conf"
	"go-ttt/proto"
)

var movePattern = regexp.MustCompile(`^(\d+)\s+(\d+)$`)

// A Client drives one player connection from the terminal: a response
// reader applies server frames to the UI state while the input loop
// maps lines to stub calls.
type Client struct {
	conf     *conf.Conf
	username string
	in       io.Reader
	out      io.Writer

	t       *proto.Transport
	stub    *Stub
	handler *Handler
}

func New(config *conf.Conf, username string) *Client {
	return &Client{
		conf:     config,
		username: username,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// Prepare builds the client and registers it with the configuration.
func Prepare(config *conf.Conf, username string) *Client {
	c := New(config, username)
	config.Register(c)
	return c
}

func (c *Client) String() string { return "Client" }

func (c *Client) Start() {
	addr := net.JoinHostPort(c.conf.Host, strconv.Itoa(int(c.conf.PlayerPort)))
	var err error
	c.t, err = proto.Dial(c.conf.Ctx, addr)
	if err != nil {
		c.conf.Log.Fatalf("Broker is not available: %s", err)
	}

	c.stub = NewStub(c.username, c.t)
	c.handler = NewHandler(c.out)
	go func() {
		if err := c.handler.Run(c.conf.Ctx, c.t); err != nil {
			if c.conf.Ctx.Err() == nil {
				fmt.Fprintln(c.out, "Disconnected from broker")
			}
			c.conf.Kill()
		}
	}()

	c.menu(bufio.NewScanner(c.in))
	c.conf.Kill()
}

func (c *Client) Shutdown() {
	if c.t != nil {
		c.t.Close()
	}
}

// menu runs the main menu until the player exits or input ends.
func (c *Client) menu(in *bufio.Scanner) {
	for {
		fmt.Fprintln(c.out, "Main Menu\n1. Training\n2. Multiplayer\n3. Exit")
		if !in.Scan() {
			return
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "1", "train", "training":
			err = c.play(in, "single")
		case "2", "multi", "multiplayer":
			err = c.play(in, "multi")
		case "3", "exit", "/exit":
			return
		case "":
		default:
			fmt.Fprintln(c.out, "Unknown command")
		}
		if err != nil {
			fmt.Fprintln(c.out, "Disconnected from broker")
			return
		}
	}
}

// play requests a session of KIND and feeds the player's lines into it
// until the UI state returns to idle.
func (c *Client) play(in *bufio.Scanner, kind string) error {
	c.handler.Reset()
	fmt.Fprintln(c.out, "Waiting for a free server to start the game...")
	if err := c.stub.StartGame(kind); err != nil {
		return err
	}

	for c.handler.State() != Idle {
		if !in.Scan() {
			return nil
		}
		line := strings.TrimSpace(in.Text())

		var err error
		switch {
		case line == "":
		case movePattern.MatchString(line):
			m := movePattern.FindStringSubmatch(line)
			row, _ := strconv.Atoi(m[1])
			col, _ := strconv.Atoi(m[2])
			err = c.stub.PlaceMark(row, col)
		case line == "cancel":
			err = c.stub.CancelGame()
		case line == "change":
			// The queue answers with game_changed, which idles the UI.
			err = c.stub.ChangeGame()
		case strings.HasPrefix(line, "chat:"):
			err = c.stub.Chat(strings.TrimPrefix(line, "chat:"))
		default:
			fmt.Fprintf(c.out, "Not a valid command: %q\n", line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
