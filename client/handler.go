// Response frame handling
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
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go-ttt"
	"go-ttt/proto"
)

// The UI state the response reader drives.
type State int

const (
	WaitingForServer State = iota
	WaitingForSecondUser
	Playing
	Idle
)

// A Handler applies received frames to the UI state and renders them
// for the terminal.
type Handler struct {
	out io.Writer

	mu    sync.Mutex
	state State
}

func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out}
}

func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handler) setState(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

// Reset puts the handler back into the queueing state before a new
// start_game goes out.
func (h *Handler) Reset() { h.setState(WaitingForServer) }

// Run applies frames until the transport fails.
func (h *Handler) Run(ctx context.Context, t *proto.Transport) error {
	for {
		m, err := t.Receive(ctx)
		if err != nil {
			return err
		}
		h.Apply(m)
	}
}

// Apply dispatches one server frame.
func (h *Handler) Apply(m *proto.Message) {
	switch m.Type() {
	case "server_assigned":
		if m.Str("game_type") == "multi" {
			fmt.Fprintln(h.out, "Waiting for a second player...")
			h.setState(WaitingForSecondUser)
		} else {
			h.setState(Playing)
		}
	case "show_game_status":
		h.showStatus(m)
	case "server_crashed":
		fmt.Fprintln(h.out, "Server crashed. Press Enter to return to the main menu")
		h.setState(Idle)
	case "opponent_escaped":
		fmt.Fprintln(h.out, "Your opponent left the game. Press Enter to return to the main menu")
		h.setState(Idle)
	case "game_changed":
		h.setState(Idle)
	case "chat":
		fmt.Fprintf(h.out, "%s\n%s\n%s\n",
			center("Chat", 40, '#'), m.Str("text_message"), strings.Repeat("#", 40))
	default:
		ttt.Debug.Printf("Ignoring frame %q", m.Type())
	}
}

func (h *Handler) showStatus(m *proto.Message) {
	h.setState(Playing)
	fmt.Fprintln(h.out, renderBoard(m))

	your, _ := m.Int("your_mark")
	current, _ := m.Int("current_user")
	if m.Str("game_status") != "finished" {
		if your == current {
			fmt.Fprintln(h.out, "It is your turn")
		} else {
			fmt.Fprintln(h.out, "Waiting for your opponent")
		}
		return
	}

	winner, _ := m.Int("winner")
	switch winner {
	case 0:
		fmt.Fprintln(h.out, center("DRAW", 40, '*'))
	case your:
		fmt.Fprintln(h.out, center("YOU WIN", 40, '*'))
	default:
		fmt.Fprintln(h.out, center("YOU LOSE", 40, '*'))
	}
	h.setState(Idle)
}

// renderBoard draws the 3x3 grid of a status frame.
func renderBoard(m *proto.Message) string {
	glyphs := []string{".", "X", "O"}
	var sb strings.Builder

	rows, _ := m.Content["game_board"].([]interface{})
	for i, row := range rows {
		cells, _ := row.([]interface{})
		for j, c := range cells {
			v, _ := c.(float64)
			if int(v) < len(glyphs) {
				sb.WriteString(glyphs[int(v)])
			} else {
				sb.WriteByte('?')
			}
			if j != len(cells)-1 {
				sb.WriteByte(' ')
			}
		}
		if i != len(rows)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func center(s string, width int, pad byte) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(string(pad), left) + s + strings.Repeat(string(pad), right)
}
