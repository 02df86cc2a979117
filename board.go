// Board engine
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

package ttt

import (
	"errors"
	"strings"
)

// ErrInvalidMove is returned by Place for any move the rules forbid.
// It never terminates a session; callers drop the move and carry on.
var ErrInvalidMove = errors.New("invalid move")

// Size of the (square) board
const Size = 3

// A Board holds the state of one game between two named users.  The
// first user always plays Cross and moves first.
type Board struct {
	user1, user2 string
	cells        [Size][Size]Mark
	current      Mark
	winner       Mark
}

func NewBoard(user1, user2 string) *Board {
	return &Board{
		user1:   user1,
		user2:   user2,
		current: Cross,
	}
}

// MarkOf returns the mark USER plays, or false if USER is not part of
// this game.
func (b *Board) MarkOf(user string) (Mark, bool) {
	switch user {
	case b.user1:
		return Cross, true
	case b.user2:
		return Nought, true
	default:
		return None, false
	}
}

func (b *Board) Users() (string, string) { return b.user1, b.user2 }
func (b *Board) Current() Mark           { return b.current }
func (b *Board) Winner() Mark            { return b.winner }

// Cell returns the mark at (ROW, COL), which must be in range.
func (b *Board) Cell(row, col int) Mark { return b.cells[row][col] }

// Grid returns the cells as nested integer slices, the shape the
// status frames carry on the wire.
func (b *Board) Grid() [][]int {
	grid := make([][]int, Size)
	for i := range grid {
		grid[i] = make([]int, Size)
		for j := range grid[i] {
			grid[i][j] = int(b.cells[i][j])
		}
	}
	return grid
}

// Finished reports whether the game is over, either because a player
// won or because the board is full (a draw, winner None).
func (b *Board) Finished() bool {
	if b.winner != None {
		return true
	}
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			if b.cells[i][j] == None {
				return false
			}
		}
	}
	return true
}

// Place writes USER's mark into (ROW, COL).
//
// The move is rejected with ErrInvalidMove when the game is already
// finished, USER is not part of the game or not on turn, the
// coordinate is out of range or the cell is taken.  On success the
// turn toggles and the affected lines are checked for a win.
func (b *Board) Place(user string, row, col int) error {
	mark, ok := b.MarkOf(user)
	if !ok {
		return ErrInvalidMove
	}
	if b.Finished() {
		return ErrInvalidMove
	}
	if mark != b.current {
		return ErrInvalidMove
	}
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return ErrInvalidMove
	}
	if b.cells[row][col] != None {
		return ErrInvalidMove
	}

	b.cells[row][col] = mark
	b.current = mark.Other()
	b.scan(mark, row, col)
	return nil
}

// scan checks the row, column and both diagonals through (ROW, COL)
// for three equal marks, recording MARK as the winner on a hit.
func (b *Board) scan(mark Mark, row, col int) {
	lines := [][Size][2]int{
		{{row, 0}, {row, 1}, {row, 2}},
		{{0, col}, {1, col}, {2, col}},
	}
	if row == col {
		lines = append(lines, [Size][2]int{{0, 0}, {1, 1}, {2, 2}})
	}
	if row+col == Size-1 {
		lines = append(lines, [Size][2]int{{0, 2}, {1, 1}, {2, 0}})
	}

	for _, line := range lines {
		hit := true
		for _, c := range line {
			if b.cells[c[0]][c[1]] != mark {
				hit = false
				break
			}
		}
		if hit {
			b.winner = mark
			return
		}
	}
}

// Flat encodes the cells as nine digits in row-major order, the form
// the archive stores.
func (b *Board) Flat() string {
	var sb strings.Builder
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			sb.WriteByte('0' + byte(b.cells[i][j]))
		}
	}
	return sb.String()
}

// ParseBoard rebuilds a board from its Flat encoding, recomputing the
// turn and the winner from the cells.
func ParseBoard(user1, user2, flat string) (*Board, error) {
	if len(flat) != Size*Size {
		return nil, errors.New("malformed board encoding")
	}

	b := NewBoard(user1, user2)
	var crosses, noughts int
	for i, c := range []byte(flat) {
		switch Mark(c - '0') {
		case None:
		case Cross:
			crosses++
		case Nought:
			noughts++
		default:
			return nil, errors.New("malformed board encoding")
		}
		b.cells[i/Size][i%Size] = Mark(c - '0')
	}
	if crosses == noughts {
		b.current = Cross
	} else {
		b.current = Nought
	}

	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			if m := b.cells[i][j]; m != None {
				b.scan(m, i, j)
			}
		}
	}
	return b, nil
}

// String renders the board for logs and the terminal client.
func (b *Board) String() string {
	var sb strings.Builder
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			if c := b.cells[i][j]; c == None {
				sb.WriteByte('.')
			} else {
				sb.WriteString(c.String())
			}
			if j != Size-1 {
				sb.WriteByte(' ')
			}
		}
		if i != Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
