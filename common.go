// Common types and constants
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
	"fmt"
	"time"
)

// A Mark is a player identity on the board.  The zero value denotes an
// empty cell.
type Mark uint8

const (
	None Mark = iota
	Cross
	Nought
)

func (m Mark) String() string {
	switch m {
	case None:
		return "empty"
	case Cross:
		return "X"
	case Nought:
		return "O"
	default:
		panic(fmt.Sprintf("Illegal mark: %d", uint8(m)))
	}
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	switch m {
	case Cross:
		return Nought
	case Nought:
		return Cross
	default:
		panic("Empty cell has no opponent")
	}
}

// ComputerUser is the reserved username of the built-in opponent in
// single-player sessions.
const ComputerUser = "computer"

// A Result records one finished game for the archive.
type Result struct {
	Id     int64
	User1  string
	User2  string
	Winner Mark
	Board  *Board
	Start  time.Time
	End    time.Time
}
