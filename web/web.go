// Web interface generator
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

package web

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"time"

	"go-ttt"
)

//go:embed *.tmpl
var html embed.FS

var (
	// Template manager
	tmpl *template.Template

	// Custom template functions
	funcs = template.FuncMap{
		"inc": func(i int) int {
			return i + 1
		},
		"dec": func(i int) int {
			return i - 1
		},
		"timefmt": func(t time.Time) string {
			s := time.Since(t).Round(time.Second)
			switch {
			case s < time.Second*5:
				return "now"
			case s < time.Minute:
				return fmt.Sprintf("%fs ago", s.Seconds())
			case s < 10*time.Minute:
				minutes := math.Floor(s.Minutes())
				return fmt.Sprintf("%.0fm%fs ago", minutes, s.Seconds())
			default:
				return t.Format(time.Stamp)
			}
		},
		"now": func() string {
			return time.Now().Format(time.RFC3339)
		},
		"outcome": func(r *ttt.Result) string {
			switch r.Winner {
			case ttt.None:
				return "Draw"
			case ttt.Cross:
				return r.User1 + " won"
			case ttt.Nought:
				return r.User2 + " won"
			default:
				panic("Unknown outcome")
			}
		},
	}
)
