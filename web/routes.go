// Web request handlers
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
	"context"
	"net/http"
	"strconv"
	"time"

	"go-ttt"
)

const DB_TIMEOUT = 20 * time.Second // arbitrary choice

// Generate the index page with the current pool state
func (s *web) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "text/html")
	err := tmpl.ExecuteTemplate(w, "index.tmpl", s.status())
	if err != nil {
		s.conf.Log.Print(err)
	}
}

// Generate a listing of archived games
func (s *web) games(w http.ResponseWriter, r *http.Request) {
	if s.conf.DB == nil {
		http.Error(w, "No archive available", http.StatusNotFound)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}

	bg := context.Background()
	ctx, cancel := context.WithTimeout(bg, DB_TIMEOUT)
	defer cancel()

	w.Header().Add("Content-Type", "text/html")
	c := make(chan *ttt.Result)
	go s.conf.DB.QueryGames(ctx, c, page-1)
	err = tmpl.ExecuteTemplate(w, "games.tmpl", struct {
		Games chan *ttt.Result
		Page  int
	}{c, page})
	if err != nil {
		s.conf.Log.Print(err)
	}
}
