// Web interface manager
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
	"fmt"
	"html/template"
	"net/http"

	"go-ttt/broker"
	"go-ttt/conf"
)

type web struct {
	conf   *conf.Conf
	broker *broker.Broker
	mux    *http.ServeMux
}

func (s *web) Start() {
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/", s.index)
	s.mux.HandleFunc("/games", s.games)
	s.mux.HandleFunc("/socket", s.socket)
	s.mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /")
	})

	tmpl = template.Must(template.New("").Funcs(funcs).ParseFS(html, "*.tmpl"))

	addr := fmt.Sprintf(":%d", s.conf.WebPort)
	s.conf.Log.Printf("Listening via HTTP on %s", addr)
	err := http.ListenAndServe(addr, s.mux)
	if err != nil {
		s.conf.Log.Print(err)
	}
}

// The web server can shut down immediately
func (*web) Shutdown() {}

func (*web) String() string { return "Web Server" }

func Prepare(conf *conf.Conf, b *broker.Broker) {
	if !conf.WebInterface {
		return
	}

	conf.Register(&web{conf: conf, broker: b})
}
