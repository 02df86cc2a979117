// Client entry point
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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go-ttt/client"
	"go-ttt/conf"
)

// Default file name for the configuration file
const defconf = "client.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		username = flag.String("name", "", "Username to play under")
	)

	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load the configuration from disk (if available)
	config, err := conf.Open(*confFile)
	if err != nil {
		if !os.IsNotExist(err) || *confFile != defconf {
			log.Fatal(err)
		}
		config = conf.Default()
	}

	name := strings.TrimSpace(*username)
	for name == "" {
		fmt.Println("Welcome!\nEnter your username:")
		in := bufio.NewScanner(os.Stdin)
		if !in.Scan() {
			os.Exit(1)
		}
		name = strings.TrimSpace(in.Text())
	}

	// Connect to the broker and run the terminal loop
	client.Prepare(config, name)
	config.Start()
}
