// Game server entry point
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
	"flag"
	"fmt"
	"log"
	"os"

	"go-ttt"
	"go-ttt/conf"
	"go-ttt/db"
	"go-ttt/gameserver"
)

// Default file name for the configuration file
const defconf = "gameserver.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		dumpConf = flag.Bool("dump-config", false, "Dump default configuration")
		games    = flag.Int("games", 0, "List a page of archived games and exit")
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
	config.Debug.Println("Debug logging has been enabled")

	// Dump the configuration onto the disk if requested
	if *dumpConf {
		err = config.Dump(os.Stdout)
		if err != nil {
			log.Fatalln("Failed to dump default configuration:", err)
		}
		os.Exit(0)
	}

	// Enable the match archive
	db.Register(config)

	// Print a page of the archive instead of serving
	if *games > 0 {
		c := make(chan *ttt.Result)
		go config.DB.QueryGames(config.Ctx, c, *games-1)
		for res := range c {
			fmt.Printf("#%d %s vs %s, winner %d, ended %s\n%s\n",
				res.Id, res.User1, res.User2, res.Winner,
				res.End.Format("2006-01-02 15:04"), res.Board)
		}
		config.DB.Shutdown()
		os.Exit(0)
	}

	// Host game sessions
	gameserver.Prepare(config)

	// Launch the game server
	config.Start()
}
