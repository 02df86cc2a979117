// Match archive
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

package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"path"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-ttt"
	"go-ttt/conf"
)

//go:embed *.sql
var sql_dir embed.FS

// The SQL statements are stored as embedded files.  Files with a
// "create-" prefix run once on startup; "select-" files become
// prepared queries on the read connection, everything else becomes a
// prepared command on the write connection.
type db struct {
	conf *conf.Conf

	read  *sql.DB
	write *sql.DB

	queries  map[string]*sql.Stmt
	commands map[string]*sql.Stmt
}

func (*db) String() string { return "Match archive" }

// SaveGame records one finished game.
func (db *db) SaveGame(ctx context.Context, res *ttt.Result) {
	r, err := db.commands["insert-game"].ExecContext(ctx,
		res.User1, res.User2, int(res.Winner), res.Board.Flat(),
		res.Start, res.End)
	if err != nil {
		db.conf.Log.Print(err)
		return
	}
	res.Id, err = r.LastInsertId()
	if err != nil {
		db.conf.Log.Print(err)
	}
	ttt.Debug.Printf("Archived game %d (%q vs %q)", res.Id, res.User1, res.User2)
}

// QueryGames streams the requested page of archived games into C,
// newest first, and closes it.
func (db *db) QueryGames(ctx context.Context, c chan<- *ttt.Result, page int) {
	defer close(c)

	rows, err := db.queries["select-games"].QueryContext(ctx, page)
	if err != nil {
		db.conf.Log.Print(err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res  ttt.Result
			won  int
			flat string
		)
		err = rows.Scan(&res.Id, &res.User1, &res.User2,
			&won, &flat, &res.Start, &res.End)
		if err != nil {
			db.conf.Log.Print(err)
			return
		}
		res.Winner = ttt.Mark(won)
		res.Board, err = ttt.ParseBoard(res.User1, res.User2, flat)
		if err != nil {
			db.conf.Log.Print(err)
			return
		}
		c <- &res
	}
	if err = rows.Err(); err != nil {
		db.conf.Log.Print(err)
	}
}

func (db *db) Start() {
	tick := time.NewTicker(24 * time.Hour)
	defer tick.Stop()
	for {
		select {
		case <-db.conf.Ctx.Done():
			return
		case <-tick.C:
			// https://www.sqlite.org/pragma.html#pragma_optimize
			if _, err := db.write.Exec("PRAGMA optimize;"); err != nil {
				db.conf.Log.Print(err)
			}
		}
	}
}

func (db *db) Shutdown() {
	// https://www.sqlite.org/pragma.html#pragma_optimize
	if _, err := db.write.Exec("PRAGMA optimize;"); err != nil {
		db.conf.Log.Print(err)
	}
	if err := db.write.Close(); err != nil {
		db.conf.Log.Print(err)
	}
	if err := db.read.Close(); err != nil {
		db.conf.Log.Print(err)
	}
}

// Register opens the archive file and installs the database manager.
func Register(config *conf.Conf) {
	read, err := sql.Open("sqlite3", config.Database)
	if err != nil {
		config.Log.Fatal(err, ": ", config.Database)
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	write, err := sql.Open("sqlite3", config.Database)
	if err != nil {
		config.Log.Fatal(err, ": ", config.Database)
	}
	write.SetConnMaxLifetime(0)
	write.SetMaxIdleConns(1)
	write.SetMaxOpenConns(1)

	db := &db{
		conf:     config,
		read:     read,
		write:    write,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
	}

	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = normal",
		// https://www.sqlite.org/pragma.html#pragma_temp_store
		"temp_store = memory",
	} {
		ttt.Debug.Printf("Run PRAGMA %v", pragma)
		if _, err = db.write.Exec("PRAGMA " + pragma + ";"); err != nil {
			config.Log.Fatal(err)
		}
	}

	entries, err := sql_dir.ReadDir(".")
	if err != nil {
		config.Log.Fatal(err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		base := path.Base(entry.Name())
		data, err := fs.ReadFile(sql_dir, entry.Name())
		if err != nil {
			config.Log.Fatal(err)
		}

		if strings.HasPrefix(base, "create-") {
			_, err = db.write.Exec(string(data))
			ttt.Debug.Printf("Executed query %v", base)
		} else {
			stmt := strings.TrimSuffix(base, ".sql")
			if strings.HasPrefix(stmt, "select-") {
				db.queries[stmt], err = db.read.Prepare(string(data))
				ttt.Debug.Printf("Registered query %v", stmt)
			} else {
				db.commands[stmt], err = db.write.Prepare(string(data))
				ttt.Debug.Printf("Registered command %v", stmt)
			}
		}
		if err != nil {
			config.Log.Fatal(entry.Name(), ": ", err)
		}
	}

	config.Register(conf.DatabaseManager(db))
}
