// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package repl is an interactive shell over a model.
package repl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/model"
	"github.com/cayleygraph/rdfobjects/query/compiler"
)

// DefaultLimit is the page size of list commands without arguments.
const DefaultLimit = 10

// errExit is returned by Exec for the exit command.
var errExit = errors.New("exit")

// Objects is the model used by a session. It is implemented by *model.Model.
type Objects interface {
	List(ctx context.Context, limit, offset int) ([]model.Object, error)
	Get(ctx context.Context, id string) (model.Object, error)
	GetMany(ctx context.Context, ids []string) ([]model.Object, error)
	Query(req compiler.Request) (*compiler.Query, error)
	Lookup(ids ...string) compiler.Request
}

// Session executes shell commands and keeps the paging state.
type Session struct {
	model Objects
	out   io.Writer

	limit, offset int
}

// NewSession creates a session writing to out.
func NewSession(m Objects, out io.Writer) *Session {
	return &Session{model: m, out: out, limit: DefaultLimit}
}

const help = `Commands:
	list [limit [offset]]  // list a page of objects
	next                   // list the next page
	get <id> [<id>...]     // get objects by identifier
	query [limit [offset]] // print the query for a page
	query <id> [<id>...]   // print the query for a lookup
	:debug [t|f]           // log compiled queries
	help                   // this help
	exit                   // exit
`

// Exec runs a single command line.
func (s *Session) Exec(ctx context.Context, line string) error {
	cmd, args := splitLine(line)
	fields := strings.Fields(args)
	switch cmd {
	case "":
		return nil
	case "help":
		fmt.Fprint(s.out, help)
		return nil
	case "exit", "quit":
		return errExit
	case ":debug":
		return s.debug(strings.TrimSpace(args))
	case "list":
		limit, offset, err := s.page(fields)
		if err != nil {
			return err
		}
		s.limit, s.offset = limit, offset
		return s.list(ctx)
	case "next":
		s.offset += s.limit
		return s.list(ctx)
	case "get":
		return s.get(ctx, fields)
	case "query":
		return s.query(fields)
	}
	return fmt.Errorf("unknown command: %q", cmd)
}

func (s *Session) debug(args string) error {
	var debug bool
	switch args {
	case "t", "":
		debug = true
	case "f":
		// Do nothing.
	default:
		var err error
		debug, err = strconv.ParseBool(args)
		if err != nil {
			return fmt.Errorf("cannot parse %q as a valid boolean - acceptable values: 't'|'true' or 'f'|'false'", args)
		}
	}
	if debug {
		clog.SetV(2)
	} else {
		clog.SetV(0)
	}
	fmt.Fprintf(s.out, "Debug set to %t\n", debug)
	return nil
}

func (s *Session) page(fields []string) (limit, offset int, err error) {
	limit = s.limit
	if len(fields) > 2 {
		return 0, 0, fmt.Errorf("expected at most limit and offset, got %d arguments", len(fields))
	}
	if len(fields) > 0 {
		if limit, err = strconv.Atoi(fields[0]); err != nil {
			return 0, 0, fmt.Errorf("invalid limit: %q", fields[0])
		}
	}
	if len(fields) > 1 {
		if offset, err = strconv.Atoi(fields[1]); err != nil {
			return 0, 0, fmt.Errorf("invalid offset: %q", fields[1])
		}
	}
	return limit, offset, nil
}

func (s *Session) list(ctx context.Context) error {
	start := time.Now()
	objs, err := s.model.List(ctx, s.limit, s.offset)
	if err != nil {
		return err
	}
	return s.print(objs, start)
}

func (s *Session) get(ctx context.Context, ids []string) error {
	start := time.Now()
	switch len(ids) {
	case 0:
		return errors.New("get requires an identifier")
	case 1:
		obj, err := s.model.Get(ctx, ids[0])
		if err != nil {
			return err
		}
		return s.print([]model.Object{obj}, start)
	}
	objs, err := s.model.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	return s.print(objs, start)
}

func (s *Session) query(fields []string) error {
	var req compiler.Request
	if _, err := strconv.Atoi(firstOr(fields, "0")); err == nil {
		limit, offset, err := s.page(fields)
		if err != nil {
			return err
		}
		req = compiler.Page(limit, offset)
	} else {
		req = s.model.Lookup(fields...)
	}
	q, err := s.model.Query(req)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, q.Text)
	return nil
}

func firstOr(fields []string, def string) string {
	if len(fields) == 0 {
		return def
	}
	return fields[0]
}

func (s *Session) print(objs []model.Object, start time.Time) error {
	for _, o := range objs {
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n", data)
	}
	results := "Result"
	if len(objs) != 1 {
		results += "s"
	}
	fmt.Fprintf(s.out, "-----------\n%d %s\n", len(objs), results)
	fmt.Fprintf(s.out, "Elapsed time: %g ms\n\n", float64(time.Since(start).Nanoseconds())/1e6)
	return nil
}

const (
	ps1 = "rdfobjects> "

	history = ".rdfobjects_history"
)

// Repl runs an interactive shell on the terminal until the input ends or
// ctx is canceled.
func Repl(ctx context.Context, m Objects, timeout time.Duration) error {
	term, err := terminal(history)
	if os.IsNotExist(err) {
		fmt.Printf("creating new history file: %q\n", history)
	}
	defer persist(term, history)

	ses := NewSession(m, os.Stdout)

	newCtx := func() (context.Context, func()) { return ctx, func() {} }
	if timeout > 0 {
		newCtx = func() (context.Context, func()) { return context.WithTimeout(ctx, timeout) }
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := term.Prompt(ps1)
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}

		term.AppendHistory(line)

		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		nctx, cancel := newCtx()
		err = ses.Exec(nctx, line)
		cancel()
		if err == errExit {
			return nil
		} else if err != nil {
			fmt.Println("Error: ", err)
		}
	}
}

// Splits a line into a command and its arguments
// e.g. "get ex:a ex:b" will be split into "get" and " ex:a ex:b"
func splitLine(line string) (string, string) {
	var command, arguments string

	line = strings.TrimSpace(line)

	// An empty line/a line consisting of whitespace contains neither command nor arguments
	if len(line) > 0 {
		command = strings.Fields(line)[0]

		// A line containing only a command has no arguments
		if len(line) > len(command) {
			arguments = line[len(command):]
		}
	}

	return command, arguments
}

func terminal(path string) (*liner.State, error) {
	term := liner.NewLiner()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, os.Kill)
		<-c

		err := persist(term, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to properly clean up terminal: %v\n", err)
			os.Exit(1)
		}

		os.Exit(0)
	}()

	f, err := os.Open(path)
	if err != nil {
		return term, err
	}
	defer f.Close()
	_, err = term.ReadHistory(f)
	return term, err
}

func persist(term *liner.State, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("could not open %q to append history: %v", path, err)
	}
	defer f.Close()
	_, err = term.WriteHistory(f)
	if err != nil {
		return fmt.Errorf("could not write history to %q: %v", path, err)
	}
	return term.Close()
}
