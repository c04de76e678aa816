// Package session is the externally visible object that owns a
// storage engine, accepts SQL text, drives parsing, and returns a
// populated response. It is the callback target the grammar would
// invoke as semantic actions in the source design; here that's
// modeled as a type switch in executor.Execute over the parser's
// Statement values, so the parser owns no back-reference to the
// session's lifetime (§9 cyclic-ownership re-architecture).
package session

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/k0kubun/flyql/sql/apierr"
	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/executor"
	"github.com/k0kubun/flyql/sql/parser"
	"github.com/k0kubun/flyql/sql/response"
)

// Session owns exactly one engine; engine lifetime equals session
// lifetime.
type Session struct {
	engine   engine.Engine
	executor *executor.Executor
	last     *response.ParserResponse
}

func New(eng engine.Engine) *Session {
	return &Session{
		engine:   eng,
		executor: executor.New(eng),
		last:     response.New(),
	}
}

// Engine exposes the owned engine, mirroring get_engine(): the parser
// needs it only indirectly, through the statements the executor plans
// against it.
func (s *Session) Engine() engine.Engine {
	return s.engine
}

// SetDefaultIndexKind overrides the index kind CREATE INDEX falls back
// to when a statement names neither "btree" nor "hash". New sessions
// default to IndexBTree.
func (s *Session) SetDefaultIndexKind(kind engine.IndexKind) {
	s.executor.DefaultIndexKind = kind
}

// Clear wipes the response buffer between statements.
func (s *Session) Clear() {
	s.last.Clear()
}

// ParseFile opens path and parses it. On failure to open the file, the
// process terminates with a non-zero status, matching the source's
// behavior. Callers that want a recoverable error instead should read
// the file themselves and call Parse.
func (s *Session) ParseFile(path string) (*response.ParserResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open SQL file", "path", path, "error", err)
		os.Exit(1)
	}
	defer f.Close()
	return s.Parse(f)
}

// Parse binds a fresh scanner+parser to stream and runs every
// statement in it to completion, in source order, with statement N's
// side effects visible to statement N+1. If stream is already
// exhausted, the current (possibly empty) response is returned
// unchanged. A parse-level failure raises a structured ParseError and
// leaves prior statements' side effects in place: nothing is rolled
// back.
func (s *Session) Parse(stream io.Reader) (*response.ParserResponse, error) {
	sql, err := io.ReadAll(stream)
	if err != nil {
		return s.last, nil
	}
	if len(sql) == 0 {
		return s.last, nil
	}

	stmts, err := parser.Parse(string(sql))
	if err != nil {
		parseErr := &apierr.ParseError{Err: err}
		s.last.SetError(parseErr)
		return s.last, parseErr
	}

	var resp *response.ParserResponse
	for _, stmt := range stmts {
		resp, err = s.executor.Execute(stmt)
		if err != nil {
			s.last = resp
			return resp, err
		}
	}
	if resp == nil {
		resp = s.last
	}
	s.last = resp
	return resp, nil
}

// DisplayResponse is a human-readable diagnostic dump of table names
// and timing keys; it is not part of the functional contract.
func (s *Session) DisplayResponse(w io.Writer) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Fprintf(bw, "tables: %v\n", s.last.TableNames)
	keys := make([]string, 0, len(s.last.QueryTimes))
	for k := range s.last.QueryTimes {
		keys = append(keys, k)
	}
	fmt.Fprintf(bw, "timings: %v\n", keys)
	if s.last.Failed() {
		fmt.Fprintf(bw, "error (%d): %s\n", s.last.Code, s.last.Error)
	}
}
