// Command flyql is a REPL/batch front-end for the query executor: it
// reads SQL from a file, from stdin, or interactively, and prints the
// resulting records and timings.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/k0kubun/flyql/internal/config"
	"github.com/k0kubun/flyql/internal/logutil"
	"github.com/k0kubun/flyql/sql/engine"
	"github.com/k0kubun/flyql/sql/response"
	"github.com/k0kubun/flyql/sql/session"
	storageengine "github.com/k0kubun/flyql/storage/engine"
	"github.com/k0kubun/flyql/util"
)

var version = "dev"

type options struct {
	File     string `short:"f" long:"file" description:"Read SQL from the file, rather than stdin" value-name:"sql_file" default:"-"`
	Config   string `long:"config" description:"YAML file with storage engine defaults" value-name:"config_file"`
	Debug    bool   `long:"debug" description:"Pretty-print the full response after each statement"`
	Help     bool   `long:"help" description:"Show this help"`
	Version  bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (*options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] [sql_file]"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return &opts, rest
}

func main() {
	logutil.Init()
	opts, rest := parseOptions(os.Args[1:])
	if len(rest) > 0 {
		opts.File = rest[0]
	}
	cfg := config.Load(opts.Config)
	if cfg.LogLevel != "" {
		os.Setenv("LOG_LEVEL", cfg.LogLevel)
		logutil.Init()
	}

	eng := storageengine.New()
	sess := session.New(eng)
	if cfg.DefaultIndexKind == "hash" {
		sess.SetDefaultIndexKind(engine.IndexHash)
	}

	if opts.File != "-" {
		resp, err := sess.ParseFile(opts.File)
		if err != nil {
			slog.Error("parse failed", "error", err)
			os.Exit(1)
		}
		render(resp, opts.Debug)
		if resp.Failed() {
			os.Exit(1)
		}
		return
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		runREPL(sess, opts.Debug)
		return
	}

	resp, err := sess.Parse(os.Stdin)
	if err != nil {
		slog.Error("parse failed", "error", err)
		os.Exit(1)
	}
	render(resp, opts.Debug)
	if resp.Failed() {
		os.Exit(1)
	}
}

func runREPL(sess *session.Session, debug bool) {
	rl, err := readline.New("flyql> ")
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sess.Clear()
		resp, err := sess.Parse(strings.NewReader(line))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			continue
		}
		render(resp, debug)
	}
}

func render(resp *response.ParserResponse, debug bool) {
	if resp.Failed() {
		fmt.Fprintf(os.Stderr, "error (%d): %s\n", resp.Code, resp.Error)
		return
	}
	if debug {
		pp.Println(resp)
		return
	}
	if len(resp.ColumnNames) > 0 {
		fmt.Println(strings.Join(resp.ColumnNames, "\t"))
	}
	lines := util.TransformSlice(resp.Records, func(rec engine.Record) string {
		return strings.Join(rec.Values, "\t")
	})
	for _, line := range lines {
		fmt.Println(line)
	}
}
