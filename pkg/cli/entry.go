// Package cli implements the typeforge command line: infer, grammar,
// paths and fill subcommands over a yaml-described scope.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/typeforge/typeforge/internal/ast"
	"github.com/typeforge/typeforge/internal/config"
	"github.com/typeforge/typeforge/internal/grammar"
	"github.com/typeforge/typeforge/internal/holes"
	"github.com/typeforge/typeforge/internal/infer"
	"github.com/typeforge/typeforge/internal/inhabit"
	"github.com/typeforge/typeforge/internal/provider"
	"github.com/typeforge/typeforge/internal/store"
	"github.com/typeforge/typeforge/internal/typeparse"
	"github.com/typeforge/typeforge/internal/typesystem"
)

const usage = `Usage: typeforge <command> [options]

Commands:
  infer <expr>            infer the type of an expression (JSON or @file)
  grammar <annotation>    emit the GBNF-style grammar for a type annotation
  paths <from> <to>       list typed access paths between two annotations
  fill <file>             fill hole markers in a source file
  help                    show this message

Options:
  -scope <file>    yaml scope description (variables, functions, classes)
  -config <file>   typeforge.yaml (default: nearest one up the tree)
  -depth <n>       paths: override the search depth bound
  -base <name>     paths: base expression for rendered code (default "x")
`

// Run dispatches the command line and returns the process exit code.
func Run(args []string) int {
	if len(args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	cmd := args[1]
	rest := args[2:]

	switch cmd {
	case "help", "-help", "--help":
		fmt.Print(usage)
		return 0
	case "infer":
		return runInfer(rest)
	case "grammar":
		return runGrammar(rest)
	case "paths":
		return runPaths(rest)
	case "fill":
		return runFill(rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", cmd, usage)
		return 1
	}
}

// options are the flags shared by all subcommands, parsed by hand so
// positional arguments can appear before or after flags.
type options struct {
	scopePath  string
	configPath string
	depth      int
	base       string
	positional []string
}

func parseArgs(args []string) (*options, error) {
	opts := &options{base: "x"}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-scope", "--scope":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("%s needs a file argument", arg)
			}
			opts.scopePath = args[i]
		case "-config", "--config":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("%s needs a file argument", arg)
			}
			opts.configPath = args[i]
		case "-depth", "--depth":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("%s needs a number argument", arg)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid depth %q", args[i])
			}
			opts.depth = n
		case "-base", "--base":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("%s needs a name argument", arg)
			}
			opts.base = args[i]
		default:
			// Bare "-" means stdin and stays positional.
			if len(arg) > 1 && strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			opts.positional = append(opts.positional, arg)
		}
	}
	return opts, nil
}

// loadConfig resolves the effective configuration: an explicit -config
// path, else the nearest typeforge.yaml up the tree, else defaults.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadContext builds the typing context from -scope, or an empty one.
func loadContext(opts *options, cfg *config.Config) (*typesystem.TypeContext, error) {
	if opts.scopePath == "" {
		return typesystem.NewContext(cfg.Language), nil
	}
	return LoadScope(opts.scopePath, cfg.Language)
}

func runInfer(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return fail(err)
	}
	if len(opts.positional) != 1 {
		return fail(fmt.Errorf("infer needs exactly one expression argument"))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	tctx, err := loadContext(opts, cfg)
	if err != nil {
		return fail(err)
	}

	data, err := readArgument(opts.positional[0])
	if err != nil {
		return fail(err)
	}

	adapter := typeparse.NewTSAdapter(tctx)
	expr, err := ast.Decode(data, adapter.ParseType)
	if err != nil {
		return fail(err)
	}

	result := infer.NewEngine().InferExpression(expr, tctx)
	fmt.Printf("%s %s\n", colorize(result.Type.String(), colorCyan), dim(fmt.Sprintf("(confidence %.2f)", result.Confidence)))
	for _, c := range result.Constraints {
		fmt.Printf("  %s: %s ~ %s\n", c.Origin, c.Expected, c.Actual)
	}
	return 0
}

func runGrammar(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return fail(err)
	}
	if len(opts.positional) != 1 {
		return fail(fmt.Errorf("grammar needs exactly one type annotation"))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	tctx, err := loadContext(opts, cfg)
	if err != nil {
		return fail(err)
	}

	adapter := typeparse.NewTSAdapter(tctx)
	t, err := adapter.ParseType(opts.positional[0])
	if err != nil {
		return fail(err)
	}

	fmt.Print(grammar.NewConverter().Convert(t, tctx))
	return 0
}

func runPaths(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return fail(err)
	}
	if len(opts.positional) != 2 {
		return fail(fmt.Errorf("paths needs <from> and <to> annotations"))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	tctx, err := loadContext(opts, cfg)
	if err != nil {
		return fail(err)
	}

	adapter := typeparse.NewTSAdapter(tctx)
	from, err := adapter.ParseType(opts.positional[0])
	if err != nil {
		return fail(fmt.Errorf("from: %w", err))
	}
	to, err := adapter.ParseType(opts.positional[1])
	if err != nil {
		return fail(fmt.Errorf("to: %w", err))
	}

	solver := inhabit.NewSolver()
	solver.MaxDepth = cfg.Search.MaxDepth
	if opts.depth > 0 {
		solver.MaxDepth = opts.depth
	}

	paths := solver.FindPaths(from, to, tctx)
	if len(paths) == 0 {
		fmt.Println("no paths found")
		return 1
	}
	for _, p := range paths {
		fmt.Printf("%6.2f  %s\n", p.Cost(), colorize(p.Code(opts.base), colorCyan))
	}
	return 0
}

func runFill(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		return fail(err)
	}
	if len(opts.positional) != 1 {
		return fail(fmt.Errorf("fill needs exactly one source file"))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(err)
	}
	tctx, err := loadContext(opts, cfg)
	if err != nil {
		return fail(err)
	}

	source, err := os.ReadFile(opts.positional[0])
	if err != nil {
		return fail(err)
	}

	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filled, results := engine.FillAll(ctx, string(source), tctx)

	failures := 0
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(os.Stderr, "%s %s %s -> %s\n",
				colorize("ok", colorGreen), r.Hole.Name, dim(r.Hole.Position()), r.Code)
		} else {
			failures++
			fmt.Fprintf(os.Stderr, "%s %s %s: %s\n",
				colorize("fail", colorRed), r.Hole.Name, dim(r.Hole.Position()), r.Err)
		}
	}

	fmt.Print(filled)
	if failures > 0 {
		return 1
	}
	return 0
}

// buildEngine assembles the fill engine from configuration: provider,
// limits and the optional result store.
func buildEngine(cfg *config.Config) (*holes.Engine, func(), error) {
	cleanup := func() {}

	var p provider.Provider
	if cfg.Provider != nil {
		switch cfg.Provider.Kind {
		case config.ProviderHTTP:
			p = provider.NewHTTPProvider(cfg.Provider.Endpoint, provider.DefaultHTTPTimeout)
		case config.ProviderGRPC:
			gp, err := provider.NewGRPCProvider(cfg.Provider.Endpoint, cfg.Provider.Proto, cfg.Provider.Method)
			if err != nil {
				return nil, nil, err
			}
			p = gp
			cleanup = func() { gp.Close() }
		}
	}

	engine := holes.NewEngine(p)
	engine.MaxAttempts = cfg.Fill.MaxAttempts
	engine.MaxTokens = cfg.Fill.MaxTokens
	engine.Temperature = cfg.Fill.Temperature

	if cfg.Store != "" {
		st, err := store.Open(cfg.Store)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		engine.Recorder = st
		prev := cleanup
		cleanup = func() {
			st.Close()
			prev()
		}
	}

	return engine, cleanup, nil
}

// readArgument resolves an argument that is either inline JSON or an
// @file reference.
func readArgument(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "@") {
		return os.ReadFile(arg[1:])
	}
	if arg == "-" {
		return io.ReadAll(os.Stdin)
	}
	return []byte(arg), nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	return 1
}

// ANSI color handling follows the NO_COLOR convention and is disabled
// when stdout is not a terminal.
const (
	colorRed   = "31"
	colorGreen = "32"
	colorCyan  = "36"
)

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func colorize(s, code string) string {
	if !colorEnabled() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func dim(s string) string {
	if !colorEnabled() {
		return s
	}
	return "\x1b[2m" + s + "\x1b[0m"
}
