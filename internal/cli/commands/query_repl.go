package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/spf13/cobra"
)

const (
	replPrompt         = "sqlchart> "
	replContinuePrompt = "     ...> "
	historyFileName    = ".sqlchart_history"
)

// repl is the state of an interactive query session.
type repl struct {
	cmdCtx *CommandContext
	out    io.Writer
	errOut io.Writer
	format string

	buf     strings.Builder
	lastSQL string
}

func newREPL(cmd *cobra.Command, cmdCtx *CommandContext, format string) *repl {
	return &repl{
		cmdCtx: cmdCtx,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		format: format,
	}
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, opts *QueryOptions) error {
	ctx := cmd.Context()
	r := newREPL(cmd, cmdCtx, opts.Format)

	historyFile := ""
	if root := cmdCtx.Cfg.ProjectRoot; root != "" {
		historyFile = filepath.Join(root, historyFileName)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    r.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(r.out, "sqlchart query REPL (%s: %s)\n", cmdCtx.Cfg.Database.Type, cmdCtx.Cfg.Database.Path)
	_, _ = fmt.Fprintln(r.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if r.handleLine(ctx, line) {
			return nil
		}
		if r.buf.Len() > 0 {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// handleLine processes one input line and reports whether the session ends.
// SQL accumulates across lines until a statement ends with a semicolon.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if r.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.dotCommand(ctx, line)
	}

	r.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		r.buf.WriteString(" ")
		return false
	}

	query := strings.TrimSpace(strings.TrimSuffix(r.buf.String(), ";"))
	r.buf.Reset()

	t, err := r.cmdCtx.Engine.Execute(ctx, query)
	if err != nil {
		r.printErr(err)
		return false
	}
	r.lastSQL = query
	if err := renderResults(r.out, t, r.format); err != nil {
		r.printErr(err)
	}
	_, _ = fmt.Fprintln(r.out)
	return false
}

func (r *repl) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".tables":
		names, err := r.cmdCtx.Engine.Tables(ctx)
		if err != nil {
			r.printErr(err)
			break
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(r.out, name)
		}

	case ".plot":
		if err := r.plot(ctx, parts[1:]); err != nil {
			r.printErr(err)
		}

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

// plot charts the last successful query: .plot <x> <y> <kind> [file].
func (r *repl) plot(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: .plot <x> <y> <kind> [file]")
	}
	if r.lastSQL == "" {
		return fmt.Errorf("no query to plot yet: run a query first")
	}

	kind, err := chart.ParseKind(args[2])
	if err != nil {
		return err
	}
	format, err := r.cmdCtx.Cfg.Format()
	if err != nil {
		return err
	}
	path := string(kind) + "." + string(format)
	if len(args) == 4 {
		path = args[3]
	}

	fig, err := r.cmdCtx.Engine.Run(ctx, engine.Request{SQL: r.lastSQL, X: args[0], Y: args[1], Kind: kind})
	if err != nil {
		return err
	}
	if err := saveFigure(fig, path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(r.out, "Wrote %s chart to %s\n", kind, path)
	return nil
}

func (r *repl) printErr(err error) {
	_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                         Show this help message
  .tables                       List all tables and views
  .plot <x> <y> <kind> [file]   Chart the last query result
  .quit / .exit                 Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer completes table names and dot commands.
func (r *repl) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Completion is best effort.
	if names, err := r.cmdCtx.Engine.Tables(ctx); err == nil {
		for _, name := range names {
			items = append(items, readline.PcItem(name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".plot"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
