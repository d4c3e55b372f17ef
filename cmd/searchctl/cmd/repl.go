package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
)

const replHelp = `commands:
  add <text>       index a document and print its id
  del <id>         delete a document
  get <id>         print a document
  search <query>   run a boolean query
  stats            document and term counts
  index            dump the inverted index
  docs             dump the document store
  help             this text
  quit             leave`

func newReplCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell over an in-memory index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newSeededEngine(cmd.Context(), root.seed)
			if err != nil {
				return err
			}
			return runRepl(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runRepl(ctx context.Context, engine *indexer.Engine, in io.Reader, out io.Writer) error {
	r := &repl{engine: engine, out: out}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	fmt.Fprintln(out, "type 'help' for commands")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if !r.exec(ctx, scanner.Text()) {
			return nil
		}
	}
}

type repl struct {
	engine *indexer.Engine
	out    io.Writer
}

// exec runs one command line and reports whether the shell should continue.
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(r.out, replHelp)
	case "add":
		id := r.engine.AddDocument(arg)
		fmt.Fprintf(r.out, "added %d\n", id)
	case "del":
		id, ok := r.parseID(arg)
		if !ok {
			break
		}
		if err := r.engine.DeleteDocument(id); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "deleted %d\n", id)
	case "get":
		id, ok := r.parseID(arg)
		if !ok {
			break
		}
		doc, err := r.engine.GetDocument(id)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "[%d] %s\n", doc.ID, doc.Text)
	case "search":
		_ = printResult(r.out, r.engine, r.engine.Search(ctx, arg), "text")
	case "stats":
		s := r.engine.Stats()
		fmt.Fprintf(r.out, "documents=%d terms=%d next_id=%d generation=%d\n",
			s.Documents, s.Terms, s.NextID, s.Generation)
	case "index":
		for _, entry := range r.engine.Snapshot().Terms {
			fmt.Fprintf(r.out, "%s: %v\n", entry.Term, entry.DocIDs)
		}
	case "docs":
		for _, doc := range r.engine.Snapshot().Documents {
			fmt.Fprintf(r.out, "[%d] %s\n", doc.ID, doc.Text)
		}
	default:
		fmt.Fprintf(r.out, "unknown command %q, type 'help'\n", command)
	}
	return true
}

func (r *repl) parseID(arg string) (index.DocID, bool) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		fmt.Fprintf(r.out, "error: invalid id %q\n", arg)
		return 0, false
	}
	return index.DocID(id), true
}
