package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/prettyprinter"
	"github.com/funvibe/nickel/internal/repl"
)

const (
	historyFile = ".nickel_history"
	promptMain  = "nickel> "
	promptCont  = "      | "
)

const replHelp = `Inputs are evaluated completely and printed.
  let x = e          define x for the following inputs
  :load <file>       define the fields of a record file
  :query <expr>      show the metadata of expr, e.g. :query config.port
  :env               list the definitions
  :help              show this message
  :quit              leave (or Ctrl-D)`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	session, err := repl.New(project, logger)
	if err != nil {
		return err
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	out := cmd.OutOrStdout()
	errOut := &diagnostics.Renderer{
		Out:   os.Stderr,
		Files: session.Cache(),
		Color: diagnostics.ColorEnabled(os.Stderr, project.Color),
	}
	fmt.Fprintln(out, "Type :help for help.")

	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(input, ":") {
			if quit := runCommand(session, input, out, errOut); quit {
				return nil
			}
			continue
		}
		res, err := session.Eval(input)
		if err != nil {
			errOut.Render(err)
			continue
		}
		if res.HasValue {
			fmt.Fprintln(out, printTerm(out, res.Value))
		}
	}
}

// readInput reads lines until they form a complete input. Ctrl-C drops
// the pending lines; ok is false at end of input.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !repl.Incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func runCommand(session *repl.REPL, input string, out io.Writer, errOut *diagnostics.Renderer) (quit bool) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return true
	case ":help", ":h":
		fmt.Fprintln(out, replHelp)
	case ":env":
		for _, id := range session.Defined() {
			fmt.Fprintln(out, id)
		}
	case ":load", ":l":
		if arg == "" {
			fmt.Fprintln(out, "usage: :load <file>")
			break
		}
		res, err := session.Load(arg)
		if err != nil {
			errOut.Render(err)
			break
		}
		names := make([]string, len(res.Defined))
		for i, id := range res.Defined {
			names[i] = prettyprinter.FieldName(id)
		}
		fmt.Fprintf(out, "loaded %s\n", strings.Join(names, ", "))
	case ":query":
		if arg == "" {
			fmt.Fprintln(out, "usage: :query <expr>")
			break
		}
		entries, err := session.Query(arg, "")
		if err != nil {
			errOut.Render(err)
			break
		}
		writeMetaTable(out, entries)
	default:
		fmt.Fprintf(out, "unknown command %s, type :help\n", name)
	}
	return false
}
