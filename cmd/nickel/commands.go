package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/prettyprinter"
	"github.com/funvibe/nickel/internal/program"
	"github.com/funvibe/nickel/internal/serialize"
	"github.com/funvibe/nickel/internal/term"
)

var (
	evalWHNF bool
	evalDeep bool

	queryPlain bool

	exportFormat string
	exportOutput string

	pprintTransform bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Evaluate a program and print the result",
	Long: `Evaluates the file, or standard input when no file is given.

By default the result is evaluated completely, contracts included.
--whnf stops at the outermost constructor; --deep keeps the environments
of functions instead of substituting them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

var queryCmd = &cobra.Command{
	Use:   "query [file] [path]",
	Short: "Show the metadata of a field",
	Long: `Evaluates the program down to the field at path, a dot-separated list of
field names, and shows its documentation, type, contracts, priority and
value. Without path, the whole program is queried.

Example:
  nickel query server.ncl server.port`,
	Args: cobra.MaximumNArgs(2),
	RunE: runQuery,
}

var exportCmd = &cobra.Command{
	Use:   "export [file...]",
	Short: "Evaluate programs and serialize them",
	Long: `Evaluates each file completely and writes it in the chosen format:
json, yaml, toml or binpb (a protobuf google.protobuf.Value).

Several files are evaluated concurrently; their outputs are written in
the order of the arguments.`,
	RunE: runExport,
}

var pprintCmd = &cobra.Command{
	Use:   "pprint-ast [file]",
	Short: "Print the parsed program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrettyPrint,
}

func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&evalWHNF, "whnf", false, "Evaluate to weak head normal form only")
	cmd.Flags().BoolVar(&evalDeep, "deep", false, "Evaluate completely without substituting function bodies")
}

func init() {
	addEvalFlags(evalCmd)
	queryCmd.Flags().BoolVar(&queryPlain, "plain", false, "Print key: value lines instead of a table")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", config.FormatJSON, "Output format: json, yaml, toml or binpb")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of standard output")
	pprintCmd.Flags().BoolVar(&pprintTransform, "transform", false, "Show contracts applied")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openProgram reads path, or standard input when path is empty or "-".
func openProgram(ctx context.Context, path string) (*program.Program, error) {
	opts := program.Options{Project: project, Logger: logger, Context: ctx}
	if path == "" || path == "-" {
		return program.NewFromSource(os.Stdin, config.StdinName, opts)
	}
	return program.NewFromFile(path, opts)
}

func fileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalWHNF && evalDeep {
		return fmt.Errorf("--whnf and --deep are mutually exclusive")
	}
	ctx, cancel := signalContext()
	defer cancel()

	p, err := openProgram(ctx, fileArg(args))
	if err != nil {
		return err
	}
	var rt term.RichTerm
	switch {
	case evalWHNF:
		rt, err = p.Eval()
	case evalDeep:
		rt, err = p.EvalDeep()
	default:
		rt, err = p.EvalFull()
	}
	if err != nil {
		return &programError{prog: p, err: err}
	}
	out := cmd.OutOrStdout()
	_, err = fmt.Fprintln(out, printTerm(out, rt))
	return err
}

// printTerm prints rt to fit the terminal behind w, or 80 columns.
func printTerm(w io.Writer, rt term.RichTerm) string {
	width := 80
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		if cols := terminalWidth(f); cols > 0 {
			width = cols
		}
	}
	printer := prettyprinter.NewCodePrinterWithWidth(width)
	printer.Print(rt)
	return printer.String()
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	var path string
	if len(args) == 2 {
		path = args[1]
	}
	p, err := openProgram(ctx, fileArg(args))
	if err != nil {
		return err
	}
	rt, err := p.Query(path)
	if err != nil {
		return &programError{prog: p, err: err}
	}
	out := cmd.OutOrStdout()
	if queryPlain {
		for _, line := range program.FormatMeta(rt) {
			fmt.Fprintln(out, line)
		}
		return nil
	}
	writeMetaTable(out, program.Describe(rt))
	return nil
}

func writeMetaTable(w io.Writer, entries []program.MetaEntry) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator(" ")
	for _, e := range entries {
		table.Append([]string{e.Key, e.Value})
	}
	table.Render()
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := serialize.CheckFormat(exportFormat); err != nil {
		return err
	}
	if exportOutput != "" && len(args) > 1 {
		return fmt.Errorf("--output takes a single input file, got %d", len(args))
	}
	ctx, cancel := signalContext()
	defer cancel()

	files := args
	if len(files) == 0 {
		files = []string{""}
	}
	outputs, err := exportAll(ctx, files, exportFormat)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	for i, data := range outputs {
		if i > 0 && exportFormat == config.FormatYAML {
			if _, err := io.WriteString(out, "---\n"); err != nil {
				return err
			}
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// exportAll evaluates every file in its own program. The first failure
// cancels the others.
func exportAll(ctx context.Context, files []string, format string) ([][]byte, error) {
	outputs := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			p, err := openProgram(gctx, file)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := p.Export(&buf, format); err != nil {
				return &programError{prog: p, err: err}
			}
			logger.Debug("exported", zap.String("file", file), zap.Int("bytes", buf.Len()))
			outputs[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func runPrettyPrint(cmd *cobra.Command, args []string) error {
	p, err := openProgram(context.Background(), fileArg(args))
	if err != nil {
		return err
	}
	if err := p.PrettyPrint(cmd.OutOrStdout(), pprintTransform); err != nil {
		return &programError{prog: p, err: err}
	}
	return nil
}
