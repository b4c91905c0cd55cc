package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/program"
)

var (
	// Global flags
	verbose    bool
	configPath string
	colorMode  string

	logger  *zap.Logger
	project *config.Project
)

var rootCmd = &cobra.Command{
	Use:   "nickel [file]",
	Short: "Evaluate lazy, contract-checked configurations",
	Long: `nickel evaluates configuration programs: records merged with priorities,
checked by contracts and exported to JSON, YAML, TOML or protobuf.

Without a subcommand, the file (or standard input) is evaluated and printed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		project, err = loadProject()
		if err != nil {
			return err
		}
		if colorMode != "" {
			project.Color = colorMode
		}
		logger, err = newLogger(project)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Project file (default: nickel.yaml found from the working directory)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "Color diagnostics: auto, always or never")
	addEvalFlags(rootCmd)

	rootCmd.AddCommand(evalCmd, queryCmd, exportCmd, pprintCmd, replCmd)
}

func loadProject() (*config.Project, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, err = config.FindConfig(wd); err != nil {
			return nil, err
		}
	}
	if path == "" {
		return config.DefaultProject(), nil
	}
	return config.LoadProject(path)
}

// newLogger writes JSON logs to stderr. --verbose wins over the project log level.
func newLogger(p *config.Project) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	switch {
	case verbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case p.LogLevel != "":
		level, err := zap.ParseAtomicLevel(p.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		cfg.Level = level
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// programError ties an error to the program it came from, so that its
// diagnostics can show source excerpts.
type programError struct {
	prog *program.Program
	err  error
}

func (e *programError) Error() string { return e.err.Error() }
func (e *programError) Unwrap() error { return e.err }

func report(err error) {
	var pe *programError
	if errors.As(err, &pe) {
		pe.prog.Report(os.Stderr, pe.err)
		return
	}
	mode := config.ColorAuto
	if project != nil {
		mode = project.Color
	}
	r := &diagnostics.Renderer{Out: os.Stderr, Color: diagnostics.ColorEnabled(os.Stderr, mode)}
	r.Render(err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		report(err)
		os.Exit(1)
	}
}
