// Package cli implements the pine command-line interface: context
// management, schema analysis, and pine-to-SQL translation.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabianbadoi/pine/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// errReported marks errors that a command has already rendered itself;
// Execute only sets the exit code for them.
var errReported = errors.New("reported")

// Execute runs the CLI. Failures print to stderr as SQL line comments so
// shell pipelines that treat any output stream as SQL still parse.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprint(os.Stderr, commentError(err))
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var contextOverride string

	rootCmd := &cobra.Command{
		Use:           "pine",
		Short:         "Translate pine pipelines into SQL",
		Long:          "pine compiles a concise left-to-right pipeline language into SQL SELECT statements,\nresolving columns and joins against an analyzed database schema.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv(".env")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&contextOverride, "context", "c", "", "Context to use instead of current-context")

	rootCmd.AddCommand(newCreateContextCmd())
	rootCmd.AddCommand(newUseContextCmd())
	rootCmd.AddCommand(newContextsCmd())
	rootCmd.AddCommand(newAnalyzeCmd(&contextOverride))
	rootCmd.AddCommand(newTranslateCmd(&contextOverride))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newLogger builds the process logger from the environment config.
func newLogger(cfg *config.Config) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return logger
}

// activeContext resolves the context named by the override flag or the
// config file's current-context.
func activeContext(override string) (string, DBContext, error) {
	cfg, err := LoadUserConfig()
	if err != nil {
		return "", DBContext{}, fmt.Errorf("no contexts configured — run create-context first")
	}
	name, ctx, ok := cfg.ActiveContext(override)
	if !ok {
		if name == "" {
			return "", DBContext{}, fmt.Errorf("no current context — run use-context first")
		}
		return "", DBContext{}, fmt.Errorf("unknown context %q", name)
	}
	return name, ctx, nil
}
