package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fabianbadoi/pine/internal/compile"
	"github.com/fabianbadoi/pine/internal/config"
	"github.com/fabianbadoi/pine/internal/db"
	"github.com/fabianbadoi/pine/internal/db/repository"
	"github.com/fabianbadoi/pine/internal/schema"
)

func newTranslateCmd(contextOverride *string) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <pine>",
		Short: "Compile a pine into SQL",
		Long: "Compile a pine pipeline into a SQL SELECT statement.\n" +
			"The pine may be split across arguments: pine translate people \\| preferences",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")

			cfg := config.LoadFromEnv()
			logger := newLogger(cfg)

			snap, err := loadSnapshot(cmd, *contextOverride, cfg, logger)
			if err != nil {
				return err
			}
			if snap == nil {
				logger.Debug("no schema snapshot — translating in pass-through mode")
			}

			result, err := compile.TranslateString(input, snap)
			if err != nil {
				reportTranslateError(err)
				return errReported
			}

			fmt.Fprintln(os.Stdout, result.Text)
			return nil
		},
	}
}

// loadSnapshot loads the cached snapshot of the active context. A missing
// config, cache file, or snapshot yields (nil, nil): the compiler then
// runs in pass-through mode. An explicit --context that does not resolve
// is still an error.
func loadSnapshot(cmd *cobra.Command, contextOverride string, cfg *config.Config, logger *slog.Logger) (*schema.Snapshot, error) {
	name, dbCtx, err := activeContext(contextOverride)
	if err != nil {
		if contextOverride != "" {
			return nil, err
		}
		return nil, nil
	}
	if _, err := os.Stat(cfg.CachePath); err != nil {
		return nil, nil
	}

	cache, err := db.OpenSQLite(cfg.CachePath, "read", 0)
	if err != nil {
		return nil, err
	}
	defer cache.Close() //nolint:errcheck

	repo := repository.NewSnapshotRepo(cache, logger)
	return repo.Load(cmd.Context(), name, dbCtx.Database)
}

// reportTranslateError renders a parse or compile failure. Diagnostics
// always go to stderr; when stdout is piped they are repeated there, so
// pipelines that read stdout as SQL see well-formed comments instead of
// nothing.
func reportTranslateError(err error) {
	text := commentError(err)
	fmt.Fprint(os.Stderr, text)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(os.Stdout, text)
	}
}
