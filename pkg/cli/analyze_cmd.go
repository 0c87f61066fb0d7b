package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fabianbadoi/pine/internal/config"
	"github.com/fabianbadoi/pine/internal/db"
	"github.com/fabianbadoi/pine/internal/db/repository"
	"github.com/fabianbadoi/pine/internal/introspect"
)

func newAnalyzeCmd(contextOverride *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Introspect the current context's database and refresh the schema cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadFromEnv()
			logger := newLogger(cfg)

			name, dbCtx, err := activeContext(*contextOverride)
			if err != nil {
				return err
			}

			conn, err := introspect.Open(cmd.Context(), introspect.Target{
				Host:     dbCtx.Host,
				Port:     dbCtx.Port,
				User:     dbCtx.User,
				Password: dbCtx.Password,
				Database: dbCtx.Database,
			})
			if err != nil {
				return err
			}
			defer conn.Close() //nolint:errcheck

			snap, err := introspect.Analyze(cmd.Context(), conn, dbCtx.Database, logger)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o700); err != nil {
				return fmt.Errorf("create cache dir: %w", err)
			}
			cache, err := db.OpenSQLite(cfg.CachePath, "write", 0)
			if err != nil {
				return err
			}
			defer cache.Close() //nolint:errcheck

			if err := db.RunMigrations(cache); err != nil {
				return err
			}
			repo := repository.NewSnapshotRepo(cache, logger)
			if err := repo.Save(cmd.Context(), name, snap); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Analyzed %s: %d tables cached\n",
				dbCtx.Database, len(snap.Tables()))
			return nil
		},
	}
}
