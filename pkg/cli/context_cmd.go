package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCreateContextCmd() *cobra.Command {
	var ctx DBContext

	cmd := &cobra.Command{
		Use:   "create-context <name>",
		Short: "Create or update a named database context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = emptyUserConfig()
			}

			existing := cfg.Contexts[name]
			if cmd.Flags().Changed("host") {
				existing.Host = ctx.Host
			}
			if cmd.Flags().Changed("port") {
				existing.Port = ctx.Port
			}
			if cmd.Flags().Changed("user") {
				existing.User = ctx.User
			}
			if cmd.Flags().Changed("password") {
				existing.Password = ctx.Password
			}
			if cmd.Flags().Changed("database") {
				existing.Database = ctx.Database
			}
			if existing.Host == "" {
				existing.Host = "127.0.0.1"
			}
			if existing.Port == 0 {
				existing.Port = 3306
			}
			if existing.Database == "" {
				return fmt.Errorf("--database is required")
			}
			cfg.Contexts[name] = existing

			// The first context becomes current automatically.
			if cfg.CurrentContext == "" {
				cfg.CurrentContext = name
			}

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Context %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&ctx.Host, "host", "127.0.0.1", "Database host")
	cmd.Flags().IntVar(&ctx.Port, "port", 3306, "Database port")
	cmd.Flags().StringVar(&ctx.User, "user", "", "Database user")
	cmd.Flags().StringVar(&ctx.Password, "password", "", "Database password")
	cmd.Flags().StringVar(&ctx.Database, "database", "", "Database name (required)")

	return cmd
}

func newUseContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context <name>",
		Short: "Switch the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no contexts configured — run create-context first")
			}
			if _, ok := cfg.Contexts[name]; !ok {
				return fmt.Errorf("unknown context %q", name)
			}
			cfg.CurrentContext = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Switched to context %q\n", name)
			return nil
		},
	}
}

func newContextsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List configured contexts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no contexts configured — run create-context first")
			}
			fmt.Fprint(os.Stdout, formatContexts(cfg))
			return nil
		},
	}
}
