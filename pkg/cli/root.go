// Package cli implements the tenantsql command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tenantsql/internal/config"
	"tenantsql/internal/sqlrewrite"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if getOutputFormat(rootCmd) == "json" {
			_ = printJSON(os.Stdout, map[string]any{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app holds state resolved once per invocation by the root command.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func (a *app) rewriter() *sqlrewrite.Rewriter {
	return sqlrewrite.New(a.logger)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var output string

	rootCmd := &cobra.Command{
		Use:           "tenantsql",
		Short:         "Tenant isolation for SQL statements",
		Long:          "Rewrites SQL statements so that every table reference is filtered by tenant.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = a.logLevel
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $"+config.ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newRewriteCmd(a))
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newExecCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
