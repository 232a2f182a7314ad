package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tenantsql/internal/sqlrewrite"
)

type rewriteOutput struct {
	SQL     string   `json:"sql"`
	Changed bool     `json:"changed"`
	Type    string   `json:"type,omitempty"`
	Tables  []string `json:"tables"`
}

func newRewriteCmd(a *app) *cobra.Command {
	var tf tenantFlags

	cmd := &cobra.Command{
		Use:   "rewrite [SQL]",
		Short: "Print a statement with tenant filtering applied",
		Long: `Rewrite a single SQL statement for a tenant and print the result.

The statement is read from the arguments, or from stdin when none (or "-") is given.`,
		Example: `  tenantsql rewrite --tenant T1 "SELECT * FROM orders"
  echo "DELETE FROM orders WHERE id = 1" | tenantsql rewrite --tenant T1
  tenantsql rewrite --admin "SELECT * FROM blade_top_menu"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			out := rewriteOutput{SQL: sql, Tables: []string{}}
			if a.cfg.Tenant.Mode {
				res, err := a.rewriter().RewriteSQL(sql, tf.context(a.cfg.Tenant.Policy()))
				if err != nil {
					return err
				}
				out = rewriteOutput{SQL: res.SQL, Changed: res.Changed, Type: res.Type.String(), Tables: res.Tables}
				if out.Tables == nil {
					out.Tables = []string{}
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), out)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out.SQL)
			return err
		},
	}
	tf.register(cmd.Flags())
	return cmd
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [SQL]",
		Short: "List the tables a statement references",
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			tables, err := sqlrewrite.ExtractTableNames(sql)
			if err != nil {
				return err
			}
			typ, err := sqlrewrite.ClassifyStatement(sql)
			if err != nil {
				return err
			}
			target, err := sqlrewrite.ExtractTargetTable(sql)
			if err != nil {
				return err
			}
			if tables == nil {
				tables = []string{}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"type":   typ.String(),
					"target": target,
					"tables": tables,
				})
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "type: %s\n", typ)
			if target != "" {
				_, _ = fmt.Fprintf(w, "target: %s\n", target)
			}
			for _, t := range tables {
				_, _ = fmt.Fprintln(w, t)
			}
			return nil
		},
	}
}
