package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tenantsql/internal/sqlast"
	"tenantsql/internal/sqlrewrite"
	"tenantsql/internal/tenant"
	"tenantsql/internal/tenantdb"
)

func newExecCmd(a *app) *cobra.Command {
	var (
		tf      tenantFlags
		dbPath  string
		schemas []string
	)

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Run a statement against SQLite with tenant filtering",
		Long: `Run a single statement against a SQLite database after tenant filtering.

Schema files given with --schema are executed first without filtering.`,
		Example: `  tenantsql exec --db app.db --tenant T1 "SELECT * FROM orders"
  tenantsql exec --schema schema.sql --tenant T1 "INSERT INTO orders (id) VALUES (1)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readSQL(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("db") {
				dbPath = a.cfg.DBPath
			}

			db, err := tenantdb.Open("sqlite3", dbPath, a.rewriter(), tenantdb.Options{
				PassThrough: !a.cfg.Tenant.Mode,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			ctx := cmd.Context()
			if err := applySchemas(ctx, db, schemas); err != nil {
				return err
			}

			ctx = tf.apply(ctx, a.cfg.Tenant.Policy())
			return runStatement(ctx, cmd, db, query)
		},
	}
	tf.register(cmd.Flags())
	cmd.Flags().StringVar(&dbPath, "db", ":memory:", "SQLite database path (default from DB_PATH)")
	cmd.Flags().StringArrayVar(&schemas, "schema", nil, "SQL file executed before the statement, unfiltered (repeatable)")
	return cmd
}

func applySchemas(ctx context.Context, db *tenantdb.DB, files []string) error {
	ctx = tenant.WithIgnore(ctx)
	for _, f := range files {
		b, err := os.ReadFile(f) //nolint:gosec // path is caller-controlled
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply schema %s: %w", f, err)
		}
	}
	return nil
}

func runStatement(ctx context.Context, cmd *cobra.Command, db *tenantdb.DB, query string) error {
	typ, err := sqlrewrite.ClassifyStatement(query)
	if err == nil && typ == sqlast.StmtTypeSelect {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close() //nolint:errcheck
		return printRows(cmd, rows)
	}

	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]int64{"rows_affected": n})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", n)
	return err
}

func printRows(cmd *cobra.Command, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var records [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if getOutputFormat(cmd) == "json" {
		out := make([]map[string]any, 0, len(records))
		for _, rec := range records {
			m := make(map[string]any, len(cols))
			for i, c := range cols {
				m[c] = rec[i]
			}
			out = append(out, m)
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
	return writeTable(cmd.OutOrStdout(), cols, records)
}

func writeTable(w io.Writer, cols []string, records [][]any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, c)
	}
	_, _ = fmt.Fprintln(tw)
	for _, rec := range records {
		for i, v := range rec {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			if v == nil {
				v = "NULL"
			}
			_, _ = fmt.Fprint(tw, v)
		}
		_, _ = fmt.Fprintln(tw)
	}
	return tw.Flush()
}
