package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSQL returns the statement from args, or from in when no argument or
// "-" is given.
func readSQL(in io.Reader, args []string) (string, error) {
	var sql string
	if len(args) > 0 && args[0] != "-" {
		sql = strings.Join(args, " ")
	} else {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		sql = string(b)
	}
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return "", fmt.Errorf("no SQL given")
	}
	return sql, nil
}
