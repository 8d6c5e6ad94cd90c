package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	var asTable bool

	cmd := &cobra.Command{
		Use:   "query DATASET QUERY",
		Short: "Run a SPARQL SELECT query against a dataset",
		Long: `Runs QUERY against DATASET and prints {variables, rows} as JSON.
QUERY may be "-" to read it from stdin or "@path" to read it from a file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readQuery(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			res, err := svc.Query(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asTable {
				return render.Text(out, render.TableFromRows(res.Variables, res.Rows, 0))
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().BoolVar(&asTable, "table", false, "print an aligned text table instead of JSON")
	return cmd
}

func readQuery(arg string, stdin io.Reader) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read query from stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(data), nil
	}
	return arg, nil
}
