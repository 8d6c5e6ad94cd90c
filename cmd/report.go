package cmd

import (
	"fmt"
	"os"

	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReportCmd(a *app) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "report DATASET",
		Short: "Render the validation report of a dataset",
		Long: `Groups the validation results of DATASET by focus node, counts them per
result path and renders the report as HTML, Markdown or JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			w := cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}

			if err := svc.RenderReport(cmd.Context(), args[0], f, w); err != nil {
				return err
			}
			if out != "" {
				a.logger.Info("report written", zap.String("path", out), zap.String("format", string(f)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "html", "html, markdown or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
