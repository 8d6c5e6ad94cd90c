package cmd

import (
	"github.com/duynguyendang/shaclreport/pkg/export"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "graph DATASET",
		Short: "Export the validation report as a D3 force-directed graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			graph, err := svc.Graph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out != "" {
				return export.SaveD3Graph(graph, out)
			}
			return export.WriteD3Graph(cmd.OutOrStdout(), graph)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
