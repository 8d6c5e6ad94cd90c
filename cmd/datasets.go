package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/spf13/cobra"
)

func newDatasetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the loaded datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			list, err := svc.Datasets()
			if err != nil {
				return err
			}

			t := render.Table{Columns: []string{"ID", "NAME", "FORMAT", "TRIPLES", "CREATED"}}
			for _, d := range list {
				t.Rows = append(t.Rows, []string{
					d.ID,
					d.Name,
					d.Format,
					strconv.Itoa(d.Triples),
					d.CreatedAt.Local().Format(time.DateTime),
				})
			}
			return render.Text(cmd.OutOrStdout(), t)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm DATASET...",
		Short: "Delete datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			for _, id := range args {
				if err := svc.Delete(id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export DATASET",
		Short: "Write the stored triples of a dataset as N-Triples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			return svc.ExportNTriples(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	})
	return cmd
}
