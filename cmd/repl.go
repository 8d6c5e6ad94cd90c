package cmd

import (
	"github.com/duynguyendang/shaclreport/pkg/repl"
	"github.com/spf13/cobra"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl DATASET",
		Short: "Query a dataset interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			return repl.New(svc, args[0], cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}
