package cmd

import (
	"github.com/duynguyendang/shaclreport/pkg/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp DATASET",
		Short: "Serve one dataset to MCP clients over stdio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			// Fail before the handshake if the dataset is missing.
			if _, err := svc.Dataset(args[0]); err != nil {
				return err
			}
			return mcp.NewMCPServer(svc, args[0]).Run(cmd.Context())
		},
	}
}
