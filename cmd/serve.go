package cmd

import (
	"fmt"

	"github.com/duynguyendang/shaclreport/pkg/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			srv := server.NewServer(svc, server.Options{
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes,
				Metrics:        a.metrics,
				Logger:         a.logger,
			})
			if err := srv.Run(cmd.Context(), a.cfg.Server.Addr()); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port (overrides config and PORT)")
	return cmd
}
