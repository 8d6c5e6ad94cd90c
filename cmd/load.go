package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	var id, name, format string

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load a Turtle or N-Triples document into a new dataset",
		Long: `Parses FILE and stores its triples in a new dataset under the data directory.
The format is taken from --format or, failing that, from the file extension
(.ttl, .turtle, .nt). The dataset id defaults to a fresh UUID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := service.ResolveFormat(format, path)
			if err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer file.Close()

			svc, closeAll, err := a.openService()
			if err != nil {
				return err
			}
			defer closeAll()

			if name == "" {
				name = filepath.Base(path)
			}
			meta, err := svc.Load(cmd.Context(), service.LoadRequest{ID: id, Name: name, Format: f}, file)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "dataset id (default: random UUID)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: file name)")
	cmd.Flags().StringVar(&format, "format", "", "turtle or ntriples (default: from extension)")
	return cmd
}
