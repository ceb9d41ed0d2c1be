package cmds

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewExportCommand dumps every message for downstream processing.
func NewExportCommand() *cobra.Command {
	var since int64
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all messages as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			messages, err := store.AllMessages(cmd.Context(), since)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(messages)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer func() { _ = enc.Close() }()
				return enc.Encode(messages)
			default:
				return errors.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}
	cmd.Flags().Int64Var(&since, "since", 0, "only messages with a unix timestamp at or after this")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json or yaml)")
	return cmd
}
