package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCommand prints table counts for the archive.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("messages: %d\npeers: %d\n", stats.Messages, stats.Peers)
			return nil
		},
	}
}
