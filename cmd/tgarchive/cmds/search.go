package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSearchCommand searches all chats for a text substring.
func NewSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message content across all chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			hits, err := store.SearchMessages(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Println("No messages found.")
				return nil
			}
			for _, h := range hits {
				fmt.Printf("%s | %s | %s | %s\n", h.Timestamp.Format(timeFormat), h.ChatName, h.Sender, h.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of results to show")
	return cmd
}
