package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReadCommand reads messages from one chat, identified by peer id, phone
// number or name.
func NewReadCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "read <chat>",
		Short: "Read messages from a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			peerID, err := store.ResolveIdentifier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			messages, err := store.ReadMessages(cmd.Context(), peerID, limit)
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Println("No messages found.")
				return nil
			}
			// messages arrive newest-first; print oldest-first for reading
			for i := len(messages) - 1; i >= 0; i-- {
				m := messages[i]
				fmt.Printf("%s | %s | %s\n", m.Timestamp.Format(timeFormat), m.Sender, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of messages to show")
	return cmd
}
