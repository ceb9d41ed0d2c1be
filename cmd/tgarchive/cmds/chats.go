package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewChatsCommand lists and finds chats.
func NewChatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List and find chats",
	}
	cmd.AddCommand(newChatsRecentCommand(), newChatsFindCommand())
	return cmd
}

func newChatsRecentCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			chats, err := store.RecentChats(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(chats) == 0 {
				fmt.Println("No chats found.")
				return nil
			}
			for _, c := range chats {
				fmt.Printf("%d  %s  %s\n", c.PeerID, c.Name, c.LastMessage.Format(timeFormat))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of chats to show")
	return cmd
}

func newChatsFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <query>",
		Short: "Find chats by name, username or phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			defer func() { _ = store.Close() }()

			chats, err := store.FindChats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(chats) == 0 {
				fmt.Println("No chats found.")
				return nil
			}
			for _, c := range chats {
				line := fmt.Sprintf("%d  %s", c.PeerID, c.Name)
				if c.Username != "" {
					line += "  @" + c.Username
				}
				if c.Phone != "" {
					line += "  " + c.Phone
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
