package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/tgarchive/cmd/tgarchive/cmds"
)

var rootCmd = &cobra.Command{
	Use:   "tgarchive",
	Short: "tgarchive reads the local Telegram macOS message archive",
	Long: `tgarchive decrypts the Telegram App Store client's local database and
answers chat listing, reading, search and export queries against it.
The archive is opened read-only; the plaintext copy lives in a temp file
that is deleted on exit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("container", "", "Telegram group container directory (default: standard macOS location)")
	rootCmd.PersistentFlags().String("sqlcipher", "", "sqlcipher binary used for the plaintext export")
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))

	viper.SetEnvPrefix("TGARCHIVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		cmds.NewChatsCommand(),
		cmds.NewReadCommand(),
		cmds.NewSearchCommand(),
		cmds.NewExportCommand(),
		cmds.NewStatsCommand(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
