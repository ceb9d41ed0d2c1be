// Package cmds holds the tgarchive subcommands. Output is plain text on
// stdout; formatting and coloring are left to whatever consumes it.
package cmds

import (
	"github.com/spf13/viper"

	"github.com/go-go-golems/tgarchive/pkg/archive"
)

// timeFormat matches the timestamp rendering of the surrounding tooling.
const timeFormat = "2006-01-02 15:04:05"

// openStore builds a Store from the bound flags and environment. The store
// opens lazily; callers defer Close so the plaintext copy is removed even
// when a query fails.
func openStore() *archive.Store {
	var opts []archive.Option
	if root := viper.GetString("container"); root != "" {
		opts = append(opts, archive.WithContainerRoot(root))
	}
	if bin := viper.GetString("sqlcipher"); bin != "" {
		opts = append(opts, archive.WithSQLCipherBinary(bin))
	}
	return archive.NewStore(opts...)
}
