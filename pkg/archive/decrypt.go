package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultSQLCipherBinary is the external tool that exports the encrypted
// store to plaintext.
const DefaultSQLCipherBinary = "sqlcipher"

// plaintextHeaderSize is the unencrypted prefix Telegram reserves at the
// start of the database file; the export must honor it on both sides.
const plaintextHeaderSize = 32

// exportPlaintext drives the sqlcipher CLI to write a full plaintext copy of
// the encrypted store to a process-unique temp path. The caller owns the
// returned file and must delete it when done. Failures, including a missing
// binary and an empty output file, surface as *DecryptionError.
func exportPlaintext(ctx context.Context, bin string, dbPath string, key KeyMaterial) (string, error) {
	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("tgarchive-%s.db", uuid.NewString()))

	script := fmt.Sprintf(`PRAGMA key="x'%s'";
PRAGMA cipher_plaintext_header_size=%d;
PRAGMA cipher_default_plaintext_header_size=%d;
ATTACH DATABASE '%s' AS plaintext KEY '';
SELECT sqlcipher_export('plaintext');
DETACH DATABASE plaintext;
`, key.Hex(), plaintextHeaderSize, plaintextHeaderSize, outPath)

	log.Debug().Str("binary", bin).Str("database", dbPath).Str("output", outPath).
		Msg("exporting plaintext copy of encrypted store")

	cmd := exec.CommandContext(ctx, bin, dbPath)
	cmd.Stdin = strings.NewReader(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath)
		return "", &DecryptionError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outPath)
		return "", &DecryptionError{Stderr: "export produced no output; decryption may have failed", Err: err}
	}

	return outPath, nil
}
