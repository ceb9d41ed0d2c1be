package archive

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnavailable means the Telegram container, database or key file was not
// found on this machine. It is a capability miss, not a failure.
var ErrUnavailable = errors.New("telegram archive not found (is the App Store Telegram installed and logged in?)")

// ErrNotFound means an identifier resolved to no known peer.
var ErrNotFound = errors.New("no matching chat found")

// IntegrityError reports a key-hash mismatch after unwrapping the database
// key. The usual cause is a local passcode set in Telegram, which re-encrypts
// the key file with a scheme this reader does not support.
type IntegrityError struct {
	Stored   int32
	Computed int32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"key integrity check failed (hash mismatch: %d != %d); is a local passcode set on Telegram?",
		e.Stored, e.Computed)
}

// DecryptionError reports a failed plaintext export of the SQLCipher store.
type DecryptionError struct {
	Stderr string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("sqlcipher export failed: %s", e.Stderr)
	}
	return fmt.Sprintf("sqlcipher export failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }
