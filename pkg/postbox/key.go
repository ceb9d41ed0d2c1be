package postbox

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MessageKeySize is the width of a t7 message key.
const MessageKeySize = 20

// MessageKey identifies one message. The on-disk key is big-endian, so raw
// byte order sorts by (peer, namespace, timestamp, id): a peer-id prefix scan
// selects one chat and a descending key scan walks it newest-first.
type MessageKey struct {
	PeerID    int64
	Namespace int32
	Timestamp int32
	ID        int32
}

// ParseMessageKey decodes a 20-byte big-endian t7 key.
func ParseMessageKey(key []byte) (MessageKey, error) {
	if len(key) < MessageKeySize {
		return MessageKey{}, errors.Errorf("message key is %d bytes, want %d", len(key), MessageKeySize)
	}
	r := newBigEndianReader(key)
	k := MessageKey{}
	k.PeerID, _ = r.readInt64()
	k.Namespace, _ = r.readInt32()
	k.Timestamp, _ = r.readInt32()
	k.ID, _ = r.readInt32()
	return k, nil
}

// KeyPrefix returns the 8-byte big-endian peer-id prefix shared by every
// message key of one chat.
func KeyPrefix(peerID int64) []byte {
	prefix := make([]byte, 8)
	binary.BigEndian.PutUint64(prefix, uint64(peerID))
	return prefix
}
