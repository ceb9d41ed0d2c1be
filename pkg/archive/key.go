package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
)

// DefaultPassphrase is the constant Telegram uses to wrap the database key
// when no local passcode is set.
const DefaultPassphrase = "no-matter-key"

// keyHashSeed is the murmur3 seed binding key and salt to the stored checksum.
var keyHashSeed int32 = -137723950

const (
	keyLen      = 32
	saltLen     = 16
	wrappedLen  = keyLen + saltLen + 4
	aesIVLen = 16
)

// KeyMaterial is the unwrapped SQLCipher key: a 32-byte cipher key and the
// 16-byte database salt.
type KeyMaterial struct {
	Key  [keyLen]byte
	Salt [saltLen]byte
}

// Hex renders key and salt as the hex string SQLCipher's raw-key PRAGMA takes.
func (m KeyMaterial) Hex() string {
	return hex.EncodeToString(m.Key[:]) + hex.EncodeToString(m.Salt[:])
}

// DeriveKey unwraps a .tempkeyEncrypted blob. SHA-512 of the passphrase
// supplies the AES-256 key (first 32 bytes) and CBC IV (last 16 bytes); the
// decrypted plaintext is key(32) then salt(16) then a little-endian int32
// murmur3 checksum over key and salt. A checksum mismatch is fatal and
// surfaces as *IntegrityError.
func DeriveKey(wrapped []byte, passphrase string) (KeyMaterial, error) {
	if len(wrapped) < wrappedLen {
		return KeyMaterial{}, errors.Errorf("wrapped key is %d bytes, want at least %d", len(wrapped), wrappedLen)
	}
	if len(wrapped)%aes.BlockSize != 0 {
		return KeyMaterial{}, errors.Errorf("wrapped key length %d is not a multiple of the AES block size", len(wrapped))
	}

	digest := sha512.Sum512([]byte(passphrase))
	block, err := aes.NewCipher(digest[:keyLen])
	if err != nil {
		return KeyMaterial{}, errors.Wrap(err, "init AES cipher")
	}
	iv := digest[len(digest)-aesIVLen:]

	plain := make([]byte, len(wrapped))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, wrapped)

	var m KeyMaterial
	copy(m.Key[:], plain[:keyLen])
	copy(m.Salt[:], plain[keyLen:keyLen+saltLen])
	stored := int32(binary.LittleEndian.Uint32(plain[keyLen+saltLen : wrappedLen]))

	computed := int32(murmur3.Sum32WithSeed(plain[:keyLen+saltLen], uint32(keyHashSeed)))
	if stored != computed {
		return KeyMaterial{}, &IntegrityError{Stored: stored, Computed: computed}
	}
	return m, nil
}
