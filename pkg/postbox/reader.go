package postbox

import (
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// reader is a cursor over a byte slice. Postbox payloads are little-endian;
// message keys use a big-endian reader instead.
type reader struct {
	buf   []byte
	off   int
	order binary.ByteOrder
}

func newReader(data []byte) *reader {
	return &reader{buf: data, order: binary.LittleEndian}
}

func newBigEndianReader(data []byte) *reader {
	return &reader{buf: data, order: binary.BigEndian}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "need %d bytes at offset %d of %d", n, r.off, len(r.buf))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.take(n)
	return err
}

func (r *reader) readUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readInt8() (int8, error) {
	v, err := r.readUint8()
	return int8(v), err
}

func (r *reader) readUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(r.order.Uint64(b)), nil
}

func (r *reader) readFloat64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}

// readBytes reads an int32 length prefix followed by that many raw bytes.
func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readInt32()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

// readString reads a length-prefixed UTF-8 string. Invalid sequences are
// replaced rather than rejected; a malformed string never fails a parse.
func (r *reader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}

// readShortString reads a uint8 length prefix followed by UTF-8 bytes. Record
// keys use this form.
func (r *reader) readShortString() (string, error) {
	n, err := r.readUint8()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return lossyString(b), nil
}

func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
