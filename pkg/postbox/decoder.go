// Package postbox decodes Telegram's Postbox binary serialization format as
// found in the macOS App Store client's database. The format is a flat stream
// of records, each a short-string key, a one-byte type tag and a tag-dependent
// payload. There is no schema, no version marker and no top-level length, so
// both full decoding and field lookup are linear scans over the blob.
package postbox

import "github.com/pkg/errors"

// ValueType is the one-byte tag that selects a record's payload layout.
type ValueType uint8

const (
	TypeInt32 ValueType = iota
	TypeInt64
	TypeBool
	TypeDouble
	TypeString
	TypeObject
	TypeInt32Array
	TypeInt64Array
	TypeObjectArray
	TypeObjectDictionary
	TypeBytes
	TypeNil
	TypeStringArray
	TypeBytesArray
)

// Value is a decoded record payload. V holds the Go representation per type:
// int32, int64, bool, float64, string, []byte (Object and Bytes), []int32,
// []int64, [][]byte (ObjectArray and BytesArray), []string, or nil. An Object
// payload is itself a complete nested stream; decode it with a fresh Decoder.
type Value struct {
	Type ValueType
	V    any
}

// Decoder reads Postbox records out of a single blob. Both access modes scan
// from the front; per-record blobs are small (one message, one peer) so the
// linear cost is fine.
type Decoder struct {
	data []byte
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// DecodeAll materializes every record into a key-to-value map. Decoding is
// lenient: on truncation or an unknown tag it stops and returns what it has.
// When a key repeats within one stream the last occurrence wins.
func (d *Decoder) DecodeAll() map[string]Value {
	r := newReader(d.data)
	fields := map[string]Value{}
	for r.remaining() > 0 {
		key, err := r.readShortString()
		if err != nil {
			break
		}
		v, err := readValue(r)
		if err != nil {
			break
		}
		fields[key] = v
	}
	return fields
}

// Seek scans for the first record matching both key and type, skipping every
// other record without materializing it. Returns ok=false when no record
// matches or the stream is malformed before a match is found.
func (d *Decoder) Seek(key string, want ValueType) (Value, bool) {
	r := newReader(d.data)
	for r.remaining() > 0 {
		k, err := r.readShortString()
		if err != nil {
			return Value{}, false
		}
		tag, err := r.readUint8()
		if err != nil {
			return Value{}, false
		}
		vt := ValueType(tag)
		if k == key && vt == want {
			v, err := readPayload(r, vt)
			if err != nil {
				return Value{}, false
			}
			return v, true
		}
		if err := skipPayload(r, vt); err != nil {
			return Value{}, false
		}
	}
	return Value{}, false
}

func readValue(r *reader) (Value, error) {
	tag, err := r.readUint8()
	if err != nil {
		return Value{}, err
	}
	return readPayload(r, ValueType(tag))
}

func readPayload(r *reader, vt ValueType) (Value, error) {
	switch vt {
	case TypeInt32:
		v, err := r.readInt32()
		return Value{Type: vt, V: v}, err
	case TypeInt64:
		v, err := r.readInt64()
		return Value{Type: vt, V: v}, err
	case TypeBool:
		b, err := r.readUint8()
		return Value{Type: vt, V: b != 0}, err
	case TypeDouble:
		v, err := r.readFloat64()
		return Value{Type: vt, V: v}, err
	case TypeString:
		v, err := r.readString()
		return Value{Type: vt, V: v}, err
	case TypeObject:
		// type hash is opaque to us
		if _, err := r.readInt32(); err != nil {
			return Value{}, err
		}
		b, err := r.readBytes()
		return Value{Type: vt, V: b}, err
	case TypeInt32Array:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		vs := make([]int32, 0, intCap(n))
		for i := int32(0); i < n; i++ {
			v, err := r.readInt32()
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, v)
		}
		return Value{Type: vt, V: vs}, nil
	case TypeInt64Array:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		vs := make([]int64, 0, intCap(n))
		for i := int32(0); i < n; i++ {
			v, err := r.readInt64()
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, v)
		}
		return Value{Type: vt, V: vs}, nil
	case TypeObjectArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		vs := make([][]byte, 0, intCap(n))
		for i := int32(0); i < n; i++ {
			if _, err := r.readInt32(); err != nil {
				return Value{}, err
			}
			b, err := r.readBytes()
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, b)
		}
		return Value{Type: vt, V: vs}, nil
	case TypeObjectDictionary:
		// Key and value objects are opaque; consume without materializing.
		if err := skipPayload(r, vt); err != nil {
			return Value{}, err
		}
		return Value{Type: vt, V: nil}, nil
	case TypeBytes:
		b, err := r.readBytes()
		return Value{Type: vt, V: b}, err
	case TypeNil:
		return Value{Type: vt, V: nil}, nil
	case TypeStringArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		vs := make([]string, 0, intCap(n))
		for i := int32(0); i < n; i++ {
			v, err := r.readString()
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, v)
		}
		return Value{Type: vt, V: vs}, nil
	case TypeBytesArray:
		n, err := readCount(r)
		if err != nil {
			return Value{}, err
		}
		vs := make([][]byte, 0, intCap(n))
		for i := int32(0); i < n; i++ {
			b, err := r.readBytes()
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, b)
		}
		return Value{Type: vt, V: vs}, nil
	default:
		return Value{}, errors.Errorf("unknown value type %d", vt)
	}
}

// skipPayload consumes a payload without decoding it. Its byte consumption
// must mirror readPayload exactly for every tag, otherwise a Seek past a
// skipped record lands mid-payload and everything after it decodes as garbage.
func skipPayload(r *reader, vt ValueType) error {
	switch vt {
	case TypeInt32:
		return r.skip(4)
	case TypeInt64, TypeDouble:
		return r.skip(8)
	case TypeBool:
		return r.skip(1)
	case TypeString, TypeBytes:
		return skipLengthPrefixed(r)
	case TypeObject:
		if err := r.skip(4); err != nil {
			return err
		}
		return skipLengthPrefixed(r)
	case TypeInt32Array:
		n, err := readCount(r)
		if err != nil {
			return err
		}
		return r.skip(int(n) * 4)
	case TypeInt64Array:
		n, err := readCount(r)
		if err != nil {
			return err
		}
		return r.skip(int(n) * 8)
	case TypeObjectArray:
		n, err := readCount(r)
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if err := r.skip(4); err != nil {
				return err
			}
			if err := skipLengthPrefixed(r); err != nil {
				return err
			}
		}
		return nil
	case TypeObjectDictionary:
		n, err := readCount(r)
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			for j := 0; j < 2; j++ {
				if err := r.skip(4); err != nil {
					return err
				}
				if err := skipLengthPrefixed(r); err != nil {
					return err
				}
			}
		}
		return nil
	case TypeNil:
		return nil
	case TypeStringArray, TypeBytesArray:
		n, err := readCount(r)
		if err != nil {
			return err
		}
		for i := int32(0); i < n; i++ {
			if err := skipLengthPrefixed(r); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unknown value type %d", vt)
	}
}

func skipLengthPrefixed(r *reader) error {
	n, err := r.readInt32()
	if err != nil {
		return err
	}
	return r.skip(int(n))
}

func readCount(r *reader) (int32, error) {
	n, err := r.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Errorf("negative element count %d", n)
	}
	return n, nil
}

// intCap bounds slice preallocation so a corrupt count cannot force a huge
// allocation before the element reads run out of buffer.
func intCap(n int32) int {
	if n < 0 {
		return 0
	}
	if n > 1024 {
		return 1024
	}
	return int(n)
}
