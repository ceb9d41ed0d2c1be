package postbox

import (
	"encoding/binary"
	"math"
)

// streamBuilder assembles synthetic Postbox streams for tests. The production
// code never encodes, so the writer half of the format lives here.
type streamBuilder struct {
	buf []byte
}

func (b *streamBuilder) bytes() []byte { return b.buf }

func (b *streamBuilder) raw(p []byte) *streamBuilder {
	b.buf = append(b.buf, p...)
	return b
}

func (b *streamBuilder) u8(v uint8) *streamBuilder {
	b.buf = append(b.buf, v)
	return b
}

func (b *streamBuilder) i32(v int32) *streamBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
	return b
}

func (b *streamBuilder) u32(v uint32) *streamBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

func (b *streamBuilder) i64(v int64) *streamBuilder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, uint64(v))
	return b
}

func (b *streamBuilder) f64(v float64) *streamBuilder {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, math.Float64bits(v))
	return b
}

func (b *streamBuilder) shortString(s string) *streamBuilder {
	b.u8(uint8(len(s)))
	return b.raw([]byte(s))
}

func (b *streamBuilder) lengthPrefixed(p []byte) *streamBuilder {
	b.i32(int32(len(p)))
	return b.raw(p)
}

func (b *streamBuilder) record(key string, vt ValueType) *streamBuilder {
	b.shortString(key)
	return b.u8(uint8(vt))
}

func (b *streamBuilder) addInt32(key string, v int32) *streamBuilder {
	return b.record(key, TypeInt32).i32(v)
}

func (b *streamBuilder) addInt64(key string, v int64) *streamBuilder {
	return b.record(key, TypeInt64).i64(v)
}

func (b *streamBuilder) addBool(key string, v bool) *streamBuilder {
	b.record(key, TypeBool)
	if v {
		return b.u8(1)
	}
	return b.u8(0)
}

func (b *streamBuilder) addDouble(key string, v float64) *streamBuilder {
	return b.record(key, TypeDouble).f64(v)
}

func (b *streamBuilder) addString(key string, s string) *streamBuilder {
	return b.record(key, TypeString).lengthPrefixed([]byte(s))
}

func (b *streamBuilder) addObject(key string, typeHash int32, payload []byte) *streamBuilder {
	return b.record(key, TypeObject).i32(typeHash).lengthPrefixed(payload)
}

func (b *streamBuilder) addInt32Array(key string, vs []int32) *streamBuilder {
	b.record(key, TypeInt32Array).i32(int32(len(vs)))
	for _, v := range vs {
		b.i32(v)
	}
	return b
}

func (b *streamBuilder) addInt64Array(key string, vs []int64) *streamBuilder {
	b.record(key, TypeInt64Array).i32(int32(len(vs)))
	for _, v := range vs {
		b.i64(v)
	}
	return b
}

func (b *streamBuilder) addObjectArray(key string, typeHash int32, payloads [][]byte) *streamBuilder {
	b.record(key, TypeObjectArray).i32(int32(len(payloads)))
	for _, p := range payloads {
		b.i32(typeHash).lengthPrefixed(p)
	}
	return b
}

func (b *streamBuilder) addObjectDictionary(key string, typeHash int32, pairs [][2][]byte) *streamBuilder {
	b.record(key, TypeObjectDictionary).i32(int32(len(pairs)))
	for _, kv := range pairs {
		b.i32(typeHash).lengthPrefixed(kv[0])
		b.i32(typeHash).lengthPrefixed(kv[1])
	}
	return b
}

func (b *streamBuilder) addBytes(key string, p []byte) *streamBuilder {
	return b.record(key, TypeBytes).lengthPrefixed(p)
}

func (b *streamBuilder) addNil(key string) *streamBuilder {
	return b.record(key, TypeNil)
}

func (b *streamBuilder) addStringArray(key string, vs []string) *streamBuilder {
	b.record(key, TypeStringArray).i32(int32(len(vs)))
	for _, v := range vs {
		b.lengthPrefixed([]byte(v))
	}
	return b
}

func (b *streamBuilder) addBytesArray(key string, vs [][]byte) *streamBuilder {
	b.record(key, TypeBytesArray).i32(int32(len(vs)))
	for _, v := range vs {
		b.lengthPrefixed(v)
	}
	return b
}
