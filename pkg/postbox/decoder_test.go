package postbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAll_RoundTripAllTypes(t *testing.T) {
	inner := (&streamBuilder{}).addString("fn", "Ada").bytes()

	b := &streamBuilder{}
	b.addInt32("i32", -42)
	b.addInt64("i64", 1<<40)
	b.addBool("yes", true)
	b.addBool("no", false)
	b.addDouble("pi", 3.14159)
	b.addString("s", "héllo")
	b.addObject("obj", 0x1234, inner)
	b.addInt32Array("ia", []int32{1, -2, 3})
	b.addInt64Array("la", []int64{4, 5})
	b.addObjectArray("oa", 7, [][]byte{{0xAA}, {0xBB, 0xCC}})
	b.addObjectDictionary("dict", 9, [][2][]byte{{{0x01}, {0x02}}})
	b.addBytes("raw", []byte{0xDE, 0xAD})
	b.addNil("nil")
	b.addStringArray("sa", []string{"a", "bc"})
	b.addBytesArray("ba", [][]byte{{0x01}, {}})

	fields := NewDecoder(b.bytes()).DecodeAll()
	require.Len(t, fields, 15)

	require.Equal(t, Value{Type: TypeInt32, V: int32(-42)}, fields["i32"])
	require.Equal(t, Value{Type: TypeInt64, V: int64(1 << 40)}, fields["i64"])
	require.Equal(t, Value{Type: TypeBool, V: true}, fields["yes"])
	require.Equal(t, Value{Type: TypeBool, V: false}, fields["no"])
	require.Equal(t, Value{Type: TypeDouble, V: 3.14159}, fields["pi"])
	require.Equal(t, Value{Type: TypeString, V: "héllo"}, fields["s"])
	require.Equal(t, Value{Type: TypeObject, V: inner}, fields["obj"])
	require.Equal(t, Value{Type: TypeInt32Array, V: []int32{1, -2, 3}}, fields["ia"])
	require.Equal(t, Value{Type: TypeInt64Array, V: []int64{4, 5}}, fields["la"])
	require.Equal(t, Value{Type: TypeObjectArray, V: [][]byte{{0xAA}, {0xBB, 0xCC}}}, fields["oa"])
	require.Equal(t, TypeObjectDictionary, fields["dict"].Type)
	require.Nil(t, fields["dict"].V)
	require.Equal(t, Value{Type: TypeBytes, V: []byte{0xDE, 0xAD}}, fields["raw"])
	require.Equal(t, Value{Type: TypeNil, V: nil}, fields["nil"])
	require.Equal(t, Value{Type: TypeStringArray, V: []string{"a", "bc"}}, fields["sa"])
	require.Equal(t, Value{Type: TypeBytesArray, V: [][]byte{{0x01}, {}}}, fields["ba"])
}

func TestSeek_AgreesWithDecodeAll(t *testing.T) {
	b := &streamBuilder{}
	b.addInt32("a", 1)
	b.addString("b", "two")
	b.addInt64Array("c", []int64{3, 4, 5})
	b.addBytes("d", []byte{0x06})
	b.addDouble("e", 7.5)
	data := b.bytes()

	fields := NewDecoder(data).DecodeAll()
	require.Len(t, fields, 5)
	for key, want := range fields {
		got, ok := NewDecoder(data).Seek(key, want.Type)
		require.True(t, ok, "seek %q", key)
		require.Equal(t, want, got, "seek %q", key)
	}
}

func TestSeek_SkipsMismatchedTypeAndKey(t *testing.T) {
	b := &streamBuilder{}
	b.addString("x", "not this one")
	b.addInt64("x", 99)
	b.addInt64("y", 100)
	data := b.bytes()

	v, ok := NewDecoder(data).Seek("x", TypeInt64)
	require.True(t, ok)
	require.Equal(t, int64(99), v.V)

	v, ok = NewDecoder(data).Seek("y", TypeInt64)
	require.True(t, ok)
	require.Equal(t, int64(100), v.V)

	_, ok = NewDecoder(data).Seek("z", TypeInt64)
	require.False(t, ok)
	_, ok = NewDecoder(data).Seek("y", TypeString)
	require.False(t, ok)
}

func TestDecodeAll_DuplicateKeyLastWins(t *testing.T) {
	b := &streamBuilder{}
	b.addInt32("k", 1)
	b.addInt32("k", 2)

	fields := NewDecoder(b.bytes()).DecodeAll()
	require.Equal(t, Value{Type: TypeInt32, V: int32(2)}, fields["k"])
}

func TestDecodeAll_TruncatedStreamKeepsPrefix(t *testing.T) {
	b := &streamBuilder{}
	b.addString("first", "complete")
	b.addInt64("second", 42)
	data := b.bytes()

	// every truncation point keeps the records that fit and never panics
	for cut := 0; cut < len(data); cut++ {
		fields := NewDecoder(data[:cut]).DecodeAll()
		require.LessOrEqual(t, len(fields), 2)
	}

	fields := NewDecoder(data[:len(data)-1]).DecodeAll()
	require.Equal(t, "complete", fields["first"].V)
	_, ok := fields["second"]
	require.False(t, ok)
}

func TestDecodeAll_UnknownTagStops(t *testing.T) {
	b := &streamBuilder{}
	b.addInt32("ok", 7)
	b.shortString("bad").u8(0xFF)

	fields := NewDecoder(b.bytes()).DecodeAll()
	require.Len(t, fields, 1)
	require.Equal(t, int32(7), fields["ok"].V)
}

func TestDecodeAll_NestedObjectStreams(t *testing.T) {
	innermost := (&streamBuilder{}).addString("leaf", "bottom").bytes()
	middle := (&streamBuilder{}).addObject("child", 1, innermost).bytes()
	outer := (&streamBuilder{}).addObject("root", 2, middle).bytes()

	rootFields := NewDecoder(outer).DecodeAll()
	payload, ok := rootFields["root"].V.([]byte)
	require.True(t, ok)

	midFields := NewDecoder(payload).DecodeAll()
	payload, ok = midFields["child"].V.([]byte)
	require.True(t, ok)

	leafFields := NewDecoder(payload).DecodeAll()
	require.Equal(t, "bottom", leafFields["leaf"].V)
}

func TestDecodeAll_InvalidUTF8Replaced(t *testing.T) {
	b := &streamBuilder{}
	b.record("s", TypeString).lengthPrefixed([]byte{'h', 0xFF, 'i'})

	fields := NewDecoder(b.bytes()).DecodeAll()
	require.Equal(t, "h�i", fields["s"].V)
}

func TestDecodeAll_NegativeCountIsMalformed(t *testing.T) {
	b := &streamBuilder{}
	b.addInt32("ok", 1)
	b.record("bad", TypeInt32Array).i32(-5)

	fields := NewDecoder(b.bytes()).DecodeAll()
	require.Len(t, fields, 1)
}
