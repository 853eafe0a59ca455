package buf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_RoundTripsEveryByte(t *testing.T) {
	for _, tr := range []Transform{Plain, Add, Subtract, Negate} {
		for v := 0; v < 256; v++ {
			b := byte(v)
			require.Equal(t, b, tr.Reverse(tr.Apply(b)), "transform %s value %d", tr, v)
		}
	}
}

func TestTransform_WireValues(t *testing.T) {
	tests := []struct {
		tr   Transform
		in   byte
		wire byte
	}{
		{Add, 0x00, 0x80},
		{Add, 0xFF, 0x7F},
		{Subtract, 0x00, 0x80},
		{Subtract, 0x81, 0xFF},
		{Negate, 0x01, 0xFF},
		{Negate, 0x80, 0x80},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wire, tt.tr.Apply(tt.in), "%s(%#x)", tt.tr, tt.in)
	}
}

func TestShortTransform_RoundTripsBothOrders(t *testing.T) {
	for _, o := range []Order{BigEndian, LittleEndian} {
		for _, tr := range []Transform{Plain, Add, Subtract, Negate} {
			for _, v := range []uint16{0, 1, 0x7F, 0x80, 0xFF, 0x1234, 0xFFFF} {
				w := NewWriter(2)
				w.WriteU16T(v, o, tr)
				r := NewReader(w.Bytes())
				got := r.ReadU16T(o, tr)
				require.NoError(t, r.Err())
				require.Equal(t, v, got, "order %s transform %s", o, tr)
			}
		}
	}
}

func TestShortTransform_OnlyLowByteTransformed(t *testing.T) {
	w := NewWriter(4)
	w.WriteU16T(0x1234, BigEndian, Add)
	w.WriteU16T(0x1234, LittleEndian, Add)
	assert.Equal(t, []byte{0x12, 0xB4, 0xB4, 0x12}, w.Bytes())
}

func TestIntOrders(t *testing.T) {
	tests := []struct {
		order Order
		wire  []byte
	}{
		{BigEndian, []byte{0x11, 0x22, 0x33, 0x44}},
		{LittleEndian, []byte{0x44, 0x33, 0x22, 0x11}},
		{MiddleEndian, []byte{0x33, 0x44, 0x11, 0x22}},
		{InverseMiddleEndian, []byte{0x22, 0x11, 0x44, 0x33}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			w := NewWriter(4)
			w.WriteU32O(0x11223344, tt.order)
			assert.Equal(t, tt.wire, w.Bytes())

			r := NewReader(tt.wire)
			assert.Equal(t, uint32(0x11223344), r.ReadU32O(tt.order))
			assert.NoError(t, r.Err())
		})
	}
}

func TestLongAndTribyte(t *testing.T) {
	w := NewWriter(16)
	w.WriteU64(0x0102030405060708)
	w.WriteU24(0xABCDEF)
	r := NewReader(w.Bytes())
	assert.Equal(t, uint64(0x0102030405060708), r.ReadU64())
	assert.Equal(t, uint32(0xABCDEF), r.ReadU24())
	assert.NoError(t, r.Err())
	assert.Zero(t, r.Remaining())
}

func TestSmart(t *testing.T) {
	for _, v := range []int{0, 1, 127, 128, 200, 4000, 32767} {
		w := NewWriter(2)
		w.WriteSmart(v)
		if v < 128 {
			assert.Len(t, w.Bytes(), 1)
		} else {
			assert.Len(t, w.Bytes(), 2)
		}
		r := NewReader(w.Bytes())
		assert.Equal(t, v, r.ReadSmart())
		assert.NoError(t, r.Err())
	}
}

func TestSmart_Underflow(t *testing.T) {
	r := NewReader([]byte{0x81})
	r.ReadSmart()
	assert.ErrorIs(t, r.Err(), ErrUnderflow)
}

func TestString(t *testing.T) {
	w := NewWriter(32)
	w.WriteString("Welcome")
	w.WriteString("")
	w.WriteString("café £")
	assert.Equal(t, byte('\n'), w.Bytes()[7])

	r := NewReader(w.Bytes())
	assert.Equal(t, "Welcome", r.ReadString())
	assert.Equal(t, "", r.ReadString())
	assert.Equal(t, "café £", r.ReadString())
	assert.NoError(t, r.Err())
}

func TestString_Unterminated(t *testing.T) {
	r := NewReader([]byte("abc"))
	assert.Empty(t, r.ReadString())
	assert.ErrorIs(t, r.Err(), ErrUnderflow)
}

func TestBytesReverse(t *testing.T) {
	w := NewWriter(4)
	w.WriteBytesReverse([]byte{1, 2, 3}, Add)
	assert.Equal(t, []byte{0x83, 0x82, 0x81}, w.Bytes())

	dst := make([]byte, 3)
	r := NewReader(w.Bytes())
	r.ReadBytesReverse(dst, Add)
	require.NoError(t, r.Err())
	assert.Equal(t, []byte{1, 2, 3}, dst)
}

func TestReader_UnderflowIsSticky(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	assert.Equal(t, uint32(0), r.ReadU32())
	assert.True(t, errors.Is(r.Err(), ErrUnderflow))
	// later reads keep failing even though bytes remain
	assert.Equal(t, byte(0), r.ReadU8())
	assert.Equal(t, 2, r.Remaining())
}

func TestReader_SetOffset(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	r.SetOffset(2)
	assert.Equal(t, byte(3), r.ReadU8())
	r.SetOffset(9)
	assert.ErrorIs(t, r.Err(), ErrUnderflow)
}

func TestBitWriter_KnownVector(t *testing.T) {
	w := NewWriter(4)
	bits := w.Bits()
	bits.WriteBits(8, 1234)
	for i := 0; i < 5; i++ {
		bits.WriteBits(1, 1)
		bits.WriteBits(2, 3)
	}
	assert.Equal(t, []byte{0xD2, 0xFF, 0xFE}, w.Bytes())
	assert.Equal(t, 23, bits.Position())
}

func TestBitWriter_ResumeMasksTrailingByte(t *testing.T) {
	w := NewWriter(2)
	w.WriteU8(0xFF)
	w.ResumeBits(4).WriteBits(4, 0)
	assert.Equal(t, []byte{0xF0}, w.Bytes())

	w = NewWriter(2)
	first := w.Bits()
	first.WriteBits(3, 0x5)
	w.ResumeBits(first.Position()).WriteBits(5, 0x1F)
	assert.Equal(t, []byte{0xBF}, w.Bytes())
}

func TestBitWriter_BytesAfterBits(t *testing.T) {
	w := NewWriter(4)
	w.Bits().WriteBits(3, 7)
	w.WriteU8(0x42)
	assert.Equal(t, []byte{0xE0, 0x42}, w.Bytes())
}

func TestBitReader_RoundTrip(t *testing.T) {
	fields := []struct {
		n int
		v uint32
	}{
		{1, 1}, {2, 2}, {3, 5}, {7, 100}, {11, 2047}, {14, 12345}, {5, 31}, {32, 0xDEADBEEF}, {8, 0x42},
	}
	w := NewWriter(32)
	bits := w.Bits()
	for _, f := range fields {
		bits.WriteBits(f.n, f.v)
	}
	w.WriteU16(0xBEEF)

	r := NewReader(w.Bytes())
	br := r.Bits()
	for _, f := range fields {
		assert.Equal(t, f.v, br.ReadBits(f.n), "width %d", f.n)
	}
	br.Finish()
	assert.Equal(t, uint16(0xBEEF), r.ReadU16())
	assert.NoError(t, r.Err())
}

func TestBitReader_Underflow(t *testing.T) {
	r := NewReader([]byte{0xFF})
	br := r.Bits()
	br.ReadBits(6)
	br.ReadBits(6)
	assert.ErrorIs(t, r.Err(), ErrUnderflow)
}
