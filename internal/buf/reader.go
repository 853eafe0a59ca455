package buf

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnderflow is reported when a read needs more bytes than remain.
var ErrUnderflow = errors.New("buffer underflow")

// StringTerminator ends every newline-terminated string on the wire.
const StringTerminator = '\n'

// Reader decodes protocol and cache fields from a byte slice.
//
// The first failed read records an error wrapping ErrUnderflow; every later
// read returns a zero value, so decoders read a whole record and check Err
// once at the end.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error hit by any read.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Offset returns the cursor position.
func (r *Reader) Offset() int {
	return r.off
}

// Len returns the total length of the underlying data.
func (r *Reader) Len() int {
	return len(r.data)
}

// SetOffset moves the cursor to an absolute position.
func (r *Reader) SetOffset(off int) {
	if r.err != nil {
		return
	}
	if off < 0 || off > len(r.data) {
		r.err = fmt.Errorf("%w: offset %d outside %d bytes", ErrUnderflow, off, len(r.data))
		return
	}
	r.off = off
}

func (r *Reader) fail(n int) {
	r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnderflow, n, r.off, len(r.data)-r.off)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail(n)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadU8 reads one unsigned byte.
func (r *Reader) ReadU8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadU8T reads one byte and reverses transform t.
func (r *Reader) ReadU8T(t Transform) byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return t.Reverse(b[0])
}

// ReadI8 reads one signed byte.
func (r *Reader) ReadI8() int8 {
	return int8(r.ReadU8())
}

// ReadI8T reads one signed byte and reverses transform t.
func (r *Reader) ReadI8T(t Transform) int8 {
	return int8(r.ReadU8T(t))
}

// ReadU16 reads a big-endian unsigned short.
func (r *Reader) ReadU16() uint16 {
	return r.ReadU16T(BigEndian, Plain)
}

// ReadI16 reads a big-endian signed short.
func (r *Reader) ReadI16() int16 {
	return int16(r.ReadU16())
}

// ReadU16T reads a short in the given order with t reversed on the low byte.
func (r *Reader) ReadU16T(o Order, t Transform) uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	if o == LittleEndian {
		return uint16(t.Reverse(b[0])) | uint16(b[1])<<8
	}
	return uint16(b[0])<<8 | uint16(t.Reverse(b[1]))
}

// ReadI16T is ReadU16T reinterpreted as signed.
func (r *Reader) ReadI16T(o Order, t Transform) int16 {
	return int16(r.ReadU16T(o, t))
}

// ReadU24 reads a big-endian 24-bit unsigned integer.
func (r *Reader) ReadU24() uint32 {
	b := r.take(3)
	if b == nil {
		return 0
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// ReadU32 reads a big-endian unsigned int.
func (r *Reader) ReadU32() uint32 {
	return r.ReadU32O(BigEndian)
}

// ReadI32 reads a big-endian signed int.
func (r *Reader) ReadI32() int32 {
	return int32(r.ReadU32())
}

// ReadU32O reads an int in any of the four byte orders.
func (r *Reader) ReadU32O(o Order) uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	var v uint32
	for i, shift := range o.positions32() {
		v |= uint32(b[i]) << (shift * 8)
	}
	return v
}

// ReadU64 reads a big-endian unsigned long.
func (r *Reader) ReadU64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// ReadSmart reads a one or two byte unsigned value. A first byte above 127 is
// the high byte of a big-endian short biased by 32768.
func (r *Reader) ReadSmart() int {
	if r.err != nil {
		return 0
	}
	if r.off >= len(r.data) {
		r.fail(1)
		return 0
	}
	if r.data[r.off] > 127 {
		return int(r.ReadU16()) - 32768
	}
	return int(r.ReadU8())
}

// ReadString reads bytes up to a newline terminator and decodes them from
// Windows-1252. A missing terminator is an underflow.
func (r *Reader) ReadString() string {
	if r.err != nil {
		return ""
	}
	for i := r.off; i < len(r.data); i++ {
		if r.data[i] == StringTerminator {
			raw := r.data[r.off:i]
			r.off = i + 1
			return decodeText(raw)
		}
	}
	r.err = fmt.Errorf("%w: unterminated string at offset %d", ErrUnderflow, r.off)
	return ""
}

// ReadBytes reads n bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadRest reads every remaining byte.
func (r *Reader) ReadRest() []byte {
	return r.ReadBytes(r.Remaining())
}

// ReadBytesReverse fills dst from the back, reversing t on every byte.
func (r *Reader) ReadBytesReverse(dst []byte, t Transform) {
	b := r.take(len(dst))
	if b == nil {
		return
	}
	for i := range dst {
		dst[len(dst)-1-i] = t.Reverse(b[i])
	}
}

func decodeText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	ascii := true
	for _, c := range raw {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
