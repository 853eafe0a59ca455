package buf

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Writer appends protocol and cache fields to a growable buffer.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written bytes. The slice aliases the writer's storage.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset discards the contents but keeps the storage.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// WriteU8 writes one byte.
func (w *Writer) WriteU8(v byte) {
	w.buf = append(w.buf, v)
}

// WriteU8T writes one byte with transform t applied.
func (w *Writer) WriteU8T(v byte, t Transform) {
	w.buf = append(w.buf, t.Apply(v))
}

// WriteBool writes 1 or 0.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
		return
	}
	w.WriteU8(0)
}

// WriteU16 writes a big-endian short.
func (w *Writer) WriteU16(v uint16) {
	w.WriteU16T(v, BigEndian, Plain)
}

// WriteU16T writes a short in the given order with t applied to its low byte.
func (w *Writer) WriteU16T(v uint16, o Order, t Transform) {
	hi, lo := byte(v>>8), t.Apply(byte(v))
	if o == LittleEndian {
		w.buf = append(w.buf, lo, hi)
		return
	}
	w.buf = append(w.buf, hi, lo)
}

// WriteU24 writes a big-endian 24-bit integer.
func (w *Writer) WriteU24(v uint32) {
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

// WriteU32 writes a big-endian int.
func (w *Writer) WriteU32(v uint32) {
	w.WriteU32O(v, BigEndian)
}

// WriteU32O writes an int in any of the four byte orders.
func (w *Writer) WriteU32O(v uint32, o Order) {
	for _, shift := range o.positions32() {
		w.buf = append(w.buf, byte(v>>(shift*8)))
	}
}

// WriteU64 writes a big-endian long.
func (w *Writer) WriteU64(v uint64) {
	for shift := 56; shift >= 0; shift -= 8 {
		w.buf = append(w.buf, byte(v>>uint(shift)))
	}
}

// WriteSmart writes v as one byte below 128, otherwise as a short biased by 32768.
func (w *Writer) WriteSmart(v int) {
	if v >= 0 && v < 128 {
		w.WriteU8(byte(v))
		return
	}
	w.WriteU16(uint16(v + 32768))
}

var textEncoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// WriteString writes s as Windows-1252 followed by a newline terminator.
// A newline inside s is written as-is and will cut the string short on read.
func (w *Writer) WriteString(s string) {
	encoded, err := textEncoder.Bytes([]byte(s))
	if err != nil {
		encoded = []byte(s)
	}
	w.buf = append(w.buf, encoded...)
	w.buf = append(w.buf, StringTerminator)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBytesReverse writes b back to front with t applied to every byte.
func (w *Writer) WriteBytesReverse(b []byte, t Transform) {
	for i := len(b) - 1; i >= 0; i-- {
		w.buf = append(w.buf, t.Apply(b[i]))
	}
}

// PutU8At overwrites one byte at off, used to back-patch length prefixes.
func (w *Writer) PutU8At(off int, v byte) {
	w.buf[off] = v
}

// PutU16At overwrites a big-endian short at off.
func (w *Writer) PutU16At(off int, v uint16) {
	w.buf[off] = byte(v >> 8)
	w.buf[off+1] = byte(v)
}
