package buf

import "fmt"

// bitMask returns the low n bits set, n in [0, 32].
func bitMask(n int) uint32 {
	return uint32(uint64(1)<<uint(n) - 1)
}

// BitWriter packs big-endian bit fields into a Writer's buffer. Bytes are
// appended as the position advances; a partially written trailing byte keeps
// its earlier bits because every write masks before it ORs.
type BitWriter struct {
	w   *Writer
	pos int
}

// Bits starts bit access at the current end of the buffer.
func (w *Writer) Bits() *BitWriter {
	return &BitWriter{w: w, pos: len(w.buf) * 8}
}

// ResumeBits continues bit access at an absolute bit position inside the
// last byte (or at its end), as returned by an earlier BitWriter.Position.
func (w *Writer) ResumeBits(bitPos int) *BitWriter {
	if bitPos < 0 || bitPos > len(w.buf)*8 || (len(w.buf) > 0 && bitPos < (len(w.buf)-1)*8) {
		panic(fmt.Sprintf("buf: resume bit position %d outside trailing byte of %d-byte buffer", bitPos, len(w.buf)))
	}
	return &BitWriter{w: w, pos: bitPos}
}

// Position returns the absolute bit position.
func (b *BitWriter) Position() int {
	return b.pos
}

// WriteBits writes the low n bits of v, n in [1, 32].
func (b *BitWriter) WriteBits(n int, v uint32) {
	if n < 1 || n > 32 {
		panic(fmt.Sprintf("buf: bit count %d out of range", n))
	}
	need := (b.pos + n + 7) >> 3
	for len(b.w.buf) < need {
		b.w.buf = append(b.w.buf, 0)
	}
	buf := b.w.buf
	bytePos := b.pos >> 3
	offset := 8 - (b.pos & 7)
	b.pos += n

	for ; n > offset; offset = 8 {
		buf[bytePos] &^= byte(bitMask(offset))
		buf[bytePos] |= byte((v >> uint(n-offset)) & bitMask(offset))
		bytePos++
		n -= offset
	}
	if n == offset {
		buf[bytePos] &^= byte(bitMask(offset))
		buf[bytePos] |= byte(v & bitMask(offset))
		return
	}
	shift := uint(offset - n)
	buf[bytePos] &^= byte(bitMask(n) << shift)
	buf[bytePos] |= byte((v & bitMask(n)) << shift)
}

// WriteBit writes a single flag bit.
func (b *BitWriter) WriteBit(v bool) {
	if v {
		b.WriteBits(1, 1)
		return
	}
	b.WriteBits(1, 0)
}

// BitReader unpacks big-endian bit fields from a Reader's data. Failures are
// recorded on the parent Reader.
type BitReader struct {
	r   *Reader
	pos int
}

// Bits starts bit access at the reader's cursor.
func (r *Reader) Bits() *BitReader {
	return &BitReader{r: r, pos: r.off * 8}
}

// Position returns the absolute bit position.
func (b *BitReader) Position() int {
	return b.pos
}

// Remaining returns the number of unread bits.
func (b *BitReader) Remaining() int {
	return len(b.r.data)*8 - b.pos
}

// ReadBits reads n bits, n in [1, 32].
func (b *BitReader) ReadBits(n int) uint32 {
	if n < 1 || n > 32 {
		panic(fmt.Sprintf("buf: bit count %d out of range", n))
	}
	if b.r.err != nil {
		return 0
	}
	if b.pos+n > len(b.r.data)*8 {
		b.r.err = fmt.Errorf("%w: need %d bits at bit %d of %d", ErrUnderflow, n, b.pos, len(b.r.data)*8)
		return 0
	}
	data := b.r.data
	bytePos := b.pos >> 3
	offset := 8 - (b.pos & 7)
	b.pos += n

	var v uint32
	for ; n > offset; offset = 8 {
		v |= (uint32(data[bytePos]) & bitMask(offset)) << uint(n-offset)
		bytePos++
		n -= offset
	}
	if n == offset {
		v |= uint32(data[bytePos]) & bitMask(offset)
	} else {
		v |= (uint32(data[bytePos]) >> uint(offset-n)) & bitMask(n)
	}
	return v
}

// ReadBit reads a single flag bit.
func (b *BitReader) ReadBit() bool {
	return b.ReadBits(1) == 1
}

// Finish ends bit access and moves the parent reader to the next whole byte.
func (b *BitReader) Finish() {
	if b.r.err != nil {
		return
	}
	b.r.off = (b.pos + 7) >> 3
}
