package cache

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"

	"github.com/oldscape/server/internal/buf"
)

// bzipHeader is stripped from every compressed stream in the cache.
var bzipHeader = []byte("BZh1")

const (
	archiveHeaderSize = 6
	entryHeaderSize   = 10
)

// Archive is a set of named entries decoded from one cache file.
type Archive struct {
	entries map[int32][]byte
	hashes  []int32
}

// DecodeArchive parses an archive: [extracted:u24][compressed:u24] followed by
// either the raw payload (sizes equal) or a bzip2 stream of it. The payload is
// a u16 entry count, a table of [name hash:i32][extracted:u24][compressed:u24],
// then the entry bodies back to back. When the archive as a whole was not
// compressed, each body is its own bzip2 stream.
func DecodeArchive(data []byte) (*Archive, error) {
	r := buf.NewReader(data)
	extracted := int(r.ReadU24())
	compressed := int(r.ReadU24())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("archive header: %w", err)
	}

	payload := data[archiveHeaderSize:]
	if compressed != len(payload) {
		return nil, fmt.Errorf("%w: archive declares %d bytes, holds %d", ErrLengthMismatch, compressed, len(payload))
	}

	whole := extracted != compressed
	if whole {
		var err error
		payload, err = decompress(payload, extracted)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
	}

	r = buf.NewReader(payload)
	count := int(r.ReadU16())
	type header struct {
		hash                  int32
		extracted, compressed int
	}
	headers := make([]header, count)
	for i := range headers {
		headers[i] = header{
			hash:       r.ReadI32(),
			extracted:  int(r.ReadU24()),
			compressed: int(r.ReadU24()),
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("archive entry table: %w", err)
	}

	a := &Archive{
		entries: make(map[int32][]byte, count),
		hashes:  make([]int32, 0, count),
	}
	offset := r.Offset()
	for _, h := range headers {
		stored := h.compressed
		if whole {
			stored = h.extracted
		}
		if offset+stored > len(payload) {
			return nil, fmt.Errorf("%w: entry %d needs %d bytes at %d, payload is %d",
				ErrLengthMismatch, h.hash, stored, offset, len(payload))
		}
		body := payload[offset : offset+stored]
		offset += stored

		if whole {
			body = bytes.Clone(body)
		} else {
			var err error
			body, err = decompress(body, h.extracted)
			if err != nil {
				return nil, fmt.Errorf("archive entry %d: %w", h.hash, err)
			}
		}
		if _, dup := a.entries[h.hash]; !dup {
			a.hashes = append(a.hashes, h.hash)
		}
		a.entries[h.hash] = body
	}
	if offset != len(payload) {
		return nil, fmt.Errorf("%w: entries cover %d of %d payload bytes", ErrLengthMismatch, offset, len(payload))
	}
	return a, nil
}

// decompress inflates a headerless bzip2 stream that must produce exactly size bytes.
func decompress(data []byte, size int) ([]byte, error) {
	stream := io.MultiReader(bytes.NewReader(bzipHeader), bytes.NewReader(data))
	zr, err := bzip2.NewReader(stream, nil)
	if err != nil {
		return nil, fmt.Errorf("bzip2: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("bzip2: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: decompressed %d bytes, declared %d", ErrLengthMismatch, len(out), size)
	}
	return out, nil
}

// HashName is the case-insensitive multiplicative hash that keys archive entries.
func HashName(name string) int32 {
	var h int32
	for _, c := range strings.ToUpper(name) {
		h = h*61 + int32(c) - 32
	}
	return h
}

// Entry returns the body of a named entry.
func (a *Archive) Entry(name string) ([]byte, error) {
	body, ok := a.entries[HashName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return body, nil
}

// EntryByHash returns the body stored under a precomputed name hash.
func (a *Archive) EntryByHash(hash int32) ([]byte, bool) {
	body, ok := a.entries[hash]
	return body, ok
}

// Hashes lists the entry hashes in table order.
func (a *Archive) Hashes() []int32 {
	return a.hashes
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}
