// Package cachetest builds small cache directories and archives for tests.
package cachetest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/cache"
)

// Builder lays out files into the block-chained cache format.
type Builder struct {
	files [cache.IndexCount][][]byte
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Put stores data as file number file of index, growing the index as needed.
func (b *Builder) Put(index, file int, data []byte) *Builder {
	for len(b.files[index]) <= file {
		b.files[index] = append(b.files[index], nil)
	}
	b.files[index][file] = data
	return b
}

// Write creates main_file_cache.dat and the five index files in dir. Block 0
// is left empty, as in real caches.
func (b *Builder) Write(dir string) error {
	data := make([]byte, cache.BlockSize)
	next := 1
	for index := 0; index < cache.IndexCount; index++ {
		idx := buf.NewWriter(len(b.files[index]) * cache.IndexRecordSize)
		for file, body := range b.files[index] {
			if len(body) == 0 {
				idx.WriteU24(0)
				idx.WriteU24(0)
				continue
			}
			first := next
			idx.WriteU24(uint32(len(body)))
			idx.WriteU24(uint32(first))
			for part := 0; len(body) > 0; part++ {
				chunk := body
				if len(chunk) > cache.BlockPayloadSize {
					chunk = chunk[:cache.BlockPayloadSize]
				}
				body = body[len(chunk):]
				link := 0
				if len(body) > 0 {
					link = next + 1
				}
				block := buf.NewWriter(cache.BlockSize)
				block.WriteU16(uint16(file))
				block.WriteU16(uint16(part))
				block.WriteU24(uint32(link))
				block.WriteU8(byte(index + 1))
				block.WriteBytes(chunk)
				padded := make([]byte, cache.BlockSize)
				copy(padded, block.Bytes())
				data = append(data, padded...)
				next++
			}
		}
		path := filepath.Join(dir, fmt.Sprintf("main_file_cache.idx%d", index))
		if err := os.WriteFile(path, idx.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, "main_file_cache.dat"), data, 0o644)
}

// Entry is one named archive member.
type Entry struct {
	Name string
	Data []byte
}

// BuildArchive encodes entries as an archive. With whole set the entry table
// and bodies are compressed as one stream, otherwise each body is compressed
// on its own.
func BuildArchive(entries []Entry, whole bool) ([]byte, error) {
	bodies := make([][]byte, len(entries))
	for i, e := range entries {
		bodies[i] = e.Data
		if !whole {
			c, err := Compress(e.Data)
			if err != nil {
				return nil, err
			}
			bodies[i] = c
		}
	}

	payload := buf.NewWriter(256)
	payload.WriteU16(uint16(len(entries)))
	for i, e := range entries {
		payload.WriteU32(uint32(cache.HashName(e.Name)))
		payload.WriteU24(uint32(len(e.Data)))
		payload.WriteU24(uint32(len(bodies[i])))
	}
	for _, body := range bodies {
		payload.WriteBytes(body)
	}

	out := buf.NewWriter(payload.Len() + 6)
	if !whole {
		out.WriteU24(uint32(payload.Len()))
		out.WriteU24(uint32(payload.Len()))
		out.WriteBytes(payload.Bytes())
		return out.Bytes(), nil
	}
	packed, err := Compress(payload.Bytes())
	if err != nil {
		return nil, err
	}
	out.WriteU24(uint32(payload.Len()))
	out.WriteU24(uint32(len(packed)))
	out.WriteBytes(packed)
	return out.Bytes(), nil
}

// Compress produces a level-1 bzip2 stream with its "BZh1" magic removed.
func Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	zw, err := bzip2.NewWriter(&b, &bzip2.WriterConfig{Level: 1})
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes()[4:], nil
}
