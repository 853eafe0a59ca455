// Package cache reads the client's block-chained file store and the named
// archives packed inside it.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Index numbers of the store.
const (
	IndexArchives   = 0
	IndexModels     = 1
	IndexAnimations = 2
	IndexMusic      = 3
	IndexMaps       = 4

	IndexCount = 5
)

// File numbers of the archives held in IndexArchives.
const (
	ArchiveTitle       = 1
	ArchiveConfig      = 2
	ArchiveInterface   = 3
	ArchiveMedia       = 4
	ArchiveVersionList = 5
	ArchiveTextures    = 6
	ArchiveWordEnc     = 7
	ArchiveSounds      = 8
)

const (
	// BlockSize is the fixed size of a data file block.
	BlockSize = 520
	// BlockHeaderSize precedes the payload of every block:
	// [file:u16][part:u16][next block:u24][index type:u8].
	BlockHeaderSize = 8
	// BlockPayloadSize is the data carried by a full block.
	BlockPayloadSize = BlockSize - BlockHeaderSize
	// IndexRecordSize is one [size:u24][first block:u24] index entry.
	IndexRecordSize = 6

	dataFileName  = "main_file_cache.dat"
	indexFileName = "main_file_cache.idx%d"
)

// Store is a read-only view of a cache directory. The data file and the five
// index files are memory-mapped once by Open and never written, so a Store
// may be shared by any number of goroutines.
type Store struct {
	dir     string
	data    []byte
	indices [IndexCount][]byte
}

// Open maps the data file and every index file under dir. Any missing or
// unmappable file yields a *MapError naming it.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}

	data, err := mapFile(filepath.Join(dir, dataFileName))
	if err != nil {
		return nil, err
	}
	s.data = data

	for i := 0; i < IndexCount; i++ {
		idx, err := mapFile(filepath.Join(dir, fmt.Sprintf(indexFileName, i)))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.indices[i] = idx
	}
	return s, nil
}

func mapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MapError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &MapError{Path: path, Err: err}
	}
	if info.Size() == 0 {
		return []byte{}, nil
	}
	mapped, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &MapError{Path: path, Err: err}
	}
	return mapped, nil
}

// Close unmaps every file. The Store and any slice it returned without
// copying must not be used afterwards.
func (s *Store) Close() error {
	var errs []error
	unmap := func(b []byte) {
		if len(b) == 0 {
			return
		}
		if err := unix.Munmap(b); err != nil {
			errs = append(errs, err)
		}
	}
	unmap(s.data)
	s.data = nil
	for i := range s.indices {
		unmap(s.indices[i])
		s.indices[i] = nil
	}
	return errors.Join(errs...)
}

// Dir returns the directory the store was opened from.
func (s *Store) Dir() string {
	return s.dir
}

// FileCount returns the number of records in an index.
func (s *Store) FileCount(index int) (int, error) {
	if index < 0 || index >= IndexCount {
		return 0, fmt.Errorf("%w: %d", ErrIndexNotFound, index)
	}
	return len(s.indices[index]) / IndexRecordSize, nil
}

// File reads one file by following its block chain. The returned slice is a
// fresh copy.
func (s *Store) File(index, file int) ([]byte, error) {
	count, err := s.FileCount(index)
	if err != nil {
		return nil, err
	}
	if file < 0 || file >= count {
		return nil, fmt.Errorf("%w: index %d file %d (%d files)", ErrFileNotFound, index, file, count)
	}

	rec := s.indices[index][file*IndexRecordSize:]
	size := int(uint24(rec[0:3]))
	block := int(uint24(rec[3:6]))

	out := make([]byte, 0, size)
	for part := 0; len(out) < size; part++ {
		offset := block * BlockSize
		chunk := size - len(out)
		if chunk > BlockPayloadSize {
			chunk = BlockPayloadSize
		}
		if block <= 0 || offset+BlockHeaderSize+chunk > len(s.data) {
			return nil, fmt.Errorf("%w: index %d file %d part %d block %d", ErrBlockOutOfRange, index, file, part, block)
		}

		hdr := s.data[offset : offset+BlockHeaderSize]
		hdrFile := int(hdr[0])<<8 | int(hdr[1])
		hdrPart := int(hdr[2])<<8 | int(hdr[3])
		next := int(uint24(hdr[4:7]))
		hdrIndex := int(hdr[7])

		if hdrFile != file || hdrPart != part {
			return nil, fmt.Errorf("%w: index %d block %d holds file %d part %d, want file %d part %d",
				ErrFilePartMismatch, index, block, hdrFile, hdrPart, file, part)
		}

		out = append(out, s.data[offset+BlockHeaderSize:offset+BlockHeaderSize+chunk]...)
		if len(out) < size && hdrIndex != index+1 {
			return nil, fmt.Errorf("%w: block %d tagged %d, want %d", ErrBlockIndexMismatch, block, hdrIndex, index+1)
		}
		block = next
	}
	return out, nil
}

// Archive reads a file and decodes it as an archive.
func (s *Store) Archive(index, file int) (*Archive, error) {
	data, err := s.File(index, file)
	if err != nil {
		return nil, err
	}
	a, err := DecodeArchive(data)
	if err != nil {
		return nil, fmt.Errorf("archive %d/%d: %w", index, file, err)
	}
	return a, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
