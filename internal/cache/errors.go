package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound means the index number is outside 0..IndexCount-1.
	ErrIndexNotFound = errors.New("cache index not found")
	// ErrFileNotFound means the file number has no record in its index.
	ErrFileNotFound = errors.New("cache file not found")
	// ErrFilePartMismatch means a block header names a different file or
	// part than the chain expects.
	ErrFilePartMismatch = errors.New("cache block file/part mismatch")
	// ErrBlockIndexMismatch means a non-final block is tagged for another index.
	ErrBlockIndexMismatch = errors.New("cache block index mismatch")
	// ErrBlockOutOfRange means a block address points past the data file.
	ErrBlockOutOfRange = errors.New("cache block out of range")
	// ErrLengthMismatch means a declared size disagrees with the bytes present
	// or produced by decompression.
	ErrLengthMismatch = errors.New("cache length mismatch")
	// ErrEntryNotFound means an archive has no entry with the requested name.
	ErrEntryNotFound = errors.New("archive entry not found")
)

// MapError reports a cache file that could not be opened or memory-mapped.
type MapError struct {
	Path string
	Err  error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("map cache file %s: %v", e.Path, e.Err)
}

func (e *MapError) Unwrap() error {
	return e.Err
}
