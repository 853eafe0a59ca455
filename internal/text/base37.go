// Package text implements the client's compact text encodings: base-37 packed
// player names and the nibble-packed chat compressor.
package text

import (
	"errors"
	"strings"
)

// ErrInvalidName is returned when a value is not a valid packed name.
var ErrInvalidName = errors.New("invalid base37 name")

// MaxNameLength is the longest name that fits a base-37 long.
const MaxNameLength = 12

// maxBase37 is 37^12, the first value that would need a 13th digit.
const maxBase37 = 0x5B5B57F8A98A5DD1

const nameAlphabet = "_abcdefghijklmnopqrstuvwxyz0123456789"

// EncodeBase37 packs up to twelve characters of name into a long. Letters
// fold case, digits follow the letters, and any other character occupies a
// zero digit (which decodes as an underscore). Trailing zero digits are
// stripped.
func EncodeBase37(name string) uint64 {
	var acc uint64
	for i := 0; i < len(name) && i < MaxNameLength; i++ {
		c := name[i]
		acc *= 37
		switch {
		case c >= 'A' && c <= 'Z':
			acc += uint64(c-'A') + 1
		case c >= 'a' && c <= 'z':
			acc += uint64(c-'a') + 1
		case c >= '0' && c <= '9':
			acc += uint64(c-'0') + 27
		}
	}
	for acc != 0 && acc%37 == 0 {
		acc /= 37
	}
	return acc
}

// DecodeBase37 unpacks a long produced by EncodeBase37 into its lowercase
// form, most significant digit first.
func DecodeBase37(v uint64) (string, error) {
	if v == 0 || v >= maxBase37 || v%37 == 0 {
		return "", ErrInvalidName
	}
	var out [MaxNameLength]byte
	i := len(out)
	for v != 0 {
		i--
		out[i] = nameAlphabet[v%37]
		v /= 37
	}
	return string(out[i:]), nil
}

// FormatName turns a decoded name into display form: underscores become
// spaces and each word is capitalised.
func FormatName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
