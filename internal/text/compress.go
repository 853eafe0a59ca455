package text

import "strings"

// MaxMessageLength caps the characters Compress will pack.
const MaxMessageLength = 80

// symbols is ordered by frequency: the first thirteen pack into a single
// nibble, the rest take two nibbles biased by 195.
var symbols = []rune{
	' ', 'e', 't', 'a', 'o', 'i', 'h', 'n', 's', 'r',
	'd', 'l', 'u', 'm', 'w', 'c', 'y', 'f', 'g', 'p',
	'b', 'v', 'k', 'x', 'j', 'q', 'z', '0', '1', '2',
	'3', '4', '5', '6', '7', '8', '9', ' ', '!', '?',
	'.', ',', ':', ';', '(', ')', '-', '&', '*', '\\',
	'\'', '@', '#', '+', '=', '£', '$', '%', '"', '[', ']',
}

const (
	singleNibbleSymbols = 13
	wideBias            = 195
)

var symbolIndex = func() map[rune]int {
	m := make(map[rune]int, len(symbols))
	for i := len(symbols) - 1; i >= 0; i-- {
		m[symbols[i]] = i
	}
	return m
}()

// Compress lowercases s, truncates it to MaxMessageLength characters and packs
// it into nibbles. Characters outside the symbol table become spaces.
func Compress(s string) []byte {
	runes := []rune(strings.ToLower(s))
	if len(runes) > MaxMessageLength {
		runes = runes[:MaxMessageLength]
	}
	out := make([]byte, 0, len(runes))
	pending := -1
	for _, c := range runes {
		k := symbolIndex[c]
		if k >= singleNibbleSymbols {
			k += wideBias
		}
		switch {
		case pending == -1 && k < singleNibbleSymbols:
			pending = k
		case pending == -1:
			out = append(out, byte(k))
		case k < singleNibbleSymbols:
			out = append(out, byte(pending<<4+k))
			pending = -1
		default:
			out = append(out, byte(pending<<4+k>>4))
			pending = k & 0xF
		}
	}
	if pending != -1 {
		out = append(out, byte(pending<<4))
	}
	return out
}

// Decompress unpacks the first n bytes of data. A final zero nibble that only
// pads the last byte is dropped, so a message that really ended in a space
// after an odd number of nibbles loses that space.
func Decompress(data []byte, n int) string {
	if n > len(data) {
		n = len(data)
	}
	out := make([]rune, 0, n*2)
	pending := -1
	padded := false
	for i := 0; i < n; i++ {
		for _, nib := range [2]int{int(data[i] >> 4), int(data[i] & 0xF)} {
			padded = false
			if pending == -1 {
				if nib < singleNibbleSymbols {
					out = append(out, symbols[nib])
					padded = nib == 0
				} else {
					pending = nib
				}
				continue
			}
			idx := pending<<4 + nib - wideBias
			if idx >= 0 && idx < len(symbols) {
				out = append(out, symbols[idx])
			}
			pending = -1
		}
	}
	if padded {
		out = out[:len(out)-1]
	}
	return string(out)
}
