package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBase37_KnownValues(t *testing.T) {
	assert.Equal(t, uint64(36292611), EncodeBase37("smrkn"))
	assert.Equal(t, uint64(4818), EncodeBase37("csh"))
	assert.Equal(t, EncodeBase37("csh"), EncodeBase37("CSH"))
	assert.Equal(t, uint64(0), EncodeBase37(""))
}

func TestBase37_RoundTrip(t *testing.T) {
	names := []string{"a", "Z", "zezima", "Player1", "abcdefghijkl", "0", "9lives", "x1y2z3"}
	for _, name := range names {
		got, err := DecodeBase37(EncodeBase37(name))
		require.NoError(t, err, name)
		assert.Equal(t, strings.ToLower(name), got)
	}
}

func TestBase37_TruncatesToTwelve(t *testing.T) {
	got, err := DecodeBase37(EncodeBase37("abcdefghijklmnop"))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", got)
}

func TestBase37_SeparatorsBecomeUnderscores(t *testing.T) {
	got, err := DecodeBase37(EncodeBase37("mod ash"))
	require.NoError(t, err)
	assert.Equal(t, "mod_ash", got)
	assert.Equal(t, "Mod Ash", FormatName(got))
}

func TestDecodeBase37_Invalid(t *testing.T) {
	for _, v := range []uint64{0, 37, 37 * 37, maxBase37, maxBase37 + 1, ^uint64(0)} {
		_, err := DecodeBase37(v)
		assert.ErrorIs(t, err, ErrInvalidName, "value %d", v)
	}
}

func TestCompress_KnownVector(t *testing.T) {
	packed := []byte{0x61, 0xBB, 0x4E, 0xC0, 0xD1, 0x49, 0xBA, 0xE9}
	assert.Equal(t, packed, Compress("hello, world!"))
	assert.Equal(t, "hello, world!", Decompress(packed, len(packed)))
}

func TestCompress_Lowercases(t *testing.T) {
	packed := Compress("HeLLo")
	assert.Equal(t, "hello", Decompress(packed, len(packed)))
}

func TestCompress_RoundTrip(t *testing.T) {
	messages := []string{
		"a",
		"ab",
		"selling lobsters 200gp ea",
		"buying [runes] @ 5k; pm me!",
		"why? (because) it's 100% true & \"fun\" #1 + 2 = 3",
		"£$ back\\slash",
		"qwertyuiopasdfghjklzxcvbnm",
	}
	for _, msg := range messages {
		packed := Compress(msg)
		assert.Equal(t, msg, Decompress(packed, len(packed)), msg)
	}
}

func TestCompress_Truncates(t *testing.T) {
	long := strings.Repeat("e", MaxMessageLength+20)
	packed := Compress(long)
	assert.Len(t, packed, MaxMessageLength/2)
	assert.Equal(t, strings.Repeat("e", MaxMessageLength), Decompress(packed, len(packed)))
}

func TestDecompress_ClampsLength(t *testing.T) {
	packed := Compress("hi")
	assert.Equal(t, "hi", Decompress(packed, 50))
	assert.Equal(t, "", Decompress(packed, 0))
}
