package packet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldscape/server/internal/buf"
	"github.com/oldscape/server/internal/net/packet"
)

// secureLengthAt is the offset of the secure block length: magic, revision,
// low-memory flag and nine CRCs precede it.
const secureLengthAt = 1 + 2 + 1 + 9*4

func sampleLogin() packet.LoginBlock {
	return packet.LoginBlock{
		Revision:    317,
		LowMemory:   true,
		ArchiveCRCs: [packet.ArchiveCRCCount]uint32{0, 1, 2, 3, 4, 5, 6, 7, 0xFFFFFFFF},
		ClientKey:   0x123456789ABCDEF0,
		ServerKey:   0x0FEDCBA987654321,
		UID:         314159,
		Username:    "Zezima",
		Password:    "hunter2",
	}
}

func TestLoginRoundTrip(t *testing.T) {
	login := &packet.LoginRequest{LoginBlock: sampleLogin()}
	data := encode(login)
	assert.Equal(t, byte(255), data[0])
	assert.Equal(t, byte(len(data)-secureLengthAt-1), data[secureLengthAt])
	assert.Equal(t, byte(10), data[secureLengthAt+1])

	assert.Equal(t, login, decode(t, packet.TypeLoginRequest, data))

	reconnect := &packet.ReconnectRequest{LoginBlock: sampleLogin()}
	assert.Equal(t, reconnect, decode(t, packet.TypeReconnectRequest, encode(reconnect)))
}

func TestLoginMalformed(t *testing.T) {
	valid := encode(&packet.LoginRequest{LoginBlock: sampleLogin()})

	cases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"magic", func(b []byte) []byte { b[0] = 254; return b }},
		{"secure length", func(b []byte) []byte { b[secureLengthAt]++; return b }},
		{"marker", func(b []byte) []byte { b[secureLengthAt+1] = 11; return b }},
		{"trailing", func(b []byte) []byte {
			b[secureLengthAt]++
			return append(b, 0)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), valid...))
			var p packet.LoginRequest
			assert.ErrorIs(t, p.Decode(buf.NewReader(data)), packet.ErrMalformed)
		})
	}
}

func TestLoginTruncated(t *testing.T) {
	valid := encode(&packet.LoginRequest{LoginBlock: sampleLogin()})
	var p packet.LoginRequest
	err := p.Decode(buf.NewReader(valid[:secureLengthAt-3]))
	require.Error(t, err)
	assert.ErrorIs(t, err, buf.ErrUnderflow)
}
