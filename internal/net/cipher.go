package net

// Isaac is Bob Jenkins' ISAAC generator as the game client uses it to
// obfuscate opcodes. Results are consumed from the top of each 256-word block
// down, and a new block is generated once the current one is exhausted.
type Isaac struct {
	results [256]uint32
	memory  [256]uint32
	count   int
	a, b, c uint32
}

const isaacGolden = 0x9E3779B9

// NewIsaac seeds a generator. Words beyond the 256th are ignored and missing
// words are zero.
func NewIsaac(seed []uint32) *Isaac {
	r := &Isaac{}
	copy(r.results[:], seed)
	r.init()
	return r
}

// Next returns the next keystream word.
func (r *Isaac) Next() uint32 {
	if r.count == 0 {
		r.generate()
		r.count = len(r.results)
	}
	r.count--
	return r.results[r.count]
}

func (r *Isaac) generate() {
	r.c++
	r.b += r.c
	for i := range r.memory {
		x := r.memory[i]
		switch i & 3 {
		case 0:
			r.a ^= r.a << 13
		case 1:
			r.a ^= r.a >> 6
		case 2:
			r.a ^= r.a << 2
		case 3:
			r.a ^= r.a >> 16
		}
		r.a += r.memory[(i+128)&0xFF]
		y := r.memory[(x>>2)&0xFF] + r.a + r.b
		r.memory[i] = y
		r.b = r.memory[(y>>10)&0xFF] + x
		r.results[i] = r.b
	}
}

func mix(s *[8]uint32) {
	s[0] ^= s[1] << 11
	s[3] += s[0]
	s[1] += s[2]
	s[1] ^= s[2] >> 2
	s[4] += s[1]
	s[2] += s[3]
	s[2] ^= s[3] << 8
	s[5] += s[2]
	s[3] += s[4]
	s[3] ^= s[4] >> 16
	s[6] += s[3]
	s[4] += s[5]
	s[4] ^= s[5] << 10
	s[7] += s[4]
	s[5] += s[6]
	s[5] ^= s[6] >> 4
	s[0] += s[5]
	s[6] += s[7]
	s[6] ^= s[7] << 8
	s[1] += s[6]
	s[7] += s[0]
	s[7] ^= s[0] >> 9
	s[2] += s[7]
	s[0] += s[1]
}

func (r *Isaac) init() {
	var s [8]uint32
	for i := range s {
		s[i] = isaacGolden
	}
	for i := 0; i < 4; i++ {
		mix(&s)
	}
	for _, src := range []*[256]uint32{&r.results, &r.memory} {
		for i := 0; i < len(r.memory); i += 8 {
			for k := range s {
				s[k] += src[i+k]
			}
			mix(&s)
			copy(r.memory[i:i+8], s[:])
		}
	}
	r.generate()
	r.count = len(r.results)
}

// encodeIncrement is added to every seed word of the server-to-client stream.
const encodeIncrement = 50

// cipherSeed splits the two session keys into the four seed words.
func cipherSeed(clientKey, serverKey uint64, increment uint32) []uint32 {
	return []uint32{
		uint32(clientKey>>32) + increment,
		uint32(clientKey) + increment,
		uint32(serverKey>>32) + increment,
		uint32(serverKey) + increment,
	}
}

// newCiphers builds the encode and decode keystreams for one side of a
// connection. The serverbound stream uses the plain seed, the clientbound one
// the incremented seed.
func newCiphers(side Side, clientKey, serverKey uint64) (encode, decode *Isaac) {
	serverbound := NewIsaac(cipherSeed(clientKey, serverKey, 0))
	clientbound := NewIsaac(cipherSeed(clientKey, serverKey, encodeIncrement))
	if side == SideClient {
		return serverbound, clientbound
	}
	return clientbound, serverbound
}
