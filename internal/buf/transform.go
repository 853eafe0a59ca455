package buf

// Transform is one of the reversible single-byte arithmetic obfuscations the
// client applies to individual integer fields. Multi-byte fields carry the
// transform on their least significant byte only.
type Transform uint8

const (
	Plain    Transform = iota
	Add                // write v+128, read v-128
	Subtract           // 128-v in both directions
	Negate             // -v in both directions
)

func (t Transform) String() string {
	switch t {
	case Plain:
		return "plain"
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Negate:
		return "negate"
	default:
		return "unknown"
	}
}

// Apply transforms a byte on its way to the wire.
func (t Transform) Apply(v byte) byte {
	switch t {
	case Add:
		return v + 128
	case Subtract:
		return 128 - v
	case Negate:
		return byte(-int8(v))
	default:
		return v
	}
}

// Reverse undoes Apply for a byte read off the wire.
func (t Transform) Reverse(v byte) byte {
	switch t {
	case Add:
		return v - 128
	case Subtract:
		return 128 - v
	case Negate:
		return byte(-int8(v))
	default:
		return v
	}
}

// Order selects the byte permutation of a multi-byte integer. The two middle
// orders only exist for 32-bit fields; 16-bit fields treat them as big-endian.
type Order uint8

const (
	BigEndian           Order = iota
	LittleEndian              // [b0 b1 b2 b3]
	MiddleEndian              // [b1 b0 b3 b2]
	InverseMiddleEndian       // [b2 b3 b0 b1]
)

func (o Order) String() string {
	switch o {
	case BigEndian:
		return "big"
	case LittleEndian:
		return "little"
	case MiddleEndian:
		return "middle"
	case InverseMiddleEndian:
		return "inverse-middle"
	default:
		return "unknown"
	}
}

// positions32 lists, for each wire position, which byte (0 = least
// significant) of a 32-bit value is stored there.
func (o Order) positions32() [4]uint {
	switch o {
	case LittleEndian:
		return [4]uint{0, 1, 2, 3}
	case MiddleEndian:
		return [4]uint{1, 0, 3, 2}
	case InverseMiddleEndian:
		return [4]uint{2, 3, 0, 1}
	default:
		return [4]uint{3, 2, 1, 0}
	}
}
