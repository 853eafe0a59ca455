package cache

import (
	"hash/crc32"

	"github.com/oldscape/server/internal/buf"
)

const crcSeed = 1234

// CRCTable holds the CRC-32 of every archive in index 0 and the rolling
// checksum the client uses to validate the table itself.
type CRCTable struct {
	CRCs     []uint32
	Checksum int32
}

// CRCTable computes the table over index 0 in ascending file order.
func (s *Store) CRCTable() (*CRCTable, error) {
	count, err := s.FileCount(IndexArchives)
	if err != nil {
		return nil, err
	}
	t := &CRCTable{CRCs: make([]uint32, count), Checksum: crcSeed}
	for i := 0; i < count; i++ {
		data, err := s.File(IndexArchives, i)
		if err != nil {
			return nil, err
		}
		t.CRCs[i] = crc32.ChecksumIEEE(data)
		t.Checksum = t.Checksum<<1 + int32(t.CRCs[i])
	}
	return t, nil
}

// Encode writes each CRC followed by the checksum as big-endian ints.
func (t *CRCTable) Encode() []byte {
	w := buf.NewWriter(4 * (len(t.CRCs) + 1))
	for _, crc := range t.CRCs {
		w.WriteU32(crc)
	}
	w.WriteU32(uint32(t.Checksum))
	return w.Bytes()
}
