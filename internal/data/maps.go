package data

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/oldscape/server/internal/buf"
)

const mapIndexRecordSize = 7

// MapRegion locates the terrain and object files of one 64x64 region.
type MapRegion struct {
	ID          int  `yaml:"id"`
	X           int  `yaml:"x"`
	Y           int  `yaml:"y"`
	TerrainFile int  `yaml:"terrain_file"`
	ObjectFile  int  `yaml:"object_file"`
	Preload     bool `yaml:"preload,omitempty"`
}

// MapIndex is the decoded map_index entry of the version list archive.
type MapIndex struct {
	regions []MapRegion
	byID    map[int]int
}

// RegionID packs region coordinates the way the map index stores them.
func RegionID(regionX, regionY int) int {
	return regionX<<8 | regionY
}

// DecodeMapIndex decodes fixed seven byte records:
// [region:u16][terrain file:u16][object file:u16][preload:u8].
func DecodeMapIndex(data []byte) (*MapIndex, error) {
	if len(data)%mapIndexRecordSize != 0 {
		return nil, fmt.Errorf("map index: %w: %d bytes is not a whole number of records",
			buf.ErrUnderflow, len(data))
	}
	count := len(data) / mapIndexRecordSize
	m := &MapIndex{
		regions: make([]MapRegion, count),
		byID:    make(map[int]int, count),
	}
	r := buf.NewReader(data)
	for i := range m.regions {
		id := int(r.ReadU16())
		m.regions[i] = MapRegion{
			ID:          id,
			X:           (id >> 8) * 64,
			Y:           (id & 0xFF) * 64,
			TerrainFile: int(r.ReadU16()),
			ObjectFile:  int(r.ReadU16()),
			Preload:     r.ReadU8() == 1,
		}
		m.byID[id] = i
	}
	return m, r.Err()
}

// Region returns the entry for a packed region id.
func (m *MapIndex) Region(id int) (MapRegion, bool) {
	i, ok := m.byID[id]
	if !ok {
		return MapRegion{}, false
	}
	return m.regions[i], true
}

// RegionAt returns the region containing the absolute tile (x, y).
func (m *MapIndex) RegionAt(x, y int) (MapRegion, bool) {
	if x < 0 || y < 0 {
		return MapRegion{}, false
	}
	return m.Region(RegionID(x>>6, y>>6))
}

// Regions lists every region in file order.
func (m *MapIndex) Regions() []MapRegion {
	return m.regions
}

func (m *MapIndex) Count() int {
	return len(m.regions)
}

// MapObject is one object placed in a region. X and Y are local to the region.
type MapObject struct {
	ID          int `yaml:"id"`
	X           int `yaml:"x"`
	Y           int `yaml:"y"`
	Plane       int `yaml:"plane"`
	Type        int `yaml:"type"`
	Orientation int `yaml:"orientation"`
}

// DecodeMapObjects decodes a region's object placements. Ids and packed
// positions are delta coded with smarts where each delta is one more than the
// gap and zero ends the group.
func DecodeMapObjects(data []byte) ([]MapObject, error) {
	data, err := gunzip(data)
	if err != nil {
		return nil, fmt.Errorf("map objects: %w", err)
	}
	var objects []MapObject
	r := buf.NewReader(data)
	id := -1
	for {
		idDelta := r.ReadSmart()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("map objects: %w", err)
		}
		if idDelta == 0 {
			return objects, nil
		}
		id += idDelta

		pos := 0
		for {
			posDelta := r.ReadSmart()
			if err := r.Err(); err != nil {
				return nil, fmt.Errorf("map objects: object %d: %w", id, err)
			}
			if posDelta == 0 {
				break
			}
			pos += posDelta - 1
			attr := int(r.ReadU8())
			objects = append(objects, MapObject{
				ID:          id,
				X:           (pos >> 6) & 0x3F,
				Y:           pos & 0x3F,
				Plane:       pos >> 12,
				Type:        attr >> 2,
				Orientation: attr & 3,
			})
		}
	}
}

// gunzip inflates data when it starts with the gzip magic and returns it
// untouched otherwise.
func gunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1F || data[1] != 0x8B {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}
