package data

import (
	"fmt"
	"math"

	"github.com/oldscape/server/internal/buf"
)

const (
	RegionSize = 64
	Planes     = 4
)

// Tile setting flags.
const (
	FlagBlocked = 0x1
	FlagBridge  = 0x2
)

// Tile is one decoded terrain tile.
type Tile struct {
	Height          int
	Overlay         int8
	OverlayShape    uint8
	OverlayRotation uint8
	Settings        uint8
	Underlay        uint8
}

// Terrain holds every tile of one region. Coordinates passed to its methods
// are local to the region: x and z in [0, 64), plane in [0, 4).
type Terrain struct {
	BaseX, BaseY int
	tiles        [Planes][RegionSize][RegionSize]Tile
}

// DecodeTerrain decodes a region's terrain file. baseX and baseY are the
// absolute coordinates of the region's south-west tile; they seed the
// generated heights of plane 0.
func DecodeTerrain(data []byte, baseX, baseY int) (*Terrain, error) {
	data, err := gunzip(data)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	t := &Terrain{BaseX: baseX, BaseY: baseY}
	r := buf.NewReader(data)
	for plane := 0; plane < Planes; plane++ {
		for x := 0; x < RegionSize; x++ {
			for z := 0; z < RegionSize; z++ {
				t.decodeTile(r, plane, x, z)
				if err := r.Err(); err != nil {
					return nil, fmt.Errorf("terrain tile %d,%d,%d: %w", plane, x, z, err)
				}
			}
		}
	}
	return t, nil
}

// decodeTile reads opcodes until a height opcode (0 or 1) ends the tile.
func (t *Terrain) decodeTile(r *buf.Reader, plane, x, z int) {
	tile := &t.tiles[plane][x][z]
	for {
		op := r.ReadU8()
		if r.Err() != nil {
			return
		}
		switch {
		case op == 0:
			if plane == 0 {
				tile.Height = -generatedHeight(noiseOffsetX+t.BaseX+x, noiseOffsetY+t.BaseY+z) * 8
			} else {
				tile.Height = t.tiles[plane-1][x][z].Height - 240
			}
			return
		case op == 1:
			h := int(r.ReadU8())
			if h == 1 {
				h = 0
			}
			if plane == 0 {
				tile.Height = -h * 8
			} else {
				tile.Height = t.tiles[plane-1][x][z].Height - h*8
			}
			return
		case op <= 49:
			tile.Overlay = r.ReadI8()
			tile.OverlayShape = (op - 2) / 4
			tile.OverlayRotation = (op - 2) & 3
		case op <= 81:
			tile.Settings = op - 49
		default:
			tile.Underlay = op - 81
		}
	}
}

func inRegion(plane, x, z int) bool {
	return plane >= 0 && plane < Planes && x >= 0 && x < RegionSize && z >= 0 && z < RegionSize
}

// Tile returns the tile at the given position.
func (t *Terrain) Tile(plane, x, z int) (Tile, bool) {
	if !inRegion(plane, x, z) {
		return Tile{}, false
	}
	return t.tiles[plane][x][z], true
}

// Bridge reports whether the tile is flagged as a bridge. A bridge flag on
// plane 1 lowers every plane at that column by one.
func (t *Terrain) Bridge(plane, x, z int) bool {
	if !inRegion(plane, x, z) {
		return false
	}
	return t.tiles[plane][x][z].Settings&FlagBridge != 0
}

// Walkable reports whether the tile at the logical plane is free of blocking
// terrain, after the bridge plane shift.
func (t *Terrain) Walkable(plane, x, z int) bool {
	if !inRegion(plane, x, z) {
		return false
	}
	stored := plane
	if t.Bridge(1, x, z) {
		stored++
	}
	if stored >= Planes {
		return true
	}
	return t.tiles[stored][x][z].Settings&FlagBlocked == 0
}

var cosine = func() [2048]int {
	var table [2048]int
	for i := range table {
		table[i] = int(65536 * math.Cos(float64(i)*0.0030679615))
	}
	return table
}()

// The client samples height noise at these offsets from world coordinates.
const (
	noiseOffsetX = 0xE3B7B
	noiseOffsetY = 0x87CCE
)

// generatedHeight is the smoothed value-noise height the client derives for
// plane 0 tiles without an explicit height, in the range [10, 60].
func generatedHeight(x, y int) int {
	h := (interpolatedNoise(x+45365, y+91923, 4) - 128) +
		((interpolatedNoise(x+10294, y+37821, 2) - 128) >> 1) +
		((interpolatedNoise(x, y, 1) - 128) >> 2)
	h = int(float64(h)*0.3) + 35
	return min(max(h, 10), 60)
}

func interpolatedNoise(x, y, freq int) int {
	ix, fx := x/freq, x&(freq-1)
	iy, fy := y/freq, y&(freq-1)
	south := interpolate(smoothNoise(ix, iy), smoothNoise(ix+1, iy), fx, freq)
	north := interpolate(smoothNoise(ix, iy+1), smoothNoise(ix+1, iy+1), fx, freq)
	return interpolate(south, north, fy, freq)
}

func interpolate(a, b, delta, freq int) int {
	f := (0x10000 - cosine[delta*1024/freq]) >> 1
	return (a*(0x10000-f))>>16 + (b*f)>>16
}

func smoothNoise(x, y int) int {
	corners := noise(x-1, y-1) + noise(x+1, y-1) + noise(x-1, y+1) + noise(x+1, y+1)
	sides := noise(x-1, y) + noise(x+1, y) + noise(x, y-1) + noise(x, y+1)
	return corners/16 + sides/8 + noise(x, y)/4
}

func noise(x, y int) int {
	n := int32(x + y*57)
	n = n<<13 ^ n
	v := (n*(n*n*15731+789221) + 1376312589) & 0x7FFFFFFF
	return int(v>>19) & 0xFF
}
