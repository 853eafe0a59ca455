package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/data"
)

const blockedSettings = 49 + data.FlagBlocked

// terrainFile builds a region where every tile is plain except the ones
// listed, which get the given settings opcode.
func terrainFile(blocked map[[3]int]bool) []byte {
	var out []byte
	for plane := 0; plane < data.Planes; plane++ {
		for x := 0; x < data.RegionSize; x++ {
			for y := 0; y < data.RegionSize; y++ {
				if blocked[[3]int{plane, x, y}] {
					out = append(out, blockedSettings)
				}
				out = append(out, 0)
			}
		}
	}
	return out
}

func TestCollisionFromTerrain(t *testing.T) {
	terrain, err := data.DecodeTerrain(terrainFile(map[[3]int]bool{{0, 5, 6}: true, {2, 1, 1}: true}), 3200, 3200)
	require.NoError(t, err)

	want := data.RegionID(50, 50)
	loads := 0
	loader := func(id int) (*data.Region, error) {
		loads++
		if id != want {
			return nil, nil
		}
		return &data.Region{MapRegion: data.MapRegion{ID: id, X: 3200, Y: 3200}, Terrain: terrain}, nil
	}
	c, err := NewCollision(loader, nil, 4, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, c.Walkable(component.Position{X: 3205, Y: 3206}))
	assert.True(t, c.Walkable(component.Position{X: 3206, Y: 3206}))
	assert.True(t, c.Walkable(component.Position{X: 3205, Y: 3206, Plane: 1}))
	assert.False(t, c.Walkable(component.Position{X: 3201, Y: 3201, Plane: 2}))
	assert.Equal(t, 1, loads, "region decoded once")

	assert.True(t, c.Walkable(component.Position{X: 100, Y: 100}), "no map means open ground")
	assert.True(t, c.Walkable(component.Position{X: 101, Y: 100}))
	assert.Equal(t, 2, loads, "missing regions are remembered")
	assert.Equal(t, 2, c.Resident())

	assert.False(t, c.Walkable(component.Position{X: -1, Y: 0}))
	assert.False(t, c.Walkable(component.Position{X: 3205, Y: 3206, Plane: 4}))
}

func TestCollisionEvictsLeastRecentRegion(t *testing.T) {
	loads := map[int]int{}
	loader := func(id int) (*data.Region, error) {
		loads[id]++
		return nil, errors.New("corrupt")
	}
	c, err := NewCollision(loader, nil, 2, zap.NewNop())
	require.NoError(t, err)

	c.Walkable(component.Position{X: 0, Y: 0})
	c.Walkable(component.Position{X: 64, Y: 0})
	c.Walkable(component.Position{X: 128, Y: 0})
	c.Walkable(component.Position{X: 0, Y: 0})
	assert.Equal(t, 2, loads[data.RegionID(0, 0)])
	assert.Equal(t, 1, loads[data.RegionID(1, 0)])
	assert.Equal(t, 2, c.Resident())
}
