package world

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/oldscape/server/internal/component"
	"github.com/oldscape/server/internal/data"
)

// RegionLoader returns the decoded map region with the given id, or nil and
// no error when the map index has no such region.
type RegionLoader func(regionID int) (*data.Region, error)

// Object placement types that occupy their whole footprint.
const (
	objectInteractable = 10
	objectDiagonal     = 11
)

// clipMap is the walkability of one 64x64 region on every plane.
type clipMap struct {
	blocked [data.Planes][data.RegionSize][data.RegionSize]bool
}

// Collision answers walkability questions from cache map data. Decoded
// regions are kept in an LRU so only the areas players visit stay resident.
type Collision struct {
	load    RegionLoader
	objects *data.ObjectTable
	regions *lru.Cache[int, *clipMap]
	log     *zap.Logger
}

// NewCollision builds a collision map holding at most size decoded regions.
// objects may be nil, in which case only terrain blocks movement.
func NewCollision(load RegionLoader, objects *data.ObjectTable, size int, log *zap.Logger) (*Collision, error) {
	cache, err := lru.New[int, *clipMap](size)
	if err != nil {
		return nil, fmt.Errorf("region cache: %w", err)
	}
	return &Collision{load: load, objects: objects, regions: cache, log: log}, nil
}

// Walkable reports whether a player may stand on p. Tiles in regions the
// cache has no map for are open.
func (c *Collision) Walkable(p component.Position) bool {
	if p.X < 0 || p.Y < 0 || p.Plane < 0 || p.Plane >= data.Planes {
		return false
	}
	clip := c.region(data.RegionID(p.X>>6, p.Y>>6))
	if clip == nil {
		return true
	}
	return !clip.blocked[p.Plane][p.X&63][p.Y&63]
}

// Resident returns the number of decoded regions held.
func (c *Collision) Resident() int { return c.regions.Len() }

func (c *Collision) region(id int) *clipMap {
	if clip, ok := c.regions.Get(id); ok {
		return clip
	}
	region, err := c.load(id)
	if err != nil {
		c.log.Warn("map region unavailable", zap.Int("region", id), zap.Error(err))
	}
	var clip *clipMap
	if region != nil {
		clip = c.build(region)
	}
	// Misses are cached too so a bad region is only reported once.
	c.regions.Add(id, clip)
	return clip
}

func (c *Collision) build(r *data.Region) *clipMap {
	clip := &clipMap{}
	for plane := 0; plane < data.Planes; plane++ {
		for x := 0; x < data.RegionSize; x++ {
			for y := 0; y < data.RegionSize; y++ {
				clip.blocked[plane][x][y] = !r.Terrain.Walkable(plane, x, y)
			}
		}
	}
	if c.objects == nil {
		return clip
	}
	for _, o := range r.Objects {
		if o.Type != objectInteractable && o.Type != objectDiagonal {
			continue
		}
		def := c.objects.Get(o.ID)
		if def == nil || !def.Solid {
			continue
		}
		plane := o.Plane
		if r.Terrain.Bridge(1, o.X, o.Y) {
			plane--
		}
		if plane < 0 {
			continue
		}
		w, l := def.Width, def.Length
		if o.Orientation&1 == 1 {
			w, l = l, w
		}
		for dx := 0; dx < w; dx++ {
			for dy := 0; dy < l; dy++ {
				x, y := o.X+dx, o.Y+dy
				if x < data.RegionSize && y < data.RegionSize {
					clip.blocked[plane][x][y] = true
				}
			}
		}
	}
	return clip
}
