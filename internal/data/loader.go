package data

import (
	"fmt"

	"github.com/oldscape/server/internal/cache"
)

// Definitions is the full set of tables decoded at startup.
type Definitions struct {
	Items   *ItemTable
	Objects *ObjectTable
	Npcs    *NpcTable
	Maps    *MapIndex
}

// Load decodes every definition table from the cache. Any failure is fatal to
// the load; there is no partial result.
func Load(store *cache.Store) (*Definitions, error) {
	config, err := store.Archive(cache.IndexArchives, cache.ArchiveConfig)
	if err != nil {
		return nil, fmt.Errorf("config archive: %w", err)
	}
	versions, err := store.Archive(cache.IndexArchives, cache.ArchiveVersionList)
	if err != nil {
		return nil, fmt.Errorf("version list archive: %w", err)
	}

	var defs Definitions
	if defs.Items, err = decodeEntries(config, "obj", DecodeItems); err != nil {
		return nil, err
	}
	if defs.Objects, err = decodeEntries(config, "loc", DecodeObjects); err != nil {
		return nil, err
	}
	if defs.Npcs, err = decodeEntries(config, "npc", DecodeNpcs); err != nil {
		return nil, err
	}
	mapIndex, err := versions.Entry("map_index")
	if err != nil {
		return nil, err
	}
	if defs.Maps, err = DecodeMapIndex(mapIndex); err != nil {
		return nil, err
	}
	return &defs, nil
}

func decodeEntries[T any](a *cache.Archive, name string, decode func(dat, idx []byte) (*T, error)) (*T, error) {
	dat, err := a.Entry(name + ".dat")
	if err != nil {
		return nil, err
	}
	idx, err := a.Entry(name + ".idx")
	if err != nil {
		return nil, err
	}
	return decode(dat, idx)
}

// Region is the decoded terrain and object placements of one map region.
type Region struct {
	MapRegion
	Terrain *Terrain
	Objects []MapObject
}

// LoadRegion reads and decodes both map files of a region.
func LoadRegion(store *cache.Store, m MapRegion) (*Region, error) {
	raw, err := store.File(cache.IndexMaps, m.TerrainFile)
	if err != nil {
		return nil, fmt.Errorf("region %d terrain: %w", m.ID, err)
	}
	terrain, err := DecodeTerrain(raw, m.X, m.Y)
	if err != nil {
		return nil, fmt.Errorf("region %d: %w", m.ID, err)
	}
	raw, err = store.File(cache.IndexMaps, m.ObjectFile)
	if err != nil {
		return nil, fmt.Errorf("region %d objects: %w", m.ID, err)
	}
	objects, err := DecodeMapObjects(raw)
	if err != nil {
		return nil, fmt.Errorf("region %d: %w", m.ID, err)
	}
	return &Region{MapRegion: m, Terrain: terrain, Objects: objects}, nil
}
