package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcSpawn places one NPC in the world.
type NpcSpawn struct {
	NpcID  int `yaml:"npc_id"`
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Plane  int `yaml:"plane"`
	Radius int `yaml:"radius"` // wander distance, 0 = stationary
}

type spawnListFile struct {
	Spawns []NpcSpawn `yaml:"spawns"`
}

// LoadSpawnList reads NPC spawns from a YAML file.
func LoadSpawnList(path string) ([]NpcSpawn, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	for i, s := range f.Spawns {
		if s.Plane < 0 || s.Plane >= Planes || s.Radius < 0 {
			return nil, fmt.Errorf("spawn list entry %d: bad plane %d or radius %d", i, s.Plane, s.Radius)
		}
	}
	return f.Spawns, nil
}
