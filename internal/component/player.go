package component

import "github.com/oldscape/server/internal/core/ecs"

// Player identifies a player entity on the wire.
type Player struct {
	Index    int // 1-2046, slot in the player list
	Name     string
	NameHash uint64
}

// Position is an absolute tile.
type Position struct {
	X, Y  int
	Plane int
}

// Movement is a player's walking state. Directions are -1 when the player did
// not take that step this tick.
type Movement struct {
	Path     []Position // tiles still to visit, nearest first
	Running  bool       // run toggle from the client
	RunPath  bool       // current path was requested with ctrl held
	Teleport *Position

	WalkDir    int
	RunDir     int
	Teleported bool

	// Region is the map region the client has loaded, as the chunk
	// coordinates last sent in LoadMapRegion.
	RegionX, RegionY int
	RegionChanged    bool
}

// Appearance is the look sent in the appearance block.
type Appearance struct {
	Gender      byte
	HeadIcon    byte
	Styles      [7]byte
	Colors      [5]byte
	CombatLevel byte
	SkillTotal  uint16
}

// ChatMessage is a public chat line waiting to be sent in the chat block.
type ChatMessage struct {
	Effects byte
	Color   byte
	Rights  byte
	Text    []byte // compressed
}

// Update collects the update blocks raised this tick.
type Update struct {
	Appearance bool
	Chat       *ChatMessage
}

// Viewport is what a client currently tracks, in the order it was told.
type Viewport struct {
	Players []ecs.EntityID
	Npcs    []int // NPC indices
}

// Skills holds levels and experience for the 21 skills.
type Skills struct {
	Levels     [SkillCount]byte
	Experience [SkillCount]uint32
}

const SkillCount = 21
