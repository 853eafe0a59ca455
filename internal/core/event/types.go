package event

import "github.com/oldscape/server/internal/core/ecs"

// PlayerLoggedIn is emitted once a player entity has joined the world.
type PlayerLoggedIn struct {
	Entity ecs.EntityID
	Name   string
}

// PlayerLoggedOut is emitted as a player entity is removed.
type PlayerLoggedOut struct {
	Entity ecs.EntityID
	Name   string
}

// PrivacyChanged is emitted when a player changes their private chat setting.
type PrivacyChanged struct {
	Entity ecs.EntityID
	Name   string
}
