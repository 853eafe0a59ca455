package world

import "github.com/oldscape/server/internal/component"

// ViewDistance is how far away, in tiles, another player stays in view.
const ViewDistance = 15

// Directions in the order the client indexes them.
const (
	DirNone = -1
	DirNW   = 0
	DirN    = 1
	DirNE   = 2
	DirW    = 3
	DirE    = 4
	DirSW   = 5
	DirS    = 6
	DirSE   = 7
)

var dirDeltas = [8][2]int{
	{-1, 1}, {0, 1}, {1, 1},
	{-1, 0}, {1, 0},
	{-1, -1}, {0, -1}, {1, -1},
}

// Direction returns the direction of a single step, or DirNone if the delta
// is not one.
func Direction(dx, dy int) int {
	for i, d := range dirDeltas {
		if d[0] == dx && d[1] == dy {
			return i
		}
	}
	return DirNone
}

// Delta returns the step taken in a direction.
func Delta(dir int) (dx, dy int) {
	d := dirDeltas[dir]
	return d[0], d[1]
}

// Chunk returns the 8x8 chunk coordinates the client uses for map regions.
func Chunk(p component.Position) (int, int) {
	return p.X >> 3, p.Y >> 3
}

// Local returns a position relative to the loaded map region whose centre
// chunk is (regionX, regionY).
func Local(p component.Position, regionX, regionY int) (int, int) {
	return p.X - 8*(regionX-6), p.Y - 8*(regionY-6)
}

// NeedsRegion reports whether p has come close enough to the edge of the
// loaded region that the client must load a new one.
func NeedsRegion(p component.Position, regionX, regionY int) bool {
	x, y := Local(p, regionX, regionY)
	return x < 16 || x >= 88 || y < 16 || y >= 88
}

// WithinDistance reports whether b is on a's plane and at most d tiles away
// on both axes.
func WithinDistance(a, b component.Position, d int) bool {
	if a.Plane != b.Plane {
		return false
	}
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -d && dx <= d && dy >= -d && dy <= d
}

// Step moves p one tile in dir.
func Step(p component.Position, dir int) component.Position {
	dx, dy := Delta(dir)
	return component.Position{X: p.X + dx, Y: p.Y + dy, Plane: p.Plane}
}

// Interpolate expands waypoints into single tile steps starting from p. Each
// leg runs diagonally first and then straight, and the result is capped at
// limit tiles.
func Interpolate(from component.Position, waypoints [][2]int, limit int) []component.Position {
	path := make([]component.Position, 0, limit)
	cur := from
	for _, wp := range waypoints {
		for cur.X != wp[0] || cur.Y != wp[1] {
			if len(path) == limit {
				return path
			}
			cur.X += sign(wp[0] - cur.X)
			cur.Y += sign(wp[1] - cur.Y)
			path = append(path, cur)
		}
	}
	return path
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
