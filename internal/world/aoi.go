package world

import "github.com/oldscape/server/internal/core/ecs"

const cellSize = ViewDistance + 1

type cellKey struct {
	plane  int
	cx, cy int
}

func toCellCoord(v int) int {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// AOIGrid buckets entities into cells so viewport scans only look at nearby
// cells. A cell is wider than ViewDistance, so the 3x3 neighbourhood of a
// cell covers the whole view. Game loop only.
type AOIGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{cells: make(map[cellKey]map[ecs.EntityID]struct{})}
}

func (g *AOIGrid) key(x, y, plane int) cellKey {
	return cellKey{plane: plane, cx: toCellCoord(x), cy: toCellCoord(y)}
}

func (g *AOIGrid) Add(id ecs.EntityID, x, y, plane int) {
	k := g.key(x, y, plane)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *AOIGrid) Remove(id ecs.EntityID, x, y, plane int) {
	k := g.key(x, y, plane)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move updates an entity's cell when its position changes.
func (g *AOIGrid) Move(id ecs.EntityID, oldX, oldY, oldPlane, newX, newY, newPlane int) {
	if g.key(oldX, oldY, oldPlane) == g.key(newX, newY, newPlane) {
		return
	}
	g.Remove(id, oldX, oldY, oldPlane)
	g.Add(id, newX, newY, newPlane)
}

// Nearby returns every entity in the 3x3 cells around a position. Callers
// filter by exact distance.
func (g *AOIGrid) Nearby(x, y, plane int) []ecs.EntityID {
	cx, cy := toCellCoord(x), toCellCoord(y)
	var result []ecs.EntityID
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for id := range g.cells[cellKey{plane: plane, cx: cx + dx, cy: cy + dy}] {
				result = append(result, id)
			}
		}
	}
	return result
}
