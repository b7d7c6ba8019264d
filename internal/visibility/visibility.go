// Package visibility computes fog-of-war reveal and line-of-sight checks
// shared by the delta engine (what the client gets to see) and the enemy
// AI (what an enemy can see of the player). Fog is monotonic: once a tile
// is revealed on a floor it stays revealed until the floor changes.
package visibility

import "github.com/alexswiontek/dungeon-crawler/internal/gamemap"

// Radius is the player's fixed fog-of-war reveal radius in tiles.
const Radius = 5

// Reveal marks every tile within Radius of (px, py) visible in fog. It
// never clears a previously-revealed tile.
func Reveal(fog [][]bool, m *gamemap.Map, px, py int) {
	r2 := Radius * Radius
	minX, maxX := px-Radius, px+Radius
	minY, maxY := py-Radius, py+Radius
	for y := minY; y <= maxY; y++ {
		if y < 0 || y >= m.Height {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < 0 || x >= m.Width {
				continue
			}
			dx, dy := x-px, y-py
			if dx*dx+dy*dy > r2 {
				continue
			}
			fog[y][x] = true
		}
	}
}

// HasLineOfSight reports whether a straight Bresenham line from (x0,y0) to
// (x1,y1) is unobstructed by any wall tile strictly between the endpoints.
func HasLineOfSight(m *gamemap.Map, x0, y0, x1, y1 int) bool {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	// Deadlock guard: a Bresenham walk between two in-bounds points never
	// needs more steps than the map's width plus its height.
	maxSteps := m.Width + m.Height
	for step := 0; step <= maxSteps; step++ {
		if x == x1 && y == y1 {
			return true
		}
		if !(x == x0 && y == y0) {
			if !m.InBounds(x, y) || m.At(x, y).Blocking() {
				return false
			}
		}
		e2 := 2 * err
		moved := false
		if e2 >= dy {
			err += dy
			x += sx
			moved = true
		}
		if e2 <= dx {
			err += dx
			y += sy
			moved = true
		}
		if !moved {
			break
		}
	}
	return x == x1 && y == y1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
