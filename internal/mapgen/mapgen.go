// Package mapgen procedurally generates one dungeon floor: rooms connected
// by L-shaped corridors, with enemies, potions, and equipment seeded into
// the result. Rooms are placed as random rectangles with an overlap/retry
// loop rather than split from a binary-space-partition tree.
package mapgen

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/alexswiontek/dungeon-crawler/internal/bestiary"
	"github.com/alexswiontek/dungeon-crawler/internal/equipment"
	"github.com/alexswiontek/dungeon-crawler/internal/gamemap"
	"github.com/alexswiontek/dungeon-crawler/internal/idgen"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

const (
	maxRoomAttempts  = 100
	minRooms         = 5
	maxRooms         = 8
	roomMinWidth     = 4
	roomMaxWidth     = 8
	roomMinHeight    = 4
	roomMaxHeight    = 6
	maxGenerateRetry = 10
)

// Result is the output of one floor generation: the map, the player's
// landing cell, and the entities seeded into it.
type Result struct {
	Map         *gamemap.Map
	PlayerStart state.Point
	Enemies     []state.Enemy
	Items       []state.Item
}

// Generate builds floor number f for the given character kind. rng drives
// all placement and seeding decisions; enemyIDs/itemIDs mint opaque ids.
func Generate(f int, character state.CharacterKind, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxGenerateRetry; attempt++ {
		res, err := generateOnce(f, character, rng, enemyIDs, itemIDs)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("mapgen: floor %d: %w (after %d attempts)", f, lastErr, maxGenerateRetry)
}

func generateOnce(f int, character state.CharacterKind, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) (*Result, error) {
	m := gamemap.New(gamemap.Width, gamemap.Height)

	rooms := placeRooms(m, rng)
	if len(rooms) < 2 {
		return nil, fmt.Errorf("generated only %d rooms, need at least 2", len(rooms))
	}

	// Stable sort by cx + 0.5*cy.
	sort.SliceStable(rooms, func(i, j int) bool {
		return roomKey(rooms[i]) < roomKey(rooms[j])
	})

	for i := range rooms {
		m.CarveRoom(rooms[i])
	}
	for i := 0; i+1 < len(rooms); i++ {
		carveLCorridor(m, rooms[i], rooms[i+1], rng)
	}
	// Guarantee reachability of the stairs regardless of the chain above.
	carveLCorridor(m, rooms[0], rooms[len(rooms)-1], rng)

	m.Rooms = rooms

	sx, sy := rooms[len(rooms)-1].Center()
	m.Set(sx, sy, gamemap.TileStairs)

	px, py := rooms[0].Center()

	enemies := seedEnemies(m, f, rng, enemyIDs)
	items := seedItems(m, f, character, rng, itemIDs)

	return &Result{
		Map:         m,
		PlayerStart: state.Point{X: px, Y: py},
		Enemies:     enemies,
		Items:       items,
	}, nil
}

func roomKey(r gamemap.Rect) float64 {
	cx, cy := r.Center()
	return float64(cx) + 0.5*float64(cy)
}

// placeRooms attempts up to maxRoomAttempts random placements, accepting a
// room iff it fits inside the border and does not overlap any accepted
// room inflated by 1 tile on each side. Stops once maxRooms are accepted.
func placeRooms(m *gamemap.Map, rng *rand.Rand) []gamemap.Rect {
	var rooms []gamemap.Rect
	for attempt := 0; attempt < maxRoomAttempts && len(rooms) < maxRooms; attempt++ {
		width := roomMinWidth + rng.Intn(roomMaxWidth-roomMinWidth+1)
		height := roomMinHeight + rng.Intn(roomMaxHeight-roomMinHeight+1)
		x := 1 + rng.Intn(m.Width-10)
		y := 1 + rng.Intn(m.Height-8)

		room := gamemap.Rect{X1: x, Y1: y, X2: x + width - 1, Y2: y + height - 1}
		if room.X2 > m.Width-2 || room.Y2 > m.Height-2 {
			continue
		}

		ok := true
		for _, other := range rooms {
			if room.Intersects(other.Inflated(1)) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// carveLCorridor digs an L-shaped tunnel between a.Center() and b.Center():
// a horizontal span at a's row, then a vertical span at b's column.
func carveLCorridor(m *gamemap.Map, a, b gamemap.Rect, rng *rand.Rand) {
	ax, ay := a.Center()
	bx, by := b.Center()
	m.CarveH(ax, bx, ay)
	m.CarveV(ay, by, bx)
	_ = rng
}

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// randomInteriorCell picks a random cell strictly inside room (never on its
// border), falling back to the full room for rooms too small to have an
// interior.
func randomInteriorCell(room gamemap.Rect, rng *rand.Rand) (int, int) {
	x1, y1, x2, y2 := room.X1+1, room.Y1+1, room.X2-1, room.Y2-1
	if x1 > x2 || y1 > y2 {
		x1, y1, x2, y2 = room.X1, room.Y1, room.X2, room.Y2
	}
	x := x1 + rng.Intn(x2-x1+1)
	y := y1 + rng.Intn(y2-y1+1)
	return x, y
}

func seedEnemies(m *gamemap.Map, f int, rng *rand.Rand, ids *idgen.Generator) []state.Enemy {
	count := randInt(rng, 3, 5) + f/2
	kinds := bestiary.PermissibleKinds(f)
	nonFirstRooms := m.Rooms[1:]
	if len(nonFirstRooms) == 0 {
		nonFirstRooms = m.Rooms
	}

	occupied := make(map[state.Point]bool)
	var enemies []state.Enemy
	for i := 0; i < count; i++ {
		room := nonFirstRooms[rng.Intn(len(nonFirstRooms))]
		x, y := pickFree(room, rng, occupied)
		occupied[state.Point{X: x, Y: y}] = true

		kind := kinds[rng.Intn(len(kinds))]
		variant := bestiary.RollVariant(f, rng)
		enemies = append(enemies, bestiary.Spawn(ids.Next(), kind, variant, x, y, rng))
	}
	return enemies
}

func seedItems(m *gamemap.Map, f int, character state.CharacterKind, rng *rand.Rand, ids *idgen.Generator) []state.Item {
	occupied := make(map[state.Point]bool)
	var items []state.Item

	potionCount := randInt(rng, 1, 3)
	for i := 0; i < potionCount; i++ {
		room := m.Rooms[rng.Intn(len(m.Rooms))]
		x, y := pickFree(room, rng, occupied)
		occupied[state.Point{X: x, Y: y}] = true
		items = append(items, state.Item{
			ID:    ids.Next(),
			Kind:  state.ItemHealthPotion,
			X:     x,
			Y:     y,
			Value: 10,
		})
	}

	equipCount := randInt(rng, 1, 2)
	templates := equipment.ForFloor(f+1, character)
	if len(templates) > 0 {
		for i := 0; i < equipCount; i++ {
			room := m.Rooms[rng.Intn(len(m.Rooms))]
			x, y := pickFree(room, rng, occupied)
			occupied[state.Point{X: x, Y: y}] = true
			t := templates[rng.Intn(len(templates))]
			eqID := ids.Next()
			eq := equipment.Instantiate(t, eqID)
			items = append(items, state.Item{
				ID:        ids.Next(),
				Kind:      state.ItemEquipment,
				X:         x,
				Y:         y,
				Equipment: &eq,
			})
		}
	}
	return items
}

// pickFree tries up to 20 times to find an unoccupied interior cell in
// room, falling back to any interior cell for very crowded rooms.
func pickFree(room gamemap.Rect, rng *rand.Rand, occupied map[state.Point]bool) (int, int) {
	const maxAttempts = 20
	for i := 0; i < maxAttempts; i++ {
		x, y := randomInteriorCell(room, rng)
		if !occupied[state.Point{X: x, Y: y}] {
			return x, y
		}
	}
	return randomInteriorCell(room, rng)
}
