// Package delta wraps the turn engine so callers receive an ordered list
// of incremental changes instead of a full state snapshot. It works by
// taking a deep-enough snapshot of the visible state before a turn,
// running the turn, and diffing the result — callers never have to keep
// their own change-tracking logic in sync with turn/combat/ai.
package delta

import (
	"math/rand"

	"github.com/alexswiontek/dungeon-crawler/internal/gamemap"
	"github.com/alexswiontek/dungeon-crawler/internal/idgen"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
	"github.com/alexswiontek/dungeon-crawler/internal/turn"
)

// Delta is one incremental change to the client's view of a GameState.
// Only the fields relevant to Kind are populated; the rest are zero.
type Delta struct {
	Kind string `json:"kind"`

	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`

	HP            *int          `json:"hp,omitempty"`
	MaxHP         *int          `json:"maxHp,omitempty"`
	Attack        *int          `json:"attack,omitempty"`
	Defense       *int          `json:"defense,omitempty"`
	Level         *int          `json:"level,omitempty"`
	XP            *int          `json:"xp,omitempty"`
	XPToNextLevel *int          `json:"xpToNextLevel,omitempty"`
	Facing        *state.Facing `json:"facing,omitempty"`

	Slot      state.EquipSlot  `json:"slot,omitempty"`
	Equipment *state.Equipment `json:"equipment,omitempty"`

	Score *int `json:"score,omitempty"`

	Tiles []gamemap.Tile `json:"tiles,omitempty"`

	EnemyID string       `json:"enemyId,omitempty"`
	Enemy   *state.Enemy `json:"enemy,omitempty"`

	ItemID string      `json:"itemId,omitempty"`
	Item   *state.Item `json:"item,omitempty"`

	Status *state.Status `json:"status,omitempty"`

	Event      string `json:"event,omitempty"`
	Damage     int    `json:"damage,omitempty"`
	TargetX    *int   `json:"targetX,omitempty"`
	TargetY    *int   `json:"targetY,omitempty"`
	AttackType string `json:"attackType,omitempty"`

	Floor   *int          `json:"floor,omitempty"`
	Map     *gamemap.Map  `json:"map,omitempty"`
	Enemies []state.Enemy `json:"enemies,omitempty"`
	Items   []state.Item  `json:"items,omitempty"`
}

type snapshot struct {
	player  state.Player
	floor   int
	status  state.Status
	score   int
	enemies map[string]state.Enemy
	items   map[string]state.Item
	fog     [][]bool
}

func snap(gs *state.GameState) snapshot {
	s := snapshot{
		player:  gs.Player,
		floor:   gs.Floor,
		status:  gs.Status,
		score:   gs.Score,
		enemies: make(map[string]state.Enemy, len(gs.Enemies)),
		items:   make(map[string]state.Item, len(gs.Items)),
		fog:     state.CloneFog(gs.Fog),
	}
	for _, e := range gs.Enemies {
		s.enemies[e.ID] = e
	}
	for _, it := range gs.Items {
		s.items[it.ID] = it
	}
	return s
}

// Move runs turn.Move and returns the resulting deltas. Stepping onto
// stairs makes turn.Move itself descend, so a move can also return the
// bulk new_floor delta in place of the usual incremental diff.
func Move(gs *state.GameState, dir string, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) ([]Delta, error) {
	before := snap(gs)
	res, err := turn.Move(gs, dir, rng, enemyIDs, itemIDs)
	if err != nil {
		return nil, err
	}
	if res.NewFloor {
		return []Delta{newFloorDelta(gs)}, nil
	}
	return diff(gs, before, res), nil
}

// Attack runs turn.Attack and returns the resulting deltas.
func Attack(gs *state.GameState, dir string) ([]Delta, error) {
	before := snap(gs)
	res, err := turn.Attack(gs, dir)
	if err != nil {
		return nil, err
	}
	return diff(gs, before, res), nil
}

// RangedAttack runs turn.RangedAttack and returns the resulting deltas.
func RangedAttack(gs *state.GameState) ([]Delta, error) {
	before := snap(gs)
	res, err := turn.RangedAttack(gs)
	if err != nil {
		return nil, err
	}
	return diff(gs, before, res), nil
}

// Descend runs turn.Descend and returns the resulting deltas. A
// floor change bulk-resets the client's view rather than emitting
// incremental per-tile deltas.
func Descend(gs *state.GameState, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) ([]Delta, error) {
	before := snap(gs)
	res, err := turn.Descend(gs, rng, enemyIDs, itemIDs)
	if err != nil {
		return nil, err
	}
	if !res.NewFloor {
		return diff(gs, before, res), nil
	}
	return []Delta{newFloorDelta(gs)}, nil
}

// newFloorDelta builds the bulk client-view reset sent whenever a turn
// generates a new floor, whether triggered by Descend directly or by
// Move stepping onto the stairs. It carries only fog-revealed tiles and
// visible entities, never the whole map.
func newFloorDelta(gs *state.GameState) Delta {
	floor := gs.Floor
	return Delta{
		Kind:    "new_floor",
		Floor:   &floor,
		Tiles:   visibleTiles(gs),
		Enemies: visibleEnemies(gs),
		Items:   visibleItems(gs),
		Status:  statusPtr(gs.Status),
	}
}

func diff(gs *state.GameState, before snapshot, res turn.Result) []Delta {
	var out []Delta

	if gs.Player.X != before.player.X || gs.Player.Y != before.player.Y {
		out = append(out, Delta{Kind: "player_pos", X: intPtr(gs.Player.X), Y: intPtr(gs.Player.Y)})
	}

	if statsDelta, changed := playerStatsDelta(before.player, gs.Player); changed {
		out = append(out, statsDelta)
	}

	if before.player.Equipment != gs.Player.Equipment {
		for _, slot := range []state.EquipSlot{state.SlotWeapon, state.SlotShield, state.SlotArmor, state.SlotRanged} {
			oldEq := before.player.Equipment.Get(slot)
			newEq := gs.Player.Equipment.Get(slot)
			if oldEq.ID != newEq.ID {
				eq := newEq
				out = append(out, Delta{Kind: "player_equipment", Slot: slot, Equipment: &eq})
			}
		}
	}

	if gs.Score != before.score {
		out = append(out, Delta{Kind: "score", Score: intPtr(gs.Score)})
	}

	newlyRevealed := newlyRevealedTiles(gs, before.fog)
	if len(newlyRevealed) > 0 {
		out = append(out, Delta{Kind: "fog_reveal"})
		out = append(out, Delta{Kind: "tiles_reveal", Tiles: newlyRevealed})
	}

	out = append(out, enemyDeltas(gs, before)...)
	out = append(out, itemDeltas(gs, before)...)

	if gs.Status != before.status {
		out = append(out, Delta{Kind: "game_status", Status: statusPtr(gs.Status)})
	}

	for _, ev := range res.CombatEvents {
		d := Delta{Kind: "event", Event: ev.Kind, EnemyID: ev.EnemyID, Damage: ev.Damage, AttackType: ev.AttackType}
		if ev.Kind == "ranged_attack" || ev.Kind == "ranged_missed" {
			d.TargetX, d.TargetY = intPtr(ev.TargetX), intPtr(ev.TargetY)
		}
		out = append(out, d)
	}
	for _, ev := range res.AIEvents {
		out = append(out, Delta{Kind: "event", Event: ev.Kind, EnemyID: ev.EnemyID, Damage: ev.Damage})
	}

	return out
}

func playerStatsDelta(oldP, newP state.Player) (Delta, bool) {
	d := Delta{Kind: "player_stats"}
	changed := false
	if oldP.HP != newP.HP {
		d.HP = intPtr(newP.HP)
		changed = true
	}
	if oldP.MaxHP != newP.MaxHP {
		d.MaxHP = intPtr(newP.MaxHP)
		changed = true
	}
	if oldP.Attack != newP.Attack {
		d.Attack = intPtr(newP.Attack)
		changed = true
	}
	if oldP.Defense != newP.Defense {
		d.Defense = intPtr(newP.Defense)
		changed = true
	}
	if oldP.Level != newP.Level {
		d.Level = intPtr(newP.Level)
		changed = true
	}
	if oldP.XP != newP.XP {
		d.XP = intPtr(newP.XP)
		changed = true
	}
	if oldP.XPToNextLevel != newP.XPToNextLevel {
		d.XPToNextLevel = intPtr(newP.XPToNextLevel)
		changed = true
	}
	if oldP.Facing != newP.Facing {
		f := newP.Facing
		d.Facing = &f
		changed = true
	}
	return d, changed
}

func enemyDeltas(gs *state.GameState, before snapshot) []Delta {
	var out []Delta
	for i := range gs.Enemies {
		e := gs.Enemies[i]
		wasVisible := before.fog[e.Y][e.X]
		isVisible := gs.Fog[e.Y][e.X]
		old, existed := before.enemies[e.ID]
		if !existed {
			continue
		}

		switch {
		case !e.Alive() && old.Alive():
			out = append(out, Delta{Kind: "enemy_killed", EnemyID: e.ID})
			continue
		case isVisible && !wasVisible:
			ev := e
			out = append(out, Delta{Kind: "enemy_visible", EnemyID: e.ID, Enemy: &ev})
			continue
		case !isVisible && wasVisible:
			out = append(out, Delta{Kind: "enemy_hidden", EnemyID: e.ID})
			continue
		}

		if !isVisible {
			continue
		}
		if e.X != old.X || e.Y != old.Y {
			out = append(out, Delta{Kind: "enemy_moved", EnemyID: e.ID, X: intPtr(e.X), Y: intPtr(e.Y)})
		}
		if e.HP != old.HP {
			out = append(out, Delta{Kind: "enemy_damaged", EnemyID: e.ID, HP: intPtr(e.HP)})
		}
	}
	return out
}

func itemDeltas(gs *state.GameState, before snapshot) []Delta {
	var out []Delta
	for id, old := range before.items {
		if gs.ItemByID(id) == nil {
			out = append(out, Delta{Kind: "item_removed", ItemID: old.ID})
		}
	}
	for i := range gs.Items {
		it := gs.Items[i]
		wasVisible := before.fog[it.Y][it.X]
		isVisible := gs.Fog[it.Y][it.X]
		if isVisible && !wasVisible {
			iv := it
			out = append(out, Delta{Kind: "item_visible", ItemID: it.ID, Item: &iv})
		}
	}
	return out
}

func newlyRevealedTiles(gs *state.GameState, oldFog [][]bool) []gamemap.Tile {
	var tiles []gamemap.Tile
	for y := 0; y < gs.Map.Height; y++ {
		for x := 0; x < gs.Map.Width; x++ {
			if gs.Fog[y][x] && !oldFog[y][x] {
				tiles = append(tiles, gs.Map.At(x, y))
			}
		}
	}
	return tiles
}

func visibleTiles(gs *state.GameState) []gamemap.Tile {
	var tiles []gamemap.Tile
	for y := 0; y < gs.Map.Height; y++ {
		for x := 0; x < gs.Map.Width; x++ {
			if gs.Fog[y][x] {
				tiles = append(tiles, gs.Map.At(x, y))
			}
		}
	}
	return tiles
}

func visibleEnemies(gs *state.GameState) []state.Enemy {
	var out []state.Enemy
	for _, e := range gs.Enemies {
		if e.Alive() && gs.Fog[e.Y][e.X] {
			out = append(out, e)
		}
	}
	return out
}

func visibleItems(gs *state.GameState) []state.Item {
	var out []state.Item
	for _, it := range gs.Items {
		if gs.Fog[it.Y][it.X] {
			out = append(out, it)
		}
	}
	return out
}

func intPtr(v int) *int             { return &v }
func statusPtr(s state.Status) *state.Status { return &s }
