// Package combat resolves melee and ranged attacks, item pickups, and the
// kill/level-up effects that follow a killing blow. Every resolver mutates
// a *state.GameState in place and returns the event(s) that occurred so
// callers (the turn engine, the delta engine) can react without re-deriving
// what happened.
package combat

import (
	"github.com/alexswiontek/dungeon-crawler/internal/bestiary"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

// Event names one thing that happened during attack resolution.
type Event struct {
	Kind       string // "melee_hit", "ranged_attack", "ranged_missed", "enemy_killed", "level_up"
	EnemyID    string
	Damage     int
	NewLevel   int
	TargetX    int
	TargetY    int
	AttackType string
}

// MeleeAttack resolves a melee strike in dir against whatever live enemy
// occupies the target cell, if any. dir must be one of "up","down","left","right".
// Damage is max(1, attack-defense). Facing updates on horizontal intents
// regardless of whether an enemy was present.
func MeleeAttack(gs *state.GameState, dir string) []Event {
	var events []Event
	switch dir {
	case "left":
		gs.Player.Facing = state.FacingLeft
	case "right":
		gs.Player.Facing = state.FacingRight
	}

	tx, ty := targetCell(gs.Player.X, gs.Player.Y, dir)
	enemy := gs.EnemyByID(gs.LiveEnemyAt(tx, ty))
	if enemy == nil {
		return events
	}

	dmg := max(1, gs.Player.Attack-enemy.Defense)
	enemy.HP -= dmg
	events = append(events, Event{Kind: "melee_hit", EnemyID: enemy.ID, Damage: dmg})

	if !enemy.Alive() {
		events = append(events, killEnemy(gs, enemy)...)
	}
	return events
}

// RangedAttack fires along the player's current facing, scanning cells out
// to the player's effective ranged range. It stops at the first wall or
// live enemy; a wall yields a miss, an enemy yields a hit. attackType is
// the firing character's ranged attack type (see character.Def), carried
// on the event so clients can pick the right projectile animation.
func RangedAttack(gs *state.GameState, rangedDamage, rangedRange int, attackType string) []Event {
	dx := 1
	if gs.Player.Facing == state.FacingLeft {
		dx = -1
	}

	x, y := gs.Player.X, gs.Player.Y
	for step := 1; step <= rangedRange; step++ {
		x += dx
		if !gs.Map.InBounds(x, y) {
			return []Event{{Kind: "ranged_missed", TargetX: x, TargetY: y, AttackType: attackType}}
		}
		if gs.Map.At(x, y).Blocking() {
			return []Event{{Kind: "ranged_missed", TargetX: x, TargetY: y, AttackType: attackType}}
		}
		if enemy := gs.EnemyByID(gs.LiveEnemyAt(x, y)); enemy != nil {
			dmg := max(1, rangedDamage-enemy.Defense)
			enemy.HP -= dmg
			events := []Event{{Kind: "ranged_attack", EnemyID: enemy.ID, Damage: dmg, TargetX: x, TargetY: y, AttackType: attackType}}
			if !enemy.Alive() {
				events = append(events, killEnemy(gs, enemy)...)
			}
			return events
		}
	}
	return []Event{{Kind: "ranged_missed", TargetX: x, TargetY: y, AttackType: attackType}}
}

// killEnemy awards score/xp for enemy's death and runs the level-up loop.
// enemy must already have HP <= 0.
func killEnemy(gs *state.GameState, enemy *state.Enemy) []Event {
	events := []Event{{Kind: "enemy_killed", EnemyID: enemy.ID}}

	score, xp := bestiary.KillReward(enemy.Type, enemy.Variant)
	gs.Score += score
	gs.Player.XP += xp

	for gs.Player.XP >= gs.Player.XPToNextLevel {
		gs.Player.XP -= gs.Player.XPToNextLevel
		gs.Player.Level++
		gs.Player.MaxHP += 3
		gs.Player.Attack++
		gs.Player.Defense++
		gs.Player.HP += gs.Player.MaxHP / 2
		if gs.Player.HP > gs.Player.MaxHP {
			gs.Player.HP = gs.Player.MaxHP
		}
		gs.Player.XPToNextLevel = state.XPToNextLevel(gs.Player.Level)
		events = append(events, Event{Kind: "level_up", NewLevel: gs.Player.Level})
	}
	return events
}

// PickUp resolves walking onto an item: potions heal (refusing if already
// at max HP), equipment auto-equips if it is strictly better than what is
// currently worn in its slot. Returns true if the item was consumed.
func PickUp(gs *state.GameState, item *state.Item) (consumed bool) {
	switch item.Kind {
	case state.ItemHealthPotion:
		if gs.Player.HP >= gs.Player.MaxHP {
			return false
		}
		gs.Player.HP += item.Value
		if gs.Player.HP > gs.Player.MaxHP {
			gs.Player.HP = gs.Player.MaxHP
		}
		gs.RemoveItem(item.ID)
		return true

	case state.ItemEquipment:
		if item.Equipment == nil {
			return false
		}
		current := gs.Player.Equipment.Get(item.Equipment.Slot)
		if !current.IsEmpty() && current.BonusSum() >= item.Equipment.BonusSum() {
			return false
		}
		gs.Player.Equipment.Set(item.Equipment.Slot, *item.Equipment)
		gs.RemoveItem(item.ID)
		return true
	}
	return false
}

func targetCell(x, y int, dir string) (int, int) {
	switch dir {
	case "up":
		return x, y - 1
	case "down":
		return x, y + 1
	case "left":
		return x - 1, y
	case "right":
		return x + 1, y
	}
	return x, y
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
