// Package bestiary holds the table-driven base stats, variant scaling, and
// default AI behavior for every enemy type. Both the map generator (spawn
// time) and the combat package (kill rewards) read from this one table so
// the numbers never drift apart.
package bestiary

import (
	"math"
	"math/rand"

	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

// baseStats is one enemy type's unscaled stats and the behavior it spawns with.
type baseStats struct {
	HP       int
	Attack   int
	Defense  int
	XP       int
	Score    int
	Behavior state.Behavior
}

// Table holds the base stats for every enemy type.
var Table = map[state.EnemyKind]baseStats{
	state.EnemyRat:      {HP: 6, Attack: 4, Defense: 0, XP: 8, Score: 10, Behavior: state.BehaviorFlee},
	state.EnemySkeleton: {HP: 15, Attack: 8, Defense: 2, XP: 30, Score: 25, Behavior: state.BehaviorAggressive},
	state.EnemyOrc:      {HP: 25, Attack: 13, Defense: 4, XP: 60, Score: 50, Behavior: state.BehaviorAggressive},
	state.EnemyDragon:   {HP: 45, Attack: 20, Defense: 8, XP: 200, Score: 200, Behavior: state.BehaviorAggressive},
}

// orderedKinds is the fixed progression used to pick permissible kinds per floor.
var orderedKinds = []state.EnemyKind{state.EnemyRat, state.EnemySkeleton, state.EnemyOrc, state.EnemyDragon}

// PermissibleKinds returns the kinds spawnable on the given floor: the first
// min(1+floor(f/3), 4) entries of the ordered progression.
func PermissibleKinds(floor int) []state.EnemyKind {
	n := 1 + floor/3
	if n > len(orderedKinds) {
		n = len(orderedKinds)
	}
	return orderedKinds[:n]
}

// variantMult holds the (hp, attack, defense, xp) multipliers and the
// display-name prefix for one variant.
type variantMult struct {
	HP, Attack, Defense, XP float64
	Prefix                  string
}

var variantMults = map[state.EnemyVariant]variantMult{
	state.VariantNormal:   {1, 1, 1, 1, ""},
	state.VariantElite:    {1.5, 1.5, 1.2, 2.5, "Elite "},
	state.VariantChampion: {2.5, 1.8, 1.5, 4, "Champion "},
}

// RollVariant picks normal/elite/champion for a spawn on the given floor.
//
//	championChance = clamp((f-1)*0.04, 0, 0.20)
//	eliteChance    = clamp(0.10 + f*0.05, 0, 0.40)
func RollVariant(floor int, rng *rand.Rand) state.EnemyVariant {
	championChance := clamp(float64(floor-1)*0.04, 0, 0.20)
	eliteChance := clamp(0.10+float64(floor)*0.05, 0, 0.40)
	roll := rng.Float64()
	switch {
	case roll < championChance:
		return state.VariantChampion
	case roll < championChance+eliteChance:
		return state.VariantElite
	default:
		return state.VariantNormal
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Behavior returns the default AI behavior for a freshly-rolled enemy type.
// Skeleton and orc roll 0.7 aggressive / 0.3 patrol; rat flees; dragon is
// always aggressive.
func Behavior(kind state.EnemyKind, rng *rand.Rand) state.Behavior {
	switch kind {
	case state.EnemySkeleton, state.EnemyOrc:
		if rng.Float64() < 0.7 {
			return state.BehaviorAggressive
		}
		return state.BehaviorPatrol
	default:
		return Table[kind].Behavior
	}
}

// Spawn constructs a new Enemy of kind/variant at (x, y) with id.
func Spawn(id string, kind state.EnemyKind, variant state.EnemyVariant, x, y int, rng *rand.Rand) state.Enemy {
	base := Table[kind]
	mult := variantMults[variant]
	hp := int(math.Floor(float64(base.HP) * mult.HP))
	return state.Enemy{
		ID:          id,
		Type:        kind,
		Variant:     variant,
		DisplayName: mult.Prefix + displayName(kind),
		X:           x,
		Y:           y,
		HP:          hp,
		MaxHP:       hp,
		Attack:      int(math.Floor(float64(base.Attack) * mult.Attack)),
		Defense:     int(math.Floor(float64(base.Defense) * mult.Defense)),
		Behavior:    Behavior(kind, rng),
	}
}

func displayName(kind state.EnemyKind) string {
	switch kind {
	case state.EnemyRat:
		return "Rat"
	case state.EnemySkeleton:
		return "Skeleton"
	case state.EnemyOrc:
		return "Orc"
	case state.EnemyDragon:
		return "Dragon"
	}
	return string(kind)
}

// KillReward returns the score awarded and the XP granted for killing an
// enemy of the given type and variant.
func KillReward(kind state.EnemyKind, variant state.EnemyVariant) (score, xp int) {
	base := Table[kind]
	mult := variantMults[variant]
	return base.Score, int(math.Floor(float64(base.XP) * mult.XP))
}
