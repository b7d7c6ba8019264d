// Package ai drives enemy behavior for one turn: which enemies notice the
// player, how they move, and when they strike. Processing order and the
// per-turn pathfinder budget are fixed so replaying the same state always
// yields the same outcome.
package ai

import (
	"sort"

	"github.com/alexswiontek/dungeon-crawler/internal/pathfind"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
	"github.com/alexswiontek/dungeon-crawler/internal/visibility"
)

// pathfinderBudget caps how many bounded-BFS calls a single enemy turn may spend.
const pathfinderBudget = 5

// sightRangeMargin extends the fog radius by this much for LOS checks, so
// an enemy can notice the player slightly before they're within fog range.
const sightRangeMargin = 2

// Event describes something an enemy did this turn.
type Event struct {
	Kind    string // "enemy_moved", "enemy_attacked", "player_died"
	EnemyID string
	Damage  int
}

// RunTurn processes every live enemy's behavior once, closest to the
// player first (Manhattan distance, ties broken by enemy ID for
// determinism). It mutates gs in place.
func RunTurn(gs *state.GameState) []Event {
	budget := pathfinderBudget
	var events []Event

	order := make([]int, 0, len(gs.Enemies))
	for i := range gs.Enemies {
		if gs.Enemies[i].Alive() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		da := manhattan(gs.Enemies[order[a]].X, gs.Enemies[order[a]].Y, gs.Player.X, gs.Player.Y)
		db := manhattan(gs.Enemies[order[b]].X, gs.Enemies[order[b]].Y, gs.Player.X, gs.Player.Y)
		if da != db {
			return da < db
		}
		return gs.Enemies[order[a]].ID < gs.Enemies[order[b]].ID
	})

	for _, idx := range order {
		enemy := &gs.Enemies[idx]
		if !enemy.Alive() {
			continue
		}
		evs := stepEnemy(gs, enemy, &budget)
		events = append(events, evs...)
	}
	return events
}

func stepEnemy(gs *state.GameState, enemy *state.Enemy, budget *int) []Event {
	dist := manhattan(enemy.X, enemy.Y, gs.Player.X, gs.Player.Y)
	if dist > visibility.Radius+sightRangeMargin {
		return nil
	}

	canSee := visibility.HasLineOfSight(gs.Map, enemy.X, enemy.Y, gs.Player.X, gs.Player.Y)
	if canSee {
		pt := state.Point{X: gs.Player.X, Y: gs.Player.Y}
		enemy.LastSeenPlayer = &pt
	}

	switch enemy.Behavior {
	case state.BehaviorStationary:
		return attackIfAdjacent(gs, enemy)

	case state.BehaviorPatrol:
		if !canSee {
			return nil
		}
		return moveToward(gs, enemy, budget, gs.Player.X, gs.Player.Y)

	case state.BehaviorFlee:
		if canSee && enemy.MaxHP > 0 && float64(enemy.HP)/float64(enemy.MaxHP) < 0.3 {
			return flee(gs, enemy)
		}
		return aggressive(gs, enemy, budget, canSee)

	case state.BehaviorAggressive:
		return aggressive(gs, enemy, budget, canSee)
	}
	return nil
}

// aggressive targets the player directly when canSee, otherwise the
// remembered lastSeenPlayer cell if one exists, otherwise does nothing.
// Arriving at a lastSeenPlayer cell without regaining sight of the player
// clears it, so the enemy gives up the chase rather than camping there.
func aggressive(gs *state.GameState, enemy *state.Enemy, budget *int, canSee bool) []Event {
	var targetX, targetY int
	usingLastSeen := false
	switch {
	case canSee:
		targetX, targetY = gs.Player.X, gs.Player.Y
	case enemy.LastSeenPlayer != nil:
		targetX, targetY = enemy.LastSeenPlayer.X, enemy.LastSeenPlayer.Y
		usingLastSeen = true
	default:
		return nil
	}

	events := moveToward(gs, enemy, budget, targetX, targetY)
	if usingLastSeen && enemy.LastSeenPlayer != nil && enemy.X == enemy.LastSeenPlayer.X && enemy.Y == enemy.LastSeenPlayer.Y {
		enemy.LastSeenPlayer = nil
	}
	return events
}

// moveToward attacks if already adjacent to the player, otherwise spends
// one unit of pathfinder budget to step toward (targetX,targetY) and
// attacks in the same tick if that step lands the enemy adjacent. Once
// the budget is exhausted the enemy holds its position for the rest of
// the turn.
func moveToward(gs *state.GameState, enemy *state.Enemy, budget *int, targetX, targetY int) []Event {
	if manhattan(enemy.X, enemy.Y, gs.Player.X, gs.Player.Y) <= 1 {
		return attackIfAdjacent(gs, enemy)
	}
	if *budget <= 0 {
		return nil
	}
	*budget--

	occupied := occupiedFunc(gs, enemy.ID)
	nx, ny, ok := pathfind.NextStep(gs.Map, enemy.X, enemy.Y, targetX, targetY, pathfind.DefaultMaxDistance, occupied)
	if !ok {
		return nil
	}
	enemy.X, enemy.Y = nx, ny

	events := []Event{{Kind: "enemy_moved", EnemyID: enemy.ID}}
	if manhattan(enemy.X, enemy.Y, gs.Player.X, gs.Player.Y) == 1 {
		events = append(events, attackIfAdjacent(gs, enemy)...)
	}
	return events
}

// flee steps the enemy one cell away from the player: horizontal opposite
// first, falling back to vertical opposite if that cell isn't free. It
// never invokes the pathfinder, so it doesn't spend pathfinder budget.
func flee(gs *state.GameState, enemy *state.Enemy) []Event {
	occupied := occupiedFunc(gs, enemy.ID)
	dx := sign(enemy.X - gs.Player.X)
	dy := sign(enemy.Y - gs.Player.Y)

	if dx != 0 {
		if nx, ny := enemy.X+dx, enemy.Y; gs.Map.IsWalkable(nx, ny) && !occupied(nx, ny) {
			enemy.X, enemy.Y = nx, ny
			return []Event{{Kind: "enemy_moved", EnemyID: enemy.ID}}
		}
	}
	if dy != 0 {
		if nx, ny := enemy.X, enemy.Y+dy; gs.Map.IsWalkable(nx, ny) && !occupied(nx, ny) {
			enemy.X, enemy.Y = nx, ny
			return []Event{{Kind: "enemy_moved", EnemyID: enemy.ID}}
		}
	}
	return nil
}

func attackIfAdjacent(gs *state.GameState, enemy *state.Enemy) []Event {
	if manhattan(enemy.X, enemy.Y, gs.Player.X, gs.Player.Y) != 1 {
		return nil
	}
	dmg := max(1, enemy.Attack-gs.Player.Defense)
	gs.Player.HP -= dmg
	events := []Event{{Kind: "enemy_attacked", EnemyID: enemy.ID, Damage: dmg}}
	if gs.Player.HP <= 0 {
		gs.Player.HP = 0
		events = append(events, Event{Kind: "player_died"})
	}
	return events
}

func occupiedFunc(gs *state.GameState, selfID string) pathfind.Occupied {
	return func(x, y int) bool {
		if gs.Player.X == x && gs.Player.Y == y {
			return true
		}
		for i := range gs.Enemies {
			e := &gs.Enemies[i]
			if e.ID == selfID || !e.Alive() {
				continue
			}
			if e.X == x && e.Y == y {
				return true
			}
		}
		return false
	}
}

func manhattan(x1, y1, x2, y2 int) int {
	return abs(x1-x2) + abs(y1-y2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
