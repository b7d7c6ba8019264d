package ai

import (
	"testing"

	"github.com/alexswiontek/dungeon-crawler/internal/gamemap"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

func openGameState() *state.GameState {
	m := gamemap.New(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			m.Set(x, y, gamemap.TileFloor)
		}
	}
	return &state.GameState{
		Map:    m,
		Player: state.Player{X: 10, Y: 10, HP: 30, MaxHP: 30, Defense: 2},
	}
}

func TestStationaryEnemyOnlyAttacksWhenAdjacent(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorStationary, Attack: 5, HP: 5, MaxHP: 5, X: 0, Y: 0}}

	RunTurn(gs)
	if gs.Enemies[0].X != 0 || gs.Enemies[0].Y != 0 {
		t.Error("a stationary enemy far from the player should never move")
	}
}

func TestStationaryEnemyAttacksAdjacentPlayer(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorStationary, Attack: 5, HP: 5, MaxHP: 5, X: 11, Y: 10}}

	events := RunTurn(gs)
	var attacked bool
	for _, e := range events {
		if e.Kind == "enemy_attacked" {
			attacked = true
		}
	}
	if !attacked {
		t.Fatalf("expected enemy_attacked, got %+v", events)
	}
	if gs.Player.HP != 27 { // 30 - max(1, 5-2)
		t.Errorf("player HP = %d, want 27", gs.Player.HP)
	}
}

func TestAggressiveEnemyChasesPlayer(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorAggressive, HP: 5, MaxHP: 5, X: 5, Y: 10}}

	events := RunTurn(gs)
	var moved bool
	for _, e := range events {
		if e.Kind == "enemy_moved" {
			moved = true
		}
	}
	if !moved {
		t.Fatalf("expected an aggressive enemy to move toward the player, got %+v", events)
	}
	if gs.Enemies[0].X != 6 {
		t.Errorf("enemy X = %d, want 6 (one step closer)", gs.Enemies[0].X)
	}
}

func TestFleeingEnemyAtLowHPMovesAway(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorFlee, HP: 1, MaxHP: 10, X: 13, Y: 10}}

	before := manhattan(gs.Enemies[0].X, gs.Enemies[0].Y, gs.Player.X, gs.Player.Y)
	RunTurn(gs)
	after := manhattan(gs.Enemies[0].X, gs.Enemies[0].Y, gs.Player.X, gs.Player.Y)
	if after <= before {
		t.Errorf("distance to player = %d, want greater than starting distance %d", after, before)
	}
}

func TestFleeingEnemyAtFullHPFallsThroughToAggressive(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorFlee, HP: 5, MaxHP: 5, X: 13, Y: 10}}

	RunTurn(gs)
	if gs.Enemies[0].X != 12 {
		t.Errorf("enemy X = %d, want 12 (chased the player at full health instead of fleeing)", gs.Enemies[0].X)
	}
}

func TestFleeingEnemyOutOfRangeDoesNothing(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorFlee, HP: 5, MaxHP: 5, X: 0, Y: 0}}

	RunTurn(gs)
	if gs.Enemies[0].X != 0 || gs.Enemies[0].Y != 0 {
		t.Error("a fleeing enemy beyond sight radius should not react")
	}
}

// wallOffRows turns rows y0 and y1 entirely into walls, blocking every
// possible Bresenham line between them regardless of exact rounding.
func wallOffRows(gs *state.GameState, y0, y1 int) {
	for _, y := range []int{y0, y1} {
		for x := 0; x < gs.Map.Width; x++ {
			gs.Map.Set(x, y, gamemap.TileWall)
		}
	}
}

func TestAggressiveEnemyWithoutSightOrMemoryDoesNothing(t *testing.T) {
	gs := openGameState()
	wallOffRows(gs, 11, 12)
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorAggressive, HP: 5, MaxHP: 5, X: 10, Y: 13}}

	RunTurn(gs)
	if gs.Enemies[0].X != 10 || gs.Enemies[0].Y != 13 {
		t.Error("an aggressive enemy with no line of sight and no memory of the player should not move")
	}
}

func TestAggressiveEnemyChasesLastSeenPlayerNotLivePosition(t *testing.T) {
	gs := openGameState()
	wallOffRows(gs, 11, 12)
	gs.Enemies = []state.Enemy{{
		ID: "e-1", Behavior: state.BehaviorAggressive, HP: 5, MaxHP: 5, X: 10, Y: 13,
		LastSeenPlayer: &state.Point{X: 15, Y: 13},
	}}

	RunTurn(gs)
	if gs.Enemies[0].Y != 13 || gs.Enemies[0].X != 11 {
		t.Errorf("enemy moved to (%d,%d), want (11,13) toward the remembered cell, not the live player",
			gs.Enemies[0].X, gs.Enemies[0].Y)
	}
}

func TestAggressiveEnemyClearsMemoryOnArrivalWithoutSight(t *testing.T) {
	gs := openGameState()
	wallOffRows(gs, 11, 12)
	gs.Enemies = []state.Enemy{{
		ID: "e-1", Behavior: state.BehaviorAggressive, HP: 5, MaxHP: 5, X: 11, Y: 13,
		LastSeenPlayer: &state.Point{X: 10, Y: 13},
	}}

	RunTurn(gs)
	if gs.Enemies[0].X != 10 || gs.Enemies[0].Y != 13 {
		t.Fatalf("enemy at (%d,%d), want it to have stepped onto the remembered cell (10,13)",
			gs.Enemies[0].X, gs.Enemies[0].Y)
	}
	if gs.Enemies[0].LastSeenPlayer != nil {
		t.Error("arriving at the remembered cell without regaining sight should clear LastSeenPlayer")
	}
}

func TestPatrolEnemyIgnoresPlayerUntilSeen(t *testing.T) {
	gs := openGameState()
	// Far enough that LOS/sight-range noticing never triggers.
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorPatrol, HP: 5, MaxHP: 5, X: 19, Y: 19}}

	RunTurn(gs)
	if gs.Enemies[0].X != 19 || gs.Enemies[0].Y != 19 {
		t.Error("a patrol enemy that has never seen the player should not move")
	}
}

func TestPatrolEnemyChasesOnceNoticed(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorPatrol, HP: 5, MaxHP: 5, X: 8, Y: 10}}

	RunTurn(gs)
	if gs.Enemies[0].LastSeenPlayer == nil {
		t.Fatal("patrol enemy within sight range should notice the player")
	}
	if gs.Enemies[0].X != 9 {
		t.Errorf("enemy X = %d, want 9 (moved toward player)", gs.Enemies[0].X)
	}
}

func TestRunTurnProcessesClosestEnemyFirstDeterministically(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{
		{ID: "far", Behavior: state.BehaviorStationary, Attack: 1, HP: 5, MaxHP: 5, X: 0, Y: 0},
		{ID: "near", Behavior: state.BehaviorStationary, Attack: 1, HP: 5, MaxHP: 5, X: 9, Y: 10},
	}
	events := RunTurn(gs)
	if len(events) == 0 || events[0].EnemyID != "near" {
		t.Errorf("events = %+v, want the nearer enemy processed first", events)
	}
}

func TestPlayerDeathEventOnLethalDamage(t *testing.T) {
	gs := openGameState()
	gs.Player.HP = 2
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorStationary, Attack: 20, HP: 5, MaxHP: 5, X: 11, Y: 10}}

	events := RunTurn(gs)
	var died bool
	for _, e := range events {
		if e.Kind == "player_died" {
			died = true
		}
	}
	if !died {
		t.Fatalf("expected player_died event, got %+v", events)
	}
	if gs.Player.HP != 0 {
		t.Errorf("player HP = %d, want clamped to 0", gs.Player.HP)
	}
}

func TestDeadEnemiesDoNotAct(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Behavior: state.BehaviorAggressive, HP: 0, MaxHP: 5, X: 9, Y: 10}}

	events := RunTurn(gs)
	if len(events) != 0 {
		t.Errorf("events = %+v, want none for a dead enemy", events)
	}
	if gs.Enemies[0].X != 9 {
		t.Error("a dead enemy must never move")
	}
}
