package combat

import (
	"testing"

	"github.com/alexswiontek/dungeon-crawler/internal/gamemap"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

func openGameState() *state.GameState {
	m := gamemap.New(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			m.Set(x, y, gamemap.TileFloor)
		}
	}
	return &state.GameState{
		Map: m,
		Player: state.Player{
			X: 5, Y: 5, HP: 20, MaxHP: 20, Attack: 5, Defense: 2,
			Level: 1, XPToNextLevel: state.XPToNextLevel(1),
			Facing: state.FacingRight,
		},
	}
}

func TestMeleeAttackHitsAdjacentEnemy(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", HP: 10, MaxHP: 10, Defense: 1, X: 6, Y: 5}}

	events := MeleeAttack(gs, "right")
	if len(events) != 1 || events[0].Kind != "melee_hit" {
		t.Fatalf("events = %+v, want a single melee_hit", events)
	}
	if events[0].Damage != 4 { // max(1, 5-1)
		t.Errorf("damage = %d, want 4", events[0].Damage)
	}
	if gs.Enemies[0].HP != 6 {
		t.Errorf("enemy HP = %d, want 6", gs.Enemies[0].HP)
	}
}

func TestMeleeAttackUpdatesFacingEvenWithoutTarget(t *testing.T) {
	gs := openGameState()
	gs.Player.Facing = state.FacingRight
	MeleeAttack(gs, "left")
	if gs.Player.Facing != state.FacingLeft {
		t.Error("facing should update to left even with no enemy present")
	}
}

func TestMeleeAttackMinimumDamageIsOne(t *testing.T) {
	gs := openGameState()
	gs.Player.Attack = 2
	gs.Enemies = []state.Enemy{{ID: "e-1", HP: 10, MaxHP: 10, Defense: 99, X: 6, Y: 5}}
	events := MeleeAttack(gs, "right")
	if events[0].Damage != 1 {
		t.Errorf("damage = %d, want floor of 1", events[0].Damage)
	}
}

func TestMeleeAttackKillAwardsScoreAndXP(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", Type: state.EnemyRat, Variant: state.VariantNormal, HP: 1, MaxHP: 6, Defense: 0, X: 6, Y: 5}}

	events := MeleeAttack(gs, "right")

	var sawKill bool
	for _, e := range events {
		if e.Kind == "enemy_killed" {
			sawKill = true
		}
	}
	if !sawKill {
		t.Fatalf("expected enemy_killed event, got %+v", events)
	}
	if gs.Score == 0 {
		t.Error("killing an enemy should award score")
	}
	if gs.Player.XP == 0 {
		t.Error("killing an enemy should award XP")
	}
}

func TestKillEnemyLevelsUpAndHeals(t *testing.T) {
	gs := openGameState()
	gs.Player.HP = 5
	gs.Player.XP = 0
	gs.Player.XPToNextLevel = 10 // low threshold to force a level-up
	gs.Enemies = []state.Enemy{{ID: "e-1", Type: state.EnemyDragon, Variant: state.VariantNormal, HP: 1, MaxHP: 45, Defense: 0, X: 6, Y: 5}}

	events := MeleeAttack(gs, "right")

	var levels []int
	for _, e := range events {
		if e.Kind == "level_up" {
			levels = append(levels, e.NewLevel)
		}
	}
	if len(levels) == 0 {
		t.Fatalf("expected a level_up event (dragon XP is large), got %+v", events)
	}
	// 200 XP clears the threshold of 10 (level 2), then 2*50=100 (level 3),
	// leaving 90 XP short of 3*50=150.
	if len(levels) != 2 || levels[0] != 2 || levels[1] != 3 {
		t.Errorf("level_up NewLevels = %v, want [2 3]", levels)
	}
	if gs.Player.MaxHP != 26 { // 20 + 3 + 3
		t.Errorf("MaxHP = %d, want 26", gs.Player.MaxHP)
	}
	if gs.Player.HP <= 5 {
		t.Error("leveling up should heal the player")
	}
	if gs.Player.HP > gs.Player.MaxHP {
		t.Error("heal on level-up must not exceed MaxHP")
	}
}

func TestRangedAttackHitsFirstEnemyInLine(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", HP: 10, MaxHP: 10, Defense: 0, X: 7, Y: 5}}
	gs.Player.Facing = state.FacingRight

	events := RangedAttack(gs, 4, 3, "bolt")
	if len(events) != 1 || events[0].Kind != "ranged_attack" {
		t.Fatalf("events = %+v, want a single ranged_attack", events)
	}
	if events[0].EnemyID != "e-1" {
		t.Errorf("EnemyID = %q, want e-1", events[0].EnemyID)
	}
	if events[0].TargetX != 7 || events[0].TargetY != 5 {
		t.Errorf("target = (%d,%d), want (7,5)", events[0].TargetX, events[0].TargetY)
	}
	if events[0].AttackType != "bolt" {
		t.Errorf("AttackType = %q, want bolt", events[0].AttackType)
	}
}

func TestRangedAttackMissesPastWall(t *testing.T) {
	gs := openGameState()
	gs.Map.Set(7, 5, gamemap.TileWall)
	gs.Enemies = []state.Enemy{{ID: "e-1", HP: 10, MaxHP: 10, Defense: 0, X: 9, Y: 5}}
	gs.Player.Facing = state.FacingRight

	events := RangedAttack(gs, 4, 5, "bolt")
	if len(events) != 1 || events[0].Kind != "ranged_missed" {
		t.Fatalf("events = %+v, want a single ranged_missed", events)
	}
	if events[0].TargetX != 7 || events[0].TargetY != 5 {
		t.Errorf("target = (%d,%d), want (7,5) (the wall cell)", events[0].TargetX, events[0].TargetY)
	}
}

func TestRangedAttackMissesBeyondRange(t *testing.T) {
	gs := openGameState()
	gs.Enemies = []state.Enemy{{ID: "e-1", HP: 10, MaxHP: 10, Defense: 0, X: 9, Y: 5}}
	gs.Player.Facing = state.FacingRight

	events := RangedAttack(gs, 4, 2, "bolt")
	if events[0].Kind != "ranged_missed" {
		t.Errorf("Kind = %q, want ranged_missed", events[0].Kind)
	}
}

func TestPickUpPotionHeals(t *testing.T) {
	gs := openGameState()
	gs.Player.HP = 10
	item := &state.Item{ID: "i-1", Kind: state.ItemHealthPotion, Value: 5}
	gs.Items = []state.Item{*item}

	if !PickUp(gs, item) {
		t.Fatal("expected potion to be consumed")
	}
	if gs.Player.HP != 15 {
		t.Errorf("HP = %d, want 15", gs.Player.HP)
	}
	if len(gs.Items) != 0 {
		t.Error("consumed item should be removed")
	}
}

func TestPickUpPotionRefusedAtMaxHP(t *testing.T) {
	gs := openGameState()
	gs.Player.HP = gs.Player.MaxHP
	item := &state.Item{ID: "i-1", Kind: state.ItemHealthPotion, Value: 5}
	gs.Items = []state.Item{*item}

	if PickUp(gs, item) {
		t.Error("a potion at full HP should be refused, not consumed")
	}
	if len(gs.Items) != 1 {
		t.Error("refused potion should remain on the ground")
	}
}

func TestPickUpPotionClampsOverheal(t *testing.T) {
	gs := openGameState()
	gs.Player.HP = gs.Player.MaxHP - 2
	item := &state.Item{ID: "i-1", Kind: state.ItemHealthPotion, Value: 50}
	gs.Items = []state.Item{*item}

	PickUp(gs, item)
	if gs.Player.HP != gs.Player.MaxHP {
		t.Errorf("HP = %d, want clamped to MaxHP %d", gs.Player.HP, gs.Player.MaxHP)
	}
}

func TestPickUpEquipmentUpgradesWhenBetter(t *testing.T) {
	gs := openGameState()
	gs.Player.Equipment.Set(state.SlotWeapon, state.Equipment{ID: "old", Slot: state.SlotWeapon, AttackBonus: 1})
	newEq := state.Equipment{ID: "new", Slot: state.SlotWeapon, AttackBonus: 5}
	item := &state.Item{ID: "i-1", Kind: state.ItemEquipment, Equipment: &newEq}
	gs.Items = []state.Item{*item}

	if !PickUp(gs, item) {
		t.Fatal("a strictly better weapon should be auto-equipped")
	}
	if gs.Player.Equipment.Weapon.ID != "new" {
		t.Errorf("equipped weapon = %q, want new", gs.Player.Equipment.Weapon.ID)
	}
}

func TestPickUpEquipmentRefusedWhenNotBetter(t *testing.T) {
	gs := openGameState()
	gs.Player.Equipment.Set(state.SlotWeapon, state.Equipment{ID: "old", Slot: state.SlotWeapon, AttackBonus: 10})
	worse := state.Equipment{ID: "worse", Slot: state.SlotWeapon, AttackBonus: 2}
	item := &state.Item{ID: "i-1", Kind: state.ItemEquipment, Equipment: &worse}
	gs.Items = []state.Item{*item}

	if PickUp(gs, item) {
		t.Error("weaker equipment should not replace the current gear")
	}
	if gs.Player.Equipment.Weapon.ID != "old" {
		t.Error("current equipment should remain equipped")
	}
}
