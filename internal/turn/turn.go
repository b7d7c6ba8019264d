// Package turn implements the game's single entry point for advancing
// state: move, attack, and descend. Every operation here is synchronous
// and turn-based — no wall-clock timers, no partial application. Either a
// full turn resolves or the input is rejected outright.
package turn

import (
	"errors"
	"math/rand"

	"github.com/alexswiontek/dungeon-crawler/internal/ai"
	"github.com/alexswiontek/dungeon-crawler/internal/character"
	"github.com/alexswiontek/dungeon-crawler/internal/combat"
	"github.com/alexswiontek/dungeon-crawler/internal/gamemap"
	"github.com/alexswiontek/dungeon-crawler/internal/idgen"
	"github.com/alexswiontek/dungeon-crawler/internal/mapgen"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
	"github.com/alexswiontek/dungeon-crawler/internal/visibility"
)

// ErrGameOver is returned when an action is attempted against a
// non-active game.
var ErrGameOver = errors.New("turn: game is not active")

// finalFloor is the last generated floor; descending from its stairs ends
// the run in victory rather than generating a 21st floor.
const finalFloor = 20

// Result bundles every event a turn produced, in the order they occurred.
type Result struct {
	CombatEvents []combat.Event
	AIEvents     []ai.Event
	NewFloor     bool
}

// Move attempts to step the player one cell in dir ("up","down","left","right").
// Facing always updates for horizontal intents, even when the destination
// is blocked. A blocked or occupied destination is a no-op: it returns
// immediately without running enemy AI. Stepping onto the stairs invokes
// Descend and short-circuits the remaining steps of this turn (item
// pickup, fog update, enemy AI), matching Descend's own turn.
func Move(gs *state.GameState, dir string, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) (Result, error) {
	if gs.Status != state.StatusActive {
		return Result{}, ErrGameOver
	}

	switch dir {
	case "left":
		gs.Player.Facing = state.FacingLeft
	case "right":
		gs.Player.Facing = state.FacingRight
	}

	nx, ny := step(gs.Player.X, gs.Player.Y, dir)
	if !gs.Map.InBounds(nx, ny) || gs.Map.At(nx, ny).Blocking() {
		return Result{}, nil
	}
	if gs.LiveEnemyAt(nx, ny) != "" {
		return Result{}, nil
	}

	gs.Player.X, gs.Player.Y = nx, ny

	if gs.Map.At(nx, ny).Kind == gamemap.TileStairs {
		return Descend(gs, rng, enemyIDs, itemIDs)
	}

	visibility.Reveal(gs.Fog, gs.Map, gs.Player.X, gs.Player.Y)

	if itemID := gs.ItemAt(nx, ny); itemID != "" {
		if item := gs.ItemByID(itemID); item != nil {
			combat.PickUp(gs, item)
		}
	}

	var res Result
	res.AIEvents = ai.RunTurn(gs)
	if gs.Player.HP <= 0 {
		gs.Status = state.StatusDead
	}
	return res, nil
}

// Attack resolves a melee strike in dir, then runs enemy AI.
func Attack(gs *state.GameState, dir string) (Result, error) {
	if gs.Status != state.StatusActive {
		return Result{}, ErrGameOver
	}
	var res Result
	res.CombatEvents = combat.MeleeAttack(gs, dir)
	res.AIEvents = ai.RunTurn(gs)
	if gs.Player.HP <= 0 {
		gs.Status = state.StatusDead
	}
	return res, nil
}

// RangedAttack resolves a ranged strike using the player's equipped ranged
// bonuses plus their character's base ranged profile, then runs enemy AI.
func RangedAttack(gs *state.GameState) (Result, error) {
	if gs.Status != state.StatusActive {
		return Result{}, ErrGameOver
	}
	def := character.Table[gs.Player.Character]
	dmg := def.RangedDamage + gs.Player.Equipment.Ranged.RangedDamageBonus
	rng := def.RangedRange + gs.Player.Equipment.Ranged.RangedRangeBonus

	var res Result
	res.CombatEvents = combat.RangedAttack(gs, dmg, rng, def.AttackType)
	res.AIEvents = ai.RunTurn(gs)
	if gs.Player.HP <= 0 {
		gs.Status = state.StatusDead
	}
	return res, nil
}

// Descend regenerates the floor when the player stands on the stairs tile,
// incrementing Floor and replacing Map/Fog/Enemies/Items/player position.
// Enemy AI does not run on the descend turn: there is nothing yet to react to.
func Descend(gs *state.GameState, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator) (Result, error) {
	if gs.Status != state.StatusActive {
		return Result{}, ErrGameOver
	}
	if gs.Map.At(gs.Player.X, gs.Player.Y).Kind != gamemap.TileStairs {
		return Result{}, nil
	}

	nextFloor := gs.Floor + 1
	result, err := mapgen.Generate(nextFloor, gs.Player.Character, rng, enemyIDs, itemIDs)
	if err != nil {
		return Result{}, err
	}

	gs.Floor = nextFloor
	gs.Map = result.Map
	gs.Fog = state.NewFog(result.Map.Width, result.Map.Height)
	gs.Enemies = result.Enemies
	gs.Items = result.Items
	gs.Player.X, gs.Player.Y = result.PlayerStart.X, result.PlayerStart.Y
	visibility.Reveal(gs.Fog, gs.Map, gs.Player.X, gs.Player.Y)

	if gs.Floor >= finalFloor {
		gs.Status = state.StatusWon
	}

	return Result{NewFloor: true}, nil
}

func step(x, y int, dir string) (int, int) {
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
