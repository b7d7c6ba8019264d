// Package character holds the per-class stat tables used at character
// creation and for ranged attack resolution.
package character

import "github.com/alexswiontek/dungeon-crawler/internal/state"

// Def is one playable character's starting stats and ranged weapon profile.
type Def struct {
	MaxHP        int
	Attack       int
	Defense      int
	RangedDamage int
	RangedRange  int
	AttackType   string // character-derived ranged attack type, e.g. "bolt"
}

// Table holds the starting stats for every character kind.
var Table = map[state.CharacterKind]Def{
	state.CharacterDwarf:  {MaxHP: 35, Attack: 7, Defense: 4, RangedDamage: 3, RangedRange: 2, AttackType: "dagger"},
	state.CharacterElf:    {MaxHP: 25, Attack: 5, Defense: 2, RangedDamage: 6, RangedRange: 3, AttackType: "magic_dagger"},
	state.CharacterBandit: {MaxHP: 28, Attack: 6, Defense: 3, RangedDamage: 6, RangedRange: 3, AttackType: "bolt"},
	state.CharacterWizard: {MaxHP: 20, Attack: 4, Defense: 1, RangedDamage: 7, RangedRange: 4, AttackType: "spell"},
}

// NewPlayer builds the starting Player for the given character kind.
func NewPlayer(kind state.CharacterKind) state.Player {
	def := Table[kind]
	return state.Player{
		HP:            def.MaxHP,
		MaxHP:         def.MaxHP,
		Attack:        def.Attack,
		Defense:       def.Defense,
		XP:            0,
		Level:         1,
		XPToNextLevel: state.XPToNextLevel(1),
		Character:     kind,
		Facing:        state.FacingRight,
	}
}
