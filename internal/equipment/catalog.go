// Package equipment holds the static gear catalog used by the map
// generator to seed equipment items, tier-gated by floor.
package equipment

import "github.com/alexswiontek/dungeon-crawler/internal/state"

// template is one catalog entry. RangedFor, when non-empty, restricts a
// ranged-slot template to specific character kinds (wizard staves, bandit
// crossbows, elf/dwarf daggers), matching the flavor-per-class convention
// the generator uses for starting kit.
type template struct {
	slot      state.EquipSlot
	tier      int
	atk, def  int
	hp        int
	rangedDmg int
	rangedRng int
	rangedFor []state.CharacterKind
}

// catalog lists all templates, ordered cheapest-to-strongest per slot. Tier
// scales roughly with how deep a floor must be to offer it.
var catalog = []template{
	// Weapon
	{slot: state.SlotWeapon, tier: 1, atk: 2},
	{slot: state.SlotWeapon, tier: 2, atk: 4},
	{slot: state.SlotWeapon, tier: 3, atk: 6, def: 1},
	{slot: state.SlotWeapon, tier: 4, atk: 8, def: 1},
	{slot: state.SlotWeapon, tier: 5, atk: 11},
	{slot: state.SlotWeapon, tier: 6, atk: 15, def: 2},
	// Shield
	{slot: state.SlotShield, tier: 1, def: 2},
	{slot: state.SlotShield, tier: 2, def: 4},
	{slot: state.SlotShield, tier: 3, def: 6, hp: 3},
	{slot: state.SlotShield, tier: 4, def: 8, hp: 5},
	{slot: state.SlotShield, tier: 5, def: 11, hp: 6},
	{slot: state.SlotShield, tier: 6, def: 15, hp: 8},
	// Armor
	{slot: state.SlotArmor, tier: 1, def: 1, hp: 5},
	{slot: state.SlotArmor, tier: 2, def: 2, hp: 8},
	{slot: state.SlotArmor, tier: 3, def: 3, hp: 12},
	{slot: state.SlotArmor, tier: 4, def: 5, hp: 16},
	{slot: state.SlotArmor, tier: 5, def: 7, hp: 20},
	{slot: state.SlotArmor, tier: 6, def: 10, hp: 25},
	// Ranged — dwarf/elf daggers
	{slot: state.SlotRanged, tier: 1, rangedDmg: 1, rangedFor: []state.CharacterKind{state.CharacterDwarf, state.CharacterElf}},
	{slot: state.SlotRanged, tier: 3, rangedDmg: 2, rangedRng: 1, rangedFor: []state.CharacterKind{state.CharacterDwarf, state.CharacterElf}},
	{slot: state.SlotRanged, tier: 5, rangedDmg: 4, rangedRng: 1, rangedFor: []state.CharacterKind{state.CharacterDwarf, state.CharacterElf}},
	// Ranged — bandit crossbows
	{slot: state.SlotRanged, tier: 1, rangedDmg: 2, rangedFor: []state.CharacterKind{state.CharacterBandit}},
	{slot: state.SlotRanged, tier: 3, rangedDmg: 4, rangedRng: 1, rangedFor: []state.CharacterKind{state.CharacterBandit}},
	{slot: state.SlotRanged, tier: 5, rangedDmg: 6, rangedRng: 2, rangedFor: []state.CharacterKind{state.CharacterBandit}},
	// Ranged — wizard staves
	{slot: state.SlotRanged, tier: 1, rangedDmg: 2, rangedRng: 1, rangedFor: []state.CharacterKind{state.CharacterWizard}},
	{slot: state.SlotRanged, tier: 3, rangedDmg: 3, rangedRng: 2, rangedFor: []state.CharacterKind{state.CharacterWizard}},
	{slot: state.SlotRanged, tier: 5, rangedDmg: 5, rangedRng: 2, rangedFor: []state.CharacterKind{state.CharacterWizard}},
}

// ForFloor returns every template with tier <= maxTier, further filtered
// to ranged items whose rangedFor list is empty or contains character.
func ForFloor(maxTier int, character state.CharacterKind) []template {
	var out []template
	for _, t := range catalog {
		if t.tier > maxTier {
			continue
		}
		if t.slot == state.SlotRanged && len(t.rangedFor) > 0 && !containsKind(t.rangedFor, character) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func containsKind(list []state.CharacterKind, k state.CharacterKind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}

// Instantiate builds a concrete Equipment value from a template, assigning it id.
func Instantiate(t template, id string) state.Equipment {
	return state.Equipment{
		ID:                id,
		Slot:              t.slot,
		Tier:              t.tier,
		AttackBonus:       t.atk,
		DefenseBonus:      t.def,
		HPBonus:           t.hp,
		RangedDamageBonus: t.rangedDmg,
		RangedRangeBonus:  t.rangedRng,
	}
}
