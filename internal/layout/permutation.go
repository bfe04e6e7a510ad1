// Package layout defines the Layout Permutation (spec §3): the
// character-to-slot bijection the Search Engine owns exclusively while
// running and the Scoring Engine reads immutably.
package layout

import (
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/geometry"
)

// NoChar marks a slot with no character assigned (a fixed/non-assignable
// physical key, e.g. Enter or Space).
const NoChar = -1

// Permutation is a fixed-length sequence of character indices, one per
// assignable slot of the geometry (spec §3). SlotToChar is indexed by
// geometry slot; CharToSlot is its inverse, indexed by alphabet index.
type Permutation struct {
	SlotToChar []int
	CharToSlot []int
}

// NewPermutation builds an empty Permutation sized to geom's slot count
// and alpha's character count, with every slot and character unassigned.
func NewPermutation(geom *geometry.Geometry, alpha *corpus.Alphabet) *Permutation {
	p := &Permutation{
		SlotToChar: make([]int, geom.SlotCount()),
		CharToSlot: make([]int, alpha.Size()),
	}
	for i := range p.SlotToChar {
		p.SlotToChar[i] = NoChar
	}
	for i := range p.CharToSlot {
		p.CharToSlot[i] = NoChar
	}
	return p
}

// Place assigns character charIdx to slot, updating both directions.
// Callers are responsible for first clearing any prior occupant of either
// side (Swap below does this correctly for the common case).
func (p *Permutation) Place(slot, charIdx int) {
	p.SlotToChar[slot] = charIdx
	if charIdx != NoChar {
		p.CharToSlot[charIdx] = slot
	}
}

// Swap exchanges the characters occupying two slots, preserving the
// bijection invariant (spec §8: every produced permutation is a bijection
// slot <-> character).
func (p *Permutation) Swap(slotA, slotB int) {
	if slotA == slotB {
		return
	}
	ca, cb := p.SlotToChar[slotA], p.SlotToChar[slotB]
	p.SlotToChar[slotA], p.SlotToChar[slotB] = cb, ca
	if ca != NoChar {
		p.CharToSlot[ca] = slotB
	}
	if cb != NoChar {
		p.CharToSlot[cb] = slotA
	}
}

// Clone returns an independent deep copy.
func (p *Permutation) Clone() *Permutation {
	out := &Permutation{
		SlotToChar: make([]int, len(p.SlotToChar)),
		CharToSlot: make([]int, len(p.CharToSlot)),
	}
	copy(out.SlotToChar, p.SlotToChar)
	copy(out.CharToSlot, p.CharToSlot)
	return out
}

// ValidateBijection checks that every character index appears in exactly
// one slot among assignableSlots, and that every pinned slot/char pair in
// pinned is preserved (spec §8's permutation invariant).
func ValidateBijection(p *Permutation, assignableSlots []int, alpha *corpus.Alphabet, pinned map[int]int) error {
	seen := make(map[int]bool, len(assignableSlots))
	for _, slot := range assignableSlots {
		c := p.SlotToChar[slot]
		if c == NoChar {
			return errs.New(errs.Validation, "permutation: assignable slot has no character")
		}
		if c < 0 || c >= alpha.Size() {
			return errs.New(errs.Validation, "permutation: character index out of alphabet range")
		}
		if seen[c] {
			return errs.PinnedCollision(rune(alpha.CharAt(c)))
		}
		seen[c] = true
	}
	for slot, want := range pinned {
		if p.SlotToChar[slot] != want {
			return errs.New(errs.Integrity, "permutation: pinned slot was moved")
		}
	}
	return nil
}

// ToWireString returns the character on each slot over the full geometry
// slot range (0 for an unassigned slot), the per-slot byte form that
// wire.FormatLayout turns into a layout string.
func (p *Permutation) ToWireString(alpha *corpus.Alphabet) []byte {
	out := make([]byte, len(p.SlotToChar))
	for i, c := range p.SlotToChar {
		if c == NoChar {
			out[i] = 0
		} else {
			out[i] = alpha.CharAt(c)
		}
	}
	return out
}
