package corpus

import (
	"sort"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/errs"
)

// Alphabet is the internal character-to-index projection every Corpus is
// built against: the union of the three tier strings in LayoutDefinitions,
// deduplicated and sorted so that the same LayoutDefinitions always yields
// the same index assignment (spec §4.1's "internal character alphabet").
type Alphabet struct {
	chars []byte
	index map[byte]int
}

// BuildAlphabet derives the alphabet from a LayoutDefinitions preset.
func BuildAlphabet(defs config.LayoutDefinitions) *Alphabet {
	seen := make(map[byte]bool)
	for _, s := range []string{defs.TierHighChars, defs.TierMedChars, defs.TierLowChars} {
		for i := 0; i < len(s); i++ {
			seen[s[i]] = true
		}
	}
	chars := make([]byte, 0, len(seen))
	for c := range seen {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	idx := make(map[byte]int, len(chars))
	for i, c := range chars {
		idx[c] = i
	}
	return &Alphabet{chars: chars, index: idx}
}

// Size returns the number of characters in the alphabet.
func (a *Alphabet) Size() int { return len(a.chars) }

// IndexOf returns the internal index of c, or -1 if c is not in the
// alphabet.
func (a *Alphabet) IndexOf(c byte) int {
	if i, ok := a.index[c]; ok {
		return i
	}
	return -1
}

// CharAt returns the character at internal index i.
func (a *Alphabet) CharAt(i int) byte { return a.chars[i] }

// Contains checks that every character of s is present in the alphabet,
// returning AlphabetMismatch naming the first one that is not.
func (a *Alphabet) Contains(s string) error {
	for i := 0; i < len(s); i++ {
		if _, ok := a.index[s[i]]; !ok {
			return errs.AlphabetMismatch(string(s[i]))
		}
	}
	return nil
}
