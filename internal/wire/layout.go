// Package wire implements the layout-string wire format from spec §6:
// space-separated per-slot tokens, KC_X form for registry entries,
// single-character form for unambiguous printable ASCII, and KC_TRNS for
// an unassigned slot.
package wire

import (
	"fmt"
	"strings"

	"github.com/kamalyes/go-toolbox/pkg/stringx"
)

// Transparent is the token for an unassigned/transparent slot.
const Transparent = "KC_TRNS"

// unambiguousASCII is the printable-ASCII set safe to emit in bare
// single-character form; anything else (including letters, which are
// ambiguous with keycode names) is always emitted KC_X.
var unambiguousASCII = map[byte]bool{
	',': true, '.': true, '/': true, ';': true, '\'': true,
	'[': true, ']': true, '-': true, '=': true, '`': true,
}

// FormatLayout renders a permutation (slot index -> character, 0 byte for
// an unassigned slot) as a space-separated token string.
func FormatLayout(perm []byte) string {
	tokens := make([]string, len(perm))
	for i, c := range perm {
		tokens[i] = FormatToken(c)
	}
	return strings.Join(tokens, " ")
}

// FormatToken renders a single character as its wire token.
func FormatToken(c byte) string {
	if c == 0 {
		return Transparent
	}
	if unambiguousASCII[c] {
		return string(c)
	}
	return "KC_" + strings.ToUpper(string(c))
}

// ParseLayout parses a wire-format layout string back into a permutation.
// Round-trips with FormatLayout: parse(format(layout)) == layout.
func ParseLayout(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, len(fields))
	for i, tok := range fields {
		c, err := ParseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("wire: token %d (%q): %w", i, tok, err)
		}
		out[i] = c
	}
	return out, nil
}

// ParseToken parses a single wire token back into a character (0 for
// KC_TRNS).
func ParseToken(tok string) (byte, error) {
	if tok == Transparent {
		return 0, nil
	}
	if len(tok) == 1 {
		return tok[0], nil
	}
	if strings.HasPrefix(tok, "KC_") {
		rest := stringx.ToLower(tok[3:])
		if len(rest) != 1 {
			return 0, fmt.Errorf("registry token must name exactly one character, got %q", rest)
		}
		return rest[0], nil
	}
	return 0, fmt.Errorf("unrecognized token %q", tok)
}
