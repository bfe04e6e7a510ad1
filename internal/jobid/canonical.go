// Package jobid implements the canonical JSON encoder and job-id hashing
// from spec §4.4. The encoder is hand-rolled on purpose: the spec's design
// notes (§9) explicitly forbid reusing a general-purpose JSON encoder here,
// since client and server (potentially different languages) must agree
// byte-for-byte on the serialized form that feeds the hash.
package jobid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is the canonical-JSON-encodable value model: maps (object), slices
// (array, input order preserved), strings, float64/int, bool, and nil.
type Value = any

// Canonical serializes v into the canonical form: object keys sorted
// lexicographically, numbers formatted with 9 significant digits, booleans
// as true/false, arrays in input order, strings JSON-escaped.
func Canonical(v Value) (string, error) {
	var b strings.Builder
	if err := encode(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encode(b *strings.Builder, v Value) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		encodeString(b, t)
	case int:
		b.WriteString(formatNumber(float64(t)))
	case int64:
		b.WriteString(formatNumber(float64(t)))
	case float64:
		if !isFinite(t) {
			return fmt.Errorf("jobid: non-finite number in canonical payload")
		}
		b.WriteString(formatNumber(t))
	case []Value:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encode(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]Value:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, k)
			b.WriteByte(':')
			if err := encode(b, t[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("jobid: unsupported canonical value type %T", v)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// formatNumber renders f with 9 significant digits, trimming a trailing
// ".0"-style fractional part down to an integer form when exact, per spec
// §4.4's "fixed format" requirement.
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'g', 9, 64)
	// strconv's 'g' may emit exponent notation (e.g. "1e+09"); the exponent
	// is kept exactly as strconv writes it (lowercase "e", explicit sign, at
	// least two exponent digits), and strconv always uses '.' as the decimal
	// point, so the string is returned unchanged.
	return s
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// Hash returns hex(sha256(canonical_json(v))), the job_id of spec §4.4.
func Hash(v Value) (string, error) {
	s, err := Canonical(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:]), nil
}
