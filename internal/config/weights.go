// Package config loads the tunable knobs of a KeyForge job: scoring
// weights, search parameters, and layout tier definitions. Defaults are
// pinned to the Rust reference implementation's constants (see SPEC_FULL.md).
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kamalyes/go-toolbox/pkg/mathx"
)

// ScoringWeights is the flat record of ergonomic knobs from spec §3.
type ScoringWeights struct {
	// SFR (same-key repeats)
	PenaltySFRWeakFinger float64 `json:"penalty_sfr_weak_finger" yaml:"penalty_sfr_weak_finger"`
	PenaltySFRBadRow     float64 `json:"penalty_sfr_bad_row" yaml:"penalty_sfr_bad_row"`
	PenaltySFRLat        float64 `json:"penalty_sfr_lat" yaml:"penalty_sfr_lat"`

	// SFB variants
	PenaltySFBLateral     float64 `json:"penalty_sfb_lateral" yaml:"penalty_sfb_lateral"`
	PenaltySFBLateralWeak float64 `json:"penalty_sfb_lateral_weak" yaml:"penalty_sfb_lateral_weak"`
	PenaltySFBBase        float64 `json:"penalty_sfb_base" yaml:"penalty_sfb_base"`
	PenaltySFBOutwardAdder float64 `json:"penalty_sfb_outward_adder" yaml:"penalty_sfb_outward_adder"`
	PenaltySFBDiagonal    float64 `json:"penalty_sfb_diagonal" yaml:"penalty_sfb_diagonal"`
	PenaltySFBLong        float64 `json:"penalty_sfb_long" yaml:"penalty_sfb_long"`
	PenaltySFBBottom      float64 `json:"penalty_sfb_bottom" yaml:"penalty_sfb_bottom"`
	WeightWeakFingerSFB   float64 `json:"weight_weak_finger_sfb" yaml:"weight_weak_finger_sfb"`

	// Other bigram mechanics
	PenaltyScissor   float64 `json:"penalty_scissor" yaml:"penalty_scissor"`
	PenaltyRingPinky float64 `json:"penalty_ring_pinky" yaml:"penalty_ring_pinky"`
	PenaltyLateral   float64 `json:"penalty_lateral" yaml:"penalty_lateral"`

	ThresholdSFBLongRowDiff int `json:"threshold_sfb_long_row_diff" yaml:"threshold_sfb_long_row_diff"`
	ThresholdScissorRowDiff int `json:"threshold_scissor_row_diff" yaml:"threshold_scissor_row_diff"`

	// Roll bonuses (negative additions)
	BonusBigramRollIn  float64 `json:"bonus_bigram_roll_in" yaml:"bonus_bigram_roll_in"`
	BonusBigramRollOut float64 `json:"bonus_bigram_roll_out" yaml:"bonus_bigram_roll_out"`
	BonusInwardRoll    float64 `json:"bonus_inward_roll" yaml:"bonus_inward_roll"`

	// Trigram flow
	PenaltySkip     float64 `json:"penalty_skip" yaml:"penalty_skip"`
	PenaltyRedirect float64 `json:"penalty_redirect" yaml:"penalty_redirect"`
	PenaltyHandRun  float64 `json:"penalty_hand_run" yaml:"penalty_hand_run"`

	// Tier cross-assignment
	PenaltyHighInMed  float64 `json:"penalty_high_in_med" yaml:"penalty_high_in_med"`
	PenaltyHighInLow  float64 `json:"penalty_high_in_low" yaml:"penalty_high_in_low"`
	PenaltyMedInPrime float64 `json:"penalty_med_in_prime" yaml:"penalty_med_in_prime"`
	PenaltyMedInLow   float64 `json:"penalty_med_in_low" yaml:"penalty_med_in_low"`
	PenaltyLowInPrime float64 `json:"penalty_low_in_prime" yaml:"penalty_low_in_prime"`
	PenaltyLowInMed   float64 `json:"penalty_low_in_med" yaml:"penalty_low_in_med"`

	// Balance & effort
	PenaltyImbalance   float64 `json:"penalty_imbalance" yaml:"penalty_imbalance"`
	MaxHandImbalance   float64 `json:"max_hand_imbalance" yaml:"max_hand_imbalance"`
	WeightFingerEffort float64 `json:"weight_finger_effort" yaml:"weight_finger_effort"`
	WeightVerticalTravel float64 `json:"weight_vertical_travel" yaml:"weight_vertical_travel"`
	WeightLateralTravel  float64 `json:"weight_lateral_travel" yaml:"weight_lateral_travel"`
	PenaltyMonogramStretch float64 `json:"penalty_monogram_stretch" yaml:"penalty_monogram_stretch"`

	CorpusScale   float64 `json:"corpus_scale" yaml:"corpus_scale"`
	DefaultCostMS float64 `json:"default_cost_ms" yaml:"default_cost_ms"`

	FingerPenaltyScale  string `json:"finger_penalty_scale" yaml:"finger_penalty_scale"`
	ComfortableScissors string `json:"comfortable_scissors" yaml:"comfortable_scissors"`
}

// DefaultScoringWeights returns the default knob values pinned from
// original_source/src/config.rs.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		PenaltySFRWeakFinger: 20.0,
		PenaltySFRBadRow:     25.0,
		PenaltySFRLat:        40.0,

		PenaltySFBLateral:      65.0,
		PenaltySFBLateralWeak:  250.0,
		PenaltySFBBase:         200.0,
		PenaltySFBOutwardAdder: 10.0,
		PenaltySFBDiagonal:     240.0,
		PenaltySFBLong:         280.0,
		PenaltySFBBottom:       45.0,
		WeightWeakFingerSFB:    2.7,

		PenaltyScissor:   25.0,
		PenaltyRingPinky: 1.3,
		PenaltyLateral:   50.0,

		ThresholdSFBLongRowDiff: 2,
		ThresholdScissorRowDiff: 2,

		BonusBigramRollIn:  30.0,
		BonusBigramRollOut: 15.0,
		BonusInwardRoll:    60.0,

		PenaltySkip:     20.0,
		PenaltyRedirect: 15.0,
		PenaltyHandRun:  5.0,

		PenaltyHighInMed:  5.0,
		PenaltyHighInLow:  20.0,
		PenaltyMedInPrime: 2.0,
		PenaltyMedInLow:   10.0,
		PenaltyLowInPrime: 15.0,
		PenaltyLowInMed:   2.0,

		PenaltyImbalance:     200.0,
		MaxHandImbalance:     0.55,
		WeightFingerEffort:   1.5,
		WeightVerticalTravel: 1.0,
		WeightLateralTravel:  1.0,
		PenaltyMonogramStretch: 0,

		CorpusScale:   200_000_000.0,
		DefaultCostMS: 120.0,

		FingerPenaltyScale:  "default",
		ComfortableScissors: "default",
	}
}

// FingerPenaltyScales is the named-table registry for finger_penalty_scale.
var FingerPenaltyScales = map[string][5]float64{
	"default": {0.0, 1.0, 1.1, 1.3, 1.6},
	"flat":    {0.0, 1.0, 1.0, 1.0, 1.0},
}

// ComfortableScissorEntry names a (finger, finger, rowDiff) tuple exempted
// from the scissor penalty.
type ComfortableScissorEntry struct {
	FingerA, FingerB int
	RowDiff          int
}

// ComfortableScissorTables is the named-table registry for
// comfortable_scissors.
var ComfortableScissorTables = map[string][]ComfortableScissorEntry{
	"default": {
		{FingerA: 1, FingerB: 2, RowDiff: 2},
	},
	"none": {},
}

// FingerScale resolves the named finger_penalty_scale table, defaulting to
// "default" for an unknown or empty tag.
func (w ScoringWeights) FingerScale() [5]float64 {
	if t, ok := FingerPenaltyScales[w.FingerPenaltyScale]; ok {
		return t
	}
	return FingerPenaltyScales["default"]
}

// ScissorExemptions resolves the named comfortable_scissors table.
func (w ScoringWeights) ScissorExemptions() []ComfortableScissorEntry {
	if t, ok := ComfortableScissorTables[w.ComfortableScissors]; ok {
		return t
	}
	return nil
}

// IsComfortableScissor reports whether (finger, finger, rowDiff) is exempt.
func (w ScoringWeights) IsComfortableScissor(f1, f2, rowDiff int) bool {
	for _, e := range w.ScissorExemptions() {
		if (e.FingerA == f1 && e.FingerB == f2) || (e.FingerA == f2 && e.FingerB == f1) {
			if e.RowDiff == rowDiff {
				return true
			}
		}
	}
	return false
}

// AllowedHandBalanceDeviation returns how far the left/right frequency
// split may stray from 0.5 before the imbalance penalty engages.
func (w ScoringWeights) AllowedHandBalanceDeviation() float64 {
	return mathx.Max(w.MaxHandImbalance-0.5, 0.0)
}

// Validate rejects a non-finite value in any of penalty_sfb_base,
// penalty_sfb_lateral, penalty_scissor or corpus_scale, returning a plain
// error that names the offending field.
func (w ScoringWeights) Validate() error {
	fields := map[string]float64{
		"penalty_sfb_base":    w.PenaltySFBBase,
		"penalty_sfb_lateral": w.PenaltySFBLateral,
		"penalty_scissor":     w.PenaltyScissor,
		"corpus_scale":        w.CorpusScale,
	}
	for name, v := range fields {
		if !isFinite(v) {
			return fmt.Errorf("scoring weights: field %q is not finite", name)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LayoutDefinitions names the tier character sets and critical bigrams.
type LayoutDefinitions struct {
	TierHighChars     string `json:"tier_high_chars" yaml:"tier_high_chars"`
	TierMedChars      string `json:"tier_med_chars" yaml:"tier_med_chars"`
	TierLowChars      string `json:"tier_low_chars" yaml:"tier_low_chars"`
	CriticalBigrams   string `json:"critical_bigrams" yaml:"critical_bigrams"`
	FingerRepeatScale string `json:"finger_repeat_scale" yaml:"finger_repeat_scale"`
}

// DefaultLayoutDefinitions returns the reference defaults.
func DefaultLayoutDefinitions() LayoutDefinitions {
	return LayoutDefinitions{
		TierHighChars:     "etaoinshr",
		TierMedChars:      "ldcumwfgypb.,",
		TierLowChars:      "vkjxqz/;",
		CriticalBigrams:   "th,he,in,er,an,re,nd,ou",
		FingerRepeatScale: "1.0,1.0,1.0,1.2,1.5",
	}
}

// TierOf classifies a character by LayoutDefinitions' tier strings,
// returning geometry.TierNone (255) if the character appears in none.
func (d LayoutDefinitions) TierOf(c byte) uint8 {
	if strings.IndexByte(d.TierHighChars, c) >= 0 {
		return 0
	}
	if strings.IndexByte(d.TierMedChars, c) >= 0 {
		return 1
	}
	if strings.IndexByte(d.TierLowChars, c) >= 0 {
		return 2
	}
	return 255
}

// CriticalBigramPairs parses the comma-separated two-character pairs.
func (d LayoutDefinitions) CriticalBigramPairs() ([][2]byte, error) {
	if strings.TrimSpace(d.CriticalBigrams) == "" {
		return nil, nil
	}
	parts := strings.Split(d.CriticalBigrams, ",")
	out := make([][2]byte, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) != 2 {
			return nil, fmt.Errorf("layout definitions: critical bigram %q is not 2 chars", p)
		}
		out = append(out, [2]byte{p[0], p[1]})
	}
	return out, nil
}

// FingerRepeatScaleArray parses the 5-value comma-separated per-finger SFR scale.
func (d LayoutDefinitions) FingerRepeatScaleArray() ([5]float64, error) {
	return parseFloat5(d.FingerRepeatScale)
}

func parseFloat5(s string) ([5]float64, error) {
	var out [5]float64
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return out, fmt.Errorf("expected 5 comma-separated values, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
