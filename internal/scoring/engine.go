package scoring

import (
	"fmt"

	"github.com/kamalyes/go-toolbox/pkg/mathx"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
	"github.com/infodungeon/keyforge/internal/layout"
)

// tierPenalty returns the cross-tier assignment penalty for placing a
// charTier character on a slotTier slot (0 on the diagonal), matching the
// reference scorer's tier_penalty_matrix.
func tierPenalty(charTier, slotTier uint8, w config.ScoringWeights) float64 {
	if charTier == slotTier || charTier > geometry.TierLow || slotTier > geometry.TierLow {
		return 0
	}
	matrix := [3][3]float64{
		{0, w.PenaltyHighInMed, w.PenaltyHighInLow},
		{w.PenaltyMedInPrime, 0, w.PenaltyMedInLow},
		{w.PenaltyLowInPrime, w.PenaltyLowInMed, 0},
	}
	return matrix[charTier][slotTier]
}

func fmtKey(c byte) string {
	if c >= 32 && c <= 126 {
		return string(c)
	}
	return fmt.Sprintf("#%d", c)
}

// Score evaluates perm against corp under weights/geom, producing the
// four-pass breakdown (spec §4.2). Deterministic, side-effect-free, and
// safe to call concurrently over shared immutable corp/geom.
func Score(perm *layout.Permutation, corp *corpus.Corpus, weights config.ScoringWeights, geom *geometry.Geometry, defs config.LayoutDefinitions, trigramLimit int) (Score_ Score, err error) {
	fingerScale := weights.FingerScale()
	fingerRepeat, err := defs.FingerRepeatScaleArray()
	if err != nil {
		return Score{}, err
	}

	var d Score
	var leftLoad, totalFreq float64

	charTier := make([]uint8, corp.Alphabet.Size())
	for i := 0; i < corp.Alphabet.Size(); i++ {
		charTier[i] = defs.TierOf(corp.Alphabet.CharAt(i))
	}

	// --- Pass 1: monograms ---
	for c := 0; c < corp.Alphabet.Size(); c++ {
		freq := corp.Freq1[c]
		if freq <= 0 {
			continue
		}
		d.TotalChars += freq
		slot := perm.CharToSlot[c]
		if slot == layout.NoChar {
			continue
		}
		key := geom.Keys[slot]
		totalFreq += freq
		if key.Hand == geometry.HandLeft {
			leftLoad += freq
		}

		if key.Finger == geometry.FingerPinky && key.Row != geom.HomeRow {
			d.StatPinkyReach += freq
		}

		slotTier := geom.SlotTier(slot)
		d.TierPenalty += tierPenalty(charTier[c], slotTier, weights) * freq

		if key.IsStretch {
			d.StatMonoStretch += freq
			d.MechMonoStretch += weights.PenaltyMonogramStretch * freq
		}

		d.FingerUse += fingerScale[key.Finger] * weights.WeightFingerEffort * freq
		d.GeoDist += geom.ReachCost(slot, weights.WeightLateralTravel, weights.WeightVerticalTravel) * freq
	}

	// --- Pass 2: tier pass is folded into pass 1 above (tier_penalty is a
	// per-character lookup, not a separate traversal) ---

	// --- Pass 3: bigrams ---
	var sfbs, scissors []Violation
	for c1 := 0; c1 < corp.Alphabet.Size(); c1++ {
		p1 := perm.CharToSlot[c1]
		if p1 == layout.NoChar {
			continue
		}
		row := corp.Freq2[c1]
		for c2 := 0; c2 < len(row); c2++ {
			freq := row[c2]
			if freq <= 0 {
				continue
			}
			p2 := perm.CharToSlot[c2]
			if p2 == layout.NoChar {
				continue
			}
			d.TotalBigrams += freq

			m := analyzeInteraction(geom, p1, p2, weights)
			if !m.isSameHand {
				continue
			}

			dist := geom.WeightedDist(p1, p2, weights.WeightLateralTravel, weights.WeightVerticalTravel)
			d.GeoDist += dist * freq

			if m.isSFB {
				d.StatSFB += freq
			}
			if m.isScissor {
				d.StatScissor += freq
			}
			if m.isLatStep || m.isLateralStretch {
				d.StatLSB += freq
			}
			if m.isLateralStretch {
				d.StatLateral += freq
			}
			if m.isRollIn {
				d.StatRollIn += freq
				d.StatRoll += freq
			} else if m.isRollOut {
				d.StatRollOut += freq
				d.StatRoll += freq
			}

			res := calculateCost(m, weights, fingerRepeat)

			switch res.category {
			case costSFBBase:
				d.StatSFBBase += freq
			case costSFBLat:
				d.StatSFBLat += freq
			case costSFBLatWeak:
				d.StatSFBLatWeak += freq
			case costSFBDiag:
				d.StatSFBDiag += freq
			case costSFBLong:
				d.StatSFBLong += freq
			case costSFBBot:
				d.StatSFBBot += freq
			case costSFRBase, costSFRBadRow, costSFRLat, costSFRWeak:
				d.StatSFR += freq
			}

			if res.flowBonus > 0 {
				if m.isRollIn {
					d.FlowRollIn += res.flowBonus * freq
				} else if m.isRollOut {
					d.FlowRollOut += res.flowBonus * freq
				}
				d.FlowCost -= res.flowBonus * freq
			}

			if res.additiveCost > 0 {
				d.MechSFR += res.additiveCost * freq
			}

			if res.penaltyMultiplier > 1.0 {
				cost := dist * res.penaltyMultiplier * freq
				switch res.category {
				case costSFBBase:
					d.MechSFB += cost
					sfbs = append(sfbs, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costSFBLat, costSFBLatWeak:
					if m.isStrongFinger {
						d.MechSFBLat += cost
					} else {
						d.MechSFBLatWeak += cost
					}
					sfbs = append(sfbs, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costSFBDiag:
					d.MechSFBDiag += cost
					sfbs = append(sfbs, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costSFBLong:
					d.MechSFBLong += cost
					sfbs = append(sfbs, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costSFBBot:
					d.MechSFBBot += cost
					sfbs = append(sfbs, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costScissor:
					d.MechScissor += cost
					scissors = append(scissors, Violation{Keys: fmtKey(corp.Alphabet.CharAt(c1)) + fmtKey(corp.Alphabet.CharAt(c2)), Score: cost, Freq: freq})
				case costLateral:
					d.MechLateral += cost
				}
			}
		}
	}
	d.TopSFBs = topN(sfbs, 10)
	d.TopScissors = topN(scissors, 10)

	// --- Pass 4: trigrams ---
	var redirects []Violation
	limit := trigramLimit
	for idx, t := range corp.Trigrams {
		if limit > 0 && idx >= limit {
			break
		}
		d.TotalTrigrams += t.Weight
		p1, p2, p3 := perm.CharToSlot[t.I], perm.CharToSlot[t.J], perm.CharToSlot[t.K]
		if p1 == layout.NoChar || p2 == layout.NoChar || p3 == layout.NoChar {
			continue
		}
		cost := corp.SlotCost(geom, p1, p2) + corp.SlotCost(geom, p2, p3)
		if cost == 0 {
			continue
		}
		d.FlowCost += cost * t.Weight

		flow := analyzeFlow(geom, p1, p2, p3)
		if flow.is3HandRun {
			switch {
			case flow.isRedirect:
				d.StatRedirect += t.Weight
				contrib := weights.PenaltyRedirect * t.Weight
				d.FlowRedirect += contrib
				redirects = append(redirects, Violation{
					Keys:  fmtKey(corp.Alphabet.CharAt(t.I)) + fmtKey(corp.Alphabet.CharAt(t.J)) + fmtKey(corp.Alphabet.CharAt(t.K)),
					Score: contrib, Freq: t.Weight,
				})
			case flow.isSkip:
				d.StatSkip += t.Weight
				d.FlowSkip += weights.PenaltySkip * t.Weight
			case flow.isInwardRoll:
				d.StatRoll3In += t.Weight
				bonus := weights.BonusInwardRoll * t.Weight
				d.FlowRollTri += bonus
				d.FlowCost -= bonus
			case flow.isOutwardRoll:
				d.StatRoll3Out += t.Weight
			}
		}
	}
	d.TopRedirects = topN(redirects, 10)

	if totalFreq > 0 {
		ratio := leftLoad / totalFreq
		diff := mathx.Abs(ratio - 0.5)
		if allowed := weights.AllowedHandBalanceDeviation(); diff > allowed {
			d.ImbalancePenalty = diff * weights.PenaltyImbalance
		}
	}

	// flow_redirect and flow_skip are tracked as statistics only; the
	// reference scorer never folds them into layout_score (only the
	// inward-roll bonus adjusts flow_cost), so neither does this sum.
	d.LayoutScore = d.GeoDist + d.FingerUse +
		d.MechSFB + d.MechSFBLat + d.MechSFBLatWeak + d.MechSFBDiag + d.MechSFBLong + d.MechSFBBot +
		d.MechScissor + d.MechLateral + d.MechSFR + d.FlowCost +
		d.TierPenalty + d.ImbalancePenalty + d.MechMonoStretch

	return d, nil
}
