package scoring

import "github.com/infodungeon/keyforge/internal/config"

// costCategory classifies a bigram interaction's cost for statistics
// bucketing, ported from the reference scorer's CostCategory.
type costCategory int

const (
	costNone costCategory = iota
	costSFRBase
	costSFRBadRow
	costSFRLat
	costSFRWeak
	costSFBBase
	costSFBLat
	costSFBLatWeak
	costSFBDiag
	costSFBLong
	costSFBBot
	costScissor
	costLateral
)

// costResult is the outcome of calculateCost: a distance multiplier
// (SFB/scissor/lateral), a flow bonus to subtract (rolls), or an additive
// cost (SFR), plus the category bucket for the statistics breakdown.
type costResult struct {
	penaltyMultiplier float64
	flowBonus         float64
	additiveCost      float64
	category          costCategory
}

// calculateCost ports the reference scorer's calculate_cost: the single
// place a bigram interaction's classification becomes a scalar cost
// contribution.
func calculateCost(m keyInteraction, w config.ScoringWeights, fingerRepeatScale [5]float64) costResult {
	res := costResult{penaltyMultiplier: 1.0}

	if m.isRollIn {
		res.flowBonus += w.BonusBigramRollIn
	} else if m.isRollOut {
		res.flowBonus += w.BonusBigramRollOut
	}

	if !m.isSameHand {
		return res
	}

	if m.isRepeat {
		scale := 1.0
		if m.finger >= 0 && m.finger < 5 {
			scale = fingerRepeatScale[m.finger]
		}
		if m.isStrongFinger {
			switch {
			case m.isHomeRow:
				res.category = costSFRBase
			case m.isStretchCol:
				res.additiveCost += w.PenaltySFRLat * scale
				res.category = costSFRLat
			default:
				res.additiveCost += w.PenaltySFRBadRow * scale
				res.category = costSFRBadRow
			}
		} else {
			res.category = costSFRWeak
			if m.isHomeRow {
				res.additiveCost += w.PenaltySFRWeakFinger * scale
			} else {
				res.additiveCost += w.PenaltySFRBadRow * 5.0 * scale
			}
		}
		return res
	}

	if m.isSFB {
		var penalty float64
		weakApplied := false

		switch {
		case m.isLatStep:
			if m.isStrongFinger {
				penalty = w.PenaltySFBLateral
				res.category = costSFBLat
			} else {
				penalty = w.PenaltySFBLateralWeak
				res.category = costSFBLatWeak
				weakApplied = true
			}
		case m.isBotLatSeq:
			penalty = w.PenaltySFBBottom
			res.category = costSFBBot
		case m.rowDiff >= w.ThresholdSFBLongRowDiff:
			penalty = w.PenaltySFBLong
			res.category = costSFBLong
		case m.rowDiff > 0 && m.colDiff > 0:
			penalty = w.PenaltySFBDiagonal
			res.category = costSFBDiag
		default:
			penalty = w.PenaltySFBBase
			res.category = costSFBBase
			if m.isOutward {
				penalty += w.PenaltySFBOutwardAdder
			}
		}

		if !m.isStrongFinger && !weakApplied {
			penalty *= w.WeightWeakFingerSFB
		}

		res.penaltyMultiplier = penalty
		return res
	}

	if m.isScissor {
		res.penaltyMultiplier = w.PenaltyScissor
		res.category = costScissor
	} else if m.isLateralStretch {
		res.penaltyMultiplier = w.PenaltyLateral
		res.category = costLateral
	}

	return res
}
