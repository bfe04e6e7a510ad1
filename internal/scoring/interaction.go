package scoring

import (
	"github.com/kamalyes/go-toolbox/pkg/mathx"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/geometry"
)

// keyInteraction classifies the physical relationship between two slots
// visited consecutively, ported from the reference scorer's
// analyze_interaction.
type keyInteraction struct {
	isSameHand    bool
	finger        int
	isStrongFinger bool

	isRepeat         bool
	isSFB            bool
	isScissor        bool
	isLateralStretch bool

	isRollIn  bool
	isRollOut bool

	rowDiff int
	colDiff int
	isHomeRow bool

	isLatStep    bool
	isStretchCol bool
	isBotLatSeq  bool
	isOutward    bool
}

// analyzeInteraction is the same-hand bigram classifier behind SFB,
// scissor, and roll detection (spec §4.2's bigram pass).
func analyzeInteraction(geom *geometry.Geometry, i, j int, w config.ScoringWeights) keyInteraction {
	var res keyInteraction
	k1, k2 := geom.Keys[i], geom.Keys[j]
	if k1.Hand != k2.Hand {
		return res
	}
	res.isSameHand = true
	res.finger = int(k1.Finger)
	res.isStrongFinger = res.finger == geometry.FingerIndex || res.finger == geometry.FingerMiddle

	if i == j {
		res.isRepeat = true
		res.isHomeRow = k1.Row == geom.HomeRow
		res.isStretchCol = k1.IsStretch
		return res
	}

	if k1.Finger == k2.Finger {
		res.isSFB = true
		res.rowDiff = mathx.Abs(k1.Row - k2.Row)
		res.colDiff = mathx.Abs(k1.Col - k2.Col)

		if res.rowDiff == 0 && res.colDiff == 1 {
			res.isLatStep = true
		}
		if k1.Row > geom.HomeRow && k2.Row > geom.HomeRow && res.colDiff > 0 {
			res.isBotLatSeq = true
		}
	} else {
		switch {
		case int(k1.Finger) > int(k2.Finger):
			res.isRollIn = true
		case int(k1.Finger) < int(k2.Finger):
			res.isRollOut = true
		}

		if mathx.Abs(int(k1.Finger)-int(k2.Finger)) == 1 && mathx.Abs(k1.Row-k2.Row) >= w.ThresholdScissorRowDiff {
			res.isScissor = true

			topFinger, botFinger := k1.Finger, k2.Finger
			if k1.Row >= k2.Row {
				topFinger, botFinger = k2.Finger, k1.Finger
			}
			if w.IsComfortableScissor(int(topFinger), int(botFinger), mathx.Abs(k1.Row-k2.Row)) {
				res.isScissor = false
			}
		}

		if k1.Row == k2.Row && mathx.Abs(k1.Col-k2.Col) == 1 && (k1.IsStretch || k2.IsStretch) {
			res.isLateralStretch = true
		}
	}

	if k2.Row < k1.Row {
		res.isOutward = true
	}
	if k1.IsStretch && !k2.IsStretch {
		res.isOutward = false
	}
	if !k1.IsStretch && k2.IsStretch {
		res.isOutward = true
	}

	return res
}
