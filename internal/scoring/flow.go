package scoring

import "github.com/infodungeon/keyforge/internal/geometry"

// flowAnalysis classifies a same-hand trigram's finger path, ported from
// the reference scorer's analyze_flow.
type flowAnalysis struct {
	is3HandRun    bool
	isSkip        bool
	isRedirect    bool
	isInwardRoll  bool
	isOutwardRoll bool
}

func signum(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func analyzeFlow(geom *geometry.Geometry, i, j, k int) flowAnalysis {
	var res flowAnalysis
	k1, k2, k3 := geom.Keys[i], geom.Keys[j], geom.Keys[k]
	if k1.Hand != k2.Hand || k2.Hand != k3.Hand {
		return res
	}
	res.is3HandRun = true

	f1, f2, f3 := int(k1.Finger), int(k2.Finger), int(k3.Finger)

	if f1 == f3 && f1 != f2 {
		res.isSkip = true
	}

	dir1, dir2 := f2-f1, f3-f2
	if dir1 != 0 && dir2 != 0 {
		switch {
		case signum(dir1) != signum(dir2):
			res.isRedirect = true
		case dir1 < 0:
			res.isInwardRoll = true
		default:
			res.isOutwardRoll = true
		}
	}

	return res
}
