// Package scoring implements the Scoring Engine (spec §4.2): a
// deterministic, side-effect-free, thread-safe evaluator that converts a
// Permutation plus a Corpus into a Score. Ported pass-by-pass from the
// reference scorer's engine/{monograms,bigrams,trigrams}.rs.
package scoring

import "sort"

// Violation names one specific offending bigram or trigram and its
// weighted cost contribution, for the top-N reporting lists.
type Violation struct {
	Keys  string  `json:"keys"`
	Score float64 `json:"score"`
	Freq  float64 `json:"freq"`
}

// Score is the full ergonomic breakdown of one permutation evaluation,
// ported from the reference scorer's ScoreDetails.
type Score struct {
	LayoutScore float64 `json:"layout_score"`

	GeoDist   float64 `json:"geo_dist"`
	FingerUse float64 `json:"finger_use"`

	MechSFR         float64 `json:"mech_sfr"`
	MechSFB         float64 `json:"mech_sfb"`
	MechSFBLat      float64 `json:"mech_sfb_lat"`
	MechSFBLatWeak  float64 `json:"mech_sfb_lat_weak"`
	MechSFBDiag     float64 `json:"mech_sfb_diag"`
	MechSFBLong     float64 `json:"mech_sfb_long"`
	MechSFBBot      float64 `json:"mech_sfb_bot"`
	MechScissor     float64 `json:"mech_scis"`
	MechLateral     float64 `json:"mech_lat"`
	MechMonoStretch float64 `json:"mech_mono_stretch"`

	FlowCost     float64 `json:"flow_cost"`
	FlowRedirect float64 `json:"flow_redirect"`
	FlowSkip     float64 `json:"flow_skip"`
	FlowRollIn   float64 `json:"flow_roll_in"`
	FlowRollOut  float64 `json:"flow_roll_out"`
	FlowRollTri  float64 `json:"flow_roll_tri"`

	TierPenalty      float64 `json:"tier_penalty"`
	ImbalancePenalty float64 `json:"imbalance_penalty"`

	TotalChars    float64 `json:"total_chars"`
	TotalBigrams  float64 `json:"total_bigrams"`
	TotalTrigrams float64 `json:"total_trigrams"`

	StatPinkyReach float64 `json:"stat_pinky_reach"`
	StatMonoStretch float64 `json:"stat_mono_stretch"`
	StatSFR        float64 `json:"stat_sfr"`

	StatSFB        float64 `json:"stat_sfb"`
	StatSFBBase    float64 `json:"stat_sfb_base"`
	StatSFBLat     float64 `json:"stat_sfb_lat"`
	StatSFBLatWeak float64 `json:"stat_sfb_lat_weak"`
	StatSFBDiag    float64 `json:"stat_sfb_diag"`
	StatSFBLong    float64 `json:"stat_sfb_long"`
	StatSFBBot     float64 `json:"stat_sfb_bot"`

	StatLSB     float64 `json:"stat_lsb"`
	StatLateral float64 `json:"stat_lat"`
	StatScissor float64 `json:"stat_scis"`

	StatRoll    float64 `json:"stat_roll"`
	StatRollIn  float64 `json:"stat_roll_in"`
	StatRollOut float64 `json:"stat_roll_out"`

	StatRoll3In  float64 `json:"stat_roll3_in"`
	StatRoll3Out float64 `json:"stat_roll3_out"`

	StatRedirect float64 `json:"stat_redir"`
	StatSkip     float64 `json:"stat_skip"`

	TopSFBs     []Violation `json:"top_sfbs,omitempty"`
	TopScissors []Violation `json:"top_scissors,omitempty"`
	TopRedirects []Violation `json:"top_redirs,omitempty"`
}

func topN(v []Violation, n int) []Violation {
	sort.Slice(v, func(i, j int) bool {
		if v[i].Score != v[j].Score {
			return v[i].Score > v[j].Score
		}
		return v[i].Keys < v[j].Keys
	})
	if len(v) > n {
		v = v[:n]
	}
	return v
}
