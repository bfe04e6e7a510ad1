package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/infodungeon/keyforge/internal/layout"
	"github.com/infodungeon/keyforge/internal/logging"
	"github.com/infodungeon/keyforge/internal/scoring"
	"github.com/infodungeon/keyforge/internal/wire"
)

// Validate parses a wire-format layout string, scores it against a
// dataset loaded from disk, and emits a JSON report (spec §6).
func Validate(args []string, log logging.ILogger) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	dataDir := fs.String("data-dir", defaultDataDir, "data directory (overridden by KEYFORGE_DATA_DIR)")
	keyboard := fs.String("keyboard", "default", "keyboard definition name under data/keyboards")
	corpusName := fs.String("corpus", "default", "corpus source spec, e.g. a blend expression")
	costMatrix := fs.String("cost-matrix", "", "cost matrix name under data/cost_matrices (empty = uniform)")
	weightsFile := fs.String("weights", "", "YAML/JSON weights preset (empty = reference defaults)")
	trigramLimit := fs.Int("trigram-limit", 0, "trigram cap passed to the Scoring Engine (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return ExitUserInput
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "validate: expected exactly one <layout-string> argument")
		return ExitUserInput
	}
	layoutArg := fs.Arg(0)

	resolvedDir := resolveDataDir(*dataDir)
	ds, err := loadDataset(resolvedDir, *keyboard, *corpusName, *costMatrix, *weightsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: load dataset: %v\n", err)
		return ExitConfiguration
	}

	perm, err := parsePermutation(layoutArg, ds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return ExitUserInput
	}

	score, err := scoring.Score(perm, ds.corp, ds.weights, ds.geom, ds.defs, *trigramLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: scoring failed: %v\n", err)
		return ExitSemantic
	}
	if !finiteScore(score) {
		fmt.Fprintln(os.Stderr, "validate: score contains NaN or Inf")
		return ExitSemantic
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(score); err != nil {
		fmt.Fprintf(os.Stderr, "validate: encode report: %v\n", err)
		return ExitInternal
	}
	log.InfoKV("validate complete", "layout_score", score.LayoutScore)
	return ExitSuccess
}

// parsePermutation decodes a wire layout string and validates it forms a
// legal bijection over ds's geometry (spec §6 scenario: malformed or
// short layout strings are a parse error, exit 1).
func parsePermutation(s string, ds *dataset) (*layout.Permutation, error) {
	wireChars, err := wire.ParseLayout(s)
	if err != nil {
		return nil, fmt.Errorf("parse layout string: %w", err)
	}
	if len(wireChars) != ds.geom.SlotCount() {
		return nil, fmt.Errorf("layout has %d slots, geometry has %d", len(wireChars), ds.geom.SlotCount())
	}

	alpha := ds.corp.Alphabet
	perm := layout.NewPermutation(ds.geom, alpha)
	for slot, c := range wireChars {
		if c == 0 {
			continue
		}
		idx := alpha.IndexOf(c)
		if idx < 0 {
			return nil, fmt.Errorf("character %q at slot %d is not in the scoring alphabet", c, slot)
		}
		perm.Place(slot, idx)
	}

	if err := layout.ValidateBijection(perm, ds.geom.AssignableSlots(), alpha, nil); err != nil {
		return nil, err
	}
	return perm, nil
}

func finiteScore(s scoring.Score) bool {
	return isFinite(s.LayoutScore) && isFinite(s.GeoDist) && isFinite(s.FlowCost) &&
		isFinite(s.MechSFB) && isFinite(s.TierPenalty) && isFinite(s.ImbalancePenalty)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
