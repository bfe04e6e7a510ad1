package cli

import (
	"os"
	"path/filepath"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/corpus"
	"github.com/infodungeon/keyforge/internal/geometry"
)

// dataDirEnvVar is spec §6's KEYFORGE_DATA_DIR override.
const dataDirEnvVar = "KEYFORGE_DATA_DIR"

const defaultDataDir = "data"

// resolveDataDir honors KEYFORGE_DATA_DIR over the flag default, matching
// the precedence internal/node's identity resolution gives KEYFORGE_NODE_ID.
func resolveDataDir(flagValue string) string {
	if v := os.Getenv(dataDirEnvVar); v != "" {
		return v
	}
	return flagValue
}

// dataset bundles everything validate needs to score one layout string
// against real on-disk data, built the same way internal/node.buildJobInputs
// assembles a job's scoring inputs, just sourced from local files instead
// of a Job's wire blobs.
type dataset struct {
	geom    *geometry.Geometry
	corp    *corpus.Corpus
	weights config.ScoringWeights
	defs    config.LayoutDefinitions
}

func loadDataset(dataDir, keyboardName, corpusName, costMatrixName, weightsFile string) (*dataset, error) {
	kdef, err := geometry.LoadKeyboardFile(filepath.Join(dataDir, "keyboards", keyboardName+".json"))
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if weightsFile != "" {
		loaded, err := config.NewLoader().LoadFromFile(weightsFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	loader := corpus.NewLoader(dataDir, cfg.Weights)
	corp, err := loader.Load(corpusName, costMatrixName, cfg.Defs, cfg.Weights.DefaultCostMS, &kdef.Geometry)
	if err != nil {
		return nil, err
	}

	return &dataset{
		geom:    &kdef.Geometry,
		corp:    corp,
		weights: cfg.Weights,
		defs:    cfg.Defs,
	}, nil
}
