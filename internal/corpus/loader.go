// Package corpus implements the Corpus Loader (spec §4.1): ingestion of
// tab-separated n-gram frequency files and the physical cost matrix,
// projected onto an internal character alphabet and cached by
// (corpus_name, cost_matrix_name, geometry_hash).
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamalyes/go-toolbox/pkg/syncx"

	"github.com/infodungeon/keyforge/internal/config"
	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/geometry"
)

// Loader loads and caches Corpus bundles from a data directory laid out as
// "<name>.1grams.tsv", "<name>.2grams.tsv", "<name>.3grams.tsv" per corpus
// source and "cost_matrices/<name>.csv" per cost matrix, one file set per
// name referenced by a blend spec or cost_matrix_name.
type Loader struct {
	DataDir      string
	CorpusScale  float64
	TrigramLimit int

	cache *syncx.Map[string, *Corpus]
}

// NewLoader constructs a Loader backed by the teacher's syncx.Map idiom
// for a thread-safe lazy-load cache, rather than a sync.RWMutex+map pair.
func NewLoader(dataDir string, weights config.ScoringWeights) *Loader {
	return &Loader{
		DataDir:      dataDir,
		CorpusScale:  weights.CorpusScale,
		TrigramLimit: 3000,
		cache:        syncx.NewMap[string, *Corpus](),
	}
}

// Load resolves a corpus source spec and cost matrix name against geom,
// returning the cached Corpus if this exact key was already loaded.
func (l *Loader) Load(corpusSourceSpec, costMatrixName string, defs config.LayoutDefinitions, defaultCostMS float64, geom *geometry.Geometry) (*Corpus, error) {
	key := cacheKey(corpusSourceSpec, costMatrixName, geom.Hash())
	if c, ok := l.cache.Load(key); ok {
		return c, nil
	}

	alpha := BuildAlphabet(defs)

	components, err := ParseBlendSpec(corpusSourceSpec)
	if err != nil {
		return nil, err
	}

	mono := make([]float64, alpha.Size())
	bi := make([][]float64, alpha.Size())
	for i := range bi {
		bi[i] = make([]float64, alpha.Size())
	}
	var tri []TrigramEntry
	triIndex := make(map[[3]int]int)

	for _, comp := range components {
		if err := l.blendComponent(comp, alpha, mono, bi, &tri, triIndex); err != nil {
			return nil, err
		}
	}

	var cost *CostMatrix
	if costMatrixName == "" {
		cost = UniformCostMatrix(geom.SlotCount(), defaultCostMS)
	} else {
		cost, err = l.loadNamedCostMatrix(costMatrixName, geom.SlotCount())
		if err != nil {
			return nil, err
		}
	}

	c := NewCorpus(alpha, mono, bi, tri, l.TrigramLimit, cost)
	l.cache.Store(key, c)
	return c, nil
}

// blendComponent loads one named source and accumulates its
// weight-scaled counts into mono/bi/tri.
func (l *Loader) blendComponent(comp BlendComponent, alpha *Alphabet, mono []float64, bi [][]float64, tri *[]TrigramEntry, triIndex map[[3]int]int) error {
	if rows, err := l.readNgramFile(comp.Name, "1grams"); err != nil {
		return err
	} else {
		for _, row := range rows {
			if len(row.ngram) != 1 {
				continue
			}
			idx := alpha.IndexOf(row.ngram[0])
			if idx < 0 {
				continue
			}
			mono[idx] += (row.count / l.CorpusScale) * comp.Weight
		}
	}

	if rows, err := l.readNgramFile(comp.Name, "2grams"); err != nil {
		return err
	} else {
		for _, row := range rows {
			if len(row.ngram) != 2 {
				continue
			}
			i, j := alpha.IndexOf(row.ngram[0]), alpha.IndexOf(row.ngram[1])
			if i < 0 || j < 0 {
				continue
			}
			bi[i][j] += (row.count / l.CorpusScale) * comp.Weight
		}
	}

	if rows, err := l.readNgramFile(comp.Name, "3grams"); err != nil {
		return err
	} else {
		for _, row := range rows {
			if len(row.ngram) != 3 {
				continue
			}
			i, j, k := alpha.IndexOf(row.ngram[0]), alpha.IndexOf(row.ngram[1]), alpha.IndexOf(row.ngram[2])
			if i < 0 || j < 0 || k < 0 {
				continue
			}
			w := (row.count / l.CorpusScale) * comp.Weight
			key := [3]int{i, j, k}
			if pos, ok := triIndex[key]; ok {
				(*tri)[pos].Weight += w
			} else {
				triIndex[key] = len(*tri)
				*tri = append(*tri, TrigramEntry{I: i, J: j, K: k, Weight: w})
			}
		}
	}
	return nil
}

func (l *Loader) readNgramFile(sourceName, kind string) ([]ngramCount, error) {
	path := filepath.Join(l.DataDir, sourceName+"."+kind+".tsv")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.CorpusParseError(err.Error())
	}
	defer f.Close()
	return scanNgramFile(f)
}

func (l *Loader) loadNamedCostMatrix(name string, wantSlots int) (*CostMatrix, error) {
	path := filepath.Join(l.DataDir, "cost_matrices", name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.CorpusParseError(fmt.Sprintf("cost matrix %q: %v", name, err))
	}
	defer f.Close()
	return loadCostMatrix(f, wantSlots)
}

func cacheKey(corpusSpec, costMatrixName, geometryHash string) string {
	sum := sha256.Sum256([]byte(corpusSpec + "\x00" + costMatrixName + "\x00" + geometryHash))
	return hex.EncodeToString(sum[:])
}
