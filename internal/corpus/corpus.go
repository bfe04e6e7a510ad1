package corpus

import (
	"sort"

	"github.com/infodungeon/keyforge/internal/geometry"
)

// TrigramEntry is one retained top-K trigram: internal alphabet indices
// i, j, k and its blended weight.
type TrigramEntry struct {
	I, J, K int
	Weight  float64
}

// Corpus is the immutable, lazily-loaded, cached preprocessed n-gram and
// cost-matrix bundle the Scoring Engine borrows for the duration of a
// call (spec §4.1, §5 ownership rules). Never mutated after construction.
type Corpus struct {
	Alphabet *Alphabet

	Freq1 []float64   // monogram weight, indexed by alphabet index
	Freq2 [][]float64 // bigram weight matrix, Freq2[i][j]

	Trigrams []TrigramEntry // bounded top-K, sorted by descending weight

	BigramTotal  float64
	TrigramTotal float64

	Cost *CostMatrix
}

// NewCorpus assembles a Corpus from blended monogram/bigram/trigram rows
// already projected onto alphabet indices, keeping only the top maxTrigrams
// trigrams by weight (spec §4.1's loader_trigram_limit). Exported so
// callers outside this package (tests, the benchmark CLI fixture) can
// build a Corpus without going through the file-backed Loader.
func NewCorpus(alpha *Alphabet, mono []float64, bi [][]float64, tri []TrigramEntry, maxTrigrams int, cost *CostMatrix) *Corpus {
	sort.Slice(tri, func(i, j int) bool { return tri[i].Weight > tri[j].Weight })
	if maxTrigrams > 0 && len(tri) > maxTrigrams {
		tri = tri[:maxTrigrams]
	}

	var bigramTotal, trigramTotal float64
	for _, row := range bi {
		for _, v := range row {
			bigramTotal += v
		}
	}
	for _, t := range tri {
		trigramTotal += t.Weight
	}

	return &Corpus{
		Alphabet:     alpha,
		Freq1:        mono,
		Freq2:        bi,
		Trigrams:     tri,
		BigramTotal:  bigramTotal,
		TrigramTotal: trigramTotal,
		Cost:         cost,
	}
}

// InMemorySize estimates the Corpus's resident size in bytes: the
// monogram/bigram float64 arrays, the retained trigram entries, and the
// cost matrix, for the benchmark CLI's throughput report.
func (c *Corpus) InMemorySize() int64 {
	const f64 = 8
	size := int64(len(c.Freq1)) * f64
	for _, row := range c.Freq2 {
		size += int64(len(row)) * f64
	}
	size += int64(len(c.Trigrams)) * (3*8 + f64)
	if c.Cost != nil {
		size += c.Cost.InMemorySize()
	}
	return size
}

// SlotCost returns the physical transition cost between two geometry slots,
// falling back to 0 when no cost matrix entry applies (e.g. identical
// slot).
func (c *Corpus) SlotCost(g *geometry.Geometry, s1, s2 int) float64 {
	if s1 == s2 {
		return 0
	}
	return c.Cost.At(s1, s2)
}
