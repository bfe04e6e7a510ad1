package corpus

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/infodungeon/keyforge/internal/errs"
)

// CostMatrix is the N×N physical transition cost table (milliseconds)
// from spec §4.1, shared by reference and never mutated after load.
type CostMatrix struct {
	N    int
	cost []float64 // row-major, N*N
}

// At returns cost[s1][s2].
func (m *CostMatrix) At(s1, s2 int) float64 { return m.cost[s1*m.N+s2] }

// InMemorySize returns the cost table's resident size in bytes.
func (m *CostMatrix) InMemorySize() int64 { return int64(len(m.cost)) * 8 }

// loadCostMatrix parses an N×N CSV of milliseconds, with N equal to
// wantSlots, grounded on the teacher corpus loader's flexible CSV reading
// (scorer/loader.rs's csv::ReaderBuilder) but using the stdlib
// encoding/csv reader the Go ecosystem reaches for — none of the example
// repos import a third-party CSV package.
func loadCostMatrix(r io.Reader, wantSlots int) (*CostMatrix, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errs.CorpusParseError("cost matrix: " + err.Error())
	}
	if len(rows) != wantSlots {
		return nil, errs.CorpusSizeMismatch(len(rows), wantSlots)
	}
	m := &CostMatrix{N: wantSlots, cost: make([]float64, wantSlots*wantSlots)}
	for i, row := range rows {
		if len(row) != wantSlots {
			return nil, errs.CorpusSizeMismatch(len(row), wantSlots)
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || !isFinite(v) || v < 0 {
				return nil, errs.CorpusParseError("cost matrix: non-finite or negative cell")
			}
			m.cost[i*wantSlots+j] = v
		}
	}
	return m, nil
}

// UniformCostMatrix synthesizes a cost matrix from a default per-transition
// cost when no explicit cost matrix file is supplied, matching
// ScoringWeights.DefaultCostMS. Exported for test fixtures built outside
// this package.
func UniformCostMatrix(slots int, defaultMS float64) *CostMatrix {
	m := &CostMatrix{N: slots, cost: make([]float64, slots*slots)}
	for i := range m.cost {
		m.cost[i] = defaultMS
	}
	return m
}
