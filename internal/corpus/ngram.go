package corpus

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/infodungeon/keyforge/internal/errs"
)

// ngramCount is one parsed TSV row: the raw (lowercased) n-gram string and
// its count.
type ngramCount struct {
	ngram string
	count float64
}

// scanNgramFile reads a `<ngram>\t<count>` TSV stream (spec §4.1). Blank
// lines are skipped; malformed rows or non-finite counts fail the whole
// load with CorpusParseError, matching the loader's crate-level
// RawCostData rejection of non-finite rows.
func scanNgramFile(r io.Reader) ([]ngramCount, error) {
	var out []ngramCount
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tab := strings.LastIndexByte(line, '\t')
		if tab < 0 {
			return nil, errs.CorpusParseError("line " + strconv.Itoa(lineNo) + ": missing tab separator")
		}
		ngram := strings.ToLower(line[:tab])
		countStr := strings.TrimSpace(line[tab+1:])
		count, err := strconv.ParseFloat(countStr, 64)
		if err != nil {
			return nil, errs.CorpusParseError("line " + strconv.Itoa(lineNo) + ": bad count " + countStr)
		}
		if !isFinite(count) || count < 0 {
			return nil, errs.CorpusParseError("line " + strconv.Itoa(lineNo) + ": non-finite or negative count")
		}
		out = append(out, ngramCount{ngram: ngram, count: count})
	}
	if err := sc.Err(); err != nil {
		return nil, errs.CorpusParseError(err.Error())
	}
	return out, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
