package corpus

import (
	"strconv"
	"strings"

	"github.com/infodungeon/keyforge/internal/errs"
)

// BlendComponent is one weighted source in a corpus blend spec.
type BlendComponent struct {
	Name   string
	Weight float64
}

// ParseBlendSpec parses a corpus source identifier, either a bare name
// ("default") or a weighted blend ("default:1.0,code:0.5"), per spec
// §4.1.
func ParseBlendSpec(spec string) ([]BlendComponent, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errs.CorpusParseError("empty corpus source identifier")
	}
	parts := strings.Split(spec, ",")
	out := make([]BlendComponent, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, weightStr, hasWeight := strings.Cut(p, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errs.CorpusParseError("blend component with empty name in " + spec)
		}
		weight := 1.0
		if hasWeight {
			w, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
			if err != nil || !isFinite(w) || w < 0 {
				return nil, errs.CorpusParseError("bad blend weight for " + name)
			}
			weight = w
		}
		out = append(out, BlendComponent{Name: name, Weight: weight})
	}
	if len(out) == 0 {
		return nil, errs.CorpusParseError("blend spec has no components: " + spec)
	}
	return out, nil
}
