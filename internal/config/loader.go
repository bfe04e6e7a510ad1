package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"gopkg.in/yaml.v3"
)

// Config bundles the three knob groups a job description carries (spec §3 Job).
type Config struct {
	Weights ScoringWeights     `json:"weights" yaml:"weights"`
	Params  SearchParams       `json:"params" yaml:"params"`
	Defs    LayoutDefinitions  `json:"defs" yaml:"defs"`
}

// DefaultConfig returns a Config with every field at its reference default.
func DefaultConfig() *Config {
	return &Config{
		Weights: DefaultScoringWeights(),
		Params:  DefaultSearchParams(),
		Defs:    DefaultLayoutDefinitions(),
	}
}

// Loader reads weights/params/defs presets from YAML or JSON, following
// the teacher's dual-format loader (config/loader.go) and defaulting every
// unset field with mathx.IfNotZero/IfEmpty the way teacher defaults Config.
type Loader struct{}

// NewLoader constructs a Loader.
func NewLoader() *Loader { return &Loader{} }

// LoadFromFile loads a Config from a .yaml/.yml/.json file, starting from
// defaults and overlaying whatever the file specifies.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		ext = ext[1:]
	}
	return l.LoadFromBytes(data, ext)
}

// LoadFromBytes loads a Config from raw bytes in the given format
// ("yaml", "yml", or "json").
func (l *Loader) LoadFromBytes(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported format %q (only yaml/yml/json)", format)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults backfills zero-valued fields a partial preset omitted,
// mirroring the teacher's per-field mathx.IfNotZero/IfEmpty defaulting in
// distributed/master processConfig-style setup.
func applyDefaults(cfg *Config) {
	def := DefaultSearchParams()
	cfg.Params.SearchEpochs = mathx.IfNotZero(cfg.Params.SearchEpochs, def.SearchEpochs)
	cfg.Params.SearchSteps = mathx.IfNotZero(cfg.Params.SearchSteps, def.SearchSteps)
	cfg.Params.SearchPatience = mathx.IfNotZero(cfg.Params.SearchPatience, def.SearchPatience)
	cfg.Params.SearchPatienceThreshold = mathx.IfNotZero(cfg.Params.SearchPatienceThreshold, def.SearchPatienceThreshold)
	cfg.Params.TempMin = mathx.IfNotZero(cfg.Params.TempMin, def.TempMin)
	cfg.Params.TempMax = mathx.IfNotZero(cfg.Params.TempMax, def.TempMax)
	cfg.Params.OptLimitFast = mathx.IfNotZero(cfg.Params.OptLimitFast, def.OptLimitFast)
	cfg.Params.OptLimitSlow = mathx.IfNotZero(cfg.Params.OptLimitSlow, def.OptLimitSlow)

	defDefs := DefaultLayoutDefinitions()
	cfg.Defs.TierHighChars = mathx.IfEmpty(cfg.Defs.TierHighChars, defDefs.TierHighChars)
	cfg.Defs.TierMedChars = mathx.IfEmpty(cfg.Defs.TierMedChars, defDefs.TierMedChars)
	cfg.Defs.TierLowChars = mathx.IfEmpty(cfg.Defs.TierLowChars, defDefs.TierLowChars)
	cfg.Defs.CriticalBigrams = mathx.IfEmpty(cfg.Defs.CriticalBigrams, defDefs.CriticalBigrams)
	cfg.Defs.FingerRepeatScale = mathx.IfEmpty(cfg.Defs.FingerRepeatScale, defDefs.FingerRepeatScale)

	defW := DefaultScoringWeights()
	cfg.Weights.FingerPenaltyScale = mathx.IfEmpty(cfg.Weights.FingerPenaltyScale, defW.FingerPenaltyScale)
	cfg.Weights.ComfortableScissors = mathx.IfEmpty(cfg.Weights.ComfortableScissors, defW.ComfortableScissors)
	cfg.Weights.CorpusScale = mathx.IfNotZero(cfg.Weights.CorpusScale, defW.CorpusScale)
	cfg.Weights.DefaultCostMS = mathx.IfNotZero(cfg.Weights.DefaultCostMS, defW.DefaultCostMS)
}
