package config

// SearchParams tunes the Search Engine's annealing schedule and restart
// policy (spec §3).
type SearchParams struct {
	SearchEpochs            int     `json:"search_epochs" yaml:"search_epochs"`
	SearchSteps             int     `json:"search_steps" yaml:"search_steps"`
	SearchPatience          int     `json:"search_patience" yaml:"search_patience"`
	SearchPatienceThreshold float64 `json:"search_patience_threshold" yaml:"search_patience_threshold"`
	TempMin                 float64 `json:"temp_min" yaml:"temp_min"`
	TempMax                 float64 `json:"temp_max" yaml:"temp_max"`
	// OptLimitFast bounds how many moves pass between full-rescore drift
	// guards in the reference design. This engine rescores fully on every
	// move (see internal/search), so the field round-trips on the wire but
	// has no effect here; kept for job_id/canonical_json stability.
	OptLimitFast int `json:"opt_limit_fast" yaml:"opt_limit_fast"`
	OptLimitSlow int `json:"opt_limit_slow" yaml:"opt_limit_slow"`
}

// DefaultSearchParams returns the reference defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		SearchEpochs:            10_000,
		SearchSteps:             50_000,
		SearchPatience:          500,
		SearchPatienceThreshold: 0.1,
		TempMin:                 0.08,
		TempMax:                 1000.0,
		OptLimitFast:            600,
		OptLimitSlow:            3000,
	}
}
