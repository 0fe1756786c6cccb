package engine

import (
	"encoding/json"
	"fmt"

	"github.com/villawad/agora-results/internal/record"
)

// Step is one configured pipeline step: a unit reference plus parameters.
// Steps are immutable once loaded.
type Step struct {
	Ref    string
	Params Params
}

// Config is an ordered pipeline. Order is execution order; no reordering,
// deduplication or dependency inference is performed.
type Config []Step

// Clone returns a copy of c whose steps share no parameter values with c.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for i, s := range c {
		out[i] = Step{Ref: s.Ref, Params: s.Params.Clone()}
	}
	return out
}

// MarshalJSON encodes the config in its document form: an array of
// [reference, parameters-or-null] pairs.
func (c Config) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(c))
	for i, s := range c {
		var params any
		if len(s.Params) > 0 {
			params = map[string]any(s.Params)
		}
		pairs[i] = [2]any{s.Ref, params}
	}
	return json.Marshal(pairs)
}

// Hash returns a stable content hash of the configuration, used to group
// ledger runs that share a pipeline.
func (c Config) Hash() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	return record.HashBytes(record.DomainConfig, data), nil
}

// DefaultConfig is used when no configuration is supplied: a basic tally
// summary, then a non-iterative sort that marks the winners.
func DefaultConfig() Config {
	return Config{
		{Ref: "agora_results.pipes.results.do_tallies", Params: Params{}},
		{Ref: "agora_results.pipes.sort.sort_non_iterative", Params: Params{}},
	}
}
