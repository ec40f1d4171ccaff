package coreset

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BmorConfig groups BMOR's constructor parameters (spec §4.3).
type BmorConfig struct {
	K     int     `yaml:"k"`               // target number of centers (lower bound)
	N     int     `yaml:"n"`               // expected cardinality bound
	Beta  float64 `yaml:"beta"`            // phase cost growth factor, default 2
	Gamma float64 `yaml:"gamma"`           // slackness on facility count/cost, default 2
	Seed  *int64  `yaml:"seed,omitempty"`  // RNG seed override; nil uses DefaultSeed
}

// MPConfig groups Mettu-Plaxton's constructor parameters (spec §4.2).
type MPConfig struct {
	Alpha float64 `yaml:"alpha"` // separation factor in (0,1], default 0.75
}

// CoresetConfig groups the two-pass coreset assembler's parameters (spec §4.4).
type CoresetConfig struct {
	Bmor       BmorConfig `yaml:"bmor"`
	SampleSize int        `yaml:"sample_size"` // target coreset size s
}

// DistanceConfig selects which metric implementation to wire up. The core
// treats distance as opaque (spec §9); this enum exists only so the CLI demo
// and config loader can materialize a concrete Distance.
type DistanceConfig struct {
	Kind string `yaml:"kind"` // "l1" or "l2"
}

// EngineConfig is the top-level, YAML-loadable configuration for driving any
// of the three engines, mirroring sim/bundle.go's PolicyBundle: nested
// groups and strict decoding. LoadEngineConfig does not validate values;
// BmorConfig and MPConfig each provide a Validate method for that.
type EngineConfig struct {
	Distance DistanceConfig `yaml:"distance"`
	Bmor     BmorConfig     `yaml:"bmor"`
	MP       MPConfig       `yaml:"mp"`
	Coreset  CoresetConfig  `yaml:"coreset"`
}

// LoadEngineConfig reads and strictly parses a YAML engine configuration
// file, rejecting unrecognized keys the way sim/bundle.go's
// LoadPolicyBundle does.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}
	var cfg EngineConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the BMOR parameter invariants from spec §7: beta < 1,
// gamma < 1, k == 0, or n == 0 at construction is a ParameterError.
func (c BmorConfig) Validate() error {
	if c.K == 0 {
		return newError(ParameterError, "k must be non-zero", nil)
	}
	if c.N == 0 {
		return newError(ParameterError, "n must be non-zero", nil)
	}
	if c.Beta < 1 {
		return newError(ParameterError, "beta must be >= 1", nil)
	}
	if c.Gamma < 1 {
		return newError(ParameterError, "gamma must be >= 1", nil)
	}
	return nil
}

// Validate checks that Alpha lies in (0, 1].
func (c MPConfig) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return newError(ParameterError, "alpha must be in (0, 1]", nil)
	}
	return nil
}

// SeedOrDefault returns the configured seed override, or DefaultSeed.
func (c BmorConfig) SeedOrDefault() Seed {
	if c.Seed == nil {
		return DefaultSeed
	}
	return Seed(*c.Seed)
}
