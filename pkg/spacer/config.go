package spacer

import (
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Config holds the tunables of a Context. None of them affect soundness.
type Config struct {
	// MaxLevel bounds the number of frames. Reaching it yields Unknown.
	MaxLevel int `json:"maxLevel" mapstructure:"maxLevel"`
	// DomainWidth is the bit width of the integers the default oracle
	// decides over.
	DomainWidth int `json:"domainWidth" mapstructure:"domainWidth"`
	// OracleTimeout bounds a reachability check. It is scaled by the
	// weakness of the obligation. Zero disables it.
	OracleTimeout time.Duration `json:"oracleTimeout" mapstructure:"oracleTimeout"`

	UseRestarts             bool `json:"useRestarts" mapstructure:"useRestarts"`
	RestartInitialThreshold int  `json:"restartInitialThreshold" mapstructure:"restartInitialThreshold"`

	LocalGeneralization bool `json:"localGeneralization" mapstructure:"localGeneralization"`
	FailureLimit        int  `json:"failureLimit" mapstructure:"failureLimit"`
	MaxWeakness         int  `json:"maxWeakness" mapstructure:"maxWeakness"`

	GlobalGeneralization bool `json:"globalGeneralization" mapstructure:"globalGeneralization"`
	ClusterGas           int  `json:"clusterGas" mapstructure:"clusterGas"`
	PobGas               int  `json:"pobGas" mapstructure:"pobGas"`
	ClosureScale         int  `json:"closureScale" mapstructure:"closureScale"`

	PushPobs        bool `json:"pushPobs" mapstructure:"pushPobs"`
	PushPobMaxDepth int  `json:"pushPobMaxDepth" mapstructure:"pushPobMaxDepth"`

	// Validate re-checks every answer before Solve returns it.
	Validate bool `json:"validate" mapstructure:"validate"`
}

func DefaultConfig() Config {
	return Config{
		MaxLevel:                1000,
		DomainWidth:             16,
		UseRestarts:             false,
		RestartInitialThreshold: 10,
		LocalGeneralization:     true,
		FailureLimit:            10,
		MaxWeakness:             10,
		GlobalGeneralization:    false,
		ClusterGas:              10,
		PobGas:                  10,
		ClosureScale:            4,
		PushPobs:                false,
		PushPobMaxDepth:         64,
	}
}

func (cfg Config) validate() error {
	switch {
	case cfg.MaxLevel < 0:
		return errors.Errorf("maxLevel must not be negative, got %d", cfg.MaxLevel)
	case cfg.OracleTimeout < 0:
		return errors.Errorf("oracleTimeout must not be negative, got %s", cfg.OracleTimeout)
	case cfg.FailureLimit < 1:
		return errors.Errorf("failureLimit must be positive, got %d", cfg.FailureLimit)
	case cfg.MaxWeakness < 0:
		return errors.Errorf("maxWeakness must not be negative, got %d", cfg.MaxWeakness)
	case cfg.ClosureScale < 1:
		return errors.Errorf("closureScale must be positive, got %d", cfg.ClosureScale)
	case cfg.UseRestarts && cfg.RestartInitialThreshold < 1:
		return errors.Errorf("restartInitialThreshold must be positive, got %d", cfg.RestartInitialThreshold)
	}
	return nil
}

// Options turns the configuration into solver options.
func (cfg Config) Options() []Option {
	return []Option{WithConfig(cfg)}
}

// ParseConfig reads a YAML or JSON document on top of DefaultConfig.
// Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, errors.Wrap(err, "parsing config")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, errors.Wrap(err, "decoding config")
	}
	return cfg, cfg.validate()
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := ParseConfig(data)
	return cfg, errors.Wrapf(err, "%s", path)
}
