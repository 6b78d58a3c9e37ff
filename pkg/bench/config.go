package bench

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the pipeline parameters loaded from YAML.
type Config struct {
	// Model overrides the gateway default model when non-empty.
	Model string `yaml:"model"`

	// NumExamples is the few-shot example count per prompt.
	NumExamples int `yaml:"num_examples"`

	// Seed drives example selection. The same seed always selects the same
	// examples.
	Seed int64 `yaml:"seed"`

	// Workers bounds pipeline concurrency.
	Workers int `yaml:"workers"`

	Temperature         float64 `yaml:"temperature"`
	MaxCompletionTokens int     `yaml:"max_completion_tokens"`

	// MaxPromptBytes bounds rendered prompt size. Zero disables the bound.
	MaxPromptBytes int `yaml:"max_prompt_bytes"`

	// SampleErrors caps the mismatch list in a metrics report.
	SampleErrors int `yaml:"sample_errors"`
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		NumExamples:         10,
		Seed:                1,
		Workers:             4,
		Temperature:         0,
		MaxCompletionTokens: 200,
		MaxPromptBytes:      65536,
		SampleErrors:        10,
	}
}

// LoadConfig reads a YAML pipeline config from disk, filling defaults for
// omitted fields.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bench config: open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := LoadConfigFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("bench config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromReader decodes a YAML pipeline config from r.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.NumExamples == 0 {
		c.NumExamples = def.NumExamples
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.MaxCompletionTokens == 0 {
		c.MaxCompletionTokens = def.MaxCompletionTokens
	}
	if c.SampleErrors == 0 {
		c.SampleErrors = def.SampleErrors
	}
}

// Validate rejects parameter combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.NumExamples < 1 {
		return fmt.Errorf("bench config: num_examples must be positive, got %d", c.NumExamples)
	}
	if c.Workers < 1 {
		return fmt.Errorf("bench config: workers must be positive, got %d", c.Workers)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("bench config: temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.MaxCompletionTokens < 1 {
		return fmt.Errorf("bench config: max_completion_tokens must be positive, got %d", c.MaxCompletionTokens)
	}
	if c.MaxPromptBytes < 0 {
		return fmt.Errorf("bench config: max_prompt_bytes cannot be negative, got %d", c.MaxPromptBytes)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
