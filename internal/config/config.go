// Package config loads the harness configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAdversarialTool names the fuzz harness when the config omits it.
const DefaultAdversarialTool = "adversarial-harness"

// Config is the harness configuration.
type Config struct {
	// Tool is the argv prefix of the conformance binary.
	Tool              []string      `yaml:"tool"`
	StructuredLogPath string        `yaml:"structured_log_path"`
	SeedMatrixPath    string        `yaml:"seed_matrix_path"`
	CatalogPath       string        `yaml:"catalog_path"`
	LogSchemaPath     string        `yaml:"log_schema_path"`
	ReportArtifacts   []string      `yaml:"report_artifacts"`
	CycleTimeout      time.Duration `yaml:"cycle_timeout"`
	AdversarialTool   string        `yaml:"adversarial_tool"`
}

// Load reads a YAML config. Unknown fields are rejected, relative paths are
// resolved against the config file's directory, and the result is not yet
// validated: flags may still override fields before Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.resolve(filepath.Dir(abs))
	return cfg, nil
}

// Parse decodes YAML config bytes without resolving paths.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if cfg.AdversarialTool == "" {
		cfg.AdversarialTool = DefaultAdversarialTool
	}
	return &cfg, nil
}

func (c *Config) resolve(dir string) {
	c.StructuredLogPath = resolvePath(dir, c.StructuredLogPath)
	c.SeedMatrixPath = resolvePath(dir, c.SeedMatrixPath)
	c.CatalogPath = resolvePath(dir, c.CatalogPath)
	c.LogSchemaPath = resolvePath(dir, c.LogSchemaPath)
	for i, p := range c.ReportArtifacts {
		c.ReportArtifacts[i] = resolvePath(dir, p)
	}
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// ValidateExecution checks the fields needed to run the conformance binary
// and link its log: enough for replay mode.
func (c *Config) ValidateExecution() error {
	if errs := c.executionErrors(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Validate reports every missing or invalid field at once.
func (c *Config) Validate() error {
	errs := c.executionErrors()
	if c.SeedMatrixPath == "" {
		errs = append(errs, errors.New("seed_matrix_path is required"))
	}
	if c.AdversarialTool == "" {
		errs = append(errs, errors.New("adversarial_tool must not be empty"))
	}
	// Bundles store report copies by base name under reports/.
	seen := make(map[string]string, len(c.ReportArtifacts))
	for _, p := range c.ReportArtifacts {
		base := filepath.Base(p)
		if prev, ok := seen[base]; ok {
			errs = append(errs, fmt.Errorf("report_artifacts %s and %s share the base name %q", prev, p, base))
			continue
		}
		seen[base] = p
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) executionErrors() []error {
	var errs []error
	if len(c.Tool) == 0 || c.Tool[0] == "" {
		errs = append(errs, errors.New("tool is required"))
	}
	if c.StructuredLogPath == "" {
		errs = append(errs, errors.New("structured_log_path is required"))
	}
	if c.CycleTimeout <= 0 {
		errs = append(errs, errors.New("cycle_timeout is required and must be positive"))
	}
	return errs
}
