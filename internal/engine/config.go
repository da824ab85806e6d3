package engine

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/source"
)

// ConfigFileName is the name of the generated configuration in the scratch
// directory.
const ConfigFileName = "conf.toml"

// Config is the engine configuration file.
type Config struct {
	Project       string       `toml:"project"`
	SourceSuffix  string       `toml:"source_suffix"`
	InputEncoding string       `toml:"input_encoding"`
	ReportLevel   int          `toml:"report_level"`
	HaltLevel     int          `toml:"halt_level"`
	TabWidth      int          `toml:"tab_width"`
	PrimaryDomain string       `toml:"primary_domain"`
	Ignore        IgnoreConfig `toml:"ignore"`
}

// IgnoreConfig extends the built-in diagnostic allow-lists.
type IgnoreConfig struct {
	Roles      []string `toml:"roles"`
	Directives []string `toml:"directives"`
}

// DefaultConfig mirrors the configuration the extractor always ran with.
func DefaultConfig() Config {
	return Config{
		Project:       "extract-deprecated",
		SourceSuffix:  ".rst",
		InputEncoding: "utf-8-sig",
		ReportLevel:   int(diag.SevWarning),
		HaltLevel:     int(diag.SevSevere),
		TabWidth:      8,
		PrimaryDomain: "py",
		Ignore:        IgnoreConfig{Roles: []string{}, Directives: []string{}},
	}
}

// LoadConfig reads a TOML configuration. Missing keys keep their defaults,
// unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return fmt.Errorf("project must not be empty")
	}
	if !strings.HasPrefix(c.SourceSuffix, ".") {
		return fmt.Errorf("source_suffix must start with '.', got %q", c.SourceSuffix)
	}
	if !source.ValidEncoding(c.InputEncoding) {
		return fmt.Errorf("input_encoding: unknown encoding %q", c.InputEncoding)
	}
	if c.ReportLevel < 0 || c.ReportLevel > 5 {
		return fmt.Errorf("report_level must be within 0..5, got %d", c.ReportLevel)
	}
	if c.HaltLevel < 1 || c.HaltLevel > 5 {
		return fmt.Errorf("halt_level must be within 1..5, got %d", c.HaltLevel)
	}
	if c.TabWidth <= 0 {
		return fmt.Errorf("tab_width must be positive, got %d", c.TabWidth)
	}
	return nil
}

// WriteConfig writes cfg as TOML to path.
func WriteConfig(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) reportSeverity() diag.Severity {
	s, err := diag.SeverityFromLevel(c.ReportLevel)
	if err != nil {
		return diag.SevWarning
	}
	return s
}

func (c Config) haltSeverity() diag.Severity {
	s, err := diag.SeverityFromLevel(c.HaltLevel)
	if err != nil {
		return diag.SevSevere
	}
	return s
}
