package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults shared by the CLI flags and the batch config loader.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 8080
	DefaultPath    = "/"
	DefaultTimeout = 5 * time.Second
)

// TargetConfig names one probe target. Timeout uses the usual duration
// syntax in YAML ("3s", "500ms").
type TargetConfig struct {
	Name    string        `yaml:"name"`
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

func (t TargetConfig) probeConfig(includeExtensions bool, label string) ProbeConfig {
	return ProbeConfig{
		Host:              t.Host,
		Port:              t.Port,
		Path:              t.Path,
		Timeout:           t.Timeout,
		IncludeExtensions: includeExtensions,
		Label:             label,
	}
}

// Config is the batch-mode target list.
type Config struct {
	Targets []TargetConfig `yaml:"targets"`
}

// ValidatePort rejects ports outside 1..65535. Called before any socket
// is opened.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be in range 1..65535, got %d", port)
	}
	return nil
}

// LoadConfig loads the YAML target list and applies defaults per target.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if len(c.Targets) == 0 {
		return nil, fmt.Errorf("%s: no targets configured", path)
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Host == "" {
			t.Host = DefaultHost
		}
		if t.Port == 0 {
			t.Port = DefaultPort
		}
		if t.Path == "" {
			t.Path = DefaultPath
		}
		if t.Timeout == 0 {
			t.Timeout = DefaultTimeout
		}
		if t.Name == "" {
			t.Name = fmt.Sprintf("%s:%d", t.Host, t.Port)
		}
		if err := ValidatePort(t.Port); err != nil {
			return nil, fmt.Errorf("target %s: %w", t.Name, err)
		}
	}
	return &c, nil
}
