// Package config loads the YAML tuning file for the timeline: the gap
// allocation table, the backdate window, and the serve address. A missing
// file means defaults; a malformed file is an error, never a silent
// fallback.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/pulse/internal/compose"
	"github.com/sadopc/pulse/internal/timescale"
)

// Duration marshals as a time.ParseDuration string ("5m", "12h").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// GapStep is one row of the allocation table.
type GapStep struct {
	Max  Duration `yaml:"max"`
	Span float64  `yaml:"span"`
}

type Config struct {
	Timeline struct {
		Steps        []GapStep `yaml:"steps"`
		OverflowSpan float64   `yaml:"overflow_span"`
		RowPx        float64   `yaml:"row_px"`       // axis pixels per terminal row
		MaxBackdate  Duration  `yaml:"max_backdate"` // backdating lookback window
	} `yaml:"timeline"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
}

// Default returns the stock configuration: the built-in allocation table,
// a 12 hour backdate window, 22 px rows and :8000 for the API.
func Default() Config {
	var c Config
	for _, st := range timescale.DefaultScale().Steps {
		c.Timeline.Steps = append(c.Timeline.Steps, GapStep{Max: Duration(st.MaxGap), Span: st.Span})
	}
	c.Timeline.OverflowSpan = timescale.DefaultScale().OverflowSpan
	c.Timeline.RowPx = 22
	c.Timeline.MaxBackdate = Duration(compose.MaxBackdate)
	c.Server.Listen = ":8000"
	return c
}

// DefaultPath returns ~/.config/pulse/config.yaml
func DefaultPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "pulse", "config.yaml"), nil
}

// Load reads the config at path; a missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes the config to path, creating the directory if needed.
func Save(c Config, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Scale converts the configured table into a timescale.Scale.
func (c Config) Scale() timescale.Scale {
	s := timescale.Scale{OverflowSpan: c.Timeline.OverflowSpan}
	for _, st := range c.Timeline.Steps {
		s.Steps = append(s.Steps, timescale.Step{MaxGap: time.Duration(st.Max), Span: st.Span})
	}
	return s
}

// MaxBackdate returns the configured lookback window.
func (c Config) MaxBackdate() time.Duration {
	return time.Duration(c.Timeline.MaxBackdate)
}

func (c Config) Validate() error {
	if err := c.Scale().Validate(); err != nil {
		return err
	}
	if c.Timeline.RowPx <= 0 {
		return fmt.Errorf("config: row_px %v not positive", c.Timeline.RowPx)
	}
	if c.Timeline.MaxBackdate <= 0 {
		return fmt.Errorf("config: max_backdate %v not positive", time.Duration(c.Timeline.MaxBackdate))
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("config: empty listen address")
	}
	return nil
}
