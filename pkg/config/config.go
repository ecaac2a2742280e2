// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/framehost/pkg/frame"
	"github.com/user/framehost/pkg/orchestrator"
	"github.com/user/framehost/pkg/plugin"
	"github.com/user/framehost/pkg/ports"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the full configuration for framehost.
type Config struct {
	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // console or json

	// Execution
	Workers     int    `yaml:"workers"`
	ClonePolicy string `yaml:"clone_policy"` // copy or share
	Buffer      int    `yaml:"buffer"`       // frames queued per output

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	// Reporting
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the status server
	Summary     string `yaml:"summary"`      // Markdown summary path, empty disables

	Streams []StreamConfig `yaml:"streams"`
}

// StreamConfig describes one stream.
type StreamConfig struct {
	ID     string       `yaml:"id"`
	Source SourceConfig `yaml:"source"`
	Plugin PluginConfig `yaml:"plugin"`
	Output OutputConfig `yaml:"output"`

	Parallel int `yaml:"parallel"` // plugin instances, one_to_one plugins only
}

// SourceConfig selects the frame source of a stream.
type SourceConfig struct {
	Type      string `yaml:"type"` // testsrc, images or mp4
	Path      string `yaml:"path"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Frames    int    `yaml:"frames"`
	FrameRate string `yaml:"frame_rate"` // "25", "30000/1001" or "29.97"
}

// PluginConfig selects the plugin of a stream. Options override keys
// given in Opts.
type PluginConfig struct {
	Name    string                 `yaml:"name"`
	Opts    string                 `yaml:"opts"`
	Options map[string]interface{} `yaml:"options"`
}

// OutputConfig selects where a stream's frames go.
type OutputConfig struct {
	Type string `yaml:"type"` // null, images or mp4
	Path string `yaml:"path"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "console",
		Workers:     runtime.NumCPU(),
		ClonePolicy: frame.CloneCopy.String(),
		Buffer:      orchestrator.DefaultBuffer,
		DebugDir:    "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(data)
}

// Parse decodes YAML over Defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field. Errors name the offending key.
func (c Config) Validate() error {
	if _, err := ports.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log_format: unknown format %q", ErrInvalid, c.LogFormat)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers: must not be negative", ErrInvalid)
	}
	if _, err := frame.ParseClonePolicy(c.ClonePolicy); err != nil {
		return fmt.Errorf("%w: clone_policy: %v", ErrInvalid, err)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("%w: buffer: must not be negative", ErrInvalid)
	}

	for i, s := range c.Streams {
		field := fmt.Sprintf("streams[%d]", i)
		if s.Plugin.Name == "" {
			return fmt.Errorf("%w: %s.plugin.name: required", ErrInvalid, field)
		}
		if _, err := ports.ParseOptions(s.Plugin.Opts); err != nil {
			return fmt.Errorf("%w: %s.plugin.opts: %v", ErrInvalid, field, err)
		}
		if s.Parallel < 0 || s.Parallel > plugin.MaxParallel {
			return fmt.Errorf("%w: %s.parallel: must be between 0 and %d", ErrInvalid, field, plugin.MaxParallel)
		}
		if _, err := ParseFrameRate(s.Source.FrameRate); err != nil {
			return fmt.Errorf("%w: %s.source.frame_rate: %v", ErrInvalid, field, err)
		}
		switch s.Source.Type {
		case "", orchestrator.SourceTestsrc:
			if s.Source.Width <= 0 || s.Source.Height <= 0 {
				return fmt.Errorf("%w: %s.source: testsrc needs width and height", ErrInvalid, field)
			}
		case orchestrator.SourceImages, orchestrator.SourceMP4:
			if s.Source.Path == "" {
				return fmt.Errorf("%w: %s.source.path: required for %s", ErrInvalid, field, s.Source.Type)
			}
		default:
			return fmt.Errorf("%w: %s.source.type: unknown type %q", ErrInvalid, field, s.Source.Type)
		}
		switch s.Output.Type {
		case "", orchestrator.OutputNull:
		case orchestrator.OutputImages, orchestrator.OutputMP4:
			if s.Output.Path == "" {
				return fmt.Errorf("%w: %s.output.path: required for %s", ErrInvalid, field, s.Output.Type)
			}
		default:
			return fmt.Errorf("%w: %s.output.type: unknown type %q", ErrInvalid, field, s.Output.Type)
		}
	}
	return nil
}

// ParseFrameRate parses "25", "30000/1001" or "29.97". An empty string
// yields the zero Rational, which sources replace with their default.
func ParseFrameRate(s string) (frame.Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return frame.Rational{}, nil
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		r := frame.Rational{Num: n, Den: d}
		if err1 != nil || err2 != nil || !r.Valid() {
			return frame.Rational{}, fmt.Errorf("invalid frame rate %q", s)
		}
		return r, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return frame.Rational{Num: n, Den: 1}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return frame.Rational{}, fmt.Errorf("invalid frame rate %q", s)
	}
	// Three decimals cover NTSC rates such as 29.97.
	r := frame.Rational{Num: int64(math.Round(f * 1000)), Den: 1000}
	if !r.Valid() {
		return frame.Rational{}, fmt.Errorf("invalid frame rate %q", s)
	}
	return r.Mul(1), nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config. It assumes
// Validate succeeded.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	policy, _ := frame.ParseClonePolicy(c.ClonePolicy)
	out := orchestrator.Config{
		Workers:     c.Workers,
		ClonePolicy: policy,
		Buffer:      c.Buffer,
	}
	for _, s := range c.Streams {
		rate, _ := ParseFrameRate(s.Source.FrameRate)
		out.Streams = append(out.Streams, orchestrator.StreamConfig{
			ID: s.ID,
			Source: orchestrator.SourceConfig{
				Type:      s.Source.Type,
				Path:      s.Source.Path,
				Width:     s.Source.Width,
				Height:    s.Source.Height,
				Frames:    s.Source.Frames,
				FrameRate: rate,
			},
			Plugin: orchestrator.PluginRef{
				Name:    s.Plugin.Name,
				Opts:    s.Plugin.Opts,
				Options: toOptions(s.Plugin.Options),
			},
			Output: orchestrator.OutputConfig{
				Type: s.Output.Type,
				Path: s.Output.Path,
			},
			Parallel: s.Parallel,
		})
	}
	return out
}

// toOptions normalises YAML scalars to the value types of ports.Options.
func toOptions(m map[string]interface{}) ports.Options {
	if len(m) == 0 {
		return nil
	}
	opts := make(ports.Options, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case int:
			opts[k] = int64(n)
		case nil, bool, int64, float64, string:
			opts[k] = n
		default:
			opts[k] = fmt.Sprint(n)
		}
	}
	return opts
}
