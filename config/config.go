// Package config loads the configuration of the periodic daemon.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	yaml "go.yaml.in/yaml/v3"
)

var ErrNoPeriod = errors.New("config: period is required")

type Config struct {
	// Period is a Go duration ("30s") or a fixed-interval cron
	// descriptor ("@every 1m", "@hourly", "@daily", "@weekly").
	Period             string    `yaml:"period"`
	FastForwardOnStart bool      `yaml:"fast_forward_on_start"`
	Command            []string  `yaml:"command"`
	CommandTimeout     string    `yaml:"command_timeout"`
	Log                LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML config.
// Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	var c Config
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := c.PeriodDuration(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// PeriodDuration returns the parsed period.
func (c Config) PeriodDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Period) == "" {
		return 0, ErrNoPeriod
	}
	return ParsePeriod("period", c.Period)
}

// Timeout returns the parsed command timeout, 0 means none.
func (c Config) Timeout() (time.Duration, error) {
	s := strings.TrimSpace(c.CommandTimeout)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("command_timeout: invalid duration %q: %w", c.CommandTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("command_timeout: duration must be >= 0")
	}
	return d, nil
}

var descriptorParser = cron.NewParser(cron.Descriptor)

const everyPrefix = "@every "

// ParsePeriod parses raw as a Go duration, as "@every <duration>"
// or as a cron descriptor with a fixed interval between activations.
// path prefixes the returned errors.
func ParsePeriod(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "@") {
		return parsePositive(path, raw, s)
	}
	if strings.HasPrefix(s, everyPrefix) {
		// cron.Every would round to whole seconds.
		return parsePositive(path, raw, strings.TrimSpace(s[len(everyPrefix):]))
	}

	sched, err := descriptorParser.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid descriptor %q: %w", path, raw, err)
	}

	// Accept calendar descriptors only if their activations
	// are equally spaced.
	ref := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	a := sched.Next(ref)
	b := sched.Next(a)
	c := sched.Next(b)
	if b.Sub(a) != c.Sub(b) || b.Sub(a) <= 0 {
		return 0, fmt.Errorf("%s: descriptor %q has no fixed period", path, raw)
	}
	return b.Sub(a), nil
}

func parsePositive(path, raw, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be > 0", path)
	}
	return d, nil
}
