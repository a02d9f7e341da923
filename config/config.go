// Package config holds the kiosk's optional TOML configuration: log level
// and per-output layout overrides. Everything has a working default; the
// compositor runs fine with no file at all.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

type Config struct {
	LogLevel string   `toml:"log_level"`
	Outputs  []Output `toml:"output"`
}

// Output overrides the layout for one named output. Omitting x or y leaves
// positioning to the automatic layout; a zero width or height keeps the
// output's preferred mode.
type Output struct {
	Name      string  `toml:"name"`
	X         *int    `toml:"x"`
	Y         *int    `toml:"y"`
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Scale     float32 `toml:"scale"`
	Transform int     `toml:"transform"`
}

func Default() *Config {
	return &Config{LogLevel: "error"}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(string(data))
}

func Parse(data string) (*Config, error) {
	config := Default()
	if _, err := toml.Decode(data, config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for i := range config.Outputs {
		if config.Outputs[i].Name == "" {
			return nil, fmt.Errorf("output %d has no name", i)
		}
	}
	return config, nil
}

// Output returns the override for the named output, or nil.
func (c *Config) Output(name string) *Output {
	for i := range c.Outputs {
		if c.Outputs[i].Name == name {
			return &c.Outputs[i]
		}
	}
	return nil
}

// Level parses the configured log level.
func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// AutoPosition reports whether the output should be placed by the automatic
// layout rather than at an explicit position.
func (o *Output) AutoPosition() bool {
	return o == nil || o.X == nil || o.Y == nil
}

// Position returns the explicit layout position. Only meaningful when
// AutoPosition reports false.
func (o *Output) Position() (x, y int) {
	return *o.X, *o.Y
}
