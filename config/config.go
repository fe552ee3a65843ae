// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config holds the node's operational configuration, loadable
// from a YAML file. Protocol constants such as the claim amount are not
// configurable; only deployment concerns live here.
package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// API configures the HTTP service.
type API struct {
	Addr            string `yaml:"addr"`
	AllowedOrigins  string `yaml:"allowed-origins"`
	EventsLimit     uint64 `yaml:"events-limit"`
	EnableReqLogger bool   `yaml:"enable-req-logger"`
	PprofOn         bool   `yaml:"pprof"`
}

// Metrics configures the telemetry endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the node's operational configuration.
type Config struct {
	DataDir string  `yaml:"data-dir"`
	KeyFile string  `yaml:"key-file"`
	API     API     `yaml:"api"`
	Metrics Metrics `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: API{
			Addr:        "localhost:8587",
			EventsLimit: 1000,
		},
		Metrics: Metrics{
			Addr: "localhost:2112",
		},
	}
}

// Load reads a YAML config file on top of the defaults. Unknown fields
// are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.API.Addr == "" {
		return errors.New("config: api.addr must not be empty")
	}
	if c.API.EventsLimit == 0 {
		return errors.New("config: api.events-limit must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("config: metrics.addr must not be empty when metrics are enabled")
	}
	return nil
}
