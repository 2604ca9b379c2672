// Copyright 2026 Rostra Robotics GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the engine's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// Duration is a time.Duration that reads and writes Go duration syntax
// ("15m", "30s", "-1s") in YAML.
type Duration time.Duration

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalYAML renders the duration in Go syntax.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses a duration scalar in Go syntax.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}

	*d = Duration(parsed)

	return nil
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig carries per-action-server settings.
type ServerConfig struct {
	ActionName string `yaml:"actionName"`

	// ResultTimeout bounds result retention. Negative means never expire,
	// zero means expire on the next sweep.
	ResultTimeout Duration `yaml:"resultTimeout"`

	RejectCancelRequests bool `yaml:"rejectCancelRequests"`

	// QueueDepth bounds transport queues.
	QueueDepth int `yaml:"queueDepth"`
}

// ClientConfig carries per-action-client settings.
type ClientConfig struct {
	PendingTTL  Duration `yaml:"pendingTTL"`
	SendRetries uint64   `yaml:"sendRetries"`
}

// HTTPConfig configures the metrics/health listener.
type HTTPConfig struct {
	ListenAddress string `yaml:"listenAddress"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "PRODUCTION", Format: "CONSOLE"},
		Server: ServerConfig{
			ActionName:    "/fibonacci",
			ResultTimeout: Duration(15 * time.Minute),
			QueueDepth:    16,
		},
		Client: ClientConfig{
			PendingTTL:  Duration(30 * time.Second),
			SendRetries: 3,
		},
		HTTP: HTTPConfig{ListenAddress: ":8080"},
	}
}

// Parse unmarshals a YAML document over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

func (c *Config) validate() error {
	if c.Server.ActionName == "" {
		return fmt.Errorf("server.actionName must not be empty")
	}

	if c.Server.QueueDepth <= 0 {
		return fmt.Errorf("server.queueDepth must be positive, got %d", c.Server.QueueDepth)
	}

	if c.HTTP.ListenAddress == "" {
		return fmt.Errorf("http.listenAddress must not be empty")
	}

	return nil
}
