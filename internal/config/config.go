// Package config loads a running engine's configuration, adapted from the
// teacher's cmd/warren/apply.go YAML-resource idiom and cmd/warren/main.go's
// cobra persistent-flag wiring (spec.md §4.10 AMBIENT STACK).
package config

import (
	"fmt"
	"os"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holonlog"
	"gopkg.in/yaml.v3"
)

// Config holds everything a holonengine process needs to stand up a space:
// the space identity, the Raft-backed store's data directory and bind
// address, the dance transport's listen address, and logging preferences.
type Config struct {
	SpaceID  string `yaml:"spaceId"`
	NodeID   string `yaml:"nodeId"`
	DataDir  string `yaml:"dataDir"`
	BindAddr string `yaml:"bindAddr"` // Raft transport address
	Peers    []string `yaml:"peers,omitempty"`

	DanceAddr string `yaml:"danceAddr"` // dance transport listen address

	LogLevel string `yaml:"logLevel"`
	LogJSON  bool   `yaml:"logJson"`
}

// Default returns the configuration a single-node development instance
// boots with absent any flags or config file, modelled on the teacher's
// clusterInitCmd flag defaults: node-id "node-1", bind-addr 127.0.0.1:7946,
// data-dir ./holon-data, plus space "default" and dance address
// 127.0.0.1:8080.
func Default() Config {
	return Config{
		SpaceID:   "default",
		NodeID:    "node-1",
		DataDir:   "./holon-data",
		BindAddr:  "127.0.0.1:7946",
		DanceAddr: "127.0.0.1:8080",
		LogLevel:  string(holonlog.InfoLevel),
	}
}

// Load reads a YAML config file following the teacher's WarrenResource
// loading pattern in apply.go, overlaying it onto Default() so a partial
// file only needs to name what it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, herrors.Misc(fmt.Sprintf("read config file: %v", err))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, herrors.InvalidWireFormat("Config", err.Error())
	}
	return cfg, nil
}

// Validate reports whether cfg has everything Bootstrap needs.
func (c Config) Validate() error {
	if c.SpaceID == "" {
		return herrors.EmptyField("spaceId")
	}
	if c.NodeID == "" {
		return herrors.EmptyField("nodeId")
	}
	if c.DataDir == "" {
		return herrors.EmptyField("dataDir")
	}
	if c.BindAddr == "" {
		return herrors.EmptyField("bindAddr")
	}
	if c.DanceAddr == "" {
		return herrors.EmptyField("danceAddr")
	}
	return nil
}

// LogLevelValue coerces the configured level string to a holonlog.Level,
// falling back to InfoLevel for anything unrecognized rather than failing
// startup over a typo'd flag.
func (c Config) LogLevelValue() holonlog.Level {
	switch holonlog.Level(c.LogLevel) {
	case holonlog.DebugLevel, holonlog.InfoLevel, holonlog.WarnLevel, holonlog.ErrorLevel:
		return holonlog.Level(c.LogLevel)
	default:
		return holonlog.InfoLevel
	}
}
