// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the circsim configuration file.
//
// Config file locations, first found wins:
//  1. $CIRCSIM_CONFIG
//  2. ./circsim.yaml
//  3. ~/.config/circsim/config.yaml
//
// Defaults are used when no file is found.
//
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/db47h/circsim"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the environment variable holding an explicit config path.
	EnvConfigPath = "CIRCSIM_CONFIG"
	// FileName is the config file looked up in the working directory.
	FileName = "circsim.yaml"
	dirName  = "circsim"
)

// Defaults
const (
	DefaultMaxIterations = 50000
	DefaultFrequency     = 1
	DefaultLogLevel      = "warning"
	DefaultStorePath     = "circsim.db"
)

// Config is the content of a config file.
//
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Clock      ClockConfig      `yaml:"clock"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
}

// SimulationConfig configures the propagation engine.
//
type SimulationConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// ClockConfig configures the periodic clock driver.
//
type ClockConfig struct {
	Frequency   int  `yaml:"frequency"`
	StopOnError bool `yaml:"stop_on_error"`
}

// HistoryConfig configures the edit history. A zero Limit means unbounded.
//
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// LogConfig sets the logrus level: panic, fatal, error, warning, info, debug
// or trace.
//
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig locates the project database.
//
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is found.
//
func Default() *Config {
	c := new(Config)
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Simulation.MaxIterations <= 0 {
		c.Simulation.MaxIterations = DefaultMaxIterations
	}
	if c.Clock.Frequency <= 0 {
		c.Clock.Frequency = DefaultFrequency
	}
	if c.History.Limit < 0 {
		c.History.Limit = 0
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
}

// FindPath returns the path of the first config file found, or an empty
// string.
//
func FindPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && exists(path) {
		return path
	}
	if exists(FileName) {
		if abs, err := filepath.Abs(FileName); err == nil {
			return abs
		}
		return FileName
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", dirName, "config.yaml")
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// Load loads the first config file found. It returns the path of the file
// loaded, empty if defaults are used.
//
func Load() (*Config, string, error) {
	path := FindPath()
	if path == "" {
		log.Debug("no config file, using defaults")
		return Default(), "", nil
	}
	c, err := LoadFromPath(path)
	return c, path, err
}

// LoadFromPath loads the config file at path. Missing settings get their
// default value.
//
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(&c); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if _, err = log.ParseLevel(defaultString(c.Log.Level, DefaultLogLevel)); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if f := c.Clock.Frequency; f < 0 || f > circsim.MaxFrequency {
		return nil, errors.Errorf("config %s: clock frequency %d out of range 1..%d", path, f, circsim.MaxFrequency)
	}
	c.applyDefaults()
	log.WithField("path", path).Debug("config loaded")
	return &c, nil
}

// Save writes c to path, creating parent directories as needed.
//
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

// LogLevel returns the parsed log level.
//
func (c *Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return l
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
