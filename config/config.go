// SPDX-License-Identifier: MIT

// Package config decodes the YAML files that drive a run: one Model per
// sub-model and one Pipeline for the combined bottom-up/top-down run.
//
// Unknown keys are rejected. Missing keys take the defaults documented on
// each field. Values are returned by value and are not mutated afterwards.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration.
var (
	// ErrMissingField indicates a required key is absent or empty.
	ErrMissingField = errors.New("config: missing field")

	// ErrInvalidValue indicates a key holds an unsupported value.
	ErrInvalidValue = errors.New("config: invalid value")
)

// Driving modes of demand-driven sub-models.
const (
	DrivingProduction  = "production"
	DrivingFinalDemand = "final_demand"
)

// AllSectors selects every end-use sector.
const AllSectors = "all"

// Logging configures the structured logger.
type Logging struct {
	// Level is DEBUG, INFO, WARNING or ERROR; default INFO.
	Level string `yaml:"level"`
}

// SlogLevel maps a configuration level name onto slog.
func SlogLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR", "CRITICAL":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("%w: logging level %q", ErrInvalidValue, name)
}

// decode reads path into dst strictly; dst carries the defaults.
func decode(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}

	return nil
}
