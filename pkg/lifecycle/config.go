/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lifecycle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/srediag/plugin-xplm/internal/logging"
	"github.com/srediag/plugin-xplm/pkg/xplm"
)

// Config controls the lifecycle shim.
type Config struct {
	// LogLevel overrides XPLM_LOG_LEVEL when set.
	LogLevel string `yaml:"log_level"`
	// PinThread makes entering a callback from any thread but the first one a
	// contract violation.
	PinThread bool `yaml:"pin_thread"`
	// Revision is the minimum SDK revision the host must implement.
	Revision int `yaml:"revision"`
	// ValidateSignature checks the plugin signature at start.
	ValidateSignature bool `yaml:"validate_signature"`
	// DispatchWorkers bounds the background pool, 0 disables it.
	DispatchWorkers int `yaml:"dispatch_workers"`
	// DispatchBacklog bounds results waiting for the host thread.
	DispatchBacklog int `yaml:"dispatch_backlog"`
}

const (
	maxDispatchWorkers = 1024
	maxDispatchBacklog = 1 << 16
)

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		PinThread:         true,
		Revision:          int(xplm.Target),
		ValidateSignature: true,
		DispatchWorkers:   4,
		DispatchBacklog:   1024,
	}
}

// VerifyConfig reports the first invalid field.
func VerifyConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("lifecycle: nil config")
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("lifecycle: log_level: %w", err)
		}
	}
	if c.Revision < int(xplm.MinRevision) || c.Revision > int(xplm.Target) {
		return fmt.Errorf("lifecycle: revision %d outside %d..%d", c.Revision, int(xplm.MinRevision), int(xplm.Target))
	}
	if c.DispatchWorkers < 0 || c.DispatchWorkers > maxDispatchWorkers {
		return fmt.Errorf("lifecycle: dispatch_workers %d outside 0..%d", c.DispatchWorkers, maxDispatchWorkers)
	}
	if c.DispatchWorkers > 0 && (c.DispatchBacklog < 1 || c.DispatchBacklog > maxDispatchBacklog) {
		return fmt.Errorf("lifecycle: dispatch_backlog %d outside 1..%d", c.DispatchBacklog, maxDispatchBacklog)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig and verifies the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: read config: %w", err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("lifecycle: parse config: %w", err)
	}
	if err := VerifyConfig(c); err != nil {
		return nil, err
	}
	return c, nil
}
