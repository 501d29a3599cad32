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

// Package scenario drives a plugin through a scripted session on the
// simulated host: frames, commands, menu clicks, messages, reloads and
// expectations on datarefs, lifecycle state and the debug console.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/srediag/plugin-xplm/examples/relay"
	"github.com/srediag/plugin-xplm/internal/simhost"
	"github.com/srediag/plugin-xplm/pkg/lifecycle"
)

// DefaultFrame is the simulated time of one frame when a scenario sets none.
const DefaultFrame = 50 * time.Millisecond

var ErrInvalidStep = errors.New("scenario: invalid step")

// Scenario is the YAML document read by Load.
type Scenario struct {
	Name   string `yaml:"name"`
	Plugin string `yaml:"plugin"`
	// Config is applied over lifecycle.DefaultConfig.
	Config yaml.Node    `yaml:"config"`
	Relay  relay.Config `yaml:"relay"`
	Host   HostSpec     `yaml:"host"`
	// DataRefs and Commands are owned by the simulated host.
	DataRefs []simhost.DataRefSpec `yaml:"datarefs"`
	Commands []string              `yaml:"commands"`
	Frame    time.Duration         `yaml:"frame"`
	Steps    []Step                `yaml:"steps"`
}

// HostSpec overrides simhost.DefaultOptions.
type HostSpec struct {
	XPlaneVersion int             `yaml:"xplane_version"`
	XPLMVersion   int             `yaml:"xplm_version"`
	Features      map[string]bool `yaml:"features"`
	// Plugins are peer signatures other plugins can find.
	Plugins []string `yaml:"plugins"`
}

// Step holds exactly one action.
type Step struct {
	Run       int      `yaml:"run,omitempty"`
	Command   string   `yaml:"command,omitempty"`
	Hold      *Hold    `yaml:"hold,omitempty"`
	Click     *Click   `yaml:"click,omitempty"`
	Set       *Set     `yaml:"set,omitempty"`
	Message   *Message `yaml:"message,omitempty"`
	Lifecycle string   `yaml:"lifecycle,omitempty"`
	Expect    *Expect  `yaml:"expect,omitempty"`
}

type Hold struct {
	Command string `yaml:"command"`
	Frames  int    `yaml:"frames"`
}

type Click struct {
	Menu string `yaml:"menu"`
	Item string `yaml:"item"`
}

// Set writes a host or plugin dataref. One of Int, Float or Double is used.
type Set struct {
	DataRef string   `yaml:"dataref"`
	Int     *int32   `yaml:"int,omitempty"`
	Float   *float32 `yaml:"float,omitempty"`
	Double  *float64 `yaml:"double,omitempty"`
}

// Message is delivered to the plugin. From names a peer signature; empty
// means the simulator itself.
type Message struct {
	From  string  `yaml:"from"`
	ID    int32   `yaml:"id"`
	Param uintptr `yaml:"param"`
}

// Expect checks the session. Every field that is set must hold.
type Expect struct {
	DataRef   string   `yaml:"dataref,omitempty"`
	Int       *int32   `yaml:"int,omitempty"`
	Float     *float64 `yaml:"float,omitempty"`
	Double    *float64 `yaml:"double,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`
	Missing   bool     `yaml:"missing,omitempty"`

	State   string `yaml:"state,omitempty"`
	Console string `yaml:"console,omitempty"`
	Sent    *int   `yaml:"sent,omitempty"`
}

// Kind names the step's action, or "" when it holds none or several.
func (s Step) Kind() string {
	var kinds []string
	if s.Run > 0 {
		kinds = append(kinds, "run")
	}
	if s.Command != "" {
		kinds = append(kinds, "command")
	}
	if s.Hold != nil {
		kinds = append(kinds, "hold")
	}
	if s.Click != nil {
		kinds = append(kinds, "click")
	}
	if s.Set != nil {
		kinds = append(kinds, "set")
	}
	if s.Message != nil {
		kinds = append(kinds, "message")
	}
	if s.Lifecycle != "" {
		kinds = append(kinds, "lifecycle")
	}
	if s.Expect != nil {
		kinds = append(kinds, "expect")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) validate() error {
	switch s.Kind() {
	case "":
		return fmt.Errorf("%w: want exactly one action", ErrInvalidStep)
	case "hold":
		if s.Hold.Command == "" || s.Hold.Frames < 0 {
			return fmt.Errorf("%w: hold needs a command and frames >= 0", ErrInvalidStep)
		}
	case "click":
		if s.Click.Menu == "" || s.Click.Item == "" {
			return fmt.Errorf("%w: click needs a menu and an item", ErrInvalidStep)
		}
	case "set":
		n := 0
		for _, set := range []bool{s.Set.Int != nil, s.Set.Float != nil, s.Set.Double != nil} {
			if set {
				n++
			}
		}
		if s.Set.DataRef == "" || n != 1 {
			return fmt.Errorf("%w: set needs a dataref and one value", ErrInvalidStep)
		}
	case "lifecycle":
		switch s.Lifecycle {
		case "enable", "disable", "reload", "unload":
		default:
			return fmt.Errorf("%w: unknown lifecycle action %q", ErrInvalidStep, s.Lifecycle)
		}
	case "expect":
		e := s.Expect
		if e.DataRef == "" && (e.Int != nil || e.Float != nil || e.Double != nil || e.Missing) {
			return fmt.Errorf("%w: expect value without a dataref", ErrInvalidStep)
		}
	}
	return nil
}

// Validate checks the scenario without running it.
func (sc *Scenario) Validate() error {
	if sc.Plugin == "" {
		return errors.New("scenario: plugin is required")
	}
	if sc.Frame < 0 {
		return fmt.Errorf("scenario: negative frame %v", sc.Frame)
	}
	if _, err := sc.LifecycleConfig(); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("scenario: step %d: %w", i+1, err)
		}
	}
	return nil
}

// LifecycleConfig returns the shim configuration with the scenario's
// overrides applied.
func (sc *Scenario) LifecycleConfig() (*lifecycle.Config, error) {
	cfg := lifecycle.DefaultConfig()
	if !sc.Config.IsZero() {
		if err := sc.Config.Decode(cfg); err != nil {
			return nil, fmt.Errorf("scenario: config: %w", err)
		}
	}
	if err := lifecycle.VerifyConfig(cfg); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

// HostOptions returns the simulated host options.
func (sc *Scenario) HostOptions() simhost.Options {
	opts := simhost.DefaultOptions()
	if sc.Host.XPlaneVersion != 0 {
		opts.XPlaneVersion = sc.Host.XPlaneVersion
	}
	if sc.Host.XPLMVersion != 0 {
		opts.XPLMVersion = sc.Host.XPLMVersion
	}
	for name, on := range sc.Host.Features {
		opts.Features[name] = on
	}
	return opts
}

func (sc *Scenario) frame() time.Duration {
	if sc.Frame == 0 {
		return DefaultFrame
	}
	return sc.Frame
}

// Parse reads a scenario document. Relative paths are resolved against dir.
func Parse(data []byte, dir string) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	if sc.Relay.RouteFile != "" && !filepath.IsAbs(sc.Relay.RouteFile) {
		sc.Relay.RouteFile = filepath.Join(dir, sc.Relay.RouteFile)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}
