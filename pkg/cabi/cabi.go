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

// Package cabi exports the five plugin entry points the simulator looks up
// in a plugin binary and forwards them to a lifecycle shim.
//
// A plugin's main package registers its factory at init time and is built
// with
//
//	go build -tags xplm -buildmode=c-shared -o lin.xpl ./examples/demo
//
// Without cgo or the xplm tag the package still compiles, Available reports
// false and no entry points are exported.
package cabi

import (
	"errors"
	"os"
	"sync"

	"github.com/srediag/plugin-xplm/api"
	"github.com/srediag/plugin-xplm/pkg/host"
	"github.com/srediag/plugin-xplm/pkg/lifecycle"
)

// EnvConfig names an optional YAML file read when no config is registered.
const EnvConfig = "XPLM_PLUGIN_CONFIG"

var (
	// ErrNotBuilt is returned when the binary has no entry points.
	ErrNotBuilt = errors.New("cabi: built without cgo and the xplm tag")
	// ErrNotRegistered is returned when the simulator starts a binary whose
	// main package never called Register.
	ErrNotRegistered = errors.New("cabi: no plugin registered")
)

var (
	mu       sync.Mutex
	factory  api.Factory
	options  lifecycle.Options
	instance *lifecycle.Shim
)

// Register installs the plugin. Call it from an init function of the main
// package; the shim is created on the first start entry.
func Register(f api.Factory, opts lifecycle.Options) {
	mu.Lock()
	defer mu.Unlock()
	factory, options, instance = f, opts, nil
}

// Available reports whether the entry points are compiled in.
func Available() bool {
	return available
}

// Shim returns the shim behind the entry points once the simulator started
// the plugin.
func Shim() (*lifecycle.Shim, error) {
	if !available {
		return nil, ErrNotBuilt
	}
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil, ErrNotRegistered
	}
	return instance, nil
}

// shimFor returns the registered plugin's shim, creating it on h the first
// time.
func shimFor(h host.Host) (*lifecycle.Shim, error) {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance, nil
	}
	if factory == nil {
		return nil, ErrNotRegistered
	}
	opts := options
	if opts.Config == nil {
		if path := os.Getenv(EnvConfig); path != "" {
			cfg, err := lifecycle.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			opts.Config = cfg
		}
	}
	sh, err := lifecycle.New(h, factory, opts)
	if err != nil {
		return nil, err
	}
	instance = sh
	return sh, nil
}
