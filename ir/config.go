// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ir

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config carries the knobs this implementation documents rather than
// hard-codes: a call-depth cap (recursion is otherwise limited only by
// host stack) and the initial backing-slice capacities for the two
// stores.
type Config struct {
	// CallDepthLimit is the maximum nesting depth Evaluate will allow
	// before panicking with ErrCallDepthExceeded. Zero means
	// DefaultCallDepthLimit.
	CallDepthLimit int `json:"callDepthLimit,omitempty"`
	// InitialLocalCapacity sizes a new LocalStore's slot vector up
	// front to avoid early reallocation.
	InitialLocalCapacity int `json:"initialLocalCapacity,omitempty"`
	// InitialGlobalCapacity sizes a new GlobalStore's block vector up
	// front.
	InitialGlobalCapacity int `json:"initialGlobalCapacity,omitempty"`
}

// DefaultCallDepthLimit bounds evaluator recursion absent an explicit
// Config. It is deliberately well below typical host stack limits so a
// runaway recursive block fails fast with a clear panic instead of
// exhausting the goroutine stack.
const DefaultCallDepthLimit = 4096

const (
	defaultInitialLocalCapacity  = 64
	defaultInitialGlobalCapacity = 16
)

// DefaultConfig returns the Config used when NewGlobalStore or
// NewLocalStore is given nil.
func DefaultConfig() *Config {
	return &Config{
		CallDepthLimit:        DefaultCallDepthLimit,
		InitialLocalCapacity:  defaultInitialLocalCapacity,
		InitialGlobalCapacity: defaultInitialGlobalCapacity,
	}
}

func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.CallDepthLimit <= 0 {
		out.CallDepthLimit = DefaultCallDepthLimit
	}
	if out.InitialLocalCapacity <= 0 {
		out.InitialLocalCapacity = defaultInitialLocalCapacity
	}
	if out.InitialGlobalCapacity <= 0 {
		out.InitialGlobalCapacity = defaultInitialGlobalCapacity
	}
	return &out
}

// LoadConfig reads a YAML (or JSON, which is a YAML subset) document from
// path and decodes it into a Config. Fields left unset use their default
// at the point the Config is handed to NewGlobalStore/NewLocalStore.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ir: reading config %q: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return nil, fmt.Errorf("ir: parsing config %q: %w", path, err)
	}
	return &c, nil
}
