/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"freqgen/src/clockref"
	"freqgen/src/counter"
)

//go:embed default.toml
var defaultProfile []byte

// Profile describes a simulated counter run.
type Profile struct {
	Trim   int32  `toml:"trim"`
	Actual int32  `toml:"actual"`
	Gate   string `toml:"gate"`
	Direct string `toml:"direct"`
	Step   []Step `toml:"step"`
}

// Step holds the input steady for a number of gate times.
type Step struct {
	Frequency string  `toml:"frequency"`
	Duty      float64 `toml:"duty"`
	Gates     int     `toml:"gates"`
}

// enum is what the instrument's selectable settings have in common.
type enum interface {
	~uint8
	Valid() bool
	String() string
}

// lookup finds the value of an enum by its display name.
func lookup[T enum](what, name string) (T, error) {
	for v := T(0); v.Valid(); v++ {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, name)
}

// loadProfile reads a profile file, or the built in one for an empty path.
func loadProfile(path string) (*Profile, error) {
	var p Profile
	var err error
	if path == "" {
		_, err = toml.Decode(string(defaultProfile), &p)
	} else {
		_, err = toml.DecodeFile(path, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) check() error {
	if _, err := trim(p.Trim); err != nil {
		return err
	}
	if _, err := trim(p.Actual); err != nil {
		return fmt.Errorf("actual: %w", err)
	}
	if _, err := p.gate(); err != nil {
		return err
	}
	if _, err := p.direct(); err != nil {
		return err
	}
	if len(p.Step) == 0 {
		return fmt.Errorf("profile has no steps")
	}
	for i, s := range p.Step {
		if _, err := parseFrequency(s.Frequency); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if _, err := permyriad(s.Duty); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if s.Gates <= 0 {
			return fmt.Errorf("step %d: gates must be positive", i+1)
		}
	}
	return nil
}

func (p *Profile) gate() (counter.GateTime, error) {
	return lookup[counter.GateTime]("gate", p.Gate)
}

func (p *Profile) direct() (counter.DirectThreshold, error) {
	return lookup[counter.DirectThreshold]("direct threshold", p.Direct)
}

func (p *Profile) trims() (believed, actual clockref.Trim) {
	return clockref.Trim(p.Trim), clockref.Trim(p.Actual)
}
