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
	"fmt"

	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"freqgen/src/clockref"
	"freqgen/src/synth"
)

// frequency is a flag value with units, e.g. "10MHz" or "1.5kHz".
type frequency struct {
	physic.Frequency
}

var _ pflag.Value = (*frequency)(nil)

func (f *frequency) Type() string { return "frequency" }

func (f *frequency) milliHertz() int64 { return int64(f.Frequency / physic.MilliHertz) }

// fromMilliHertz converts the firmware unit back to a physic value for printing.
func fromMilliHertz(mhz int64) physic.Frequency { return physic.Frequency(mhz) * physic.MilliHertz }

func parseFrequency(s string) (int64, error) {
	var f frequency
	if err := f.Set(s); err != nil {
		return 0, err
	}
	return f.milliHertz(), nil
}

// permyriad converts a duty cycle in percent.
func permyriad(percent float64) (int32, error) {
	d := int32(percent*100 + 0.5)
	if percent < 0 || d > synth.DutyMax {
		return 0, fmt.Errorf("duty %g%% out of range", percent)
	}
	return d, nil
}

func trim(t int32) (clockref.Trim, error) {
	if !clockref.Trim(t).Valid() {
		return 0, fmt.Errorf("trim %d outside [%d, %d]", t, clockref.TrimMin, clockref.TrimMax)
	}
	return clockref.Trim(t), nil
}
