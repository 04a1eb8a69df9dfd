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

/*
Package settings holds the configuration that survives a power cycle.

The record is split in two zones, each guarded by a pair of magic words with the
middle word shared. The calibration zone (trim, power count, brightness) changes
rarely and the operating zone (mode, generator and counter setup) changes all the
time, so a record written by older firmware or half erased can still keep its
calibration.
*/
package settings

import (
	"fmt"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/support"
	"freqgen/src/synth"
)

// Mode is the top level operating mode of the instrument.
type Mode uint8

const (
	Generator Mode = iota
	Counter
	numModes
)

func (m Mode) String() string {
	switch m {
	case Generator:
		return "generator"
	case Counter:
		return "counter"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func (m Mode) Valid() bool { return m < numModes }

type Brightness uint8

const (
	BrightnessLow Brightness = iota
	BrightnessMedium
	BrightnessHigh
	numBrightness
)

func (b Brightness) String() string {
	switch b {
	case BrightnessLow:
		return "low"
	case BrightnessMedium:
		return "medium"
	case BrightnessHigh:
		return "high"
	}
	return fmt.Sprintf("brightness(%d)", uint8(b))
}

func (b Brightness) Valid() bool { return b < numBrightness }

// Settings is the persisted state.
type Settings struct {
	// calibration zone
	Trim       clockref.Trim
	PowerCount uint32
	Brightness Brightness

	// operating zone
	Mode      Mode
	Frequency int64 // mHz
	Duty      int32 // permyriad
	On        bool
	Gate      counter.GateTime
	Direct    counter.DirectThreshold
}

// DefaultCalibration resets the calibration zone.
func (s *Settings) DefaultCalibration() {
	s.Trim = 0
	s.PowerCount = 0
	s.Brightness = BrightnessMedium
}

// DefaultOperation resets the operating zone.
func (s *Settings) DefaultOperation() {
	s.Mode = Generator
	s.Frequency = 1_000_000 // 1kHz
	s.Duty = 5000
	s.On = false
	s.Gate = counter.Gate1s
	s.Direct = counter.Direct100kHz
}

func Defaults() Settings {
	var s Settings
	s.DefaultCalibration()
	s.DefaultOperation()
	return s
}

// Clamp forces every field into its legal range and returns the names of the fields
// that had to be changed.
func (s *Settings) Clamp() []string {
	var changed []string
	fix := func(name string, bad bool, repair func()) {
		if bad {
			repair()
			changed = append(changed, name)
		}
	}
	fix("trim", !s.Trim.Valid(), func() {
		s.Trim = support.Clamp(s.Trim, clockref.TrimMin, clockref.TrimMax)
	})
	fix("brightness", !s.Brightness.Valid(), func() { s.Brightness = BrightnessMedium })
	fix("mode", !s.Mode.Valid(), func() { s.Mode = Generator })
	fix("frequency", s.Frequency < synth.FreqMin || s.Frequency > synth.FreqMax, func() {
		s.Frequency = support.Clamp(s.Frequency, synth.FreqMin, synth.FreqMax)
	})
	fix("duty", s.Duty < synth.DutyMin || s.Duty > synth.DutyMax, func() {
		s.Duty = support.Clamp(s.Duty, synth.DutyMin, synth.DutyMax)
	})
	fix("gate", !s.Gate.Valid(), func() { s.Gate = counter.Gate1s })
	fix("direct", !s.Direct.Valid(), func() { s.Direct = counter.Direct100kHz })
	return changed
}

// Report says what Load had to do to produce a usable record.
type Report struct {
	CalibrationReset bool
	OperationReset   bool
	Clamped          []string
	Err              error // device error, if any
}

func (r Report) Clean() bool {
	return !r.CalibrationReset && !r.OperationReset && len(r.Clamped) == 0 && r.Err == nil
}

func (r Report) String() string {
	if r.Clean() {
		return "ok"
	}
	s := ""
	add := func(part string) {
		if s != "" {
			s += ", "
		}
		s += part
	}
	if r.CalibrationReset {
		add("calibration reset")
	}
	if r.OperationReset {
		add("operation reset")
	}
	if len(r.Clamped) > 0 {
		add(fmt.Sprintf("clamped %v", r.Clamped))
	}
	if r.Err != nil {
		add(r.Err.Error())
	}
	return s
}
