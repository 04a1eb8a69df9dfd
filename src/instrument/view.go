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

package instrument

import (
	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/settings"
)

// Input is the generator field being edited.
type Input uint8

const (
	InputFreq Input = iota
	InputOnOff
	InputDuty
	numInputs
)

// digits is the number of cursor positions of each input.
var digits = [numInputs]int{
	InputFreq:  12,
	InputOnOff: 1,
	InputDuty:  5,
}

func (in Input) Digits() int { return digits[in] }

func (in Input) String() string {
	switch in {
	case InputFreq:
		return "freq"
	case InputOnOff:
		return "on/off"
	case InputDuty:
		return "duty"
	}
	return "?"
}

// View is everything a display needs to draw the current screen.
type View struct {
	Mode     settings.Mode
	MenuOpen bool

	// generator
	Frequency    int64
	Duty         int32
	On           bool
	Input        Input
	Cursor       int
	AchievedFreq int64
	AchievedDuty int32
	PLLUnlocked  bool

	// counter
	Sample      counter.Sample
	CounterMode counter.Mode
	Gate        counter.GateTime
	GateFlash   bool

	// trim sub-mode, either mode
	TrimMode   bool
	Trim       clockref.Trim
	TrimCursor int
}
