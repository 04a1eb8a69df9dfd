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
	"freqgen/src/buttons"
	"freqgen/src/support"
	"freqgen/src/synth"
)

// generatorButton edits the output settings. Left and Right walk the cursor over the
// digits of all three inputs as if they were one long field, Up and Down change the
// digit under the cursor.
func (c *Controller) generatorButton(b buttons.Button) error {
	switch b {
	case buttons.Right:
		c.cursor--
		if c.cursor < 0 {
			c.input = (c.input + 1) % numInputs
			c.cursor = c.input.Digits() - 1
		}
	case buttons.Left:
		c.cursor++
		if c.cursor >= c.input.Digits() {
			c.input = (c.input + numInputs - 1) % numInputs
			c.cursor = 0
		}
	case buttons.Up, buttons.Down:
		dir := 1
		if b == buttons.Down {
			dir = -1
		}
		switch c.input {
		case InputFreq:
			c.cfg.Frequency = support.StepDigit(c.cfg.Frequency, c.cursor, dir, synth.FreqMin, synth.FreqMax)
		case InputOnOff:
			c.cfg.On = !c.cfg.On
		case InputDuty:
			d := support.StepDigit(int64(c.cfg.Duty), c.cursor, dir, int64(synth.DutyMin), int64(synth.DutyMax))
			c.cfg.Duty = int32(d)
		}
		return c.updateOutput()
	}
	return nil
}
