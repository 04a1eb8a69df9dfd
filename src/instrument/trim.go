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
	"freqgen/src/clockref"
	"freqgen/src/support"
)

type trimState struct {
	active bool
	cursor int
	held   int64 // ms that Left and Right have been down together
}

// hold watches the Right repeats that arrive while Left and Right are both down and
// reports when trim mode should toggle.
func (t *trimState) hold(ev buttons.Event, both bool) bool {
	if ev.Button != buttons.Right || ev.Kind != buttons.Repeat {
		return false
	}
	if !both {
		t.held = 0
		return false
	}
	t.held += ev.Interval
	if t.held < TrimHold {
		return false
	}
	t.held = 0
	return true
}

// trimButton edits the crystal trim. The new value takes effect immediately in
// whichever mode is running.
func (c *Controller) trimButton(b buttons.Button) error {
	switch b {
	case buttons.Right:
		c.trim.cursor = max(c.trim.cursor-1, 0)
	case buttons.Left:
		c.trim.cursor = min(c.trim.cursor+1, clockref.TrimDigits-1)
	case buttons.Up:
		return c.SetTrim(c.cfg.Trim.Add(support.Ipow(int64(10), c.trim.cursor)))
	case buttons.Down:
		return c.SetTrim(c.cfg.Trim.Add(-support.Ipow(int64(10), c.trim.cursor)))
	}
	return nil
}

// SetTrim changes the crystal calibration.
func (c *Controller) SetTrim(t clockref.Trim) error {
	if !t.Valid() {
		return invalid("instrument.trim", "trim %d out of range", t)
	}
	c.cfg.Trim = t
	c.engine.SetTrim(t)
	return c.updateOutput()
}
