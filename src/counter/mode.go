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

package counter

// Mode is the counting method currently in use.
type Mode uint8

const (
	Gated  Mode = iota // count edges during a fixed gate
	Direct             // reciprocal: time whole input periods against the reference
)

func (m Mode) String() string {
	if m == Direct {
		return "direct"
	}
	return "gated"
}

// SwitchBlock is the number of measurement cycles after a switch during which no
// other switch is considered. It covers the first readings after the capture hardware
// was reconfigured.
const SwitchBlock = 3

/*
Hysteresis decides when to swap counting methods.

It is stepped once per completed measurement. The block counter is decremented first
and the thresholds are only looked at once it has reached zero.
*/
type Hysteresis struct {
	mode   Mode
	block  int
	lo, hi int64
}

func NewHysteresis(th DirectThreshold) Hysteresis {
	h := Hysteresis{}
	h.SetThreshold(th)
	return h
}

func (h *Hysteresis) SetThreshold(th DirectThreshold) {
	h.lo, h.hi = th.Band()
}

func (h *Hysteresis) Mode() Mode { return h.mode }

// Blocked reports how many more cycles must pass before a switch is possible.
func (h *Hysteresis) Blocked() int { return h.block }

// Force sets the mode directly and starts the block period.
func (h *Hysteresis) Force(m Mode) {
	h.mode = m
	h.block = SwitchBlock
}

// Step accounts for one measurement of freq mHz and reports whether the mode changed.
func (h *Hysteresis) Step(freq int64) bool {
	if h.block > 0 {
		h.block--
	}
	if h.block > 0 {
		return false
	}
	switch {
	case h.mode == Gated && freq < h.lo:
		h.Force(Direct)
	case h.mode == Direct && freq > h.hi:
		h.Force(Gated)
	default:
		return false
	}
	return true
}
