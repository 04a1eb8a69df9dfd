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
Package sim has host side models of the generator and counter hardware so that the
instrument can be exercised without a board. The models are register level: they
see exactly what the firmware would write and compute what the pin would do.
*/
package sim

import (
	"freqgen/src/errcode"
	"freqgen/src/synth"
)

// Routing of the output pin.
type Routing uint8

const (
	RouteStatic Routing = iota
	RouteClock
	RoutePWM
)

// PLLMax is the highest frequency the model PLL locks at, in mHz.
const PLLMax int64 = 200_000_000_000

// Clock is a synth.HardwareClock. Crystal is the real crystal frequency in mHz, which
// need not match what the firmware believes it is.
type Clock struct {
	Crystal int64

	RefDiv    int
	Int, Frac int64
	Div       int64
	Prescaler int
	Period    uint32
	Compare   uint32
	Routing   Routing
	Level     bool
	Enabled   bool

	Writes int // PLL reconfigurations
}

var _ synth.HardwareClock = (*Clock)(nil)

func NewClock(crystal int64) *Clock {
	return &Clock{Crystal: crystal}
}

func (c *Clock) ConfigurePLL(refDiv int, intRatio, fracRatio int64) error {
	if refDiv < synth.RefDividerMin || refDiv > synth.RefDividerMax || refDiv%2 != 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "sim.pll", Msg: "reference divider"}
	}
	if fracRatio < 0 || fracRatio >= synth.FractionSteps || intRatio < 1 {
		return &errcode.E{C: errcode.InvalidParams, Op: "sim.pll", Msg: "ratio"}
	}
	c.RefDiv, c.Int, c.Frac = refDiv, intRatio, fracRatio
	c.Enabled = true
	c.Writes++
	return nil
}

func (c *Clock) ConfigureOutputDivider(div int64) error {
	if div < 1 || div > 2 {
		return &errcode.E{C: errcode.Unsupported, Op: "sim.divider", Msg: "clock generator divides by 1 or 2"}
	}
	c.Div = div
	return nil
}

func (c *Clock) ConfigurePWM(prescaler int, period, compare uint32) error {
	if prescaler < 0 || prescaler > 10 || period >= 1<<synth.TimerBits {
		return &errcode.E{C: errcode.InvalidParams, Op: "sim.pwm"}
	}
	c.Prescaler, c.Period, c.Compare = prescaler, period, compare
	c.Routing = RoutePWM
	return nil
}

func (c *Clock) RouteClock() { c.Routing = RouteClock }

func (c *Clock) DrivePinStatic(high bool) {
	c.Routing = RouteStatic
	c.Level = high
}

func (c *Clock) Disable() {
	*c = Clock{Crystal: c.Crystal, Writes: c.Writes}
}

// PLLFreq is the frequency the PLL actually runs at, in mHz.
func (c *Clock) PLLFreq() int64 {
	if !c.Enabled || c.RefDiv == 0 {
		return 0
	}
	ref := c.Crystal / int64(c.RefDiv)
	return ref*c.Int + ref*c.Frac/synth.FractionSteps
}

func (c *Clock) PLLUnlocked() bool {
	if !c.Enabled {
		return false
	}
	f := c.PLLFreq()
	return f < synth.PLLMinLock || f > PLLMax
}

// Output returns what a frequency counter on the pin would show.
func (c *Clock) Output() (freq int64, duty int32) {
	switch c.Routing {
	case RouteClock:
		if c.Div == 0 {
			return 0, 0
		}
		return c.PLLFreq() / c.Div, 5000
	case RoutePWM:
		period := int64(c.Period) + 1
		return c.PLLFreq() / (period << c.Prescaler), int32(int64(c.Compare) * 10000 / period)
	}
	if c.Level {
		return 0, 10000
	}
	return 0, 0
}
