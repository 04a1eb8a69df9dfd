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

package synth

import "freqgen/src/errcode"

// HardwareClock is the part of the chip the generator owns while it is active.
type HardwareClock interface {
	ConfigurePLL(refDiv int, intRatio, fracRatio int64) error
	ConfigureOutputDivider(div int64) error
	// ConfigurePWM starts the timer from the undivided PLL clock and connects the pin to it.
	ConfigurePWM(prescaler int, period, compare uint32) error
	// RouteClock connects the output pin to the divided PLL clock.
	RouteClock()
	// DrivePinStatic disconnects the pin from any peripheral and drives it to a level.
	DrivePinStatic(high bool)
	// Disable tears down the PLL, the divider and the timer.
	Disable()
	PLLUnlocked() bool
}

/*
Apply programs hw with p.

The pin is parked low first so that nothing odd comes out while the PLL relocks and
the dividers change. A plan that is off just disables everything.
*/
func Apply(p Plan, hw HardwareClock) error {
	hw.DrivePinStatic(false)
	if !p.On {
		hw.Disable()
		return nil
	}
	if err := hw.ConfigurePLL(p.ReferenceDivider, p.IntegerRatio, p.FractionRatio); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "synth.pll", err)
	}
	switch p.Drive {
	case DriveClock:
		if err := hw.ConfigureOutputDivider(p.OutputDivider); err != nil {
			return errcode.Wrap(errcode.HardwareFault, "synth.divider", err)
		}
		hw.RouteClock()
	case DrivePWM:
		if err := hw.ConfigureOutputDivider(1); err != nil {
			return errcode.Wrap(errcode.HardwareFault, "synth.divider", err)
		}
		if err := hw.ConfigurePWM(p.TimerPrescaler, p.TimerPeriod, p.TimerCompare); err != nil {
			return errcode.Wrap(errcode.HardwareFault, "synth.pwm", err)
		}
	case DriveHigh:
		hw.DrivePinStatic(true)
	case DriveLow:
		// already there
	}
	return nil
}
