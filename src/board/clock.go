//go:build atsamd21

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

package board

import (
	"device/sam"

	"freqgen/src/errcode"
	"freqgen/src/synth"
)

// tccPrescaler maps a power of two prescaler to the TCC PRESCALER field. The TCC has
// no /32, /128 or /512, those are marked -1.
var tccPrescaler = [...]int32{0, 1, 2, 3, 4, -1, 5, -1, 6, -1, 7}

// Clock drives the output pin from the DPLL, either through generic clock 4 or
// through TCC0 as a PWM.
type Clock struct {
	on bool
}

var _ synth.HardwareClock = (*Clock)(nil)

func (c *Clock) ConfigurePLL(refDiv int, intRatio, fracRatio int64) error {
	if err := setPLL(refDiv, intRatio, fracRatio); err != nil {
		return err
	}
	c.on = true
	return nil
}

func (c *Clock) ConfigureOutputDivider(div int64) error {
	if div < 1 || div > 2 {
		return &errcode.E{C: errcode.Unsupported, Op: "board.divider", Msg: "generator divides by 1 or 2"}
	}
	if div == 1 {
		div = 0
	}
	startGen(uint32(div), true)
	sam.PM.APBCMASK.SetBits(sam.PM_APBCMASK_TCC0_)
	connect(sam.GCLK_CLKCTRL_ID_TCC0_TCC1, pllGen)
	return nil
}

func (c *Clock) RouteClock() { setPMux(OutputPin, pmuxH) }

func (c *Clock) ConfigurePWM(prescaler int, period, compare uint32) error {
	if prescaler < 0 || prescaler >= len(tccPrescaler) {
		return &errcode.E{C: errcode.Unsupported, Op: "board.pwm", Msg: "prescaler"}
	}
	presc := tccPrescaler[prescaler]
	if presc < 0 {
		// one step more prescaling and half the period; the duty moves by at most one tick
		presc = tccPrescaler[prescaler+1]
		period = (period+1)/2 - 1
		compare /= 2
	}

	resetTCC0()
	sam.TCC0.CTRLA.Set(uint32(presc)<<sam.TCC_CTRLA_PRESCALER_Pos |
		sam.TCC_CTRLA_PRESCSYNC_PRESC<<sam.TCC_CTRLA_PRESCSYNC_Pos)
	sam.TCC0.WAVE.Set(sam.TCC_WAVE_WAVEGEN_NPWM << sam.TCC_WAVE_WAVEGEN_Pos)
	sam.TCC0.COUNT.Set(0)
	sam.TCC0.PER.Set(period)
	sam.TCC0.CC[2].Set(compare)
	sam.TCC0.CTRLA.SetBits(sam.TCC_CTRLA_ENABLE)
	setPMux(OutputPin, pmuxF)
	return nil
}

func (c *Clock) DrivePinStatic(high bool) {
	clearPMux(OutputPin)
	OutputPin.Set(high)
}

func (c *Clock) Disable() {
	connect(sam.GCLK_CLKCTRL_ID_TCC0_TCC1, 0)
	resetTCC0()
	stopPLL()
	clearPMux(OutputPin)
	OutputPin.Low()
	c.on = false
}

func (c *Clock) PLLUnlocked() bool { return c.on && pllUnlocked() }
