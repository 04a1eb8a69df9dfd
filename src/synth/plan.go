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
Package synth turns a requested output frequency and duty cycle into settings for the
on-chip fractional PLL, the clock generator divider and the PWM timer.

The PLL takes a reference derived from the crystal by an even divider and multiplies it
by a ratio with a 4 bit fraction. The PLL only locks above 48MHz, so low outputs are
produced by running the PLL at a power of two multiple of the target and dividing down.
Divisions of 1 or 2 are done by the clock generator and go straight to the pin. Anything
bigger goes through a 24 bit PWM timer which also gives us the duty cycle.
*/
package synth

import (
	"fmt"

	"freqgen/src/support"
)

const (
	FreqMin int64 = 100             // 0.1 Hz in mHz
	FreqMax int64 = 105_000_000_000 // 105 MHz in mHz
	DutyMin int32 = 0
	DutyMax int32 = 10000

	// PLLMinLock is the lowest frequency at which the PLL will lock, in mHz.
	PLLMinLock int64 = 48_000_000_000

	RefDividerMin = 8
	RefDividerMax = 374

	// FractionSteps is the resolution of the PLL fractional multiplier.
	FractionSteps = 16

	// TimerBits is the width of the PWM counter.
	TimerBits = 24

	// Thresholds used to quantize the duty cycle when there is no PWM timer in the path.
	DutyLowCut  int32 = 3333
	DutyHighCut int32 = 6666
)

// Drive says how the output pin is driven.
type Drive uint8

const (
	DriveLow   Drive = iota // pin held low
	DriveHigh               // pin held high
	DriveClock              // pin muxed to the divided PLL clock
	DrivePWM                // pin muxed to the PWM timer output
)

func (d Drive) String() string {
	switch d {
	case DriveLow:
		return "low"
	case DriveHigh:
		return "high"
	case DriveClock:
		return "clock"
	case DrivePWM:
		return "pwm"
	}
	return fmt.Sprintf("drive(%d)", uint8(d))
}

// Static reports whether the pin is driven by software instead of a peripheral.
func (d Drive) Static() bool { return d == DriveLow || d == DriveHigh }

// Plan is the complete set of register values for one output setting.
type Plan struct {
	On bool

	ReferenceDivider int   // even, in [RefDividerMin, RefDividerMax]
	IntegerRatio     int64 // PLL multiplier, integer part
	FractionRatio    int64 // PLL multiplier, sixteenths
	OutputDivider    int64 // power of two

	TimerPrescaler int    // power of two exponent
	TimerPeriod    uint32 // PER register, counts minus one
	TimerCompare   uint32

	Drive Drive

	Ref  int64 // PLL reference frequency in mHz
	Step int64 // one fractional step of the PLL output in mHz

	AchievedFreq int64 // mHz
	AchievedDuty int32 // permyriad
}

// PLLFreq is the frequency the PLL runs at, in mHz.
func (p Plan) PLLFreq() int64 {
	return p.Ref*p.IntegerRatio + p.Ref*p.FractionRatio/FractionSteps
}

func (p Plan) String() string {
	if !p.On {
		return "off"
	}
	s := fmt.Sprintf("rdiv=%d ratio=%d+%d/16 div=%d drive=%s", p.ReferenceDivider,
		p.IntegerRatio, p.FractionRatio, p.OutputDivider, p.Drive)
	if p.OutputDivider > 2 {
		s += fmt.Sprintf(" presc=2^%d per=%d cc=%d", p.TimerPrescaler, p.TimerPeriod, p.TimerCompare)
	}
	return s + fmt.Sprintf(" f=%s Hz dc=%s %%",
		support.FormatFreq(p.AchievedFreq), support.FormatDuty(p.AchievedDuty))
}

/*
Synthesize computes the plan for an output of `freq` mHz with duty `duty` (1/10000)
given a crystal running at `crystal` mHz (nominal plus trim).

The search walks the even reference dividers in ascending order. For each one the PLL
output can only be set in steps of ref/16, so what matters is how far the wanted PLL
frequency is from the nearest multiple of the step, either below (the remainder) or above
(step minus the remainder, which needs the divisor rounded up). The first candidate with
the smallest miss wins and an exact hit ends the search.

Inputs outside the settable ranges are clamped. The function never fails.
*/
func Synthesize(freq int64, duty int32, on bool, crystal int64) Plan {
	if !on {
		return Plan{Drive: DriveLow}
	}
	freq = support.Clamp(freq, FreqMin, FreqMax)
	duty = support.Clamp(duty, DutyMin, DutyMax)

	p := Plan{On: true, OutputDivider: 1}
	pll := freq
	for pll < PLLMinLock {
		pll *= 2
		p.OutputDivider *= 2
	}

	minRem := pll
	high := false
	for rdiv := RefDividerMin; rdiv <= RefDividerMax; rdiv += 2 {
		ref := crystal / int64(rdiv)
		step := ref / FractionSteps
		rem := pll % step

		if rem < minRem {
			minRem, high = rem, false
			p.ReferenceDivider, p.Ref, p.Step = rdiv, ref, step
		}
		if step-rem < minRem {
			minRem, high = step-rem, true
			p.ReferenceDivider, p.Ref, p.Step = rdiv, ref, step
		}
		if rem == 0 {
			break
		}
	}

	pllDiv := pll / p.Step
	if high {
		pllDiv++
	}
	p.IntegerRatio = pllDiv / FractionSteps
	p.FractionRatio = pllDiv % FractionSteps
	p.AchievedFreq = p.PLLFreq() / p.OutputDivider

	if p.OutputDivider <= 2 {
		p.Drive = DriveClock
		switch {
		case duty < DutyLowCut:
			p.AchievedDuty = 0
		case duty > DutyHighCut:
			p.AchievedDuty = DutyMax
		default:
			p.AchievedDuty = 5000
		}
	} else {
		p.Drive = DrivePWM
		period := p.OutputDivider
		for period > 1<<TimerBits {
			period /= 2
			p.TimerPrescaler++
		}
		cc := support.RoundDiv(int64(duty)*period, 10000)
		p.TimerPeriod = uint32(period - 1)
		p.TimerCompare = uint32(cc)
		p.AchievedDuty = int32(support.RoundDiv(cc*10000, period))
	}

	switch p.AchievedDuty {
	case 0:
		p.Drive = DriveLow
	case DutyMax:
		p.Drive = DriveHigh
	}
	return p
}
