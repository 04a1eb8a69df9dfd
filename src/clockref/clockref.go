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
Package clockref models the trimmed 12MHz crystal that everything else is derived from.

All frequencies are in milli-hertz. The trim is a plain additive offset on the nominal
crystal frequency and is the only calibration the instrument has.
*/
package clockref

import "freqgen/src/support"

const (
	// NominalCrystal is the crystal frequency in mHz.
	NominalCrystal int64 = 12_000_000_000

	TrimMin Trim = -99_999_999
	TrimMax Trim = 99_999_999

	// TrimDigits is the number of editable decimal digits of the trim.
	TrimDigits = 8

	// The counter runs the PLL from a 1MHz reference (crystal / 12) multiplied by 100.
	CounterRefDivider = 12
	CounterPLLRatio   = 100

	// The gate timer is clocked from the counter PLL through a /2 prescaler.
	GatePrescaler = 2
)

// Trim is the signed offset added to the nominal crystal frequency.
type Trim int32

// Add returns t+delta clamped to [TrimMin, TrimMax].
func (t Trim) Add(delta int64) Trim {
	return Trim(support.Clamp(int64(t)+delta, int64(TrimMin), int64(TrimMax)))
}

// Valid reports whether t lies in the declared range.
func (t Trim) Valid() bool { return t >= TrimMin && t <= TrimMax }

// Crystal returns the effective crystal frequency in mHz.
func Crystal(t Trim) int64 {
	return NominalCrystal + int64(t)
}

// CounterPLL returns the PLL output frequency used as the counter time base, in mHz.
// This is the reference frequency for reciprocal counting.
func CounterPLL(t Trim) int64 {
	return Crystal(t) * CounterPLLRatio / CounterRefDivider
}

// GateTicks returns the gate timer compare value for a window of num/den seconds.
func GateTicks(t Trim, num, den int64) uint32 {
	hz := CounterPLL(t) / 1000
	return uint32(hz * num / den / GatePrescaler)
}
