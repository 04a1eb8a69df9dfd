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

import "freqgen/src/support"

const (
	// Modulus is the wrap length of the 24 bit capture counter.
	Modulus uint64 = 1 << 24

	// SnapThreshold is the largest change in mHz that is smoothed. Bigger jumps are
	// taken as a real change of the input and adopted immediately.
	SnapThreshold int64 = 10_000

	// SmoothShift gives the smoothing gain of 1/8.
	SmoothShift = 3
)

// GateCount converts the edges counted during one gate into mHz.
func GateCount(count, wraps uint32, gate GateTime) int64 {
	return int64(support.Extend(Modulus, wraps, count)) * gate.Multiplier()
}

// Smooth folds a new gated reading into the current estimate.
func Smooth(current, raw int64) int64 {
	diff := raw - current
	if support.Iabs(diff) > SnapThreshold {
		return raw
	}
	return current + diff/(1<<SmoothShift)
}
