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

import (
	"math"
	"math/bits"

	"freqgen/src/support"
)

// GraceWindows is how many empty windows reciprocal counting waits before it
// reports on a missing input.
const GraceWindows = 16

/*
reciprocal accumulates whole input periods measured against the reference clock.

Every captured period adds its length in reference ticks to period, the high time to
duty and one to edges. At the end of a window the frequency is reference*edges/period.
*/
type reciprocal struct {
	period uint64
	duty   uint64
	edges  uint32
	grace  int
}

func (r *reciprocal) reset() {
	*r = reciprocal{}
}

// clear drops the sums but keeps the grace count running.
func (r *reciprocal) clear() {
	r.period, r.duty, r.edges = 0, 0, 0
}

func (r *reciprocal) add(period, duty uint64, edges uint32) {
	if edges == 0 {
		return
	}
	r.period += period
	r.duty += duty
	r.edges += edges
	r.grace = GraceWindows
}

// waiting reports whether an empty window should be skipped. Each call while
// waiting uses up one window of grace.
func (r *reciprocal) waiting() bool {
	if r.edges != 0 && r.period != 0 {
		return false
	}
	if r.grace > 0 {
		r.grace--
		return true
	}
	return false
}

/*
finish closes the window and updates s. `wraps` is the number of capture counter
overflows seen during the window, each worth Modulus reference ticks.

A window without a single captured edge leaves the frequency alone and marks the
sample stale. The duty cycle cannot be trusted when the counter wrapped and is
reported as invalid.
*/
func (r *reciprocal) finish(ref int64, wraps uint32, s *Sample) {
	period := r.period + support.Extend(Modulus, wraps, 0)
	defer r.clear()

	if r.edges == 0 || period == 0 {
		s.Stale = true
		s.DutyValid = false
		s.Duty = 0
		return
	}
	s.Stale = false
	s.Frequency = ReciprocalFreq(ref, r.edges, period)
	if wraps == 0 {
		s.Duty = int32(r.duty * 10000 / period)
		s.DutyValid = true
	} else {
		s.Duty = 0
		s.DutyValid = false
	}
}

// ReciprocalFreq is ref*edges/period with ref in mHz and period in reference ticks.
// The product is formed in 128 bits. A result that does not fit saturates.
func ReciprocalFreq(ref int64, edges uint32, period uint64) int64 {
	if period == 0 || ref <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(ref), uint64(edges))
	if hi >= period {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, period)
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}
