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

package support

import "golang.org/x/exp/constraints"

/*
All of the instrument arithmetic is done in integers. Frequencies are carried in
milli-hertz as int64 (105 MHz is about 1e11 mHz, far from the int64 limit even after
multiplying by a 24 bit timer value), duty cycles in permyriad (1/10000).
*/

// Ipow returns base^exp by repeated squaring. Negative exponents yield 1.
func Ipow[T constraints.Integer](base T, exp int) T {
	res := T(1)
	for exp > 0 {
		if exp&1 != 0 {
			res *= base
		}
		exp /= 2
		base *= base
	}
	return res
}

// Iabs for signed integers.
func Iabs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundDiv returns a/b rounded half up, for non-negative a and positive b.
func RoundDiv[T constraints.Integer](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// StepDigit adds dir*10^digit to v, but only if the result stays inside
// [lo, hi]. Otherwise v is returned unchanged. This is how the digit
// editors behave: a step that would leave the range is simply refused.
func StepDigit(v int64, digit int, dir int, lo, hi int64) int64 {
	step := Ipow(int64(10), digit)
	switch {
	case dir > 0 && v <= hi-step:
		return v + step
	case dir < 0 && v >= lo+step:
		return v - step
	}
	return v
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}
