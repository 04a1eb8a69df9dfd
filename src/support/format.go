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

// Field widths used by the instrument displays.
const (
	FreqDigits  = 12 // 105 000 000.000 Hz in mHz
	FreqDecimal = 3
	DutyDigits  = 5 // 100.00 % in permyriad
	DutyDecimal = 2
	TrimDigits  = 8
	TrimDecimal = 3
)

/*
FormatDigits renders a fixed point value as a fixed width string.

`size` digits are produced, `decimal` of them after the decimal point. Integer digits
are grouped by threes with a space. Leading zeros above the units digit are blanked,
except that digits at or below `cursor` are always shown so that an editing cursor never
sits on a blank. A `cursor` of -1 means no cursor. With `sign`, a '+' or '-' is placed
immediately in front of the most significant shown digit.

The second result maps digit index i (0 is least significant) to its byte position in the
returned string so that a renderer can mark the cursor.
*/
func FormatDigits(value int64, size, decimal int, sign bool, cursor int) (string, []int) {
	negative := value < 0
	rem := Iabs(value)

	// built least significant first, reversed at the end
	buf := make([]byte, 0, size*2+2)
	pos := make([]int, size)
	firstSpace := -1

	for i := 0; i < size; i++ {
		chr := byte(rem%10) + '0'
		if rem == 0 && i >= decimal+1 && (cursor < 0 || i > cursor) {
			chr = ' '
		}
		pos[i] = len(buf)
		buf = append(buf, chr)
		if firstSpace < 0 && chr == ' ' {
			firstSpace = len(buf) - 1
		}
		rem /= 10

		if i > decimal && (i-decimal+1)%3 == 0 && i != size-1 {
			buf = append(buf, ' ')
		} else if i == decimal-1 {
			buf = append(buf, '.')
		}
	}

	if sign {
		c := byte('+')
		if negative {
			c = '-'
		}
		if firstSpace >= 0 {
			buf[firstSpace] = c
			buf = append(buf, ' ')
		} else {
			buf = append(buf, c)
		}
	}

	n := len(buf)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	for i := range pos {
		pos[i] = n - 1 - pos[i]
	}
	return string(buf), pos
}

// FormatFreq renders milli-hertz as hertz with three decimals, e.g. "  1 000.000".
func FormatFreq(mhz int64) string {
	s, _ := FormatDigits(mhz, FreqDigits, FreqDecimal, false, -1)
	return s
}

// FormatDuty renders permyriad as percent with two decimals, e.g. " 50.00".
func FormatDuty(dc int32) string {
	s, _ := FormatDigits(int64(dc), DutyDigits, DutyDecimal, false, -1)
	return s
}

// FormatTrim renders a signed crystal trim, e.g. "   +12.500".
func FormatTrim(trim int32) string {
	s, _ := FormatDigits(int64(trim), TrimDigits, TrimDecimal, true, -1)
	return s
}
