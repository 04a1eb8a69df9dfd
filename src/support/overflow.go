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

import "sync/atomic"

/*
Tally is a counter shared between an interrupt handler and the foreground loop.

The capture timers on the counter are only 24 bits long. Counting a 100MHz signal for
10 seconds wraps the counter about 60 times, so the overflow interrupt bumps a Tally and
the foreground task folds the tally into the captured value when the gate closes.

The interrupt side only ever calls Add. The foreground side calls Take which removes
exactly the amount it returns. An overflow that lands between the load and the
subtraction stays in the tally for the next Take instead of being lost, which is what
a plain read-then-zero would do.
*/
type Tally struct {
	n atomic.Uint32
}

// Add is safe to call from interrupt context.
func (t *Tally) Add(delta uint32) { t.n.Add(delta) }

// Take returns the current count and removes it from the tally.
func (t *Tally) Take() uint32 {
	v := t.n.Load()
	if v != 0 {
		t.n.Add(^(v - 1))
	}
	return v
}

// Peek returns the count without consuming it.
func (t *Tally) Peek() uint32 { return t.n.Load() }

// Reset discards everything. Only valid while the interrupt is disabled.
func (t *Tally) Reset() { t.n.Store(0) }

// Extend combines a wrapped counter value with the number of wraps seen.
func Extend(modulus uint64, wraps uint32, count uint32) uint64 {
	return uint64(count) + uint64(wraps)*modulus
}
