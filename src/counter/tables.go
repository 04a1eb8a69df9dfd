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
	"fmt"

	"freqgen/src/clockref"
)

// GateTime selects the gated measurement window.
type GateTime uint8

const (
	Gate100ms GateTime = iota
	Gate1s
	Gate5s
	Gate10s
	NumGateTimes
)

type gateInfo struct {
	num, den int64 // window in seconds
	mult     int64 // counts to mHz
	name     string
}

var gates = [NumGateTimes]gateInfo{
	Gate100ms: {1, 10, 10000, "0.1 s"},
	Gate1s:    {1, 1, 1000, "1 s"},
	Gate5s:    {5, 1, 200, "5 s"},
	Gate10s:   {10, 1, 100, "10 s"},
}

func (g GateTime) Valid() bool { return g < NumGateTimes }

// Multiplier converts a count over the window into milli-hertz.
func (g GateTime) Multiplier() int64 { return gates[g].mult }

// Ticks is the gate timer compare value for this window with the given trim.
func (g GateTime) Ticks(trim clockref.Trim) uint32 {
	return clockref.GateTicks(trim, gates[g].num, gates[g].den)
}

// Millis is the nominal window length.
func (g GateTime) Millis() int64 { return 1000 * gates[g].num / gates[g].den }

func (g GateTime) String() string {
	if !g.Valid() {
		return fmt.Sprintf("gate(%d)", uint8(g))
	}
	return gates[g].name
}

// DirectThreshold selects the band where the counter swaps between gated and reciprocal counting.
type DirectThreshold uint8

const (
	AlwaysGated DirectThreshold = iota
	Direct1kHz
	Direct10kHz
	Direct100kHz
	Direct1MHz
	NumDirectThresholds
)

type band struct {
	lo, hi int64 // mHz
	name   string
}

// AlwaysGated has lo below any possible reading, so gated mode is never left.
var bands = [NumDirectThresholds]band{
	AlwaysGated:  {-1, 0, "gated"},
	Direct1kHz:   {950_000, 1_050_000, "1 kHz"},
	Direct10kHz:  {9_900_000, 10_100_000, "10 kHz"},
	Direct100kHz: {99_000_000, 101_000_000, "100 kHz"},
	Direct1MHz:   {990_000_000, 1_010_000_000, "1 MHz"},
}

func (d DirectThreshold) Valid() bool { return d < NumDirectThresholds }

// Band returns the hysteresis band in mHz. Gated switches to direct below lo,
// direct switches back above hi.
func (d DirectThreshold) Band() (lo, hi int64) {
	return bands[d].lo, bands[d].hi
}

func (d DirectThreshold) String() string {
	if !d.Valid() {
		return fmt.Sprintf("threshold(%d)", uint8(d))
	}
	return bands[d].name
}
