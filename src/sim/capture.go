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

package sim

import (
	"math/bits"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/errcode"
	"freqgen/src/support"
)

const modulus = counter.Modulus

/*
Capture is a counter.Capture fed by an ideal square wave.

Time is kept in ticks of the counter PLL, which runs from the real crystal given by
Actual. Input edge n after the last signal change falls at n*pll/freq ticks, so edge
counts over any interval come out exact, including the remainders that carry from one
gate to the next.

Each call to Step advances time by one gate: in gated mode the edge count is latched as
a gate capture, in direct mode the captured periods are added up and the window is
flagged as elapsed. Counter wraps are delivered through a support.Tally the same way
the overflow interrupt does it on the board.
*/
type Capture struct {
	Actual clockref.Trim

	freq int64 // input, mHz
	duty int32

	running bool
	cfg     counter.Config
	now     uint64 // ticks since start
	base    uint64 // time of the last signal change, edge 0
	ovf     support.Tally

	gateCount uint32
	gateReady bool
	period    uint64
	high      uint64
	edges     uint32
	window    bool
}

var _ counter.Capture = (*Capture)(nil)

func NewCapture(actual clockref.Trim) *Capture {
	return &Capture{Actual: actual}
}

// SetSignal changes the input. A frequency of zero means no input.
func (c *Capture) SetSignal(freq int64, duty int32) {
	c.freq, c.duty = freq, duty
	c.base = c.now
}

func (c *Capture) Signal() (int64, int32) { return c.freq, c.duty }

func (c *Capture) Running() bool { return c.running }

func (c *Capture) Config() counter.Config { return c.cfg }

func (c *Capture) Start(cfg counter.Config) error {
	if cfg.GateTicks == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "sim.capture", Msg: "zero gate"}
	}
	c.cfg = cfg
	c.running = true
	c.now, c.base = 0, 0
	c.ovf.Reset()
	c.gateReady, c.window = false, false
	c.period, c.high, c.edges = 0, 0, 0
	return nil
}

func (c *Capture) Stop() { c.running = false }

func (c *Capture) SetGateTicks(ticks uint32) { c.cfg.GateTicks = ticks }

func (c *Capture) ReadAndClearOverflow() uint32 { return c.ovf.Take() }

func (c *Capture) ReadGateCapture() (uint32, bool) {
	ok := c.gateReady
	c.gateReady = false
	return c.gateCount, ok
}

func (c *Capture) ReadReciprocalCaptures() (period, duty uint64, edges uint32) {
	period, duty, edges = c.period, c.high, c.edges
	c.period, c.high, c.edges = 0, 0, 0
	return
}

func (c *Capture) WindowElapsed() bool {
	w := c.window
	c.window = false
	return w
}

// pll is the real counter time base in mHz.
func (c *Capture) pll() uint64 { return uint64(clockref.CounterPLL(c.Actual)) }

// mulDiv returns a*b/d without intermediate overflow. The quotient must fit 64 bits.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// edgesBy is the number of input edges in (base, t].
func (c *Capture) edgesBy(t uint64) uint64 {
	if c.freq <= 0 || t <= c.base {
		return 0
	}
	return mulDiv(t-c.base, uint64(c.freq), c.pll())
}

// edgeTick is the tick on which edge n lands.
func (c *Capture) edgeTick(n uint64) uint64 {
	return c.base + mulDiv(n, c.pll(), uint64(c.freq))
}

// wrapsIn counts the counter wraps in [lo, hi) for a count restarted at a.
func wrapsIn(a, lo, hi uint64) uint32 {
	if hi <= a+modulus {
		return 0
	}
	first := a + modulus
	if first < lo {
		first += (lo - first + modulus - 1) / modulus * modulus
	}
	if first >= hi {
		return 0
	}
	return uint32((hi-first-1)/modulus + 1)
}

// Step advances by one gate. It does nothing while stopped.
func (c *Capture) Step() {
	if !c.running {
		return
	}
	// the gate timer is clocked through a /2 prescaler
	start, end := c.now, c.now+2*uint64(c.cfg.GateTicks)
	c.now = end

	n0, n1 := c.edgesBy(start), c.edgesBy(end)
	if c.cfg.Mode == counter.Gated {
		n := n1 - n0
		c.gateCount = uint32(n % modulus)
		c.gateReady = true
		c.ovf.Add(uint32(n / modulus))
		return
	}

	c.window = true
	var wraps uint32
	if c.freq > 0 && c.pll()/uint64(c.freq) < modulus {
		// periods are shorter than a wrap, take them all at once
		if n1 > n0 {
			p := c.edgeTick(n1) - c.edgeTick(n0)
			c.period += p
			c.high += p * uint64(c.duty) / 10000
			c.edges += uint32(n1 - n0)
		}
	} else {
		for n := n0 + 1; n <= n1; n++ {
			a, b := c.edgeTick(n-1), c.edgeTick(n)
			wraps += wrapsIn(a, start, b)
			p := b - a
			c.period += p % modulus
			c.high += p * uint64(c.duty) / 10000 % modulus
			c.edges++
		}
	}
	// the period still open at the end of the window
	last := c.base
	if c.freq > 0 {
		last = c.edgeTick(n1)
	}
	wraps += wrapsIn(last, start, end)
	c.ovf.Add(wraps)
}
