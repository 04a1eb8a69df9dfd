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
Package counter measures the frequency of the input signal.

Two methods are used. Gated counting counts input edges during a gate of fixed length
and is exact to one count per gate, which is good at high frequencies. Reciprocal
counting times whole input periods against the 100MHz counter PLL, which keeps its
resolution at low frequencies and also yields the duty cycle. The Engine switches
between them with some hysteresis so that an input sitting on the boundary doesn't
make it flip back and forth.
*/
package counter

import (
	"freqgen/src/clockref"
	"freqgen/src/errcode"
	"freqgen/src/logger"
)

// Sample is the current reading.
type Sample struct {
	Frequency int64 // mHz
	Duty      int32 // permyriad, only meaningful with DutyValid
	DutyValid bool
	Stale     bool // no input seen in the last reciprocal window
}

// Config is what the capture hardware needs to start counting.
type Config struct {
	Mode      Mode
	GateTicks uint32 // gate timer compare value, see GateTime.Ticks
}

// CaptureSource gives the foreground access to the values latched by the capture hardware.
type CaptureSource interface {
	// ReadAndClearOverflow returns the counter wraps since the last call.
	ReadAndClearOverflow() uint32
	// ReadGateCapture returns the edge count latched when the gate closed, if it has.
	ReadGateCapture() (uint32, bool)
	// ReadReciprocalCaptures returns the sums of the periods and high times, in
	// reference ticks, of the input cycles captured since the last call.
	ReadReciprocalCaptures() (period, duty uint64, edges uint32)
	// WindowElapsed reports, once, the end of each reciprocal measurement window.
	WindowElapsed() bool
}

// Capture is the whole counting front end.
type Capture interface {
	CaptureSource
	Start(Config) error
	Stop()
	// SetGateTicks changes the gate length without otherwise disturbing the hardware.
	SetGateTicks(ticks uint32)
}

// Result tells the caller what happened during a Tick.
type Result struct {
	Cycle    bool // a measurement completed
	Switched bool // the counting method changed
	Mode     Mode
}

// Engine runs the counter. It is not safe for concurrent use; everything but the
// overflow count in the Capture happens on the foreground loop.
type Engine struct {
	hw        Capture
	trim      clockref.Trim
	gate      GateTime
	threshold DirectThreshold
	hyst      Hysteresis
	recip     reciprocal
	sample    Sample
	ref       int64
	running   bool
	cycles    int
}

func NewEngine(hw Capture, trim clockref.Trim, gate GateTime, th DirectThreshold) *Engine {
	e := &Engine{
		hw:        hw,
		trim:      trim,
		gate:      gate,
		threshold: th,
		hyst:      NewHysteresis(th),
		ref:       clockref.CounterPLL(trim),
	}
	return e
}

// Start begins counting in the current mode from a clean state.
func (e *Engine) Start() error {
	e.sample = Sample{}
	e.recip.reset()
	e.hw.ReadAndClearOverflow()
	err := e.hw.Start(Config{Mode: e.hyst.Mode(), GateTicks: e.gate.Ticks(e.trim)})
	if err != nil {
		return errcode.Wrap(errcode.HardwareFault, "counter.start", err)
	}
	e.running = true
	return nil
}

// Stop releases the capture hardware, and with it the PLL.
func (e *Engine) Stop() {
	if e.running {
		e.hw.Stop()
		e.running = false
	}
}

func (e *Engine) restart() error {
	e.Stop()
	return e.Start()
}

func (e *Engine) Sample() Sample   { return e.sample }
func (e *Engine) Mode() Mode       { return e.hyst.Mode() }
func (e *Engine) Gate() GateTime   { return e.gate }
func (e *Engine) Cycles() int      { return e.cycles }
func (e *Engine) Reference() int64 { return e.ref }

func (e *Engine) Threshold() DirectThreshold { return e.threshold }

// SetTrim updates the reference used for the arithmetic and re-arms the gate timer.
func (e *Engine) SetTrim(t clockref.Trim) {
	e.trim = t
	e.ref = clockref.CounterPLL(t)
	if e.running {
		e.hw.SetGateTicks(e.gate.Ticks(t))
	}
}

// SetGate changes the gate length. The measurement restarts.
func (e *Engine) SetGate(g GateTime) error {
	e.gate = g
	if !e.running {
		return nil
	}
	return e.restart()
}

// SetThreshold changes the switching band. Choosing AlwaysGated while in direct mode
// moves back to gated right away.
func (e *Engine) SetThreshold(th DirectThreshold) error {
	e.threshold = th
	e.hyst.SetThreshold(th)
	if th == AlwaysGated && e.hyst.Mode() == Direct {
		e.hyst.Force(Gated)
		logger.Info("counter: %s, forced to %s", th, Gated)
		if e.running {
			return e.restart()
		}
	}
	return nil
}

/*
Tick polls the capture hardware once. It is called on every pass of the foreground
loop and returns quickly when nothing has been latched.

When a measurement completes the sample is updated and the mode controller gets to
look at it. A mode switch stops the capture hardware, clears the sample and
accumulators, and starts again in the other mode.
*/
func (e *Engine) Tick() (Result, error) {
	res := Result{Mode: e.hyst.Mode()}
	if !e.running {
		return res, nil
	}

	switch e.hyst.Mode() {
	case Gated:
		count, ok := e.hw.ReadGateCapture()
		if !ok {
			return res, nil
		}
		wraps := e.hw.ReadAndClearOverflow()
		raw := GateCount(count, wraps, e.gate)
		e.sample.Frequency = Smooth(e.sample.Frequency, raw)
		e.sample.Stale = false
		e.sample.DutyValid = false
		e.sample.Duty = 0
	case Direct:
		e.recip.add(e.hw.ReadReciprocalCaptures())
		if !e.hw.WindowElapsed() || e.recip.waiting() {
			return res, nil
		}
		e.recip.finish(e.ref, e.hw.ReadAndClearOverflow(), &e.sample)
	}

	e.cycles++
	res.Cycle = true
	if e.hyst.Step(e.sample.Frequency) {
		res.Switched = true
		res.Mode = e.hyst.Mode()
		logger.Info("counter: %s mode at %d mHz", res.Mode, e.sample.Frequency)
		if err := e.restart(); err != nil {
			return res, err
		}
	}
	return res, nil
}
