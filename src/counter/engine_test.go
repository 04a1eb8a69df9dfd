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
	"errors"
	"testing"

	"freqgen/src/clockref"
	"freqgen/src/errcode"
)

// fakeCapture latches whatever the test puts in it for exactly one read.
type fakeCapture struct {
	started   []Config
	stops     int
	gateTicks uint32
	fail      error

	count     uint32
	gateReady bool
	wraps     uint32
	period    uint64
	duty      uint64
	edges     uint32
	window    bool
}

func (f *fakeCapture) Start(c Config) error {
	if f.fail != nil {
		return f.fail
	}
	f.started = append(f.started, c)
	f.gateTicks = c.GateTicks
	return nil
}

func (f *fakeCapture) Stop()                     { f.stops++ }
func (f *fakeCapture) SetGateTicks(ticks uint32) { f.gateTicks = ticks }

func (f *fakeCapture) ReadAndClearOverflow() uint32 {
	w := f.wraps
	f.wraps = 0
	return w
}

func (f *fakeCapture) ReadGateCapture() (uint32, bool) {
	ok := f.gateReady
	f.gateReady = false
	return f.count, ok
}

func (f *fakeCapture) ReadReciprocalCaptures() (uint64, uint64, uint32) {
	p, d, n := f.period, f.duty, f.edges
	f.period, f.duty, f.edges = 0, 0, 0
	return p, d, n
}

func (f *fakeCapture) WindowElapsed() bool {
	w := f.window
	f.window = false
	return w
}

func (f *fakeCapture) gate(count uint32) {
	f.count = count
	f.gateReady = true
}

func (f *fakeCapture) cycles(period, duty uint64, edges uint32) {
	f.period, f.duty, f.edges = period, duty, edges
	f.window = true
}

// directEngine returns a running engine that has just switched to direct mode.
func directEngine(t *testing.T) (*Engine, *fakeCapture) {
	t.Helper()
	hw := &fakeCapture{}
	e := NewEngine(hw, 0, Gate1s, Direct10kHz)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	hw.gate(100) // 100 Hz
	res, err := e.Tick()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cycle || !res.Switched || res.Mode != Direct {
		t.Fatalf("expected a switch to direct, got %+v", res)
	}
	return e, hw
}

func Test_engineGated(t *testing.T) {
	hw := &fakeCapture{}
	e := NewEngine(hw, 0, Gate1s, AlwaysGated)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if len(hw.started) != 1 || hw.started[0].Mode != Gated || hw.started[0].GateTicks != 50_000_000 {
		t.Fatalf("started with %+v", hw.started)
	}

	// nothing latched
	if res, _ := e.Tick(); res.Cycle {
		t.Errorf("cycle without a gate")
	}

	hw.gate(1_000_000)
	res, err := e.Tick()
	if err != nil || !res.Cycle || res.Switched {
		t.Fatalf("got %+v %v", res, err)
	}
	if s := e.Sample(); s.Frequency != 1_000_000_000 || s.DutyValid || s.Stale {
		t.Errorf("sample %+v", s)
	}

	// 4 counts more is 4 Hz, inside the smoothing band
	hw.gate(1_000_004)
	e.Tick()
	if got := e.Sample().Frequency; got != 1_000_000_500 {
		t.Errorf("smoothed to %d", got)
	}

	// wraps are folded in
	hw.gate(10)
	hw.wraps = 3
	e.Tick()
	if got := e.Sample().Frequency; got != 50_331_658_000 {
		t.Errorf("with wraps %d", got)
	}
	if e.Cycles() != 3 {
		t.Errorf("cycles = %d", e.Cycles())
	}
}

func Test_engineSwitch(t *testing.T) {
	e, hw := directEngine(t)
	if len(hw.started) != 2 || hw.started[1].Mode != Direct || hw.stops != 1 {
		t.Fatalf("restart not done: %+v, %d stops", hw.started, hw.stops)
	}
	if e.Sample() != (Sample{}) {
		t.Errorf("sample not reset: %+v", e.Sample())
	}

	// 1000 periods of 100000 ticks is 1kHz, half of each is high
	hw.cycles(100_000_000, 50_000_000, 1000)
	res, _ := e.Tick()
	if !res.Cycle || res.Switched {
		t.Fatalf("got %+v", res)
	}
	s := e.Sample()
	if s.Frequency != 1_000_000 || !s.DutyValid || s.Duty != 5000 || s.Stale {
		t.Errorf("sample %+v", s)
	}

	// far above the band, but the second cycle after a switch is still blocked
	hw.cycles(1_000, 500, 1000)
	if res, _ := e.Tick(); res.Switched {
		t.Fatalf("switched during the block")
	}
	hw.cycles(1_000, 500, 1000)
	res, _ = e.Tick()
	if !res.Switched || res.Mode != Gated || e.Mode() != Gated {
		t.Errorf("expected switch back to gated, got %+v", res)
	}
	if len(hw.started) != 3 || hw.started[2].Mode != Gated {
		t.Errorf("restart not done: %+v", hw.started)
	}
}

func Test_engineReciprocalExact(t *testing.T) {
	e, hw := directEngine(t)
	hw.cycles(123_456_789, 1_000, 1000)
	e.Tick()
	want := clockref.CounterPLL(0) * 1000 / 123_456_789
	if got := e.Sample().Frequency; got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func Test_engineAccumulates(t *testing.T) {
	e, hw := directEngine(t)
	// captures arrive over several ticks before the window ends
	hw.period, hw.duty, hw.edges = 40_000_000, 10_000_000, 400
	e.Tick()
	hw.period, hw.duty, hw.edges = 60_000_000, 15_000_000, 600
	e.Tick()
	if e.Cycles() != 1 {
		t.Fatalf("window closed early")
	}
	hw.window = true
	res, _ := e.Tick()
	if !res.Cycle {
		t.Fatalf("window not closed")
	}
	if s := e.Sample(); s.Frequency != 1_000_000 || s.Duty != 2500 {
		t.Errorf("sample %+v", s)
	}
}

func Test_engineGrace(t *testing.T) {
	e, hw := directEngine(t)
	hw.cycles(100_000_000, 50_000_000, 1000)
	e.Tick()
	cycles := e.Cycles()

	for i := 0; i < GraceWindows; i++ {
		hw.window = true
		if res, _ := e.Tick(); res.Cycle {
			t.Fatalf("empty window %d reported", i)
		}
	}
	hw.window = true
	res, _ := e.Tick()
	if !res.Cycle || e.Cycles() != cycles+1 {
		t.Fatalf("grace did not expire")
	}
	s := e.Sample()
	if !s.Stale || s.Frequency != 1_000_000 || s.DutyValid {
		t.Errorf("stale sample %+v", s)
	}

	// the input returns
	hw.cycles(50_000_000, 25_000_000, 1000)
	e.Tick()
	if s := e.Sample(); s.Stale || s.Frequency != 2_000_000 {
		t.Errorf("recovered sample %+v", s)
	}
}

func Test_engineOverflowDuty(t *testing.T) {
	e, hw := directEngine(t)
	hw.cycles(1000, 500, 10)
	hw.wraps = 1
	e.Tick()
	s := e.Sample()
	if s.DutyValid || s.Duty != 0 {
		t.Errorf("duty should be invalid after a wrap: %+v", s)
	}
	if want := clockref.CounterPLL(0) * 10 / (1000 + 1<<24); s.Frequency != want {
		t.Errorf("frequency %d, want %d", s.Frequency, want)
	}
}

func Test_engineSettings(t *testing.T) {
	hw := &fakeCapture{}
	e := NewEngine(hw, 0, Gate1s, Direct100kHz)

	// nothing happens to the hardware until started
	if err := e.SetGate(Gate100ms); err != nil || len(hw.started) != 0 {
		t.Fatalf("SetGate on a stopped engine touched the hardware")
	}
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if hw.gateTicks != 5_000_000 {
		t.Errorf("gate ticks %d", hw.gateTicks)
	}

	e.SetTrim(120_000)
	if e.Reference() != clockref.CounterPLL(120_000) || hw.gateTicks != Gate100ms.Ticks(120_000) {
		t.Errorf("trim not applied: ref %d ticks %d", e.Reference(), hw.gateTicks)
	}
	if len(hw.started) != 1 {
		t.Errorf("trim should not restart the hardware")
	}

	if err := e.SetGate(Gate10s); err != nil {
		t.Fatal(err)
	}
	if len(hw.started) != 2 || hw.started[1].GateTicks != Gate10s.Ticks(120_000) {
		t.Errorf("gate change did not restart: %+v", hw.started)
	}
}

func Test_engineForcedGated(t *testing.T) {
	e, hw := directEngine(t)
	if err := e.SetThreshold(AlwaysGated); err != nil {
		t.Fatal(err)
	}
	if e.Mode() != Gated || hw.started[len(hw.started)-1].Mode != Gated {
		t.Errorf("AlwaysGated left the engine in %s", e.Mode())
	}
	if e.Threshold() != AlwaysGated {
		t.Errorf("threshold %s", e.Threshold())
	}
}

func Test_engineStartFailure(t *testing.T) {
	hw := &fakeCapture{fail: errors.New("pll did not lock")}
	e := NewEngine(hw, 0, Gate1s, AlwaysGated)
	err := e.Start()
	if errcode.Of(err) != errcode.HardwareFault {
		t.Errorf("got %v", err)
	}
	if res, _ := e.Tick(); res.Cycle {
		t.Errorf("stopped engine produced a cycle")
	}
}
