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
	"testing"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/logger"
	"freqgen/src/synth"
)

func init() {
	logger.Quiet = true
}

func Test_wrapsIn(t *testing.T) {
	const m = modulus
	tests := []struct {
		a, lo, hi uint64
		want      uint32
	}{
		{0, 0, m, 0},
		{0, 0, m + 1, 1},
		{0, 0, 6 * m, 5},
		{0, 3 * m, 6*m + 1, 4},
		{10, 0, 100, 0},
		{5, 2 * m, 2*m + 5, 0},
		{5, 2 * m, 2*m + 6, 1},
	}
	for _, tt := range tests {
		if got := wrapsIn(tt.a, tt.lo, tt.hi); got != tt.want {
			t.Errorf("wrapsIn(%d, %d, %d) = %d, want %d", tt.a, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func Test_clockOutput(t *testing.T) {
	tests := []struct {
		freq int64
		duty int32
	}{
		{1_000_000_000, 5000},
		{1_000_000, 2500},
		{50_000_000_000, 5000},
		{100, 5000},
	}
	for _, tt := range tests {
		c := NewClock(clockref.Crystal(0))
		p := synth.Synthesize(tt.freq, tt.duty, true, clockref.Crystal(0))
		if err := synth.Apply(p, c); err != nil {
			t.Fatalf("%d: %v", tt.freq, err)
		}
		f, d := c.Output()
		if f != p.AchievedFreq || d != p.AchievedDuty {
			t.Errorf("%d: pin shows %d/%d, plan says %d/%d", tt.freq, f, d, p.AchievedFreq, p.AchievedDuty)
		}
		if c.PLLUnlocked() {
			t.Errorf("%d: PLL at %d does not lock", tt.freq, c.PLLFreq())
		}
	}

	c := NewClock(clockref.Crystal(0))
	synth.Apply(synth.Synthesize(1_000_000, 5000, false, clockref.Crystal(0)), c)
	if f, d := c.Output(); f != 0 || d != 0 || c.Enabled {
		t.Errorf("off clock shows %d/%d", f, d)
	}
}

func Test_clockRejects(t *testing.T) {
	c := NewClock(clockref.Crystal(0))
	if c.ConfigurePLL(7, 64, 0) == nil || c.ConfigurePLL(12, 64, 16) == nil {
		t.Errorf("bad PLL settings accepted")
	}
	if c.ConfigureOutputDivider(4) == nil {
		t.Errorf("divider 4 accepted")
	}
}

func run(t *testing.T, e *counter.Engine, hw *Capture, steps int) counter.Sample {
	t.Helper()
	for i := 0; i < steps; i++ {
		hw.Step()
		if _, err := e.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	return e.Sample()
}

func Test_gated(t *testing.T) {
	hw := NewCapture(0)
	hw.SetSignal(1_000_000_000, 5000)
	e := counter.NewEngine(hw, 0, counter.Gate1s, counter.AlwaysGated)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if s := run(t, e, hw, 1); s.Frequency != 1_000_000_000 {
		t.Errorf("1MHz reads %d", s.Frequency)
	}

	// 10MHz over 10s wraps the 24 bit counter several times
	hw.SetSignal(10_000_000_000, 5000)
	e.SetGate(counter.Gate10s)
	if s := run(t, e, hw, 1); s.Frequency != 10_000_000_000 {
		t.Errorf("10MHz reads %d", s.Frequency)
	}

	// a fractional count carries over to the next gate
	hw.SetSignal(1_500, 5000)
	e.SetGate(counter.Gate1s)
	total := int64(0)
	for i := 0; i < 4; i++ {
		hw.Step()
		count, _ := hw.ReadGateCapture()
		total += int64(count)
	}
	if total != 6 {
		t.Errorf("1.5Hz gave %d edges in 4s", total)
	}
}

func Test_directSwitch(t *testing.T) {
	hw := NewCapture(0)
	hw.SetSignal(100_000, 2500) // 100Hz
	e := counter.NewEngine(hw, 0, counter.Gate1s, counter.Direct10kHz)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	hw.Step()
	res, _ := e.Tick()
	if !res.Switched || e.Mode() != counter.Direct || hw.Config().Mode != counter.Direct {
		t.Fatalf("no switch to direct: %+v", res)
	}
	s := run(t, e, hw, 1)
	if s.Frequency != 100_000 || !s.DutyValid || s.Duty != 2500 {
		t.Errorf("100Hz reads %+v", s)
	}

	// a slow input wraps the period counter, the frequency survives but the duty does not
	hw.SetSignal(1_000, 5000)
	s = run(t, e, hw, 2)
	if s.Frequency != 1_000 || s.DutyValid {
		t.Errorf("1Hz reads %+v", s)
	}
}

func Test_directToGatedFast(t *testing.T) {
	hw := NewCapture(0)
	hw.SetSignal(100_000, 5000) // 100Hz
	e := counter.NewEngine(hw, 0, counter.Gate10s, counter.Direct1MHz)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	run(t, e, hw, 2)
	if e.Mode() != counter.Direct || e.Sample().Frequency != 100_000 {
		t.Fatalf("setup: %s %+v", e.Mode(), e.Sample())
	}

	// 5e8 edges in a 10s window
	hw.SetSignal(50_000_000_000, 5000)
	for i := 0; i < counter.SwitchBlock && e.Mode() == counter.Direct; i++ {
		hw.Step()
		if _, err := e.Tick(); err != nil {
			t.Fatal(err)
		}
		if f := e.Sample().Frequency; e.Mode() == counter.Direct && f < 0 {
			t.Fatalf("negative reading %d", f)
		}
	}
	if e.Mode() != counter.Gated {
		t.Fatalf("still %s with a 50MHz input: %+v", e.Mode(), e.Sample())
	}
	if s := run(t, e, hw, 1); s.Frequency != 50_000_000_000 {
		t.Errorf("50MHz reads %d", s.Frequency)
	}
}

func Test_trim(t *testing.T) {
	// the real crystal is 100ppm fast
	actual := clockref.Trim(1_200_000)
	hw := NewCapture(actual)
	hw.SetSignal(1_000_000_000, 5000)

	e := counter.NewEngine(hw, 0, counter.Gate1s, counter.AlwaysGated)
	e.Start()
	off := run(t, e, hw, 1).Frequency
	if off == 1_000_000_000 {
		t.Fatalf("untrimmed reading should be off")
	}

	e.SetTrim(actual)
	hw.SetGateTicks(counter.Gate1s.Ticks(actual))
	if got := run(t, e, hw, 1).Frequency; got != 1_000_000_000 {
		t.Errorf("trimmed reading %d, untrimmed %d", got, off)
	}
}

func Test_noSignal(t *testing.T) {
	hw := NewCapture(0)
	hw.SetSignal(100_000, 5000)
	e := counter.NewEngine(hw, 0, counter.Gate100ms, counter.Direct1kHz)
	e.Start()
	run(t, e, hw, 2)
	if e.Mode() != counter.Direct || e.Sample().Frequency != 100_000 {
		t.Fatalf("setup: %s %+v", e.Mode(), e.Sample())
	}

	hw.SetSignal(0, 0)
	s := run(t, e, hw, counter.GraceWindows)
	if s.Stale || s.Frequency != 100_000 {
		t.Errorf("stale too early: %+v", s)
	}
	s = run(t, e, hw, 1)
	if !s.Stale || s.Frequency != 100_000 {
		t.Errorf("after grace: %+v", s)
	}
}
