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

package instrument

import (
	"testing"

	"freqgen/src/buttons"
	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/errcode"
	"freqgen/src/logger"
	"freqgen/src/settings"
	"freqgen/src/sim"
	"freqgen/src/synth"
)

func init() {
	logger.Quiet = true
}

type fakeDisplay struct {
	views      []View
	brightness settings.Brightness
}

func (d *fakeDisplay) Render(v View)                       { d.views = append(d.views, v) }
func (d *fakeDisplay) SetBrightness(b settings.Brightness) { d.brightness = b }

type fakeKeys map[buttons.Button]bool

func (k fakeKeys) Held(b buttons.Button) bool { return k[b] }

// fakeMenu closes on Left.
type fakeMenu struct {
	opened int
	events []buttons.Event
}

func (m *fakeMenu) Open() { m.opened++ }

func (m *fakeMenu) HandleButton(ev buttons.Event) bool {
	m.events = append(m.events, ev)
	return !(ev.Kind == buttons.Pressed && ev.Button == buttons.Left)
}

type rig struct {
	c       *Controller
	clock   *sim.Clock
	capture *sim.Capture
	disp    *fakeDisplay
	keys    fakeKeys
	menu    *fakeMenu
	dev     *settings.MemDevice
}

// newRig boots a controller from saved, or from an erased flash if saved is nil.
func newRig(t *testing.T, saved *settings.Settings) *rig {
	t.Helper()
	r := &rig{
		clock:   sim.NewClock(clockref.Crystal(0)),
		capture: sim.NewCapture(0),
		disp:    &fakeDisplay{},
		keys:    fakeKeys{},
		menu:    &fakeMenu{},
		dev:     settings.NewMemDevice(4096, 1024),
	}
	store := settings.NewStore(r.dev, 0)
	if saved != nil {
		if err := store.Save(*saved); err != nil {
			t.Fatal(err)
		}
	}
	r.c = New(Config{
		Store:   store,
		Clock:   r.clock,
		Capture: r.capture,
		Display: r.disp,
		Menu:    r.menu,
		Keys:    r.keys,
	})
	if err := r.c.Start(0); err != nil {
		t.Fatal(err)
	}
	return r
}

func (r *rig) press(t *testing.T, bs ...buttons.Button) {
	t.Helper()
	for _, b := range bs {
		if err := r.c.HandleButton(buttons.Event{Button: b, Kind: buttons.Pressed}); err != nil {
			t.Fatalf("%s: %v", b, err)
		}
	}
}

// toggleTrim holds Left and Right long enough to flip trim mode.
func (r *rig) toggleTrim(t *testing.T) {
	t.Helper()
	r.keys[buttons.Left], r.keys[buttons.Right] = true, true
	if err := r.c.HandleButton(buttons.Event{Button: buttons.Right, Kind: buttons.Repeat, Interval: TrimHold}); err != nil {
		t.Fatal(err)
	}
	delete(r.keys, buttons.Left)
	delete(r.keys, buttons.Right)
}

func (r *rig) last() View { return r.disp.views[len(r.disp.views)-1] }

func generatorOn() *settings.Settings {
	s := settings.Defaults()
	s.On = true
	return &s
}

func Test_startDefaults(t *testing.T) {
	r := newRig(t, nil)
	cfg := r.c.Settings()
	if cfg.Mode != settings.Generator || cfg.Frequency != 1_000_000 || cfg.On {
		t.Errorf("not the defaults: %+v", cfg)
	}
	if cfg.PowerCount != 1 {
		t.Errorf("power count %d", cfg.PowerCount)
	}
	if r.c.LoadReport().Clean() {
		t.Errorf("erased flash loaded clean")
	}
	if r.disp.brightness != settings.BrightnessMedium {
		t.Errorf("brightness %s", r.disp.brightness)
	}
	if r.clock.Enabled || r.capture.Running() {
		t.Errorf("output is off but hardware is running")
	}
	if v := r.last(); v.Input != InputFreq || v.Cursor != 11 {
		t.Errorf("cursor at %s/%d", v.Input, v.Cursor)
	}
}

func Test_startSaved(t *testing.T) {
	s := settings.Defaults()
	s.Mode = settings.Counter
	s.Gate = counter.Gate100ms
	s.Brightness = settings.BrightnessHigh
	s.PowerCount = 41
	r := newRig(t, &s)

	if !r.c.LoadReport().Clean() {
		t.Errorf("report: %s", r.c.LoadReport())
	}
	if r.c.PowerCount() != 42 {
		t.Errorf("power count %d", r.c.PowerCount())
	}
	if !r.capture.Running() || r.clock.Enabled {
		t.Errorf("counter not started")
	}
	if got := r.capture.Config().GateTicks; got != counter.Gate100ms.Ticks(0) {
		t.Errorf("gate ticks %d", got)
	}
	if r.disp.brightness != settings.BrightnessHigh {
		t.Errorf("brightness %s", r.disp.brightness)
	}
}

func Test_generatorEditing(t *testing.T) {
	r := newRig(t, nil)
	b := buttons.Right

	// walk down to the kHz digit and bump it
	r.press(t, b, b, b, b, b, buttons.Up)
	if got := r.c.Settings().Frequency; got != 2_000_000 {
		t.Fatalf("frequency %d", got)
	}
	if r.clock.Enabled {
		t.Errorf("output off but PLL programmed")
	}

	// past the units digit onto the switch
	r.press(t, b, b, b, b, b, b, b)
	if v := r.last(); v.Input != InputOnOff || v.Cursor != 0 {
		t.Fatalf("cursor at %s/%d", v.Input, v.Cursor)
	}
	r.press(t, buttons.Up)
	if want := synth.Synthesize(2_000_000, 5000, true, clockref.Crystal(0)); r.c.Plan() != want {
		t.Errorf("plan %s, want %s", r.c.Plan(), want)
	}
	if f, _ := r.clock.Output(); !r.clock.Enabled || f != r.c.Plan().AchievedFreq {
		t.Errorf("pin shows %d", f)
	}

	// duty: the tens digit cannot go below zero, the units digit can
	r.press(t, b, buttons.Down)
	if got := r.c.Settings().Duty; got != 5000 {
		t.Errorf("refused step changed duty to %d", got)
	}
	r.press(t, b, buttons.Down)
	if got := r.c.Settings().Duty; got != 4000 {
		t.Errorf("duty %d", got)
	}
	if r.c.Plan().AchievedDuty != synth.Synthesize(2_000_000, 4000, true, clockref.Crystal(0)).AchievedDuty {
		t.Errorf("output not updated")
	}

	// wrap around in both directions
	r.press(t, b, b, b, b)
	if v := r.last(); v.Input != InputFreq || v.Cursor != 11 {
		t.Errorf("right wrap to %s/%d", v.Input, v.Cursor)
	}
	r.press(t, buttons.Left)
	if v := r.last(); v.Input != InputDuty || v.Cursor != 0 {
		t.Errorf("left wrap to %s/%d", v.Input, v.Cursor)
	}
	l := buttons.Left
	r.press(t, l, l, l, l, l, l)
	if v := r.last(); v.Input != InputFreq || v.Cursor != 0 {
		t.Errorf("left walk to %s/%d", v.Input, v.Cursor)
	}

	// releases do nothing, repeats step
	r.c.HandleButton(buttons.Event{Button: buttons.Up, Kind: buttons.Released})
	r.c.HandleButton(buttons.Event{Button: buttons.Up, Kind: buttons.Repeat, Interval: 50})
	if got := r.c.Settings().Frequency; got != 2_000_001 {
		t.Errorf("frequency %d after repeat", got)
	}
}

func Test_frequencyLimits(t *testing.T) {
	r := newRig(t, generatorOn())
	if err := r.c.ApplyPresetFrequency(8); err != nil {
		t.Fatal(err)
	}
	r.press(t, buttons.Up)
	r.press(t, buttons.Down)
	if got := r.c.Settings().Frequency; got != 100_000_000_000 {
		t.Errorf("out of range step accepted: %d", got)
	}
	r.press(t, buttons.Right, buttons.Down)
	if got := r.c.Settings().Frequency; got != 90_000_000_000 {
		t.Errorf("frequency %d", got)
	}
	if r.clock.PLLUnlocked() {
		t.Errorf("PLL unlocked at %d", r.clock.PLLFreq())
	}
}

func Test_modeSwitch(t *testing.T) {
	r := newRig(t, generatorOn())
	if !r.clock.Enabled {
		t.Fatalf("generator not running")
	}
	if err := r.c.SetMode(settings.Counter); err != nil {
		t.Fatal(err)
	}
	if r.clock.Enabled || !r.capture.Running() || r.c.Plan().On {
		t.Errorf("generator still owns the PLL")
	}
	if r.last().Mode != settings.Counter {
		t.Errorf("display not updated")
	}
	if err := r.c.SetMode(settings.Generator); err != nil {
		t.Fatal(err)
	}
	if !r.clock.Enabled || r.capture.Running() {
		t.Errorf("counter still owns the PLL")
	}
	if err := r.c.SetMode(settings.Mode(7)); errcode.Of(err) != errcode.InvalidParams {
		t.Errorf("bad mode gave %v", err)
	}
}

func Test_menu(t *testing.T) {
	r := newRig(t, generatorOn())
	r.press(t, buttons.Center)
	if !r.c.MenuOpen() || r.menu.opened != 1 || r.clock.Enabled {
		t.Fatalf("menu did not take over")
	}
	renders := len(r.disp.views)

	r.press(t, buttons.Up)
	if len(r.menu.events) != 1 || r.c.Settings().Frequency != 1_000_000 {
		t.Errorf("button not given to the menu")
	}
	if err := r.c.SetGateTime(counter.Gate5s); err != nil {
		t.Fatal(err)
	}
	if err := r.c.SetMode(settings.Counter); err != nil {
		t.Fatal(err)
	}
	if err := r.c.Tick(100); err != nil {
		t.Fatal(err)
	}
	if r.capture.Running() || r.clock.Enabled || len(r.disp.views) != renders {
		t.Errorf("hardware or display touched with the menu open")
	}

	r.press(t, buttons.Left)
	if r.c.MenuOpen() {
		t.Fatalf("menu still open")
	}
	if !r.capture.Running() || r.clock.Enabled {
		t.Errorf("counter not resumed")
	}
	if got := r.capture.Config().GateTicks; got != counter.Gate5s.Ticks(0) {
		t.Errorf("gate ticks %d", got)
	}
}

func Test_presets(t *testing.T) {
	tests := []struct {
		i    int
		freq int64
		duty int32
	}{
		{0, 1_000, 1000},
		{3, 1_000_000, 4000},
		{8, 100_000_000_000, 9000},
	}
	for _, tt := range tests {
		if got := PresetFrequency(tt.i); got != tt.freq {
			t.Errorf("PresetFrequency(%d) = %d", tt.i, got)
		}
		if got := PresetDuty(tt.i); got != tt.duty {
			t.Errorf("PresetDuty(%d) = %d", tt.i, got)
		}
	}

	r := newRig(t, generatorOn())
	if err := r.c.ApplyPresetDuty(2); err != nil || r.c.Plan().AchievedDuty != 3000 {
		t.Errorf("duty preset: %v %s", err, r.c.Plan())
	}
	if errcode.Of(r.c.ApplyPresetFrequency(NumPresets)) != errcode.InvalidParams {
		t.Errorf("preset %d accepted", NumPresets)
	}
	if errcode.Of(r.c.ApplyPresetDuty(-1)) != errcode.InvalidParams {
		t.Errorf("preset -1 accepted")
	}
	if errcode.Of(r.c.SetBrightness(settings.Brightness(9))) != errcode.InvalidParams {
		t.Errorf("brightness 9 accepted")
	}
}

func Test_trimHold(t *testing.T) {
	r := newRig(t, generatorOn())
	r.keys[buttons.Left], r.keys[buttons.Right] = true, true

	r.c.HandleButton(buttons.Event{Button: buttons.Left, Kind: buttons.Pressed})
	r.c.HandleButton(buttons.Event{Button: buttons.Right, Kind: buttons.Pressed})
	r.c.HandleButton(buttons.Event{Button: buttons.Right, Kind: buttons.Repeat, Interval: 201})
	for i := 0; i < 35; i++ {
		r.c.HandleButton(buttons.Event{Button: buttons.Right, Kind: buttons.Repeat, Interval: 50})
		r.c.HandleButton(buttons.Event{Button: buttons.Left, Kind: buttons.Repeat, Interval: 50})
	}
	if r.last().TrimMode {
		t.Fatalf("trim after %dms", 201+35*50)
	}
	if v := r.last(); v.Input != InputFreq || v.Cursor != 11 {
		t.Errorf("both keys moved the cursor to %s/%d", v.Input, v.Cursor)
	}
	r.c.HandleButton(buttons.Event{Button: buttons.Right, Kind: buttons.Repeat, Interval: 50})
	if !r.last().TrimMode {
		t.Fatalf("no trim after %dms", 201+36*50)
	}
	delete(r.keys, buttons.Left)
	delete(r.keys, buttons.Right)

	r.press(t, buttons.Up)
	r.press(t, buttons.Left, buttons.Left, buttons.Left, buttons.Up)
	r.press(t, buttons.Right, buttons.Down)
	if got := r.c.Settings().Trim; got != 901 {
		t.Errorf("trim %d", got)
	}
	if want := synth.Synthesize(1_000_000, 5000, true, clockref.Crystal(901)); r.c.Plan() != want {
		t.Errorf("plan %s ignores trim, want %s", r.c.Plan(), want)
	}
	l := buttons.Left
	r.press(t, l, l, l, l, l, l, l, l, l, l)
	if v := r.last(); v.TrimCursor != clockref.TrimDigits-1 || v.Input != InputFreq || v.Cursor != 11 {
		t.Errorf("trim cursor %d, generator cursor %s/%d", v.TrimCursor, v.Input, v.Cursor)
	}

	r.toggleTrim(t)
	if r.last().TrimMode {
		t.Fatalf("trim mode stuck")
	}
	if err := r.c.Save(); err != nil {
		t.Fatal(err)
	}
	s, _ := settings.NewStore(r.dev, 0).Load()
	if s.Trim != 901 {
		t.Errorf("saved trim %d", s.Trim)
	}
}

func Test_trimHoldReset(t *testing.T) {
	var tr trimState
	rep := buttons.Event{Button: buttons.Right, Kind: buttons.Repeat, Interval: 1500}
	if tr.hold(rep, true) {
		t.Fatalf("toggled early")
	}
	// letting go of Left starts the count again
	tr.hold(rep, false)
	if tr.hold(rep, true) {
		t.Errorf("hold time survived a release")
	}
	if !tr.hold(rep, true) {
		t.Errorf("no toggle at 3000ms")
	}
	if tr.held != 0 {
		t.Errorf("hold time not cleared")
	}
	left := buttons.Event{Button: buttons.Left, Kind: buttons.Repeat, Interval: 5000}
	if tr.hold(left, true) {
		t.Errorf("left repeats count")
	}
}

func Test_trimClamp(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.SetTrim(clockref.TrimMax); err != nil {
		t.Fatal(err)
	}
	r.toggleTrim(t)
	r.press(t, buttons.Up)
	if got := r.c.Settings().Trim; got != clockref.TrimMax {
		t.Errorf("trim %d", got)
	}
	if errcode.Of(r.c.SetTrim(clockref.TrimMax+1)) != errcode.InvalidParams {
		t.Errorf("out of range trim accepted")
	}
}

func Test_counter(t *testing.T) {
	s := settings.Defaults()
	s.Mode = settings.Counter
	r := newRig(t, &s)
	r.capture.SetSignal(1_000_000_000, 5000)

	r.capture.Step()
	if err := r.c.Tick(1000); err != nil {
		t.Fatal(err)
	}
	v := r.last()
	if !v.GateFlash || v.Sample.Frequency != 1_000_000_000 || v.CounterMode != counter.Gated {
		t.Errorf("after one gate: %+v", v)
	}
	if err := r.c.Tick(1060); err != nil {
		t.Fatal(err)
	}
	if r.last().GateFlash {
		t.Errorf("gate indicator stuck on")
	}
	if r.c.Engine().Cycles() != 1 {
		t.Errorf("cycles %d", r.c.Engine().Cycles())
	}

	// trim works in counter mode and re-arms the gate
	r.toggleTrim(t)
	l := buttons.Left
	r.press(t, l, l, l, l, l, l, l, buttons.Up)
	if got := r.capture.Config().GateTicks; got != counter.Gate1s.Ticks(10_000_000) {
		t.Errorf("gate ticks %d", got)
	}
	if err := r.c.SetDirectThreshold(counter.DirectThreshold(99)); errcode.Of(err) != errcode.InvalidParams {
		t.Errorf("bad threshold gave %v", err)
	}
}

func Test_unlockIndicator(t *testing.T) {
	r := newRig(t, generatorOn())
	r.c.Tick(10)
	if r.last().PLLUnlocked {
		t.Fatalf("locked PLL shown unlocked")
	}

	r.clock.Crystal = 1_000_000_000
	r.c.Tick(100)
	r.clock.Crystal = clockref.Crystal(0)
	r.c.Tick(500)
	if !r.last().PLLUnlocked {
		t.Errorf("unlock not shown")
	}
	r.c.Tick(601)
	if r.last().PLLUnlocked {
		t.Errorf("unlock shown for too long")
	}
}

func Test_saveWithoutStore(t *testing.T) {
	c := New(Config{
		Clock:   sim.NewClock(clockref.Crystal(0)),
		Capture: sim.NewCapture(0),
		Display: &fakeDisplay{},
		Keys:    fakeKeys{},
	})
	if err := c.Start(0); err != nil {
		t.Fatal(err)
	}
	if errcode.Of(c.Save()) != errcode.Unsupported {
		t.Errorf("save without a store")
	}
	// no menu: Center does nothing
	c.HandleButton(buttons.Event{Button: buttons.Center, Kind: buttons.Pressed})
	if c.MenuOpen() {
		t.Errorf("menu opened without a menu")
	}
}

// deadCapture is capture hardware that will not start.
type deadCapture struct {
	*sim.Capture
}

func (deadCapture) Start(counter.Config) error {
	return &errcode.E{C: errcode.Timeout, Op: "capture.start", Msg: "pll did not lock"}
}

func Test_startFailure(t *testing.T) {
	s := settings.Defaults()
	s.Mode = settings.Counter
	store := settings.NewStore(settings.NewMemDevice(4096, 1024), 0)
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}
	c := New(Config{
		Store:   store,
		Clock:   sim.NewClock(clockref.Crystal(0)),
		Capture: deadCapture{sim.NewCapture(0)},
		Display: &fakeDisplay{},
		Keys:    fakeKeys{},
	})
	err := c.Start(0)
	if errcode.Of(err) != errcode.HardwareFault {
		t.Errorf("Start() = %v, want a hardware fault", err)
	}
}
