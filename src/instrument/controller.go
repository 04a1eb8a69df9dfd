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
Package instrument ties the synthesizer and the counter to the buttons, the display and
the settings store.

The instrument is either a generator or a counter, never both, since both need the one
PLL. Switching tears down whichever owns the PLL before the other one sets it up. The
menu is a separate collaborator; while it is open the PLL is released as well.
*/
package instrument

import (
	"freqgen/src/buttons"
	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/errcode"
	"freqgen/src/logger"
	"freqgen/src/settings"
	"freqgen/src/synth"
)

const (
	// TrimHold is how long Left and Right must be held together to enter or leave trim.
	TrimHold = 2000 // ms
	// GateFlash is how long the gate indicator stays on after each measurement.
	GateFlash = 50 // ms
	// UnlockFlash is how long the PLL unlock indicator stays on.
	UnlockFlash = 500 // ms
)

type Display interface {
	Render(View)
	SetBrightness(settings.Brightness)
}

// Menu takes over the buttons when Center is pressed.
type Menu interface {
	Open()
	// HandleButton reports whether the menu is still open after ev.
	HandleButton(ev buttons.Event) bool
}

type Store interface {
	Load() (settings.Settings, settings.Report)
	Save(settings.Settings) error
}

// Keys tells whether a button is down right now.
type Keys interface {
	Held(buttons.Button) bool
}

// Config lists the collaborators. Store and Menu may be nil.
type Config struct {
	Store   Store
	Clock   synth.HardwareClock
	Capture counter.Capture
	Display Display
	Menu    Menu
	Keys    Keys
}

type Controller struct {
	store   Store
	clock   synth.HardwareClock
	engine  *counter.Engine
	display Display
	menu    Menu
	keys    Keys

	cfg      settings.Settings
	report   settings.Report
	active   bool // the current mode owns the PLL
	menuOpen bool

	// generator
	plan        synth.Plan
	input       Input
	cursor      int
	unlockUntil int64

	// counter
	gateUntil int64

	trim trimState
	now  int64
}

func New(c Config) *Controller {
	return &Controller{
		store:   c.Store,
		clock:   c.Clock,
		display: c.Display,
		menu:    c.Menu,
		keys:    c.Keys,
		engine:  counter.NewEngine(c.Capture, 0, counter.Gate1s, counter.Direct100kHz),
		cfg:     settings.Defaults(),
		cursor:  InputFreq.Digits() - 1,
	}
}

// Start loads the settings and brings up the saved mode.
func (c *Controller) Start(now int64) error {
	c.now = now
	if c.store != nil {
		c.cfg, c.report = c.store.Load()
	}
	c.engine.SetTrim(c.cfg.Trim)
	if err := c.engine.SetGate(c.cfg.Gate); err != nil {
		return err
	}
	if err := c.engine.SetThreshold(c.cfg.Direct); err != nil {
		return err
	}
	c.display.SetBrightness(c.cfg.Brightness)
	logger.Info("start in %s mode, power count %d", c.cfg.Mode, c.cfg.PowerCount)
	return c.enable()
}

func (c *Controller) Settings() settings.Settings { return c.cfg }
func (c *Controller) LoadReport() settings.Report { return c.report }
func (c *Controller) Plan() synth.Plan            { return c.plan }
func (c *Controller) Engine() *counter.Engine     { return c.engine }
func (c *Controller) MenuOpen() bool              { return c.menuOpen }

func (c *Controller) View() View {
	return View{
		Mode:         c.cfg.Mode,
		MenuOpen:     c.menuOpen,
		Frequency:    c.cfg.Frequency,
		Duty:         c.cfg.Duty,
		On:           c.cfg.On,
		Input:        c.input,
		Cursor:       c.cursor,
		AchievedFreq: c.plan.AchievedFreq,
		AchievedDuty: c.plan.AchievedDuty,
		PLLUnlocked:  c.unlockUntil != 0,
		Sample:       c.engine.Sample(),
		CounterMode:  c.engine.Mode(),
		Gate:         c.cfg.Gate,
		GateFlash:    c.gateUntil != 0,
		TrimMode:     c.trim.active,
		Trim:         c.cfg.Trim,
		TrimCursor:   c.trim.cursor,
	}
}

func (c *Controller) render() {
	if !c.menuOpen {
		c.display.Render(c.View())
	}
}

// enable hands the PLL to the current mode.
func (c *Controller) enable() error {
	if c.active {
		return nil
	}
	c.active = true
	c.gateUntil, c.unlockUntil = 0, 0
	var err error
	if c.cfg.Mode == settings.Generator {
		err = c.updateOutput()
	} else {
		err = c.engine.Start()
	}
	c.render()
	return err
}

// disable takes the PLL away from the current mode.
func (c *Controller) disable() {
	if !c.active {
		return
	}
	c.active = false
	if c.cfg.Mode == settings.Generator {
		c.plan = synth.Plan{}
		if err := synth.Apply(c.plan, c.clock); err != nil {
			logger.Error("generator teardown: %v", err)
		}
	} else {
		c.engine.Stop()
	}
}

// updateOutput recomputes and programs the generator. It does nothing unless the
// generator owns the PLL.
func (c *Controller) updateOutput() error {
	if !c.active || c.cfg.Mode != settings.Generator {
		return nil
	}
	c.plan = synth.Synthesize(c.cfg.Frequency, c.cfg.Duty, c.cfg.On, clockref.Crystal(c.cfg.Trim))
	logger.Debug("generator: %s", c.plan)
	return synth.Apply(c.plan, c.clock)
}

/*
Tick runs the periodic work of the active mode at time now (ms). In generator mode
that is only the PLL lock indicator since the output is reprogrammed on changes. In
counter mode the measurement engine is polled.
*/
func (c *Controller) Tick(now int64) error {
	c.now = now
	if c.menuOpen || !c.active {
		return nil
	}

	if c.cfg.Mode == settings.Generator {
		changed := false
		if c.plan.On && c.clock.PLLUnlocked() {
			changed = c.unlockUntil == 0
			c.unlockUntil = now + UnlockFlash
		}
		if c.unlockUntil != 0 && now > c.unlockUntil {
			c.unlockUntil = 0
			changed = true
		}
		if changed {
			c.render()
		}
		return nil
	}

	res, err := c.engine.Tick()
	changed := res.Cycle
	if res.Cycle {
		c.gateUntil = now + GateFlash
	}
	if c.gateUntil != 0 && now > c.gateUntil {
		c.gateUntil = 0
		changed = true
	}
	if changed {
		c.render()
	}
	if err != nil {
		return errcode.Wrap(errcode.HardwareFault, "instrument.counter", err)
	}
	return nil
}

// HandleButton dispatches one button event.
func (c *Controller) HandleButton(ev buttons.Event) error {
	if c.menuOpen {
		if c.menu.HandleButton(ev) {
			return nil
		}
		return c.CloseMenu()
	}

	if ev.Kind == buttons.Pressed && ev.Button == buttons.Center {
		c.OpenMenu()
		return nil
	}

	both := c.keys.Held(buttons.Left) && c.keys.Held(buttons.Right)
	if c.trim.hold(ev, both) {
		c.trim.active = !c.trim.active
		logger.Info("trim mode %v", c.trim.active)
		c.render()
		return nil
	}
	if both || (ev.Kind != buttons.Pressed && ev.Kind != buttons.Repeat) {
		return nil
	}

	var err error
	switch {
	case c.trim.active:
		err = c.trimButton(ev.Button)
	case c.cfg.Mode == settings.Generator:
		err = c.generatorButton(ev.Button)
	}
	c.render()
	return err
}
