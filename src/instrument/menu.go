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
	"fmt"

	"freqgen/src/counter"
	"freqgen/src/errcode"
	"freqgen/src/logger"
	"freqgen/src/settings"
	"freqgen/src/support"
)

// NumPresets is the number of entries in the frequency and duty preset lists.
const NumPresets = 9

func invalid(op, format string, args ...interface{}) error {
	return &errcode.E{C: errcode.InvalidParams, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// OpenMenu releases the PLL and passes the buttons to the menu until it closes.
func (c *Controller) OpenMenu() {
	if c.menu == nil || c.menuOpen {
		return
	}
	c.disable()
	c.menuOpen = true
	c.menu.Open()
}

// CloseMenu brings the current mode back up with whatever the menu changed.
func (c *Controller) CloseMenu() error {
	if !c.menuOpen {
		return nil
	}
	c.menuOpen = false
	return c.enable()
}

// SetMode switches between generator and counter. The old mode lets go of the PLL
// before the new one programs it.
func (c *Controller) SetMode(m settings.Mode) error {
	if !m.Valid() {
		return invalid("instrument.mode", "unknown mode %d", m)
	}
	if m == c.cfg.Mode {
		return nil
	}
	logger.Info("mode %s -> %s", c.cfg.Mode, m)
	if !c.active {
		c.cfg.Mode = m
		return nil
	}
	c.disable()
	c.cfg.Mode = m
	return c.enable()
}

func (c *Controller) SetGateTime(g counter.GateTime) error {
	if !g.Valid() {
		return invalid("instrument.gate", "unknown gate time %d", g)
	}
	c.cfg.Gate = g
	return c.engine.SetGate(g)
}

func (c *Controller) SetDirectThreshold(th counter.DirectThreshold) error {
	if !th.Valid() {
		return invalid("instrument.direct", "unknown threshold %d", th)
	}
	c.cfg.Direct = th
	return c.engine.SetThreshold(th)
}

func (c *Controller) SetBrightness(b settings.Brightness) error {
	if !b.Valid() {
		return invalid("instrument.brightness", "unknown brightness %d", b)
	}
	c.cfg.Brightness = b
	c.display.SetBrightness(b)
	return nil
}

// PresetFrequency returns preset i, 1Hz to 100MHz in decades.
func PresetFrequency(i int) int64 { return support.Ipow(int64(10), i) * 1000 }

// PresetDuty returns preset i, 10% to 90% in steps of 10%.
func PresetDuty(i int) int32 { return int32(i+1) * 1000 }

func (c *Controller) ApplyPresetFrequency(i int) error {
	if i < 0 || i >= NumPresets {
		return invalid("instrument.preset", "no frequency preset %d", i)
	}
	c.cfg.Frequency = PresetFrequency(i)
	return c.updateOutput()
}

func (c *Controller) ApplyPresetDuty(i int) error {
	if i < 0 || i >= NumPresets {
		return invalid("instrument.preset", "no duty preset %d", i)
	}
	c.cfg.Duty = PresetDuty(i)
	return c.updateOutput()
}

// PowerCount is the number of boots recorded in the settings.
func (c *Controller) PowerCount() uint32 { return c.cfg.PowerCount }

// Save writes the current settings. This is what the menu does on power off.
func (c *Controller) Save() error {
	if c.store == nil {
		return &errcode.E{C: errcode.Unsupported, Op: "instrument.save", Msg: "no settings store"}
	}
	if err := c.store.Save(c.cfg); err != nil {
		logger.Error("save settings: %v", err)
		return err
	}
	logger.Info("settings saved")
	return nil
}
