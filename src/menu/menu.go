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
Package menu is the settings menu that takes over the screen when Center is pressed.

The main page lists the settings. Right or Center opens the list of choices for an
entry with the current value selected, Center picks a choice and goes back, Left goes
back without picking. Left on the main page closes the menu. Holding Center for two
seconds after the menu opens saves the settings and powers off.
*/
package menu

import (
	"fmt"

	"freqgen/src/buttons"
	"freqgen/src/counter"
	"freqgen/src/logger"
	"freqgen/src/settings"
)

const (
	// Lines is the number of entries visible at once.
	Lines = 4
	// PowerOffHold is how long Center must stay down after opening to power off.
	PowerOffHold = 2000 // ms
)

// Target is what the menu changes. instrument.Controller implements it.
type Target interface {
	Settings() settings.Settings
	SetMode(settings.Mode) error
	SetGateTime(counter.GateTime) error
	SetDirectThreshold(counter.DirectThreshold) error
	SetBrightness(settings.Brightness) error
	ApplyPresetFrequency(i int) error
	ApplyPresetDuty(i int) error
	Save() error
}

type Screen interface {
	// RenderMenu shows lines with a marker on line cursor. submenu says whether the
	// marked entry opens a list of choices rather than acting directly.
	RenderMenu(lines []string, cursor int, submenu bool)
	RenderInfo(lines []string)
}

type item int

const (
	itemMode item = iota
	itemPresetFreq
	itemPresetDuty
	itemGate
	itemDirect
	itemBrightness
	itemInfo
	itemPowerOff
	numItems
)

var mainList = [numItems]string{
	itemMode:       "Operating Mode",
	itemPresetFreq: "Preset Frequency",
	itemPresetDuty: "Preset Duty Cycle",
	itemGate:       "Gate Time",
	itemDirect:     "Direct Frequency",
	itemBrightness: "Display Brightness",
	itemInfo:       "System Information",
	itemPowerOff:   "Power Off",
}

var choices = [numItems][]string{
	itemMode:       {"Generator", "Counter / Meter"},
	itemPresetFreq: {"  1 Hz", " 10 Hz", "100 Hz", "  1 kHz", " 10 kHz", "100 kHz", "  1 MHz", " 10 MHz", "100 MHz"},
	itemPresetDuty: {"10 %", "20 %", "30 %", "40 %", "50 %", "60 %", "70 %", "80 %", "90 %"},
	itemGate:       {"0.1 second", "1 second", "5 seconds", "10 seconds"},
	itemDirect:     {"Always Gated", "1 kHz", "10 kHz", "100 kHz", "1 MHz"},
	itemBrightness: {"Low", "Medium", "High"},
}

// window is a scrolling view of a list.
type window struct {
	size, cursor, offset int
}

func (w *window) lines() int { return min(w.size, Lines) }
func (w *window) index() int { return w.offset + w.cursor }

// up and down wrap from one end of the list to the other.
func (w *window) up() {
	if w.cursor == 0 {
		w.offset--
	} else {
		w.cursor--
	}
	if w.offset == -1 {
		w.cursor = w.lines() - 1
		w.offset = w.size - w.lines()
	}
}

func (w *window) down() {
	if w.cursor == w.lines()-1 {
		w.offset++
	} else {
		w.cursor++
	}
	if w.offset == w.size-(w.lines()-1) {
		w.cursor, w.offset = 0, 0
	}
}

// show puts index on screen, on the second line when possible so the previous entry is visible.
func (w *window) show(index int) {
	w.cursor = 0
	if index > 0 {
		w.cursor = 1
	}
	w.offset = index - w.cursor
	if over := w.offset - (w.size - w.lines()); over > 0 {
		w.cursor += over
		w.offset -= over
	}
}

type Menu struct {
	target   Target
	screen   Screen
	version  string
	powerOff func()

	main       window
	sub        window
	inSub      bool
	showInfo   bool
	now        int64
	powerOffAt int64
}

func New(screen Screen, version string) *Menu {
	return &Menu{
		screen:  screen,
		version: version,
		main:    window{size: int(numItems)},
	}
}

// Bind sets what the menu operates on. powerOff may be nil.
func (m *Menu) Bind(t Target, powerOff func()) {
	m.target = t
	m.powerOff = powerOff
}

// Open starts on the first entry of the main page.
func (m *Menu) Open() {
	m.main = window{size: int(numItems)}
	m.inSub = false
	m.showInfo = false
	m.powerOffAt = m.now + PowerOffHold
	m.redraw()
}

// Tick keeps the time and powers off once Center has been held long enough.
func (m *Menu) Tick(now int64) {
	m.now = now
	if m.powerOffAt != 0 && now > m.powerOffAt {
		m.powerOffAt = 0
		m.shutdown()
	}
}

// HandleButton reports whether the menu is still open after ev.
func (m *Menu) HandleButton(ev buttons.Event) bool {
	if ev.Kind == buttons.Released && ev.Button == buttons.Center {
		m.powerOffAt = 0
	}

	if m.showInfo {
		if ev.Kind == buttons.Pressed {
			m.showInfo = false
			m.redraw()
		}
		return true
	}

	w := &m.main
	if m.inSub {
		w = &m.sub
	}
	if ev.Kind == buttons.Pressed || ev.Kind == buttons.Repeat {
		switch ev.Button {
		case buttons.Up:
			w.up()
		case buttons.Down:
			w.down()
		}
	}

	if ev.Kind == buttons.Pressed {
		switch ev.Button {
		case buttons.Right:
			if !m.inSub {
				m.enter(item(m.main.index()))
			}
		case buttons.Left:
			if !m.inSub {
				return false
			}
			m.inSub = false
		case buttons.Center:
			if m.inSub {
				m.pick(item(m.main.index()), m.sub.index())
				m.inSub = false
			} else if !m.enter(item(m.main.index())) {
				m.act(item(m.main.index()))
			}
		}
	}

	if !m.showInfo {
		m.redraw()
	}
	return true
}

// enter opens the choices for it, if it has any.
func (m *Menu) enter(it item) bool {
	list := choices[it]
	if list == nil {
		return false
	}
	m.sub = window{size: len(list)}
	m.sub.show(m.current(it))
	m.inSub = true
	return true
}

// current is the choice index matching the present settings.
func (m *Menu) current(it item) int {
	s := m.target.Settings()
	switch it {
	case itemMode:
		return int(s.Mode)
	case itemGate:
		return int(s.Gate)
	case itemDirect:
		return int(s.Direct)
	case itemBrightness:
		return int(s.Brightness)
	}
	return 0
}

func (m *Menu) pick(it item, i int) {
	var err error
	switch it {
	case itemMode:
		err = m.target.SetMode(settings.Mode(i))
	case itemPresetFreq:
		err = m.target.ApplyPresetFrequency(i)
	case itemPresetDuty:
		err = m.target.ApplyPresetDuty(i)
	case itemGate:
		err = m.target.SetGateTime(counter.GateTime(i))
	case itemDirect:
		err = m.target.SetDirectThreshold(counter.DirectThreshold(i))
	case itemBrightness:
		err = m.target.SetBrightness(settings.Brightness(i))
	}
	if err != nil {
		logger.Error("menu: %s: %v", mainList[it], err)
	}
}

func (m *Menu) act(it item) {
	switch it {
	case itemInfo:
		m.showInfo = true
		m.screen.RenderInfo([]string{
			"Version: " + m.version,
			fmt.Sprintf("Reboots: %d", m.target.Settings().PowerCount),
		})
	case itemPowerOff:
		m.shutdown()
	}
}

func (m *Menu) shutdown() {
	if err := m.target.Save(); err != nil {
		logger.Error("menu: power off: %v", err)
	}
	m.showInfo = true
	m.screen.RenderInfo([]string{"", "Good Bye!"})
	if m.powerOff != nil {
		m.powerOff()
	}
}

func (m *Menu) redraw() {
	w, list := m.main, mainList[:]
	if m.inSub {
		w, list = m.sub, choices[m.main.index()]
	}
	sub := !m.inSub && choices[w.index()] != nil
	m.screen.RenderMenu(list[w.offset:w.offset+w.lines()], w.cursor, sub)
}
