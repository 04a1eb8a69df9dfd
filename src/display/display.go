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
Package display draws the instrument screens on a small monochrome display.

The screen is four text rows of 16 pixels. The frequency sits on the top row next to
the mode letter, the duty cycle is at the right of row 2 and row 3 shows either what
the generator actually produces or the crystal trim. The digit under the edit cursor
is drawn inverted.
*/
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"freqgen/src/counter"
	"freqgen/src/instrument"
	"freqgen/src/logger"
	"freqgen/src/settings"
	"freqgen/src/support"
)

const (
	RowHeight = 16
	baseline  = 12

	// columns, in pixels
	freqX = 16
	dutyX = 92
	trimX = 36
)

var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.RGBA{A: 255}
)

// Contraster is implemented by displays whose brightness can be set.
type Contraster interface {
	SetContrast(level uint8)
}

// clearer is implemented by displays that can blank their buffer faster than pixel by pixel.
type clearer interface {
	ClearBuffer()
}

// Contrast maps a brightness setting to the panel contrast register.
func Contrast(b settings.Brightness) uint8 {
	switch b {
	case settings.BrightnessLow:
		return 0
	case settings.BrightnessHigh:
		return 255
	}
	return 128
}

type Renderer struct {
	dev  drivers.Displayer
	font tinyfont.Fonter
}

var _ instrument.Display = (*Renderer)(nil)

func New(dev drivers.Displayer) *Renderer {
	return &Renderer{dev: dev, font: &proggy.TinySZ8pt7b}
}

func (r *Renderer) SetBrightness(b settings.Brightness) {
	if c, ok := r.dev.(Contraster); ok {
		c.SetContrast(Contrast(b))
	}
}

// Render redraws the whole screen from v.
func (r *Renderer) Render(v instrument.View) {
	r.clear()

	if v.Mode == settings.Generator {
		r.generator(v)
	} else {
		r.counter(v)
	}
	if v.TrimMode {
		r.clearRow(3)
		r.text(3, 0, "TRIM:")
		s, pos := support.FormatDigits(int64(v.Trim), support.TrimDigits, support.TrimDecimal, true, v.TrimCursor)
		r.number(3, trimX, s, pos, v.TrimCursor)
	}

	if err := r.dev.Display(); err != nil {
		logger.Error("display: %v", err)
	}
}

// menu columns
const (
	menuTextX   = 9
	menuMarkerX = 122
)

// RenderMenu draws a page of menu entries with a pointer on the selected one. The mark
// at the right edge says whether the entry opens a list or acts directly.
func (r *Renderer) RenderMenu(lines []string, cursor int, submenu bool) {
	r.clear()
	for i, l := range lines {
		r.text(i, menuTextX, l)
	}
	if cursor >= 0 && cursor < len(lines) {
		r.text(cursor, 0, ">")
		mark := "*"
		if submenu {
			mark = "+"
		}
		r.text(cursor, menuMarkerX, mark)
	}
	if err := r.dev.Display(); err != nil {
		logger.Error("display: %v", err)
	}
}

// RenderInfo draws plain text lines.
func (r *Renderer) RenderInfo(lines []string) {
	r.clear()
	for i, l := range lines {
		r.text(i, 0, l)
	}
	if err := r.dev.Display(); err != nil {
		logger.Error("display: %v", err)
	}
}

func (r *Renderer) generator(v instrument.View) {
	r.text(0, 0, "F")
	if v.PLLUnlocked {
		r.text(0, 8, "U")
	}

	cursor := -1
	if v.Input == instrument.InputFreq {
		cursor = v.Cursor
	}
	s, pos := support.FormatDigits(v.Frequency, support.FreqDigits, support.FreqDecimal, false, cursor)
	r.number(0, freqX, s, pos, cursor)

	onOff := "OFF"
	if v.On {
		onOff = " ON"
	}
	if v.Input == instrument.InputOnOff {
		r.inverted(2, 0, onOff)
	} else {
		r.text(2, 0, onOff)
	}

	cursor = -1
	if v.Input == instrument.InputDuty {
		cursor = v.Cursor
	}
	s, pos = support.FormatDigits(int64(v.Duty), support.DutyDigits, support.DutyDecimal, false, cursor)
	r.number(2, dutyX, s, pos, cursor)

	// what actually comes out, zero when off
	r.text(3, 0, support.FormatFreq(v.AchievedFreq))
	r.text(3, dutyX, support.FormatDuty(v.AchievedDuty))
}

func (r *Renderer) counter(v instrument.View) {
	r.text(0, 0, "C")
	if v.GateFlash {
		r.text(1, 8, "*")
	}
	r.text(0, freqX, support.FormatFreq(v.Sample.Frequency))

	method := "G " + v.Gate.String()
	if v.CounterMode == counter.Direct {
		method = "D"
	}
	if v.Sample.Stale {
		method += " ?"
	}
	r.text(2, 0, method)

	duty := int32(0)
	if v.Sample.DutyValid {
		duty = v.Sample.Duty
	}
	r.text(2, dutyX, support.FormatDuty(duty))
}

func (r *Renderer) width(s string) int16 {
	_, w := tinyfont.LineWidth(r.font, s)
	return int16(w)
}

func (r *Renderer) text(row int, x int16, s string) {
	tinyfont.WriteLine(r.dev, r.font, x, int16(row*RowHeight+baseline), s, White)
}

func (r *Renderer) inverted(row int, x int16, s string) {
	r.fill(x, int16(row*RowHeight), r.width(s), RowHeight, White)
	tinyfont.WriteLine(r.dev, r.font, x, int16(row*RowHeight+baseline), s, Black)
}

// number draws s and inverts the digit at pos[cursor]. A negative cursor means none.
func (r *Renderer) number(row int, x int16, s string, pos []int, cursor int) {
	r.text(row, x, s)
	if cursor < 0 || cursor >= len(pos) {
		return
	}
	p := pos[cursor]
	r.inverted(row, x+r.width(s[:p]), s[p:p+1])
}

func (r *Renderer) fill(x, y, w, h int16, c color.RGBA) {
	for j := y; j < y+h; j++ {
		for i := x; i < x+w; i++ {
			r.dev.SetPixel(i, j, c)
		}
	}
}

func (r *Renderer) clearRow(row int) {
	w, _ := r.dev.Size()
	r.fill(0, int16(row*RowHeight), w, RowHeight, Black)
}

func (r *Renderer) clear() {
	if c, ok := r.dev.(clearer); ok {
		c.ClearBuffer()
		return
	}
	w, h := r.dev.Size()
	r.fill(0, 0, w, h, Black)
}
