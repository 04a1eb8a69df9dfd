//go:build atsamd21

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
Package board is the SAMD21 side of the instrument: the DPLL, the generic clock that
drives the output pin, the TCC0 capture counter, the gate timer, the flash settings
block, the buttons and the OLED.

Only TinyGo builds this package. Everything above it talks to the interfaces in synth,
counter, settings and instrument and is tested on the host against src/sim.
*/
package board

import (
	"device/sam"
	"machine"
	"runtime/volatile"
	"time"
	"unsafe"

	"tinygo.org/x/drivers/ssd1306"

	"freqgen/src/buttons"
	"freqgen/src/errcode"
	"freqgen/src/settings"
)

// Pin assignment.
const (
	OutputPin = machine.PA10 // GCLK_IO[4] on function H, TCC0/WO[2] on function F
	InputPin  = machine.PA11 // EXTINT[11] on function A
	PowerPin  = machine.PA27 // holds the regulator on

	inputExtint = 11
)

var keyPins = [buttons.NumButtons]machine.Pin{
	buttons.Up:     machine.PA02,
	buttons.Down:   machine.PA04,
	buttons.Left:   machine.PA05,
	buttons.Right:  machine.PA06,
	buttons.Center: machine.PA07,
}

// peripheral functions for the PMUX register
const (
	pmuxA = 0x0
	pmuxF = 0x5
	pmuxH = 0x7
)

const portBase = 0x41004400

// setPMux routes pin to peripheral function fn.
func setPMux(pin machine.Pin, fn uint8) {
	n := uintptr(pin)
	pmux := (*volatile.Register8)(unsafe.Pointer(uintptr(portBase + 0x30 + n/2)))
	pincfg := (*volatile.Register8)(unsafe.Pointer(uintptr(portBase + 0x40 + n)))
	if n&1 == 0 {
		pmux.Set(pmux.Get()&0xf0 | fn)
	} else {
		pmux.Set(pmux.Get()&0x0f | fn<<4)
	}
	pincfg.SetBits(sam.PORT_PINCFG0_PMUXEN)
}

// clearPMux gives pin back to the PORT.
func clearPMux(pin machine.Pin) {
	pincfg := (*volatile.Register8)(unsafe.Pointer(uintptr(portBase + 0x40 + uintptr(pin))))
	pincfg.ClearBits(sam.PORT_PINCFG0_PMUXEN)
}

// Keys reads the five buttons, which pull their pins low.
type Keys struct{}

var _ buttons.Reader = Keys{}

func (Keys) Pressed(b buttons.Button) bool { return !keyPins[b].Get() }

/*
Board is everything the instrument needs from the hardware.
*/
type Board struct {
	Clock   *Clock
	Capture *Capture
	Keys    Keys
	OLED    *OLED
	Store   *settings.Store
}

func Setup() (*Board, error) {
	PowerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PowerPin.High()
	for _, p := range keyPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	OutputPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	OutputPin.Low()
	InputPin.Configure(machine.PinConfig{Mode: machine.PinInput})

	oled, err := NewOLED(machine.I2C0)
	if err != nil {
		return nil, err
	}

	// the settings live in the last erase block of the data area
	flash := machine.Flash
	offset := flash.Size() - flash.EraseBlockSize()
	if offset < 0 {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "board.flash", Msg: "no flash data area"}
	}

	return &Board{
		Clock:   &Clock{},
		Capture: NewCapture(),
		OLED:    oled,
		Store:   settings.NewStore(flash, offset),
	}, nil
}

// OLED is a 128x64 SSD1306 on I2C with settable contrast.
type OLED struct {
	ssd1306.Device
}

func NewOLED(bus *machine.I2C) (*OLED, error) {
	if err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		return nil, errcode.Wrap(errcode.HardwareFault, "board.i2c", err)
	}
	d := &OLED{ssd1306.NewI2C(bus)}
	d.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C, VccState: ssd1306.SWITCHCAPVCC})
	d.ClearDisplay()
	return d, nil
}

func (d *OLED) SetContrast(level uint8) {
	d.Command(ssd1306.SETCONTRAST)
	d.Command(level)
}

// PowerOff releases the regulator. It returns only if the board stays powered, for
// instance from USB.
func PowerOff() {
	OutputPin.Low()
	PowerPin.Low()
	time.Sleep(500 * time.Millisecond)
}
