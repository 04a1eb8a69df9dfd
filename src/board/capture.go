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

package board

import (
	"device/sam"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/errcode"
	"freqgen/src/support"
)

// tc32 is a TC pair in 32 bit mode.
type tc32 struct {
	CTRLA    volatile.Register16
	READREQ  volatile.Register16
	CTRLBCLR volatile.Register8
	CTRLBSET volatile.Register8
	CTRLC    volatile.Register8
	_        uint8
	DBGCTRL  volatile.Register8
	_        uint8
	EVCTRL   volatile.Register16
	INTENCLR volatile.Register8
	INTENSET volatile.Register8
	INTFLAG  volatile.Register8
	STATUS   volatile.Register8
	COUNT    volatile.Register32
	_        uint32
	CC       [2]volatile.Register32
}

// the gate timer is TC4 with TC5 as its upper half
var gateTimer = (*tc32)(unsafe.Pointer(uintptr(0x42003000)))

const (
	tcCtrlaEnable    = 1 << 1
	tcCtrlaSwrst     = 1 << 0
	tcCtrlaCount32   = 2 << 2
	tcCtrlaMfrq      = 1 << 5
	tcCtrlaDiv2      = 1 << 8
	tcEvctrlMceo1    = 1 << 13
	tcIntflagMC1     = 1 << 5
	tcStatusSyncbusy = 1 << 7
)

// event system user and generator numbers
const (
	evUserTCC0EV0 = 0x04
	evUserTCC0EV1 = 0x05
	evGenExtint0  = 0x0c
	evGenTC4MC1   = 0x35
)

// overflows is bumped by the TCC0 overflow interrupt.
var overflows support.Tally

// Capture counts the input pin with TCC0, gated by TC4 or edge to edge.
type Capture struct {
	irq interrupt.Interrupt
}

var _ counter.Capture = (*Capture)(nil)

func NewCapture() *Capture {
	irq := interrupt.New(sam.IRQ_TCC0, func(interrupt.Interrupt) {
		sam.TCC0.INTFLAG.Set(sam.TCC_INTFLAG_OVF)
		overflows.Add(1)
	})
	return &Capture{irq: irq}
}

/*
Start runs the PLL at the counter reference and wires the input.

In gated mode the input edges count TCC0 up through event channel 0 and the gate
timer's MC1 event, on channel 1, captures and restarts the count. In direct mode the
input itself is on channel 1 and TCC0 captures period and pulse width of every cycle
of the PLL clock.
*/
func (c *Capture) Start(cfg counter.Config) error {
	gated := cfg.Mode == counter.Gated

	startGen(0, false)
	if err := setPLL(clockref.CounterRefDivider, clockref.CounterPLLRatio, 0); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "board.capture", err)
	}

	// event system
	sam.PM.APBCMASK.SetBits(sam.PM_APBCMASK_EVSYS_)
	connect(sam.GCLK_CLKCTRL_ID_EVSYS_0, pllGen)
	connect(sam.GCLK_CLKCTRL_ID_EVSYS_1, pllGen)
	sam.EVSYS.CTRL.Set(sam.EVSYS_CTRL_GCLKREQ)
	if gated {
		route(0, evUserTCC0EV0, evGenExtint0+inputExtint)
		route(1, evUserTCC0EV1, evGenTC4MC1)
	} else {
		route(1, evUserTCC0EV1, evGenExtint0+inputExtint)
	}

	// gate timer
	sam.PM.APBCMASK.SetBits(sam.PM_APBCMASK_TC4_ | sam.PM_APBCMASK_TC5_)
	connect(sam.GCLK_CLKCTRL_ID_TC4_TC5, pllGen)
	gateTimer.CTRLA.Set(tcCtrlaCount32 | tcCtrlaMfrq | tcCtrlaDiv2)
	gateTimer.EVCTRL.Set(tcEvctrlMceo1)
	c.SetGateTicks(cfg.GateTicks)

	// input pin
	sam.PM.APBAMASK.SetBits(sam.PM_APBAMASK_EIC_)
	setPMux(InputPin, pmuxA)
	connect(sam.GCLK_CLKCTRL_ID_EIC, pllGen)
	sense := uint32(sam.EIC_CONFIG_SENSE0_HIGH)
	if gated {
		sense = sam.EIC_CONFIG_SENSE0_FALL
	}
	sam.EIC.CONFIG1.Set(sense << ((inputExtint - 8) * 4))
	sam.EIC.EVCTRL.Set(1 << inputExtint)
	sam.EIC.CTRL.SetBits(sam.EIC_CTRL_ENABLE)

	// counter
	sam.PM.APBCMASK.SetBits(sam.PM_APBCMASK_TCC0_)
	connect(sam.GCLK_CLKCTRL_ID_TCC0_TCC1, pllGen)
	resetTCC0()
	sam.TCC0.CTRLA.Set(sam.TCC_CTRLA_PRESCSYNC_GCLK<<sam.TCC_CTRLA_PRESCSYNC_Pos |
		sam.TCC_CTRLA_CPTEN0 | sam.TCC_CTRLA_CPTEN1)
	ev := uint32(sam.TCC_EVCTRL_EVACT1_PPW<<sam.TCC_EVCTRL_EVACT1_Pos | sam.TCC_EVCTRL_TCEI1)
	if gated {
		ev |= sam.TCC_EVCTRL_EVACT0_COUNT<<sam.TCC_EVCTRL_EVACT0_Pos | sam.TCC_EVCTRL_TCEI0
	}
	sam.TCC0.EVCTRL.Set(ev)
	sam.TCC0.WAVE.Set(sam.TCC_WAVE_WAVEGEN_NFRQ << sam.TCC_WAVE_WAVEGEN_Pos)
	sam.TCC0.COUNT.Set(0)
	sam.TCC0.PER.Set(uint32(counter.Modulus - 1))
	sam.TCC0.CTRLA.SetBits(sam.TCC_CTRLA_ENABLE)

	overflows.Reset()
	sam.TCC0.INTENSET.Set(sam.TCC_INTENSET_OVF)
	c.irq.Enable()
	return nil
}

func route(ch uint32, user uint16, gen uint32) {
	sam.EVSYS.USER.Set(user<<sam.EVSYS_USER_USER_Pos | uint16(ch+1)<<sam.EVSYS_USER_CHANNEL_Pos)
	sam.EVSYS.CHANNEL.Set(ch<<sam.EVSYS_CHANNEL_CHANNEL_Pos |
		sam.EVSYS_CHANNEL_PATH_ASYNCHRONOUS<<sam.EVSYS_CHANNEL_PATH_Pos |
		sam.EVSYS_CHANNEL_EDGSEL_RISING_EDGE<<sam.EVSYS_CHANNEL_EDGSEL_Pos |
		gen<<sam.EVSYS_CHANNEL_EVGEN_Pos)
}

func (c *Capture) Stop() {
	sam.TCC0.INTENCLR.Set(sam.TCC_INTENCLR_OVF)
	connect(sam.GCLK_CLKCTRL_ID_TCC0_TCC1, 0)
	connect(sam.GCLK_CLKCTRL_ID_TC4_TC5, 0)
	connect(sam.GCLK_CLKCTRL_ID_EIC, 0)
	connect(sam.GCLK_CLKCTRL_ID_EVSYS_0, 0)
	connect(sam.GCLK_CLKCTRL_ID_EVSYS_1, 0)

	resetTCC0()
	gateTimer.CTRLA.SetBits(tcCtrlaSwrst)
	for gateTimer.STATUS.HasBits(tcStatusSyncbusy) || gateTimer.CTRLA.HasBits(tcCtrlaSwrst) {
	}
	stopPLL()
	clearPMux(InputPin)
}

// SetGateTicks restarts the gate timer with a new compare value.
func (c *Capture) SetGateTicks(ticks uint32) {
	gateTimer.CTRLA.ClearBits(tcCtrlaEnable)
	gateTimer.COUNT.Set(0)
	gateTimer.CC[0].Set(ticks)
	gateTimer.CTRLA.SetBits(tcCtrlaEnable)
}

func (c *Capture) ReadAndClearOverflow() uint32 { return overflows.Take() }

func (c *Capture) ReadGateCapture() (uint32, bool) {
	if !sam.TCC0.INTFLAG.HasBits(sam.TCC_INTFLAG_MC0) {
		return 0, false
	}
	sam.TCC0.INTFLAG.Set(sam.TCC_INTFLAG_MC0)
	return sam.TCC0.CC[0].Get(), true
}

// ReadReciprocalCaptures returns at most one input period, the hardware holds no more.
func (c *Capture) ReadReciprocalCaptures() (period, duty uint64, edges uint32) {
	if !sam.TCC0.INTFLAG.HasBits(sam.TCC_INTFLAG_MC0) {
		return 0, 0, 0
	}
	sam.TCC0.INTFLAG.Set(sam.TCC_INTFLAG_MC0)
	return uint64(sam.TCC0.CC[0].Get()), uint64(sam.TCC0.CC[1].Get()), 1
}

func (c *Capture) WindowElapsed() bool {
	if !gateTimer.INTFLAG.HasBits(tcIntflagMC1) {
		return false
	}
	gateTimer.INTFLAG.Set(tcIntflagMC1)
	return true
}
