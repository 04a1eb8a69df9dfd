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

	"freqgen/src/errcode"
)

// The generator and the counter both run generic clock 4 from the DPLL.
const (
	pllGen    = 4
	lockSpins = 1_000_000
)

// setPLL programs the DPLL for xosc/refDiv * (ldr + frac/16) and waits for lock.
func setPLL(refDiv int, ldr, frac int64) error {
	sam.SYSCTRL.DPLLCTRLA.Set(0)
	sam.SYSCTRL.DPLLCTRLB.Set(sam.SYSCTRL_DPLLCTRLB_REFCLK_REF1<<sam.SYSCTRL_DPLLCTRLB_REFCLK_Pos |
		sam.SYSCTRL_DPLLCTRLB_LBYPASS |
		uint32(refDiv/2-1)<<sam.SYSCTRL_DPLLCTRLB_DIV_Pos)
	sam.SYSCTRL.DPLLRATIO.Set(uint32(ldr-1)<<sam.SYSCTRL_DPLLRATIO_LDR_Pos |
		uint32(frac)<<sam.SYSCTRL_DPLLRATIO_LDRFRAC_Pos)
	sam.SYSCTRL.DPLLCTRLA.Set(sam.SYSCTRL_DPLLCTRLA_ENABLE | sam.SYSCTRL_DPLLCTRLA_RUNSTDBY)

	for i := 0; !sam.SYSCTRL.DPLLSTATUS.HasBits(sam.SYSCTRL_DPLLSTATUS_CLKRDY | sam.SYSCTRL_DPLLSTATUS_LOCK); i++ {
		if i > lockSpins {
			return &errcode.E{C: errcode.Timeout, Op: "board.pll", Msg: "no lock"}
		}
	}
	sam.SYSCTRL.INTFLAG.Set(sam.SYSCTRL_INTFLAG_DPLLLCKF)
	return nil
}

func stopPLL() {
	sam.GCLK.GENCTRL.Set(pllGen << sam.GCLK_GENCTRL_ID_Pos)
	syncGCLK()
	sam.SYSCTRL.DPLLCTRLA.Set(0)
}

// pllUnlocked reports and clears a loss of lock since the last call.
func pllUnlocked() bool {
	if !sam.SYSCTRL.INTFLAG.HasBits(sam.SYSCTRL_INTFLAG_DPLLLCKF) {
		return false
	}
	sam.SYSCTRL.INTFLAG.Set(sam.SYSCTRL_INTFLAG_DPLLLCKF)
	return true
}

// startGen runs generic clock 4 from the DPLL divided by div (0 and 1 both mean undivided).
func startGen(div uint32, output bool) {
	sam.GCLK.GENDIV.Set(pllGen<<sam.GCLK_GENDIV_ID_Pos | div<<sam.GCLK_GENDIV_DIV_Pos)
	ctrl := uint32(pllGen<<sam.GCLK_GENCTRL_ID_Pos) |
		sam.GCLK_GENCTRL_SRC_FDPLL<<sam.GCLK_GENCTRL_SRC_Pos |
		sam.GCLK_GENCTRL_RUNSTDBY | sam.GCLK_GENCTRL_GENEN | sam.GCLK_GENCTRL_IDC
	if output {
		ctrl |= sam.GCLK_GENCTRL_OE
	}
	sam.GCLK.GENCTRL.Set(ctrl)
	syncGCLK()
}

// connect feeds peripheral clock id from generator gen.
func connect(id uint16, gen uint16) {
	sam.GCLK.CLKCTRL.Set(id<<sam.GCLK_CLKCTRL_ID_Pos | gen<<sam.GCLK_CLKCTRL_GEN_Pos | sam.GCLK_CLKCTRL_CLKEN)
}

func syncGCLK() {
	for sam.GCLK.STATUS.HasBits(sam.GCLK_STATUS_SYNCBUSY) {
	}
}

func resetTCC0() {
	sam.TCC0.CTRLA.Set(sam.TCC_CTRLA_SWRST)
	for sam.TCC0.SYNCBUSY.HasBits(sam.TCC_SYNCBUSY_SWRST) {
	}
}
