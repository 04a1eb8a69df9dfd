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

package main

import (
	"time"

	"freqgen/src/board"
	"freqgen/src/buttons"
	"freqgen/src/display"
	"freqgen/src/instrument"
	"freqgen/src/logger"
	"freqgen/src/menu"
)

const version = "1.0"

var _ menu.Target = (*instrument.Controller)(nil)

func main() {
	hw, err := board.Setup()
	if err != nil {
		panic("failed setup: " + err.Error())
	}

	t0 := time.Now()
	now := func() int64 { return time.Since(t0).Milliseconds() }

	screen := display.New(hw.OLED)
	m := menu.New(screen, version)
	keys := buttons.NewPoller(hw.Keys, now())
	ctrl := instrument.New(instrument.Config{
		Store:   hw.Store,
		Clock:   hw.Clock,
		Capture: hw.Capture,
		Display: screen,
		Menu:    m,
		Keys:    keys,
	})
	m.Bind(ctrl, board.PowerOff)

	if err := ctrl.Start(now()); err != nil {
		logger.Error("start: %v", err)
	}
	for {
		t := now()
		for _, ev := range keys.Poll(t) {
			if err := ctrl.HandleButton(ev); err != nil {
				logger.Error("%s %s: %v", ev.Button, ev.Kind, err)
			}
		}
		m.Tick(t)
		if err := ctrl.Tick(t); err != nil {
			logger.Error("tick: %v", err)
		}
	}
}
