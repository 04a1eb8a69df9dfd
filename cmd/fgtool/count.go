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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/instrument"
	"freqgen/src/settings"
	"freqgen/src/sim"
	"freqgen/src/support"
)

var countCmd = &cobra.Command{
	Use:   "count [PROFILE]",
	Short: "Run the counter against a simulated input",
	Long: `Run the counter firmware against simulated capture hardware.

The profile is a TOML file giving the trims, the gate and direct threshold settings
and a list of input steps. Without one a built in profile is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		p, err := loadProfile(path)
		if err != nil {
			return err
		}
		return runCount(cmd.OutOrStdout(), p)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}

// blank stands in for the panel.
type blank struct{}

func (blank) Render(instrument.View) {}

func (blank) SetBrightness(settings.Brightness) {}

// runCount drives the instrument in counter mode through the steps of p, printing
// every completed measurement.
func runCount(out io.Writer, p *Profile) error {
	believed, actual := p.trims()
	gate, _ := p.gate()
	direct, _ := p.direct()

	capture := sim.NewCapture(actual)
	ctrl := instrument.New(instrument.Config{
		Store:   settings.NewStore(settings.NewMemDevice(4096, 1024), 0),
		Clock:   sim.NewClock(clockref.Crystal(actual)),
		Capture: capture,
		Display: blank{},
	})

	var now int64
	if err := ctrl.Start(now); err != nil {
		return err
	}
	setup := []func() error{
		func() error { return ctrl.SetTrim(believed) },
		func() error { return ctrl.SetGateTime(gate) },
		func() error { return ctrl.SetDirectThreshold(direct) },
		func() error { return ctrl.SetMode(settings.Counter) },
	}
	for _, f := range setup {
		if err := f(); err != nil {
			return err
		}
	}

	e := ctrl.Engine()
	mode, cycles := e.Mode(), e.Cycles()
	for i, s := range p.Step {
		freq, _ := parseFrequency(s.Frequency)
		duty, _ := permyriad(s.Duty)
		capture.SetSignal(freq, duty)
		fmt.Fprintf(out, "step %d: %s\n", i+1, fromMilliHertz(freq))

		for g := 0; g < s.Gates; g++ {
			capture.Step()
			now += e.Gate().Millis()
			if err := ctrl.Tick(now); err != nil {
				return err
			}
			if e.Mode() != mode {
				mode = e.Mode()
				fmt.Fprintf(out, "%8d ms  switched to %s\n", now, mode)
			}
			if e.Cycles() != cycles {
				cycles = e.Cycles()
				fmt.Fprintf(out, "%8d ms  %s\n", now, reading(e.Sample(), e.Mode()))
			}
		}
	}
	return nil
}

func reading(s counter.Sample, m counter.Mode) string {
	r := fmt.Sprintf("%-6s %s Hz", m, support.FormatFreq(s.Frequency))
	if s.Stale {
		return r + "  no input"
	}
	if s.DutyValid {
		r += fmt.Sprintf("  %s %%", support.FormatDuty(s.Duty))
	}
	return r
}
