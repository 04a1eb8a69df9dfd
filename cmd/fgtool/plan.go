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
	"periph.io/x/conn/v3/physic"

	"freqgen/src/clockref"
	"freqgen/src/support"
	"freqgen/src/synth"
)

var planFlags = struct {
	freq frequency
	duty float64
	trim int32
	off  bool
}{
	freq: frequency{physic.KiloHertz},
	duty: 50,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show how the generator would produce a frequency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		duty, err := permyriad(planFlags.duty)
		if err != nil {
			return err
		}
		t, err := trim(planFlags.trim)
		if err != nil {
			return err
		}
		p := synth.Synthesize(planFlags.freq.milliHertz(), duty, !planFlags.off, clockref.Crystal(t))
		return printPlan(cmd.OutOrStdout(), planFlags.freq.milliHertz(), p)
	},
}

func init() {
	f := planCmd.Flags()
	f.Var(&planFlags.freq, "freq", "output frequency, e.g. 1MHz")
	f.Float64Var(&planFlags.duty, "duty", planFlags.duty, "duty cycle in percent")
	f.Int32Var(&planFlags.trim, "trim", 0, "crystal trim in mHz")
	f.BoolVar(&planFlags.off, "off", false, "plan for the output switched off")
	rootCmd.AddCommand(planCmd)
}

func printPlan(w io.Writer, target int64, p synth.Plan) error {
	if !p.On {
		_, err := fmt.Fprintln(w, "output off")
		return err
	}
	fmt.Fprintf(w, "reference  %s (crystal / %d)\n", fromMilliHertz(p.Ref), p.ReferenceDivider)
	fmt.Fprintf(w, "pll        %s = ref * (%d + %d/16)\n", fromMilliHertz(p.PLLFreq()), p.IntegerRatio, p.FractionRatio)
	fmt.Fprintf(w, "divider    %d (%s)\n", p.OutputDivider, p.Drive)
	if p.Drive == synth.DrivePWM {
		fmt.Fprintf(w, "timer      prescaler 2^%d, period %d, compare %d\n", p.TimerPrescaler, p.TimerPeriod, p.TimerCompare)
	}
	fmt.Fprintf(w, "frequency  %s Hz\n", support.FormatFreq(p.AchievedFreq))
	fmt.Fprintf(w, "duty       %s %%\n", support.FormatDuty(p.AchievedDuty))
	_, err := fmt.Fprintf(w, "error      %+d mHz\n", p.AchievedFreq-target)
	return err
}
