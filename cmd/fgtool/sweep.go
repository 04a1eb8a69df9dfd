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
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"periph.io/x/conn/v3/physic"

	"freqgen/src/clockref"
	"freqgen/src/synth"
)

var sweepFlags = struct {
	from, to frequency
	points   int
	trim     int32
}{
	from:   frequency{physic.Hertz},
	to:     frequency{100 * physic.MegaHertz},
	points: 200,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Report the synthesizer error over a log spaced range of frequencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := trim(sweepFlags.trim)
		if err != nil {
			return err
		}
		lo, hi := sweepFlags.from.milliHertz(), sweepFlags.to.milliHertz()
		if lo < synth.FreqMin || hi > synth.FreqMax || lo >= hi {
			return fmt.Errorf("range %s..%s not inside the generator's", &sweepFlags.from, &sweepFlags.to)
		}
		if sweepFlags.points < 2 {
			return fmt.Errorf("need at least 2 points")
		}
		r := sweep(lo, hi, sweepFlags.points, clockref.Crystal(t))
		return r.print(cmd.OutOrStdout())
	},
}

func init() {
	f := sweepCmd.Flags()
	f.Var(&sweepFlags.from, "from", "lowest frequency")
	f.Var(&sweepFlags.to, "to", "highest frequency")
	f.IntVar(&sweepFlags.points, "points", sweepFlags.points, "number of frequencies")
	f.Int32Var(&sweepFlags.trim, "trim", 0, "crystal trim in mHz")
	rootCmd.AddCommand(sweepCmd)
}

type sweepResult struct {
	targets []float64 // mHz
	errs    []float64 // relative
	exact   int
}

func sweep(lo, hi int64, n int, crystal int64) sweepResult {
	r := sweepResult{
		targets: floats.LogSpan(make([]float64, n), float64(lo), float64(hi)),
		errs:    make([]float64, n),
	}
	for i, f := range r.targets {
		target := int64(math.Round(f))
		r.targets[i] = float64(target)
		p := synth.Synthesize(target, 5000, true, crystal)
		if p.AchievedFreq == target {
			r.exact++
		}
		r.errs[i] = math.Abs(float64(p.AchievedFreq-target)) / float64(target)
	}
	return r
}

func (r sweepResult) print(w io.Writer) error {
	mean, std := stat.MeanStdDev(r.errs, nil)
	worst := floats.MaxIdx(r.errs)
	fmt.Fprintf(w, "points     %d, %d exact\n", len(r.errs), r.exact)
	fmt.Fprintf(w, "mean error %.3g ppm (std %.3g ppm)\n", mean*1e6, std*1e6)
	_, err := fmt.Fprintf(w, "worst      %.3g ppm at %s\n", r.errs[worst]*1e6, fromMilliHertz(int64(r.targets[worst])))
	return err
}
