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

// fgtool works with the frequency generator and counter on the host: it shows what the
// synthesizer would program, sweeps its accuracy, runs the counter against simulated
// hardware and reads or writes settings images.
package main

import (
	"github.com/spf13/cobra"

	"freqgen/src/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "fgtool",
	Short: "Host tool for the frequency generator and counter",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Verbose = verbose
		logger.SetOutput(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
