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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write settings images",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show IMAGE",
	Short: "Print a settings image as TOML",
	Long: `Print a settings image as TOML, the way the firmware would load it.

Zones that would be reset and fields that would be clamped are reported first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return showSettings(cmd.OutOrStdout(), b)
	},
}

var settingsWriteCmd = &cobra.Command{
	Use:   "write TOML IMAGE",
	Short: "Build a settings image from TOML",
	Long: `Build a settings image from a TOML document like the one "settings show" prints.
Fields that are left out keep their defaults.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := toDoc(settings.Defaults())
		if _, err := toml.DecodeFile(args[0], &doc); err != nil {
			return err
		}
		s, err := doc.settings()
		if err != nil {
			return err
		}
		return os.WriteFile(args[1], settings.NewRecord(s).Encode(), 0o644)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsWriteCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingsDoc is the TOML form of the settings, with units and names instead of codes.
type settingsDoc struct {
	Trim       int32   `toml:"trim"`
	PowerCount uint32  `toml:"power_count"`
	Brightness string  `toml:"brightness"`
	Mode       string  `toml:"mode"`
	Frequency  string  `toml:"frequency"`
	Duty       float64 `toml:"duty"`
	On         bool    `toml:"on"`
	Gate       string  `toml:"gate"`
	Direct     string  `toml:"direct"`
}

func toDoc(s settings.Settings) settingsDoc {
	return settingsDoc{
		Trim:       int32(s.Trim),
		PowerCount: s.PowerCount,
		Brightness: s.Brightness.String(),
		Mode:       s.Mode.String(),
		Frequency:  fromMilliHertz(s.Frequency).String(),
		Duty:       float64(s.Duty) / 100,
		On:         s.On,
		Gate:       s.Gate.String(),
		Direct:     s.Direct.String(),
	}
}

func (d settingsDoc) settings() (settings.Settings, error) {
	s := settings.Settings{PowerCount: d.PowerCount, On: d.On}
	var err error
	if s.Trim, err = trim(d.Trim); err != nil {
		return s, err
	}
	if s.Brightness, err = lookup[settings.Brightness]("brightness", d.Brightness); err != nil {
		return s, err
	}
	if s.Mode, err = lookup[settings.Mode]("mode", d.Mode); err != nil {
		return s, err
	}
	if s.Frequency, err = parseFrequency(d.Frequency); err != nil {
		return s, err
	}
	if s.Duty, err = permyriad(d.Duty); err != nil {
		return s, err
	}
	if s.Gate, err = lookup[counter.GateTime]("gate", d.Gate); err != nil {
		return s, err
	}
	if s.Direct, err = lookup[counter.DirectThreshold]("direct threshold", d.Direct); err != nil {
		return s, err
	}
	if changed := s.Clamp(); len(changed) > 0 {
		return s, fmt.Errorf("out of range: %v", changed)
	}
	return s, nil
}

func showSettings(w io.Writer, image []byte) error {
	r, err := settings.Decode(image)
	if err != nil {
		return err
	}
	rep := r.Validate()
	// Validate counts a boot, which only showing the image is not
	r.Settings.PowerCount--
	fmt.Fprintf(w, "# load: %s\n", rep)
	if r.Settings.Trim != 0 {
		fmt.Fprintf(w, "# crystal: %d mHz\n", clockref.Crystal(r.Settings.Trim))
	}
	return toml.NewEncoder(w).Encode(toDoc(r.Settings))
}
