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

// Package logger is the single log sink for the firmware and the host tool.
// On the device the standard logger ends up on the USB serial console.
package logger

import (
	"io"
	"log"
)

const prefix = "freqgen: "

var (
	// Quiet suppresses Info and Debug. Error is always written.
	Quiet bool
	// Verbose enables Debug.
	Verbose bool
)

// SetOutput redirects all log output.
func SetOutput(w io.Writer) { log.SetOutput(w) }

func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf(prefix+format, args...)
}

func Debug(format string, args ...interface{}) {
	if Quiet || !Verbose {
		return
	}
	log.Printf(prefix+"debug: "+format, args...)
}

func Error(format string, args ...interface{}) {
	log.Printf(prefix+"error: "+format, args...)
}
