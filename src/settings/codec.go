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

package settings

import (
	"encoding/binary"

	"freqgen/src/clockref"
	"freqgen/src/counter"
	"freqgen/src/errcode"
)

// Magic marks a valid zone.
const Magic uint32 = 0x78656c41

// Size of the record image in flash.
const Size = 116

// Byte offsets in the image. All words are little endian.
const (
	offMagic1     = 0
	offTrim       = 4
	offPowerCount = 8
	offBrightness = 12
	offReserved1  = 16 // 8 words
	offMagic2     = 48
	offMode       = 52
	offFrequency  = 56 // 8 bytes
	offDuty       = 64
	offOn         = 68 // 1 byte and 3 of padding
	offGate       = 72
	offDirect     = 76
	offReserved2  = 80 // 8 words
	offMagic3     = 112
)

// Reserved holds the spare words of both zones so that a later firmware's
// fields survive a load and save by this one.
type Reserved [2][8]uint32

// Record is the full image, magic words included.
type Record struct {
	Magic    [3]uint32
	Settings Settings
	Reserved Reserved
}

var le = binary.LittleEndian

// Decode unpacks an image. Nothing is validated.
func Decode(b []byte) (Record, error) {
	var r Record
	if len(b) < Size {
		return r, &errcode.E{C: errcode.ShortIO, Op: "settings.decode", Msg: "image too short"}
	}
	r.Magic[0] = le.Uint32(b[offMagic1:])
	r.Magic[1] = le.Uint32(b[offMagic2:])
	r.Magic[2] = le.Uint32(b[offMagic3:])

	s := &r.Settings
	s.Trim = clockref.Trim(int32(le.Uint32(b[offTrim:])))
	s.PowerCount = le.Uint32(b[offPowerCount:])
	s.Brightness = Brightness(clampWord(le.Uint32(b[offBrightness:])))
	s.Mode = Mode(clampWord(le.Uint32(b[offMode:])))
	s.Frequency = int64(le.Uint64(b[offFrequency:]))
	s.Duty = int32(le.Uint32(b[offDuty:]))
	s.On = b[offOn] != 0
	s.Gate = counter.GateTime(clampWord(le.Uint32(b[offGate:])))
	s.Direct = counter.DirectThreshold(clampWord(le.Uint32(b[offDirect:])))

	for i := 0; i < 8; i++ {
		r.Reserved[0][i] = le.Uint32(b[offReserved1+4*i:])
		r.Reserved[1][i] = le.Uint32(b[offReserved2+4*i:])
	}
	return r, nil
}

// clampWord squeezes a stored enum word into a byte without letting a large
// garbage value wrap around into a legal one.
func clampWord(v uint32) uint8 {
	if v > 0xff {
		return 0xff
	}
	return uint8(v)
}

// Encode packs r into a fresh image of Size bytes.
func (r Record) Encode() []byte {
	b := make([]byte, Size)
	s := r.Settings
	le.PutUint32(b[offMagic1:], r.Magic[0])
	le.PutUint32(b[offTrim:], uint32(int32(s.Trim)))
	le.PutUint32(b[offPowerCount:], s.PowerCount)
	le.PutUint32(b[offBrightness:], uint32(s.Brightness))
	le.PutUint32(b[offMagic2:], r.Magic[1])
	le.PutUint32(b[offMode:], uint32(s.Mode))
	le.PutUint64(b[offFrequency:], uint64(s.Frequency))
	le.PutUint32(b[offDuty:], uint32(s.Duty))
	if s.On {
		b[offOn] = 1
	}
	le.PutUint32(b[offGate:], uint32(s.Gate))
	le.PutUint32(b[offDirect:], uint32(s.Direct))
	le.PutUint32(b[offMagic3:], r.Magic[2])
	for i := 0; i < 8; i++ {
		le.PutUint32(b[offReserved1+4*i:], r.Reserved[0][i])
		le.PutUint32(b[offReserved2+4*i:], r.Reserved[1][i])
	}
	return b
}

/*
Validate applies the zone rules and returns the usable settings.

The calibration zone is checked first, against magic words 1 and 2, and rewrites both
when it is reset. The operating zone is checked next against words 2 and 3, which after
the first check means it stands or falls with word 3. Each zone falls back to its
defaults on its own. Fields of a zone that
passed are clamped into range. The power count is incremented.
*/
func (r *Record) Validate() Report {
	var rep Report
	if r.Magic[0] != Magic || r.Magic[1] != Magic {
		r.Magic[0], r.Magic[1] = Magic, Magic
		r.Settings.DefaultCalibration()
		rep.CalibrationReset = true
	}
	if r.Magic[1] != Magic || r.Magic[2] != Magic {
		r.Magic[1], r.Magic[2] = Magic, Magic
		r.Settings.DefaultOperation()
		rep.OperationReset = true
	}
	rep.Clamped = r.Settings.Clamp()
	r.Settings.PowerCount++
	return rep
}

// NewRecord wraps s with valid magic words.
func NewRecord(s Settings) Record {
	return Record{Magic: [3]uint32{Magic, Magic, Magic}, Settings: s}
}
