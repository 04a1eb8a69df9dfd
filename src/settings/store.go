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
	"io"

	"freqgen/src/errcode"
	"freqgen/src/logger"
)

// BlockDevice is the shape of TinyGo's machine.Flash.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

// Store keeps the settings record at a fixed offset of a block device. The offset
// must be at the start of an erase block that nothing else uses.
type Store struct {
	dev      BlockDevice
	offset   int64
	reserved Reserved
}

func NewStore(dev BlockDevice, offset int64) *Store {
	return &Store{dev: dev, offset: offset}
}

/*
Load reads the record and applies the zone rules. It always returns usable settings;
what went wrong, if anything, is in the report and has been logged. A device error is
treated like an erased record.
*/
func (st *Store) Load() (Settings, Report) {
	buf := make([]byte, Size)
	n, err := st.dev.ReadAt(buf, st.offset)
	if err != nil && !(err == io.EOF && n == Size) {
		err = errcode.Wrap(errcode.ShortIO, "settings.load", err)
		buf = make([]byte, Size) // all zeros fails every magic check
	} else {
		err = nil
	}

	r, _ := Decode(buf)
	rep := r.Validate()
	rep.Err = err
	st.reserved = r.Reserved
	if !rep.Clean() {
		logger.Info("settings: %s", rep)
	}
	return r.Settings, rep
}

// Save erases the settings block and writes s. A power failure in between loses both zones.
func (st *Store) Save(s Settings) error {
	r := NewRecord(s)
	r.Reserved = st.reserved
	image := r.Encode()

	bs := st.dev.EraseBlockSize()
	if bs <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "settings.save", Msg: "bad erase block size"}
	}
	if err := st.dev.EraseBlocks(st.offset/bs, 1); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "settings.erase", err)
	}
	n, err := st.dev.WriteAt(image, st.offset)
	if err != nil {
		return errcode.Wrap(errcode.HardwareFault, "settings.write", err)
	}
	if n != len(image) {
		return &errcode.E{C: errcode.ShortIO, Op: "settings.write", Msg: "short write"}
	}
	return nil
}
