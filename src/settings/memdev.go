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
)

// MemDevice is a BlockDevice in memory that behaves like NOR flash: erased bytes
// read as 0xff and writing can only clear bits.
type MemDevice struct {
	Data      []byte
	BlockSize int64
	Erases    int
}

// NewMemDevice returns an erased device of the given size.
func NewMemDevice(size, blockSize int64) *MemDevice {
	d := &MemDevice{Data: make([]byte, size), BlockSize: blockSize}
	for i := range d.Data {
		d.Data[i] = 0xff
	}
	return d
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(d.Data)) {
		return 0, io.EOF
	}
	n := copy(p, d.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.Data)) {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "memdev.write", Msg: "out of range"}
	}
	for i, b := range p {
		d.Data[off+int64(i)] &= b
	}
	return len(p), nil
}

func (d *MemDevice) EraseBlockSize() int64 { return d.BlockSize }

func (d *MemDevice) EraseBlocks(start, length int64) error {
	lo, hi := start*d.BlockSize, (start+length)*d.BlockSize
	if lo < 0 || hi > int64(len(d.Data)) {
		return &errcode.E{C: errcode.InvalidParams, Op: "memdev.erase", Msg: "out of range"}
	}
	for i := lo; i < hi; i++ {
		d.Data[i] = 0xff
	}
	d.Erases++
	return nil
}
