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

/*
Package buttons turns the state of the five front panel keys into events.

The keys are already debounced by whoever implements Reader. A key held down starts
repeating after RepeatDelay and then repeats every RepeatInterval. Every event carries
the time since the previous event of the same key, which is what the trim hold timer
and the fast digit scroll are built on.
*/
package buttons

import "fmt"

type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	Center
	NumButtons
)

func (b Button) String() string {
	switch b {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Center:
		return "center"
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

type Kind uint8

const (
	Pressed Kind = iota
	Released
	Repeat
)

func (k Kind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Repeat:
		return "repeat"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

const (
	RepeatDelay    = 200 // ms
	RepeatInterval = 50  // ms
)

type Event struct {
	Button   Button
	Kind     Kind
	Interval int64 // ms since the previous event for this button
}

// Reader reports the debounced state of a key.
type Reader interface {
	Pressed(Button) bool
}

// Poller keeps the per key state between polls.
type Poller struct {
	in     Reader
	state  [NumButtons]bool
	repeat [NumButtons]bool
	last   [NumButtons]int64
	events []Event
}

// NewPoller takes the current key state as the starting point so that a key held
// during power up does not produce a press.
func NewPoller(in Reader, now int64) *Poller {
	p := &Poller{in: in, events: make([]Event, 0, 2*NumButtons)}
	for b := Button(0); b < NumButtons; b++ {
		p.state[b] = in.Pressed(b)
		p.last[b] = now
	}
	return p
}

// Held reports the state of b as of the last Poll.
func (p *Poller) Held(b Button) bool { return p.state[b] }

// Poll samples every key at time now (ms) and returns the resulting events. The
// slice is reused by the next call.
func (p *Poller) Poll(now int64) []Event {
	p.events = p.events[:0]
	for b := Button(0); b < NumButtons; b++ {
		pressed := p.in.Pressed(b)
		delta := now - p.last[b]

		if p.state[b] {
			wait := int64(RepeatDelay)
			if p.repeat[b] {
				wait = RepeatInterval
			}
			if delta > wait {
				p.events = append(p.events, Event{Button: b, Kind: Repeat, Interval: delta})
				p.last[b] = now
				p.repeat[b] = true
			}
		}

		if pressed != p.state[b] {
			kind := Released
			if pressed {
				kind = Pressed
			} else {
				p.repeat[b] = false
			}
			p.events = append(p.events, Event{Button: b, Kind: kind, Interval: delta})
			p.state[b] = pressed
			p.last[b] = now
		}
	}
	return p.events
}
