// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vectors loads single-instruction hardware captures in the
// SingleStepTests JSON format.
//
// A capture file is a JSON array of test cases. Each case names an
// initial and final machine state along with the bus cycles observed while
// the instruction ran:
//
//	{
//	  "name": "9e 34 12",
//	  "initial": {"pc": 512, "s": 253, "a": 0, "x": 0, "y": 16, "p": 36,
//	              "ram": [[512, 158], [513, 52], [514, 18]]},
//	  "final":   {...},
//	  "cycles":  [[512, 158, "read"], ...]
//	}
//
// Files ending in ".gz" are decompressed transparently.
package vectors

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m65xx/hwcheck/cpu"
)

// Errors
var (
	ErrFormat = errors.New("malformed capture")
)

// A Test is one captured instruction execution.
type Test struct {
	Name    string  `json:"name"`
	Initial State   `json:"initial"`
	Final   State   `json:"final"`
	Cycles  []Cycle `json:"cycles"`
}

// A State is a register file plus the memory locations the capture cares
// about.
type State struct {
	PC  uint16    `json:"pc"`
	S   byte      `json:"s"`
	A   byte      `json:"a"`
	X   byte      `json:"x"`
	Y   byte      `json:"y"`
	P   byte      `json:"p"`
	RAM []RAMCell `json:"ram"`
}

// A RAMCell is an [address, value] pair.
type RAMCell struct {
	Addr  uint16
	Value byte
}

// A Cycle is an [address, value, direction] triple.
type Cycle struct {
	Addr  uint16
	Value byte
	Dir   cpu.Direction
}

// UnmarshalJSON decodes a two-element array.
func (c *RAMCell) UnmarshalJSON(b []byte) error {
	var raw []uint32
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: ram entry %s: %v", ErrFormat, b, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: ram entry %s has %d elements", ErrFormat, b, len(raw))
	}
	if raw[0] > 0xffff || raw[1] > 0xff {
		return fmt.Errorf("%w: ram entry %s out of range", ErrFormat, b)
	}
	c.Addr, c.Value = uint16(raw[0]), byte(raw[1])
	return nil
}

// MarshalJSON encodes the cell as a two-element array.
func (c RAMCell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint32{uint32(c.Addr), uint32(c.Value)})
}

// UnmarshalJSON decodes a three-element array.
func (c *Cycle) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: cycle %s: %v", ErrFormat, b, err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: cycle %s has %d elements", ErrFormat, b, len(raw))
	}

	var addr, value uint32
	var dir string
	if err := json.Unmarshal(raw[0], &addr); err != nil || addr > 0xffff {
		return fmt.Errorf("%w: cycle %s has a bad address", ErrFormat, b)
	}
	if err := json.Unmarshal(raw[1], &value); err != nil || value > 0xff {
		return fmt.Errorf("%w: cycle %s has a bad value", ErrFormat, b)
	}
	if err := json.Unmarshal(raw[2], &dir); err != nil {
		return fmt.Errorf("%w: cycle %s has a bad direction", ErrFormat, b)
	}

	switch dir {
	case "read":
		c.Dir = cpu.Read
	case "write":
		c.Dir = cpu.Write
	default:
		return fmt.Errorf("%w: cycle %s has unknown direction '%s'", ErrFormat, b, dir)
	}
	c.Addr, c.Value = uint16(addr), byte(value)
	return nil
}

// MarshalJSON encodes the cycle as a three-element array.
func (c Cycle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Addr, c.Value, c.Dir.String()})
}

// BusCycle converts the cycle to the form produced by cpu.ExecuteStore.
func (c Cycle) BusCycle() cpu.BusCycle {
	return cpu.BusCycle{Addr: c.Addr, Value: c.Value, Dir: c.Dir}
}

// Machine converts the state into a machine whose memory holds exactly the
// captured RAM cells.
func (s State) Machine() cpu.MachineState {
	m := cpu.NewSparseMemory()
	for _, c := range s.RAM {
		m.StoreByte(c.Addr, c.Value)
	}

	var r cpu.Registers
	r.A, r.X, r.Y = s.A, s.X, s.Y
	r.SP, r.PC = s.S, s.PC
	r.RestorePS(s.P)
	return cpu.MachineState{Reg: r, Mem: m}
}

// Opcode returns the first byte of the instruction under test, read from
// the initial state's RAM at its PC.
func (t *Test) Opcode() (byte, bool) {
	for _, c := range t.Initial.RAM {
		if c.Addr == t.Initial.PC {
			return c.Value, true
		}
	}
	return 0, false
}

// BusCycles returns the captured cycles in cpu.BusCycle form.
func (t *Test) BusCycles() []cpu.BusCycle {
	cycles := make([]cpu.BusCycle, len(t.Cycles))
	for i, c := range t.Cycles {
		cycles[i] = c.BusCycle()
	}
	return cycles
}

// Load decodes a capture file.
func Load(r io.Reader) ([]Test, error) {
	var tests []Test
	dec := json.NewDecoder(r)
	if err := dec.Decode(&tests); err != nil {
		if errors.Is(err, ErrFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return tests, nil
}

// LoadFile opens and decodes a capture file.
func LoadFile(filename string) ([]Test, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		defer gz.Close()
		r = gz
	}

	tests, err := Load(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return tests, nil
}
