// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// Direction tells whether a bus cycle reads or writes memory.
type Direction byte

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("Direction(%d)", byte(d))
	}
}

// A BusCycle is a single memory access performed by the CPU, including
// accesses whose value the instruction ends up discarding.
type BusCycle struct {
	Addr  uint16    // address placed on the bus
	Value byte      // byte read or written
	Dir   Direction // read or write
}

func (c BusCycle) String() string {
	return fmt.Sprintf("$%04X $%02X %s", c.Addr, c.Value, c.Dir)
}

// A tracer performs memory accesses and records each one as a bus cycle.
type tracer struct {
	mem    Memory
	cycles []BusCycle
}

func (t *tracer) read(addr uint16) byte {
	v := t.mem.LoadByte(addr)
	t.cycles = append(t.cycles, BusCycle{addr, v, Read})
	return v
}

func (t *tracer) write(addr uint16, v byte) {
	t.mem.StoreByte(addr, v)
	t.cycles = append(t.cycles, BusCycle{addr, v, Write})
}
