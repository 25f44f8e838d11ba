// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// Mode describes a memory addressing mode.
type Mode byte

// Addressing modes used by the unstable stores
const (
	ABX Mode = iota // Absolute,X
	ABY             // Absolute,Y
	IDY             // (Indirect),Y
)

func (m Mode) String() string {
	switch m {
	case ABX:
		return "abs,X"
	case ABY:
		return "abs,Y"
	case IDY:
		return "(zp),Y"
	default:
		return fmt.Sprintf("Mode(%d)", byte(m))
	}
}

// StoreOp identifies one of the five unstable store opcodes of the NMOS
// 6502. Each stores a register combination ANDed with the incremented high
// byte of the base address, and each replaces the high byte of the
// effective address with that value when indexing crosses a page.
type StoreOp byte

const (
	SHAIndirectY StoreOp = iota // $93: SHA (zp),Y
	TASAbsoluteY                // $9B: TAS abs,Y
	SHYAbsoluteX                // $9C: SHY abs,X
	SHXAbsoluteY                // $9E: SHX abs,Y
	SHAAbsoluteY                // $9F: SHA abs,Y
)

type regfunc func(r *Registers) byte

func regX(r *Registers) byte { return r.X }
func regY(r *Registers) byte { return r.Y }
func regSP(r *Registers) byte { return r.SP }
func regAX(r *Registers) byte { return r.A & r.X }

// Opcode data for each unstable store
type storeData struct {
	name   string  // mnemonic
	opcode byte    // opcode hex value
	mode   Mode    // addressing mode
	length byte    // length of opcode + operand in bytes
	index  regfunc // register added to the base address
	value  regfunc // registers ANDed with the incremented base high byte
	tas    bool    // SP := A & X before the value is computed
}

var stores = [...]storeData{
	SHAIndirectY: {"SHA", 0x93, IDY, 2, regY, regAX, false},
	TASAbsoluteY: {"TAS", 0x9b, ABY, 3, regY, regSP, true},
	SHYAbsoluteX: {"SHY", 0x9c, ABX, 3, regX, regY, false},
	SHXAbsoluteY: {"SHX", 0x9e, ABY, 3, regY, regX, false},
	SHAAbsoluteY: {"SHA", 0x9f, ABY, 3, regY, regAX, false},
}

// StoreOps lists every unstable store in opcode order.
func StoreOps() []StoreOp {
	return []StoreOp{SHAIndirectY, TASAbsoluteY, SHYAbsoluteX, SHXAbsoluteY, SHAAbsoluteY}
}

// LookupStore returns the unstable store with the given opcode.
func LookupStore(opcode byte) (StoreOp, bool) {
	for i := range stores {
		if stores[i].opcode == opcode {
			return StoreOp(i), true
		}
	}
	return 0, false
}

// Opcode returns the instruction's opcode byte.
func (op StoreOp) Opcode() byte {
	return stores[op].opcode
}

// Name returns the instruction's mnemonic.
func (op StoreOp) Name() string {
	return stores[op].name
}

// Mode returns the instruction's addressing mode.
func (op StoreOp) Mode() Mode {
	return stores[op].mode
}

// Cycles returns the number of bus cycles the instruction performs.
func (op StoreOp) Cycles() int {
	if stores[op].mode == IDY {
		return 6
	}
	return 5
}

func (op StoreOp) String() string {
	if int(op) >= len(stores) {
		return fmt.Sprintf("StoreOp(%d)", byte(op))
	}
	return stores[op].name + " " + stores[op].mode.String()
}

// ExecuteStore runs an unstable store instruction located at the program
// counter of s. It returns the machine state after the instruction and the
// bus cycles it performed, in order. The state passed in is not modified.
//
// Every input is valid. When the index crosses a page the write goes to an
// address whose high byte is the stored value, wherever that may be.
func ExecuteStore(op StoreOp, s MachineState) (MachineState, []BusCycle) {
	d := &stores[op]
	st := s.Clone()
	r := &st.Reg
	t := &tracer{mem: st.Mem, cycles: make([]BusCycle, 0, op.Cycles())}

	t.read(r.PC)
	r.PC++

	var lo, hi byte
	switch d.mode {
	case IDY:
		zp := t.read(r.PC)
		r.PC++
		lo = t.read(uint16(zp))
		hi = t.read(uint16(zp + 1))
	default:
		lo = t.read(r.PC)
		r.PC++
		hi = t.read(r.PC)
		r.PC++
	}

	ea := uint16(lo) + uint16(d.index(r))
	elo := byte(ea)

	// The dummy read never carries into the high byte.
	t.read(makeAddress(elo, hi))

	if d.tas {
		r.SP = r.A & r.X
	}
	v := d.value(r) & (hi + 1)

	ehi := hi
	if ea > 0xff {
		ehi = v
	}
	t.write(makeAddress(elo, ehi), v)

	return st, t.cycles
}
