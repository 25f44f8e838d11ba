// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"iter"
)

// Operation selects the direction of the arithmetic unit.
type Operation byte

const (
	Add      Operation = iota // ADC
	Subtract                  // SBC
)

// Operations lists both ALU operations in reference-file order.
var Operations = []Operation{Add, Subtract}

func (op Operation) String() string {
	switch op {
	case Add:
		return "ADC"
	case Subtract:
		return "SBC"
	default:
		return fmt.Sprintf("Operation(%d)", byte(op))
	}
}

// ALUInput holds the operands of a single ADC or SBC.
type ALUInput struct {
	Carry   bool // carry flag before the operation
	A       byte // accumulator before the operation
	Operand byte // memory or immediate operand
	Decimal bool // decimal flag
}

func (in ALUInput) String() string {
	return fmt.Sprintf("D=%d C=%d A=$%02X M=$%02X",
		boolToByte(in.Decimal), boolToByte(in.Carry), in.A, in.Operand)
}

// ALUResult holds the accumulator and the four status flags written by
// ADC and SBC. In decimal mode Negative is not necessarily bit 7 of A.
type ALUResult struct {
	A        byte
	Negative bool
	Overflow bool
	Zero     bool
	Carry    bool
}

func (r ALUResult) String() string {
	return fmt.Sprintf("A=$%02X N=%d V=%d Z=%d C=%d", r.A,
		boolToByte(r.Negative), boolToByte(r.Overflow),
		boolToByte(r.Zero), boolToByte(r.Carry))
}

type aluFunc func(carry bool, acc, operand byte) ALUResult

// Binary mode behaves identically on both chips.
var binaryImpl = [2]aluFunc{adcBinary, sbcBinary}

// Decimal mode, indexed by architecture then operation.
var decimalImpl = [2][2]aluFunc{
	{adcDecimalNMOS, sbcDecimalNMOS},
	{adcDecimalCMOS, sbcDecimalCMOS},
}

// Compute performs an ADC or SBC exactly as the selected chip does,
// including for operands that are not valid BCD. The architecture and
// operation must be one of the defined constants.
func Compute(arch Architecture, op Operation, in ALUInput) ALUResult {
	if in.Decimal {
		return decimalImpl[arch][op](in.Carry, in.A, in.Operand)
	}
	return binaryImpl[op](in.Carry, in.A, in.Operand)
}

// Add with carry (binary)
func adcBinary(carry bool, acc, add byte) ALUResult {
	sum := uint16(acc) + uint16(add) + uint16(boolToByte(carry))
	v := byte(sum)
	n := (v & 0x80) != 0
	return ALUResult{
		A:        v,
		Negative: n,
		Overflow: ((acc&0x80) != 0) != n && ((add&0x80) != 0) != n,
		Zero:     v == 0,
		Carry:    sum > 0xff,
	}
}

// Subtract with carry (binary). Subtraction is addition of the inverted
// operand, bit for bit.
func sbcBinary(carry bool, acc, sub byte) ALUResult {
	return adcBinary(carry, acc, sub^0xff)
}

// Add with carry (NMOS, decimal)
func adcDecimalNMOS(carry bool, acc, add byte) ALUResult {
	c := boolToByte(carry)

	// Z comes from the binary sum, not the corrected result.
	bin := acc + add + c

	lo := acc&0x0f + add&0x0f + c
	if lo > 9 {
		lo, c = (lo-10)&0x0f, 1
	} else {
		c = 0
	}

	// N and V come from the high nibble before it is corrected.
	hi := acc>>4 + add>>4 + c
	n := (hi & 0x08) != 0
	v := ((acc&0x80) != 0) != n && ((add&0x80) != 0) != n

	if hi > 9 {
		hi, c = (hi-10)&0x0f, 1
	} else {
		c = 0
	}

	return ALUResult{
		A:        hi<<4 | lo,
		Negative: n,
		Overflow: v,
		Zero:     bin == 0,
		Carry:    c == 1,
	}
}

// Subtract with carry (NMOS, decimal)
func sbcDecimalNMOS(carry bool, acc, sub byte) ALUResult {
	b := 1 - boolToByte(carry)

	// N, V and Z behave exactly as in binary mode.
	bin := acc - sub - b
	n := (bin & 0x80) != 0
	v := ((acc&0x80) != 0) != n && ((sub&0x80) == 0) != n

	lo := acc&0x0f - sub&0x0f - b
	if (lo & 0x80) != 0 {
		lo, b = (lo+10)&0x0f, 1
	} else {
		b = 0
	}

	hi := acc>>4 - sub>>4 - b
	if (hi & 0x80) != 0 {
		hi, b = (hi+10)&0x0f, 1
	} else {
		b = 0
	}

	return ALUResult{
		A:        hi<<4 | lo,
		Negative: n,
		Overflow: v,
		Zero:     bin == 0,
		Carry:    b == 0,
	}
}

// Add with carry (CMOS, decimal)
func adcDecimalCMOS(carry bool, acc, add byte) ALUResult {
	c := boolToByte(carry)

	lo := acc&0x0f + add&0x0f + c
	if lo > 9 {
		lo, c = lo-10, 1
	} else {
		c = 0
	}
	lo &= 0x0f

	hi := acc>>4 + add>>4 + c
	pn := (hi & 0x08) != 0 // premature N, only feeds V

	if hi > 9 {
		hi, c = hi-10, 1
	} else {
		c = 0
	}
	hi &= 0x0f

	// The 65c02 spends an extra cycle re-evaluating N and Z on the
	// corrected result.
	r := hi<<4 | lo
	return ALUResult{
		A:        r,
		Negative: (r & 0x80) != 0,
		Overflow: ((acc&0x80) != 0) != pn && ((add&0x80) != 0) != pn,
		Zero:     r == 0,
		Carry:    c == 1,
	}
}

// Subtract with carry (CMOS, decimal)
func sbcDecimalCMOS(carry bool, acc, sub byte) ALUResult {
	b := 1 - boolToByte(carry)

	lo := acc&0x0f - sub&0x0f - b
	if (lo & 0x80) != 0 {
		lo, b = lo+10, 1
	} else {
		b = 0
	}

	// A low nibble that is still negative after correction takes one
	// more off the corrected high nibble.
	stillNegative := lo >> 7
	lo &= 0x0f

	hi := acc>>4 - sub>>4 - b
	pn := (hi & 0x08) != 0 // premature N, only feeds V

	if (hi & 0x80) != 0 {
		hi, b = hi+10, 1
	} else {
		b = 0
	}
	hi -= stillNegative
	hi &= 0x0f

	r := hi<<4 | lo
	return ALUResult{
		A:        r,
		Negative: (r & 0x80) != 0,
		Overflow: ((acc&0x80) != 0) != pn && ((sub&0x80) == 0) != pn,
		Zero:     r == 0,
		Carry:    b == 0,
	}
}

// AllInputs yields every ALU input in reference-file order: decimal flag,
// then carry, then accumulator, then operand, each counting up from zero.
func AllInputs() iter.Seq[ALUInput] {
	return func(yield func(ALUInput) bool) {
		for d := 0; d < 2; d++ {
			for c := 0; c < 2; c++ {
				if !quadrant(d == 1, c == 1, yield) {
					return
				}
			}
		}
	}
}

// QuadrantInputs yields the 65536 inputs sharing one decimal flag and one
// carry flag, accumulator-major.
func QuadrantInputs(decimal, carry bool) iter.Seq[ALUInput] {
	return func(yield func(ALUInput) bool) {
		quadrant(decimal, carry, yield)
	}
}

func quadrant(decimal, carry bool, yield func(ALUInput) bool) bool {
	for a := 0; a < 256; a++ {
		for m := 0; m < 256; m++ {
			in := ALUInput{Carry: carry, A: byte(a), Operand: byte(m), Decimal: decimal}
			if !yield(in) {
				return false
			}
		}
	}
	return true
}

// Discriminators returns decimal-mode inputs for which the 6502 and the
// 65c02 disagree on the accumulator or on any flag. At most limit inputs
// are returned; a limit of zero or less returns all of them.
func Discriminators(op Operation, limit int) []ALUInput {
	var found []ALUInput
	for _, carry := range []bool{false, true} {
		for in := range QuadrantInputs(true, carry) {
			if Compute(NMOS, op, in) == Compute(CMOS, op, in) {
				continue
			}
			found = append(found, in)
			if limit > 0 && len(found) == limit {
				return found
			}
		}
	}
	return found
}
