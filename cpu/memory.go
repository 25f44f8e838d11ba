// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "slices"

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// Clone returns an independent copy of the memory. Stores to the copy
	// are never visible through the original.
	Clone() Memory
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address and returns them. Reads
// past the end of the address space wrap around to address zero.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	for i := range b {
		b[i] = m.b[addr+uint16(i)]
	}
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address, wrapping
// around at the end of the address space.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	for i, v := range b {
		m.b[addr+uint16(i)] = v
	}
}

// Clone returns a copy of the full 64K buffer.
func (m *FlatMemory) Clone() Memory {
	c := *m
	return &c
}

// SparseMemory holds only the addresses that have been explicitly stored.
// Unpopulated addresses load as zero. It is the natural representation of
// a hardware capture, which records just the handful of bytes an
// instruction touches.
type SparseMemory struct {
	m map[uint16]byte
}

// NewSparseMemory creates an empty sparse memory.
func NewSparseMemory() *SparseMemory {
	return &SparseMemory{m: make(map[uint16]byte)}
}

// LoadByte loads a single byte from the address and returns it.
func (m *SparseMemory) LoadByte(addr uint16) byte {
	return m.m[addr]
}

// Lookup returns the byte at addr and whether the address is populated.
func (m *SparseMemory) Lookup(addr uint16) (v byte, ok bool) {
	v, ok = m.m[addr]
	return v, ok
}

// StoreByte stores a byte at the requested address.
func (m *SparseMemory) StoreByte(addr uint16, v byte) {
	m.m[addr] = v
}

// Len returns the number of populated addresses.
func (m *SparseMemory) Len() int {
	return len(m.m)
}

// Addrs returns every populated address in ascending order.
func (m *SparseMemory) Addrs() []uint16 {
	addrs := make([]uint16, 0, len(m.m))
	for a := range m.m {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)
	return addrs
}

// Clone returns a copy of the populated addresses.
func (m *SparseMemory) Clone() Memory {
	c := NewSparseMemory()
	for a, v := range m.m {
		c.m[a] = v
	}
	return c
}

// MachineState is a snapshot of the registers and memory of a machine
// before or after an instruction executes.
type MachineState struct {
	Reg Registers
	Mem Memory
}

// Clone returns a deep copy of the state.
func (s MachineState) Clone() MachineState {
	c := MachineState{Reg: s.Reg}
	if s.Mem != nil {
		c.Mem = s.Mem.Clone()
	}
	return c
}

// Convert a 2-byte little-endian operand into an address.
func makeAddress(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}
