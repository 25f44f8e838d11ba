// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"$%s,X",   // ABX
	"$%s,Y",   // ABY
	"($%s),Y", // IDY
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice, most
// significant byte first.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Length returns the size of the instruction in bytes.
func (op StoreOp) Length() int {
	return int(stores[op].length)
}

// Disassemble the instruction in memory 'm' at address 'addr' as the
// unstable store 'op'. Return a 'line' string representing the instruction,
// the instruction's bytes, and a 'next' address that starts the following
// instruction.
func (op StoreOp) Disassemble(m Memory, addr uint16) (line string, code []byte, next uint16) {
	d := &stores[op]
	code = make([]byte, d.length)
	for i := range code {
		code[i] = m.LoadByte(addr + uint16(i))
	}
	line = fmt.Sprintf("%s "+modeFormat[d.mode], d.name, hexString(code[1:]))
	next = addr + uint16(d.length)
	return
}
