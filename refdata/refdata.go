// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refdata reads and writes ADC/SBC reference dumps.
//
// A reference dump records the outcome of every ADC and SBC a chip can
// perform. For each decimal flag, then each carry flag, then each
// accumulator, then each operand (all counting up from zero) it holds four
// bytes: the accumulator and status register after ADC, followed by the
// accumulator and status register after SBC. The status byte always has
// the break and reserved bits set and the interrupt-disable bit clear.
//
// The same files can be captured on real hardware, which makes their MD5
// sums a compact oracle for the whole input space.
package refdata

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/m65xx/hwcheck/cpu"
)

// Size is the length in bytes of a reference dump.
const Size = 2 * 2 * 256 * 256 * 2 * 2

// Errors
var (
	ErrSize = errors.New("reference dump has the wrong size")
)

// KnownMD5 holds the MD5 sums of the reference dumps captured on an Atari
// 800XL (6502) and a Neo6502 board (65c02).
var KnownMD5 = map[cpu.Architecture]string{
	cpu.NMOS: "1011503fc61dcfce94dff8d11256200a",
	cpu.CMOS: "dcf9102f6b165b42edcc1f5ee8af7584",
}

// FileName returns the conventional file name of an architecture's dump.
func FileName(arch cpu.Architecture) string {
	return fmt.Sprintf("adc_sbc_%s.dat", arch)
}

// Offset returns the position within a dump of the two-byte record for the
// given operation and input.
func Offset(op cpu.Operation, in cpu.ALUInput) int {
	i := int(boolToByte(in.Decimal))
	i = i<<1 | int(boolToByte(in.Carry))
	i = i<<8 | int(in.A)
	i = i<<8 | int(in.Operand)
	i = i<<1 | int(op)
	return i * 2
}

// Status packs an ALU result into the status byte stored in a dump.
func Status(res cpu.ALUResult, decimal bool) byte {
	r := cpu.Registers{
		Sign:     res.Negative,
		Overflow: res.Overflow,
		Decimal:  decimal,
		Zero:     res.Zero,
		Carry:    res.Carry,
	}
	return r.SavePS(true)
}

// Generate writes the reference dump of an architecture to w and returns
// the number of bytes written.
func Generate(w io.Writer, arch cpu.Architecture) (int64, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	var n int64
	var rec [4]byte
	for in := range cpu.AllInputs() {
		add := cpu.Compute(arch, cpu.Add, in)
		sub := cpu.Compute(arch, cpu.Subtract, in)
		rec[0], rec[1] = add.A, Status(add, in.Decimal)
		rec[2], rec[3] = sub.A, Status(sub, in.Decimal)
		c, err := bw.Write(rec[:])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Sum returns the hex-encoded MD5 sum of the dump generated for arch.
func Sum(arch cpu.Architecture) (string, error) {
	h := md5.New()
	if _, err := Generate(h, arch); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// A Table is a reference dump held in memory.
type Table struct {
	b [Size]byte
}

// Read loads a reference dump. The input must be exactly Size bytes long.
func Read(r io.Reader) (*Table, error) {
	t := &Table{}
	if _, err := io.ReadFull(r, t.b[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short read", ErrSize)
		}
		return nil, err
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing data", ErrSize)
	}
	return t, nil
}

// NewTable builds the table of an architecture without touching disk.
func NewTable(arch cpu.Architecture) *Table {
	t := &Table{}
	for in := range cpu.AllInputs() {
		for _, op := range cpu.Operations {
			res := cpu.Compute(arch, op, in)
			i := Offset(op, in)
			t.b[i], t.b[i+1] = res.A, Status(res, in.Decimal)
		}
	}
	return t
}

// Lookup returns the recorded result of an operation.
func (t *Table) Lookup(op cpu.Operation, in cpu.ALUInput) cpu.ALUResult {
	i := Offset(op, in)
	ps := t.b[i+1]
	return cpu.ALUResult{
		A:        t.b[i],
		Negative: (ps & cpu.SignBit) != 0,
		Overflow: (ps & cpu.OverflowBit) != 0,
		Zero:     (ps & cpu.ZeroBit) != 0,
		Carry:    (ps & cpu.CarryBit) != 0,
	}
}

// Status returns the raw status byte recorded for an operation.
func (t *Table) Status(op cpu.Operation, in cpu.ALUInput) byte {
	return t.b[Offset(op, in)+1]
}

// Set overwrites the record of an operation. It is mostly useful for
// building tables from partial captures.
func (t *Table) Set(op cpu.Operation, in cpu.ALUInput, res cpu.ALUResult) {
	i := Offset(op, in)
	t.b[i], t.b[i+1] = res.A, Status(res, in.Decimal)
}

// WriteTo writes the table in dump format.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.b[:])
	return int64(n), err
}

// MD5 returns the hex-encoded MD5 sum of the table.
func (t *Table) MD5() string {
	s := md5.Sum(t.b[:])
	return hex.EncodeToString(s[:])
}

// Identify returns the architecture whose known hardware sum matches the
// table, if any.
func (t *Table) Identify() (cpu.Architecture, bool) {
	sum := t.MD5()
	for _, arch := range cpu.Architectures {
		if KnownMD5[arch] == sum {
			return arch, true
		}
	}
	return cpu.NMOS, false
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
