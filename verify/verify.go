// Copyright 2024 The hwcheck Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package verify compares the cpu package's models against hardware
// captures: reference dumps for the ALU and bus-cycle captures for the
// unstable stores.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/m65xx/hwcheck/cpu"
	"github.com/m65xx/hwcheck/refdata"
	"github.com/m65xx/hwcheck/vectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxMismatches is the number of mismatches a report keeps unless
// told otherwise.
const DefaultMaxMismatches = 20

// Errors
var (
	ErrMismatch = errors.New("model disagrees with capture")
	ErrOpcode   = errors.New("capture is for a different opcode")
)

// A Mismatch is one field of one case that disagreed with the capture.
type Mismatch struct {
	Case  string
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s exp: %s, got: %s", m.Case, m.Field, m.Want, m.Got)
}

// A Report summarizes a verification run. Failed counts every failing case
// while Mismatches holds at most the verifier's configured maximum.
type Report struct {
	Name       string
	Checked    int
	Failed     int
	Mismatches []Mismatch
}

// Passed returns true if no case failed.
func (r *Report) Passed() bool {
	return r.Failed == 0
}

func (r *Report) String() string {
	if r.Passed() {
		return fmt.Sprintf("%s: %d cases passed", r.Name, r.Checked)
	}
	return fmt.Sprintf("%s: %d of %d cases failed", r.Name, r.Failed, r.Checked)
}

// merge folds a partial report into r, keeping at most max mismatches.
func (r *Report) merge(p *Report, max int) {
	r.Checked += p.Checked
	r.Failed += p.Failed
	for _, m := range p.Mismatches {
		if len(r.Mismatches) >= max {
			break
		}
		r.Mismatches = append(r.Mismatches, m)
	}
}

// A Verifier runs verifications and logs their outcome.
type Verifier struct {
	log           logrus.FieldLogger
	maxMismatches int
}

// An Option configures a Verifier.
type Option func(v *Verifier)

// WithMaxMismatches sets how many mismatches a report retains.
func WithMaxMismatches(n int) Option {
	return func(v *Verifier) {
		v.maxMismatches = n
	}
}

// New creates a verifier that logs to log. A nil logger selects the logrus
// standard logger.
func New(log logrus.FieldLogger, opts ...Option) *Verifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	v := &Verifier{log: log, maxMismatches: DefaultMaxMismatches}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// A caseCheck accumulates the mismatches of a single case.
type caseCheck struct {
	name       string
	mismatches []Mismatch
}

func (c *caseCheck) expect(field string, want, got any, format string) {
	if want == got {
		return
	}
	c.mismatches = append(c.mismatches, Mismatch{
		Case:  c.name,
		Field: field,
		Want:  fmt.Sprintf(format, want),
		Got:   fmt.Sprintf(format, got),
	})
}

// record adds the case's outcome to the report and logs each mismatch.
func (v *Verifier) record(r *Report, c *caseCheck) {
	r.Checked++
	if len(c.mismatches) == 0 {
		return
	}
	r.Failed++
	for _, m := range c.mismatches {
		v.log.WithFields(logrus.Fields{
			"case":  m.Case,
			"field": m.Field,
			"want":  m.Want,
			"got":   m.Got,
		}).Debug("Mismatch")
		if len(r.Mismatches) < v.maxMismatches {
			r.Mismatches = append(r.Mismatches, m)
		}
	}
}

// finish logs the report summary and converts failure into an error.
func (v *Verifier) finish(r *Report) (*Report, error) {
	fields := logrus.Fields{
		"name":    r.Name,
		"checked": r.Checked,
		"failed":  r.Failed,
	}
	if r.Passed() {
		v.log.WithFields(fields).Info("Verification passed")
		return r, nil
	}
	v.log.WithFields(fields).Error("Verification failed")
	return r, fmt.Errorf("%s: %w", r.Name, ErrMismatch)
}

// ALU checks every ADC and SBC input of an architecture against a
// reference table. The four decimal and carry quadrants run concurrently.
func (v *Verifier) ALU(ctx context.Context, arch cpu.Architecture, t *refdata.Table) (*Report, error) {
	var parts [4]Report
	g, ctx := errgroup.WithContext(ctx)
	for i := range parts {
		decimal, carry := i&2 != 0, i&1 != 0
		g.Go(func() error {
			return v.aluQuadrant(ctx, arch, t, decimal, carry, &parts[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{Name: fmt.Sprintf("%s ADC/SBC", arch)}
	for i := range parts {
		r.merge(&parts[i], v.maxMismatches)
	}
	return v.finish(r)
}

func (v *Verifier) aluQuadrant(ctx context.Context, arch cpu.Architecture, t *refdata.Table, decimal, carry bool, r *Report) error {
	for in := range cpu.QuadrantInputs(decimal, carry) {
		if in.Operand == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for _, op := range cpu.Operations {
			want := t.Lookup(op, in)
			got := cpu.Compute(arch, op, in)
			c := caseCheck{name: fmt.Sprintf("%s %s", op, in)}
			c.expect("A", want.A, got.A, "$%02X")
			c.expect("N", want.Negative, got.Negative, "%v")
			c.expect("V", want.Overflow, got.Overflow, "%v")
			c.expect("Z", want.Zero, got.Zero, "%v")
			c.expect("C", want.Carry, got.Carry, "%v")
			v.record(r, &c)
		}
	}
	return nil
}

// The break and reserved bits are not real flags and captures disagree on
// how they report them.
const psIgnore = cpu.BreakBit | cpu.ReservedBit

// Stores runs each captured case through cpu.ExecuteStore and compares the
// registers, the captured memory and the bus trace.
func (v *Verifier) Stores(ctx context.Context, op cpu.StoreOp, tests []vectors.Test) (*Report, error) {
	r := &Report{Name: op.String()}
	for i := range tests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tt := &tests[i]
		if opcode, ok := tt.Opcode(); !ok || opcode != op.Opcode() {
			return nil, fmt.Errorf("%w: case '%s' is not opcode $%02X", ErrOpcode, tt.Name, op.Opcode())
		}

		final, cycles := cpu.ExecuteStore(op, tt.Initial.Machine())
		c := caseCheck{name: tt.Name}
		checkRegisters(&c, &tt.Final, &final.Reg)
		checkMemory(&c, &tt.Final, final.Mem)
		checkCycles(&c, tt.BusCycles(), cycles)
		v.record(r, &c)
	}
	return v.finish(r)
}

func checkRegisters(c *caseCheck, want *vectors.State, got *cpu.Registers) {
	c.expect("A", want.A, got.A, "$%02X")
	c.expect("X", want.X, got.X, "$%02X")
	c.expect("Y", want.Y, got.Y, "$%02X")
	c.expect("S", want.S, got.SP, "$%02X")
	c.expect("PC", want.PC, got.PC, "$%04X")
	c.expect("P", want.P|psIgnore, got.SavePS(false)|psIgnore, "$%02X")
}

func checkMemory(c *caseCheck, want *vectors.State, got cpu.Memory) {
	expected := make(map[uint16]bool, len(want.RAM))
	for _, cell := range want.RAM {
		expected[cell.Addr] = true
		c.expect(fmt.Sprintf("$%04X", cell.Addr), cell.Value, got.LoadByte(cell.Addr), "$%02X")
	}

	// Any location the model touched must also appear in the capture.
	if sm, ok := got.(*cpu.SparseMemory); ok {
		for _, addr := range sm.Addrs() {
			if !expected[addr] {
				c.expect(fmt.Sprintf("$%04X", addr), "untouched", "written", "%s")
			}
		}
	}
}

func checkCycles(c *caseCheck, want, got []cpu.BusCycle) {
	c.expect("cycles", len(want), len(got), "%d")
	for i := 0; i < min(len(want), len(got)); i++ {
		c.expect(fmt.Sprintf("cycle %d", i), want[i].String(), got[i].String(), "%s")
	}
}
