// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides an interactive command shell for exploring and
// verifying the 6502 and 65c02 ALU and unstable store models.
//
// Within the host it is possible to set registers and flags, run ADC and
// SBC under either architecture, execute unstable stores against 64K of
// memory while watching their bus cycles, generate reference dumps, and
// verify the models against hardware captures.
package host

import (
	"bufio"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/m65xx/hwcheck/cpu"
	"github.com/m65xx/hwcheck/refdata"
	"github.com/m65xx/hwcheck/vectors"
	"github.com/m65xx/hwcheck/verify"
	"github.com/sirupsen/logrus"
)

var errExit = errors.New("Exiting program")

// A Host holds a register file, 64K of memory and the settings that
// control how commands behave.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	reg         cpu.Registers
	arch        cpu.Architecture
	log         *logrus.Logger
	lastCmd     *cmd.Command
	lastArgs    []string
	settings    *settings
}

// New creates a new host. Output goes to stdout until RunCommands is
// called.
func New() *Host {
	h := &Host{
		output:   bufio.NewWriter(os.Stdout),
		mem:      cpu.NewFlatMemory(),
		log:      logrus.New(),
		settings: newSettings(),
	}
	h.reg.Init()

	h.log.SetOutput(flushWriter{h})
	h.log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	h.applySettings()
	return h
}

// SetArchitecture selects the CPU whose behavior the host models.
func (h *Host) SetArchitecture(arch cpu.Architecture) {
	h.settings.Arch = arch.String()
	h.applySettings()
}

// SetLogLevel sets the level of the verification logger.
func (h *Host) SetLogLevel(level logrus.Level) {
	h.settings.LogLevel = level.String()
	h.applySettings()
}

// SetHexMode selects whether numbers without a prefix are hexadecimal.
func (h *Host) SetHexMode(hex bool) {
	h.settings.HexMode = hex
	h.applySettings()
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered. It returns false
// if a command asked the host to exit.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) bool {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			return true
		}

		var n cmd.Node
		var args []string
		if line != "" {
			n, args, err = cmds.Lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				h.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.interactive && h.lastCmd != nil {
			// An empty line repeats the previous command.
			n, args = h.lastCmd, h.lastArgs
		}

		switch n := n.(type) {
		case *cmd.Tree:
			// A command group was named without a command.
			n.DisplayHelp(flushWriter{h})

		case *cmd.Command:
			h.lastCmd, h.lastArgs = n, args
			run := n.Data.(handler)
			if err := run(h, n, args); err != nil {
				return false
			}
		}
	}
}

// flushWriter writes through the host's current output writer, flushing
// after every write.
type flushWriter struct {
	h *Host
}

func (w flushWriter) Write(p []byte) (int, error) {
	n, err := w.h.output.Write(p)
	w.h.output.Flush()
	return n, err
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("%s* ", h.arch)
		h.flush()
	}
}

func (h *Host) cmdADC(c *cmd.Command, args []string) error {
	return h.alu(cpu.Add, c, args)
}

func (h *Host) cmdSBC(c *cmd.Command, args []string) error {
	return h.alu(cpu.Subtract, c, args)
}

func (h *Host) alu(op cpu.Operation, c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(flushWriter{h})
		return nil
	}

	m, err := parseByte(args[0], h.settings.HexMode)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	in := cpu.ALUInput{
		Carry:   h.reg.Carry,
		A:       h.reg.A,
		Operand: m,
		Decimal: h.reg.Decimal,
	}
	h.reg.ApplyALU(cpu.Compute(h.arch, op, in))
	h.printf("%s $%02X  %s\n", op, m, h.reg.String())
	return nil
}

func (h *Host) cmdDiscriminate(c *cmd.Command, args []string) error {
	count := h.settings.DiscriminateMax
	if len(args) > 0 {
		v, err := parseNumber(args[0], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = int(v)
	}

	for _, op := range cpu.Operations {
		h.printf("%s:\n", op)
		for _, in := range cpu.Discriminators(op, count) {
			nmos := cpu.Compute(cpu.NMOS, op, in)
			cmos := cpu.Compute(cpu.CMOS, op, in)
			h.printf("    %s   6502: %s   65c02: %s\n", in, nmos, cmos)
		}
	}
	return nil
}

func (h *Host) cmdGenerate(c *cmd.Command, args []string) error {
	filename := refdata.FileName(h.arch)
	if len(args) > 0 {
		filename = args[0]
	}

	file, err := os.Create(filename)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	sum := md5.New()
	n, err := refdata.Generate(io.MultiWriter(file, sum), h.arch)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		h.printf("Failed to write '%s': %v\n", filename, err)
		return nil
	}

	s := hex.EncodeToString(sum.Sum(nil))
	h.printf("Wrote %d bytes to '%s'.\n", n, filename)
	h.printf("MD5: %s\n", s)
	if s == refdata.KnownMD5[h.arch] {
		h.printf("Matches the %s hardware capture.\n", h.arch)
	} else {
		h.printf("Does not match the %s hardware capture.\n", h.arch)
	}
	return nil
}

func (h *Host) cmdHelp(c *cmd.Command, args []string) error {
	if err := cmds.GetHelp(flushWriter{h}, args); err != nil {
		h.printf("%v.\n", err)
	}
	return nil
}

func (h *Host) cmdMemoryDump(c *cmd.Command, args []string) error {
	addr := h.settings.NextMemDumpAddr
	if len(args) > 0 && args[0] != "$" {
		a, err := parseAddr(args[0], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(args) >= 2 {
		var err error
		bytes, err = parseAddr(args[1], h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastArgs = []string{"$", fmt.Sprintf("$%X", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c *cmd.Command, args []string) error {
	if len(args) < 2 {
		c.DisplayUsage(flushWriter{h})
		return nil
	}

	addr, err := parseAddr(args[0], h.settings.HexMode)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := make([]byte, 0, len(args)-1)
	for _, s := range args[1:] {
		v, err := parseByte(s, h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		b = append(b, v)
	}

	h.mem.StoreBytes(addr, b)
	h.dumpMemory(addr, uint16(len(b)))
	return nil
}

func (h *Host) cmdQuit(c *cmd.Command, args []string) error {
	return errExit
}

func (h *Host) cmdRegister(c *cmd.Command, args []string) error {
	h.printf("%s  (%s)\n", h.reg.String(), h.arch)
	return nil
}

func (h *Host) cmdSet(c *cmd.Command, args []string) error {
	switch len(args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		c.DisplayUsage(flushWriter{h})

	default:
		key, value := strings.ToLower(args[0]), strings.Join(args[1:], " ")
		if h.setRegister(key, value) {
			return nil
		}

		// Setting a host setting?
		old := *h.settings
		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("Setting '%s' not found", key)
		case reflect.String:
			err = h.settings.Set(key, value)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v uint32
			v, err = parseNumber(value, h.settings.HexMode)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}
		if err == nil {
			err = h.applySettings()
			if err != nil {
				*h.settings = old
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

// setRegister assigns a register or flag. It returns false if key names
// neither.
func (h *Host) setRegister(key, value string) bool {
	var flag *bool
	switch key {
	case "carry":
		flag = &h.reg.Carry
	case "zero":
		flag = &h.reg.Zero
	case "interrupt":
		flag = &h.reg.InterruptDisable
	case "decimal":
		flag = &h.reg.Decimal
	case "overflow":
		flag = &h.reg.Overflow
	case "sign":
		flag = &h.reg.Sign
	}
	if flag != nil {
		v, err := stringToBool(value)
		if err != nil {
			h.printf("%v\n", err)
			return true
		}
		*flag = v
		h.printf("Register %s set to %v.\n", strings.ToUpper(key), v)
		return true
	}

	var reg *byte
	switch key {
	case "a":
		reg = &h.reg.A
	case "x":
		reg = &h.reg.X
	case "y":
		reg = &h.reg.Y
	case "sp":
		reg = &h.reg.SP
	case "pc", ".":
		v, err := parseAddr(value, h.settings.HexMode)
		if err != nil {
			h.printf("%v\n", err)
			return true
		}
		h.reg.PC = v
		h.printf("Register PC set to $%04X.\n", v)
		return true
	default:
		return false
	}

	v, err := parseByte(value, h.settings.HexMode)
	if err != nil {
		h.printf("%v\n", err)
		return true
	}
	*reg = v
	h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), v)
	return true
}

func (h *Host) cmdStore(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.println("Unstable stores:")
		for _, op := range cpu.StoreOps() {
			h.printf("    $%02X  %s %-8s %d cycles\n", op.Opcode(), op.Name(), op.Mode(), op.Cycles())
		}
		return nil
	}

	op, ok := h.storeOp(args[0])
	if !ok {
		return nil
	}

	if v := h.mem.LoadByte(h.reg.PC); v != op.Opcode() {
		h.printf("Memory at $%04X holds $%02X, not opcode $%02X.\n", h.reg.PC, v, op.Opcode())
		return nil
	}

	line, code, _ := op.Disassemble(h.mem, h.reg.PC)
	h.printf("%04X-   %-8s    %s\n", h.reg.PC, codeString(code), line)

	st, cycles := cpu.ExecuteStore(op, cpu.MachineState{Reg: h.reg, Mem: h.mem})
	h.reg = st.Reg
	h.mem = st.Mem.(*cpu.FlatMemory)

	for i, bc := range cycles {
		h.printf("    %d  %s\n", i+1, bc)
	}
	h.println(h.reg.String())
	return nil
}

// storeOp parses an unstable store opcode, reporting any problem to the
// user.
func (h *Host) storeOp(s string) (cpu.StoreOp, bool) {
	if h.arch != cpu.NMOS {
		h.println("Unstable stores exist only on the 6502.")
		return 0, false
	}

	opcode, err := parseByte(s, h.settings.HexMode)
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}

	op, ok := cpu.LookupStore(opcode)
	if !ok {
		h.printf("Opcode $%02X is not an unstable store.\n", opcode)
	}
	return op, ok
}

func (h *Host) cmdVerifyALU(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(flushWriter{h})
		return nil
	}

	file, err := os.Open(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	defer file.Close()

	tbl, err := refdata.Read(file)
	if err != nil {
		h.printf("Failed to read '%s': %v\n", args[0], err)
		return nil
	}

	if arch, ok := tbl.Identify(); ok {
		h.printf("Dump matches the %s hardware capture.\n", arch)
	} else {
		h.printf("Dump MD5 %s matches no hardware capture.\n", tbl.MD5())
	}
	if sum, err := refdata.Sum(h.arch); err == nil && sum == tbl.MD5() {
		h.printf("Dump is identical to the %s model output.\n", h.arch)
	}

	r, err := h.verifier().ALU(context.Background(), h.arch, tbl)
	h.displayReport(r, err)
	return nil
}

func (h *Host) cmdVerifyStore(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(flushWriter{h})
		return nil
	}

	tests, err := vectors.LoadFile(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if len(tests) == 0 {
		h.printf("No cases in '%s'.\n", args[0])
		return nil
	}

	arg := ""
	if len(args) >= 2 {
		arg = args[1]
	} else if opcode, ok := tests[0].Opcode(); ok {
		arg = fmt.Sprintf("$%02X", opcode)
	} else {
		h.println("Unable to determine the opcode under test.")
		return nil
	}

	op, ok := h.storeOp(arg)
	if !ok {
		return nil
	}

	r, err := h.verifier().Stores(context.Background(), op, tests)
	h.displayReport(r, err)
	return nil
}

func (h *Host) verifier() *verify.Verifier {
	return verify.New(h.log, verify.WithMaxMismatches(h.settings.MaxMismatches))
}

func (h *Host) displayReport(r *verify.Report, err error) {
	if r == nil {
		h.printf("ERROR: %v.\n", err)
		return
	}

	h.println(r.String())
	for _, m := range r.Mismatches {
		h.printf("    %s\n", m)
	}
	if r.Failed > len(r.Mismatches) {
		h.printf("    ... %d more\n", r.Failed-len(r.Mismatches))
	}
}

// applySettings validates the settings and applies them to the host.
func (h *Host) applySettings() error {
	arch, err := cpu.ParseArchitecture(h.settings.Arch)
	if err != nil {
		return err
	}
	level, err := logrus.ParseLevel(h.settings.LogLevel)
	if err != nil {
		return err
	}
	if h.settings.MaxMismatches < 0 {
		return errors.New("MaxMismatches must not be negative")
	}

	h.arch = arch
	h.settings.Arch = arch.String()
	h.settings.LogLevel = level.String()
	h.log.SetLevel(level)
	return nil
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		row := make([]byte, int(addr1-addr0)+1)
		h.mem.LoadBytes(addr0, row)
		addrToBuf(addr0, buf[0:4])
		for i, m := range row {
			byteToBuf(m, buf[6+i*3:8+i*3])
			buf[32+i] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	var row [8]byte
	for r := start; r < stop; r += 8 {
		a := uint16(r)
		h.mem.LoadBytes(a, row[:])
		addrToBuf(a, buf[0:4])
		for i, m := range row {
			c1, c2 := 6+i*3, 32+i
			if a+uint16(i) >= addr0 && a+uint16(i) <= addr1 {
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}
