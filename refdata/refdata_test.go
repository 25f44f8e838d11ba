package refdata

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/m65xx/hwcheck/cpu"
)

func TestGenerateMatchesHardware(t *testing.T) {
	for _, arch := range cpu.Architectures {
		var buf bytes.Buffer
		n, err := Generate(&buf, arch)
		if err != nil {
			t.Fatalf("%s: generate failed: %v", arch, err)
		}
		if n != Size || buf.Len() != Size {
			t.Errorf("%s: size incorrect. exp: %d, got: %d", arch, Size, n)
		}
		s := md5.Sum(buf.Bytes())
		if got := hex.EncodeToString(s[:]); got != KnownMD5[arch] {
			t.Errorf("%s: md5 incorrect. exp: %s, got: %s", arch, KnownMD5[arch], got)
		}
	}
}

func TestSum(t *testing.T) {
	for _, arch := range []cpu.Architecture{cpu.NMOS, cpu.CMOS} {
		got, err := Sum(arch)
		if err != nil {
			t.Fatalf("%s: %v", arch, err)
		}
		if got != KnownMD5[arch] {
			t.Errorf("%s: md5 incorrect. exp: %s, got: %s", arch, KnownMD5[arch], got)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(cpu.NMOS); got != "adc_sbc_6502.dat" {
		t.Errorf("file name incorrect. got: %s", got)
	}
	if got := FileName(cpu.CMOS); got != "adc_sbc_65c02.dat" {
		t.Errorf("file name incorrect. got: %s", got)
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		op  cpu.Operation
		in  cpu.ALUInput
		off int
	}{
		{cpu.Add, cpu.ALUInput{}, 0},
		{cpu.Subtract, cpu.ALUInput{}, 2},
		{cpu.Add, cpu.ALUInput{Operand: 1}, 4},
		{cpu.Add, cpu.ALUInput{A: 1}, 1024},
		{cpu.Add, cpu.ALUInput{Carry: true}, 0x40000},
		{cpu.Subtract, cpu.ALUInput{Decimal: true, Carry: true, A: 0xff, Operand: 0xff}, Size - 2},
	}
	for _, tt := range tests {
		if got := Offset(tt.op, tt.in); got != tt.off {
			t.Errorf("%s %s: offset incorrect. exp: $%X, got: $%X", tt.op, tt.in, tt.off, got)
		}
	}
}

func TestReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Generate(&buf, cpu.NMOS); err != nil {
		t.Fatal(err)
	}

	tbl, err := Read(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got := tbl.MD5(); got != KnownMD5[cpu.NMOS] {
		t.Errorf("md5 incorrect. exp: %s, got: %s", KnownMD5[cpu.NMOS], got)
	}
	if arch, ok := tbl.Identify(); !ok || arch != cpu.NMOS {
		t.Errorf("identify incorrect. got: %s %v", arch, ok)
	}

	in := cpu.ALUInput{Decimal: true, A: 0x99, Operand: 0x01}
	exp := cpu.Compute(cpu.NMOS, cpu.Add, in)
	if got := tbl.Lookup(cpu.Add, in); got != exp {
		t.Errorf("lookup incorrect. exp: %s, got: %s", exp, got)
	}
	// 0x99+0x01 in decimal mode on the 6502: A=$00, N=1, Z=0, C=1, D=1.
	if got := tbl.Status(cpu.Add, in); got != 0xB9 {
		t.Errorf("status incorrect. exp: $B9, got: $%02X", got)
	}
}

func TestNewTable(t *testing.T) {
	tbl := NewTable(cpu.CMOS)
	if got := tbl.MD5(); got != KnownMD5[cpu.CMOS] {
		t.Errorf("md5 incorrect. exp: %s, got: %s", KnownMD5[cpu.CMOS], got)
	}

	var buf bytes.Buffer
	if n, err := tbl.WriteTo(&buf); err != nil || n != Size {
		t.Errorf("write incorrect. n: %d, err: %v", n, err)
	}
}

func TestSetBreaksIdentity(t *testing.T) {
	tbl := NewTable(cpu.NMOS)
	in := cpu.ALUInput{Decimal: true, A: 0x99, Operand: 0x01}
	tbl.Set(cpu.Add, in, cpu.Compute(cpu.CMOS, cpu.Add, in))
	if _, ok := tbl.Identify(); ok {
		t.Error("modified table should not be identified")
	}
}

func TestReadSizeErrors(t *testing.T) {
	if _, err := Read(bytes.NewReader(make([]byte, 100))); !errors.Is(err, ErrSize) {
		t.Errorf("short input: expected ErrSize, got: %v", err)
	}
	if _, err := Read(bytes.NewReader(make([]byte, Size+1))); !errors.Is(err, ErrSize) {
		t.Errorf("long input: expected ErrSize, got: %v", err)
	}
	if _, err := Read(bytes.NewReader(make([]byte, Size))); err != nil {
		t.Errorf("exact input: unexpected error: %v", err)
	}
}
